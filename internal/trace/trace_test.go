package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLevelRecords(t *testing.T) {
	tests := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeDriver, false},
		{LevelError, ScopeDriver, false},
		{LevelPhase, ScopeGroup, true},
		{LevelPhase, ScopeChunk, false},
		{LevelDetail, ScopeChunk, true},
		{LevelDebug, ScopeChunk, true},
	}
	for _, tt := range tests {
		if got := tt.level.Records(tt.scope); got != tt.want {
			t.Errorf("%s.Records(%s) = %t, want %t", tt.level, tt.scope, got, tt.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	for _, s := range []string{"off", "error", "phase", "detail", "debug", "DETAIL"} {
		if _, err := ParseLevel(s); err != nil {
			t.Errorf("ParseLevel(%q) failed: %v", s, err)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestStartNestsSpansOnOneLane(t *testing.T) {
	ring := NewRing(16, LevelDebug)
	ctx := WithSink(context.Background(), ring)

	ctx, outer := Start(ctx, ScopeDriver, "build")
	_, inner := Start(ctx, ScopeGroup, "chunking")
	inner.Set("module", "/app/a.js").End()
	outer.Fail(errors.New("boom"))

	recs := ring.Records()
	if len(recs) != 4 {
		t.Fatalf("got %d records, want 4", len(recs))
	}
	if recs[1].Parent != outer.ID() || recs[1].Lane != outer.ID() {
		t.Fatalf("inner parent/lane = %d/%d, want %d", recs[1].Parent, recs[1].Lane, outer.ID())
	}
	if recs[2].Attrs["module"] != "/app/a.js" {
		t.Fatalf("attrs lost: %v", recs[2].Attrs)
	}
	if recs[3].Kind != KindEnd || recs[3].Note != "boom" {
		t.Fatalf("unexpected last record: %+v", recs[3])
	}
}

func TestEndRecordsOnce(t *testing.T) {
	ring := NewRing(8, LevelPhase)
	_, span := Start(WithSink(context.Background(), ring), ScopeGroup, "chunking")
	span.End()
	if span.End() != 0 {
		t.Fatal("second End reported a duration")
	}
	if n := len(ring.Records()); n != 2 {
		t.Fatalf("got %d records, want 2", n)
	}
}

func TestRingWraps(t *testing.T) {
	ring := NewRing(2, LevelDebug)
	ctx := WithSink(context.Background(), ring)
	for _, name := range []string{"a", "b", "c"} {
		Mark(ctx, ScopeDriver, name, "")
	}
	recs := ring.Records()
	if len(recs) != 2 || recs[0].Name != "b" || recs[1].Name != "c" {
		t.Fatalf("records = %+v", recs)
	}
	var buf bytes.Buffer
	if err := ring.Dump(&buf); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if !strings.Contains(buf.String(), "driver/c") {
		t.Fatalf("dump missing record:\n%s", buf.String())
	}
}

func TestStreamFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	st := NewStream(&buf, LevelPhase, FormatNDJSON)
	ctx := WithSink(context.Background(), st)
	ctx, span := Start(ctx, ScopeGroup, "chunking")
	_, chunk := Start(ctx, ScopeChunk, "resolve")
	chunk.End()
	span.Set("assets", "3").End()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &rec); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if rec["name"] != "chunking" || rec["kind"] != "end" || rec["scope"] != "group" {
		t.Fatalf("unexpected record: %v", rec)
	}
}

func TestChromeDocumentIsValidJSON(t *testing.T) {
	var buf bytes.Buffer
	st := NewStream(&buf, LevelDebug, FormatChrome)
	ctx := WithSink(context.Background(), st)
	_, span := Start(ctx, ScopeDriver, "build")
	span.End()
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	var doc struct {
		TraceEvents []map[string]any `json:"traceEvents"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("invalid chrome document: %v\n%s", err, buf.String())
	}
	if len(doc.TraceEvents) != 2 || doc.TraceEvents[0]["ph"] != "B" {
		t.Fatalf("events = %v", doc.TraceEvents)
	}
}

func TestTeeUsesMostVerboseLevel(t *testing.T) {
	var buf bytes.Buffer
	ring := NewRing(4, LevelError)
	tee := NewTee(NewStream(&buf, LevelError, FormatText), ring)
	if tee.Level() != LevelDebug {
		t.Fatalf("tee level = %s", tee.Level())
	}
	_, span := Start(WithSink(context.Background(), tee), ScopeChunk, "resolve")
	span.End()
	if buf.Len() != 0 {
		t.Fatalf("error-level stream wrote %q", buf.String())
	}
	if len(tee.Ring().Records()) != 2 {
		t.Fatal("ring did not keep records")
	}
}

func TestResolveFormat(t *testing.T) {
	tests := map[string]Format{
		"-":            FormatText,
		"build.ndjson": FormatNDJSON,
		"build.json":   FormatChrome,
		"build.log":    FormatText,
	}
	for path, want := range tests {
		if got := resolveFormat(FormatAuto, path); got != want {
			t.Errorf("resolveFormat(%q) = %d, want %d", path, got, want)
		}
	}
	if resolveFormat(FormatText, "x.json") != FormatText {
		t.Fatal("explicit format overridden")
	}
}

func TestDisabledByDefault(t *testing.T) {
	if SinkFrom(context.Background()).Level() != LevelOff {
		t.Fatal("default sink must be disabled")
	}
	_, span := Start(context.Background(), ScopeGroup, "chunking")
	if span != nil || span.Set("k", "v").End() != 0 {
		t.Fatal("disabled span reported work")
	}
}

func TestPulse(t *testing.T) {
	ring := NewRing(64, LevelPhase)
	stop := StartPulse(ring, time.Millisecond)
	deadline := time.Now().Add(2 * time.Second)
	for len(ring.Records()) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	stop()
	stop()
	recs := ring.Records()
	if len(recs) == 0 || recs[0].Kind != KindPulse {
		t.Fatalf("records = %+v", recs)
	}
}
