package ui

import (
	"errors"
	"strings"
	"testing"

	"devchunk/internal/buildpipeline"
)

func TestProgressModelTracksGroups(t *testing.T) {
	events := make(chan buildpipeline.Event)
	b := NewProgressModel("build", events).(*board)

	for _, ev := range []buildpipeline.Event{
		{Stage: buildpipeline.StageLoad, Status: buildpipeline.StatusWorking},
		{Group: "src/index.js", Stage: buildpipeline.StageGroup, Status: buildpipeline.StatusQueued},
		{Group: "src/index.js", Stage: buildpipeline.StageGroup, Status: buildpipeline.StatusDone},
		{Group: "src/lazy.js", Stage: buildpipeline.StageGroup, Status: buildpipeline.StatusWorking},
	} {
		b.Update(eventMsg(ev))
	}

	if len(b.rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(b.rows))
	}
	if got := [2]string{b.rows[0].label(), b.rows[1].label()}; got != [2]string{"grouped", "grouping"} {
		t.Fatalf("labels = %q", got)
	}
	if b.phase != "loading" {
		t.Fatalf("phase = %q", b.phase)
	}
	view := b.View()
	if !strings.Contains(view, "src/index.js") || !strings.Contains(view, "src/lazy.js") {
		t.Fatalf("view misses groups:\n%s", view)
	}

	b.Update(closedMsg{})
	if !strings.Contains(b.View(), "done: build") {
		t.Fatalf("view after close:\n%s", b.View())
	}
}

func TestProgressModelShowsFailure(t *testing.T) {
	b := NewProgressModel("build", nil).(*board)
	b.Update(eventMsg{Group: "src/a.js", Stage: buildpipeline.StageGroup, Status: buildpipeline.StatusError, Err: errors.New("unknown module")})
	if b.rows[0].label() != "failed" || b.rows[0].share() != 1 {
		t.Fatalf("row = %+v", b.rows[0])
	}
	if !strings.Contains(b.View(), "unknown module") {
		t.Fatalf("view misses error:\n%s", b.View())
	}
}

func TestRowShare(t *testing.T) {
	tests := []struct {
		stage  buildpipeline.Stage
		status buildpipeline.Status
		want   float64
	}{
		{buildpipeline.StageGroup, buildpipeline.StatusQueued, 0},
		{buildpipeline.StageGroup, buildpipeline.StatusWorking, 0.3},
		{buildpipeline.StageGroup, buildpipeline.StatusDone, 0.7},
		{buildpipeline.StageWrite, buildpipeline.StatusWorking, 0.85},
		{buildpipeline.StageWrite, buildpipeline.StatusDone, 1},
		{buildpipeline.StageLoad, buildpipeline.StatusWorking, 0},
	}
	for _, tt := range tests {
		r := groupRow{stage: tt.stage, status: tt.status}
		if got := r.share(); got != tt.want {
			t.Errorf("share(%s, %s) = %v, want %v", tt.stage, tt.status, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"averyverylongname", 8, "avery..."},
		{"abcdef", 2, "ab"},
		{"anything", 0, "anything"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
