package trace

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

func encode(r *Record, f Format) []byte {
	switch f {
	case FormatNDJSON:
		return encodeNDJSON(r)
	case FormatChrome:
		return encodeChrome(r)
	default:
		return encodeText(r)
	}
}

type jsonRecord struct {
	At     string            `json:"at"`
	Seq    uint64            `json:"seq"`
	Kind   string            `json:"kind"`
	Scope  string            `json:"scope"`
	Span   uint64            `json:"span,omitempty"`
	Parent uint64            `json:"parent,omitempty"`
	Lane   uint64            `json:"lane,omitempty"`
	Name   string            `json:"name"`
	Note   string            `json:"note,omitempty"`
	Attrs  map[string]string `json:"attrs,omitempty"`
	TookUS int64             `json:"took_us,omitempty"`
}

func encodeNDJSON(r *Record) []byte {
	data, _ := json.Marshal(jsonRecord{
		At:     r.At.UTC().Format("2006-01-02T15:04:05.000000Z"),
		Seq:    r.Seq,
		Kind:   r.Kind.String(),
		Scope:  r.Scope.String(),
		Span:   r.Span,
		Parent: r.Parent,
		Lane:   r.Lane,
		Name:   r.Name,
		Note:   r.Note,
		Attrs:  r.Attrs,
		TookUS: r.Took.Microseconds(),
	})
	return append(data, '\n')
}

type chromeEvent struct {
	Name  string            `json:"name"`
	Cat   string            `json:"cat"`
	Ph    string            `json:"ph"`
	TS    int64             `json:"ts"`
	PID   int               `json:"pid"`
	TID   uint64            `json:"tid"`
	Scope string            `json:"s,omitempty"`
	Args  map[string]string `json:"args,omitempty"`
}

func encodeChrome(r *Record) []byte {
	ev := chromeEvent{Name: r.Name, Cat: r.Scope.String(), TS: r.At.UnixMicro(), PID: 1, TID: r.Lane}
	switch r.Kind {
	case KindBegin:
		ev.Ph = "B"
	case KindEnd:
		ev.Ph = "E"
	default:
		ev.Ph, ev.Scope = "i", "t"
	}
	if len(r.Attrs) > 0 || r.Note != "" {
		ev.Args = make(map[string]string, len(r.Attrs)+1)
		for k, v := range r.Attrs {
			ev.Args[k] = v
		}
		if r.Note != "" {
			ev.Args["note"] = r.Note
		}
	}
	data, _ := json.Marshal(ev)
	return data
}

// encodeText renders "seq lane > name {k=v}" with the span depth implied by
// the arrow: ">" opens, "<" closes, "*" marks.
func encodeText(r *Record) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%6d %4d ", r.Seq, r.Lane)
	switch r.Kind {
	case KindBegin:
		sb.WriteString("> ")
	case KindEnd:
		sb.WriteString("< ")
	default:
		sb.WriteString("* ")
	}
	sb.WriteString(r.Scope.String())
	sb.WriteByte('/')
	sb.WriteString(r.Name)
	if r.Kind == KindEnd {
		fmt.Fprintf(&sb, " %s", r.Took.Round(1000))
	}
	if r.Note != "" {
		sb.WriteString(" (" + r.Note + ")")
	}
	if len(r.Attrs) > 0 {
		keys := make([]string, 0, len(r.Attrs))
		for k := range r.Attrs {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		sb.WriteString(" {")
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(k + "=" + r.Attrs[k])
		}
		sb.WriteByte('}')
	}
	sb.WriteByte('\n')
	return []byte(sb.String())
}
