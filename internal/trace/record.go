package trace

import (
	"fmt"
	"strings"
	"time"
)

// Level selects which scopes are recorded.
type Level uint8

const (
	LevelOff    Level = iota
	LevelError        // nothing streamed; ring dumps on failure
	LevelPhase        // build and chunk groups
	LevelDetail       // also single artifacts
	LevelDebug
)

var levelNames = [...]string{"off", "error", "phase", "detail", "debug"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// ParseLevel converts a flag value to a Level.
func ParseLevel(s string) (Level, error) {
	for i, name := range levelNames {
		if strings.EqualFold(s, name) {
			return Level(i), nil
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level %q (expected %s)", s, strings.Join(levelNames[:], "|"))
}

// Records reports whether spans of scope are kept at this level.
func (l Level) Records(scope Scope) bool {
	switch {
	case l >= LevelDetail:
		return true
	case l == LevelPhase:
		return scope <= ScopeGroup
	default:
		return false
	}
}

// Scope is the granularity of a span. Lower values are coarser.
type Scope uint8

const (
	// ScopeDriver covers the build and CLI operations.
	ScopeDriver Scope = iota + 1
	// ScopeGroup covers one chunk group assembly.
	ScopeGroup
	// ScopeChunk covers the resolution of one artifact.
	ScopeChunk
)

func (s Scope) String() string {
	switch s {
	case ScopeDriver:
		return "driver"
	case ScopeGroup:
		return "group"
	case ScopeChunk:
		return "chunk"
	default:
		return "unknown"
	}
}

// Kind tells span boundaries from instant marks.
type Kind uint8

const (
	KindBegin Kind = iota + 1
	KindEnd
	KindMark
	KindPulse
)

func (k Kind) String() string {
	switch k {
	case KindBegin:
		return "begin"
	case KindEnd:
		return "end"
	case KindMark:
		return "mark"
	case KindPulse:
		return "pulse"
	default:
		return "unknown"
	}
}

// Record is one traced occurrence.
type Record struct {
	At     time.Time
	Seq    uint64
	Kind   Kind
	Scope  Scope
	Span   uint64
	Parent uint64
	// Lane is the id of the root span the record descends from.
	Lane  uint64
	Name  string
	Note  string
	Attrs map[string]string
	// Took is set on KindEnd records.
	Took time.Duration
}
