package trace

import (
	"fmt"
	"io"
	"os"
	"strings"
)

const defaultRingSize = 4096

// Format is the encoding of streamed records.
type Format uint8

const (
	FormatAuto Format = iota // chosen from the output file extension
	FormatText
	FormatNDJSON
	FormatChrome
)

// ParseFormat converts a flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return FormatAuto, nil
	case "text":
		return FormatText, nil
	case "ndjson":
		return FormatNDJSON, nil
	case "chrome":
		return FormatChrome, nil
	}
	return FormatAuto, fmt.Errorf("invalid trace format %q (expected auto|text|ndjson|chrome)", s)
}

// Mode chooses where records are kept.
type Mode uint8

const (
	ModeStream Mode = iota + 1
	ModeRing
	ModeBoth
)

// ParseMode converts a flag value to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "stream":
		return ModeStream, nil
	case "ring":
		return ModeRing, nil
	case "both":
		return ModeBoth, nil
	}
	return ModeStream, fmt.Errorf("invalid trace mode %q (expected stream|ring|both)", s)
}

// Options configures Open.
type Options struct {
	Level  Level
	Mode   Mode
	Format Format
	// Path is the stream output; "" and "-" mean stderr.
	Path     string
	RingSize int
}

// Open builds the sink described by opts.
func Open(opts Options) (Sink, error) {
	if opts.Level == LevelOff {
		return Discard, nil
	}
	switch opts.Mode {
	case ModeRing:
		return NewRing(opts.RingSize, opts.Level), nil
	case ModeStream, ModeBoth:
	default:
		return nil, fmt.Errorf("unknown trace mode %d", opts.Mode)
	}

	w, err := openPath(opts.Path)
	if err != nil {
		return nil, err
	}
	stream := NewStream(w, opts.Level, resolveFormat(opts.Format, opts.Path))
	if opts.Mode == ModeStream {
		return stream, nil
	}
	return NewTee(stream, NewRing(opts.RingSize, opts.Level)), nil
}

func resolveFormat(f Format, path string) Format {
	if f != FormatAuto {
		return f
	}
	switch {
	case strings.HasSuffix(path, ".ndjson"):
		return FormatNDJSON
	case strings.HasSuffix(path, ".json"):
		return FormatChrome
	default:
		return FormatText
	}
}

type stderr struct{ io.Writer }

func openPath(path string) (io.Writer, error) {
	if path == "" || path == "-" {
		// wrapped so Close leaves stderr open
		return stderr{os.Stderr}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("open trace output: %w", err)
	}
	return f, nil
}
