package trace

import (
	"errors"
	"io"
	"sync"
)

// Sink receives records. Write must be safe for concurrent use and must
// not fail the traced operation.
type Sink interface {
	Write(r *Record)
	Level() Level
	Close() error
}

type discard struct{}

func (discard) Write(*Record) {}
func (discard) Level() Level  { return LevelOff }
func (discard) Close() error  { return nil }

// Discard drops every record.
var Discard Sink = discard{}

// Stream encodes each record to w as it arrives.
type Stream struct {
	mu     sync.Mutex
	w      io.Writer
	level  Level
	format Format
	n      int
}

// NewStream returns a Stream. Chrome output opens its event array here and
// closes it in Close.
func NewStream(w io.Writer, level Level, format Format) *Stream {
	if format == FormatChrome {
		_, _ = io.WriteString(w, "{\"traceEvents\":[\n")
	}
	return &Stream{w: w, level: level, format: format}
}

func (s *Stream) Write(r *Record) {
	if !s.accepts(r) {
		return
	}
	data := encode(r, s.format)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.format == FormatChrome && s.n > 0 {
		_, _ = io.WriteString(s.w, ",\n")
	}
	s.n++
	_, _ = s.w.Write(data)
}

func (s *Stream) accepts(r *Record) bool {
	return r.Kind == KindPulse || s.level.Records(r.Scope)
}

func (s *Stream) Level() Level { return s.level }

// Close terminates the Chrome document and closes w when it is a Closer.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.format == FormatChrome {
		_, _ = io.WriteString(s.w, "\n]}\n")
	}
	if c, ok := s.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Ring keeps the newest records in a fixed buffer.
type Ring struct {
	mu    sync.Mutex
	buf   []Record
	next  int
	full  bool
	level Level
}

// NewRing returns a Ring holding up to size records.
func NewRing(size int, level Level) *Ring {
	if size <= 0 {
		size = defaultRingSize
	}
	return &Ring{buf: make([]Record, size), level: level}
}

func (r *Ring) Write(rec *Record) {
	// the ring keeps every scope: it is only read after a failure
	if r.level == LevelOff {
		return
	}
	r.mu.Lock()
	r.buf[r.next] = *rec
	r.next = (r.next + 1) % len(r.buf)
	if r.next == 0 {
		r.full = true
	}
	r.mu.Unlock()
}

// Records returns the buffered records, oldest first.
func (r *Ring) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.full {
		return append([]Record(nil), r.buf[:r.next]...)
	}
	out := make([]Record, 0, len(r.buf))
	out = append(out, r.buf[r.next:]...)
	return append(out, r.buf[:r.next]...)
}

// Dump writes the buffered records to w as text.
func (r *Ring) Dump(w io.Writer) error {
	for _, rec := range r.Records() {
		if _, err := w.Write(encode(&rec, FormatText)); err != nil {
			return err
		}
	}
	return nil
}

func (r *Ring) Level() Level {
	if r.level == LevelOff {
		return LevelOff
	}
	return LevelDebug
}

func (r *Ring) Close() error { return nil }

// Tee copies every record to several sinks.
type Tee struct {
	sinks []Sink
}

// NewTee fans records out to sinks.
func NewTee(sinks ...Sink) *Tee { return &Tee{sinks: sinks} }

func (t *Tee) Write(r *Record) {
	for _, s := range t.sinks {
		cp := *r
		s.Write(&cp)
	}
}

// Level is the most verbose level among the sinks.
func (t *Tee) Level() Level {
	var l Level
	for _, s := range t.sinks {
		l = max(l, s.Level())
	}
	return l
}

func (t *Tee) Close() error {
	var errs []error
	for _, s := range t.sinks {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}

// Ring returns the first Ring among the sinks.
func (t *Tee) Ring() *Ring {
	for _, s := range t.sinks {
		if r, ok := s.(*Ring); ok {
			return r
		}
	}
	return nil
}
