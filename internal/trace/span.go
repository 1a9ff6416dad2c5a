package trace

import (
	"context"
	"maps"
	"sync/atomic"
	"time"
)

var (
	seq     atomic.Uint64
	spanIDs atomic.Uint64
)

type sinkKey struct{}

type spanKey struct{}

type parentSpan struct {
	id   uint64
	lane uint64
}

// WithSink attaches sink to ctx; a nil sink disables tracing.
func WithSink(ctx context.Context, sink Sink) context.Context {
	if sink == nil {
		sink = Discard
	}
	return context.WithValue(ctx, sinkKey{}, sink)
}

// SinkFrom returns the sink carried by ctx, or Discard.
func SinkFrom(ctx context.Context) Sink {
	if ctx != nil {
		if s, ok := ctx.Value(sinkKey{}).(Sink); ok {
			return s
		}
	}
	return Discard
}

// Span is an open traced operation. A nil or disabled Span ignores every
// call.
type Span struct {
	sink   Sink
	id     uint64
	parent uint64
	lane   uint64
	scope  Scope
	name   string
	begun  time.Time
	attrs  map[string]string
	ended  atomic.Bool
}

// Start opens a span below the span carried by ctx.
func Start(ctx context.Context, scope Scope, name string) (context.Context, *Span) {
	sink := SinkFrom(ctx)
	if !sink.Level().Records(scope) {
		return ctx, nil
	}
	p, _ := ctx.Value(spanKey{}).(parentSpan)
	s := &Span{
		sink:   sink,
		id:     spanIDs.Add(1),
		parent: p.id,
		lane:   p.lane,
		scope:  scope,
		name:   name,
		begun:  time.Now(),
	}
	if s.lane == 0 {
		s.lane = s.id
	}
	sink.Write(&Record{
		At:     s.begun,
		Seq:    seq.Add(1),
		Kind:   KindBegin,
		Scope:  scope,
		Span:   s.id,
		Parent: s.parent,
		Lane:   s.lane,
		Name:   name,
	})
	return context.WithValue(ctx, spanKey{}, parentSpan{id: s.id, lane: s.lane}), s
}

// Set attaches an attribute reported with the end of the span.
func (s *Span) Set(key, value string) *Span {
	if s == nil {
		return nil
	}
	if s.attrs == nil {
		s.attrs = make(map[string]string, 4)
	}
	s.attrs[key] = value
	return s
}

// End closes the span; only the first call records.
func (s *Span) End() time.Duration { return s.finish("") }

// Fail closes the span with err as its note.
func (s *Span) Fail(err error) time.Duration {
	if err == nil {
		return s.finish("")
	}
	return s.finish(err.Error())
}

func (s *Span) finish(note string) time.Duration {
	if s == nil || s.ended.Swap(true) {
		return 0
	}
	took := time.Since(s.begun)
	s.sink.Write(&Record{
		At:     time.Now(),
		Seq:    seq.Add(1),
		Kind:   KindEnd,
		Scope:  s.scope,
		Span:   s.id,
		Parent: s.parent,
		Lane:   s.lane,
		Name:   s.name,
		Note:   note,
		Attrs:  maps.Clone(s.attrs),
		Took:   took,
	})
	return took
}

// ID returns the span id, 0 for a disabled span.
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}

// Mark records an instant under the span carried by ctx.
func Mark(ctx context.Context, scope Scope, name, note string) {
	sink := SinkFrom(ctx)
	if !sink.Level().Records(scope) {
		return
	}
	p, _ := ctx.Value(spanKey{}).(parentSpan)
	sink.Write(&Record{
		At:     time.Now(),
		Seq:    seq.Add(1),
		Kind:   KindMark,
		Scope:  scope,
		Parent: p.id,
		Lane:   p.lane,
		Name:   name,
		Note:   note,
	})
}
