package mocks

import (
	"context"
	"maps"
	"nibog/infras/otel"
	"sync"
)

type noopOtel struct{}

func (noopOtel) NewScope(ctx context.Context, _, _ string) (context.Context, otel.Scope) {
	return ctx, NewScope()
}

func (noopOtel) Shutdown(context.Context) error {
	return nil
}

// NewOtel discards every span.
func NewOtel() otel.Otel {
	return noopOtel{}
}

// Recorder keeps every span opened through it so tests can assert on traced errors and attributes.
type Recorder struct {
	mu    sync.Mutex
	spans []*Span
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) NewScope(ctx context.Context, _, spanName string) (context.Context, otel.Scope) {
	span := &Span{Name: spanName, Attributes: map[string]any{}}

	r.mu.Lock()
	r.spans = append(r.spans, span)
	r.mu.Unlock()

	return ctx, &recordingScope{mu: &r.mu, span: span}
}

func (r *Recorder) Shutdown(context.Context) error {
	return nil
}

// Spans returns the spans opened so far, oldest first.
func (r *Recorder) Spans() []Span {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Span, len(r.spans))
	for i, span := range r.spans {
		out[i] = *span
		out[i].Attributes = maps.Clone(span.Attributes)
	}

	return out
}
