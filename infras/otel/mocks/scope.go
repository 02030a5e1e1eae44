package mocks

import (
	"maps"
	"nibog/infras/otel"
	"sync"
)

// Span is what a recording scope captured by the time it ended.
type Span struct {
	Name       string
	Attributes map[string]any
	Events     []string
	Errors     []error
	Ended      bool
}

// recordingScope shares its recorder's lock so Spans never reads a span mid write.
type recordingScope struct {
	mu   *sync.Mutex
	span *Span
}

func (s *recordingScope) AddEvent(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.span.Events = append(s.span.Events, name)
}

func (s *recordingScope) End() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.span.Ended = true
}

func (s *recordingScope) SetAttribute(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.span.Attributes[key] = value
}

func (s *recordingScope) SetAttributes(attributes map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	maps.Copy(s.span.Attributes, attributes)
}

func (s *recordingScope) TraceError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.span.Errors = append(s.span.Errors, err)
}

func (s *recordingScope) TraceIfError(err error) {
	if err != nil {
		s.TraceError(err)
	}
}

type noopScope struct{}

func (noopScope) AddEvent(string) {}

func (noopScope) End() {}

func (noopScope) SetAttribute(string, any) {}

func (noopScope) SetAttributes(map[string]any) {}

func (noopScope) TraceError(error) {}

func (noopScope) TraceIfError(error) {}

func NewScope() otel.Scope {
	return noopScope{}
}
