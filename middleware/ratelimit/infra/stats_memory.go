package infra

import (
	"context"
	"sync"

	"ratewrap/middleware/ratelimit/domain"
)

type Counters struct {
	Passed  int64
	Blocked int64
	Errored int64
	Skipped int64
}

func (c *Counters) add(ev domain.DecisionEvent) {
	switch ev.Outcome {
	case domain.OutcomePass:
		c.Passed++
		if ev.Skipped {
			c.Skipped++
		}
	case domain.OutcomeBlock:
		c.Blocked++
	case domain.OutcomeError:
		c.Errored++
	}
}

// MemoryRecorder é uma implementação simples em memória de domain.Recorder.
// Útil para testes e para o endpoint de status do exemplo.
//
// Não faz expiração e não persiste nada.
type MemoryRecorder struct {
	mu      sync.Mutex
	total   Counters
	byRoute map[string]Counters
	byKey   map[string]Counters

	trackKeys bool
}

var _ domain.Recorder = (*MemoryRecorder)(nil)

type MemoryRecorderOption func(*MemoryRecorder)

func WithTrackKeys(track bool) MemoryRecorderOption {
	return func(s *MemoryRecorder) { s.trackKeys = track }
}

func NewMemoryRecorder(opts ...MemoryRecorderOption) *MemoryRecorder {
	s := &MemoryRecorder{
		byRoute: make(map[string]Counters),
		byKey:   make(map[string]Counters),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryRecorder) Record(_ context.Context, ev domain.DecisionEvent) error {
	route := ev.Method + " " + ev.Path

	s.mu.Lock()
	defer s.mu.Unlock()

	s.total.add(ev)

	c := s.byRoute[route]
	c.add(ev)
	s.byRoute[route] = c

	if s.trackKeys && ev.Key != "" {
		k := s.byKey[string(ev.Key)]
		k.add(ev)
		s.byKey[string(ev.Key)] = k
	}
	return nil
}

func (s *MemoryRecorder) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *MemoryRecorder) ByRoute() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Counters, len(s.byRoute))
	for k, v := range s.byRoute {
		out[k] = v
	}
	return out
}

func (s *MemoryRecorder) ByKey() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Counters, len(s.byKey))
	for k, v := range s.byKey {
		out[k] = v
	}
	return out
}
