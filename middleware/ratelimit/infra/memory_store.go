package infra

import (
	"context"
	"sync"
	"time"

	"ratewrap/middleware/ratelimit/domain"
)

// MemoryCounterStore é uma implementação de domain.CounterStore em memória
// com a mesma semântica da versão Redis: o primeiro incremento arma o TTL da janela.
//
// O mutex é o ponto de linearização por chave. Não é compartilhado entre processos:
// útil para testes e desenvolvimento.
type MemoryCounterStore struct {
	mu           sync.Mutex
	entries      map[domain.Key]*counterEntry
	now          func() time.Time
	cleanupEvery time.Duration
}

type counterEntry struct {
	count     int64
	expiresAt time.Time
}

var _ domain.CounterStore = (*MemoryCounterStore)(nil)

type MemoryStoreOption func(*MemoryCounterStore)

// WithClock troca o relógio (testes de expiração de janela sem sleep).
func WithClock(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryCounterStore) { s.now = now }
}

func WithCleanupEvery(d time.Duration) MemoryStoreOption {
	return func(s *MemoryCounterStore) { s.cleanupEvery = d }
}

func NewMemoryCounterStore(opts ...MemoryStoreOption) *MemoryCounterStore {
	s := &MemoryCounterStore{
		entries:      make(map[domain.Key]*counterEntry),
		now:          time.Now,
		cleanupEvery: time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryCounterStore) Increment(_ context.Context, key domain.Key, window time.Duration) (int64, error) {
	if window <= 0 {
		return 0, &domain.ConfigError{Field: "window", Reason: "must be > 0"}
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.entries[key]
	if !ok || !now.Before(ent.expiresAt) {
		s.entries[key] = &counterEntry{count: 1, expiresAt: now.Add(window)}
		return 1, nil
	}
	ent.count++
	return ent.count, nil
}

func (s *MemoryCounterStore) RemainingTTL(_ context.Context, key domain.Key) (time.Duration, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.entries[key]
	if !ok || !now.Before(ent.expiresAt) {
		return 0, nil
	}
	return ent.expiresAt.Sub(now), nil
}

// Len devolve quantas chaves estão em memória (inclusive expiradas ainda não limpas).
func (s *MemoryCounterStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryCounterStore) Cleanup() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, ent := range s.entries {
		if !now.Before(ent.expiresAt) {
			delete(s.entries, k)
		}
	}
}

// StartJanitor inicia uma goroutine que remove janelas expiradas a cada cleanupEvery.
// Ela termina quando ctx é cancelado; cleanupEvery <= 0 desliga o janitor.
func (s *MemoryCounterStore) StartJanitor(ctx context.Context) {
	if s.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}
