package application

import (
	"context"
	"time"

	"ratewrap/middleware/ratelimit/domain"
)

// Bulkhead concentra a regra de aquisição/liberação de vagas com timeout,
// sem saber nada sobre HTTP.
type Bulkhead struct {
	Pool           domain.SlotPool
	AcquireTimeout time.Duration
}

// Acquire tenta adquirir uma vaga.
// - Se `AcquireTimeout <= 0`, espera indefinidamente (até ctx cancelar).
// - Se `AcquireTimeout > 0`, espera até o timeout.
// Retorna (release, ok). Se ok=false, nenhuma vaga foi adquirida.
func (b Bulkhead) Acquire(ctx context.Context) (func(), bool) {
	if b.Pool == nil {
		return func() {}, true
	}

	if b.AcquireTimeout <= 0 {
		return b.Pool.Acquire(ctx)
	}

	acqCtx, cancel := context.WithTimeout(ctx, b.AcquireTimeout)
	defer cancel()
	return b.Pool.Acquire(acqCtx)
}

// GuardedStore limita quantos round trips ao store podem estar em voo ao mesmo tempo.
// Com o store lento, as requisições excedentes falham rápido com ErrStoreBusy
// em vez de acumular goroutines esperando o Redis.
type GuardedStore struct {
	Store    domain.CounterStore
	Bulkhead Bulkhead
}

var _ domain.CounterStore = GuardedStore{}

func (g GuardedStore) Increment(ctx context.Context, key domain.Key, window time.Duration) (int64, error) {
	release, ok := g.Bulkhead.Acquire(ctx)
	if !ok {
		return 0, busyError(ctx, "increment", key)
	}
	defer release()
	return g.Store.Increment(ctx, key, window)
}

func (g GuardedStore) RemainingTTL(ctx context.Context, key domain.Key) (time.Duration, error) {
	release, ok := g.Bulkhead.Acquire(ctx)
	if !ok {
		return 0, busyError(ctx, "pttl", key)
	}
	defer release()
	return g.Store.RemainingTTL(ctx, key)
}

func busyError(ctx context.Context, op string, key domain.Key) error {
	err := domain.ErrStoreBusy
	if ctx.Err() != nil {
		err = ctx.Err()
	}
	return &domain.StoreError{Op: op, Key: key, Err: err}
}
