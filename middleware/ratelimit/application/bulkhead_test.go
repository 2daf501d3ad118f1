package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"ratewrap/middleware/ratelimit/domain"
)

type blockingPool struct {
}

func (p *blockingPool) Acquire(ctx context.Context) (func(), bool) {
	select {
	case <-ctx.Done():
		return nil, false
	case <-time.After(5 * time.Second):
		// não deve chegar aqui nos testes
		return nil, false
	}
}

type immediatePool struct {
	acquired int
	released int
}

func (p *immediatePool) Acquire(ctx context.Context) (func(), bool) {
	p.acquired++
	return func() { p.released++ }, true
}

func TestBulkhead_Acquire_AllowsWhenNoPool(t *testing.T) {
	b := Bulkhead{}
	release, ok := b.Acquire(context.Background())
	if !ok {
		t.Fatalf("expected ok")
	}
	release()
}

func TestBulkhead_Acquire_UsesTimeout(t *testing.T) {
	b := Bulkhead{Pool: &blockingPool{}, AcquireTimeout: 10 * time.Millisecond}

	_, ok := b.Acquire(context.Background())
	if ok {
		t.Fatalf("expected timeout and ok=false")
	}
}

func TestGuardedStore_ReleasesSlotAfterCall(t *testing.T) {
	pool := &immediatePool{}
	store := newFakeStore()
	g := GuardedStore{Store: store, Bulkhead: Bulkhead{Pool: pool}}

	if _, err := g.Increment(context.Background(), "k", time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := g.RemainingTTL(context.Background(), "k"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pool.acquired != 2 || pool.released != 2 {
		t.Fatalf("expected 2 acquire/release pairs, got %d/%d", pool.acquired, pool.released)
	}
}

func TestGuardedStore_SaturatedPoolFailsWithStoreBusy(t *testing.T) {
	store := newFakeStore()
	g := GuardedStore{
		Store:    store,
		Bulkhead: Bulkhead{Pool: &blockingPool{}, AcquireTimeout: 10 * time.Millisecond},
	}

	_, err := g.Increment(context.Background(), "k", time.Second)
	if !errors.Is(err, domain.ErrStoreBusy) {
		t.Fatalf("expected ErrStoreBusy, got %v", err)
	}
	if !domain.IsStoreError(err) {
		t.Fatalf("expected saturation to surface as a store error, got %T", err)
	}
	if store.incrs != 0 {
		t.Fatalf("expected the store not to be called, got %d", store.incrs)
	}
}

func TestGuardedStore_CancelledContextReportsCause(t *testing.T) {
	g := GuardedStore{Store: newFakeStore(), Bulkhead: Bulkhead{Pool: &blockingPool{}}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Increment(ctx, "k", time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
