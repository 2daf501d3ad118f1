package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ratewrap/middleware/ratelimit/domain"
)

type fakeStore struct {
	mu       sync.Mutex
	counts   map[domain.Key]int64
	ttl      time.Duration
	incrErr  error
	ttlErr   error
	incrs    int
	ttlCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{counts: make(map[domain.Key]int64)}
}

func (s *fakeStore) Increment(_ context.Context, key domain.Key, _ time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.incrs++
	if s.incrErr != nil {
		return 0, s.incrErr
	}
	s.counts[key]++
	return s.counts[key], nil
}

func (s *fakeStore) RemainingTTL(_ context.Context, _ domain.Key) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ttlCalls++
	return s.ttl, s.ttlErr
}

var twoPerSecond = domain.Limits{MaxCount: 2, Window: time.Second}

func TestService_Decide_ErrorsWhenNoStore(t *testing.T) {
	dec := Service{}.Decide(context.Background(), "k", twoPerSecond)
	if dec.Outcome != domain.OutcomeError {
		t.Fatalf("expected error outcome, got %s", dec.Outcome)
	}
	if !errors.Is(dec.Err, domain.ErrInvalidConfig) {
		t.Fatalf("expected config error, got %v", dec.Err)
	}
}

func TestService_Decide_StrictGreaterThanBoundary(t *testing.T) {
	store := newFakeStore()
	store.ttl = 750 * time.Millisecond
	svc := Service{Store: store}

	for i := 1; i <= 2; i++ {
		dec := svc.Decide(context.Background(), "k", twoPerSecond)
		if dec.Outcome != domain.OutcomePass {
			t.Fatalf("request %d: expected pass, got %s", i, dec.Outcome)
		}
		if dec.Count != int64(i) {
			t.Fatalf("request %d: expected count %d, got %d", i, i, dec.Count)
		}
	}

	dec := svc.Decide(context.Background(), "k", twoPerSecond)
	if dec.Outcome != domain.OutcomeBlock {
		t.Fatalf("expected block on count=3, got %s", dec.Outcome)
	}
	if dec.RetryAfter != 750*time.Millisecond {
		t.Fatalf("expected RetryAfter=750ms, got %s", dec.RetryAfter)
	}
	if store.ttlCalls != 1 {
		t.Fatalf("expected ttl lookup only on block, got %d calls", store.ttlCalls)
	}
}

func TestService_Decide_ZeroTTLMeansNoRecommendation(t *testing.T) {
	store := newFakeStore()
	store.counts["k"] = 5
	svc := Service{Store: store}

	dec := svc.Decide(context.Background(), "k", twoPerSecond)
	if dec.Outcome != domain.OutcomeBlock {
		t.Fatalf("expected block, got %s", dec.Outcome)
	}
	if dec.RetryAfter != 0 {
		t.Fatalf("expected RetryAfter=0 for key without ttl, got %s", dec.RetryAfter)
	}
}

func TestService_Decide_TTLFailureKeepsBlock(t *testing.T) {
	store := newFakeStore()
	store.counts["k"] = 2
	store.ttlErr = errors.New("pttl failed")
	svc := Service{Store: store}

	dec := svc.Decide(context.Background(), "k", twoPerSecond)
	if dec.Outcome != domain.OutcomeBlock {
		t.Fatalf("expected block even when ttl lookup fails, got %s", dec.Outcome)
	}
	if dec.RetryAfter != time.Second {
		t.Fatalf("expected RetryAfter to fall back to the window, got %s", dec.RetryAfter)
	}
}

func TestService_Decide_WrapsStoreErrors(t *testing.T) {
	store := newFakeStore()
	boom := errors.New("connection refused")
	store.incrErr = boom
	svc := Service{Store: store}

	dec := svc.Decide(context.Background(), "k", twoPerSecond)
	if dec.Outcome != domain.OutcomeError {
		t.Fatalf("expected error outcome, got %s", dec.Outcome)
	}
	if !domain.IsStoreError(dec.Err) {
		t.Fatalf("expected *domain.StoreError, got %T", dec.Err)
	}
	if !errors.Is(dec.Err, boom) {
		t.Fatalf("expected original error to be preserved, got %v", dec.Err)
	}
}

func TestService_Decide_DoesNotWrapStoreConfigErrors(t *testing.T) {
	store := newFakeStore()
	store.incrErr = &domain.ConfigError{Field: "window", Reason: "must be >= 1ms"}
	svc := Service{Store: store}

	dec := svc.Decide(context.Background(), "k", twoPerSecond)
	if dec.Outcome != domain.OutcomeError {
		t.Fatalf("expected error outcome, got %s", dec.Outcome)
	}
	if domain.IsStoreError(dec.Err) {
		t.Fatalf("configuration errors must not look like store failures: %v", dec.Err)
	}
	if !errors.Is(dec.Err, domain.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", dec.Err)
	}
}

func TestService_Decide_RejectsInvalidLimitsWithoutTouchingStore(t *testing.T) {
	store := newFakeStore()
	svc := Service{Store: store}

	dec := svc.Decide(context.Background(), "k", domain.Limits{MaxCount: 0, Window: time.Second})
	if dec.Outcome != domain.OutcomeError {
		t.Fatalf("expected error outcome, got %s", dec.Outcome)
	}
	if store.incrs != 0 {
		t.Fatalf("expected no store calls, got %d", store.incrs)
	}
}
