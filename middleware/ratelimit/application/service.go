package application

import (
	"context"
	"errors"

	"ratewrap/middleware/ratelimit/domain"
)

// Service concentra a regra de comparação do rate limit.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
type Service struct {
	Store domain.CounterStore
}

// Decide incrementa o contador de key e compara com limits.MaxCount usando
// "maior que" estrito: count == MaxCount ainda passa, count == MaxCount+1 bloqueia.
//
// Falhas do store viram OutcomeError com um *domain.StoreError em Err.
// O incremento, uma vez emitido, nunca é desfeito.
func (s Service) Decide(ctx context.Context, key domain.Key, limits domain.Limits) domain.Decision {
	dec := domain.Decision{Key: key, Limits: limits}
	if s.Store == nil {
		dec.Outcome = domain.OutcomeError
		dec.Err = &domain.ConfigError{Field: "store", Reason: "is required"}
		return dec
	}
	if err := limits.Validate(); err != nil {
		dec.Outcome = domain.OutcomeError
		dec.Err = err
		return dec
	}

	count, err := s.Store.Increment(ctx, key, limits.Window)
	if err != nil {
		dec.Outcome = domain.OutcomeError
		dec.Err = asStoreError("increment", key, err)
		return dec
	}
	dec.Count = count

	if count <= limits.MaxCount {
		dec.Outcome = domain.OutcomePass
		return dec
	}

	dec.Outcome = domain.OutcomeBlock
	ttl, err := s.Store.RemainingTTL(ctx, key)
	switch {
	case err != nil:
		// o bloqueio já está decidido; sem TTL, recomenda a janela inteira
		dec.RetryAfter = limits.Window
	case ttl > 0:
		dec.RetryAfter = ttl
	}
	return dec
}

// asStoreError não embrulha erros de configuração: fail-open nunca pode escondê-los.
func asStoreError(op string, key domain.Key, err error) error {
	if domain.IsStoreError(err) || errors.Is(err, domain.ErrInvalidConfig) {
		return err
	}
	return &domain.StoreError{Op: op, Key: key, Err: err}
}
