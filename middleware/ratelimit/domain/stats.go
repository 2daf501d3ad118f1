package domain

import (
	"context"
	"time"
)

// DecisionEvent representa um evento de decisão do rate limit.
//
// Observação: cuidado com cardinalidade (ex.: usar Key/Path como label sem controle pode
// explodir o número de séries numa base como Prometheus).
type DecisionEvent struct {
	Key     Key
	Outcome Outcome
	Count   int64
	Skipped bool

	Method string
	Path   string

	// StoreLatency é o tempo gasto no round trip ao counter store (0 se não houve chamada).
	StoreLatency time.Duration
	At           time.Time
}

// Recorder recebe um evento por requisição.
//
// O middleware trata erro como best-effort (não derruba request).
type Recorder interface {
	Record(ctx context.Context, ev DecisionEvent) error
}
