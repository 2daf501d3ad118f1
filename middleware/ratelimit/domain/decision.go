package domain

import "time"

// Outcome é o estado terminal de uma requisição.
type Outcome int

const (
	OutcomePass Outcome = iota
	OutcomeBlock
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomePass:
		return "pass"
	case OutcomeBlock:
		return "block"
	case OutcomeError:
		return "error"
	default:
		return "unknown"
	}
}

// Decision é produzida uma vez por requisição e consumida imediatamente pelo dispatch.
// Nunca é armazenada.
type Decision struct {
	Outcome Outcome
	Key     Key
	Count   int64
	Limits  Limits

	// RetryAfter é o TTL restante da janela quando bloqueado.
	// Se 0, não há recomendação.
	RetryAfter time.Duration

	// Skipped indica que o predicado de skip curto-circuitou para Pass sem tocar o store.
	Skipped bool

	// Err é preenchido em OutcomeError e, com fail-open, em Pass degradado.
	Err error
}

// Remaining é quantas requisições ainda cabem na janela atual (nunca negativo).
func (d Decision) Remaining() int64 {
	if d.Count >= d.Limits.MaxCount {
		return 0
	}
	return d.Limits.MaxCount - d.Count
}
