package domain

// Camada de domínio do rate limit.
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import (
	"context"
	"time"
)

// Key identifica o sujeito limitado (ex: rota + IP, API key, tenant).
type Key string

// Limits é o par (janela, limite) efetivo para uma requisição.
//
// MaxCount é inclusivo: a requisição que leva o contador exatamente a MaxCount
// ainda passa; a seguinte (MaxCount+1) é bloqueada.
type Limits struct {
	MaxCount int64
	Window   time.Duration
}

// Validate devolve *ConfigError quando MaxCount não é positivo ou quando Window
// não é um número inteiro de milissegundos >= 1ms (resolução do PEXPIRE).
func (l Limits) Validate() error {
	if err := ValidateWindow(l.Window); err != nil {
		return err
	}
	if l.MaxCount <= 0 {
		return &ConfigError{Field: "maxCount", Reason: "must be > 0"}
	}
	return nil
}

// ValidateWindow rejeita janelas abaixo de 1ms ou fracionárias em milissegundos.
// O store arma o TTL em ms; truncar 1500µs para 1ms mudaria a janela em silêncio.
func ValidateWindow(window time.Duration) error {
	if window < time.Millisecond {
		return &ConfigError{Field: "window", Reason: "must be >= 1ms"}
	}
	if window%time.Millisecond != 0 {
		return &ConfigError{Field: "window", Reason: "must be a whole number of milliseconds"}
	}
	return nil
}

// Rule é o resultado de um provedor de regras dinâmico.
// Se Key vier preenchida, ela substitui por completo a chave derivada da requisição.
type Rule struct {
	Limits
	Key Key
}

// CounterStore é o cliente do contador compartilhado.
//
// Increment deve ser atômico em relação ao TTL: "incrementa; se o valor pós-incremento
// for 1, arma a expiração em window" numa única operação indivisível no store.
// Incrementos seguintes dentro da janela não estendem o TTL.
type CounterStore interface {
	Increment(ctx context.Context, key Key, window time.Duration) (int64, error)
	// RemainingTTL devolve 0 se a chave não existe ou não tem expiração.
	RemainingTTL(ctx context.Context, key Key) (time.Duration, error)
}
