package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig é a sentinela de toda falha de configuração (política inválida, chave vazia).
	ErrInvalidConfig = errors.New("invalid rate limit configuration")

	// ErrStoreBusy indica que não houve vaga para falar com o store dentro do timeout.
	ErrStoreBusy = errors.New("counter store busy")
)

// ConfigError descreve uma política inválida. errors.Is(err, ErrInvalidConfig) é verdadeiro.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidConfig, e.Field, e.Reason)
}

func (e *ConfigError) Is(target error) bool { return target == ErrInvalidConfig }

// StoreError envolve uma falha do counter store (inalcançável, script com erro, etc).
type StoreError struct {
	Op  string
	Key Key
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("counter store %s %q: %v", e.Op, string(e.Key), e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// HookError envolve o erro devolvido por um hook do chamador.
// Ele é propagado para o tratamento de erros do host, nunca engolido.
type HookError struct {
	Outcome Outcome
	Err     error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("rate limit %s hook: %v", e.Outcome, e.Err)
}

func (e *HookError) Unwrap() error { return e.Err }

// IsStoreError informa se err (ou algo que ele envolve) é um *StoreError.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
