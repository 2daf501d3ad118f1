package ratelimit

import (
	"net/http"
	"time"

	"ratewrap/middleware/ratelimit/domain"

	"github.com/rs/zerolog"
)

// KeyFunc deriva a chave de limitação de uma requisição.
// Resultado vazio é erro de configuração, nunca fallback silencioso.
type KeyFunc func(r *http.Request) (string, error)

// RuleFunc resolve limites (e opcionalmente a chave) a cada requisição.
// Campos zerados em Limits herdam os valores estáticos de Options.
type RuleFunc func(r *http.Request) (domain.Rule, error)

// SkipFunc decide, com a chave preliminar, se a requisição ignora o rate limit.
// Deve ser barato e sem efeitos colaterais.
type SkipFunc func(r *http.Request, key string) bool

// Hook assume a resposta por completo no estado terminal correspondente.
// next é o handler original; d traz chave, contagem, TTL restante (Block) ou o erro (Error).
type Hook func(w http.ResponseWriter, r *http.Request, next http.Handler, d domain.Decision) error

// Options é a política. Ela é lida apenas em New e nunca é mutada depois.
type Options struct {
	Store domain.CounterStore

	// Limites estáticos. Obrigatórios quando Rules é nil.
	Window   time.Duration
	MaxCount int64

	// Namespace prefixa a chave padrão (<namespace>:path=<path>:ip=<addr>).
	Namespace string
	// ProxyHeader é o header de proxy confiável consultado antes do X-Forwarded-For.
	ProxyHeader string

	KeyFn KeyFunc
	Rules RuleFunc
	Skip  SkipFunc

	OnPass  Hook
	OnBlock Hook
	OnError Hook

	// FailOpen deixa passar requisições quando o store falha. Padrão: closed-fail (500).
	FailOpen bool

	// AddHeaders adiciona X-RateLimit-Limit/Remaining e Retry-After na resposta padrão de bloqueio.
	AddHeaders bool

	// MaxInflight > 0 limita round trips simultâneos ao store; excedentes falham com ErrStoreBusy
	// depois de AcquireTimeout (ou quando o ctx da requisição encerra, se AcquireTimeout <= 0).
	MaxInflight    int
	AcquireTimeout time.Duration

	Recorder domain.Recorder
	Logger   *zerolog.Logger
}

const (
	DefaultNamespace   = "ratelimit"
	DefaultProxyHeader = "X-Real-IP"
)

func (o Options) validate() error {
	if o.Store == nil {
		return &domain.ConfigError{Field: "store", Reason: "is required"}
	}
	if o.Rules == nil || o.Window != 0 || o.MaxCount != 0 {
		if err := (domain.Limits{MaxCount: o.MaxCount, Window: o.Window}).Validate(); err != nil {
			return err
		}
	}
	if o.MaxInflight < 0 {
		return &domain.ConfigError{Field: "maxInflight", Reason: "must be >= 0"}
	}
	return nil
}
