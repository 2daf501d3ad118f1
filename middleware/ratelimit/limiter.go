package ratelimit

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"ratewrap/middleware/ratelimit/application"
	"ratewrap/middleware/ratelimit/domain"
	"ratewrap/middleware/ratelimit/infra"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Limiter guarda apenas configuração somente-leitura; todo estado por requisição vive em locais.
// Um Limiter pode embrulhar quantos handlers forem necessários e é seguro para uso concorrente.
type Limiter struct {
	opts  Options
	svc   application.Service
	keyFn KeyFunc
	log   zerolog.Logger

	// storeErrLog evita inundar o log durante uma queda do store.
	storeErrLog *rate.Sometimes
}

// New valida a política e monta o Limiter. Política inválida devolve *domain.ConfigError.
func New(opts Options) (*Limiter, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	if opts.Namespace == "" {
		opts.Namespace = DefaultNamespace
	}
	if opts.ProxyHeader == "" {
		opts.ProxyHeader = DefaultProxyHeader
	}

	keyFn := opts.KeyFn
	if keyFn == nil {
		keyFn = DefaultKeyFunc(opts.Namespace, opts.ProxyHeader)
	}

	store := opts.Store
	if opts.MaxInflight > 0 {
		store = application.GuardedStore{
			Store: store,
			Bulkhead: application.Bulkhead{
				Pool:           infra.NewChanPool(opts.MaxInflight),
				AcquireTimeout: opts.AcquireTimeout,
			},
		}
	}

	log := zerolog.Nop()
	if opts.Logger != nil {
		log = opts.Logger.With().Str("component", "ratelimit").Logger()
	}

	return &Limiter{
		opts:        opts,
		svc:         application.Service{Store: store},
		keyFn:       keyFn,
		log:         log,
		storeErrLog: &rate.Sometimes{First: 3, Interval: 10 * time.Second},
	}, nil
}

// Decide executa o pipeline completo (skip, regra, chave, contador) sem escrever resposta.
func (l *Limiter) Decide(r *http.Request) domain.Decision {
	dec, _ := l.decide(r)
	return dec
}

// ServeNext decide e despacha para o estado terminal. O único erro devolvido é *domain.HookError.
func (l *Limiter) ServeNext(w http.ResponseWriter, r *http.Request, next http.Handler) error {
	dec, storeLatency := l.decide(r)
	l.observe(r, dec, storeLatency)
	return l.dispatch(w, r, next, dec)
}

func (l *Limiter) decide(r *http.Request) (domain.Decision, time.Duration) {
	var key domain.Key

	if l.opts.Skip != nil {
		k, err := l.deriveKey(r)
		if err != nil {
			return errorDecision(k, err), 0
		}
		key = k
		if l.opts.Skip(r, string(k)) {
			return domain.Decision{Outcome: domain.OutcomePass, Key: k, Skipped: true}, 0
		}
	}

	limits := domain.Limits{MaxCount: l.opts.MaxCount, Window: l.opts.Window}
	if l.opts.Rules != nil {
		rule, err := l.opts.Rules(r)
		if err != nil {
			return errorDecision(key, fmt.Errorf("resolve rule: %w", err)), 0
		}
		if rule.MaxCount != 0 {
			limits.MaxCount = rule.MaxCount
		}
		if rule.Window != 0 {
			limits.Window = rule.Window
		}
		if rule.Key != "" {
			key = rule.Key
		}
	}

	if key == "" {
		k, err := l.deriveKey(r)
		if err != nil {
			return errorDecision(k, err), 0
		}
		key = k
	}

	l.log.Debug().Str("key", string(key)).Msg("rate limit key")

	start := time.Now()
	dec := l.svc.Decide(r.Context(), key, limits)
	storeLatency := time.Since(start)

	if dec.Outcome == domain.OutcomeError && l.opts.FailOpen && domain.IsStoreError(dec.Err) {
		// Pass degradado: mantém o erro para hooks, log e métricas
		dec.Outcome = domain.OutcomePass
	}
	return dec, storeLatency
}

func (l *Limiter) deriveKey(r *http.Request) (domain.Key, error) {
	k, err := l.keyFn(r)
	if err != nil {
		return "", fmt.Errorf("derive key: %w", err)
	}
	if k == "" {
		return "", &domain.ConfigError{Field: "keyFn", Reason: "returned an empty key"}
	}
	return domain.Key(k), nil
}

func errorDecision(key domain.Key, err error) domain.Decision {
	return domain.Decision{Outcome: domain.OutcomeError, Key: key, Err: err}
}

func (l *Limiter) observe(r *http.Request, dec domain.Decision, storeLatency time.Duration) {
	switch {
	case dec.Outcome == domain.OutcomeBlock:
		l.log.Warn().
			Str("key", string(dec.Key)).
			Int64("count", dec.Count).
			Int64("max_count", dec.Limits.MaxCount).
			Dur("retry_after", dec.RetryAfter).
			Msg("request blocked")
	case dec.Err != nil && domain.IsStoreError(dec.Err):
		l.storeErrLog.Do(func() {
			l.log.Error().Err(dec.Err).
				Str("key", string(dec.Key)).
				Bool("fail_open", l.opts.FailOpen).
				Msg("counter store failure")
		})
	case dec.Err != nil:
		l.log.Error().Err(dec.Err).Msg("rate limit misconfigured")
	}

	if l.opts.Recorder == nil {
		return
	}
	if dec.Skipped {
		storeLatency = 0
	}
	err := l.opts.Recorder.Record(r.Context(), domain.DecisionEvent{
		Key:          dec.Key,
		Outcome:      dec.Outcome,
		Count:        dec.Count,
		Skipped:      dec.Skipped,
		Method:       r.Method,
		Path:         requestPath(r),
		StoreLatency: storeLatency,
		At:           time.Now(),
	})
	if err != nil {
		l.log.Warn().Err(err).Msg("record decision")
	}
}

func (l *Limiter) dispatch(w http.ResponseWriter, r *http.Request, next http.Handler, dec domain.Decision) error {
	if l.opts.AddHeaders && dec.Outcome != domain.OutcomeError && !dec.Skipped && dec.Err == nil {
		setRateLimitHeaders(w, dec)
	}

	switch dec.Outcome {
	case domain.OutcomePass:
		if l.opts.OnPass != nil {
			return hookError(dec.Outcome, l.opts.OnPass(w, r, next, dec))
		}
		next.ServeHTTP(w, r)
		return nil

	case domain.OutcomeBlock:
		if l.opts.OnBlock != nil {
			return hookError(dec.Outcome, l.opts.OnBlock(w, r, next, dec))
		}
		if l.opts.AddHeaders {
			setRetryAfter(w, dec.RetryAfter)
		}
		writeJSON(w, http.StatusTooManyRequests, tooManyRequestsBody)
		return nil

	default:
		if l.opts.OnError != nil {
			return hookError(dec.Outcome, l.opts.OnError(w, r, next, dec))
		}
		writeJSON(w, http.StatusInternalServerError, internalErrorBody)
		return nil
	}
}

func hookError(outcome domain.Outcome, err error) error {
	if err == nil {
		return nil
	}
	var he *domain.HookError
	if errors.As(err, &he) {
		return err
	}
	return &domain.HookError{Outcome: outcome, Err: err}
}
