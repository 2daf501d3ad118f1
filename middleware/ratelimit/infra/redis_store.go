package infra

import (
	"context"
	"errors"
	"strings"
	"time"

	"ratewrap/middleware/ratelimit/domain"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "ratewrap/middleware/ratelimit/infra"

// incrementScript roda inteiro no Redis: nenhum outro comando intercala entre o INCR
// e o PEXPIRE. O TTL só é armado na transição 0->1; incrementos seguintes não o estendem.
const incrementScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`

// RedisCounterStore implementa domain.CounterStore sobre go-redis.
//
// Aceita redis.UniversalClient, então funciona com *redis.Client, *redis.ClusterClient
// e *redis.Ring. Reconexão e retry ficam a cargo das opções do próprio client.
type RedisCounterStore struct {
	rdb    redis.UniversalClient
	script *redis.Script
	prefix string
	tracer trace.Tracer
}

var _ domain.CounterStore = (*RedisCounterStore)(nil)

type RedisStoreOption func(*RedisCounterStore)

// WithKeyPrefix prefixa todas as chaves no Redis (ex: "app1" -> "app1:<key>").
func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(s *RedisCounterStore) { s.prefix = strings.Trim(prefix, ":") }
}

func WithTracerProvider(tp trace.TracerProvider) RedisStoreOption {
	return func(s *RedisCounterStore) { s.tracer = tp.Tracer(tracerName) }
}

func NewRedisCounterStore(rdb redis.UniversalClient, opts ...RedisStoreOption) *RedisCounterStore {
	s := &RedisCounterStore{
		rdb:    rdb,
		script: redis.NewScript(incrementScript),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisCounterStore) redisKey(key domain.Key) string {
	if s.prefix == "" {
		return string(key)
	}
	return s.prefix + ":" + string(key)
}

// Increment executa o script atômico e devolve o valor pós-incremento.
func (s *RedisCounterStore) Increment(ctx context.Context, key domain.Key, window time.Duration) (int64, error) {
	if err := domain.ValidateWindow(window); err != nil {
		return 0, err
	}
	ms := window.Milliseconds()

	k := s.redisKey(key)
	ctx, span := s.tracer.Start(ctx, "ratelimit.increment",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("ratelimit.key", k),
			attribute.Int64("ratelimit.window_ms", ms),
		),
	)
	defer span.End()

	n, err := s.script.Run(ctx, s.rdb, []string{k}, ms).Int64()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "increment failed")
		return 0, &domain.StoreError{Op: "increment", Key: key, Err: err}
	}
	span.SetAttributes(attribute.Int64("ratelimit.count", n))
	return n, nil
}

// RemainingTTL usa PTTL. Chave ausente (-2) ou sem expiração (-1) viram 0.
func (s *RedisCounterStore) RemainingTTL(ctx context.Context, key domain.Key) (time.Duration, error) {
	k := s.redisKey(key)
	ctx, span := s.tracer.Start(ctx, "ratelimit.pttl",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("ratelimit.key", k)),
	)
	defer span.End()

	ttl, err := s.rdb.PTTL(ctx, k).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "pttl failed")
		return 0, &domain.StoreError{Op: "pttl", Key: key, Err: err}
	}
	if ttl <= 0 {
		return 0, nil
	}
	return ttl, nil
}

// Peek lê contador e TTL sem incrementar. Usado pelo comando de inspeção.
func (s *RedisCounterStore) Peek(ctx context.Context, key domain.Key) (int64, time.Duration, error) {
	k := s.redisKey(key)

	pipe := s.rdb.Pipeline()
	getCmd := pipe.Get(ctx, k)
	ttlCmd := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return 0, 0, &domain.StoreError{Op: "peek", Key: key, Err: err}
	}

	count, err := getCmd.Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, 0, &domain.StoreError{Op: "peek", Key: key, Err: err}
	}
	ttl := ttlCmd.Val()
	if ttl < 0 {
		ttl = 0
	}
	return count, ttl, nil
}
