package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ratewrap/internal/telemetry"
	"ratewrap/middleware/ratelimit/domain"
	"ratewrap/middleware/ratelimit/infra"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	// Exemplo: embrulhando handlers individuais no seu webserver (sem proxy)
	_ = godotenv.Load()

	logger := telemetry.NewLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_JSON") == "true", os.Stdout)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeFn := initStore(ctx, os.Getenv("REDIS_ADDR"), logger)
	defer closeFn()

	h, err := newRouter(store, infra.NewMemoryRecorder(infra.WithTrackKeys(true)), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid rate limit policy")
	}

	addr := ":8081"
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		addr = v
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", addr).Msg("example server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server error")
	}
}

// initStore usa Redis quando REDIS_ADDR está definido; senão, contador em memória (um processo só).
func initStore(ctx context.Context, addr string, logger zerolog.Logger) (domain.CounterStore, func()) {
	if addr == "" {
		store := infra.NewMemoryCounterStore()
		store.StartJanitor(ctx)
		logger.Warn().Msg("REDIS_ADDR not set, using in-memory counters")
		return store, func() {}
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	return infra.NewRedisCounterStore(rdb), func() { _ = rdb.Close() }
}
