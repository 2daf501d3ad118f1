package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ratewrap/internal/config"
	"ratewrap/internal/telemetry"
	"ratewrap/middleware/ratelimit"
	"ratewrap/middleware/ratelimit/domain"
	"ratewrap/middleware/ratelimit/infra"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Sobe o proxy reverso limitado",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := telemetry.NewLogger(cfg.Logging.Level, cfg.Logging.JSON, os.Stdout)

	tp, err := telemetry.SetupTracing(ctx, "ratewrap-gateway", Version, cfg.Tracing.Endpoint, cfg.Tracing.Insecure, cfg.Tracing.SampleRatio)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(shutdownCtx)
	}()

	rdb := newRedisClient(cfg.Redis)
	defer func() { _ = rdb.Close() }()

	pingCtx, pingCancel := context.WithTimeout(ctx, 2*time.Second)
	err = rdb.Ping(pingCtx).Err()
	pingCancel()
	if err != nil {
		// closed-fail cobre a queda em runtime; aqui só avisamos
		logger.Warn().Err(err).Strs("addrs", cfg.Redis.Addrs).Msg("redis ping failed")
	}

	h, err := buildHandler(cfg, rdb, logger, prometheus.NewRegistry())
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info().
		Str("listen", cfg.Server.ListenAddr).
		Str("upstream", cfg.Server.UpstreamURL).
		Dur("window", cfg.RateLimit.Window).
		Int64("max_count", cfg.RateLimit.MaxCount).
		Bool("fail_open", cfg.RateLimit.FailOpen).
		Int("max_inflight", cfg.RateLimit.MaxInflight).
		Bool("metrics", cfg.Metrics.Enabled).
		Msg("gateway listening")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// newRedisClient devolve cliente simples para um endereço e cluster para vários.
func newRedisClient(cfg config.RedisConfig) redis.UniversalClient {
	return redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    cfg.Addrs,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// buildHandler monta proxy + rate limit + métricas + contexto de requisição.
func buildHandler(cfg *config.Config, rdb redis.UniversalClient, logger zerolog.Logger, reg *prometheus.Registry) (http.Handler, error) {
	target, err := url.Parse(cfg.Server.UpstreamURL)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream url: %w", err)
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("proxy error")
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}

	opts := ratelimit.Options{
		Store:          infra.NewRedisCounterStore(rdb, infra.WithKeyPrefix(cfg.Redis.KeyPrefix)),
		Window:         cfg.RateLimit.Window,
		MaxCount:       cfg.RateLimit.MaxCount,
		Namespace:      cfg.RateLimit.Namespace,
		ProxyHeader:    cfg.RateLimit.ProxyHeader,
		FailOpen:       cfg.RateLimit.FailOpen,
		AddHeaders:     cfg.RateLimit.AddHeaders,
		MaxInflight:    cfg.RateLimit.MaxInflight,
		AcquireTimeout: cfg.RateLimit.AcquireTimeout,
		Logger:         &logger,
	}
	if len(cfg.RateLimit.SkipPaths) > 0 {
		opts.Skip = ratelimit.SkipPaths(cfg.RateLimit.SkipPaths...)
	}
	if len(cfg.RateLimit.Tiers) > 0 {
		tiers := make(map[string]domain.Limits, len(cfg.RateLimit.Tiers))
		for name, t := range cfg.RateLimit.Tiers {
			tiers[name] = domain.Limits{MaxCount: t.MaxCount, Window: t.Window}
		}
		opts.Rules = ratelimit.TieredRules(cfg.RateLimit.TierHeader, tiers, domain.Limits{
			MaxCount: cfg.RateLimit.MaxCount,
			Window:   cfg.RateLimit.Window,
		})
	}

	mux := http.NewServeMux()
	if cfg.Metrics.Enabled {
		opts.Recorder = infra.NewPromRecorder(reg, cfg.Metrics.Namespace)
		mux.Handle(cfg.Metrics.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	lim, err := ratelimit.New(opts)
	if err != nil {
		return nil, err
	}
	mux.Handle("/", lim.Wrap(proxy))

	return telemetry.RequestContext(logger)(mux), nil
}
