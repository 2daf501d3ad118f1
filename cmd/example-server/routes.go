package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"ratewrap/middleware/ratelimit"
	"ratewrap/middleware/ratelimit/domain"
	"ratewrap/middleware/ratelimit/infra"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

func newRouter(store domain.CounterStore, rec *infra.MemoryRecorder, logger zerolog.Logger) (http.Handler, error) {
	// 2 requisições por segundo por rota+IP
	hello, err := ratelimit.New(ratelimit.Options{
		Store:    store,
		Window:   time.Second,
		MaxCount: 2,
		Recorder: rec,
		Logger:   &logger,
	})
	if err != nil {
		return nil, err
	}

	// chave por API key, resposta de bloqueio própria
	search, err := ratelimit.New(ratelimit.Options{
		Store:    store,
		Window:   time.Minute,
		MaxCount: 10,
		KeyFn: func(r *http.Request) (string, error) {
			apiKey := r.Header.Get("X-Api-Key")
			if apiKey == "" {
				apiKey = "anonymous"
			}
			return "search:key=" + apiKey, nil
		},
		AddHeaders: true,
		OnBlock:    searchBlocked,
		Recorder:   rec,
		Logger:     &logger,
	})
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/api/hello", hello.WrapFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"hello"}`))
	}))
	r.With(search.Middleware()).Get("/api/search", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"q": r.URL.Query().Get("q"), "results": []string{}})
	})
	r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"total":    rec.Total(),
			"by_route": rec.ByRoute(),
		})
	})
	return r, nil
}

func searchBlocked(w http.ResponseWriter, r *http.Request, next http.Handler, d domain.Decision) error {
	retry := int64(d.RetryAfter.Round(time.Second) / time.Second)
	if retry < 1 {
		retry = 1
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", strconv.FormatInt(retry, 10))
	w.WriteHeader(http.StatusTooManyRequests)
	return json.NewEncoder(w).Encode(map[string]any{
		"error":       "search quota exceeded",
		"limit":       d.Limits.MaxCount,
		"retry_after": retry,
	})
}
