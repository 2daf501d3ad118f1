// utilitário pequeno para as respostas padrão e headers de rate limit.

package ratelimit

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"ratewrap/middleware/ratelimit/domain"
)

type errorBody struct {
	Code   int    `json:"code"`
	ErrMsg string `json:"errMsg"`
}

// corpos fixos, serializados uma vez (sem newline final)
var (
	tooManyRequestsBody = mustJSON(errorBody{Code: 1, ErrMsg: "too many requests"})
	internalErrorBody   = mustJSON(errorBody{Code: 1, ErrMsg: "Internal Server Error"})
)

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", formatInt(int64(len(body))))
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func setRateLimitHeaders(w http.ResponseWriter, dec domain.Decision) {
	w.Header().Set("X-RateLimit-Limit", formatInt(dec.Limits.MaxCount))
	w.Header().Set("X-RateLimit-Remaining", formatInt(dec.Remaining()))
}

// setRetryAfter arredonda para cima: 1ms restante vira "1", nunca "0".
func setRetryAfter(w http.ResponseWriter, d time.Duration) {
	if d <= 0 {
		return
	}
	secs := int64((d + time.Second - 1) / time.Second)
	w.Header().Set("Retry-After", formatInt(secs))
}

func formatInt(v int64) string { return strconv.FormatInt(v, 10) }
