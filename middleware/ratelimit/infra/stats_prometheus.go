package infra

import (
	"context"

	"ratewrap/middleware/ratelimit/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PromRecorder exporta as decisões como métricas Prometheus.
//
// Labels propositalmente sem key/path: a cardinalidade explodiria com um IP por série.
type PromRecorder struct {
	decisions    *prometheus.CounterVec
	skipped      prometheus.Counter
	storeLatency prometheus.Histogram
}

var _ domain.Recorder = (*PromRecorder)(nil)

func NewPromRecorder(reg prometheus.Registerer, namespace string) *PromRecorder {
	f := promauto.With(reg)
	return &PromRecorder{
		decisions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratelimit_decisions_total",
			Help:      "Rate limit decisions by outcome.",
		}, []string{"outcome"}),
		skipped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratelimit_skipped_total",
			Help:      "Requests that bypassed the counter store via the skip predicate.",
		}),
		storeLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ratelimit_store_duration_seconds",
			Help:      "Latency of the counter store round trip.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
	}
}

func (p *PromRecorder) Record(_ context.Context, ev domain.DecisionEvent) error {
	p.decisions.WithLabelValues(ev.Outcome.String()).Inc()
	if ev.Skipped {
		p.skipped.Inc()
	}
	if ev.StoreLatency > 0 {
		p.storeLatency.Observe(ev.StoreLatency.Seconds())
	}
	return nil
}
