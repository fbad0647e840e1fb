package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusObserver turns events into Prometheus samples:
//
//   - <namespace>_events_total{type, level} counts every event.
//   - <namespace>_event_duration_seconds{type} observes Data[DurationKey]
//     when the event carries one.
//   - <namespace>_model_tokens_total{kind} adds Data[PromptTokensKey] and
//     Data[CompletionTokensKey] under kind "prompt" and "completion".
type PrometheusObserver struct {
	events    *prometheus.CounterVec
	durations *prometheus.HistogramVec
	tokens    *prometheus.CounterVec
}

// NewPrometheusObserver registers the collectors with reg. Pass
// prometheus.DefaultRegisterer to expose them on the default /metrics handler.
func NewPrometheusObserver(reg prometheus.Registerer, namespace string) *PrometheusObserver {
	factory := promauto.With(reg)

	return &PrometheusObserver{
		events: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_total",
				Help:      "Total number of observability events by type and level",
			},
			[]string{"type", "level"},
		),
		durations: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "event_duration_seconds",
				Help:      "Duration carried by timed events (gateway calls, tool calls, lock waits)",
				Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"type"},
		),
		tokens: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_tokens_total",
				Help:      "Model tokens consumed by kind",
			},
			[]string{"kind"},
		),
	}
}

func (p *PrometheusObserver) OnEvent(_ context.Context, event Event) {
	p.events.WithLabelValues(string(event.Type), event.Level.String()).Inc()

	if d, ok := event.Data[DurationKey].(float64); ok {
		p.durations.WithLabelValues(string(event.Type)).Observe(d)
	}
	if n, ok := event.Data[PromptTokensKey].(int); ok && n > 0 {
		p.tokens.WithLabelValues("prompt").Add(float64(n))
	}
	if n, ok := event.Data[CompletionTokensKey].(int); ok && n > 0 {
		p.tokens.WithLabelValues("completion").Add(float64(n))
	}
}
