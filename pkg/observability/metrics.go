package observability

import (
	"context"

	"github.com/aretw0/onboard/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "onboard"

// Metrics holds the flow collectors.
type Metrics struct {
	NodeVisits  *prometheus.CounterVec
	Answers     *prometheus.CounterVec
	Reprompts   *prometheus.CounterVec
	Completions *prometheus.CounterVec
	Resets      prometheus.Counter
	TrailLength prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		NodeVisits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "node_visits_total",
				Help:      "Total number of times a question was shown.",
			},
			[]string{"node_id"},
		),
		Answers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "answers_total",
				Help:      "Total number of accepted answers per question.",
			},
			[]string{"node_id"},
		),
		Reprompts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reprompts_total",
				Help:      "Total number of messages that matched no option.",
			},
			[]string{"node_id"},
		),
		Completions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "completions_total",
				Help:      "Total number of finished flows by reason.",
			},
			[]string{"reason"},
		),
		Resets: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resets_total",
				Help:      "Total number of start commands.",
			},
		),
		TrailLength: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "answers_per_flow",
				Help:      "Number of answers collected when a flow ends.",
				Buckets:   prometheus.LinearBuckets(0, 2, 10),
			},
		),
	}

	for _, c := range []prometheus.Collector{m.NodeVisits, m.Answers, m.Reprompts, m.Completions, m.Resets, m.TrailLength} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) {
			m.NodeVisits.WithLabelValues(e.NodeID).Inc()
		},
		OnAnswer: func(_ context.Context, e *domain.AnswerEvent) {
			m.Answers.WithLabelValues(e.NodeID).Inc()
		},
		OnReprompt: func(_ context.Context, e *domain.NodeEvent) {
			m.Reprompts.WithLabelValues(e.NodeID).Inc()
		},
		OnComplete: func(_ context.Context, e *domain.CompletionEvent) {
			m.Completions.WithLabelValues(string(e.Reason)).Inc()
			m.TrailLength.Observe(float64(e.Answers))
		},
		OnReset: func(context.Context, *domain.SessionEvent) {
			m.Resets.Inc()
		},
	}
}
