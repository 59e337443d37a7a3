package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/canopy/pkg/domain"
)

// Metrics holds the collectors fed by Hooks.
type Metrics struct {
	Ticks         *prometheus.CounterVec
	TickErrors    *prometheus.CounterVec
	TickDuration  *prometheus.HistogramVec
	StatusChanges *prometheus.CounterVec
	Halts         *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "canopy",
			Name:      "ticks_total",
			Help:      "Root ticks by tree and resulting status.",
		}, []string{"tree", "status"}),
		TickErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "canopy",
			Name:      "tick_errors_total",
			Help:      "Root ticks that ended with an error.",
		}, []string{"tree"}),
		TickDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "canopy",
			Name:      "tick_duration_seconds",
			Help:      "Time spent in one root tick.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"tree"}),
		StatusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "canopy",
			Name:      "node_status_changes_total",
			Help:      "Node status transitions by node type identifier and new status.",
		}, []string{"tree", "node", "status"}),
		Halts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "canopy",
			Name:      "halts_total",
			Help:      "Trees halted before completion.",
		}, []string{"tree"}),
	}
	for _, c := range []prometheus.Collector{m.Ticks, m.TickErrors, m.TickDuration, m.StatusChanges, m.Halts} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that update the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTickEnd: func(_ context.Context, e *domain.TickEvent) {
			if e.Err != nil {
				m.TickErrors.WithLabelValues(e.TreeID).Inc()
				return
			}
			m.Ticks.WithLabelValues(e.TreeID, e.Status.String()).Inc()
			m.TickDuration.WithLabelValues(e.TreeID).Observe(e.Duration.Seconds())
		},
		OnStatusChange: func(_ context.Context, e *domain.NodeEvent) {
			m.StatusChanges.WithLabelValues(e.TreeID, e.ID, e.Status.String()).Inc()
		},
		OnHalt: func(_ context.Context, e *domain.TickEvent) {
			m.Halts.WithLabelValues(e.TreeID).Inc()
		},
	}
}
