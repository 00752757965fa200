package observability

import (
	"context"

	"github.com/aretw0/sitenav/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records navigation metrics.
type Metrics struct {
	Navigations   *prometheus.CounterVec
	Duration      *prometheus.HistogramVec
	Superseded    prometheus.Counter
	RoutesUpdates *prometheus.CounterVec
	Subscriptions prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Navigations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitenav_navigations_total",
				Help: "Total number of completed navigations by outcome",
			},
			[]string{"outcome", "issuer"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sitenav_navigation_duration_seconds",
				Help:    "Time from a navigation request to its terminal target",
				Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
			},
			[]string{"outcome"},
		),
		Superseded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sitenav_navigations_superseded_total",
			Help: "Navigations dropped because a newer one was requested",
		}),
		RoutesUpdates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitenav_routes_updates_total",
				Help: "Reactive route emissions by owner path",
			},
			[]string{"owner"},
		),
		Subscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sitenav_reactive_subscriptions",
			Help: "Live reactive provider subscriptions",
		}),
	}
	reg.MustRegister(m.Navigations, m.Duration, m.Superseded, m.RoutesUpdates, m.Subscriptions)
	return m
}

// Hooks returns lifecycle hooks feeding the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNavigationEnd: func(_ context.Context, e *domain.NavigationEvent) {
			if e.Superseded {
				m.Superseded.Inc()
				return
			}
			if e.Outcome == "" {
				// Cancelled by a redirect.
				return
			}
			m.Navigations.WithLabelValues(string(e.Outcome), string(e.Issuer)).Inc()
			m.Duration.WithLabelValues(string(e.Outcome)).Observe(e.Duration.Seconds())
		},
		OnRoutesUpdated: func(_ context.Context, e *domain.RoutesEvent) {
			m.RoutesUpdates.WithLabelValues(e.Owner).Inc()
			m.Subscriptions.Set(float64(e.Subscriptions))
		},
	}
}
