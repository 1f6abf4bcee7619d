package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors on a private registry so tests can
// build as many instances as they like.
type Metrics struct {
	Registry *prometheus.Registry

	DashboardMembers prometheus.Gauge
	Broadcasts       *prometheus.CounterVec
	DroppedEvents    prometheus.Counter
	Logins           *prometheus.CounterVec
	StatusUpdates    *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		DashboardMembers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "restaurant_admin_dashboard_members",
			Help: "Realtime connections currently joined to the admin dashboard group.",
		}),
		Broadcasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "restaurant_admin_broadcasts_total",
			Help: "Events fanned out to the admin dashboard group.",
		}, []string{"event"}),
		DroppedEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "restaurant_admin_dropped_events_total",
			Help: "Events not delivered because a member's send buffer was full or closed.",
		}),
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "restaurant_admin_logins_total",
			Help: "Login attempts by result.",
		}, []string{"result"}),
		StatusUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "restaurant_admin_status_updates_total",
			Help: "Order status update requests by outcome.",
		}, []string{"outcome"}),
	}
	m.Registry.MustRegister(
		m.DashboardMembers,
		m.Broadcasts,
		m.DroppedEvents,
		m.Logins,
		m.StatusUpdates,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
