package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	Connections    prometheus.Gauge
	DroppedClients prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ws_active_connections",
			Help: "Active websocket connections",
		}),
		DroppedClients: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ws_dropped_clients_total",
			Help: "Websocket clients disconnected because their send buffer was full",
		}),
	}
	m.registry.MustRegister(
		m.Connections,
		m.DroppedClients,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// TrackRooms exports count as the active rooms gauge.
func (m *Metrics) TrackRooms(count func() int) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "game_active_rooms",
		Help: "Rooms held by the registry",
	}, func() float64 { return float64(count()) }))
}

// Handler returns an http.Handler for Prometheus scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
