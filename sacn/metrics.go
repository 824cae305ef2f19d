package sacn

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors a Receiver exposes (Sender has no
// metrics hook), grounded on facebook-time's ptp/sptp/stats/prom_exporter.go
// registry-and-handler pattern. One Metrics belongs to one universe so
// multiple receivers on a host don't collide on label values.
type Metrics struct {
	registry  *prometheus.Registry
	accepted  prometheus.Counter
	rejected  prometheus.Counter
	timeouts  prometheus.Counter
	framerate prometheus.Gauge
	active    prometheus.Gauge
}

// NewMetrics registers a fresh set of per-universe collectors against a new
// registry.
func NewMetrics(universe uint16) *Metrics {
	registry := prometheus.NewRegistry()
	labels := prometheus.Labels{"universe": fmt.Sprintf("%d", universe)}

	m := &Metrics{
		registry: registry,
		accepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "sacn_packets_accepted_total",
			Help:        "sACN data packets accepted by the source tracker.",
			ConstLabels: labels,
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "sacn_packets_rejected_total",
			Help:        "sACN datagrams rejected by the validator or sequence check.",
			ConstLabels: labels,
		}),
		timeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "sacn_source_timeouts_total",
			Help:        "Source-lost events (network-data-loss timeout or stream termination).",
			ConstLabels: labels,
		}),
		framerate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "sacn_framerate",
			Help:        "Last published framerate of the latched source.",
			ConstLabels: labels,
		}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "sacn_source_active",
			Help:        "1 when a source is latched and live, 0 otherwise.",
			ConstLabels: labels,
		}),
	}

	registry.MustRegister(m.accepted, m.rejected, m.timeouts, m.framerate, m.active)
	return m
}

// Handler returns the promhttp handler for this Metrics' registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observeAccept()         { m.accepted.Inc() }
func (m *Metrics) observeReject()         { m.rejected.Inc() }
func (m *Metrics) observeTimeout()        { m.timeouts.Inc() }
func (m *Metrics) setFramerate(v uint8)   { m.framerate.Set(float64(v)) }
func (m *Metrics) setActive(active bool) {
	if active {
		m.active.Set(1)
	} else {
		m.active.Set(0)
	}
}
