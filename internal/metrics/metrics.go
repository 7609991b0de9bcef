// Package metrics holds the portal's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	votes         prometheus.Counter
	registrations *prometheus.CounterVec
	gateway       *prometheus.CounterVec
	audit         *prometheus.CounterVec
	roster        prometheus.Gauge
	liveViewers   prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New registers the collectors with reg. A nil reg gets a private registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	return &Metrics{
		votes: factory.NewCounter(prometheus.CounterOpts{
			Name: "kdo_votes_cast_total",
			Help: "votes cast for pilots",
		}),
		registrations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kdo_registrations_total",
			Help: "public registration attempts by outcome",
		}, []string{"outcome"}),
		gateway: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kdo_textgen_calls_total",
			Help: "text generation calls by outcome",
		}, []string{"outcome"}),
		audit: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kdo_audit_entries_total",
			Help: "audit log entries written by action",
		}, []string{"action"}),
		roster: factory.NewGauge(prometheus.GaugeOpts{
			Name: "kdo_roster_size",
			Help: "pilots in the roster at last read",
		}),
		liveViewers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "kdo_live_viewers",
			Help: "open live timing websocket connections",
		}),
		gatherer: reg,
	}
}

func (m *Metrics) VoteCast() { m.votes.Inc() }

func (m *Metrics) Registration(outcome string) {
	m.registrations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) GatewayCall(outcome string) {
	m.gateway.WithLabelValues(outcome).Inc()
}

func (m *Metrics) AuditEntry(action string) {
	m.audit.WithLabelValues(action).Inc()
}

func (m *Metrics) RosterSize(n int) { m.roster.Set(float64(n)) }

func (m *Metrics) ViewerJoined() { m.liveViewers.Inc() }
func (m *Metrics) ViewerLeft()   { m.liveViewers.Dec() }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
