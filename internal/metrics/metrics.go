package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "streampay"

// Metrics holds the service's collectors on a private registry so that
// several servers can coexist in one process (tests).
type Metrics struct {
	registry *prometheus.Registry

	paymentDecisions *prometheus.CounterVec
	streamsServed    prometheus.Counter
	streamedCents    prometheus.Counter
	uploads          *prometheus.CounterVec
	uploadedTracks   prometheus.Counter
	onrampSessions   *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		paymentDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_decisions_total",
			Help:      "Payment gate outcomes by terminal state and rejection code.",
		}, []string{"state", "code"}),
		streamsServed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "streams_served_total",
			Help:      "Decrypted streams delivered after settlement.",
		}),
		streamedCents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_price_cents_total",
			Help:      "Sum of the reported total price of delivered streams, in cents.",
		}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Release uploads by result.",
		}, []string{"result"}),
		uploadedTracks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploaded_tracks_total",
			Help:      "Tracks published by successful uploads.",
		}),
		onrampSessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "onramp_sessions_total",
			Help:      "Onramp session token requests by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.paymentDecisions,
		m.streamsServed,
		m.streamedCents,
		m.uploads,
		m.uploadedTracks,
		m.onrampSessions,
	)
	return m
}

func (m *Metrics) PaymentDecision(state, code string) {
	m.paymentDecisions.WithLabelValues(state, code).Inc()
}

func (m *Metrics) StreamServed(totalCents int64) {
	m.streamsServed.Inc()
	if totalCents > 0 {
		m.streamedCents.Add(float64(totalCents))
	}
}

func (m *Metrics) Upload(result string, tracks int) {
	m.uploads.WithLabelValues(result).Inc()
	if tracks > 0 {
		m.uploadedTracks.Add(float64(tracks))
	}
}

func (m *Metrics) OnrampSession(result string) {
	m.onrampSessions.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
