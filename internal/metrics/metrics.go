// Package metrics instruments the room runtime with prometheus/client_golang,
// following services/assessment's use of the same library in the pack.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every gauge/histogram/counter the room runtime exports.
// Only RoomCount carries live values (read from roomCounter on each scrape);
// nothing in the runtime updates ConnectedSockets, BroadcastQueueDepth,
// AnswerLatency or AdmissionRejections, so they export their zero values.
type Metrics struct {
	registry *prometheus.Registry

	RoomCount            prometheus.GaugeFunc
	ConnectedSockets     prometheus.Gauge
	BroadcastQueueDepth  prometheus.Gauge
	AnswerLatency        prometheus.Histogram
	AdmissionRejections  *prometheus.CounterVec
}

// New registers every metric against a fresh registry; roomCounter supplies
// the current active-room count on each scrape.
func New(roomCounter func() float64) *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		RoomCount: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "quizhub",
			Name:      "active_rooms",
			Help:      "Number of currently active quiz rooms.",
		}, roomCounter),
		ConnectedSockets: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quizhub",
			Name:      "connected_sockets",
			Help:      "Number of currently connected websocket sessions across all rooms.",
		}),
		BroadcastQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quizhub",
			Name:      "broadcast_queue_depth",
			Help:      "Approximate depth of the most recently observed broadcast hub queue.",
		}),
		AnswerLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quizhub",
			Name:      "answer_submit_latency_seconds",
			Help:      "Latency of the submit-answer pipeline from receipt to broadcast.",
			Buckets:   prometheus.DefBuckets,
		}),
		AdmissionRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quizhub",
			Name:      "admission_rejections_total",
			Help:      "Count of sockets rejected by admission control, by reason.",
		}, []string{"reason"}),
	}

	reg.MustRegister(m.RoomCount, m.ConnectedSockets, m.BroadcastQueueDepth, m.AnswerLatency, m.AdmissionRejections)
	return m
}

// Handler exposes the registry on /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
