package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "livepoll"

var (
	httpRequestsTotal   *prometheus.CounterVec
	intentsTotal        *prometheus.CounterVec
	roundsResolvedTotal *prometheus.CounterVec
	sinkFailuresTotal   *prometheus.CounterVec
	eventsDroppedTotal  prometheus.Counter
	roundsDroppedTotal  prometheus.Counter
	connections         prometheus.Gauge
	registerOnce        sync.Once
)

// Register initializes Prometheus metrics on the default registry.
func Register() {
	registerOnce.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests processed.",
		}, []string{"method", "path", "status"})

		intentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intents_total",
			Help:      "WebSocket intents by type and outcome.",
		}, []string{"intent", "outcome"})

		roundsResolvedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_resolved_total",
			Help:      "Resolved questions by resolution reason.",
		}, []string{"reason"})

		sinkFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "round_sink_failures_total",
			Help:      "Resolved rounds a sink could not store after retries.",
		}, []string{"sink"})

		eventsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Events dropped because a connection's send queue was full.",
		})

		roundsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_dropped_total",
			Help:      "Resolved rounds dropped because the archive queue was full.",
		})

		connections = promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_connections",
			Help:      "Open WebSocket connections.",
		})
	})
}

// IncRequest increments the http_requests_total counter with the given labels.
func IncRequest(method, path string, status int) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}

// IncIntent counts one handled intent. outcome is "ok" or a rejection kind.
func IncIntent(intent, outcome string) {
	if intentsTotal == nil {
		return
	}
	intentsTotal.WithLabelValues(intent, outcome).Inc()
}

// IncRoundResolved counts a resolved question
func IncRoundResolved(reason string) {
	if roundsResolvedTotal == nil {
		return
	}
	roundsResolvedTotal.WithLabelValues(reason).Inc()
}

// IncSinkFailure counts a round a sink gave up on
func IncSinkFailure(sink string) {
	if sinkFailuresTotal == nil {
		return
	}
	sinkFailuresTotal.WithLabelValues(sink).Inc()
}

// IncEventDropped counts an event a slow connection missed
func IncEventDropped() {
	if eventsDroppedTotal == nil {
		return
	}
	eventsDroppedTotal.Inc()
}

// IncRoundDropped counts a round that never reached the archive queue
func IncRoundDropped() {
	if roundsDroppedTotal == nil {
		return
	}
	roundsDroppedTotal.Inc()
}

// ConnectionOpened and ConnectionClosed track the open connection gauge
func ConnectionOpened() {
	if connections == nil {
		return
	}
	connections.Inc()
}

func ConnectionClosed() {
	if connections == nil {
		return
	}
	connections.Dec()
}
