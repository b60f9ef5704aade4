package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// API client metrics
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentdeck_api_requests_total",
			Help: "Total number of backend API requests by method and status",
		},
		[]string{"method", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agentdeck_api_request_duration_seconds",
			Help:    "Backend API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// Query cache metrics
	QueryFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentdeck_query_fetches_total",
			Help: "Total number of query fetches by result",
		},
		[]string{"result"},
	)

	QuerySharedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "agentdeck_query_shared_total",
			Help: "Total number of callers that joined an already in-flight fetch",
		},
	)

	QueryStaleDropsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "agentdeck_query_stale_drops_total",
			Help: "Total number of responses discarded by the monotonic sequence check",
		},
	)

	QueryRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "agentdeck_query_retries_total",
			Help: "Total number of query fetch retry attempts",
		},
	)

	QueryEntriesEvicted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "agentdeck_query_entries_evicted_total",
			Help: "Total number of idle cache entries evicted",
		},
	)

	// Stream client metrics
	StreamConnectsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "agentdeck_stream_connects_total",
			Help: "Total number of successful stream connections",
		},
	)

	StreamReconnectsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "agentdeck_stream_reconnects_total",
			Help: "Total number of automatic reconnect attempts after a dropped connection",
		},
	)

	StreamMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentdeck_stream_messages_total",
			Help: "Total number of stream messages by type",
		},
		[]string{"type"},
	)

	StreamDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentdeck_stream_dropped_total",
			Help: "Total number of stream messages dropped by reason",
		},
		[]string{"reason"},
	)

	StreamSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "agentdeck_stream_subscribers",
			Help: "Current number of active stream subscriptions",
		},
	)

	// Notification metrics
	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentdeck_notifications_total",
			Help: "Total number of notifications added by type",
		},
		[]string{"type"},
	)

	NotificationsUnread = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "agentdeck_notifications_unread",
			Help: "Current number of unread notifications",
		},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIRequestDuration)
	prometheus.MustRegister(QueryFetchesTotal)
	prometheus.MustRegister(QuerySharedTotal)
	prometheus.MustRegister(QueryStaleDropsTotal)
	prometheus.MustRegister(QueryRetriesTotal)
	prometheus.MustRegister(QueryEntriesEvicted)
	prometheus.MustRegister(StreamConnectsTotal)
	prometheus.MustRegister(StreamReconnectsTotal)
	prometheus.MustRegister(StreamMessagesTotal)
	prometheus.MustRegister(StreamDroppedTotal)
	prometheus.MustRegister(StreamSubscribers)
	prometheus.MustRegister(NotificationsTotal)
	prometheus.MustRegister(NotificationsUnread)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
