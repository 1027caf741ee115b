package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PhotosProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "faceid",
		Name:      "photos_processed_total",
		Help:      "Total number of photos that reached a terminal analysis state",
	}, []string{"status"})

	FacesDetected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "faceid",
		Name:      "faces_detected_total",
		Help:      "Total number of faces detected",
	})

	FacesMatched = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "faceid",
		Name:      "faces_matched_total",
		Help:      "Total number of faces auto-matched to a known person",
	})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "faceid",
		Name:      "stage_duration_seconds",
		Help:      "Duration of pipeline stages",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"stage"})

	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "faceid",
		Name:      "queue_depth",
		Help:      "Number of pending upload events in queue",
	})

	StaleClaimsRecovered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "faceid",
		Name:      "stale_claims_recovered_total",
		Help:      "Total number of stale PROCESSING claims re-published by the sweep",
	})

	ReindexPublished = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "faceid",
		Name:      "reindex_published_total",
		Help:      "Total number of reindex notifications published",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "faceid",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "faceid",
		Name:      "ws_connections",
		Help:      "Number of active WebSocket connections",
	})
)
