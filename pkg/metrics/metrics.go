package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// ScrapesTotal counts scrape attempts. status is success or failure.
	ScrapesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrapes_total",
			Help: "Total number of gallery scrape attempts.",
		},
		[]string{"site", "status", "error_type"},
	)

	ScrapeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scrape_duration_seconds",
			Help:    "Duration of gallery scrapes.",
			Buckets: []float64{5, 10, 20, 30, 60, 120, 300},
		},
		[]string{"site"},
	)

	RecordsExtracted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "records_extracted_total",
			Help: "Metadata records surviving normalization.",
		},
		[]string{"site"},
	)

	RecordsAdded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "records_added_total",
			Help: "Metadata records newly appended to the collection.",
		},
		[]string{"site"},
	)

	// ImageProbes counts dimension probes. mode is browser or http.
	ImageProbes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_probes_total",
			Help: "Image dimension probes by outcome.",
		},
		[]string{"mode", "outcome"},
	)

	PaginationSkips = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagination_skips_total",
			Help: "Gallery pages skipped because no usable control was found.",
		},
		[]string{"site", "reason"},
	)

	WebhookItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_items_total",
			Help: "Items processed by the webhook pipeline.",
		},
		[]string{"outcome"},
	)
)
