// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SearchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scholarship_search_requests_total",
			Help: "Total number of search requests by outcome",
		},
		[]string{"outcome"},
	)

	SearchRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "scholarship_search_request_duration_seconds",
			Help: "Duration of search requests in seconds",
		},
		[]string{"outcome"},
	)

	SearchRequestsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scholarship_search_requests_active",
			Help: "Number of search requests being served",
		},
	)

	RateLimitRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scholarship_rate_limit_rejections_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)

	MatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scholarship_match_duration_seconds",
			Help:    "Duration of one match pass in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"outcome"},
	)

	MatchesReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scholarship_matches_returned",
			Help:    "Number of matches returned per search",
			Buckets: prometheus.LinearBuckets(0, 5, 10),
		},
	)

	RecordsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scholarship_records_skipped_total",
			Help: "Total number of catalog records left out of a match pass",
		},
		[]string{"reason"},
	)

	CatalogFetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scholarship_catalog_fetch_errors_total",
			Help: "Total number of failed catalog fetches",
		},
		[]string{"provider"},
	)

	CatalogCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scholarship_catalog_cache_lookups_total",
			Help: "Catalog cache lookups by result",
		},
		[]string{"result"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scholarship_notifications_total",
			Help: "Deadline notifications by channel and status",
		},
		[]string{"channel", "status"},
	)
)
