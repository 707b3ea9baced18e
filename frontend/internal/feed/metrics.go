package feed

import (
	"github.com/itchan-dev/postfeed/shared/middleware/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resourceAvatar  = "avatar"
	resourceMedia   = "media"
	resourcePreview = "preview"

	outcomeResolved = "resolved"
	outcomeFailed   = "failed"
)

var (
	resolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "feed",
			Name:      "resource_resolutions_total",
			Help:      "Auxiliary resource resolutions by resource and outcome",
		},
		[]string{"resource", "outcome"},
	)

	staleResultsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "feed",
			Name:      "stale_results_discarded_total",
			Help:      "Loads discarded because a newer load was started for the same view",
		},
	)

	handlesReleasedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "feed",
			Name:      "handles_released_total",
			Help:      "Resource handles released by the lifecycle manager",
		},
	)

	loadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metrics.Namespace,
			Subsystem: "feed",
			Name:      "load_duration_seconds",
			Help:      "Time to fetch and fully resolve a page or a single post",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"kind"},
	)
)
