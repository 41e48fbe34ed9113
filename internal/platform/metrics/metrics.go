package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ResultOK    = "ok"
	ResultError = "error"
	ResultCache = "cache"
)

var (
	lookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profile_elevation_lookups_total",
			Help: "Elevation profile lookups by result (ok, error, cache)",
		},
		[]string{"result"},
	)

	lookupLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "profile_elevation_lookup_duration_seconds",
			Help:    "Latency of upstream elevation profile lookups",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)

	views = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profile_views_total",
			Help: "Profile views served by final phase",
		},
		[]string{"phase"},
	)
)

func RecordLookup(result string) { lookups.WithLabelValues(result).Inc() }

func ObserveLookupSeconds(s float64) { lookupLatency.Observe(s) }

func RecordView(phase string) { views.WithLabelValues(phase).Inc() }
