package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/wikimedia/cloud-toolforge-jobs-framework-emailer/internal/cache"
)

var (
	podEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_emailer_pod_events_total",
			Help: "Total pod watch records by processing outcome.",
		},
		[]string{"outcome"},
	)
	watchReopensTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jobs_emailer_watch_reopens_total",
			Help: "Total pod watch subscriptions opened after the first.",
		},
	)
	composedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jobs_emailer_emails_composed_total",
			Help: "Total emails composed from tenant aggregates.",
		},
	)
	queueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jobs_emailer_email_queue_depth",
			Help: "Emails currently waiting for dispatch.",
		},
	)
	cacheTenants = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jobs_emailer_cache_tenants",
			Help: "Tenant aggregates currently cached.",
		},
	)
	cacheWorkloads = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jobs_emailer_cache_workloads",
			Help: "Workload aggregates currently cached.",
		},
	)
	cacheEvents = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jobs_emailer_cache_events",
			Help: "Events currently cached awaiting composition.",
		},
	)
)

// updateCacheGauges refreshes the cache size gauges from live counts.
func updateCacheGauges(c *cache.Cache) {
	tenants, workloads, events := c.Stats()
	cacheTenants.Set(float64(tenants))
	cacheWorkloads.Set(float64(workloads))
	cacheEvents.Set(float64(events))
}
