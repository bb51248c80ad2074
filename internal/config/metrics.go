package config

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var reloadsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "jobs_emailer_config_reloads_total",
		Help: "Total ConfigMap poll outcomes by status.",
	},
	[]string{"status"},
)
