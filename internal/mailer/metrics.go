package mailer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_emailer_emails_sent_total",
			Help: "Total email delivery attempts by status.",
		},
		[]string{"status"},
	)
	sendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "jobs_emailer_smtp_send_duration_seconds",
			Help:    "Duration of SMTP relay sessions.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
)
