// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SweepRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deadline_sweep_runs_total",
		Help: "Deadline sweep invocations by result (ok, locked, error).",
	}, []string{"result"})

	SweepTasks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deadline_sweep_tasks_total",
		Help: "Expired tasks handled by the sweep by outcome (failed, skipped, error).",
	}, []string{"outcome"})

	SweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "deadline_sweep_duration_seconds",
		Help:    "Wall time of one deadline sweep.",
		Buckets: prometheus.DefBuckets,
	})

	PenaltiesCharged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "penalties_charged_minor_units_total",
		Help: "Sum of penalties debited by the sweep, in minor currency units.",
	})

	DepositsInitiated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deposits_initiated_total",
		Help: "Deposit checkouts requested from the payment provider by outcome (created, fallback, error).",
	}, []string{"outcome"})

	DepositWebhooks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deposit_webhooks_total",
		Help: "Payment provider webhooks by outcome (credited, duplicate, ignored, invalid, unknown, error).",
	}, []string{"outcome"})

	PushNotifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "push_notifications_total",
		Help: "Push notification deliveries by outcome (sent, error).",
	}, []string{"outcome"})
)
