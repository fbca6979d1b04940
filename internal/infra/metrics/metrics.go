// Package metrics provides Prometheus metrics for teeline.
// Counters and gauges for call lifecycle, reconciliation, and triggers.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Calls ──────────────────────────────────────────────────────────────────

// CallsCreated tracks created call tasks by type.
var CallsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "teeline",
	Name:      "calls_created_total",
	Help:      "Total call tasks created.",
}, []string{"type"})

// CallsCompleted tracks calls that reached COMPLETED.
var CallsCompleted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "teeline",
	Name:      "calls_completed_total",
	Help:      "Total calls that completed.",
})

// CallsFailed tracks calls that reached FAILED.
var CallsFailed = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "teeline",
	Name:      "calls_failed_total",
	Help:      "Total calls that failed.",
})

// CallsInProgress tracks AI calls currently awaiting a remote result.
var CallsInProgress = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "teeline",
	Name:      "calls_in_progress",
	Help:      "AI-agent calls awaiting a remote result.",
})

// ─── Reconciliation ─────────────────────────────────────────────────────────

// ReconcileSweeps tracks full sweep passes over in-progress calls.
var ReconcileSweeps = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "teeline",
	Name:      "reconcile_sweeps_total",
	Help:      "Total sweep reconciliation passes.",
})

// ReconcileUpdates tracks calls whose result was merged from the backend.
var ReconcileUpdates = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "teeline",
	Name:      "reconcile_updates_total",
	Help:      "Total calls updated with a remote result.",
})

// ReconcileFailures tracks swallowed per-call reconciliation failures.
// Retries are unbounded, so this is the only visibility into stuck calls.
var ReconcileFailures = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "teeline",
	Name:      "reconcile_failures_total",
	Help:      "Total per-call reconciliation failures (retried next cycle).",
})

// PollTicks tracks active-poll iterations.
var PollTicks = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "teeline",
	Name:      "poll_ticks_total",
	Help:      "Total active-poll ticks.",
})

// ─── Triggers ───────────────────────────────────────────────────────────────

// TriggersFired tracks fired device triggers by action.
var TriggersFired = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "teeline",
	Name:      "triggers_fired_total",
	Help:      "Total fired triggers by action.",
}, []string{"action"})
