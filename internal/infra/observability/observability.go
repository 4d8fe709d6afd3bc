// Package observability exposes Prometheus metrics for the economy core:
// ledger mutations, lock contention, auto-heal corrections, admin gate
// decisions, and full-scan outcomes.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all economy-core instruments. Construct one per process
// with New; tests pass their own registry so collectors never collide.
type Metrics struct {
	LedgerApplies  *prometheus.CounterVec // kind, result
	LedgerClamps   prometheus.Counter
	LockConflicts  prometheus.Counter
	ReplayRejects  prometheus.Counter
	HealFixes      *prometheus.CounterVec // fixer
	AdminDecisions *prometheus.CounterVec // action, outcome
	ScanDuration   prometheus.Histogram
	ScanIssues     *prometheus.GaugeVec // category
	ScanRiskLevel  prometheus.Gauge     // 0 stable, 1 attention, 2 critical
}

// New registers all instruments on reg and returns them.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		LedgerApplies: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "economy_ledger_applies_total",
			Help: "Ledger mutations by kind and result.",
		}, []string{"kind", "result"}),
		LedgerClamps: factory.NewCounter(prometheus.CounterOpts{
			Name: "economy_ledger_clamps_total",
			Help: "Mutations floor-clamped to keep a balance non-negative.",
		}),
		LockConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "economy_lock_conflicts_total",
			Help: "Apply calls rejected because the resource lock was held.",
		}),
		ReplayRejects: factory.NewCounter(prometheus.CounterOpts{
			Name: "economy_replay_rejects_total",
			Help: "Operations rejected by the nonce replay guard.",
		}),
		HealFixes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "economy_heal_fixes_total",
			Help: "Auto-heal corrections by fixer.",
		}, []string{"fixer"}),
		AdminDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "economy_admin_decisions_total",
			Help: "Admin pre-commit gate decisions by action and outcome.",
		}, []string{"action", "outcome"}),
		ScanDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "economy_scan_duration_seconds",
			Help:    "Full economy scan wall time.",
			Buckets: prometheus.DefBuckets,
		}),
		ScanIssues: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "economy_scan_issues",
			Help: "Failed rule results found by the latest full scan, per category.",
		}, []string{"category"}),
		ScanRiskLevel: factory.NewGauge(prometheus.GaugeOpts{
			Name: "economy_scan_risk_level",
			Help: "Latest global risk level: 0 stable, 1 attention, 2 critical.",
		}),
	}
}

// NewDefault registers on the global default registry.
func NewDefault() *Metrics { return New(prometheus.DefaultRegisterer) }
