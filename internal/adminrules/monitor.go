package adminrules

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/domain"
	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/infra/observability"
)

// Monitor wraps the engine with an audit trail: every validated action is
// written to the admin audit log whatever its outcome, and blocked actions
// are rejected with the rule's detail text verbatim.
type Monitor struct {
	engine   *Engine
	store    domain.Store
	notifier domain.Notifier // optional
	metrics  *observability.Metrics
	now      func() time.Time
}

// NewMonitor creates a monitor around engine.
func NewMonitor(engine *Engine, store domain.Store, metrics *observability.Metrics) *Monitor {
	return &Monitor{
		engine:  engine,
		store:   store,
		metrics: metrics,
		now:     time.Now,
	}
}

// WithNotifier attaches a notifier pinged when an action is blocked.
func (m *Monitor) WithNotifier(n domain.Notifier) *Monitor {
	m.notifier = n
	return m
}

// WithClock overrides the clock for deterministic testing.
func (m *Monitor) WithClock(now func() time.Time) *Monitor {
	m.now = now
	return m
}

// Validate evaluates the action, records the audit entry, and returns the
// result plus an error when the action must not be persisted. Soft
// failures come back with a nil error — the caller proceeds, the failure
// stays on record.
func (m *Monitor) Validate(a Action) (domain.RuleResult, error) {
	result := m.engine.Evaluate(a)

	payload, err := json.Marshal(a)
	if err != nil {
		payload = []byte(fmt.Sprintf("%+v", a))
	}
	entry := domain.AdminAuditEntry{
		Action:    string(a.Kind),
		Payload:   string(payload),
		Result:    result,
		Timestamp: m.now(),
	}
	if err := m.store.InsertAuditLog(entry); err != nil {
		// The audit trail is best-effort; losing one entry must not turn a
		// valid admin action into a failure.
		log.Printf("adminrules: audit log append failed: %v", err)
	}

	outcome := "allowed"
	if result.Blocking() {
		outcome = "blocked"
	} else if !result.Passed {
		outcome = "flagged"
	}
	if m.metrics != nil {
		m.metrics.AdminDecisions.WithLabelValues(string(a.Kind), outcome).Inc()
	}

	if result.Blocking() {
		log.Printf("adminrules: BLOCKED %s: %s", a.Kind, result.Details)
		// Only punishment and adjustment subjects are user ids; item,
		// mission, and queue-entry subjects have no inbox to notify.
		if m.notifier != nil && actionTargetsUser(a.Kind) && result.Subject != "" {
			m.notifier.Notify(result.Subject, "Ação administrativa bloqueada", result.Details)
		}
		return result, fmt.Errorf("action %s blocked by %s: %s", a.Kind, result.Rule, result.Details)
	}
	if !result.Passed {
		log.Printf("adminrules: flagged %s (%s): %s", a.Kind, result.Severity, result.Details)
	}
	return result, nil
}

// actionTargetsUser reports whether the rule subject for this action kind
// is a user id.
func actionTargetsUser(k ActionKind) bool {
	return k == ActionPunish || k == ActionAdjustLevels
}
