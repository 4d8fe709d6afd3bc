package domain

// ─── Rule Results ───────────────────────────────────────────────────────────
// Rules never throw: a failed check is DATA, not an error. This keeps a full
// population scan total — one corrupt record cannot abort the other thousand.

// Severity grades how bad a failed rule is.
type Severity string

const (
	SevLow    Severity = "low"
	SevMedium Severity = "medium"
	SevHigh   Severity = "high"
)

// RuleResult is the uniform output contract for every rule in the sanity,
// audit, and admin engines.
type RuleResult struct {
	Rule     string   `json:"rule"`
	Passed   bool     `json:"passed"`
	Severity Severity `json:"severity"`
	Details  string   `json:"details"`
	Subject  string   `json:"subject,omitempty"` // user/item/mission id the result is about
}

// Blocking reports whether this result must stop the action that produced
// it. Only hard (high-severity) failures block; medium and low failures are
// logged and surfaced for review but do not reject the action.
func (r RuleResult) Blocking() bool { return !r.Passed && r.Severity == SevHigh }

// Pass builds a passing result for the named rule.
func Pass(rule, subject string) RuleResult {
	return RuleResult{Rule: rule, Passed: true, Subject: subject}
}

// Fail builds a failing result with the given severity and detail text.
func Fail(rule, subject string, sev Severity, details string) RuleResult {
	return RuleResult{Rule: rule, Passed: false, Severity: sev, Details: details, Subject: subject}
}

// ─── Scan Results ───────────────────────────────────────────────────────────

// RiskLevel classifies the aggregate state of the economy after a full scan.
type RiskLevel string

const (
	RiskStable    RiskLevel = "stable"
	RiskAttention RiskLevel = "attention"
	RiskCritical  RiskLevel = "critical"
)

// ScanResult aggregates the FAILED rule results of a full economy scan,
// bucketed by the entity category that produced them.
type ScanResult struct {
	UserIssues    []RuleResult `json:"user_issues"`
	StoreIssues   []RuleResult `json:"store_issues"`
	MissionIssues []RuleResult `json:"mission_issues"`
	QueueIssues   []RuleResult `json:"queue_issues"`

	UsersScanned       int       `json:"users_scanned"`
	RedemptionsScanned int       `json:"redemptions_scanned"`
	GlobalRiskLevel    RiskLevel `json:"global_risk_level"`
}

// AllIssues returns every failed result across all categories.
func (s ScanResult) AllIssues() []RuleResult {
	out := make([]RuleResult, 0, len(s.UserIssues)+len(s.StoreIssues)+len(s.MissionIssues)+len(s.QueueIssues))
	out = append(out, s.UserIssues...)
	out = append(out, s.StoreIssues...)
	out = append(out, s.MissionIssues...)
	out = append(out, s.QueueIssues...)
	return out
}

// ClassifyRisk derives the global risk level from the collected issues:
// any hard failure is critical, any failure at all is attention, an empty
// issue set is stable.
func (s ScanResult) ClassifyRisk() RiskLevel {
	level := RiskStable
	for _, r := range s.AllIssues() {
		if r.Blocking() {
			return RiskCritical
		}
		level = RiskAttention
	}
	return level
}
