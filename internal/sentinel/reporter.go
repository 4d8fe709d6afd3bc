package sentinel

import (
	"fmt"
	"sort"

	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/domain"
)

// ─── Reporter ───────────────────────────────────────────────────────────────
// Formats scan output for humans: a health summary for dashboards and a
// flat critical-alert list for paging.

// Pattern is one suspicious finding in reporter output.
type Pattern struct {
	Type      string `json:"type"`
	Detail    string `json:"detail"`
	SubjectID string `json:"subject_id"`
}

// HealthReport is the dashboard summary of one scan.
type HealthReport struct {
	OverallStatus  domain.RiskLevel `json:"overall_status"`
	RiskyUserCount int              `json:"risky_user_count"`
	TotalIssues    int              `json:"total_issues"`
	Patterns       []Pattern        `json:"patterns"`
}

// Reporter is stateless; the zero value is ready to use.
type Reporter struct{}

// HealthReport flattens a scan result into the dashboard summary.
func (Reporter) HealthReport(s domain.ScanResult) HealthReport {
	issues := s.AllIssues()

	patterns := make([]Pattern, 0, len(issues))
	for _, issue := range issues {
		patterns = append(patterns, Pattern{
			Type:      issue.Rule,
			Detail:    issue.Details,
			SubjectID: issue.Subject,
		})
	}

	return HealthReport{
		OverallStatus:  s.GlobalRiskLevel,
		RiskyUserCount: len(riskyUsers(s)),
		TotalIssues:    len(issues),
		Patterns:       patterns,
	}
}

// CriticalAlerts renders every hard failure as one plain-text line,
// ready for a pager or alert channel.
func (Reporter) CriticalAlerts(s domain.ScanResult) []string {
	var alerts []string
	for _, issue := range s.AllIssues() {
		if issue.Blocking() {
			alerts = append(alerts, fmt.Sprintf("[%s] %s: %s", issue.Rule, issue.Subject, issue.Details))
		}
	}
	return alerts
}

// RiskyUsers returns the deduplicated, sorted ids of users with at least
// one failed result.
func (Reporter) RiskyUsers(s domain.ScanResult) []string {
	return riskyUsers(s)
}

// riskyUsers deduplicates the subjects of user-category failures.
func riskyUsers(s domain.ScanResult) []string {
	seen := make(map[string]bool)
	for _, issue := range s.UserIssues {
		if issue.Subject != "" {
			seen[issue.Subject] = true
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
