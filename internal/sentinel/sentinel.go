// Package sentinel runs the full-population economy scan: every user,
// purchase, approved submission, and live queue entry passes through the
// sanity and audit rules, and the failures are classified into a global
// risk level.
//
// Per-user evaluation is pure and fans out across a bounded worker pool;
// results merge into a single accumulator under one mutex. One corrupt
// record degrades one entity's results, never the scan.
package sentinel

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/audit"
	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/domain"
	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/infra/observability"
	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/sanity"
)

// DefaultWorkers bounds the per-user fan-out.
const DefaultWorkers = 8

// Config wires the orchestrator.
type Config struct {
	Store   domain.Store
	Calc    domain.Calculator
	Audit   *audit.Engine
	Metrics *observability.Metrics // optional
	Workers int                    // defaults to DefaultWorkers
	Now     func() time.Time       // defaults to time.Now
}

// Sentinel orchestrates full economy scans.
type Sentinel struct {
	store   domain.Store
	calc    domain.Calculator
	audit   *audit.Engine
	metrics *observability.Metrics
	workers int
	now     func() time.Time
}

// New builds a sentinel from cfg, filling defaults.
func New(cfg Config) *Sentinel {
	s := &Sentinel{
		store:   cfg.Store,
		calc:    cfg.Calc,
		audit:   cfg.Audit,
		metrics: cfg.Metrics,
		workers: cfg.Workers,
		now:     cfg.Now,
	}
	if s.workers <= 0 {
		s.workers = DefaultWorkers
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.audit == nil {
		s.audit = audit.NewEngine().WithClock(s.now)
	}
	return s
}

// RunFullScan evaluates the whole population and returns only the failed
// results, bucketed by category, plus the global risk level.
func (s *Sentinel) RunFullScan(ctx context.Context) (domain.ScanResult, error) {
	started := s.now()

	users, err := s.store.ListUsers()
	if err != nil {
		return domain.ScanResult{}, fmt.Errorf("list users: %w", err)
	}
	submissions, err := s.store.ListAllSubmissions()
	if err != nil {
		return domain.ScanResult{}, fmt.Errorf("list submissions: %w", err)
	}
	redemptions, err := s.store.ListAllRedemptions()
	if err != nil {
		return domain.ScanResult{}, fmt.Errorf("list redemptions: %w", err)
	}
	queue, err := s.store.ListQueue()
	if err != nil {
		return domain.ScanResult{}, fmt.Errorf("list queue: %w", err)
	}

	subsByUser := make(map[string][]domain.MissionSubmission)
	for _, sub := range submissions {
		subsByUser[sub.UserID] = append(subsByUser[sub.UserID], sub)
	}
	redsByUser := make(map[string][]domain.RedeemedItem)
	for _, r := range redemptions {
		redsByUser[r.UserID] = append(redsByUser[r.UserID], r)
	}
	usersByID := make(map[string]domain.UserEconomyState, len(users))
	for _, u := range users {
		usersByID[u.ID] = u
	}

	result := domain.ScanResult{
		UsersScanned:       len(users),
		RedemptionsScanned: len(redemptions),
	}

	// Per-user fan-out. Each evaluation touches only its own inputs; the
	// accumulator is the only shared state.
	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, s.workers)
	)
	for _, u := range users {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(u domain.UserEconomyState) {
			defer wg.Done()
			defer func() { <-sem }()

			issues := s.scanUser(u, subsByUser[u.ID], redsByUser[u.ID])
			if len(issues) > 0 {
				mu.Lock()
				result.UserIssues = append(result.UserIssues, issues...)
				mu.Unlock()
			}
		}(u)
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return domain.ScanResult{}, err
	}

	result.StoreIssues = s.scanPurchases(redemptions, usersByID)
	result.MissionIssues = s.scanApprovedSubmissions(submissions, usersByID)
	result.QueueIssues = s.scanQueue(queue, usersByID)
	result.GlobalRiskLevel = result.ClassifyRisk()

	s.report(result, s.now().Sub(started))
	return result, nil
}

// RunForUser evaluates one user against the sanity and audit rules and
// folds the outcome into a single aggregate result.
func (s *Sentinel) RunForUser(u domain.UserEconomyState, submissions []domain.MissionSubmission) domain.RuleResult {
	issues := s.scanUser(u, submissions, nil)
	if len(issues) == 0 {
		return domain.Pass("user_scan", u.ID)
	}

	sev := domain.SevLow
	details := ""
	for i, issue := range issues {
		if severityRank(issue.Severity) > severityRank(sev) {
			sev = issue.Severity
		}
		if i > 0 {
			details += "; "
		}
		details += issue.Rule + ": " + issue.Details
	}
	return domain.Fail("user_scan", u.ID, sev, details)
}

// ─── Per-category scans ─────────────────────────────────────────────────────

// scanUser runs the sanity invariants and audit rules for one user and
// returns only the failures.
func (s *Sentinel) scanUser(u domain.UserEconomyState, subs []domain.MissionSubmission, reds []domain.RedeemedItem) []domain.RuleResult {
	now := s.now()
	var issues []domain.RuleResult

	checks := []struct {
		name  string
		sev   domain.Severity
		check sanity.Check
	}{
		{"coins_never_negative", domain.SevHigh, sanity.CoinsNeverNegative(u)},
		{"xp_never_negative", domain.SevHigh, sanity.XPNeverNegative(u)},
		{"level_up_correct", domain.SevMedium, sanity.LevelUpCorrect(s.calc, u)},
		{"mission_counters", domain.SevMedium, sanity.MissionCounters(u)},
		{"streak_bounds", domain.SevHigh, sanity.StreakBounds(u, u.DaysSinceJoin(now))},
		{"daily_limits_respected", domain.SevMedium, sanity.DailyLimitsRespected(s.calc, u, countToday(subs, now))},
	}
	for _, c := range checks {
		if !c.check.OK {
			issues = append(issues, domain.Fail(c.name, u.ID, c.sev, c.check.Reason))
		}
	}

	txs, err := s.store.ListTransactions(u.ID)
	if err != nil {
		// Missing logs degrade this user's audit, not the whole scan.
		log.Printf("sentinel: transactions unavailable for %s: %v", u.ID, err)
	}
	for _, r := range s.audit.Evaluate(u, audit.Logs{Transactions: txs, Submissions: subs, Redemptions: reds}) {
		if !r.Passed {
			issues = append(issues, r)
		}
	}
	return issues
}

// scanPurchases joins every redemption against its item and buyer and
// checks price integrity and plan restrictions.
func (s *Sentinel) scanPurchases(reds []domain.RedeemedItem, users map[string]domain.UserEconomyState) []domain.RuleResult {
	var issues []domain.RuleResult
	for _, r := range reds {
		item, err := s.store.GetItem(r.ItemID)
		if err != nil {
			issues = append(issues, domain.Fail("purchase_integrity", r.ItemID, domain.SevMedium,
				fmt.Sprintf("redemption references unknown item %s", r.ItemID)))
			continue
		}
		if c := sanity.StorePriceIntegrity(*item); !c.OK {
			issues = append(issues, domain.Fail("store_price_integrity", item.ID, domain.SevHigh, c.Reason))
		}
		buyer, ok := users[r.UserID]
		if !ok {
			issues = append(issues, domain.Fail("purchase_integrity", r.UserID, domain.SevMedium,
				fmt.Sprintf("redemption by unknown user %s", r.UserID)))
			continue
		}
		if c := sanity.PlanRestrictions(buyer, *item); !c.OK {
			issues = append(issues, domain.Fail("plan_restrictions", buyer.ID, domain.SevMedium, c.Reason))
		}
	}
	return issues
}

// scanApprovedSubmissions joins approved submissions against their
// missions and verifies the realized reward respects the declared base
// and the submitter's plan multiplier.
func (s *Sentinel) scanApprovedSubmissions(subs []domain.MissionSubmission, users map[string]domain.UserEconomyState) []domain.RuleResult {
	var issues []domain.RuleResult
	for _, sub := range subs {
		if sub.Status != domain.SubmissionApproved {
			continue
		}
		mission, err := s.store.GetMission(sub.MissionID)
		if err != nil {
			issues = append(issues, domain.Fail("submission_integrity", sub.MissionID, domain.SevMedium,
				fmt.Sprintf("approved submission references unknown mission %s", sub.MissionID)))
			continue
		}
		user, ok := users[sub.UserID]
		if !ok {
			continue
		}

		mult := s.calc.PlanMultiplier(user.Plan)
		realized := domain.RewardPair{
			XP:    int64(math.Floor(float64(mission.Reward.XP) * mult)),
			Coins: int64(math.Floor(float64(mission.Reward.Coins) * mult)),
		}
		if c := sanity.RewardMatchesMissionType(*mission, realized); !c.OK {
			issues = append(issues, domain.Fail("reward_matches_mission", mission.ID, domain.SevHigh, c.Reason))
		}
		if c := sanity.MultipliersCorrect(s.calc, user.Plan, mission.Reward.XP, realized.XP); !c.OK {
			issues = append(issues, domain.Fail("multipliers_correct", mission.ID, domain.SevMedium, c.Reason))
		}
	}
	return issues
}

// scanQueue checks that every live queue entry still points at a real
// user and item.
func (s *Sentinel) scanQueue(queue []domain.QueueEntry, users map[string]domain.UserEconomyState) []domain.RuleResult {
	var issues []domain.RuleResult
	for _, entry := range queue {
		if _, ok := users[entry.UserID]; !ok {
			issues = append(issues, domain.Fail("queue_integrity", entry.ID, domain.SevMedium,
				fmt.Sprintf("queue entry %s references unknown user %s", entry.ID, entry.UserID)))
		}
		if _, err := s.store.GetItem(entry.ItemID); err != nil {
			issues = append(issues, domain.Fail("queue_integrity", entry.ID, domain.SevMedium,
				fmt.Sprintf("queue entry %s references unknown item %s", entry.ID, entry.ItemID)))
		}
	}
	return issues
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func (s *Sentinel) report(result domain.ScanResult, took time.Duration) {
	log.Printf("sentinel: scan of %d users finished in %s — risk=%s issues=%d",
		result.UsersScanned, took.Round(time.Millisecond), result.GlobalRiskLevel, len(result.AllIssues()))
	if s.metrics == nil {
		return
	}
	s.metrics.ScanDuration.Observe(took.Seconds())
	s.metrics.ScanIssues.WithLabelValues("user").Set(float64(len(result.UserIssues)))
	s.metrics.ScanIssues.WithLabelValues("store").Set(float64(len(result.StoreIssues)))
	s.metrics.ScanIssues.WithLabelValues("mission").Set(float64(len(result.MissionIssues)))
	s.metrics.ScanIssues.WithLabelValues("queue").Set(float64(len(result.QueueIssues)))
	s.metrics.ScanRiskLevel.Set(float64(severityOfRisk(result.GlobalRiskLevel)))
}

// countToday counts submissions on the same UTC calendar day as now.
func countToday(subs []domain.MissionSubmission, now time.Time) int {
	today := now.UTC().Format(time.DateOnly)
	n := 0
	for _, sub := range subs {
		if sub.SubmittedAt.UTC().Format(time.DateOnly) == today {
			n++
		}
	}
	return n
}

func severityRank(s domain.Severity) int {
	switch s {
	case domain.SevHigh:
		return 2
	case domain.SevMedium:
		return 1
	default:
		return 0
	}
}

func severityOfRisk(r domain.RiskLevel) int {
	switch r {
	case domain.RiskCritical:
		return 2
	case domain.RiskAttention:
		return 1
	default:
		return 0
	}
}
