// Package audit implements the heuristic per-user anomaly rules that watch
// the economy's historical logs for cheat patterns.
//
// Every rule is pure: it consumes a user plus log slices and returns a
// RuleResult. Failures are data, not errors — a scan over the whole
// population never aborts on one suspicious record.
package audit

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/domain"
)

// ─── Thresholds ─────────────────────────────────────────────────────────────
// Fixed constants, part of the rule contract.

const (
	// RapidGrowthMinLevel is the level below which growth speed is ignored.
	RapidGrowthMinLevel = 5
	// RapidGrowthLevelsPerDay is the sustainable leveling speed ceiling.
	RapidGrowthLevelsPerDay = 4.0

	// DailyEarnCeiling is the most coins a user can plausibly earn in one
	// calendar day.
	DailyEarnCeiling = 500

	// Night window [NightHourStart, NightHourEnd) for the bot-hours check.
	NightHourStart = 2
	NightHourEnd   = 5
	// NightShare is the fraction of submissions inside the night window
	// above which the pattern is suspicious.
	NightShare = 0.5

	// BurstCount submissions within BurstWindow is machine-speed grinding.
	BurstCount  = 3
	BurstWindow = 5 * time.Minute

	// MaxStreak is the hard cap of the weekly check-in streak.
	MaxStreak = 7

	// QueueAbuseCount queueable redemptions within QueueAbuseWindow.
	QueueAbuseCount  = 3
	QueueAbuseWindow = time.Hour
)

// Rule names, shared with the reporter.
const (
	RuleRapidLevelGrowth  = "rapid_level_growth"
	RuleUnusualCoinGain   = "unusual_coin_gain"
	RuleMissionPattern    = "suspicious_mission_pattern"
	RuleImpossibleStreak  = "impossible_streak"
	RuleQueueAbuse        = "queue_abuse"
	RuleStoreAnomaly      = "store_anomaly"
)

// queueableMarkers is the name heuristic for items that enter a
// fulfillment queue when redeemed.
var queueableMarkers = []string{"queue", "fila", "skip", "priority", "destaque"}

// Logs bundles the historical inputs one user's evaluation needs.
type Logs struct {
	Transactions []domain.Transaction
	Submissions  []domain.MissionSubmission
	Redemptions  []domain.RedeemedItem
}

// Engine evaluates audit rules. The clock is injectable for tests.
type Engine struct {
	now func() time.Time
}

// NewEngine creates an audit engine.
func NewEngine() *Engine { return &Engine{now: time.Now} }

// WithClock overrides the clock for deterministic testing.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Evaluate runs every audit rule for one user and returns all results,
// passed and failed alike. Callers filter.
func (e *Engine) Evaluate(u domain.UserEconomyState, logs Logs) []domain.RuleResult {
	return []domain.RuleResult{
		e.RapidLevelGrowth(u),
		e.UnusualCoinGain(u, logs.Transactions),
		e.SuspiciousMissionPattern(u, logs.Submissions),
		e.ImpossibleStreak(u),
		e.QueueAbuse(u, logs.Redemptions),
		e.StoreAnomaly(u, logs.Redemptions),
	}
}

// ─── Rules ──────────────────────────────────────────────────────────────────

// RapidLevelGrowth flags users leveling faster than any honest player can.
func (e *Engine) RapidLevelGrowth(u domain.UserEconomyState) domain.RuleResult {
	if u.Level <= RapidGrowthMinLevel {
		return domain.Pass(RuleRapidLevelGrowth, u.ID)
	}

	days := e.now().Sub(u.JoinedAt).Hours() / 24
	if days < 1 {
		days = 1
	}
	rate := float64(u.Level-1) / days
	if rate > RapidGrowthLevelsPerDay {
		return domain.Fail(RuleRapidLevelGrowth, u.ID, domain.SevHigh,
			fmt.Sprintf("level %d reached at %.1f levels/day (max %.0f)", u.Level, rate, RapidGrowthLevelsPerDay))
	}
	return domain.Pass(RuleRapidLevelGrowth, u.ID)
}

// UnusualCoinGain flags any single day whose summed earn transactions
// exceed the daily ceiling.
func (e *Engine) UnusualCoinGain(u domain.UserEconomyState, txs []domain.Transaction) domain.RuleResult {
	perDay := make(map[string]int64)
	for _, tx := range txs {
		if tx.Type != domain.TxEarn {
			continue
		}
		perDay[tx.Date.UTC().Format(time.DateOnly)] += tx.Amount
	}

	for day, total := range perDay {
		if total > DailyEarnCeiling {
			return domain.Fail(RuleUnusualCoinGain, u.ID, domain.SevMedium,
				fmt.Sprintf("earned %d coins on %s (ceiling %d)", total, day, DailyEarnCeiling))
		}
	}
	return domain.Pass(RuleUnusualCoinGain, u.ID)
}

// SuspiciousMissionPattern flags bot-hours submission clustering and
// machine-speed bursts. The night share alone is low severity; a burst
// raises it to medium.
func (e *Engine) SuspiciousMissionPattern(u domain.UserEconomyState, subs []domain.MissionSubmission) domain.RuleResult {
	if len(subs) == 0 {
		return domain.Pass(RuleMissionPattern, u.ID)
	}

	night := 0
	times := make([]time.Time, 0, len(subs))
	for _, s := range subs {
		hour := s.SubmittedAt.UTC().Hour()
		if hour >= NightHourStart && hour < NightHourEnd {
			night++
		}
		times = append(times, s.SubmittedAt)
	}

	var problems []string
	sev := domain.SevLow

	if share := float64(night) / float64(len(subs)); share > NightShare {
		problems = append(problems, fmt.Sprintf("%.0f%% of %d submissions between %02d:00 and %02d:00",
			share*100, len(subs), NightHourStart, NightHourEnd))
	}
	if slidingWindowHit(times, BurstCount, BurstWindow) {
		problems = append(problems, fmt.Sprintf("%d submissions within %s", BurstCount, BurstWindow))
		sev = domain.SevMedium
	}

	if len(problems) == 0 {
		return domain.Pass(RuleMissionPattern, u.ID)
	}
	return domain.Fail(RuleMissionPattern, u.ID, sev, strings.Join(problems, "; "))
}

// ImpossibleStreak flags streaks the calendar cannot produce.
func (e *Engine) ImpossibleStreak(u domain.UserEconomyState) domain.RuleResult {
	days := u.DaysSinceJoin(e.now())
	switch {
	case u.WeeklyCheckInStreak > MaxStreak:
		return domain.Fail(RuleImpossibleStreak, u.ID, domain.SevHigh,
			fmt.Sprintf("streak %d exceeds weekly maximum %d", u.WeeklyCheckInStreak, MaxStreak))
	case u.WeeklyCheckInStreak > days+1:
		return domain.Fail(RuleImpossibleStreak, u.ID, domain.SevHigh,
			fmt.Sprintf("streak %d on an account %d days old", u.WeeklyCheckInStreak, days))
	}
	return domain.Pass(RuleImpossibleStreak, u.ID)
}

// QueueAbuse flags bursts of queueable redemptions: three or more within
// one hour monopolizes the fulfillment queue.
func (e *Engine) QueueAbuse(u domain.UserEconomyState, reds []domain.RedeemedItem) domain.RuleResult {
	var times []time.Time
	for _, r := range reds {
		if isQueueable(r.ItemName) {
			times = append(times, r.RedeemedAt)
		}
	}

	if slidingWindowHit(times, QueueAbuseCount, QueueAbuseWindow) {
		return domain.Fail(RuleQueueAbuse, u.ID, domain.SevMedium,
			fmt.Sprintf("%d queueable redemptions within %s", QueueAbuseCount, QueueAbuseWindow))
	}
	return domain.Pass(RuleQueueAbuse, u.ID)
}

// StoreAnomaly flags redemptions that left a negative balance (high) or
// were afforded without the coins to pay (medium).
func (e *Engine) StoreAnomaly(u domain.UserEconomyState, reds []domain.RedeemedItem) domain.RuleResult {
	for _, r := range reds {
		if r.CoinsAfter < 0 {
			return domain.Fail(RuleStoreAnomaly, u.ID, domain.SevHigh,
				fmt.Sprintf("redemption of %s left balance %d", r.ItemID, r.CoinsAfter))
		}
	}
	for _, r := range reds {
		if r.CoinsBefore < r.ItemPrice {
			return domain.Fail(RuleStoreAnomaly, u.ID, domain.SevMedium,
				fmt.Sprintf("redeemed %s priced %d with only %d coins", r.ItemID, r.ItemPrice, r.CoinsBefore))
		}
	}
	return domain.Pass(RuleStoreAnomaly, u.ID)
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// slidingWindowHit sorts events chronologically and reports whether any
// `count` consecutive ones fall within `window`: for every index i it
// compares event[i+count-1].time - event[i].time against the window.
func slidingWindowHit(times []time.Time, count int, window time.Duration) bool {
	if len(times) < count {
		return false
	}
	sorted := append([]time.Time(nil), times...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	for i := 0; i+count-1 < len(sorted); i++ {
		if sorted[i+count-1].Sub(sorted[i]) <= window {
			return true
		}
	}
	return false
}

// isQueueable applies the item-name heuristic for queue-entering items.
func isQueueable(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range queueableMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
