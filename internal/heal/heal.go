// Package heal contains idempotent repair functions for the invariant
// violations the sanity guard detects.
//
// Fixers only clamp invalid values back into the valid domain — they can
// never raise a balance, so auto-heal cannot be abused to grant resources.
// A violation that cannot be repaired safely (plan/category mismatch) is
// flagged for manual review instead of silently corrected.
package heal

import (
	"fmt"
	"log"

	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/domain"
	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/infra/observability"
)

// Fix reports the outcome of one fixer. Fixed is false both when nothing
// was wrong and when the fixer cannot resolve the violation by itself —
// the Detail text distinguishes the two.
type Fix struct {
	Fixer  string `json:"fixer"`
	Fixed  bool   `json:"fixed"`
	Detail string `json:"detail,omitempty"`
}

// Healer runs repair functions. Metrics are optional.
type Healer struct {
	metrics *observability.Metrics
}

// New creates a healer.
func New(metrics *observability.Metrics) *Healer {
	return &Healer{metrics: metrics}
}

func (h *Healer) record(fix Fix, userID string) Fix {
	if fix.Fixed {
		log.Printf("heal: %s corrected for %s: %s", fix.Fixer, userID, fix.Detail)
		if h.metrics != nil {
			h.metrics.HealFixes.WithLabelValues(fix.Fixer).Inc()
		}
	}
	return fix
}

// FixNegativeCoins resets a negative coin balance to zero.
func (h *Healer) FixNegativeCoins(u domain.UserEconomyState) (domain.UserEconomyState, Fix) {
	if u.Coins >= 0 {
		return u, Fix{Fixer: "negative_coins"}
	}
	detail := fmt.Sprintf("coins %d → 0", u.Coins)
	u.Coins = 0
	return u, h.record(Fix{Fixer: "negative_coins", Fixed: true, Detail: detail}, u.ID)
}

// FixNegativeXP resets a negative XP balance to zero.
func (h *Healer) FixNegativeXP(u domain.UserEconomyState) (domain.UserEconomyState, Fix) {
	if u.XP >= 0 {
		return u, Fix{Fixer: "negative_xp"}
	}
	detail := fmt.Sprintf("xp %d → 0", u.XP)
	u.XP = 0
	return u, h.record(Fix{Fixer: "negative_xp", Fixed: true, Detail: detail}, u.ID)
}

// FixInvalidLevel resets a level below 1 to 1.
func (h *Healer) FixInvalidLevel(u domain.UserEconomyState) (domain.UserEconomyState, Fix) {
	if u.Level >= 1 {
		return u, Fix{Fixer: "invalid_level"}
	}
	detail := fmt.Sprintf("level %d → 1", u.Level)
	u.Level = 1
	return u, h.record(Fix{Fixer: "invalid_level", Fixed: true, Detail: detail}, u.ID)
}

// FixNegativeCounters resets negative mission counters to zero.
func (h *Healer) FixNegativeCounters(u domain.UserEconomyState) (domain.UserEconomyState, Fix) {
	if u.MonthlyMissionsCompleted >= 0 && u.TotalMissionsCompleted >= 0 {
		return u, Fix{Fixer: "negative_counters"}
	}
	detail := fmt.Sprintf("counters monthly=%d total=%d → clamped to 0",
		u.MonthlyMissionsCompleted, u.TotalMissionsCompleted)
	if u.MonthlyMissionsCompleted < 0 {
		u.MonthlyMissionsCompleted = 0
	}
	if u.TotalMissionsCompleted < 0 {
		u.TotalMissionsCompleted = 0
	}
	return u, h.record(Fix{Fixer: "negative_counters", Fixed: true, Detail: detail}, u.ID)
}

// FixNegativeStreak resets a negative check-in streak to zero.
func (h *Healer) FixNegativeStreak(u domain.UserEconomyState) (domain.UserEconomyState, Fix) {
	if u.WeeklyCheckInStreak >= 0 {
		return u, Fix{Fixer: "negative_streak"}
	}
	detail := fmt.Sprintf("streak %d → 0", u.WeeklyCheckInStreak)
	u.WeeklyCheckInStreak = 0
	return u, h.record(Fix{Fixer: "negative_streak", Fixed: true, Detail: detail}, u.ID)
}

// FixNegativeReward resets negative components of a computed reward to
// zero. It never raises a valid component.
func (h *Healer) FixNegativeReward(r domain.RewardPair) (domain.RewardPair, Fix) {
	if r.XP >= 0 && r.Coins >= 0 {
		return r, Fix{Fixer: "negative_reward"}
	}
	detail := fmt.Sprintf("reward xp=%d coins=%d → clamped to 0", r.XP, r.Coins)
	if r.XP < 0 {
		r.XP = 0
	}
	if r.Coins < 0 {
		r.Coins = 0
	}
	return r, h.record(Fix{Fixer: "negative_reward", Fixed: true, Detail: detail}, "")
}

// FlagPlanMismatch reports a Free-tier user holding a usable-category item.
// There is no safe automatic correction (revoking a purchase needs human
// judgment), so the fix is surfaced with Fixed:false for manual review.
func (h *Healer) FlagPlanMismatch(u domain.UserEconomyState, item domain.StoreItem) Fix {
	if u.Plan != domain.PlanFree || domain.IsRarityCategory(item.Category) {
		return Fix{Fixer: "plan_mismatch"}
	}
	detail := fmt.Sprintf("user %s (FREE) holds usable item %s (%s) — manual review required",
		u.ID, item.ID, item.Category)
	log.Printf("heal: %s", detail)
	return Fix{Fixer: "plan_mismatch", Fixed: false, Detail: detail}
}

// ApplyAll runs every user fixer in sequence, folding corrected state
// forward, and returns the fully repaired user plus the fixes that fired.
// Running it twice on a healed user reports no fixes the second time.
func (h *Healer) ApplyAll(u domain.UserEconomyState) (domain.UserEconomyState, []Fix) {
	var applied []Fix

	steps := []func(domain.UserEconomyState) (domain.UserEconomyState, Fix){
		h.FixNegativeCoins,
		h.FixNegativeXP,
		h.FixInvalidLevel,
		h.FixNegativeCounters,
		h.FixNegativeStreak,
	}
	for _, step := range steps {
		var fix Fix
		u, fix = step(u)
		if fix.Fixed {
			applied = append(applied, fix)
		}
	}
	return u, applied
}
