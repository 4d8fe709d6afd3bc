// Package sanity holds stateless invariant predicates over user, mission,
// and item state. Every predicate is pure and returns a Check; callers
// combine results explicitly — nothing here short-circuits or panics, so a
// scan over thousands of entities cannot be aborted by one bad record.
package sanity

import (
	"fmt"
	"math"

	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/domain"
)

// Check is the result of one invariant predicate.
type Check struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

func ok() Check { return Check{OK: true} }

func fail(format string, args ...interface{}) Check {
	return Check{OK: false, Reason: fmt.Sprintf(format, args...)}
}

// MultiplierTolerance is the rounding slack allowed between a computed
// reward and floor(base × multiplier).
const MultiplierTolerance = 1

// CoinsNeverNegative verifies the coin balance never went below zero.
func CoinsNeverNegative(u domain.UserEconomyState) Check {
	if u.Coins < 0 {
		return fail("coins = %d, must be ≥ 0", u.Coins)
	}
	return ok()
}

// XPNeverNegative verifies the XP balance never went below zero.
func XPNeverNegative(u domain.UserEconomyState) Check {
	if u.XP < 0 {
		return fail("xp = %d, must be ≥ 0", u.XP)
	}
	return ok()
}

// RewardMatchesMissionType verifies that a realized reward is never below
// the mission's declared base: multipliers only raise rewards, never
// lower them.
func RewardMatchesMissionType(m domain.Mission, realized domain.RewardPair) Check {
	if realized.XP < m.Reward.XP {
		return fail("realized xp %d below mission base %d (%s)", realized.XP, m.Reward.XP, m.ID)
	}
	if m.Reward.Coins > 0 && realized.Coins < m.Reward.Coins {
		return fail("realized coins %d below mission base %d (%s)", realized.Coins, m.Reward.Coins, m.ID)
	}
	return ok()
}

// MultipliersCorrect verifies that final equals floor(base × plan
// multiplier) within the rounding tolerance.
func MultipliersCorrect(calc domain.Calculator, plan domain.Plan, base, final int64) Check {
	expected := int64(math.Floor(float64(base) * calc.PlanMultiplier(plan)))
	if diff := final - expected; diff > MultiplierTolerance || diff < -MultiplierTolerance {
		return fail("final %d deviates from floor(%d × %s multiplier) = %d", final, base, plan, expected)
	}
	return ok()
}

// LevelUpCorrect verifies the stored level equals the level implied by
// the stored XP.
func LevelUpCorrect(calc domain.Calculator, u domain.UserEconomyState) Check {
	implied := calc.LevelFromXP(u.XP)
	if u.Level != implied {
		return fail("stored level %d but xp %d implies level %d", u.Level, u.XP, implied)
	}
	return ok()
}

// DailyLimitsRespected verifies that today's submission count does not
// exceed the plan's daily mission cap. Unlimited plans always pass.
func DailyLimitsRespected(calc domain.Calculator, u domain.UserEconomyState, submissionsToday int) Check {
	limit, limited := calc.DailyMissionLimit(u.Plan)
	if !limited {
		return ok()
	}
	if submissionsToday > limit {
		return fail("%d submissions today exceeds %s daily limit %d", submissionsToday, u.Plan, limit)
	}
	return ok()
}

// StorePriceIntegrity verifies that an item is not priced below zero.
func StorePriceIntegrity(item domain.StoreItem) Check {
	if item.Price < 0 {
		return fail("item %s priced %d, must be ≥ 0", item.ID, item.Price)
	}
	return ok()
}

// PlanRestrictions verifies that a Free-tier user is not reaching for a
// usable (non-rarity) item category.
func PlanRestrictions(u domain.UserEconomyState, item domain.StoreItem) Check {
	if u.Plan == domain.PlanFree && !domain.IsRarityCategory(item.Category) {
		return fail("plan FREE cannot redeem usable category %q (item %s)", item.Category, item.ID)
	}
	return ok()
}

// MissionCounters verifies mission counters are never negative.
func MissionCounters(u domain.UserEconomyState) Check {
	if u.MonthlyMissionsCompleted < 0 || u.TotalMissionsCompleted < 0 {
		return fail("mission counters monthly=%d total=%d, must be ≥ 0",
			u.MonthlyMissionsCompleted, u.TotalMissionsCompleted)
	}
	return ok()
}

// StreakBounds verifies the weekly check-in streak stays in 0–7 and never
// exceeds the user's account age plus one.
func StreakBounds(u domain.UserEconomyState, daysSinceJoin int) Check {
	if u.WeeklyCheckInStreak < 0 {
		return fail("streak %d is negative", u.WeeklyCheckInStreak)
	}
	if u.WeeklyCheckInStreak > 7 {
		return fail("streak %d exceeds weekly maximum 7", u.WeeklyCheckInStreak)
	}
	if u.WeeklyCheckInStreak > daysSinceJoin+1 {
		return fail("streak %d exceeds account age %d days + 1", u.WeeklyCheckInStreak, daysSinceJoin)
	}
	return ok()
}
