// Package leveling is the default leveling-curve and reward-table
// calculator. The economy core consumes it only through the
// domain.Calculator interface, so deployments can swap the curve without
// touching the integrity subsystem.
package leveling

import (
	"math"

	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/domain"
)

// XPPerLevelUnit is the quadratic curve coefficient: reaching level n
// requires (n-1)² × XPPerLevelUnit total XP.
const XPPerLevelUnit = 100

// planMultipliers maps each tier to its reward multiplier.
// Multipliers are ≥ 1.0 in every tier: upgrading never reduces a reward.
var planMultipliers = map[domain.Plan]float64{
	domain.PlanFree:   1.0,
	domain.PlanMember: 1.15,
	domain.PlanPro:    1.3,
	domain.PlanElite:  1.5,
}

// baseMissionRewards is the declared base reward table per tier.
var baseMissionRewards = map[domain.RewardTier]domain.RewardPair{
	domain.TierEasy:   {XP: 50, Coins: 10},
	domain.TierMedium: {XP: 100, Coins: 25},
	domain.TierHard:   {XP: 200, Coins: 60},
	domain.TierEpic:   {XP: 500, Coins: 150},
}

// dailyMissionLimits caps missions per day per plan. Absent plans are
// unlimited.
var dailyMissionLimits = map[domain.Plan]int{
	domain.PlanFree:   3,
	domain.PlanMember: 5,
	domain.PlanPro:    10,
}

// Calculator implements domain.Calculator with the default tables above.
type Calculator struct{}

// New returns the default calculator.
func New() Calculator { return Calculator{} }

// LevelFromXP maps total XP to a level via the quadratic curve.
// Level is always ≥ 1.
func (Calculator) LevelFromXP(xp int64) int {
	if xp <= 0 {
		return 1
	}
	return int(math.Sqrt(float64(xp)/XPPerLevelUnit)) + 1
}

// XPForLevel returns the minimum total XP for a level.
func (Calculator) XPForLevel(level int) int64 {
	if level <= 1 {
		return 0
	}
	n := int64(level - 1)
	return n * n * XPPerLevelUnit
}

// PlanMultiplier returns the reward multiplier for a plan.
// Unknown plans fall back to 1.0 rather than zeroing rewards.
func (Calculator) PlanMultiplier(p domain.Plan) float64 {
	if m, ok := planMultipliers[p]; ok {
		return m
	}
	return 1.0
}

// BaseReward returns the declared base reward for a tier. Unknown tiers
// return a zero pair.
func (Calculator) BaseReward(tier domain.RewardTier) domain.RewardPair {
	return baseMissionRewards[tier]
}

// DailyMissionLimit returns the plan's daily mission cap.
func (Calculator) DailyMissionLimit(p domain.Plan) (int, bool) {
	limit, ok := dailyMissionLimits[p]
	return limit, ok
}

// KnownBaseReward reports whether the pair matches any row of the base
// reward table exactly.
func (c Calculator) KnownBaseReward(pair domain.RewardPair) bool {
	for _, base := range baseMissionRewards {
		if base == pair {
			return true
		}
	}
	return false
}
