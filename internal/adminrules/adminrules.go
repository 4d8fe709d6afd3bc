// Package adminrules is the pre-commit validation gate for admin-authored
// changes. Every admin mutation — mission creation, price edits,
// punishments, level/coin adjustments, queue actions — passes through
// Evaluate before it may be persisted.
//
// Hard (high-severity) failures block the action and surface their detail
// text verbatim to the admin; medium and low failures are recorded for
// review but do not block.
package adminrules

import (
	"fmt"

	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/domain"
)

// ─── Thresholds ─────────────────────────────────────────────────────────────

const (
	// MinSanePrice is the floor under which a price breaks the economy:
	// items this cheap drain the coin sink entirely.
	MinSanePrice = 10
	// MaxSanePrice is the ceiling above which an item is unreachable for
	// regular players.
	MaxSanePrice = 20000

	// MaxXPAdjustment and MaxCoinAdjustment bound single-admin edits;
	// anything larger needs a second admin's review.
	MaxXPAdjustment   = 50000
	MaxCoinAdjustment = 10000
)

// Rule names.
const (
	RuleMissionCreation = "mission_creation_consistency"
	RulePriceSafety     = "store_price_safety"
	RulePunishment      = "admin_punishment_safety"
	RuleLevelAdjust     = "level_adjustment_safety"
	RuleQueueAction     = "queue_action_safety"
)

// ─── Actions ────────────────────────────────────────────────────────────────

// ActionKind names the admin action being validated.
type ActionKind string

const (
	ActionCreateMission ActionKind = "create_mission"
	ActionEditPrice     ActionKind = "edit_price"
	ActionPunish        ActionKind = "punish"
	ActionAdjustLevels  ActionKind = "adjust_levels"
	ActionQueue         ActionKind = "queue_action"
)

// Punishment deducts resources from a user for a stated reason.
type Punishment struct {
	UserID       string `json:"user_id"`
	Reason       string `json:"reason"`
	DeductCoins  int64  `json:"deduct_coins"`
	DeductXP     int64  `json:"deduct_xp"`
}

// Adjustment is a direct admin edit of a user's XP/coin totals.
type Adjustment struct {
	UserID     string `json:"user_id"`
	NewXP      int64  `json:"new_xp"`
	DeltaXP    int64  `json:"delta_xp"`
	DeltaCoins int64  `json:"delta_coins"`
}

// QueueAction targets one entry of the live fulfillment queue.
type QueueAction struct {
	EntryID string `json:"entry_id"`
	Verb    string `json:"verb"` // approve / reject / requeue
}

// Action is the tagged union handed to Evaluate. Exactly one payload
// field matching Kind must be set.
type Action struct {
	Kind        ActionKind          `json:"kind"`
	Mission     *domain.Mission     `json:"mission,omitempty"`
	Item        *domain.StoreItem   `json:"item,omitempty"`
	Punishment  *Punishment         `json:"punishment,omitempty"`
	Adjustment  *Adjustment         `json:"adjustment,omitempty"`
	QueueAction *QueueAction        `json:"queue_action,omitempty"`
	Queue       []domain.QueueEntry `json:"-"` // live snapshot for queue actions
}

// ─── Engine ─────────────────────────────────────────────────────────────────

// Engine validates admin actions against the reward tables of calc.
type Engine struct {
	calc domain.Calculator
}

// NewEngine creates an admin rule engine.
func NewEngine(calc domain.Calculator) *Engine {
	return &Engine{calc: calc}
}

// Evaluate dispatches the action to its rule.
func (e *Engine) Evaluate(a Action) domain.RuleResult {
	switch a.Kind {
	case ActionCreateMission:
		return e.MissionCreationConsistency(a.Mission)
	case ActionEditPrice:
		return e.StorePriceSafety(a.Item)
	case ActionPunish:
		return e.PunishmentSafety(a.Punishment)
	case ActionAdjustLevels:
		return e.LevelAdjustmentSafety(a.Adjustment)
	case ActionQueue:
		return e.QueueActionSafety(a.QueueAction, a.Queue)
	}
	return domain.Fail("admin_action", "", domain.SevHigh,
		fmt.Sprintf("unknown admin action kind %q", a.Kind))
}

// MissionCreationConsistency requires a known mission type and a
// description; an off-table reward pair is a soft warning only.
func (e *Engine) MissionCreationConsistency(m *domain.Mission) domain.RuleResult {
	if m == nil {
		return domain.Fail(RuleMissionCreation, "", domain.SevHigh, "mission payload missing")
	}
	if !domain.ValidMissionType(m.Type) {
		return domain.Fail(RuleMissionCreation, m.ID, domain.SevHigh,
			fmt.Sprintf("mission type %q is not a known category", m.Type))
	}
	if m.Description == "" {
		return domain.Fail(RuleMissionCreation, m.ID, domain.SevHigh, "mission description must not be empty")
	}
	if !e.knownBaseReward(m.Reward) {
		return domain.Fail(RuleMissionCreation, m.ID, domain.SevLow,
			fmt.Sprintf("reward {xp:%d coins:%d} matches no base tier — double-check before publishing",
				m.Reward.XP, m.Reward.Coins))
	}
	return domain.Pass(RuleMissionCreation, m.ID)
}

// StorePriceSafety rejects negative prices outright and flags prices that
// break the economy at either end of the range.
func (e *Engine) StorePriceSafety(item *domain.StoreItem) domain.RuleResult {
	if item == nil {
		return domain.Fail(RulePriceSafety, "", domain.SevHigh, "item payload missing")
	}
	switch {
	case item.Price < 0:
		return domain.Fail(RulePriceSafety, item.ID, domain.SevHigh,
			fmt.Sprintf("preço %d é negativo", item.Price))
	case item.Price > 0 && item.Price < MinSanePrice:
		return domain.Fail(RulePriceSafety, item.ID, domain.SevMedium,
			fmt.Sprintf("preço %d absurdamente baixo (mínimo seguro %d): risco de exploração da economia",
				item.Price, MinSanePrice))
	case item.Price > MaxSanePrice:
		return domain.Fail(RulePriceSafety, item.ID, domain.SevLow,
			fmt.Sprintf("preço %d acima do teto %d: item inacessível para jogadores regulares",
				item.Price, MaxSanePrice))
	}
	return domain.Pass(RulePriceSafety, item.ID)
}

// PunishmentSafety requires a reason and rejects negative deductions
// (which would silently become grants).
func (e *Engine) PunishmentSafety(p *Punishment) domain.RuleResult {
	if p == nil {
		return domain.Fail(RulePunishment, "", domain.SevHigh, "punishment payload missing")
	}
	if p.Reason == "" {
		return domain.Fail(RulePunishment, p.UserID, domain.SevHigh, "punishment requires a stated reason")
	}
	if p.DeductCoins < 0 || p.DeductXP < 0 {
		return domain.Fail(RulePunishment, p.UserID, domain.SevHigh,
			fmt.Sprintf("deduction amounts must be ≥ 0 (coins=%d xp=%d)", p.DeductCoins, p.DeductXP))
	}
	return domain.Pass(RulePunishment, p.UserID)
}

// LevelAdjustmentSafety rejects negative XP targets and flags oversized
// single edits for secondary admin review.
func (e *Engine) LevelAdjustmentSafety(adj *Adjustment) domain.RuleResult {
	if adj == nil {
		return domain.Fail(RuleLevelAdjust, "", domain.SevHigh, "adjustment payload missing")
	}
	if adj.NewXP < 0 {
		return domain.Fail(RuleLevelAdjust, adj.UserID, domain.SevHigh,
			fmt.Sprintf("target xp %d is negative", adj.NewXP))
	}
	if abs(adj.DeltaXP) > MaxXPAdjustment || abs(adj.DeltaCoins) > MaxCoinAdjustment {
		return domain.Fail(RuleLevelAdjust, adj.UserID, domain.SevMedium,
			fmt.Sprintf("adjustment Δxp=%d Δcoins=%d exceeds single-admin bounds (%d/%d) — secondary review required",
				adj.DeltaXP, adj.DeltaCoins, MaxXPAdjustment, MaxCoinAdjustment))
	}
	return domain.Pass(RuleLevelAdjust, adj.UserID)
}

// QueueActionSafety requires the referenced entry to exist in the live
// queue snapshot.
func (e *Engine) QueueActionSafety(qa *QueueAction, queue []domain.QueueEntry) domain.RuleResult {
	if qa == nil {
		return domain.Fail(RuleQueueAction, "", domain.SevHigh, "queue action payload missing")
	}
	for _, entry := range queue {
		if entry.ID == qa.EntryID {
			return domain.Pass(RuleQueueAction, qa.EntryID)
		}
	}
	return domain.Fail(RuleQueueAction, qa.EntryID, domain.SevHigh,
		fmt.Sprintf("queue entry %q not found in live queue", qa.EntryID))
}

// knownBaseReward checks the pair against every row of the base table.
func (e *Engine) knownBaseReward(pair domain.RewardPair) bool {
	tiers := []domain.RewardTier{domain.TierEasy, domain.TierMedium, domain.TierHard, domain.TierEpic}
	for _, tier := range tiers {
		if e.calc.BaseReward(tier) == pair {
			return true
		}
	}
	return false
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
