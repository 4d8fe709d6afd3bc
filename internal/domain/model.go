// Package domain contains pure business types with ZERO infrastructure imports.
// This is the innermost ring of the economy core — it depends on nothing.
package domain

import "time"

// ─── Plans ──────────────────────────────────────────────────────────────────

// Plan is a subscription tier. The set is closed; anything else is invalid.
type Plan string

const (
	PlanFree   Plan = "FREE"
	PlanMember Plan = "MEMBER"
	PlanPro    Plan = "PRO"
	PlanElite  Plan = "ELITE"
)

// ValidPlan reports whether p is one of the known tiers.
func ValidPlan(p Plan) bool {
	switch p {
	case PlanFree, PlanMember, PlanPro, PlanElite:
		return true
	}
	return false
}

// ─── User Economy State ─────────────────────────────────────────────────────

// UserEconomyState is the authoritative per-user balance record.
// Coin and XP fields are owned exclusively by the ledger core; every other
// subsystem either reads them or requests a mutation through the core.
type UserEconomyState struct {
	ID                       string    `json:"id"`
	Coins                    int64     `json:"coins"`
	XP                       int64     `json:"xp"`
	Level                    int       `json:"level"`
	Plan                     Plan      `json:"plan"`
	MonthlyMissionsCompleted int       `json:"monthly_missions_completed"`
	TotalMissionsCompleted   int       `json:"total_missions_completed"`
	WeeklyCheckInStreak      int       `json:"weekly_check_in_streak"`
	JoinedAt                 time.Time `json:"joined_at"`
}

// DaysSinceJoin returns whole calendar days between JoinedAt and now,
// never less than zero.
func (u UserEconomyState) DaysSinceJoin(now time.Time) int {
	d := int(now.Sub(u.JoinedAt).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}

// ─── Ledger Operation ───────────────────────────────────────────────────────

// ValueKind selects which balance field a ledger operation mutates.
type ValueKind string

const (
	KindCoin ValueKind = "COIN"
	KindXP   ValueKind = "XP"
)

// ValidKind reports whether k is a mutable balance kind.
func ValidKind(k ValueKind) bool { return k == KindCoin || k == KindXP }

// LedgerOperation is the ephemeral record assembled for a single mutation.
// It is created and consumed entirely within one Apply call and never
// shared across operations.
type LedgerOperation struct {
	UserID    string    `json:"user_id"`
	Kind      ValueKind `json:"kind"`
	Delta     int64     `json:"delta"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Nonce     string    `json:"nonce"`
	Signature string    `json:"signature"`
}

// ─── Historical Logs ────────────────────────────────────────────────────────

// TransactionType is the direction of a coin transaction.
type TransactionType string

const (
	TxEarn  TransactionType = "earn"
	TxSpend TransactionType = "spend"
)

// Transaction is one entry in the append-only coin transaction log.
type Transaction struct {
	UserID string          `json:"user_id"`
	Type   TransactionType `json:"type"`
	Amount int64           `json:"amount"`
	Source string          `json:"source"`
	Date   time.Time       `json:"date"`
}

// SubmissionStatus is the review state of a mission submission.
type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

// MissionSubmission is one entry in the mission submission log.
type MissionSubmission struct {
	UserID      string           `json:"user_id"`
	MissionID   string           `json:"mission_id"`
	SubmittedAt time.Time        `json:"submitted_at"`
	Status      SubmissionStatus `json:"status"`
}

// RedeemedItem is one entry in the store redemption log. CoinsBefore and
// CoinsAfter capture the buyer's balance around the purchase so fraud rules
// can detect impossible redemptions after the fact.
type RedeemedItem struct {
	UserID      string    `json:"user_id"`
	ItemID      string    `json:"item_id"`
	ItemName    string    `json:"item_name"`
	ItemPrice   int64     `json:"item_price"`
	CoinsBefore int64     `json:"coins_before"`
	CoinsAfter  int64     `json:"coins_after"`
	RedeemedAt  time.Time `json:"redeemed_at"`
	Status      string    `json:"status"`
}

// ─── Missions ───────────────────────────────────────────────────────────────

// MissionType is the closed set of mission categories admins may create.
type MissionType string

const (
	MissionDaily     MissionType = "DAILY"
	MissionWeekly    MissionType = "WEEKLY"
	MissionSpecial   MissionType = "SPECIAL"
	MissionCommunity MissionType = "COMMUNITY"
)

// ValidMissionType reports whether t is a known mission category.
func ValidMissionType(t MissionType) bool {
	switch t {
	case MissionDaily, MissionWeekly, MissionSpecial, MissionCommunity:
		return true
	}
	return false
}

// RewardTier names a row of the base reward table.
type RewardTier string

const (
	TierEasy   RewardTier = "easy"
	TierMedium RewardTier = "medium"
	TierHard   RewardTier = "hard"
	TierEpic   RewardTier = "epic"
)

// RewardPair is a declared mission reward (XP plus optional coins).
type RewardPair struct {
	XP    int64 `json:"xp"`
	Coins int64 `json:"coins"`
}

// Mission is a task users complete for rewards.
type Mission struct {
	ID          string      `json:"id"`
	Type        MissionType `json:"type"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Tier        RewardTier  `json:"tier"`
	Reward      RewardPair  `json:"reward"`
}

// ─── Store ──────────────────────────────────────────────────────────────────

// StoreItem is a purchasable item in the coin store.
type StoreItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Category string `json:"category"`
}

// rarityCategories are collectible-only categories: items in these
// categories have no gameplay effect and are open to every plan.
var rarityCategories = map[string]bool{
	"common":    true,
	"rare":      true,
	"epic":      true,
	"legendary": true,
}

// IsRarityCategory reports whether cat is a collectible ("rarity") category.
// Everything outside this set is a usable item category and is restricted
// to paying tiers.
func IsRarityCategory(cat string) bool { return rarityCategories[cat] }

// QueueEntry is one live entry in a redemption fulfillment queue.
type QueueEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ItemID    string    `json:"item_id"`
	EnteredAt time.Time `json:"entered_at"`
	Status    string    `json:"status"`
}
