package domain

import "time"

// ─── Service Interfaces ─────────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; the economy core depends on them.

// Store abstracts the persistence layer as flat select/insert/update access
// over named collections. Implementations must be safe for concurrent use.
type Store interface {
	GetUser(id string) (*UserEconomyState, error) // ErrUserNotFound if absent
	ListUsers() ([]UserEconomyState, error)
	UpdateUser(u UserEconomyState) error

	InsertTransaction(tx Transaction) error
	ListTransactions(userID string) ([]Transaction, error)

	ListSubmissions(userID string) ([]MissionSubmission, error)
	ListAllSubmissions() ([]MissionSubmission, error)

	ListRedemptions(userID string) ([]RedeemedItem, error)
	ListAllRedemptions() ([]RedeemedItem, error)

	GetMission(id string) (*Mission, error) // ErrMissionNotFound if absent
	GetItem(id string) (*StoreItem, error)  // ErrItemNotFound if absent
	ListQueue() ([]QueueEntry, error)

	InsertAuditLog(entry AdminAuditEntry) error
}

// AdminAuditEntry records one validated admin action, whatever its outcome.
type AdminAuditEntry struct {
	Action    string     `json:"action"`
	Payload   string     `json:"payload"`
	Result    RuleResult `json:"result"`
	Timestamp time.Time  `json:"timestamp"`
}

// Calculator is the external leveling/reward table contract. The core never
// hardcodes curve values; it asks the calculator.
type Calculator interface {
	// LevelFromXP maps a total XP amount to the level it implies.
	LevelFromXP(xp int64) int

	// PlanMultiplier returns the reward multiplier for a plan (≥ 1.0).
	PlanMultiplier(p Plan) float64

	// BaseReward returns the declared base reward pair for a tier.
	BaseReward(tier RewardTier) RewardPair

	// DailyMissionLimit returns the plan's daily mission cap.
	// limited == false means the plan is unlimited.
	DailyMissionLimit(p Plan) (limit int, limited bool)
}

// Notifier dispatches fire-and-forget user notifications. Implementations
// must never block the caller on delivery.
type Notifier interface {
	Notify(userID, title, body string)
}
