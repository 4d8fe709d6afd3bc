package sanity

import (
	"testing"
	"time"

	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/domain"
	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/leveling"
)

func healthyUser() domain.UserEconomyState {
	return domain.UserEconomyState{
		ID:                  "u1",
		Coins:               120,
		XP:                  450,
		Level:               3, // leveling curve: 400 ≤ xp < 900 → level 3
		Plan:                domain.PlanPro,
		WeeklyCheckInStreak: 4,
		JoinedAt:            time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestBalanceChecks(t *testing.T) {
	u := healthyUser()
	if c := CoinsNeverNegative(u); !c.OK {
		t.Errorf("healthy coins flagged: %s", c.Reason)
	}
	if c := XPNeverNegative(u); !c.OK {
		t.Errorf("healthy xp flagged: %s", c.Reason)
	}

	u.Coins = -5
	u.XP = -1
	if c := CoinsNeverNegative(u); c.OK {
		t.Error("negative coins should fail")
	}
	if c := XPNeverNegative(u); c.OK {
		t.Error("negative xp should fail")
	}
}

func TestRewardMatchesMissionType(t *testing.T) {
	mission := domain.Mission{
		ID:     "m1",
		Type:   domain.MissionDaily,
		Tier:   domain.TierMedium,
		Reward: domain.RewardPair{XP: 100, Coins: 25},
	}

	if c := RewardMatchesMissionType(mission, domain.RewardPair{XP: 130, Coins: 32}); !c.OK {
		t.Errorf("boosted reward flagged: %s", c.Reason)
	}
	if c := RewardMatchesMissionType(mission, domain.RewardPair{XP: 80, Coins: 32}); c.OK {
		t.Error("xp below base should fail")
	}
	if c := RewardMatchesMissionType(mission, domain.RewardPair{XP: 130, Coins: 10}); c.OK {
		t.Error("coins below base should fail")
	}

	// Missions without a coin component only constrain XP.
	xpOnly := domain.Mission{ID: "m2", Reward: domain.RewardPair{XP: 50}}
	if c := RewardMatchesMissionType(xpOnly, domain.RewardPair{XP: 50, Coins: 0}); !c.OK {
		t.Errorf("xp-only mission flagged: %s", c.Reason)
	}
}

func TestMultipliersCorrect(t *testing.T) {
	calc := leveling.New()

	// PRO multiplier 1.3: floor(100 × 1.3) = 130.
	if c := MultipliersCorrect(calc, domain.PlanPro, 100, 130); !c.OK {
		t.Errorf("exact multiplier flagged: %s", c.Reason)
	}
	// ±1 rounding tolerance.
	if c := MultipliersCorrect(calc, domain.PlanPro, 100, 129); !c.OK {
		t.Errorf("within tolerance flagged: %s", c.Reason)
	}
	if c := MultipliersCorrect(calc, domain.PlanPro, 100, 140); c.OK {
		t.Error("inflated reward should fail")
	}
	if c := MultipliersCorrect(calc, domain.PlanPro, 100, 100); c.OK {
		t.Error("missing multiplier should fail")
	}
}

// Scenario: stored level 3 but XP corresponding to level 5.
func TestLevelUpCorrect(t *testing.T) {
	calc := leveling.New()
	u := healthyUser()

	if c := LevelUpCorrect(calc, u); !c.OK {
		t.Errorf("consistent level flagged: %s", c.Reason)
	}

	u.XP = calc.XPForLevel(5) // level 5 worth of XP, stored level still 3
	if c := LevelUpCorrect(calc, u); c.OK {
		t.Error("level/xp mismatch should fail")
	}
}

func TestDailyLimitsRespected(t *testing.T) {
	calc := leveling.New()
	u := healthyUser()
	u.Plan = domain.PlanFree // daily limit 3

	if c := DailyLimitsRespected(calc, u, 3); !c.OK {
		t.Errorf("at-limit flagged: %s", c.Reason)
	}
	if c := DailyLimitsRespected(calc, u, 4); c.OK {
		t.Error("over-limit should fail")
	}

	u.Plan = domain.PlanElite // unlimited
	if c := DailyLimitsRespected(calc, u, 500); !c.OK {
		t.Errorf("unlimited plan flagged: %s", c.Reason)
	}
}

func TestStorePriceIntegrity(t *testing.T) {
	if c := StorePriceIntegrity(domain.StoreItem{ID: "i1", Price: 0}); !c.OK {
		t.Errorf("zero price flagged: %s", c.Reason)
	}
	if c := StorePriceIntegrity(domain.StoreItem{ID: "i1", Price: -10}); c.OK {
		t.Error("negative price should fail")
	}
}

func TestPlanRestrictions(t *testing.T) {
	free := healthyUser()
	free.Plan = domain.PlanFree

	collectible := domain.StoreItem{ID: "i1", Category: "legendary"}
	usable := domain.StoreItem{ID: "i2", Category: "boost"}

	if c := PlanRestrictions(free, collectible); !c.OK {
		t.Errorf("rarity item for free user flagged: %s", c.Reason)
	}
	if c := PlanRestrictions(free, usable); c.OK {
		t.Error("usable item for free user should fail")
	}

	pro := healthyUser()
	if c := PlanRestrictions(pro, usable); !c.OK {
		t.Errorf("usable item for paying user flagged: %s", c.Reason)
	}
}

func TestStreakBounds(t *testing.T) {
	u := healthyUser()

	if c := StreakBounds(u, 30); !c.OK {
		t.Errorf("valid streak flagged: %s", c.Reason)
	}

	u.WeeklyCheckInStreak = 8
	if c := StreakBounds(u, 30); c.OK {
		t.Error("streak above 7 should fail")
	}

	u.WeeklyCheckInStreak = 5
	if c := StreakBounds(u, 2); c.OK {
		t.Error("streak longer than account age + 1 should fail")
	}

	u.WeeklyCheckInStreak = -1
	if c := StreakBounds(u, 30); c.OK {
		t.Error("negative streak should fail")
	}
}

func TestMissionCounters(t *testing.T) {
	u := healthyUser()
	if c := MissionCounters(u); !c.OK {
		t.Errorf("valid counters flagged: %s", c.Reason)
	}

	u.MonthlyMissionsCompleted = -1
	if c := MissionCounters(u); c.OK {
		t.Error("negative counter should fail")
	}
}
