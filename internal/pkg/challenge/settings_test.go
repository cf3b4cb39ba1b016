package challenge

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propmodel/challenge-admin/app/models"
)

func TestResolveWithoutPhaseRowsIsZero(t *testing.T) {
	store := newMemStore()
	group := models.PlatformGroup{
		UUID:         "g-empty",
		ProfitTarget: ptr(8.0),
		MaxDrawdown:  ptr(10.0),
	}
	store.groups = append(store.groups, group)
	defaults := &models.DefaultChallengeSettings{ProfitTarget: ptr(9.0), MinTradingDays: ptr(3)}

	for _, phase := range []string{models.PhaseOne, models.PhaseTwo, models.PhaseFunded} {
		got, err := ResolveEffectiveSettings(store.repos().Settings, &group, phase, defaults)
		require.NoError(t, err)
		assert.Zero(t, got.ProfitTarget, phase)
		assert.Zero(t, got.MaxDrawdown, phase)
		assert.Zero(t, got.MaxDailyDrawdown, phase)
		assert.Zero(t, got.ConsistencyScore, phase)
		assert.Zero(t, got.MinTradingDays, phase)
	}
}

func TestResolveLayeredFallback(t *testing.T) {
	for mask := 0; mask < 8; mask++ {
		hasAdvanced := mask&1 != 0
		hasGroup := mask&2 != 0
		hasDefault := mask&4 != 0

		layers := settingsLayers{
			group:    &models.PlatformGroup{UUID: "g1"},
			defaults: &models.DefaultChallengeSettings{},
			advanced: &models.AdvancedChallengeSettings{},
		}
		wantLeverage, wantSplit := 0, 0.0
		if hasDefault {
			layers.defaults.AccountLeverage, layers.defaults.ProfitSplit = ptr(30), ptr(70.0)
			wantLeverage, wantSplit = 30, 70
		}
		if hasGroup {
			layers.group.AccountLeverage, layers.group.ProfitSplit = ptr(20), ptr(80.0)
			wantLeverage, wantSplit = 20, 80
		}
		if hasAdvanced {
			layers.advanced.AccountLeverage, layers.advanced.ProfitSplit = ptr(10), ptr(90.0)
			wantLeverage, wantSplit = 10, 90
		}

		got := layers.resolve()
		assert.Equal(t, wantLeverage, got.AccountLeverage, "mask %03b", mask)
		assert.Equal(t, wantSplit, got.ProfitSplit, "mask %03b", mask)
	}
}

func TestResolveExplicitZeroIsNotAbsent(t *testing.T) {
	layers := settingsLayers{
		group:    &models.PlatformGroup{UUID: "g1", AccountLeverage: ptr(0)},
		defaults: &models.DefaultChallengeSettings{AccountLeverage: ptr(100)},
	}
	assert.Equal(t, 0, layers.resolve().AccountLeverage)
}

func TestResolvePhaseValues(t *testing.T) {
	rows := []models.PhaseWiseSetting{
		{SettingName: SettingProfitTarget, PhaseValue: strPtr("8")},
		{SettingName: SettingMaxDrawdown, PhaseValue: strPtr(" 10.5 ")},
		{SettingName: SettingMaxDailyDrawdown, PhaseValue: strPtr("5")},
		{SettingName: SettingConsistencyScore, PhaseValue: strPtr("not-a-number")},
		{SettingName: SettingMinTradingDays, PhaseValue: strPtr("4")},
		{SettingName: "breach_type", PhaseValue: strPtr("equity")},
		{SettingName: "ignored", PhaseValue: nil},
	}

	got := settingsLayers{group: &models.PlatformGroup{UUID: "g1"}, phase: rows}.resolve()

	assert.Equal(t, 8.0, got.ProfitTarget)
	assert.Equal(t, 10.5, got.MaxDrawdown)
	assert.Equal(t, 5.0, got.MaxDailyDrawdown)
	assert.Zero(t, got.ConsistencyScore)
	assert.Equal(t, 4, got.MinTradingDays)
	assert.Equal(t, map[string]string{
		SettingConsistencyScore: "not-a-number",
		"breach_type":           "equity",
	}, got.Extras)
}

func TestResolveEffectiveSettingsReadsStore(t *testing.T) {
	store := newMemStore()
	group := seedChallengeGroup(store)
	store.advanced = append(store.advanced, models.AdvancedChallengeSettings{
		UUID:              "adv-1",
		PlatformGroupUUID: strPtr(group.UUID),
		ProfitSplit:       ptr(85.0),
	})
	defaults := &models.DefaultChallengeSettings{AccountLeverage: ptr(100), ProfitSplit: ptr(60.0)}

	got, err := ResolveEffectiveSettings(store.repos().Settings, &group, models.PhaseOne, defaults)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, got.ProfitTarget)
	assert.Equal(t, 50, got.AccountLeverage)
	assert.Equal(t, 85.0, got.ProfitSplit)

	phase2, err := ResolveEffectiveSettings(store.repos().Settings, &group, models.PhaseTwo, defaults)
	require.NoError(t, err)
	assert.Zero(t, phase2.ProfitTarget)
}

type failingSettings struct {
	memSettings
}

func (failingSettings) GetAdvancedForGroup(string) (*models.AdvancedChallengeSettings, error) {
	return nil, errors.New("connection reset")
}

func TestResolveEffectiveSettingsPropagatesReadErrors(t *testing.T) {
	store := newMemStore()
	group := seedChallengeGroup(store)

	_, err := ResolveEffectiveSettings(failingSettings{memSettings{store}}, &group, models.PhaseOne, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load advanced settings")
}

func TestAccountSettingsCopiesGroupRules(t *testing.T) {
	layers := settingsLayers{
		group: &models.PlatformGroup{UUID: "g1"},
		advanced: &models.AdvancedChallengeSettings{
			UUID:              "adv-1",
			PlatformGroupUUID: strPtr("g1"),
			ChallengeRules: models.ChallengeRules{
				AllowExpertAdvisors: true,
				BreachType:          strPtr("balance"),
				MaxOpenLots:         ptr(20),
			},
			ProfitTarget:   ptr(99.0),
			MaxTradingDays: ptr(45),
			Prices:         decimal.NewFromInt(250),
		},
		defaults: &models.DefaultChallengeSettings{
			ChallengeRules: models.ChallengeRules{RequiresStopLoss: true},
			MaxTradingDays: ptr(60),
		},
	}
	resolved := EffectiveSettings{ProfitTarget: 8, MaxDrawdown: 10, MinTradingDays: 3, AccountLeverage: 100, ProfitSplit: 80}

	got := layers.accountSettings("acc-1", resolved)

	assert.Empty(t, got.UUID)
	assert.Nil(t, got.PlatformGroupUUID)
	require.NotNil(t, got.PlatformAccountUUID)
	assert.Equal(t, "acc-1", *got.PlatformAccountUUID)
	assert.True(t, got.AllowExpertAdvisors)
	assert.False(t, got.RequiresStopLoss)
	assert.Equal(t, "balance", *got.BreachType)
	assert.Equal(t, 20, *got.MaxOpenLots)
	assert.True(t, decimal.NewFromInt(250).Equal(got.Prices))
	assert.Equal(t, 8.0, *got.ProfitTarget)
	assert.Equal(t, 10.0, *got.MaxDrawdown)
	assert.Equal(t, 3, *got.MinTradingDays)
	assert.Equal(t, 100, *got.AccountLeverage)
	assert.Equal(t, 80.0, *got.ProfitSplit)
	assert.Equal(t, 45, *got.MaxTradingDays)
}

func TestAccountSettingsMaxTradingDaysFallback(t *testing.T) {
	tests := []struct {
		name     string
		group    *int
		advanced *models.AdvancedChallengeSettings
		defaults *models.DefaultChallengeSettings
		want     int
	}{
		{
			name:     "group wins",
			group:    ptr(14),
			advanced: &models.AdvancedChallengeSettings{MaxTradingDays: ptr(45)},
			want:     14,
		},
		{
			name:     "copied advanced settings",
			advanced: &models.AdvancedChallengeSettings{MaxTradingDays: ptr(45)},
			defaults: &models.DefaultChallengeSettings{MaxTradingDays: ptr(60)},
			want:     45,
		},
		{
			name:     "copied defaults",
			defaults: &models.DefaultChallengeSettings{MaxTradingDays: ptr(60)},
			want:     60,
		},
		{
			name: "built-in",
			want: DefaultMaxTradingDays,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layers := settingsLayers{
				group:    &models.PlatformGroup{UUID: "g1", MaxTradingDays: tt.group},
				advanced: tt.advanced,
				defaults: tt.defaults,
			}
			got := layers.accountSettings("acc-1", EffectiveSettings{})
			require.NotNil(t, got.MaxTradingDays)
			assert.Equal(t, tt.want, *got.MaxTradingDays)
		})
	}
}

func TestAccountSettingsUsesDefaultsRulesWithoutAdvanced(t *testing.T) {
	layers := settingsLayers{
		group: &models.PlatformGroup{UUID: "g1"},
		defaults: &models.DefaultChallengeSettings{
			ChallengeRules: models.ChallengeRules{HeldOverTheWeekend: true, WithdrawWithin: ptr(7)},
		},
	}
	got := layers.accountSettings("acc-1", EffectiveSettings{})
	assert.True(t, got.HeldOverTheWeekend)
	assert.Equal(t, 7, *got.WithdrawWithin)
}
