package challenge

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/propmodel/challenge-admin/app/models"
	"github.com/propmodel/challenge-admin/app/repository"
	"gorm.io/gorm"
)

// Setting names stored in phase_wise_settings.
const (
	SettingProfitTarget     = "profit_target"
	SettingMaxDrawdown      = "max_drawdown"
	SettingMaxDailyDrawdown = "max_daily_drawdown"
	SettingConsistencyScore = "consistency_score"
	SettingMinTradingDays   = "min_trading_days"
)

// EffectiveSettings are the rule values that apply to an account in one
// phase of a platform group.
type EffectiveSettings struct {
	// Phase-scoped; 0 when the phase has no row for them.
	ProfitTarget     float64 `json:"profit_target"`
	MaxDrawdown      float64 `json:"max_drawdown"`
	MaxDailyDrawdown float64 `json:"max_daily_drawdown"`
	ConsistencyScore float64 `json:"consistency_score"`
	MinTradingDays   int     `json:"min_trading_days"`

	// Layered: advanced settings, then group, then defaults, then 0.
	AccountLeverage int     `json:"account_leverage"`
	ProfitSplit     float64 `json:"profit_split"`

	// Extras keeps phase values that are not numeric, keyed by setting
	// name, verbatim.
	Extras map[string]string `json:"extras,omitempty"`
}

// settingsLayers is everything the resolver reads.
type settingsLayers struct {
	group    *models.PlatformGroup
	advanced *models.AdvancedChallengeSettings
	defaults *models.DefaultChallengeSettings
	phase    []models.PhaseWiseSetting
}

// ResolveEffectiveSettings reads the phase rows and the group's advanced
// settings and resolves them against defaults. defaults may be nil.
func ResolveEffectiveSettings(settings repository.ChallengeSettingsRepository, group *models.PlatformGroup, phaseKey string, defaults *models.DefaultChallengeSettings) (EffectiveSettings, error) {
	layers, err := loadSettingsLayers(settings, group, phaseKey, defaults)
	if err != nil {
		return EffectiveSettings{}, err
	}
	return layers.resolve(), nil
}

func loadSettingsLayers(settings repository.ChallengeSettingsRepository, group *models.PlatformGroup, phaseKey string, defaults *models.DefaultChallengeSettings) (settingsLayers, error) {
	rows, err := settings.GetPhaseSettings(group.UUID, phaseKey)
	if err != nil {
		return settingsLayers{}, fmt.Errorf("load %s settings: %w", phaseKey, err)
	}
	advanced, err := settings.GetAdvancedForGroup(group.UUID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return settingsLayers{}, fmt.Errorf("load advanced settings: %w", err)
	}
	return settingsLayers{group: group, advanced: advanced, defaults: defaults, phase: rows}, nil
}

func (l settingsLayers) resolve() EffectiveSettings {
	out := EffectiveSettings{}

	for _, row := range l.phase {
		if row.PhaseValue == nil {
			continue
		}
		raw := strings.TrimSpace(*row.PhaseValue)
		num, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			if out.Extras == nil {
				out.Extras = make(map[string]string)
			}
			out.Extras[row.SettingName] = *row.PhaseValue
			continue
		}
		switch row.SettingName {
		case SettingProfitTarget:
			out.ProfitTarget = num
		case SettingMaxDrawdown:
			out.MaxDrawdown = num
		case SettingMaxDailyDrawdown:
			out.MaxDailyDrawdown = num
		case SettingConsistencyScore:
			out.ConsistencyScore = num
		case SettingMinTradingDays:
			out.MinTradingDays = int(math.Round(num))
		}
	}

	var advLeverage, groupLeverage, defLeverage *int
	var advSplit, groupSplit, defSplit *float64
	if l.advanced != nil {
		advLeverage, advSplit = l.advanced.AccountLeverage, l.advanced.ProfitSplit
	}
	if l.group != nil {
		groupLeverage, groupSplit = l.group.AccountLeverage, l.group.ProfitSplit
	}
	if l.defaults != nil {
		defLeverage, defSplit = l.defaults.AccountLeverage, l.defaults.ProfitSplit
	}
	out.AccountLeverage = firstSet(advLeverage, groupLeverage, defLeverage)
	out.ProfitSplit = firstSet(advSplit, groupSplit, defSplit)

	return out
}

// accountSettings builds the advanced settings snapshot of a new account.
// Rules are copied from the group's advanced settings, or from the defaults
// when the group has none; resolved values replace the phase-scoped and
// layered fields.
func (l settingsLayers) accountSettings(accountUUID string, resolved EffectiveSettings) *models.AdvancedChallengeSettings {
	out := &models.AdvancedChallengeSettings{PlatformAccountUUID: &accountUUID}

	var baseMaxTradingDays *int
	switch {
	case l.advanced != nil:
		out.ChallengeRules = l.advanced.ChallengeRules
		out.Prices = l.advanced.Prices
		baseMaxTradingDays = l.advanced.MaxTradingDays
	case l.defaults != nil:
		out.ChallengeRules = l.defaults.ChallengeRules
		baseMaxTradingDays = l.defaults.MaxTradingDays
	}

	var groupMaxTradingDays *int
	if l.group != nil {
		groupMaxTradingDays = l.group.MaxTradingDays
	}
	maxTradingDays := firstSet(groupMaxTradingDays, baseMaxTradingDays, ptr(DefaultMaxTradingDays))

	out.AccountLeverage = ptr(resolved.AccountLeverage)
	out.ProfitSplit = ptr(resolved.ProfitSplit)
	out.ProfitTarget = ptr(resolved.ProfitTarget)
	out.MaxDrawdown = ptr(resolved.MaxDrawdown)
	out.MaxDailyDrawdown = ptr(resolved.MaxDailyDrawdown)
	out.ConsistencyScore = ptr(resolved.ConsistencyScore)
	out.MinTradingDays = ptr(resolved.MinTradingDays)
	out.MaxTradingDays = ptr(maxTradingDays)
	return out
}

// firstSet returns the first non-nil value, or the zero value.
func firstSet[T any](layers ...*T) T {
	for _, v := range layers {
		if v != nil {
			return *v
		}
	}
	var zero T
	return zero
}

func ptr[T any](v T) *T {
	return &v
}
