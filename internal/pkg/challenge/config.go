package challenge

import (
	"time"

	"github.com/propmodel/challenge-admin/internal/pkg/env"
)

const (
	DefaultFreeTrialExpiryMinutes = 43200
	DefaultAwardConcurrency       = 10
	GlobalFreeTrialCap            = 100000
	DefaultMaxTradingDays         = 30
)

// Config holds the tunables of the provisioning workflows.
type Config struct {
	// FreeTrialExpiry is the delay after which a free-trial account is disabled.
	FreeTrialExpiry time.Duration
	// AllowMultipleFreeTrials disables the per-user free-trial cap.
	AllowMultipleFreeTrials bool
	// AwardConcurrency bounds how many users of one award batch are
	// provisioned at the same time.
	AwardConcurrency int
	// GlobalFreeTrialCap is the maximum number of FREE_TRIAL accounts overall.
	GlobalFreeTrialCap int64
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		FreeTrialExpiry:    DefaultFreeTrialExpiryMinutes * time.Minute,
		AwardConcurrency:   DefaultAwardConcurrency,
		GlobalFreeTrialCap: GlobalFreeTrialCap,
	}
}

// ConfigFromEnv reads the workflow configuration from the environment.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	minutes := env.GetEnvInt("FREE_TRIAL_EXPIRY_MINUTES", DefaultFreeTrialExpiryMinutes)
	if minutes > 0 {
		cfg.FreeTrialExpiry = time.Duration(minutes) * time.Minute
	}
	cfg.AllowMultipleFreeTrials = env.GetEnvBool("ALLOW_MULTIPLE_FREE_TRIALS", false)
	if n := env.GetEnvInt("AWARD_MAX_CONCURRENCY", DefaultAwardConcurrency); n > 0 {
		cfg.AwardConcurrency = n
	}
	return cfg
}

func (c Config) awardConcurrency() int {
	if c.AwardConcurrency <= 0 {
		return DefaultAwardConcurrency
	}
	return c.AwardConcurrency
}

func (c Config) globalFreeTrialCap() int64 {
	if c.GlobalFreeTrialCap <= 0 {
		return GlobalFreeTrialCap
	}
	return c.GlobalFreeTrialCap
}
