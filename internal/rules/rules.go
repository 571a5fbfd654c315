// Package rules holds the activity rule catalog and the pure evaluation
// logic over it: eligibility requirements, multiplier conditions and the
// level curve. Nothing in this package touches storage.
package rules

type Category string

const (
	CategoryEngagement  Category = "engagement"
	CategorySocial      Category = "social"
	CategoryTrading     Category = "trading"
	CategoryReferral    Category = "referral"
	CategoryAchievement Category = "achievement"
	CategoryOnboarding  Category = "onboarding"
	CategoryCommunity   Category = "community"
	CategorySpecial     Category = "special"
	CategoryAdmin       Category = "admin"
)

type MultiplierKind string

const (
	MultiplierStreak        MultiplierKind = "streak"
	MultiplierVolume        MultiplierKind = "volume"
	MultiplierLevel         MultiplierKind = "level"
	MultiplierReferralCount MultiplierKind = "referral_count"
)

type RequirementKind string

const (
	RequirementMinLevel        RequirementKind = "min_level"
	RequirementKYCVerified     RequirementKind = "kyc_verified"
	RequirementMinTransactions RequirementKind = "min_transactions"
	RequirementAccountAgeDays  RequirementKind = "account_age_days"
)

// MultiplierCondition scales the running point value when the matching
// user fact meets or exceeds the threshold. Conditions apply cumulatively
// in declared order; overlapping thresholds are the caller's concern.
type MultiplierCondition struct {
	Kind        MultiplierKind `mapstructure:"kind" yaml:"kind"`
	Threshold   float64        `mapstructure:"threshold" yaml:"threshold"`
	Factor      float64        `mapstructure:"factor" yaml:"factor"`
	Description string         `mapstructure:"description" yaml:"description"`
}

type Requirement struct {
	Kind        RequirementKind `mapstructure:"kind" yaml:"kind"`
	Value       int64           `mapstructure:"value" yaml:"value"`
	Description string          `mapstructure:"description" yaml:"description"`
}

// ActivityRule is immutable at evaluation time; the registry hands out
// copies and the award path never mutates one. Zero-valued caps and
// cooldown mean "not set".
type ActivityRule struct {
	Type           string                `mapstructure:"type" yaml:"type"`
	Name           string                `mapstructure:"name" yaml:"name"`
	Description    string                `mapstructure:"description" yaml:"description"`
	Category       Category              `mapstructure:"category" yaml:"category"`
	BasePoints     int64                 `mapstructure:"base_points" yaml:"base_points"`
	MaxDailyPoints int64                 `mapstructure:"max_daily_points" yaml:"max_daily_points"`
	MaxTotalPoints int64                 `mapstructure:"max_total_points" yaml:"max_total_points"`
	CooldownHours  int                   `mapstructure:"cooldown_hours" yaml:"cooldown_hours"`
	Multipliers    []MultiplierCondition `mapstructure:"multipliers" yaml:"multipliers"`
	Requirements   []Requirement         `mapstructure:"requirements" yaml:"requirements"`
	IsActive       bool                  `mapstructure:"is_active" yaml:"is_active"`
	AdvancesStreak bool                  `mapstructure:"advances_streak" yaml:"advances_streak"`
}

func (r *ActivityRule) HasDailyCap() bool {
	return r.MaxDailyPoints > 0
}

func (r *ActivityRule) HasTotalCap() bool {
	return r.MaxTotalPoints > 0
}

func (r *ActivityRule) HasCooldown() bool {
	return r.CooldownHours > 0
}

// Facts are caller-supplied; the engine never resolves them itself.
type Facts struct {
	Level            int64   `json:"level"`
	AccountAgeDays   int64   `json:"account_age_days"`
	TransactionCount int64   `json:"transaction_count"`
	KYCVerified      bool    `json:"kyc_verified"`
	Streak           int64   `json:"streak"`
	Volume           float64 `json:"volume"`
	ReferralCount    int64   `json:"referral_count"`
}
