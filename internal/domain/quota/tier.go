package quota

import "time"

// Tier is a subscription level defining request limits
type Tier string

const (
	TierFree          Tier = "free"
	TierPremium       Tier = "premium"
	TierInstitutional Tier = "institutional"
)

// Valid reports whether the tier is a known subscription level
func (t Tier) Valid() bool {
	switch t {
	case TierFree, TierPremium, TierInstitutional:
		return true
	}
	return false
}

// TierLimits defines per-tier admission limits.
// RequestsPerWindow is inclusive: the request that would make the count
// exceed the limit is denied.
type TierLimits struct {
	RequestsPerWindow   int
	WindowLength        time.Duration
	WeeklyQuestionLimit int
}

// DefaultTierLimits returns the built-in limit table.
// Read-only reference data; callers must not mutate the returned map.
func DefaultTierLimits() map[Tier]TierLimits {
	return map[Tier]TierLimits{
		TierFree: {
			RequestsPerWindow:   50,
			WindowLength:        24 * time.Hour,
			WeeklyQuestionLimit: 25,
		},
		TierPremium: {
			RequestsPerWindow:   500,
			WindowLength:        24 * time.Hour,
			WeeklyQuestionLimit: 250,
		},
		TierInstitutional: {
			RequestsPerWindow:   5000,
			WindowLength:        24 * time.Hour,
			WeeklyQuestionLimit: 2500,
		},
	}
}

// LimitsFor returns the limits for a tier, falling back to free limits
// for unknown tiers so a bad user record never grants unlimited access.
func LimitsFor(limits map[Tier]TierLimits, t Tier) TierLimits {
	if l, ok := limits[t]; ok {
		return l
	}
	return limits[TierFree]
}
