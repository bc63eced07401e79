package optimizer

import (
	"math"

	"github.com/ignite/ppc-optimizer/internal/domain"
)

// strategyDefaults is the lookup table of default thresholds per strategy.
// It is never mutated; explicit overrides are merged on top per run.
var strategyDefaults = map[domain.Strategy]domain.Thresholds{
	domain.StrategyMarketLeader:   {TargetACOS: 0.08, MinConversionRate: 0.10, MinClicks: 25},
	domain.StrategyLargeInventory: {TargetACOS: 0.08, MinConversionRate: 0.10, MinClicks: 25},
	domain.StrategyStandard:       {TargetACOS: 0.20, MinConversionRate: 0.10, MinClicks: 25},
}

// StrategyDefaults returns the default thresholds for a strategy.
func StrategyDefaults(s domain.Strategy) (domain.Thresholds, bool) {
	t, ok := strategyDefaults[s]
	return t, ok
}

// ResolveProfile merges the strategy defaults with the explicit overrides and
// validates the result. An empty strategy means standard.
func ResolveProfile(name string, strategy domain.Strategy, o domain.ProfileOverrides) (domain.ClientProfile, error) {
	if strategy == "" {
		strategy = domain.StrategyStandard
	}
	t, ok := strategyDefaults[strategy]
	if !ok {
		return domain.ClientProfile{}, &ConfigError{Field: "strategy", Value: strategy, Reason: "unknown strategy"}
	}
	if o.TargetACOS != nil {
		t.TargetACOS = *o.TargetACOS
	}
	if o.MinConversionRate != nil {
		t.MinConversionRate = *o.MinConversionRate
	}
	if o.MinClicks != nil {
		t.MinClicks = *o.MinClicks
	}

	p := domain.ClientProfile{Name: name, Strategy: strategy, Thresholds: t}
	if err := ValidateProfile(p); err != nil {
		return domain.ClientProfile{}, err
	}
	return p, nil
}

// ValidateProfile checks every threshold is inside its valid range.
func ValidateProfile(p domain.ClientProfile) error {
	if _, ok := strategyDefaults[p.Strategy]; !ok {
		return &ConfigError{Field: "strategy", Value: p.Strategy, Reason: "unknown strategy"}
	}
	if !finite(p.TargetACOS) || p.TargetACOS <= 0 || p.TargetACOS > 1 {
		return &ConfigError{Field: "target_acos", Value: p.TargetACOS, Reason: "must be a fraction in (0, 1]"}
	}
	if !finite(p.MinConversionRate) || p.MinConversionRate < 0 || p.MinConversionRate > 1 {
		return &ConfigError{Field: "min_conversion_rate", Value: p.MinConversionRate, Reason: "must be a fraction in [0, 1]"}
	}
	if p.MinClicks < 1 {
		return &ConfigError{Field: "min_clicks", Value: p.MinClicks, Reason: "must be at least 1"}
	}
	return nil
}

// Limits are the run-wide guard rails of the bid and placement calculators.
type Limits struct {
	MaxIncreasePct   float64 `json:"max_increase_pct" yaml:"max_increase_pct"`
	MinBid           float64 `json:"min_bid" yaml:"min_bid"`
	FixedDecreasePct float64 `json:"fixed_decrease_pct" yaml:"fixed_decrease_pct"`
	MinChangePct     float64 `json:"min_change_pct" yaml:"min_change_pct"`
	PlacementMinPct  float64 `json:"placement_min_pct" yaml:"placement_min_pct"`
	PlacementMaxPct  float64 `json:"placement_max_pct" yaml:"placement_max_pct"`
}

// DefaultLimits returns +30% cap, 0.02 floor, 15% conservative decrease,
// 5% significance and Amazon's 0..900% placement range.
func DefaultLimits() Limits {
	return Limits{
		MaxIncreasePct:   0.30,
		MinBid:           0.02,
		FixedDecreasePct: 0.15,
		MinChangePct:     0.05,
		PlacementMinPct:  0,
		PlacementMaxPct:  900,
	}
}

// Validate checks the limits are usable.
func (l Limits) Validate() error {
	switch {
	case !finite(l.MaxIncreasePct) || l.MaxIncreasePct < 0:
		return &ConfigError{Field: "max_increase_pct", Value: l.MaxIncreasePct, Reason: "must be >= 0"}
	case !finite(l.MinBid) || l.MinBid < 0:
		return &ConfigError{Field: "min_bid", Value: l.MinBid, Reason: "must be >= 0"}
	case !finite(l.FixedDecreasePct) || l.FixedDecreasePct < 0 || l.FixedDecreasePct >= 1:
		return &ConfigError{Field: "fixed_decrease_pct", Value: l.FixedDecreasePct, Reason: "must be in [0, 1)"}
	case !finite(l.MinChangePct) || l.MinChangePct < 0:
		return &ConfigError{Field: "min_change_pct", Value: l.MinChangePct, Reason: "must be >= 0"}
	case !finite(l.PlacementMinPct) || !finite(l.PlacementMaxPct) || l.PlacementMinPct > l.PlacementMaxPct:
		return &ConfigError{Field: "placement_min_pct", Value: l.PlacementMinPct, Reason: "must not exceed placement_max_pct"}
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
