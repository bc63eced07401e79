package domain

import "time"

// Strategy tags a client's business situation. It selects default thresholds only.
type Strategy string

const (
	StrategyMarketLeader   Strategy = "market-leader"
	StrategyLargeInventory Strategy = "large-inventory"
	StrategyStandard       Strategy = "standard"
)

// AllStrategies returns the supported strategies.
func AllStrategies() []Strategy {
	return []Strategy{StrategyMarketLeader, StrategyLargeInventory, StrategyStandard}
}

// Thresholds are the numeric knobs a Client Profile carries.
type Thresholds struct {
	TargetACOS        float64 `json:"target_acos"`
	MinConversionRate float64 `json:"min_conversion_rate"`
	MinClicks         int     `json:"min_clicks"`
}

// ProfileOverrides holds explicit user-entered thresholds. Nil fields fall
// back to the strategy default.
type ProfileOverrides struct {
	TargetACOS        *float64 `json:"target_acos,omitempty"`
	MinConversionRate *float64 `json:"min_conversion_rate,omitempty"`
	MinClicks         *int     `json:"min_clicks,omitempty"`
}

// IsZero returns true when no override is set.
func (o ProfileOverrides) IsZero() bool {
	return o.TargetACOS == nil && o.MinConversionRate == nil && o.MinClicks == nil
}

// Merge returns o with every field set in other taking precedence.
func (o ProfileOverrides) Merge(other ProfileOverrides) ProfileOverrides {
	if other.TargetACOS != nil {
		o.TargetACOS = other.TargetACOS
	}
	if other.MinConversionRate != nil {
		o.MinConversionRate = other.MinConversionRate
	}
	if other.MinClicks != nil {
		o.MinClicks = other.MinClicks
	}
	return o
}

// ClientProfile is the resolved, immutable configuration for one optimization run.
type ClientProfile struct {
	ClientID string   `json:"client_id,omitempty"`
	Name     string   `json:"name"`
	Strategy Strategy `json:"strategy"`
	Thresholds
}

// StoredProfile is a persisted client configuration: the strategy plus the
// user's overrides, resolved into a ClientProfile at run time.
type StoredProfile struct {
	ClientID  string           `json:"client_id" db:"client_id"`
	Name      string           `json:"name" db:"name"`
	Strategy  Strategy         `json:"strategy" db:"strategy"`
	Overrides ProfileOverrides `json:"overrides"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt time.Time        `json:"updated_at" db:"updated_at"`
}
