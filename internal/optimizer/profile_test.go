package optimizer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/ppc-optimizer/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func TestResolveProfile_Defaults(t *testing.T) {
	tests := []struct {
		strategy domain.Strategy
		target   float64
	}{
		{domain.StrategyMarketLeader, 0.08},
		{domain.StrategyLargeInventory, 0.08},
		{domain.StrategyStandard, 0.20},
		{"", 0.20},
	}
	for _, tt := range tests {
		t.Run(string(tt.strategy), func(t *testing.T) {
			p, err := ResolveProfile("acme", tt.strategy, domain.ProfileOverrides{})
			require.NoError(t, err)
			assert.Equal(t, tt.target, p.TargetACOS)
			assert.Equal(t, 0.10, p.MinConversionRate)
			assert.Equal(t, 25, p.MinClicks)
			assert.Equal(t, "acme", p.Name)
		})
	}
}

func TestResolveProfile_OverridesFieldByField(t *testing.T) {
	p, err := ResolveProfile("acme", domain.StrategyMarketLeader, domain.ProfileOverrides{
		MinClicks: ptr(40),
	})
	require.NoError(t, err)
	assert.Equal(t, 0.08, p.TargetACOS)
	assert.Equal(t, 0.10, p.MinConversionRate)
	assert.Equal(t, 40, p.MinClicks)

	p, err = ResolveProfile("acme", domain.StrategyStandard, domain.ProfileOverrides{
		TargetACOS:        ptr(0.12),
		MinConversionRate: ptr(0.0),
	})
	require.NoError(t, err)
	assert.Equal(t, 0.12, p.TargetACOS)
	assert.Equal(t, 0.0, p.MinConversionRate)
	assert.Equal(t, 25, p.MinClicks)

	// The table itself is untouched.
	def, ok := StrategyDefaults(domain.StrategyStandard)
	require.True(t, ok)
	assert.Equal(t, 0.20, def.TargetACOS)
	assert.Equal(t, 0.10, def.MinConversionRate)
}

func TestResolveProfile_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		strategy domain.Strategy
		o        domain.ProfileOverrides
		field    string
	}{
		{"unknown strategy", "aggressive", domain.ProfileOverrides{}, "strategy"},
		{"zero target", domain.StrategyStandard, domain.ProfileOverrides{TargetACOS: ptr(0.0)}, "target_acos"},
		{"target over 100%", domain.StrategyStandard, domain.ProfileOverrides{TargetACOS: ptr(1.2)}, "target_acos"},
		{"conversion over 100%", domain.StrategyStandard, domain.ProfileOverrides{MinConversionRate: ptr(1.5)}, "min_conversion_rate"},
		{"negative clicks", domain.StrategyStandard, domain.ProfileOverrides{MinClicks: ptr(-3)}, "min_clicks"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveProfile("acme", tt.strategy, tt.o)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidProfile))

			var cerr *ConfigError
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, tt.field, cerr.Field)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestLimitsValidate(t *testing.T) {
	require.NoError(t, DefaultLimits().Validate())

	l := DefaultLimits()
	l.FixedDecreasePct = 1
	assert.Error(t, l.Validate())

	l = DefaultLimits()
	l.MinBid = -0.01
	assert.Error(t, l.Validate())
}
