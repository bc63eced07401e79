package optimizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/ppc-optimizer/internal/domain"
)

func testProfile(target, minCR float64, minClicks int) domain.ClientProfile {
	return domain.ClientProfile{
		Name:     "test",
		Strategy: domain.StrategyStandard,
		Thresholds: domain.Thresholds{
			TargetACOS:        target,
			MinConversionRate: minCR,
			MinClicks:         minClicks,
		},
	}
}

func kw(clicks, orders int, spend, sales, bid float64) domain.Row {
	return domain.Row{
		ID:           "kw-1",
		Entity:       domain.EntityKeyword,
		CampaignID:   "c-1",
		CampaignName: "Brand",
		Keyword:      "running shoes",
		CurrentBid:   bid,
		Clicks:       clicks,
		Orders:       orders,
		Spend:        spend,
		Sales:        sales,
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		row     domain.Row
		profile domain.ClientProfile
		class   domain.Class
		code    domain.ReasonCode
	}{
		{"no conversions after min clicks", kw(30, 0, 50, 0, 1), testProfile(0.2, 0.1, 25), domain.ClassPause, domain.ReasonNoConversions},
		{"pause ignores acos", kw(40, 0, 1, 100, 1), testProfile(0.2, 0.1, 25), domain.ClassPause, domain.ReasonNoConversions},
		{"within target", kw(100, 10, 20, 300, 1), testProfile(0.1, 0.05, 25), domain.ClassGood, domain.ReasonWithinTarget},
		{"acos exactly at target", kw(100, 10, 20, 100, 1), testProfile(0.2, 0.1, 25), domain.ClassGood, domain.ReasonWithinTarget},
		{"acos and conversion fail", kw(50, 1, 40, 50, 1), testProfile(0.2, 0.05, 25), domain.ClassBad, domain.ReasonACOSAndConversion},
		{"acos above target", kw(100, 10, 40, 100, 1), testProfile(0.2, 0.05, 25), domain.ClassBad, domain.ReasonACOSAboveTarget},
		{"conversion below min", kw(100, 2, 5, 100, 1), testProfile(0.2, 0.05, 25), domain.ClassBad, domain.ReasonConversionBelowMin},
		{"no sales below min clicks", kw(10, 0, 5, 0, 1), testProfile(0.2, 0.05, 25), domain.ClassBad, domain.ReasonNoSales},
		{"zero clicks", kw(0, 0, 0, 0, 1), testProfile(0.2, 0.05, 25), domain.ClassBad, domain.ReasonInsufficientData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.row, tt.profile)
			assert.Equal(t, tt.class, got.Class)
			assert.Equal(t, tt.code, got.Code)
			assert.NotEmpty(t, got.Reason)
		})
	}
}

func TestClassify_PauseReason(t *testing.T) {
	got := Classify(kw(30, 0, 50, 0, 1), testProfile(0.2, 0.1, 25))
	assert.Equal(t, "no conversions after 30 clicks", got.Reason)
	assert.False(t, got.ACOS.Defined)
	assert.True(t, got.ConversionRate.Defined)
	assert.Equal(t, 0.0, got.ConversionRate.Value)
}

func TestClassify_GoodCarriesMetrics(t *testing.T) {
	got := Classify(kw(100, 10, 20, 300, 1), testProfile(0.1, 0.05, 25))
	require.Equal(t, domain.ClassGood, got.Class)
	assert.InDelta(t, 0.0667, got.ACOS.Value, 0.0001)
	assert.InDelta(t, 0.10, got.ConversionRate.Value, 1e-9)
	assert.Equal(t, 100, got.Clicks)
	assert.Equal(t, 10, got.Orders)
}

func TestClassify_InsufficientDataIsDistinguishable(t *testing.T) {
	p := testProfile(0.2, 0.05, 25)
	insufficient := Classify(kw(0, 0, 0, 0, 1), p)
	trueBad := Classify(kw(100, 10, 40, 100, 1), p)

	assert.Equal(t, domain.ClassBad, insufficient.Class)
	assert.Equal(t, domain.ClassBad, trueBad.Class)
	assert.True(t, insufficient.InsufficientData())
	assert.False(t, trueBad.InsufficientData())
	assert.True(t, strings.HasPrefix(insufficient.Reason, "insufficient data"))
	assert.False(t, strings.HasPrefix(trueBad.Reason, "insufficient data"))
}

func TestClassify_Properties(t *testing.T) {
	profiles := []domain.ClientProfile{
		testProfile(0.08, 0.10, 25),
		testProfile(0.20, 0.10, 25),
		testProfile(0.15, 0.0, 5),
	}
	for _, p := range profiles {
		for clicks := 0; clicks <= 60; clicks += 4 {
			for orders := 0; orders <= clicks && orders <= 12; orders += 3 {
				for _, spend := range []float64{0, 3.5, 20, 75} {
					for _, sales := range []float64{0, 10, 99.9, 400} {
						row := kw(clicks, orders, spend, sales, 0.5)
						got := Classify(row, p)
						again := Classify(row, p)
						require.Equal(t, got, again, "classification must be repeatable")

						acos, cr := row.ACOS(), row.ConversionRate()
						within := acos.Defined && acos.Value <= p.TargetACOS && cr.Defined && cr.Value >= p.MinConversionRate

						if clicks >= p.MinClicks && orders == 0 {
							require.Equal(t, domain.ClassPause, got.Class, "row %+v", row)
							continue
						}
						switch got.Class {
						case domain.ClassGood:
							require.True(t, within, "good row outside thresholds: %+v", row)
						case domain.ClassBad:
							require.False(t, within, "bad row within thresholds: %+v", row)
						default:
							t.Fatalf("unexpected class %s for %+v", got.Class, row)
						}
					}
				}
			}
		}
	}
}
