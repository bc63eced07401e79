package optimizer

import (
	"fmt"
	"strings"

	"github.com/ignite/ppc-optimizer/internal/domain"
)

// Classify maps a row to exactly one class. Rules are checked in order and
// the first match wins: pause, then good, then bad.
func Classify(row domain.Row, p domain.ClientProfile) domain.Classification {
	acos := row.ACOS()
	cr := row.ConversionRate()
	c := domain.Classification{
		ACOS:           acos,
		ConversionRate: cr,
		Clicks:         row.Clicks,
		Orders:         row.Orders,
	}

	// 1. Pause: enough clicks to judge, nothing sold.
	if row.Clicks >= p.MinClicks && row.Orders == 0 {
		c.Class = domain.ClassPause
		c.Code = domain.ReasonNoConversions
		c.Reason = fmt.Sprintf("no conversions after %d clicks", row.Clicks)
		return c
	}

	acosOK := acos.Defined && acos.Value <= p.TargetACOS
	crOK := cr.Defined && cr.Value >= p.MinConversionRate

	// 2. Good: both metrics defined and within thresholds.
	if acosOK && crOK {
		c.Class = domain.ClassGood
		c.Code = domain.ReasonWithinTarget
		c.Reason = fmt.Sprintf("ACOS %s within target %s, conversion rate %s at or above %s",
			pct(acos.Value), pct(p.TargetACOS), pct(cr.Value), pct(p.MinConversionRate))
		return c
	}

	// 3. Bad: everything else.
	c.Class = domain.ClassBad
	switch {
	case row.Clicks == 0:
		c.Code = domain.ReasonInsufficientData
		c.Reason = "insufficient data: no clicks yet"
	case !acos.Defined:
		c.Code = domain.ReasonNoSales
		c.Reason = fmt.Sprintf("no sales after %d clicks (ACOS not applicable)", row.Clicks)
		if !crOK {
			c.Reason += fmt.Sprintf("; conversion rate %s below %s", pct(cr.Value), pct(p.MinConversionRate))
		}
	case !acosOK && !crOK:
		c.Code = domain.ReasonACOSAndConversion
		c.Reason = strings.Join([]string{
			fmt.Sprintf("ACOS %s above target %s", pct(acos.Value), pct(p.TargetACOS)),
			fmt.Sprintf("conversion rate %s below %s", pct(cr.Value), pct(p.MinConversionRate)),
		}, "; ")
	case !acosOK:
		c.Code = domain.ReasonACOSAboveTarget
		c.Reason = fmt.Sprintf("ACOS %s above target %s", pct(acos.Value), pct(p.TargetACOS))
	default:
		c.Code = domain.ReasonConversionBelowMin
		c.Reason = fmt.Sprintf("conversion rate %s below %s", pct(cr.Value), pct(p.MinConversionRate))
	}
	return c
}

func pct(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}
