package optimizer

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ignite/ppc-optimizer/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// BaseBid is the bid a decision is computed from: the row's current bid, or
// its CPC when the report carries no bid (ad-group default bid keywords).
func BaseBid(row domain.Row) float64 {
	if row.CurrentBid > 0 {
		return row.CurrentBid
	}
	if cpc := row.CPC(); cpc.Defined {
		return cpc.Value
	}
	return 0
}

// RecommendBid turns a classification into a bid decision. The new bid is
// rounded to cents and always lies in [MinBid, base*(1+MaxIncreasePct)]; when
// MinBid exceeds the cap the floor wins.
func RecommendBid(row domain.Row, c domain.Classification, p domain.ClientProfile, l Limits) domain.BidDecision {
	base := BaseBid(row)
	d := domain.BidDecision{Action: domain.BidNoChange, CurrentBid: base, NewBid: base}

	if c.Class == domain.ClassPause {
		d.Action = domain.BidPause
		d.Reason = c.Reason
		return d
	}
	if base <= 0 {
		d.Reason = "no current bid or CPC to adjust"
		return d
	}

	var factor float64
	switch {
	case c.Class == domain.ClassGood:
		inc := l.MaxIncreasePct
		if c.ACOS.Value > 0 {
			inc = min(p.TargetACOS/c.ACOS.Value-1, l.MaxIncreasePct)
		}
		factor = 1 + inc
		d.Reason = fmt.Sprintf("increase toward target ACOS %s", pct(p.TargetACOS))
	case c.Code == domain.ReasonInsufficientData:
		d.Reason = c.Reason
		return d
	case c.ACOS.Defined && c.ACOS.Value > p.TargetACOS:
		factor = p.TargetACOS / c.ACOS.Value
		d.Reason = fmt.Sprintf("reduce to target ACOS %s (current %s)", pct(p.TargetACOS), pct(c.ACOS.Value))
	default:
		factor = 1 - l.FixedDecreasePct
		d.Reason = fmt.Sprintf("conservative %s decrease: %s", pct(l.FixedDecreasePct), c.Reason)
	}

	baseD := decimal.NewFromFloat(base)
	upper := baseD.Mul(decimal.NewFromFloat(1 + l.MaxIncreasePct)).RoundFloor(2)
	floor := decimal.NewFromFloat(l.MinBid).RoundCeil(2)

	next := baseD.Mul(decimal.NewFromFloat(factor)).Round(2)
	if next.GreaterThan(upper) {
		next = upper
	}
	if next.LessThan(floor) {
		next = floor
	}

	delta := next.Sub(baseD)
	change := delta.Div(baseD)
	if delta.IsZero() || change.Abs().LessThan(decimal.NewFromFloat(l.MinChangePct)) {
		d.Reason = fmt.Sprintf("change %s below %s threshold", change.Mul(hundred).StringFixed(1)+"%", pct(l.MinChangePct))
		return d
	}

	d.NewBid = next.InexactFloat64()
	d.Delta = delta.Round(2).InexactFloat64()
	d.ChangePct = change.Round(4).InexactFloat64()
	if delta.IsPositive() {
		d.Action = domain.BidIncrease
	} else {
		d.Action = domain.BidDecrease
	}
	if next.Equal(floor) && c.Class == domain.ClassBad {
		d.Reason += fmt.Sprintf(" (floored at minimum bid %s)", floor.StringFixed(2))
	}
	return d
}
