package optimizer

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/ignite/ppc-optimizer/internal/domain"
)

type placementKey struct {
	campaign  string
	placement domain.Placement
}

// AggregatePlacements sums placement rows per (campaign, placement) pair.
// Output is ordered by campaign name, then display order of the placement.
func AggregatePlacements(rows []domain.Row) []domain.PlacementAggregate {
	index := make(map[placementKey]int)
	var aggs []domain.PlacementAggregate
	for _, r := range rows {
		if r.Entity != domain.EntityPlacement || r.Placement == domain.PlacementNone {
			continue
		}
		k := placementKey{campaign: r.CampaignKey(), placement: r.Placement}
		i, ok := index[k]
		if !ok {
			i = len(aggs)
			index[k] = i
			aggs = append(aggs, domain.PlacementAggregate{
				CampaignID:           r.CampaignID,
				CampaignName:         r.CampaignName,
				Placement:            r.Placement,
				CurrentAdjustmentPct: r.CurrentAdjustmentPct,
			})
		}
		a := &aggs[i]
		a.Rows++
		a.Clicks += r.Clicks
		a.Orders += r.Orders
		a.Spend += r.Spend
		a.Sales += r.Sales
		if a.CampaignName == "" {
			a.CampaignName = r.CampaignName
		}
	}

	order := make(map[domain.Placement]int)
	for i, p := range domain.AllPlacements() {
		order[p] = i
	}
	sort.SliceStable(aggs, func(i, j int) bool {
		if aggs[i].CampaignName != aggs[j].CampaignName {
			return aggs[i].CampaignName < aggs[j].CampaignName
		}
		if aggs[i].CampaignID != aggs[j].CampaignID {
			return aggs[i].CampaignID < aggs[j].CampaignID
		}
		return order[aggs[i].Placement] < order[aggs[j].Placement]
	})

	for i := range aggs {
		a := &aggs[i]
		a.ACOS = domain.Divide(a.Spend, a.Sales)
		a.RPC = domain.Divide(a.Sales, float64(a.Clicks))
		a.CPC = domain.Divide(a.Spend, float64(a.Clicks))
	}
	return aggs
}

// RecommendPlacementAdjustment maps the ratio of actual to target ACOS onto
// a placement percentage. The current multiplier is scaled by target/ACOS and
// the result is clamped to [PlacementMinPct, PlacementMaxPct]. An aggregate
// without clicks gets no percentage at all.
func RecommendPlacementAdjustment(a domain.PlacementAggregate, targetACOS float64, l Limits) domain.PlacementRecommendation {
	if a.Clicks == 0 {
		return domain.PlacementRecommendation{
			Status: domain.PlacementInsufficientData,
			Reason: "insufficient data: no clicks in this placement",
		}
	}

	rec := domain.PlacementRecommendation{Status: domain.PlacementOK}
	acos := domain.Divide(a.Spend, a.Sales)
	switch {
	case !acos.Defined:
		rec.RecommendedPct = l.PlacementMinPct
		rec.Reason = fmt.Sprintf("no sales after %d clicks", a.Clicks)
	case acos.Value == 0:
		rec.RecommendedPct = l.PlacementMaxPct
		rec.Reason = "sales without spend"
	default:
		effective := math.Max(1+a.CurrentAdjustmentPct/100, 0)
		desired := (effective*targetACOS/acos.Value - 1) * 100
		rec.RecommendedPct = clamp(desired, l.PlacementMinPct, l.PlacementMaxPct)
		rec.Reason = fmt.Sprintf("ACOS %s vs target %s", pct(acos.Value), pct(targetACOS))
	}
	rec.RecommendedPct = decimal.NewFromFloat(rec.RecommendedPct).Round(1).InexactFloat64()
	rec.ChangePct = decimal.NewFromFloat(rec.RecommendedPct - a.CurrentAdjustmentPct).Round(1).InexactFloat64()
	return rec
}

// CampaignTotals sums placement aggregates per campaign. BaseCPC is the
// lowest placement RPC times the target ACOS.
func CampaignTotals(aggs []domain.PlacementAggregate, targetACOS float64) []domain.CampaignPlacementTotals {
	var out []domain.CampaignPlacementTotals
	index := make(map[string]int)
	minRPC := make(map[string]float64)
	for _, a := range aggs {
		k := a.CampaignID
		if k == "" {
			k = a.CampaignName
		}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, domain.CampaignPlacementTotals{CampaignID: a.CampaignID, CampaignName: a.CampaignName})
		}
		t := &out[i]
		t.Clicks += a.Clicks
		t.Spend += a.Spend
		t.Sales += a.Sales
		if a.RPC.Defined {
			if cur, seen := minRPC[k]; !seen || a.RPC.Value < cur {
				minRPC[k] = a.RPC.Value
			}
		}
	}
	for i := range out {
		t := &out[i]
		k := t.CampaignID
		if k == "" {
			k = t.CampaignName
		}
		t.ACOS = domain.Divide(t.Spend, t.Sales)
		t.RPC = domain.Divide(t.Sales, float64(t.Clicks))
		if t.RPC.Defined {
			t.TargetCPC = domain.DefinedRatio(t.RPC.Value * targetACOS)
		}
		if v, ok := minRPC[k]; ok {
			t.MinRPC = domain.DefinedRatio(v)
			t.BaseCPC = domain.DefinedRatio(v * targetACOS)
		}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
