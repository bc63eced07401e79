package optimizer

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/ignite/ppc-optimizer/internal/domain"
)

// Summarize builds the aggregate counts of a run. Only sums and counts are
// used, so the order of rows does not matter apart from the final sort.
func Summarize(totalRows int, rows []domain.AnnotatedRow, placementRows int, skipped []domain.SkippedRow) domain.Summary {
	s := domain.Summary{
		TotalRows:     totalRows,
		Classified:    len(rows),
		PlacementRows: placementRows,
		Skipped:       len(skipped),
	}

	var incSum, decSum float64
	delta := decimal.Zero
	byCampaign := make(map[string]*domain.CampaignBreakdown)
	for _, ar := range rows {
		key := ar.Row.CampaignKey()
		cb, ok := byCampaign[key]
		if !ok {
			cb = &domain.CampaignBreakdown{CampaignID: ar.Row.CampaignID, CampaignName: ar.Row.CampaignName}
			byCampaign[key] = cb
		}
		cb.Spend += ar.Row.Spend
		cb.Sales += ar.Row.Sales

		if c := ar.Classification; c != nil {
			switch c.Class {
			case domain.ClassGood:
				s.Good++
				cb.Good++
			case domain.ClassBad:
				s.Bad++
				cb.Bad++
				if c.InsufficientData() {
					s.InsufficientData++
				}
			case domain.ClassPause:
				s.Pause++
				cb.Pause++
			}
		}

		d := ar.Decision
		if d == nil {
			continue
		}
		switch d.Action {
		case domain.BidIncrease:
			s.Increases++
			cb.Increases++
			incSum += d.ChangePct
		case domain.BidDecrease:
			s.Decreases++
			cb.Decreases++
			decSum += d.ChangePct
		case domain.BidNoChange:
			s.NoChange++
		}
		if d.Changed() {
			dd := decimal.NewFromFloat(d.Delta)
			delta = delta.Add(dd)
			cb.TotalBidDelta = decimal.NewFromFloat(cb.TotalBidDelta).Add(dd).Round(2).InexactFloat64()
		}
	}

	s.TotalBidDelta = delta.Round(2).InexactFloat64()
	if s.Increases > 0 {
		s.AvgIncreasePct = round4(incSum / float64(s.Increases))
	}
	if s.Decreases > 0 {
		s.AvgDecreasePct = round4(decSum / float64(s.Decreases))
	}

	s.Campaigns = make([]domain.CampaignBreakdown, 0, len(byCampaign))
	for _, cb := range byCampaign {
		s.Campaigns = append(s.Campaigns, *cb)
	}
	sort.Slice(s.Campaigns, func(i, j int) bool {
		if s.Campaigns[i].CampaignName != s.Campaigns[j].CampaignName {
			return s.Campaigns[i].CampaignName < s.Campaigns[j].CampaignName
		}
		return s.Campaigns[i].CampaignID < s.Campaigns[j].CampaignID
	})

	s.Impact = EstimateImpact(rows)
	return s
}

// EstimateImpact projects spend and ACOS after the proposed changes. Paused
// rows lose their spend and sales; a bid change scales the row's spend by the
// same percentage while sales are assumed unchanged. Only decreases count as
// savings.
func EstimateImpact(rows []domain.AnnotatedRow) domain.Impact {
	var spend, sales, pausedSpend, pausedSales, bidImpact, bidSavings float64
	for _, ar := range rows {
		spend += ar.Row.Spend
		sales += ar.Row.Sales
		d := ar.Decision
		if d == nil {
			continue
		}
		switch d.Action {
		case domain.BidPause:
			pausedSpend += ar.Row.Spend
			pausedSales += ar.Row.Sales
		case domain.BidIncrease, domain.BidDecrease:
			bidImpact += ar.Row.Spend * d.ChangePct
			if d.ChangePct < 0 {
				bidSavings -= ar.Row.Spend * d.ChangePct
			}
		}
	}

	im := domain.Impact{
		PausedSpend: round2(pausedSpend),
		CostSaving:  round2(pausedSpend + bidSavings),
		CurrentACOS: domain.Divide(spend, sales),
	}
	newSpend := spend - pausedSpend + bidImpact
	newSales := sales - pausedSales
	if newSpend >= 0 && newSales > 0 {
		im.ProjectedACOS = domain.DefinedRatio(newSpend / newSales)
	}
	if im.CurrentACOS.Defined && im.ProjectedACOS.Defined {
		im.ACOSReductionPts = decimal.NewFromFloat((im.CurrentACOS.Value - im.ProjectedACOS.Value) * 100).Round(2).InexactFloat64()
	}
	return im
}

func round2(f float64) float64 { return decimal.NewFromFloat(f).Round(2).InexactFloat64() }

func round4(f float64) float64 { return decimal.NewFromFloat(f).Round(4).InexactFloat64() }
