package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ignite/ppc-optimizer/internal/domain"
)

func annotated(row domain.Row, action domain.BidAction, changePct float64) domain.AnnotatedRow {
	return domain.AnnotatedRow{
		Row:      row,
		Decision: &domain.BidDecision{Action: action, ChangePct: changePct},
	}
}

func TestEstimateImpact(t *testing.T) {
	rows := []domain.AnnotatedRow{
		annotated(kw(30, 0, 50, 0, 1), domain.BidPause, 0),
		annotated(kw(100, 10, 40, 100, 1), domain.BidDecrease, -0.5),
	}
	im := EstimateImpact(rows)

	assert.InDelta(t, 50.0, im.PausedSpend, 1e-9)
	assert.InDelta(t, 70.0, im.CostSaving, 1e-9)
	assert.InDelta(t, 0.9, im.CurrentACOS.Value, 1e-9)
	assert.InDelta(t, 0.2, im.ProjectedACOS.Value, 1e-9)
	assert.InDelta(t, 70.0, im.ACOSReductionPts, 1e-9)
}

func TestEstimateImpact_NoSales(t *testing.T) {
	im := EstimateImpact([]domain.AnnotatedRow{annotated(kw(30, 0, 50, 0, 1), domain.BidPause, 0)})

	assert.False(t, im.CurrentACOS.Defined)
	assert.False(t, im.ProjectedACOS.Defined)
	assert.Zero(t, im.ACOSReductionPts)
	assert.InDelta(t, 50.0, im.CostSaving, 1e-9)
}

func TestSummarize_Averages(t *testing.T) {
	rows := []domain.AnnotatedRow{
		annotated(kw(1, 1, 1, 1, 1), domain.BidIncrease, 0.30),
		annotated(kw(1, 1, 1, 1, 1), domain.BidIncrease, 0.10),
		annotated(kw(1, 1, 1, 1, 1), domain.BidDecrease, -0.15),
	}
	s := Summarize(3, rows, 0, nil)

	assert.Equal(t, 2, s.Increases)
	assert.Equal(t, 1, s.Decreases)
	assert.InDelta(t, 0.20, s.AvgIncreasePct, 1e-9)
	assert.InDelta(t, -0.15, s.AvgDecreasePct, 1e-9)
	assert.Len(t, s.Campaigns, 1)
}
