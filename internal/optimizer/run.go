package optimizer

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ignite/ppc-optimizer/internal/domain"
)

// Options tunes one optimization run.
type Options struct {
	Limits Limits
	// Workers > 1 evaluates rows concurrently. Results are identical to a
	// sequential run.
	Workers int
}

// Run classifies every biddable row, computes its bid decision, aggregates
// placement rows and builds the summary. Rows and profile are read-only.
//
// Bad rows never fail the run; they are returned in Result.Skipped. Run
// fails with a *ConfigError before touching any row, or with a
// *StructuralError when no row is usable.
func Run(rows []domain.Row, p domain.ClientProfile, opts Options) (*domain.Result, error) {
	if opts.Limits == (Limits{}) {
		opts.Limits = DefaultLimits()
	}
	if err := ValidateProfile(p); err != nil {
		return nil, err
	}
	if err := opts.Limits.Validate(); err != nil {
		return nil, err
	}

	var (
		biddable   []domain.Row
		placements []domain.Row
		skipped    []domain.SkippedRow
	)
	for _, r := range rows {
		if !r.Entity.Biddable() && r.Entity != domain.EntityPlacement {
			continue
		}
		if reason := ValidateRow(r); reason != "" {
			skipped = append(skipped, domain.SkippedRow{ID: r.ID, Line: r.Line, Reason: reason})
			continue
		}
		if r.Entity == domain.EntityPlacement {
			placements = append(placements, r)
		} else {
			biddable = append(biddable, r)
		}
	}

	if len(biddable) == 0 && len(placements) == 0 {
		serr := &StructuralError{TotalRows: len(rows)}
		for _, s := range skipped {
			serr.Skipped = append(serr.Skipped, SkipReason{RowID: s.ID, Line: s.Line, Reason: s.Reason})
		}
		return nil, serr
	}

	annotated := evaluate(biddable, p, opts)

	aggs := AggregatePlacements(placements)
	for i := range aggs {
		a := &aggs[i]
		if a.RPC.Defined {
			a.TargetCPC = domain.DefinedRatio(a.RPC.Value * p.TargetACOS)
		}
		a.Recommendation = RecommendPlacementAdjustment(*a, p.TargetACOS, opts.Limits)
	}

	res := &domain.Result{
		Profile:        p,
		Rows:           annotated,
		Placements:     aggs,
		CampaignTotals: CampaignTotals(aggs, p.TargetACOS),
		Skipped:        skipped,
	}
	res.Summary = Summarize(len(rows), annotated, len(placements), skipped)
	return res, nil
}

// evaluate runs classifier and bid calculator over rows. With more than one
// worker each goroutine owns a disjoint index range of the output slice.
func evaluate(rows []domain.Row, p domain.ClientProfile, opts Options) []domain.AnnotatedRow {
	out := make([]domain.AnnotatedRow, len(rows))
	one := func(i int) {
		c := Classify(rows[i], p)
		d := RecommendBid(rows[i], c, p, opts.Limits)
		out[i] = domain.AnnotatedRow{Row: rows[i], Classification: &c, Decision: &d}
	}

	workers := opts.Workers
	if workers <= 1 || len(rows) < 2 {
		for i := range rows {
			one(i)
		}
		return out
	}
	if workers > len(rows) {
		workers = len(rows)
	}

	chunk := (len(rows) + workers - 1) / workers
	var g errgroup.Group
	for lo := 0; lo < len(rows); lo += chunk {
		lo := lo
		hi := min(lo+chunk, len(rows))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				one(i)
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// ValidateRow returns why a row cannot be used, or "" when it can.
func ValidateRow(r domain.Row) string {
	if len(r.Missing) > 0 {
		names := make([]string, len(r.Missing))
		for i, f := range r.Missing {
			names[i] = string(f)
		}
		return "missing required field: " + strings.Join(names, ", ")
	}
	if strings.TrimSpace(r.ID) == "" {
		return "missing required field: " + string(domain.FieldID)
	}
	for _, v := range []struct {
		field domain.Field
		value float64
	}{
		{domain.FieldClicks, float64(r.Clicks)},
		{domain.FieldOrders, float64(r.Orders)},
		{domain.FieldSpend, r.Spend},
		{domain.FieldSales, r.Sales},
		{domain.FieldCurrentBid, r.CurrentBid},
	} {
		if math.IsNaN(v.value) || math.IsInf(v.value, 0) {
			return fmt.Sprintf("%s is not a number", v.field)
		}
		if v.value < 0 {
			return fmt.Sprintf("%s is negative (%v)", v.field, v.value)
		}
	}
	if r.Orders > r.Clicks {
		return fmt.Sprintf("orders (%d) exceed clicks (%d)", r.Orders, r.Clicks)
	}
	return ""
}
