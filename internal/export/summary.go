package export

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/osteele/liquid"

	"github.com/ignite/ppc-optimizer/internal/domain"
)

// DefaultTopChanges limits the bid change table of the summary.
const DefaultTopChanges = 20

const summaryTemplate = `PPC optimization summary{% if client != "" %} for {{ client }}{% endif %}
Source: {{ source }}{% if run_id != "" %} (run {{ run_id }}){% endif %}
Strategy: {{ strategy }}, target ACOS {{ target_acos | pct }}, min conversion rate {{ min_cr | pct }}, min clicks {{ min_clicks }}

Rows: {{ s.total_rows }} total, {{ s.classified }} classified, {{ s.placement_rows }} placement, {{ s.skipped }} skipped
Classification: {{ s.good }} good, {{ s.bad }} bad ({{ s.insufficient_data }} with insufficient data), {{ s.pause }} pause candidates
Bids: {{ s.increases }} increases (avg {{ s.avg_increase_pct | pct }}), {{ s.decreases }} decreases (avg {{ s.avg_decrease_pct | pct }}), {{ s.no_change }} unchanged, total delta {{ s.total_bid_delta | signed }}

Estimated impact
  Paused spend: {{ impact.paused_spend | money }}
  Cost saving: {{ impact.cost_saving | money }}
  ACOS: {{ impact.current_acos | pct }} -> {{ impact.projected_acos | pct }}
{% if changes.size > 0 %}
Top bid changes
{% for c in changes %}  {{ c.label }} [{{ c.campaign }}]: {{ c.current_bid | money }} -> {{ c.new_bid | money }} ({{ c.change_pct | signed_pct }}) {{ c.reason }}
{% endfor %}{% endif %}{% if pauses.size > 0 %}
Pause candidates
{% for p in pauses %}  {{ p.label }} [{{ p.campaign }}]: {{ p.clicks }} clicks, {{ p.spend | money }} spend
{% endfor %}{% endif %}{% if placements.size > 0 %}
Placements
{% for p in placements %}  {{ p.campaign }} / {{ p.placement }}: ACOS {{ p.acos | pct }}, {% if p.ok %}{{ p.current | number }}% -> {{ p.recommended | number }}%{% else %}{{ p.reason }}{% endif %}
{% endfor %}{% endif %}{% if skipped.size > 0 %}
Skipped rows
{% for r in skipped %}  line {{ r.line }} {{ r.id }}: {{ r.reason }}
{% endfor %}{% endif %}`

// SummaryRenderer renders the change summary of a run with Liquid.
type SummaryRenderer struct {
	engine *liquid.Engine
	once   sync.Once
	tpl    *liquid.Template
	err    error
}

// NewSummaryRenderer creates a renderer with the number formatting filters.
func NewSummaryRenderer() *SummaryRenderer {
	engine := liquid.NewEngine()

	// Money: {{ spend | money }}
	engine.RegisterFilter("money", func(value any) string {
		f, ok := toFloat(value)
		if !ok {
			return "n/a"
		}
		return fmt.Sprintf("%.2f", f)
	})

	// Signed money: {{ delta | signed }}
	engine.RegisterFilter("signed", func(value any) string {
		f, ok := toFloat(value)
		if !ok {
			return "n/a"
		}
		return fmt.Sprintf("%+.2f", f)
	})

	// Fraction as percentage: {{ 0.125 | pct }} -> 12.5%
	engine.RegisterFilter("pct", func(value any) string {
		f, ok := toFloat(value)
		if !ok {
			return "n/a"
		}
		return fmt.Sprintf("%.1f%%", f*100)
	})

	// Signed fraction as percentage: {{ -0.2 | signed_pct }} -> -20.0%
	engine.RegisterFilter("signed_pct", func(value any) string {
		f, ok := toFloat(value)
		if !ok {
			return "n/a"
		}
		return fmt.Sprintf("%+.1f%%", f*100)
	})

	// Plain number, one decimal: {{ 12.25 | number }} -> 12.3
	engine.RegisterFilter("number", func(value any) string {
		f, ok := toFloat(value)
		if !ok {
			return "n/a"
		}
		return fmt.Sprintf("%.1f", f)
	})

	return &SummaryRenderer{engine: engine}
}

// Render renders the summary of res listing at most topChanges bid changes.
func (sr *SummaryRenderer) Render(res *domain.Result, topChanges int) (string, error) {
	sr.once.Do(func() {
		sr.tpl, sr.err = sr.engine.ParseString(summaryTemplate)
	})
	if sr.err != nil {
		return "", fmt.Errorf("parse summary template: %w", sr.err)
	}
	out, err := sr.tpl.RenderString(summaryBindings(res, topChanges))
	if err != nil {
		return "", fmt.Errorf("render summary: %w", err)
	}
	return out, nil
}

var defaultRenderer = NewSummaryRenderer()

// RenderSummary renders res with the shared renderer and the default table size.
func RenderSummary(res *domain.Result) (string, error) {
	return defaultRenderer.Render(res, DefaultTopChanges)
}

func summaryBindings(res *domain.Result, topChanges int) liquid.Bindings {
	s := res.Summary
	return liquid.Bindings{
		"client":      firstNonEmpty(res.Profile.Name, res.ClientID),
		"source":      res.SourceFile,
		"run_id":      res.RunID,
		"strategy":    string(res.Profile.Strategy),
		"target_acos": res.Profile.TargetACOS,
		"min_cr":      res.Profile.MinConversionRate,
		"min_clicks":  res.Profile.MinClicks,
		"s": map[string]any{
			"total_rows":        s.TotalRows,
			"classified":        s.Classified,
			"placement_rows":    s.PlacementRows,
			"skipped":           s.Skipped,
			"good":              s.Good,
			"bad":               s.Bad,
			"insufficient_data": s.InsufficientData,
			"pause":             s.Pause,
			"increases":         s.Increases,
			"decreases":         s.Decreases,
			"no_change":         s.NoChange,
			"total_bid_delta":   s.TotalBidDelta,
			"avg_increase_pct":  s.AvgIncreasePct,
			"avg_decrease_pct":  s.AvgDecreasePct,
		},
		"impact": map[string]any{
			"paused_spend":   s.Impact.PausedSpend,
			"cost_saving":    s.Impact.CostSaving,
			"current_acos":   ratio(s.Impact.CurrentACOS),
			"projected_acos": ratio(s.Impact.ProjectedACOS),
		},
		"changes":    topBidChanges(res.Rows, topChanges),
		"pauses":     pauseCandidates(res.Rows),
		"placements": placementLines(res.Placements),
		"skipped":    skippedLines(res.Skipped),
	}
}

// topBidChanges lists changed bids by absolute delta, largest first.
func topBidChanges(rows []domain.AnnotatedRow, limit int) []map[string]any {
	changed := make([]domain.AnnotatedRow, 0, len(rows))
	for _, ar := range rows {
		if ar.Decision != nil && ar.Decision.Changed() {
			changed = append(changed, ar)
		}
	}
	sort.SliceStable(changed, func(i, j int) bool {
		return math.Abs(changed[i].Decision.Delta) > math.Abs(changed[j].Decision.Delta)
	})
	if limit > 0 && len(changed) > limit {
		changed = changed[:limit]
	}

	out := make([]map[string]any, 0, len(changed))
	for _, ar := range changed {
		out = append(out, map[string]any{
			"label":       ar.Row.Label(),
			"campaign":    ar.Row.CampaignName,
			"current_bid": ar.Decision.CurrentBid,
			"new_bid":     ar.Decision.NewBid,
			"change_pct":  ar.Decision.ChangePct,
			"reason":      ar.Decision.Reason,
		})
	}
	return out
}

func pauseCandidates(rows []domain.AnnotatedRow) []map[string]any {
	out := []map[string]any{}
	for _, ar := range rows {
		if ar.Decision == nil || ar.Decision.Action != domain.BidPause {
			continue
		}
		out = append(out, map[string]any{
			"label":    ar.Row.Label(),
			"campaign": ar.Row.CampaignName,
			"clicks":   ar.Row.Clicks,
			"spend":    ar.Row.Spend,
		})
	}
	return out
}

func placementLines(aggs []domain.PlacementAggregate) []map[string]any {
	out := make([]map[string]any, 0, len(aggs))
	for _, a := range aggs {
		out = append(out, map[string]any{
			"campaign":    a.CampaignName,
			"placement":   string(a.Placement),
			"acos":        ratio(a.ACOS),
			"ok":          a.Recommendation.Status == domain.PlacementOK,
			"current":     a.CurrentAdjustmentPct,
			"recommended": a.Recommendation.RecommendedPct,
			"reason":      a.Recommendation.Reason,
		})
	}
	return out
}

func skippedLines(skipped []domain.SkippedRow) []map[string]any {
	out := make([]map[string]any, 0, len(skipped))
	for _, s := range skipped {
		out = append(out, map[string]any{"line": s.Line, "id": s.ID, "reason": s.Reason})
	}
	return out
}

// ratio binds an undefined ratio as "n/a".
func ratio(r domain.Ratio) any {
	if !r.Defined {
		return "n/a"
	}
	return r.Value
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
