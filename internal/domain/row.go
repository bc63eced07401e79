package domain

import (
	"encoding/json"
	"strings"
)

// Entity enumerates the bulk-sheet record types the optimizer understands.
type Entity string

const (
	EntityKeyword          Entity = "keyword"
	EntityProductTargeting Entity = "product_targeting"
	EntityPlacement        Entity = "placement"
	EntityOther            Entity = "other"
)

// Biddable returns true for entities that carry their own bid.
func (e Entity) Biddable() bool {
	return e == EntityKeyword || e == EntityProductTargeting
}

// Placement identifies a bid context eligible for its own multiplier.
type Placement string

const (
	PlacementNone         Placement = ""
	PlacementTopOfSearch  Placement = "top_of_search"
	PlacementProductPages Placement = "product_pages"
	PlacementRestOfSearch Placement = "rest_of_search"
)

// AllPlacements returns the three placements in display order.
func AllPlacements() []Placement {
	return []Placement{PlacementTopOfSearch, PlacementProductPages, PlacementRestOfSearch}
}

// Field names a required input attribute of a Row. Used in skip reasons.
type Field string

const (
	FieldID         Field = "id"
	FieldCampaign   Field = "campaign"
	FieldClicks     Field = "clicks"
	FieldOrders     Field = "orders"
	FieldSpend      Field = "spend"
	FieldSales      Field = "sales"
	FieldCurrentBid Field = "current_bid"
)

// Ratio is a derived metric that may be undefined (division by zero).
// Undefined ratios serialize as null, never as zero.
type Ratio struct {
	Value   float64
	Defined bool
}

// DefinedRatio wraps a computed value.
func DefinedRatio(v float64) Ratio { return Ratio{Value: v, Defined: true} }

// Undefined is the "not applicable" ratio.
var Undefined = Ratio{}

// Divide returns num/den, or Undefined when den is zero.
func Divide(num, den float64) Ratio {
	if den == 0 {
		return Undefined
	}
	return DefinedRatio(num / den)
}

func (r Ratio) MarshalJSON() ([]byte, error) {
	if !r.Defined {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

func (r *Ratio) UnmarshalJSON(data []byte) error {
	if strings.TrimSpace(string(data)) == "null" {
		*r = Undefined
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = DefinedRatio(v)
	return nil
}

// Row is one normalized keyword, targeting or placement record from a bulk report.
// A Row is never mutated after it enters an optimization run; decisions are
// attached through AnnotatedRow.
type Row struct {
	ID            string    `json:"id"`
	Line          int       `json:"line"`
	Entity        Entity    `json:"entity"`
	CampaignID    string    `json:"campaign_id"`
	CampaignName  string    `json:"campaign_name"`
	AdGroupName   string    `json:"ad_group_name,omitempty"`
	Keyword       string    `json:"keyword,omitempty"`
	TargetingType string    `json:"targeting_type,omitempty"`
	MatchType     string    `json:"match_type,omitempty"`
	Placement     Placement `json:"placement,omitempty"`
	State         string    `json:"state,omitempty"`

	CurrentBid           float64 `json:"current_bid"`
	CurrentAdjustmentPct float64 `json:"current_adjustment_pct,omitempty"`
	Impressions          int     `json:"impressions"`
	Clicks               int     `json:"clicks"`
	Orders               int     `json:"orders"`
	Spend                float64 `json:"spend"`
	Sales                float64 `json:"sales"`

	// Missing lists required fields the parser could not read. Rows with
	// missing fields are skipped by the optimizer, never guessed.
	Missing []Field `json:"missing,omitempty"`
}

// ACOS is spend / sales.
func (r Row) ACOS() Ratio { return Divide(r.Spend, r.Sales) }

// ConversionRate is orders / clicks.
func (r Row) ConversionRate() Ratio { return Divide(float64(r.Orders), float64(r.Clicks)) }

// CPC is spend / clicks.
func (r Row) CPC() Ratio { return Divide(r.Spend, float64(r.Clicks)) }

// RPC is sales / clicks.
func (r Row) RPC() Ratio { return Divide(r.Sales, float64(r.Clicks)) }

// CampaignKey groups rows by campaign, preferring the ID over the name.
func (r Row) CampaignKey() string {
	if r.CampaignID != "" {
		return r.CampaignID
	}
	return r.CampaignName
}

// Label is a human-readable identifier for logs and summaries.
func (r Row) Label() string {
	switch {
	case r.Keyword != "":
		return r.Keyword
	case r.Placement != PlacementNone:
		return string(r.Placement)
	default:
		return r.ID
	}
}
