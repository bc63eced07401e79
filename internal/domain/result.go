package domain

import "time"

// Class is the single tagged outcome of keyword classification.
type Class string

const (
	ClassGood  Class = "good"
	ClassBad   Class = "bad"
	ClassPause Class = "pause_candidate"
)

// ReasonCode distinguishes why a row received its class.
type ReasonCode string

const (
	ReasonNoConversions      ReasonCode = "pause_no_conversions"
	ReasonWithinTarget       ReasonCode = "good_within_target"
	ReasonACOSAboveTarget    ReasonCode = "bad_acos_above_target"
	ReasonConversionBelowMin ReasonCode = "bad_conversion_below_min"
	ReasonACOSAndConversion  ReasonCode = "bad_acos_and_conversion"
	ReasonNoSales            ReasonCode = "bad_no_sales"
	ReasonInsufficientData   ReasonCode = "bad_insufficient_data"
)

// Classification is attached to a biddable Row.
type Classification struct {
	Class          Class      `json:"class"`
	Code           ReasonCode `json:"code"`
	Reason         string     `json:"reason"`
	ACOS           Ratio      `json:"acos"`
	ConversionRate Ratio      `json:"conversion_rate"`
	Clicks         int        `json:"clicks"`
	Orders         int        `json:"orders"`
}

// InsufficientData returns true for the zero-click variant of bad.
func (c Classification) InsufficientData() bool {
	return c.Code == ReasonInsufficientData
}

// BidAction is the kind of bid decision.
type BidAction string

const (
	BidIncrease BidAction = "increase"
	BidDecrease BidAction = "decrease"
	BidPause    BidAction = "pause"
	BidNoChange BidAction = "no_change"
)

// BidDecision is attached to a biddable Row. NewBid is always a valid,
// non-negative bid; for pause and no-change it equals CurrentBid.
type BidDecision struct {
	Action     BidAction `json:"action"`
	CurrentBid float64   `json:"current_bid"`
	NewBid     float64   `json:"new_bid"`
	Delta      float64   `json:"delta"`
	ChangePct  float64   `json:"change_pct"`
	Reason     string    `json:"reason"`
}

// Changed returns true when the decision alters the bid amount.
func (d BidDecision) Changed() bool {
	return d.Action == BidIncrease || d.Action == BidDecrease
}

// AnnotatedRow is an input Row with its decisions attached.
type AnnotatedRow struct {
	Row            Row             `json:"row"`
	Classification *Classification `json:"classification,omitempty"`
	Decision       *BidDecision    `json:"decision,omitempty"`
}

// PlacementStatus tells whether a placement recommendation could be computed.
type PlacementStatus string

const (
	PlacementOK               PlacementStatus = "ok"
	PlacementInsufficientData PlacementStatus = "insufficient_data"
)

// PlacementRecommendation is the outcome of the placement calculator.
// RecommendedPct is only meaningful when Status is PlacementOK.
type PlacementRecommendation struct {
	Status         PlacementStatus `json:"status"`
	RecommendedPct float64         `json:"recommended_pct"`
	ChangePct      float64         `json:"change_pct"`
	Reason         string          `json:"reason"`
}

// PlacementAggregate sums all rows of one (campaign, placement) pair.
type PlacementAggregate struct {
	CampaignID           string    `json:"campaign_id"`
	CampaignName         string    `json:"campaign_name"`
	Placement            Placement `json:"placement"`
	Rows                 int       `json:"rows"`
	Clicks               int       `json:"clicks"`
	Orders               int       `json:"orders"`
	Spend                float64   `json:"spend"`
	Sales                float64   `json:"sales"`
	CurrentAdjustmentPct float64   `json:"current_adjustment_pct"`

	ACOS      Ratio `json:"acos"`
	RPC       Ratio `json:"rpc"`
	CPC       Ratio `json:"cpc"`
	TargetCPC Ratio `json:"target_cpc"`

	Recommendation PlacementRecommendation `json:"recommendation"`
}

// CampaignPlacementTotals is the per-campaign totals line of the placement report.
type CampaignPlacementTotals struct {
	CampaignID   string  `json:"campaign_id"`
	CampaignName string  `json:"campaign_name"`
	Clicks       int     `json:"clicks"`
	Spend        float64 `json:"spend"`
	Sales        float64 `json:"sales"`
	ACOS         Ratio   `json:"acos"`
	RPC          Ratio   `json:"rpc"`
	TargetCPC    Ratio   `json:"target_cpc"`
	MinRPC       Ratio   `json:"min_rpc"`
	BaseCPC      Ratio   `json:"base_cpc"`
}

// SkippedRow records a row excluded for a data-quality problem.
type SkippedRow struct {
	ID     string `json:"id"`
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// CampaignBreakdown is the per-campaign part of the Summary.
type CampaignBreakdown struct {
	CampaignID    string  `json:"campaign_id"`
	CampaignName  string  `json:"campaign_name"`
	Good          int     `json:"good"`
	Bad           int     `json:"bad"`
	Pause         int     `json:"pause"`
	Increases     int     `json:"increases"`
	Decreases     int     `json:"decreases"`
	TotalBidDelta float64 `json:"total_bid_delta"`
	Spend         float64 `json:"spend"`
	Sales         float64 `json:"sales"`
}

// Impact estimates the effect of the proposed changes on spend and ACOS.
type Impact struct {
	PausedSpend      float64 `json:"paused_spend"`
	CostSaving       float64 `json:"cost_saving"`
	CurrentACOS      Ratio   `json:"current_acos"`
	ProjectedACOS    Ratio   `json:"projected_acos"`
	ACOSReductionPts float64 `json:"acos_reduction_pts"`
}

// Summary holds aggregate counts and totals for one run.
type Summary struct {
	TotalRows        int                 `json:"total_rows"`
	Classified       int                 `json:"classified"`
	PlacementRows    int                 `json:"placement_rows"`
	Skipped          int                 `json:"skipped"`
	Good             int                 `json:"good"`
	Bad              int                 `json:"bad"`
	Pause            int                 `json:"pause"`
	InsufficientData int                 `json:"insufficient_data"`
	Increases        int                 `json:"increases"`
	Decreases        int                 `json:"decreases"`
	NoChange         int                 `json:"no_change"`
	TotalBidDelta    float64             `json:"total_bid_delta"`
	AvgIncreasePct   float64             `json:"avg_increase_pct"`
	AvgDecreasePct   float64             `json:"avg_decrease_pct"`
	Campaigns        []CampaignBreakdown `json:"campaigns"`
	Impact           Impact              `json:"impact"`
}

// Result is everything one optimization run produces.
type Result struct {
	RunID          string                    `json:"run_id,omitempty"`
	ClientID       string                    `json:"client_id,omitempty"`
	SourceFile     string                    `json:"source_file,omitempty"`
	Profile        ClientProfile             `json:"profile"`
	Rows           []AnnotatedRow            `json:"rows"`
	Placements     []PlacementAggregate      `json:"placements"`
	CampaignTotals []CampaignPlacementTotals `json:"campaign_totals"`
	Skipped        []SkippedRow              `json:"skipped"`
	Summary        Summary                   `json:"summary"`
	CreatedAt      time.Time                 `json:"created_at"`
}
