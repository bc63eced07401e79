package datanorm

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// CanonicalField is a normalized field name used across German and English reports.
type CanonicalField string

const (
	FieldEntity        CanonicalField = "entity"
	FieldOperation     CanonicalField = "operation"
	FieldCampaignID    CanonicalField = "campaign_id"
	FieldCampaignName  CanonicalField = "campaign_name"
	FieldAdGroupID     CanonicalField = "ad_group_id"
	FieldAdGroupName   CanonicalField = "ad_group_name"
	FieldKeywordID     CanonicalField = "keyword_id"
	FieldTargetingID   CanonicalField = "product_targeting_id"
	FieldKeywordText   CanonicalField = "keyword_text"
	FieldTargetingExpr CanonicalField = "product_targeting_expression"
	FieldSearchTerm    CanonicalField = "customer_search_term"
	FieldTargetingType CanonicalField = "targeting_type"
	FieldMatchType     CanonicalField = "match_type"
	FieldState         CanonicalField = "state"
	FieldBid           CanonicalField = "bid"
	FieldPlacement     CanonicalField = "placement"
	FieldPercentage    CanonicalField = "percentage"
	FieldImpressions   CanonicalField = "impressions"
	FieldClicks        CanonicalField = "clicks"
	FieldSpend         CanonicalField = "spend"
	FieldSales         CanonicalField = "sales"
	FieldOrders        CanonicalField = "orders"
	FieldCPC           CanonicalField = "cpc"
)

// columnAliases maps normalized header names to canonical fields.
// When multiple raw headers mean the same thing, they all map here.
var columnAliases = map[string]CanonicalField{
	// Record type
	"entität":      FieldEntity,
	"entity":       FieldEntity,
	"datensatztyp": FieldEntity,
	"record type":  FieldEntity,

	"operation": FieldOperation,
	"vorgang":   FieldOperation,

	// Campaign
	"kampagnen-id":  FieldCampaignID,
	"kampagnen id":  FieldCampaignID,
	"campaign id":   FieldCampaignID,
	"kampagne":      FieldCampaignName,
	"kampagnenname": FieldCampaignName,
	"campaign":      FieldCampaignName,
	"campaign name": FieldCampaignName,

	// Ad group
	"anzeigengruppen-id":  FieldAdGroupID,
	"ad group id":         FieldAdGroupID,
	"anzeigengruppe":      FieldAdGroupName,
	"anzeigengruppenname": FieldAdGroupName,
	"ad group":            FieldAdGroupName,
	"ad group name":       FieldAdGroupName,

	// Targets
	"keyword-id":                     FieldKeywordID,
	"keyword id":                     FieldKeywordID,
	"produkt-targeting-id":           FieldTargetingID,
	"product targeting id":           FieldTargetingID,
	"keyword-text":                   FieldKeywordText,
	"keyword text":                   FieldKeywordText,
	"keyword":                        FieldKeywordText,
	"targeting":                      FieldKeywordText,
	"ausdruck für produkt-targeting": FieldTargetingExpr,
	"product targeting expression":   FieldTargetingExpr,
	"suchbegriff":                    FieldSearchTerm,
	"suchbegriff eines kunden":       FieldSearchTerm,
	"customer search term":           FieldSearchTerm,
	"targeting-typ":                  FieldTargetingType,
	"targeting type":                 FieldTargetingType,
	"übereinstimmungstyp":            FieldMatchType,
	"match type":                     FieldMatchType,
	"status":                         FieldState,
	"state":                          FieldState,

	// Bids and placements
	"gebot":           FieldBid,
	"max. gebot":      FieldBid,
	"maximales gebot": FieldBid,
	"bid":             FieldBid,
	"max bid":         FieldBid,
	"max. bid":        FieldBid,
	"platzierung":     FieldPlacement,
	"placement":       FieldPlacement,
	"prozentsatz":     FieldPercentage,
	"percentage":      FieldPercentage,

	// Metrics
	"impressionen":           FieldImpressions,
	"impressions":            FieldImpressions,
	"klicks":                 FieldClicks,
	"clicks":                 FieldClicks,
	"ausgaben":               FieldSpend,
	"spend":                  FieldSpend,
	"kosten":                 FieldSpend,
	"verkäufe":               FieldSales,
	"umsatz":                 FieldSales,
	"sales":                  FieldSales,
	"7 day total sales":      FieldSales,
	"bestellungen":           FieldOrders,
	"orders":                 FieldOrders,
	"7 day total orders (#)": FieldOrders,
	"cpc":                    FieldCPC,
	"kosten pro klick":       FieldCPC,
	"cost per click (cpc)":   FieldCPC,
}

var (
	folder         = cases.Fold()
	parenthetical  = regexp.MustCompile(`\s*\((?:nur zu informationszwecken|informational only)\)\s*$`)
	collapseSpaces = regexp.MustCompile(`\s+`)
)

// NormalizeHeader folds a raw header to the alias key form: NFC, case
// folded, single spaces, underscores as spaces, informational suffix removed.
func NormalizeHeader(h string) string {
	s := norm.NFC.String(strings.TrimSpace(h))
	s = strings.Trim(s, "\"'\ufeff")
	s = folder.String(s)
	s = strings.ReplaceAll(s, "_", " ")
	s = collapseSpaces.ReplaceAllString(s, " ")
	s = parenthetical.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// LookupField resolves one raw header.
func LookupField(h string) (CanonicalField, bool) {
	f, ok := columnAliases[NormalizeHeader(h)]
	return f, ok
}

// ColumnMapping holds the resolved mapping from column indices to canonical fields.
type ColumnMapping struct {
	FieldIdx map[CanonicalField]int // canonical field -> first column index
	RawNames []string               // original header names
}

// Index returns the column of a field, or -1.
func (m *ColumnMapping) Index(f CanonicalField) int {
	if i, ok := m.FieldIdx[f]; ok {
		return i
	}
	return -1
}

// Has returns true when the field was found in the header.
func (m *ColumnMapping) Has(f CanonicalField) bool {
	_, ok := m.FieldIdx[f]
	return ok
}

// Header returns the original header text of a field, or "".
func (m *ColumnMapping) Header(f CanonicalField) string {
	if i := m.Index(f); i >= 0 && i < len(m.RawNames) {
		return m.RawNames[i]
	}
	return ""
}

// requiredMetrics must all be present for a sheet to be optimizable.
var requiredMetrics = []CanonicalField{FieldClicks, FieldSpend}

// MapColumns takes a raw header row and returns a resolved mapping.
// The first column wins when two headers map to the same field.
// Returns nil if the metric columns needed for optimization are absent.
func MapColumns(header []string) *ColumnMapping {
	m := &ColumnMapping{
		FieldIdx: make(map[CanonicalField]int, len(header)),
		RawNames: header,
	}
	for i, h := range header {
		field, ok := LookupField(h)
		if !ok {
			continue
		}
		if _, seen := m.FieldIdx[field]; !seen {
			m.FieldIdx[field] = i
		}
	}
	for _, f := range requiredMetrics {
		if !m.Has(f) {
			return nil
		}
	}
	return m
}

// German returns true when the sheet uses the German report headers.
func (m *ColumnMapping) German() bool {
	return NormalizeHeader(m.Header(FieldClicks)) == "klicks"
}
