package datanorm

import (
	"fmt"
	"io"
	"strings"

	"github.com/ignite/ppc-optimizer/internal/domain"
)

// Parse reads and normalizes an uploaded report in one step.
func Parse(r io.Reader, filename string) (*Workbook, *Report, error) {
	wb, err := ReadWorkbook(r, filename)
	if err != nil {
		return nil, nil, err
	}
	rep, err := Normalize(wb)
	if err != nil {
		return wb, nil, err
	}
	return wb, rep, nil
}

// Normalize picks the sheet to optimize and converts each of its data rows
// to a domain.Row. Campaign sheets are preferred because they carry keyword,
// product targeting and placement records; search term sheets are used as a
// fallback and summed per keyword.
func Normalize(wb *Workbook) (*Report, error) {
	sheet, mapping := pickSheet(wb)
	if sheet == nil {
		return nil, fmt.Errorf("%s: %w", wb.Source, ErrNoDataSheet)
	}

	rep := &Report{Source: wb.Source, Sheet: sheet.Name, Kind: sheet.Kind, Mapping: mapping}
	synthetic := !mapping.Has(FieldKeywordID) && !mapping.Has(FieldTargetingID)
	merged := make(map[string]int)
	for i, cells := range sheet.Rows {
		if isBlank(cells) {
			continue
		}
		row := NormalizeRow(cells, mapping, sheet.Line(i))
		if synthetic && row.Entity.Biddable() {
			row.ID = syntheticID(row)
			if j, ok := merged[row.ID]; ok {
				mergeRow(&rep.Rows[j], row)
				continue
			}
			merged[row.ID] = len(rep.Rows)
		}
		rep.Rows = append(rep.Rows, row)
	}
	return rep, nil
}

// pickSheet returns the best optimizable sheet: campaign, then search term,
// then any sheet whose header maps.
func pickSheet(wb *Workbook) (*Sheet, *ColumnMapping) {
	for _, kind := range []SheetKind{SheetCampaign, SheetSearchTerm, SheetOther} {
		for i := range wb.Sheets {
			s := &wb.Sheets[i]
			if s.Kind != kind {
				continue
			}
			if m := MapColumns(s.Header); m != nil {
				return s, m
			}
		}
	}
	return nil, nil
}

// NormalizeRow converts one data row. Required metrics that are absent or
// unparseable are listed in Row.Missing rather than defaulted to zero.
func NormalizeRow(cells []string, m *ColumnMapping, line int) domain.Row {
	cell := func(f CanonicalField) string {
		i := m.Index(f)
		if i < 0 || i >= len(cells) {
			return ""
		}
		return strings.TrimSpace(cells[i])
	}

	row := domain.Row{
		Line:          line,
		CampaignID:    cell(FieldCampaignID),
		CampaignName:  cell(FieldCampaignName),
		AdGroupName:   cell(FieldAdGroupName),
		TargetingType: normalizeTargetingType(cell(FieldTargetingType)),
		MatchType:     normalizeMatchType(cell(FieldMatchType)),
		State:         normalizeState(cell(FieldState)),
	}

	placement := NormalizePlacement(cell(FieldPlacement))
	switch {
	case m.Has(FieldEntity):
		row.Entity = normalizeEntity(cell(FieldEntity))
	case placement != domain.PlacementNone:
		row.Entity = domain.EntityPlacement
	default:
		row.Entity = domain.EntityKeyword
	}

	switch row.Entity {
	case domain.EntityKeyword:
		row.ID = cell(FieldKeywordID)
		row.Keyword = cell(FieldKeywordText)
	case domain.EntityProductTargeting:
		row.ID = cell(FieldTargetingID)
		if row.ID == "" {
			row.ID = cell(FieldKeywordID)
		}
		row.Keyword = cell(FieldTargetingExpr)
		if row.Keyword == "" {
			row.Keyword = cell(FieldKeywordText)
		}
	case domain.EntityPlacement:
		if placement == domain.PlacementNone {
			row.Entity = domain.EntityOther
			break
		}
		row.Placement = placement
		if key := row.CampaignKey(); key != "" {
			row.ID = key + ":" + string(placement)
		}
	}

	if v, ok := ParseNumber(cell(FieldBid)); ok {
		row.CurrentBid = v
	}
	if v, ok := ParseNumber(cell(FieldPercentage)); ok {
		row.CurrentAdjustmentPct = v
	}
	if v, ok := parseCount(cell(FieldImpressions)); ok {
		row.Impressions = v
	}

	if v, ok := parseCount(cell(FieldClicks)); ok {
		row.Clicks = v
	} else {
		row.Missing = append(row.Missing, domain.FieldClicks)
	}
	if v, ok := parseCount(cell(FieldOrders)); ok {
		row.Orders = v
	} else {
		row.Missing = append(row.Missing, domain.FieldOrders)
	}
	if v, ok := ParseNumber(cell(FieldSpend)); ok {
		row.Spend = v
	} else {
		row.Missing = append(row.Missing, domain.FieldSpend)
	}
	if v, ok := ParseNumber(cell(FieldSales)); ok {
		row.Sales = v
	} else {
		row.Missing = append(row.Missing, domain.FieldSales)
	}
	return row
}

func syntheticID(r domain.Row) string {
	return strings.Join([]string{r.CampaignKey(), r.AdGroupName, strings.ToLower(r.Keyword), r.MatchType}, "|")
}

// mergeRow folds a search term row into the keyword it was matched by.
func mergeRow(dst *domain.Row, src domain.Row) {
	dst.Impressions += src.Impressions
	dst.Clicks += src.Clicks
	dst.Orders += src.Orders
	dst.Spend += src.Spend
	dst.Sales += src.Sales
	if dst.CurrentBid == 0 {
		dst.CurrentBid = src.CurrentBid
	}
	for _, f := range src.Missing {
		if !hasField(dst.Missing, f) {
			dst.Missing = append(dst.Missing, f)
		}
	}
}

func hasField(fs []domain.Field, f domain.Field) bool {
	for _, x := range fs {
		if x == f {
			return true
		}
	}
	return false
}
