package datanorm

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/ignite/ppc-optimizer/internal/domain"
)

// currencyTokens are stripped from numeric cells before parsing.
var currencyTokens = []string{"€", "$", "£", "EUR", "USD", "GBP", "%"}

// ParseNumber parses a report cell written in either German or English
// notation ("1.234,56", "1,234.56", "12,5 %", "€ 3,10"). The last of '.' or
// ',' is the decimal separator when both occur; a single separator kind that
// occurs more than once is a thousands separator. ok is false for empty or
// non-numeric cells.
func ParseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	for _, t := range currencyTokens {
		s = strings.ReplaceAll(s, t, "")
	}
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '\'' {
			return -1
		}
		return r
	}, s)
	if s == "" || s == "-" {
		return 0, false
	}

	dot, comma := strings.LastIndex(s, "."), strings.LastIndex(s, ",")
	switch {
	case dot >= 0 && comma >= 0:
		if comma > dot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case comma >= 0:
		if strings.Count(s, ",") > 1 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case dot >= 0 && strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

var groupedInt = regexp.MustCompile(`^-?\d{1,3}(?:[.,]\d{3})+$`)

// parseCount parses an integer metric. Grouped digits ("1.234", "1,234") are
// thousands; other fractional counts are rejected.
func parseCount(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	if groupedInt.MatchString(s) {
		n, err := strconv.Atoi(strings.NewReplacer(".", "", ",", "").Replace(s))
		return n, err == nil
	}
	v, ok := ParseNumber(s)
	if !ok || v != math.Trunc(v) {
		return 0, false
	}
	return int(v), true
}

// entityLabels maps bulk-sheet entity / record type labels to row entities.
var entityLabels = map[string]domain.Entity{
	"keyword":                    domain.EntityKeyword,
	"produkt-targeting":          domain.EntityProductTargeting,
	"product targeting":          domain.EntityProductTargeting,
	"gebotsanpassung":            domain.EntityPlacement,
	"bidding adjustment":         domain.EntityPlacement,
	"kampagne":                   domain.EntityOther,
	"campaign":                   domain.EntityOther,
	"anzeigengruppe":             domain.EntityOther,
	"ad group":                   domain.EntityOther,
	"produktanzeige":             domain.EntityOther,
	"product ad":                 domain.EntityOther,
	"negatives keyword":          domain.EntityOther,
	"negative keyword":           domain.EntityOther,
	"kampagne negatives keyword": domain.EntityOther,
	"campaign negative keyword":  domain.EntityOther,
}

func normalizeEntity(raw string) domain.Entity {
	if e, ok := entityLabels[NormalizeHeader(raw)]; ok {
		return e
	}
	return domain.EntityOther
}

// placementLabels maps German and English placement labels to placements.
var placementLabels = map[string]domain.Placement{
	"top-platzierung":            domain.PlacementTopOfSearch,
	"platzierung top":            domain.PlacementTopOfSearch,
	"placement top":              domain.PlacementTopOfSearch,
	"top of search (first page)": domain.PlacementTopOfSearch,
	"top of search on-amazon":    domain.PlacementTopOfSearch,
	"platzierung produktseite":   domain.PlacementProductPages,
	"placement product page":     domain.PlacementProductPages,
	"product pages on-amazon":    domain.PlacementProductPages,
	"platzierung rest der suche": domain.PlacementRestOfSearch,
	"placement rest of search":   domain.PlacementRestOfSearch,
	"rest of search on-amazon":   domain.PlacementRestOfSearch,
}

// NormalizePlacement maps a placement label, or returns PlacementNone.
func NormalizePlacement(raw string) domain.Placement {
	return placementLabels[NormalizeHeader(raw)]
}

func normalizeState(raw string) string {
	switch NormalizeHeader(raw) {
	case "aktiviert", "enabled", "aktiv", "active":
		return "enabled"
	case "pausiert", "paused":
		return "paused"
	case "archiviert", "archived":
		return "archived"
	default:
		return strings.ToLower(strings.TrimSpace(raw))
	}
}

func normalizeMatchType(raw string) string {
	switch NormalizeHeader(raw) {
	case "genau", "exact":
		return "exact"
	case "wortgruppe", "phrase":
		return "phrase"
	case "weitgehend", "broad":
		return "broad"
	default:
		return strings.ToLower(strings.TrimSpace(raw))
	}
}

func normalizeTargetingType(raw string) string {
	switch NormalizeHeader(raw) {
	case "automatisch", "auto", "automatic":
		return "auto"
	case "manuell", "manual":
		return "manual"
	default:
		return strings.ToLower(strings.TrimSpace(raw))
	}
}
