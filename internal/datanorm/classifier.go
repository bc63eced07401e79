package datanorm

import (
	"strings"
)

// Classifier determines sheet kind from sheet name and header row.
type Classifier struct{}

func NewClassifier() *Classifier {
	return &Classifier{}
}

var searchTermKeywords = []string{"suchbegriff", "search term", "sp bericht"}
var campaignKeywords = []string{"kampagne", "campaign", "sponsored products"}
var searchTermHeaders = []CanonicalField{FieldSearchTerm}
var campaignHeaders = []CanonicalField{FieldEntity, FieldPlacement, FieldPercentage}

// Classify determines the sheet kind based on sheet name and header row.
// Name keywords win over header detection.
func (c *Classifier) Classify(name string, headerRow []string) SheetKind {
	nameLower := strings.ToLower(name)

	for _, kw := range searchTermKeywords {
		if strings.Contains(nameLower, kw) {
			return SheetSearchTerm
		}
	}

	for _, kw := range campaignKeywords {
		if strings.Contains(nameLower, kw) {
			return SheetCampaign
		}
	}

	fields := make(map[CanonicalField]bool, len(headerRow))
	for _, h := range headerRow {
		if f, ok := LookupField(h); ok {
			fields[f] = true
		}
	}
	for _, f := range searchTermHeaders {
		if fields[f] {
			return SheetSearchTerm
		}
	}
	for _, f := range campaignHeaders {
		if fields[f] {
			return SheetCampaign
		}
	}
	if fields[FieldClicks] && fields[FieldSpend] {
		return SheetSearchTerm
	}

	return SheetOther
}
