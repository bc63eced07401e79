package datanorm

import (
	"testing"
)

func TestClassifier(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		name    string
		sheet   string
		headers []string
		want    SheetKind
	}{
		{"german search term sheet", "SP Bericht Suchbegriff", []string{"Klicks"}, SheetSearchTerm},
		{"english search term sheet", "Sponsored Products Search Term Report", nil, SheetSearchTerm},
		{"german campaign sheet", "Sponsored Products-Kampagnen", []string{"Entität"}, SheetCampaign},
		{"english campaign sheet", "Campaigns", nil, SheetCampaign},
		{"header with entity indicates campaign", "Tabelle1", []string{"Entity", "Clicks"}, SheetCampaign},
		{"header with search term indicates search term", "data", []string{"Customer Search Term", "Clicks"}, SheetSearchTerm},
		{"bare metrics treated as search term", "export", []string{"Klicks", "Ausgaben"}, SheetSearchTerm},
		{"portfolio sheet is other", "Portfolios", []string{"Portfolio ID", "Budget"}, SheetOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.sheet, tt.headers)
			if got != tt.want {
				t.Errorf("Classify(%q, %v) = %s, want %s", tt.sheet, tt.headers, got, tt.want)
			}
		})
	}
}
