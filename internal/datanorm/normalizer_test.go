package datanorm

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ignite/ppc-optimizer/internal/domain"
)

const germanBulkCSV = "\ufeffProdukt;Entität;Vorgang;Kampagnen-ID;Anzeigengruppen-ID;Keyword-ID;Produkt-Targeting-ID;Kampagnenname (Nur zu Informationszwecken);Anzeigengruppenname (Nur zu Informationszwecken);Status;Gebot;Keyword-Text;Ausdruck für Produkt-Targeting;Übereinstimmungstyp;Platzierung;Prozentsatz;Impressionen;Klicks;Ausgaben;Verkäufe;Bestellungen\n" +
	"Sponsored Products;Kampagne;;111;;;;Brand;;Aktiviert;;;;;;;1000;200;80,00;900,00;20\n" +
	"Sponsored Products;Keyword;;111;222;k1;;Brand;Shoes;Aktiviert;0,75;laufschuhe;;Genau;;;500;30;12,50;0;0\n" +
	"Sponsored Products;Produkt-Targeting;;111;222;;t1;Brand;Shoes;Aktiviert;1,10;;asin=\"B000TEST\";;;;400;100;20,00;300,00;10\n" +
	"Sponsored Products;Keyword;;111;222;k2;;Brand;Shoes;Aktiviert;0,50;sneaker;;Wortgruppe;;;10;;1,00;0;0\n" +
	"Sponsored Products;Gebotsanpassung;;111;;;;Brand;;;;;;;Top-Platzierung;50;;40;10,00;200,00;8\n" +
	"Sponsored Products;Gebotsanpassung;;111;;;;Brand;;;;;;;Platzierung Produktseite;0;;20;8,00;40,00;2\n" +
	"Sponsored Products;Gebotsanpassung;;111;;;;Brand;;;;;;;Amazon Business;0;;0;0;0;0\n" +
	";;;;;;;;;;;;;;;;;;;;\n"

func TestParse_GermanCSV(t *testing.T) {
	wb, rep, err := Parse(strings.NewReader(germanBulkCSV), "bulk-2024-05.csv")
	require.NoError(t, err)
	require.Len(t, wb.Sheets, 1)
	assert.Equal(t, SheetCampaign, wb.Sheets[0].Kind)
	assert.Equal(t, "bulk-2024-05", rep.Sheet)
	assert.Equal(t, "Entität", rep.Mapping.Header(FieldEntity))

	require.Len(t, rep.Rows, 7)

	campaign := rep.Rows[0]
	assert.Equal(t, domain.EntityOther, campaign.Entity)

	kw := rep.Rows[1]
	assert.Equal(t, domain.EntityKeyword, kw.Entity)
	assert.Equal(t, "k1", kw.ID)
	assert.Equal(t, 3, kw.Line)
	assert.Equal(t, "111", kw.CampaignID)
	assert.Equal(t, "Brand", kw.CampaignName)
	assert.Equal(t, "Shoes", kw.AdGroupName)
	assert.Equal(t, "laufschuhe", kw.Keyword)
	assert.Equal(t, "exact", kw.MatchType)
	assert.Equal(t, "enabled", kw.State)
	assert.InDelta(t, 0.75, kw.CurrentBid, 1e-9)
	assert.Equal(t, 500, kw.Impressions)
	assert.Equal(t, 30, kw.Clicks)
	assert.InDelta(t, 12.5, kw.Spend, 1e-9)
	assert.Empty(t, kw.Missing)

	pt := rep.Rows[2]
	assert.Equal(t, domain.EntityProductTargeting, pt.Entity)
	assert.Equal(t, "t1", pt.ID)
	assert.Equal(t, `asin="B000TEST"`, pt.Keyword)
	assert.InDelta(t, 300.0, pt.Sales, 1e-9)

	missing := rep.Rows[3]
	assert.Equal(t, "k2", missing.ID)
	assert.Equal(t, []domain.Field{domain.FieldClicks}, missing.Missing)

	top := rep.Rows[4]
	assert.Equal(t, domain.EntityPlacement, top.Entity)
	assert.Equal(t, domain.PlacementTopOfSearch, top.Placement)
	assert.Equal(t, "111:top_of_search", top.ID)
	assert.Equal(t, 50.0, top.CurrentAdjustmentPct)
	assert.Equal(t, 40, top.Clicks)

	assert.Equal(t, domain.PlacementProductPages, rep.Rows[5].Placement)
	assert.Equal(t, domain.EntityOther, rep.Rows[6].Entity, "unknown placement label is not optimized")
}

func TestParse_SearchTermSumsPerKeyword(t *testing.T) {
	csv := "Campaign Name,Ad Group Name,Targeting,Match Type,Customer Search Term,Clicks,Spend,7 Day Total Sales,7 Day Total Orders (#)\n" +
		"Generic,All,running shoes,BROAD,running shoes men,10,5.00,50.00,1\n" +
		"Generic,All,running shoes,BROAD,running shoes women,15,7.50,0,0\n" +
		"Generic,All,trail shoes,EXACT,trail shoes,4,2.00,20.00,1\n"

	wb, rep, err := Parse(strings.NewReader(csv), "search-terms.csv")
	require.NoError(t, err)
	assert.Equal(t, SheetSearchTerm, wb.Sheets[0].Kind)
	require.Len(t, rep.Rows, 2)

	first := rep.Rows[0]
	assert.Equal(t, "Generic|All|running shoes|broad", first.ID)
	assert.Equal(t, 2, first.Line)
	assert.Equal(t, 25, first.Clicks)
	assert.Equal(t, 1, first.Orders)
	assert.InDelta(t, 12.5, first.Spend, 1e-9)
	assert.InDelta(t, 50.0, first.Sales, 1e-9)
}

func TestParse_XLSXPrefersCampaignSheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", "Portfolios"))
	require.NoError(t, f.SetSheetRow("Portfolios", "A1", &[]any{"Portfolio ID", "Budget"}))

	_, err := f.NewSheet("SP Search Term Report")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("SP Search Term Report", "A1", &[]any{"Campaign Name", "Targeting", "Clicks", "Spend", "Sales", "Orders"}))
	require.NoError(t, f.SetSheetRow("SP Search Term Report", "A2", &[]any{"Brand", "shoes", 3, 1.5, 0, 0}))

	_, err = f.NewSheet("Sponsored Products Campaigns")
	require.NoError(t, err)
	sheet := "Sponsored Products Campaigns"
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Entity", "Operation", "Campaign ID", "Keyword ID", "Campaign Name (Informational only)", "Bid", "Keyword Text", "Placement", "Percentage", "Clicks", "Spend", "Sales", "Orders"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"Keyword", "", "c-9", "kw-9", "Brand", 0.85, "shoes", "", "", 120, 30.5, 400, 12}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"Bidding Adjustment", "", "c-9", "", "Brand", "", "", "Placement Rest Of Search", 25, 60, 12, 90, 3}))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	wb, rep, err := Parse(bytes.NewReader(buf.Bytes()), "bulk.xlsx")
	require.NoError(t, err)
	require.Len(t, wb.Sheets, 3)
	assert.Equal(t, SheetOther, wb.Sheets[0].Kind)
	assert.Equal(t, SheetSearchTerm, wb.Sheets[1].Kind)
	assert.Equal(t, SheetCampaign, wb.Sheets[2].Kind)

	assert.Equal(t, sheet, rep.Sheet)
	require.Len(t, rep.Rows, 2)
	assert.Equal(t, "kw-9", rep.Rows[0].ID)
	assert.InDelta(t, 0.85, rep.Rows[0].CurrentBid, 1e-9)
	assert.Equal(t, 120, rep.Rows[0].Clicks)
	assert.Equal(t, domain.PlacementRestOfSearch, rep.Rows[1].Placement)
	assert.Equal(t, 25.0, rep.Rows[1].CurrentAdjustmentPct)
	assert.Equal(t, 3, rep.Rows[1].Line)
}

func TestParse_Errors(t *testing.T) {
	_, _, err := Parse(strings.NewReader("x"), "report.pdf")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	_, _, err = Parse(strings.NewReader("name,budget\na,1\n"), "report.csv")
	assert.True(t, errors.Is(err, ErrNoDataSheet))
}

func TestMapColumns(t *testing.T) {
	m := MapColumns([]string{" Klicks ", "AUSGABEN", "Max. Gebot", "Kampagnen_ID", "Clicks"})
	require.NotNil(t, m)
	assert.Equal(t, 0, m.Index(FieldClicks), "first matching column wins")
	assert.Equal(t, 1, m.Index(FieldSpend))
	assert.Equal(t, 2, m.Index(FieldBid))
	assert.Equal(t, -1, m.Index(FieldSales))
	assert.Equal(t, "Max. Gebot", m.Header(FieldBid))

	assert.Nil(t, MapColumns([]string{"Kampagne", "Budget"}))
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "kampagnenname", NormalizeHeader("Kampagnenname (Nur zu Informationszwecken)"))
	assert.Equal(t, "campaign name", NormalizeHeader("Campaign Name (Informational only)"))
	assert.Equal(t, "entität", NormalizeHeader("Entität"))
	assert.Equal(t, "keyword text", NormalizeHeader("keyword_text"))
}
