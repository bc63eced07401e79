package export

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ignite/ppc-optimizer/internal/datanorm"
	"github.com/ignite/ppc-optimizer/internal/domain"
	"github.com/ignite/ppc-optimizer/internal/optimizer"
)

func profile(target, minCR float64, minClicks int) domain.ClientProfile {
	return domain.ClientProfile{
		Name:     "Test Client",
		Strategy: domain.StrategyStandard,
		Thresholds: domain.Thresholds{
			TargetACOS:        target,
			MinConversionRate: minCR,
			MinClicks:         minClicks,
		},
	}
}

func englishBulk(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", "Portfolios"))
	require.NoError(t, f.SetSheetRow("Portfolios", "A1", &[]any{"Portfolio ID", "Budget"}))

	sheet := "Sponsored Products Campaigns"
	_, err := f.NewSheet(sheet)
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Entity", "Campaign ID", "Keyword ID", "Campaign Name", "State", "Bid", "Keyword Text", "Placement", "Percentage", "Clicks", "Spend", "Sales", "Orders"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"Keyword", "c-1", "kw-1", "Brand", "enabled", 1.0, "shoes", "", "", 100, 20, 300, 10}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"Keyword", "c-1", "kw-2", "Brand", "enabled", 0.5, "socks", "", "", 30, 5, 0, 0}))
	require.NoError(t, f.SetSheetRow(sheet, "A4", &[]any{"Bidding Adjustment", "c-1", "", "Brand", "", "", "", "Placement Top", 10, 40, 10, 200, 8}))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func optimize(t *testing.T, data []byte, filename string, p domain.ClientProfile) (*datanorm.Workbook, *datanorm.Report, *domain.Result) {
	t.Helper()
	wb, rep, err := datanorm.Parse(bytes.NewReader(data), filename)
	require.NoError(t, err)
	res, err := optimizer.Run(rep.Rows, p, optimizer.Options{})
	require.NoError(t, err)
	return wb, rep, res
}

func TestWriteWorkbook_XLSXInsertsOperationColumn(t *testing.T) {
	original := englishBulk(t)
	wb, rep, res := optimize(t, original, "bulk.xlsx", profile(0.10, 0.05, 25))

	var out bytes.Buffer
	stats, err := WriteWorkbook(&out, original, wb, rep, res, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, &Stats{KeywordBids: 1, Pauses: 1, Placements: 1, Updated: 3}, stats)

	f, err := excelize.OpenReader(&out)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Portfolios", "Sponsored Products Campaigns"}, f.GetSheetList())

	sheet := "Sponsored Products Campaigns"
	cell := func(ref string) string {
		v, err := f.GetCellValue(sheet, ref)
		require.NoError(t, err)
		return v
	}
	assert.Equal(t, "Operation", cell("C1"))
	assert.Equal(t, "Keyword ID", cell("D1"))
	assert.Equal(t, "Bid", cell("G1"))

	assert.Equal(t, "Update", cell("C2"))
	assert.Equal(t, "1.3", cell("G2"), "good keyword capped at +30%")

	assert.Equal(t, "Update", cell("C3"))
	assert.Equal(t, "paused", cell("F3"))

	assert.Equal(t, "Update", cell("C4"))
	assert.Equal(t, "120", cell("J4"))
}

func TestWriteWorkbook_Toggles(t *testing.T) {
	original := englishBulk(t)
	wb, rep, res := optimize(t, original, "bulk.xlsx", profile(0.10, 0.05, 25))

	var out bytes.Buffer
	stats, err := WriteWorkbook(&out, original, wb, rep, res, Options{Placements: true})
	require.NoError(t, err)
	assert.Equal(t, &Stats{Placements: 1, Updated: 1}, stats)

	f, err := excelize.OpenReader(&out)
	require.NoError(t, err)
	defer f.Close()

	bid, err := f.GetCellValue("Sponsored Products Campaigns", "G2")
	require.NoError(t, err)
	assert.Equal(t, "1", bid)
	op, err := f.GetCellValue("Sponsored Products Campaigns", "C2")
	require.NoError(t, err)
	assert.Empty(t, op)
}

const germanCSV = "Entität;Kampagnen-ID;Vorgang;Keyword-ID;Kampagnenname;Status;Gebot;Keyword-Text;Platzierung;Prozentsatz;Klicks;Ausgaben;Verkäufe;Bestellungen\n" +
	"Keyword;111;;k1;Brand;Aktiviert;0,75;laufschuhe;;;50;40,00;50,00;1\n" +
	"Keyword;111;;k2;Brand;Aktiviert;0,50;sneaker;;;30;5,00;0;0\n"

func TestWriteWorkbook_CSVUsesExistingOperationColumn(t *testing.T) {
	wb, rep, res := optimize(t, []byte(germanCSV), "bulk.csv", profile(0.20, 0.05, 25))

	var out bytes.Buffer
	stats, err := WriteWorkbook(&out, nil, wb, rep, res, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.KeywordBids)
	assert.Equal(t, 1, stats.Pauses)
	assert.Equal(t, 2, stats.Updated)

	f, err := excelize.OpenReader(&out)
	require.NoError(t, err)
	defer f.Close()
	require.Equal(t, []string{"bulk"}, f.GetSheetList())

	cell := func(ref string) string {
		v, err := f.GetCellValue("bulk", ref)
		require.NoError(t, err)
		return v
	}
	assert.Equal(t, "Entität", cell("A1"))
	assert.Equal(t, "Vorgang", cell("C1"))
	assert.Equal(t, "Update", cell("C2"))
	assert.Equal(t, "0.19", cell("G2"))
	assert.Equal(t, "Pausiert", cell("F3"))
	assert.Equal(t, "sneaker", cell("H3"))
}

func TestWriteWorkbook_NoReport(t *testing.T) {
	_, err := WriteWorkbook(&bytes.Buffer{}, nil, &datanorm.Workbook{}, nil, &domain.Result{}, DefaultOptions())
	assert.True(t, errors.Is(err, ErrNoReport))

	rep := &datanorm.Report{Sheet: "gone", Mapping: &datanorm.ColumnMapping{}}
	_, err = WriteWorkbook(&bytes.Buffer{}, nil, &datanorm.Workbook{}, rep, &domain.Result{}, DefaultOptions())
	assert.True(t, errors.Is(err, ErrNoReport))
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "bulk_2024", SheetName("bulk/2024"))
	assert.Equal(t, "Sheet1", SheetName("  "))
	assert.Len(t, []rune(SheetName(strings.Repeat("ä", 40))), 31)
}
