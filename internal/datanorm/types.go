package datanorm

import (
	"errors"

	"github.com/ignite/ppc-optimizer/internal/domain"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported report format")
	ErrNoDataSheet       = errors.New("no sheet with campaign or search term data")
)

// Format is the container format of an uploaded report.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// SheetKind is the sheet classification enum.
type SheetKind string

const (
	SheetCampaign   SheetKind = "campaign"
	SheetSearchTerm SheetKind = "search_term"
	SheetOther      SheetKind = "other"
)

// Sheet is one tab of a report with its raw cell text. Header is the first
// non-empty row, found on HeaderLine (1-based); Rows[i] sits on line
// HeaderLine+1+i.
type Sheet struct {
	Name       string
	Kind       SheetKind
	HeaderLine int
	Header     []string
	Rows       [][]string
}

// Line returns the 1-based spreadsheet line of data row i.
func (s *Sheet) Line(i int) int { return s.HeaderLine + 1 + i }

// Workbook is the raw content of an uploaded report, sheets in file order.
type Workbook struct {
	Source string
	Format Format
	Sheets []Sheet
}

// Sheet returns the sheet with the given name.
func (w *Workbook) Sheet(name string) (*Sheet, bool) {
	for i := range w.Sheets {
		if w.Sheets[i].Name == name {
			return &w.Sheets[i], true
		}
	}
	return nil, false
}

// Report is the normalized output of one uploaded file.
type Report struct {
	Source  string
	Sheet   string
	Kind    SheetKind
	Mapping *ColumnMapping
	Rows    []domain.Row
}
