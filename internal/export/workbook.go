// Package export writes optimization results back into a bulk workbook that
// can be re-uploaded, and renders the human-readable change summary.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ignite/ppc-optimizer/internal/datanorm"
	"github.com/ignite/ppc-optimizer/internal/domain"
)

// ErrNoReport is returned when the run has no normalized report to write into.
var ErrNoReport = errors.New("export: report sheet not found")

const (
	operationUpdate = "Update"
	maxSheetName    = 31
)

// Options selects which kinds of changes are written.
type Options struct {
	KeywordBids bool `json:"keyword_bids" yaml:"keyword_bids"`
	Pauses      bool `json:"pauses" yaml:"pauses"`
	Placements  bool `json:"placements" yaml:"placements"`
}

// DefaultOptions writes everything.
func DefaultOptions() Options {
	return Options{KeywordBids: true, Pauses: true, Placements: true}
}

// Stats counts the rows touched by an export.
type Stats struct {
	KeywordBids int `json:"keyword_bids"`
	Pauses      int `json:"pauses"`
	Placements  int `json:"placements"`
	Updated     int `json:"updated"`
}

// WriteWorkbook writes an updated copy of the uploaded report to w. XLSX
// input is edited in place so every sheet and its formatting is preserved;
// CSV input is converted into a single-sheet workbook. Every changed line
// gets Operation=Update, and the Operation column is inserted as column C
// when the sheet does not have one.
func WriteWorkbook(w io.Writer, original []byte, wb *datanorm.Workbook, rep *datanorm.Report, res *domain.Result, opts Options) (*Stats, error) {
	if rep == nil || rep.Mapping == nil {
		return nil, ErrNoReport
	}
	src, ok := wb.Sheet(rep.Sheet)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoReport, rep.Sheet)
	}

	f, sheet, err := openWorkbook(original, wb, src)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	e := &editor{f: f, sheet: sheet, cols: columnIndex(rep.Mapping)}
	if err := e.ensureOperation(src.HeaderLine); err != nil {
		return nil, err
	}

	stats := &Stats{}
	if opts.KeywordBids || opts.Pauses {
		if err := e.writeDecisions(res.Rows, opts, rep.Mapping.German(), stats); err != nil {
			return nil, err
		}
	}
	if opts.Placements {
		if err := e.writePlacements(rep.Rows, res.Placements, stats); err != nil {
			return nil, err
		}
	}
	stats.Updated = len(e.updated)

	if err := f.Write(w); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return stats, nil
}

func openWorkbook(original []byte, wb *datanorm.Workbook, src *datanorm.Sheet) (*excelize.File, string, error) {
	if wb.Format == datanorm.FormatXLSX {
		f, err := excelize.OpenReader(bytes.NewReader(original))
		if err != nil {
			return nil, "", fmt.Errorf("open original workbook: %w", err)
		}
		return f, src.Name, nil
	}

	f := excelize.NewFile()
	name := SheetName(src.Name)
	if err := f.SetSheetName("Sheet1", name); err != nil {
		f.Close()
		return nil, "", err
	}
	if err := setRow(f, name, src.HeaderLine, src.Header); err != nil {
		f.Close()
		return nil, "", err
	}
	for i, row := range src.Rows {
		if err := setRow(f, name, src.Line(i), row); err != nil {
			f.Close()
			return nil, "", err
		}
	}
	return f, name, nil
}

func setRow(f *excelize.File, sheet string, line int, cells []string) error {
	if len(cells) == 0 {
		return nil
	}
	values := make([]any, len(cells))
	for i, c := range cells {
		values[i] = c
	}
	cell, err := excelize.CoordinatesToCellName(1, line)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

// SheetName makes name valid as an Excel sheet name.
func SheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" {
		return "Sheet1"
	}
	if r := []rune(name); len(r) > maxSheetName {
		name = string(r[:maxSheetName])
	}
	return name
}

// columns holds 0-based column indices of the fields the export writes.
type columns struct {
	operation  int
	bid        int
	state      int
	percentage int
}

func columnIndex(m *datanorm.ColumnMapping) columns {
	return columns{
		operation:  m.Index(datanorm.FieldOperation),
		bid:        m.Index(datanorm.FieldBid),
		state:      m.Index(datanorm.FieldState),
		percentage: m.Index(datanorm.FieldPercentage),
	}
}

// operationInsertAt is the column the Operation header is inserted at (C).
const operationInsertAt = 2

type editor struct {
	f       *excelize.File
	sheet   string
	cols    columns
	updated map[int]bool
}

func (e *editor) ensureOperation(headerLine int) error {
	if e.cols.operation >= 0 {
		return nil
	}
	if err := e.f.InsertCols(e.sheet, "C", 1); err != nil {
		return fmt.Errorf("insert operation column: %w", err)
	}
	for _, idx := range []*int{&e.cols.bid, &e.cols.state, &e.cols.percentage} {
		if *idx >= operationInsertAt {
			*idx++
		}
	}
	e.cols.operation = operationInsertAt
	return e.set(operationInsertAt, headerLine, "Operation")
}

func (e *editor) set(col, line int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col+1, line)
	if err != nil {
		return err
	}
	if err := e.f.SetCellValue(e.sheet, cell, value); err != nil {
		return fmt.Errorf("set %s: %w", cell, err)
	}
	return nil
}

func (e *editor) markUpdated(line int) error {
	if e.updated == nil {
		e.updated = make(map[int]bool)
	}
	if e.updated[line] {
		return nil
	}
	e.updated[line] = true
	return e.set(e.cols.operation, line, operationUpdate)
}

func (e *editor) writeDecisions(rows []domain.AnnotatedRow, opts Options, german bool, stats *Stats) error {
	paused := "paused"
	if german {
		paused = "Pausiert"
	}
	for _, ar := range rows {
		d := ar.Decision
		if d == nil || ar.Row.Line <= 0 {
			continue
		}
		switch {
		case opts.KeywordBids && d.Changed() && e.cols.bid >= 0:
			if err := e.set(e.cols.bid, ar.Row.Line, d.NewBid); err != nil {
				return err
			}
			stats.KeywordBids++
		case opts.Pauses && d.Action == domain.BidPause && e.cols.state >= 0:
			if err := e.set(e.cols.state, ar.Row.Line, paused); err != nil {
				return err
			}
			stats.Pauses++
		default:
			continue
		}
		if err := e.markUpdated(ar.Row.Line); err != nil {
			return err
		}
	}
	return nil
}

func (e *editor) writePlacements(rows []domain.Row, aggs []domain.PlacementAggregate, stats *Stats) error {
	if e.cols.percentage < 0 {
		return nil
	}
	recommended := make(map[string]float64, len(aggs))
	for _, a := range aggs {
		if a.Recommendation.Status != domain.PlacementOK {
			continue
		}
		recommended[placementKey(aggregateKey(a), a.Placement)] = a.Recommendation.RecommendedPct
	}
	for _, r := range rows {
		if r.Entity != domain.EntityPlacement || r.Line <= 0 {
			continue
		}
		pct, ok := recommended[placementKey(r.CampaignKey(), r.Placement)]
		if !ok {
			continue
		}
		if err := e.set(e.cols.percentage, r.Line, pct); err != nil {
			return err
		}
		stats.Placements++
		if err := e.markUpdated(r.Line); err != nil {
			return err
		}
	}
	return nil
}

func aggregateKey(a domain.PlacementAggregate) string {
	if a.CampaignID != "" {
		return a.CampaignID
	}
	return a.CampaignName
}

func placementKey(campaign string, p domain.Placement) string {
	return campaign + "\x00" + string(p)
}
