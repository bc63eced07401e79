package datanorm

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// DetectFormat picks the reader from the file extension.
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt", ".tsv":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

// ReadWorkbook reads an uploaded CSV or XLSX report into raw sheets and
// classifies each sheet.
func ReadWorkbook(r io.Reader, filename string) (*Workbook, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return nil, err
	}

	wb := &Workbook{Source: filename, Format: format}
	switch format {
	case FormatCSV:
		sheet, err := readCSV(r, strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)))
		if err != nil {
			return nil, err
		}
		wb.Sheets = []Sheet{sheet}
	case FormatXLSX:
		sheets, err := readXLSX(r)
		if err != nil {
			return nil, err
		}
		wb.Sheets = sheets
	}

	c := NewClassifier()
	for i := range wb.Sheets {
		wb.Sheets[i].Kind = c.Classify(wb.Sheets[i].Name, wb.Sheets[i].Header)
	}
	return wb, nil
}

func readXLSX(r io.Reader) ([]Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	var sheets []Sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		sheets = append(sheets, splitHeader(name, rows))
	}
	return sheets, nil
}

func readCSV(r io.Reader, name string) (Sheet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Sheet{}, fmt.Errorf("read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = sniffDelimiter(data)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return Sheet{}, fmt.Errorf("parse csv: %w", err)
	}
	return splitHeader(name, rows), nil
}

// sniffDelimiter counts candidate separators on the first line. German
// exports use ';' because ',' is the decimal separator.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, bestCount := ',', bytes.Count(line, []byte{','})
	for _, d := range []rune{';', '\t'} {
		if n := bytes.Count(line, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

func splitHeader(name string, rows [][]string) Sheet {
	s := Sheet{Name: name}
	for i, row := range rows {
		if isBlank(row) {
			continue
		}
		s.HeaderLine = i + 1
		s.Header = row
		s.Rows = rows[i+1:]
		break
	}
	return s
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
