// Package spreadsheet reads headerless tables from Excel files and writes the
// raw debug copies and the consolidated master workbook.
package spreadsheet

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/a3tai/invoice-consolidator/internal/layout"
)

// ErrUnsupportedFormat is returned for files that are not .xls or .xlsx.
var ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")

// IsSpreadsheet reports whether path has an Excel extension.
func IsSpreadsheet(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xls", ".xlsx":
		return true
	}
	return false
}

// ReadTable reads the first sheet of an Excel file. Every row is data; no
// header row is interpreted. Rows are padded to the widest row.
func ReadTable(path string) (layout.Table, error) {
	var (
		table layout.Table
		err   error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		table, err = readXLSX(path)
	case ".xls":
		table, err = readXLS(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, err
	}

	return table.Padded(), nil
}

func readXLSX(path string) (layout.Table, error) {
	f, err := excelize.OpenFile(path, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}

	return trimTrailingEmptyRows(rows), nil
}

func readXLS(path string) (table layout.Table, err error) {
	// The BIFF decoder panics on some truncated files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to decode xls file: %v", r)
		}
	}()

	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("failed to open xls file: %w", err)
	}
	if wb == nil || wb.NumSheets() == 0 {
		return nil, fmt.Errorf("no worksheets in xls file %s", path)
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("failed to read first worksheet of %s", path)
	}

	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			table = append(table, nil)
			continue
		}
		cells := make([]string, 0, row.LastCol())
		for c := 0; c < row.LastCol(); c++ {
			cells = append(cells, row.Col(c))
		}
		table = append(table, cells)
	}

	return trimTrailingEmptyRows(table), nil
}

func trimTrailingEmptyRows(rows [][]string) layout.Table {
	end := len(rows)
	for end > 0 && isBlankRow(rows[end-1]) {
		end--
	}
	return layout.Table(rows[:end])
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}
