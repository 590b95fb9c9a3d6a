package spreadsheet

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/a3tai/invoice-consolidator/internal/layout"
)

const (
	// SummarySheet is the only sheet of a freshly created master workbook.
	SummarySheet = "Summary"

	// RawSuffix is appended to an input's stem to name its debug copy.
	RawSuffix = "_RAW.xlsx"

	defaultSheet = "Sheet1"
)

// RawPath returns the debug artifact path for an input file.
func RawPath(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + RawSuffix
}

// WriteRaw saves table, headerless, into the first sheet of a new workbook at
// path. An existing file is replaced.
func WriteRaw(path string, table layout.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeRows(f, defaultSheet, table); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

// Workbook is the master output workbook, held open for a whole run.
type Workbook struct {
	path string
	file *excelize.File

	// Created is set when the workbook did not exist and was created.
	Created bool
	// Recreated is set when an unreadable workbook was deleted and replaced.
	Recreated bool
	// Notices holds user-facing warnings raised while opening.
	Notices []string
}

// OpenWorkbook opens the master workbook at path. A missing file is created
// with a single Summary sheet. A file that cannot be read as a workbook is
// removed and replaced the same way.
func OpenWorkbook(path string, logger *slog.Logger) (*Workbook, error) {
	if logger == nil {
		logger = slog.Default()
	}
	wb := &Workbook{path: path}

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		wb.Created = true
	case err != nil:
		return nil, fmt.Errorf("cannot access workbook %s: %w", path, err)
	case info.IsDir():
		return nil, fmt.Errorf("workbook path is a directory: %s", path)
	default:
		f, openErr := excelize.OpenFile(path)
		if openErr == nil {
			wb.file = f
			return wb, nil
		}

		notice := fmt.Sprintf("The file at %s is not a valid Excel file. A new master workbook will be created.", path)
		logger.Warn("corrupt master workbook", "path", path, "error", openErr)
		wb.Notices = append(wb.Notices, notice)

		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("failed to remove corrupt workbook %s: %w", path, err)
		}
		wb.Recreated = true
	}

	if err := createWorkbook(path); err != nil {
		return nil, err
	}
	logger.Info("created master workbook", "path", path, "sheet", SummarySheet)

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to reopen workbook %s: %w", path, err)
	}
	wb.file = f
	return wb, nil
}

func createWorkbook(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(defaultSheet, SummarySheet); err != nil {
		return fmt.Errorf("failed to name summary sheet: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to create workbook %s: %w", path, err)
	}
	return nil
}

// Path returns the workbook location.
func (w *Workbook) Path() string {
	return w.path
}

// SheetNames lists the sheets in workbook order.
func (w *Workbook) SheetNames() []string {
	return w.file.GetSheetList()
}

// WriteSheet writes table, headerless, into the named sheet starting at A1.
// The sheet is created when missing. On an existing sheet, cells inside the
// written rectangle are overwritten and all other cells are left as they are.
func (w *Workbook) WriteSheet(name string, table layout.Table) error {
	idx, err := w.file.GetSheetIndex(name)
	if err != nil {
		return fmt.Errorf("invalid sheet name %q: %w", name, err)
	}
	if idx < 0 {
		if _, err := w.file.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %q: %w", name, err)
		}
	}
	return writeRows(w.file, name, table)
}

// Save writes the workbook back to its path.
func (w *Workbook) Save() error {
	if err := w.file.Save(); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", w.path, err)
	}
	return nil
}

// Close releases the workbook without saving.
func (w *Workbook) Close() error {
	return w.file.Close()
}

func writeRows(f *excelize.File, sheet string, table layout.Table) error {
	width := table.Width()
	for r := range table {
		values := make([]interface{}, width)
		for c := 0; c < width; c++ {
			values[c] = table.Cell(r, c)
		}

		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d of sheet %q: %w", r+1, sheet, err)
		}
	}
	return nil
}
