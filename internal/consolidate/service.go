// Package consolidate runs the per-file extraction pipeline and appends the
// filtered results to the master workbook.
package consolidate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/a3tai/invoice-consolidator/internal/company"
	"github.com/a3tai/invoice-consolidator/internal/layout"
	"github.com/a3tai/invoice-consolidator/internal/pdf"
	"github.com/a3tai/invoice-consolidator/internal/spreadsheet"
)

// SheetWriter receives filtered tables, one sheet per company.
type SheetWriter interface {
	WriteSheet(name string, table layout.Table) error
}

// TableExtractor reconstructs a table from a PDF.
type TableExtractor interface {
	ExtractTable(path string) (layout.Table, error)
}

// Options configures a Service.
type Options struct {
	// DebugRaw writes the unfiltered table of every input next to it.
	DebugRaw bool
	// MaxFileSize bounds input file size in bytes; zero disables the check.
	MaxFileSize int64
}

// Service orchestrates detection, extraction, filtering and writing.
type Service struct {
	options   Options
	detector  *company.Detector
	registry  *company.Registry
	extractor TableExtractor
	inspect   func(path string) (*pdf.Inspection, error)
	validator *Validator
	logger    *slog.Logger
}

// NewService creates a service. A nil extractor uses the PDF text-layer
// extractor.
func NewService(opts Options, detector *company.Detector, registry *company.Registry,
	extractor TableExtractor, logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if extractor == nil {
		extractor = pdf.NewExtractor(logger)
	}
	return &Service{
		options:   opts,
		detector:  detector,
		registry:  registry,
		extractor: extractor,
		inspect:   pdf.Inspect,
		validator: NewValidator(opts.MaxFileSize),
		logger:    logger,
	}
}

// Detector returns the company detector in use.
func (s *Service) Detector() *company.Detector {
	return s.detector
}

// Registry returns the filter registry in use.
func (s *Service) Registry() *company.Registry {
	return s.registry
}

// Extract reads the raw table of a PDF or Excel file. An encrypted PDF that
// yields no text is reported as pdf.ErrEncrypted rather than as empty.
func (s *Service) Extract(path string) (layout.Table, error) {
	if err := s.validator.Validate(path); err != nil {
		return nil, err
	}

	if spreadsheet.IsSpreadsheet(path) {
		return spreadsheet.ReadTable(path)
	}

	info, err := s.inspect(path)
	if err != nil {
		s.logger.Warn("pdf pre-flight failed, trying text extraction anyway", "path", path, "error", err)
	} else {
		s.logger.Debug("pdf pre-flight", "path", path, "pages", info.Pages,
			"version", info.Version, "encrypted", info.Encrypted)
	}

	table, err := s.extractor.ExtractTable(path)
	if info != nil && info.Encrypted && (err != nil || table.Empty()) {
		return nil, &pdf.ExtractionError{Path: path, Op: "extract", Err: pdf.ErrEncrypted}
	}
	return table, err
}

// ProcessFile runs the whole pipeline for one file. It never returns an
// error: every failure is recorded in the result.
func (s *Service) ProcessFile(path string, out SheetWriter) FileResult {
	name := s.detector.Detect(path)
	result := FileResult{Path: path, Company: name}
	log := s.logger.With("path", path, "company", name)

	if !IsSupported(path) {
		result.Outcome = OutcomeUnsupported
		result.Err = fmt.Errorf("%w: %s", spreadsheet.ErrUnsupportedFormat, strings.ToLower(filepath.Ext(path)))
		log.Info("skipping unsupported file")
		return result
	}

	table, err := s.Extract(path)
	if err != nil {
		result.Outcome = OutcomeExtractionError
		result.Err = err
		log.Error("failed processing file", "error", err)
		return result
	}
	if table.Empty() {
		result.Outcome = OutcomeEmpty
		result.Err = ErrEmptyTable
		log.Warn("no data extracted")
		return result
	}

	if s.options.DebugRaw {
		rawPath := spreadsheet.RawPath(path)
		if err := spreadsheet.WriteRaw(rawPath, table); err != nil {
			result.Outcome = OutcomeWriteError
			result.Err = err
			log.Error("failed saving raw extraction", "raw_path", rawPath, "error", err)
			return result
		}
		result.RawPath = rawPath
		log.Info("saved raw extraction", "raw_path", rawPath)
	}

	filtered, err := s.registry.Apply(name, table)
	switch {
	case errors.Is(err, company.ErrNoFilter):
		result.Outcome = OutcomeNoFilter
		result.Err = err
		log.Info("no filter defined, skipping")
		return result
	case err != nil:
		result.Outcome = OutcomeFilterError
		result.Err = err
		log.Warn("filter failed", "error", err)
		return result
	case filtered.Rows.Empty():
		result.Outcome = OutcomeEmpty
		result.Err = ErrEmptyTable
		log.Warn("no filtered data")
		return result
	}

	if err := out.WriteSheet(name, filtered.Rows); err != nil {
		result.Outcome = OutcomeWriteError
		result.Err = err
		log.Error("failed writing sheet", "error", err)
		return result
	}

	result.Outcome = OutcomeSuccess
	result.Rows = len(filtered.Rows)
	log.Info("extracted columns", "columns", strings.Join(filtered.Header, ","), "rows", result.Rows)
	return result
}

// Run processes every selected file in order against the session's master
// workbook and saves the workbook once at the end. Per-file failures are
// reported in the returned Report; an error is returned only when the run
// cannot start or the workbook cannot be saved. Cancellation is observed
// between files.
func (s *Service) Run(ctx context.Context, session *Session) (*Report, error) {
	if err := session.Ready(); err != nil {
		return nil, err
	}

	wb, err := spreadsheet.OpenWorkbook(session.Workbook(), s.logger)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	report := &Report{
		Workbook:  wb.Path(),
		Created:   wb.Created,
		Recreated: wb.Recreated,
		Notices:   wb.Notices,
	}

	for _, path := range session.Files() {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("run cancelled", "remaining_from", path)
			break
		}
		s.logger.Info("processing", "path", path)
		report.Results = append(report.Results, s.ProcessFile(path, wb))
	}

	if err := wb.Save(); err != nil {
		return report, err
	}

	s.logger.Info("run complete", "files", len(report.Results),
		"written", report.Count(OutcomeSuccess), "workbook", report.Workbook)
	return report, ctx.Err()
}
