package consolidate

import (
	"errors"
	"fmt"
	"strings"
)

// Outcome classifies how a single input file was handled.
type Outcome string

const (
	OutcomeSuccess         Outcome = "success"
	OutcomeEmpty           Outcome = "empty"
	OutcomeExtractionError Outcome = "extraction-error"
	OutcomeFilterError     Outcome = "filter-error"
	OutcomeNoFilter        Outcome = "skipped-no-filter"
	OutcomeUnsupported     Outcome = "unsupported"
	OutcomeWriteError      Outcome = "write-error"
)

var (
	// ErrEmptyTable is recorded when extraction or filtering yields no rows.
	ErrEmptyTable = errors.New("no data extracted")

	// ErrNoFiles is returned when a run is triggered without a selection.
	ErrNoFiles = errors.New("no files loaded")

	// ErrNoWorkbook is returned when a run is triggered without a target.
	ErrNoWorkbook = errors.New("no master workbook set")
)

// FileResult is the outcome of processing one input file.
type FileResult struct {
	Path    string  `json:"path"`
	Company string  `json:"company"`
	Outcome Outcome `json:"outcome"`
	Rows    int     `json:"rows"`
	RawPath string  `json:"raw_path,omitempty"`
	Err     error   `json:"-"`
}

// Message returns the error text, or "" on success.
func (r FileResult) Message() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Report aggregates the results of a run.
type Report struct {
	Workbook  string       `json:"workbook"`
	Created   bool         `json:"created"`
	Recreated bool         `json:"recreated"`
	Notices   []string     `json:"notices,omitempty"`
	Results   []FileResult `json:"results"`
}

// Count returns how many results have the given outcome.
func (r *Report) Count(outcome Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == outcome {
			n++
		}
	}
	return n
}

// Summary renders the completion notice for a run.
func (r *Report) Summary() string {
	var b strings.Builder

	for _, notice := range r.Notices {
		fmt.Fprintf(&b, "WARNING: %s\n", notice)
	}
	fmt.Fprintf(&b, "Processed %d file(s).\n", len(r.Results))
	fmt.Fprintf(&b, "Saved to: %s\n", r.Workbook)
	if r.Created {
		b.WriteString("A new master workbook was created.\n")
	}

	for i, res := range r.Results {
		fmt.Fprintf(&b, "%d. %s [%s] %s", i+1, res.Path, res.Company, res.Outcome)
		if res.Outcome == OutcomeSuccess {
			fmt.Fprintf(&b, " (%d rows)", res.Rows)
		}
		if msg := res.Message(); msg != "" {
			fmt.Fprintf(&b, ": %s", msg)
		}
		b.WriteString("\n")
	}

	return b.String()
}
