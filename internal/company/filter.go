package company

import (
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/a3tai/invoice-consolidator/internal/layout"
)

var (
	// ErrIndexOutOfBounds is returned when a rule selects a column the table
	// does not have.
	ErrIndexOutOfBounds = errors.New("column index out of bounds")

	// ErrNoFilter is returned when a company has no registered rule.
	ErrNoFilter = errors.New("no filter defined")
)

// Rule selects fixed source columns and names them.
type Rule struct {
	Company string   `mapstructure:"company" json:"company"`
	Indices []int    `mapstructure:"indices" json:"indices"`
	Labels  []string `mapstructure:"labels" json:"labels,omitempty"`
}

// Filtered is the projection of a table through a Rule. Header is kept for
// reference only; the workbook output is headerless.
type Filtered struct {
	Header []string
	Rows   layout.Table
}

// DefaultRules returns the built-in rules.
func DefaultRules() []Rule {
	return []Rule{
		{
			Company: "Sanco",
			Indices: []int{18, 36, 41, 46, 49},
			Labels:  []string{"Col_S", "Col_AK", "Col_AP", "Col_AU", "Col_AX"},
		},
	}
}

// Validate checks the rule is well formed and fills in missing labels from
// the spreadsheet column letters of each index.
func (r *Rule) Validate() error {
	if r.Company == "" {
		return errors.New("rule company cannot be empty")
	}
	if len(r.Indices) == 0 {
		return fmt.Errorf("rule for %s selects no columns", r.Company)
	}
	for _, idx := range r.Indices {
		if idx < 0 {
			return fmt.Errorf("rule for %s has negative column index %d", r.Company, idx)
		}
	}

	if len(r.Labels) == 0 {
		labels := make([]string, len(r.Indices))
		for i, idx := range r.Indices {
			name, err := excelize.ColumnNumberToName(idx + 1)
			if err != nil {
				return fmt.Errorf("rule for %s: %w", r.Company, err)
			}
			labels[i] = "Col_" + name
		}
		r.Labels = labels
	}

	if len(r.Labels) != len(r.Indices) {
		return fmt.Errorf("rule for %s has %d labels for %d columns",
			r.Company, len(r.Labels), len(r.Indices))
	}
	return nil
}

// Apply projects the table onto the rule's columns. Every index must fall
// inside the table width; otherwise nothing is returned.
func (r Rule) Apply(table layout.Table) (*Filtered, error) {
	width := table.Width()
	for _, idx := range r.Indices {
		if idx >= width {
			return nil, fmt.Errorf("%w: %s selects column %d but table has %d columns",
				ErrIndexOutOfBounds, r.Company, idx, width)
		}
	}

	rows := make(layout.Table, 0, len(table))
	for i := range table {
		out := make([]string, len(r.Indices))
		for j, idx := range r.Indices {
			out[j] = table.Cell(i, idx)
		}
		rows = append(rows, out)
	}

	header := make([]string, len(r.Labels))
	copy(header, r.Labels)
	return &Filtered{Header: header, Rows: rows}, nil
}

// Registry maps company names to rules.
type Registry struct {
	rules map[string]Rule
	order []string
}

// NewRegistry validates and registers rules. A later rule for the same
// company replaces an earlier one.
func NewRegistry(rules ...Rule) (*Registry, error) {
	reg := &Registry{rules: make(map[string]Rule)}
	for _, rule := range rules {
		if err := reg.Register(rule); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Register adds or replaces the rule for rule.Company.
func (r *Registry) Register(rule Rule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	if _, exists := r.rules[rule.Company]; !exists {
		r.order = append(r.order, rule.Company)
	}
	r.rules[rule.Company] = rule
	return nil
}

// Lookup returns the rule for a company.
func (r *Registry) Lookup(company string) (Rule, bool) {
	rule, ok := r.rules[company]
	return rule, ok
}

// Companies lists the companies with a rule, in registration order.
func (r *Registry) Companies() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Apply runs the company's rule over table.
func (r *Registry) Apply(company string, table layout.Table) (*Filtered, error) {
	rule, ok := r.rules[company]
	if !ok {
		return nil, fmt.Errorf("%w for %s", ErrNoFilter, company)
	}
	return rule.Apply(table)
}
