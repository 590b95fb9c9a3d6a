// Package layout rebuilds a row/column grid from loosely positioned text tokens.
package layout

// Token is a single word extracted from a page with page-relative coordinates.
// Top grows downward from the top edge of the page.
type Token struct {
	Text string  `json:"text"`
	Left float64 `json:"left"`
	Top  float64 `json:"top"`
}

// Page holds the tokens found on one page, in extraction order.
type Page struct {
	Number int     `json:"number"`
	Tokens []Token `json:"tokens"`
}

// Row is a run of tokens sharing an approximate Top. Top is the anchor taken
// from the first token of the row.
type Row struct {
	Top   float64
	Items []Token
}

// Table is an ordered sequence of rows of cell strings. Rows are not required
// to have equal length.
type Table [][]string

// Width returns the length of the longest row.
func (t Table) Width() int {
	width := 0
	for _, row := range t {
		if len(row) > width {
			width = len(row)
		}
	}
	return width
}

// Cell returns the cell at (row, col), or "" when the row is shorter than col.
func (t Table) Cell(row, col int) string {
	if row < 0 || row >= len(t) || col < 0 || col >= len(t[row]) {
		return ""
	}
	return t[row][col]
}

// Empty reports whether the table carries no rows.
func (t Table) Empty() bool {
	return len(t) == 0
}

// Padded returns a copy of the table with every row extended to Width.
func (t Table) Padded() Table {
	width := t.Width()
	out := make(Table, len(t))
	for i, row := range t {
		padded := make([]string, width)
		copy(padded, row)
		out[i] = padded
	}
	return out
}
