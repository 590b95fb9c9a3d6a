package layout

import (
	"math"
	"sort"
	"strconv"
)

// RowTolerance is the maximum vertical distance, in page units, between a
// token and its row anchor.
const RowTolerance = 3.0

// ClusterRows groups tokens into rows by vertical proximity.
//
// Tokens are visited in (Top, Left) order. A token joins the current row when
// its Top, rounded to one decimal, lies within RowTolerance of the row anchor;
// otherwise it opens a new row. The anchor is fixed by the first token of a
// row and does not move as tokens are added.
func ClusterRows(tokens []Token) []Row {
	if len(tokens) == 0 {
		return nil
	}

	sorted := make([]Token, len(tokens))
	copy(sorted, tokens)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Top != sorted[j].Top {
			return sorted[i].Top < sorted[j].Top
		}
		return sorted[i].Left < sorted[j].Left
	})

	var rows []Row
	current := Row{Top: roundTenth(sorted[0].Top)}
	for _, tok := range sorted {
		top := roundTenth(tok.Top)
		if math.Abs(top-current.Top) > RowTolerance {
			rows = append(rows, current)
			current = Row{Top: top}
		}
		current.Items = append(current.Items, tok)
	}
	rows = append(rows, current)

	return rows
}

// roundTenth rounds on the exact decimal value of v. Scaling by ten first
// would turn 103.35 (stored just below the half) into a tie.
func roundTenth(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 1, 64), 64)
	if err != nil {
		return v
	}
	return r
}
