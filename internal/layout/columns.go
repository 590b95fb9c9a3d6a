package layout

import (
	"math"
	"sort"
)

// Anchors returns the sorted distinct column positions of a page: every
// token's Left rounded to the nearest integer (half to even).
func Anchors(rows []Row) []int {
	seen := make(map[int]struct{})
	for _, row := range rows {
		for _, tok := range row.Items {
			seen[roundLeft(tok.Left)] = struct{}{}
		}
	}

	anchors := make([]int, 0, len(seen))
	for x := range seen {
		anchors = append(anchors, x)
	}
	sort.Ints(anchors)
	return anchors
}

// AlignColumns snaps every token of every row onto the page's anchor set and
// returns one fixed-width cell sequence per row. Tokens landing on an already
// filled cell are appended after a single space, in row order.
func AlignColumns(rows []Row) [][]string {
	anchors := Anchors(rows)
	grid := make([][]string, 0, len(rows))

	for _, row := range rows {
		cells := make([]string, len(anchors))
		for _, tok := range row.Items {
			idx := nearestAnchor(anchors, roundLeft(tok.Left))
			if idx < 0 {
				continue
			}
			if cells[idx] != "" {
				cells[idx] += " " + tok.Text
			} else {
				cells[idx] = tok.Text
			}
		}
		grid = append(grid, cells)
	}

	return grid
}

// nearestAnchor returns the index of the anchor closest to x. Ties resolve to
// the lowest index. It returns -1 for an empty anchor set.
func nearestAnchor(anchors []int, x int) int {
	best := -1
	bestDist := 0
	for i, a := range anchors {
		d := a - x
		if d < 0 {
			d = -d
		}
		if best < 0 || d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}

func roundLeft(v float64) int {
	return int(math.RoundToEven(v))
}
