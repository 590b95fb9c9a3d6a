package layout

// ReconstructPage turns the tokens of a single page into its cell grid.
// A page without tokens yields no rows.
func ReconstructPage(tokens []Token) [][]string {
	rows := ClusterRows(tokens)
	if len(rows) == 0 {
		return nil
	}
	return AlignColumns(rows)
}

// Assemble concatenates the grids of all pages in page order. Each page keeps
// its own anchor set; rows from different pages are not reconciled and may
// differ in length. An empty Table means no page produced any row.
func Assemble(pages []Page) Table {
	var table Table
	for _, page := range pages {
		table = append(table, ReconstructPage(page.Tokens)...)
	}
	return table
}
