package eval

// Table is the columns+rows interchange format between the evaluator and
// the compilers. Rows are positionally aligned with Columns.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// EmptyTable returns a table that encodes as {"columns":[],"rows":[]}.
func EmptyTable() Table {
	return Table{Columns: []string{}, Rows: [][]string{}}
}

// IsEmpty reports whether the table has no rows.
func (t Table) IsEmpty() bool {
	return len(t.Rows) == 0
}

// Index returns the position of column, or -1.
func (t Table) Index(column string) int {
	for i, c := range t.Columns {
		if c == column {
			return i
		}
	}
	return -1
}

// Has reports whether the table has column.
func (t Table) Has(column string) bool {
	return t.Index(column) >= 0
}

// Value returns the cell of row i under column, or "" when either is missing.
func (t Table) Value(i int, column string) string {
	if i < 0 || i >= len(t.Rows) {
		return ""
	}
	idx := t.Index(column)
	if idx < 0 || idx >= len(t.Rows[i]) {
		return ""
	}
	return t.Rows[i][idx]
}

// Results holds the four tables produced for one program.
type Results struct {
	Graph   Table `json:"graph"`
	Nodes   Table `json:"nodes"`
	Edges   Table `json:"edges"`
	Ranking Table `json:"ranking"`
}
