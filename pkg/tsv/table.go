// Package tsv reads and writes tab-delimited tables with a header row.
//
// Tables are held fully in memory. Missing cells (short rows) are padded with
// the empty string, which is also how a missing value is represented.
// Files ending in .gz or .zst are transparently (de)compressed.
package tsv

// Table is a header plus rows of string cells.
type Table struct {
	Header []string
	Rows   [][]string

	// Source is the file the table was read from, used in error messages.
	Source string
}

// NewTable creates an empty table with a copy of header.
func NewTable(header ...string) *Table {
	return &Table{Header: append([]string(nil), header...)}
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// ColumnIndex returns the index of the first column named name, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the table has a column named name.
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// Cell returns the value at row, col or "" when the row is short.
func (t *Table) Cell(row, col int) string {
	r := t.Rows[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return r[col]
}

// AppendRow adds a row, padding or keeping it as given.
func (t *Table) AppendRow(cells ...string) {
	t.Rows = append(t.Rows, append([]string(nil), cells...))
}

// SetColumn writes values into the column named name, appending the column
// when it does not exist yet. values must have one entry per row.
func (t *Table) SetColumn(name string, values []string) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		t.Header = append(t.Header, name)
		idx = len(t.Header) - 1
	}

	for i := range t.Rows {
		row := t.Rows[i]
		for len(row) <= idx {
			row = append(row, "")
		}
		row[idx] = values[i]
		t.Rows[i] = row
	}
}
