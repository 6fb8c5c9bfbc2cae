// Package table holds the in-memory tabular model shared by the readers,
// the analysis engine and the writers.
package table

// Row is one positional record. Values is aligned to the owning Table's
// Columns; a nil entry is an absent cell.
type Row struct {
	Values []any
	Line   int // 1-based data row number in the source file, 0 if unknown
}

// Table is an ordered set of named columns plus positional rows.
type Table struct {
	Columns []string
	Rows    []Row
}

// New returns an empty table with a copy of columns.
func New(columns []string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols}
}

// Index returns the position of the named column, or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Has reports whether the named column exists.
func (t *Table) Has(name string) bool {
	return t.Index(name) >= 0
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Value returns the cell at row i in the named column, or nil when the
// column does not exist or the row is short.
func (t *Table) Value(i int, name string) any {
	ix := t.Index(name)
	if ix < 0 || i < 0 || i >= len(t.Rows) {
		return nil
	}
	return t.Rows[i].Cell(ix)
}

// Cell returns the value at position ix, or nil when out of range.
func (r Row) Cell(ix int) any {
	if ix < 0 || ix >= len(r.Values) {
		return nil
	}
	return r.Values[ix]
}

// Append adds a row of values. Values are copied and padded or truncated to
// the column count.
func (t *Table) Append(line int, values ...any) {
	v := make([]any, len(t.Columns))
	copy(v, values)
	t.Rows = append(t.Rows, Row{Values: v, Line: line})
}

// Head returns a table sharing the first n rows of t. A negative n or an n
// larger than the table returns every row.
func (t *Table) Head(n int) *Table {
	out := New(t.Columns)
	if n < 0 || n > len(t.Rows) {
		n = len(t.Rows)
	}
	out.Rows = append(out.Rows, t.Rows[:n]...)
	return out
}

// Clone returns a deep copy of t. Cell values are immutable scalars, so
// copying the slices is enough.
func (t *Table) Clone() *Table {
	out := New(t.Columns)
	out.Rows = make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		v := make([]any, len(r.Values))
		copy(v, r.Values)
		out.Rows[i] = Row{Values: v, Line: r.Line}
	}
	return out
}

// Missing returns the names from want that are not columns of t, in the
// order given.
func (t *Table) Missing(want ...string) []string {
	var missing []string
	for _, w := range want {
		if !t.Has(w) {
			missing = append(missing, w)
		}
	}
	return missing
}
