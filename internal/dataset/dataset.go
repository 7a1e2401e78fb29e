package dataset

import (
	"fmt"
	"sort"
)

// ColumnType is the declared type of a column.
type ColumnType int

const (
	// TypeMixed accepts any cell kind.
	TypeMixed ColumnType = iota
	TypeInteger
	TypeFloat
	TypeText
	TypeTimestamp
	TypeBool
)

func (t ColumnType) String() string {
	switch t {
	case TypeMixed:
		return "mixed"
	case TypeInteger:
		return "integer"
	case TypeFloat:
		return "float"
	case TypeText:
		return "text"
	case TypeTimestamp:
		return "timestamp"
	case TypeBool:
		return "bool"
	}
	return fmt.Sprintf("type(%d)", int(t))
}

// Accepts reports whether a cell of kind k may be stored in a column of type t.
func (t ColumnType) Accepts(k Kind) bool {
	if k == KindNull || t == TypeMixed {
		return true
	}
	switch t {
	case TypeInteger:
		return k == KindInt
	case TypeFloat:
		return k == KindFloat || k == KindInt
	case TypeText:
		return k == KindText
	case TypeTimestamp:
		return k == KindTime
	case TypeBool:
		return k == KindBool
	}
	return false
}

// Numeric reports whether the column type holds numbers only.
func (t ColumnType) Numeric() bool { return t == TypeInteger || t == TypeFloat }

// Column describes one column of a Dataset.
type Column struct {
	Name string
	Type ColumnType
}

// Dataset is an in-memory table of typed cells. Rows are aligned with the
// column list. Column names may repeat; lookups resolve to the first match.
type Dataset struct {
	cols  []Column
	index map[string]int
	rows  [][]Value
}

// New creates an empty Dataset with the given columns.
func New(cols ...Column) *Dataset {
	d := &Dataset{cols: append([]Column(nil), cols...)}
	d.reindex()
	return d
}

func (d *Dataset) reindex() {
	d.index = make(map[string]int, len(d.cols))
	for i, c := range d.cols {
		if _, ok := d.index[c.Name]; !ok {
			d.index[c.Name] = i
		}
	}
}

// Append adds a row. The row must have one cell per column and every cell
// must fit its column type.
func (d *Dataset) Append(row ...Value) error {
	if len(row) != len(d.cols) {
		return fmt.Errorf("append row: got %d cells, want %d", len(row), len(d.cols))
	}
	for j, v := range row {
		if !d.cols[j].Type.Accepts(v.Kind()) {
			return Mismatch(d.cols[j].Name, "%s cell in %s column", v.Kind(), d.cols[j].Type)
		}
	}
	d.rows = append(d.rows, append([]Value(nil), row...))
	return nil
}

// MustAppend is Append for fixtures; it panics on error.
func (d *Dataset) MustAppend(row ...Value) *Dataset {
	if err := d.Append(row...); err != nil {
		panic(err)
	}
	return d
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.rows) }

// Width returns the number of columns.
func (d *Dataset) Width() int { return len(d.cols) }

// Columns returns a copy of the column descriptors.
func (d *Dataset) Columns() []Column { return append([]Column(nil), d.cols...) }

// Names returns the column names in order.
func (d *Dataset) Names() []string {
	out := make([]string, len(d.cols))
	for i, c := range d.cols {
		out[i] = c.Name
	}
	return out
}

// Has reports whether a column with the given name exists.
func (d *Dataset) Has(name string) bool {
	_, ok := d.index[name]
	return ok
}

// Index returns the position of the named column.
func (d *Dataset) Index(name string) (int, error) {
	i, ok := d.index[name]
	if !ok {
		return -1, NotFound(name)
	}
	return i, nil
}

// Column returns the descriptor of the named column.
func (d *Dataset) Column(name string) (Column, error) {
	i, err := d.Index(name)
	if err != nil {
		return Column{}, err
	}
	return d.cols[i], nil
}

// Require checks that every name exists, returning the first missing one.
func (d *Dataset) Require(names ...string) error {
	for _, n := range names {
		if !d.Has(n) {
			return NotFound(n)
		}
	}
	return nil
}

// Row returns a copy of row i.
func (d *Dataset) Row(i int) []Value { return append([]Value(nil), d.rows[i]...) }

// At returns the cell at row i, column j.
func (d *Dataset) At(i, j int) Value { return d.rows[i][j] }

// Cell returns the cell at row i of the named column.
func (d *Dataset) Cell(i int, name string) (Value, error) {
	j, err := d.Index(name)
	if err != nil {
		return Value{}, err
	}
	return d.rows[i][j], nil
}

// Values returns a copy of the named column's cells.
func (d *Dataset) Values(name string) ([]Value, error) {
	j, err := d.Index(name)
	if err != nil {
		return nil, err
	}
	out := make([]Value, len(d.rows))
	for i, r := range d.rows {
		out[i] = r[j]
	}
	return out, nil
}

// Floats returns the non-null numeric cells of the named column. A non-null
// cell that is not numeric is a TypeMismatch.
func (d *Dataset) Floats(name string) ([]float64, error) {
	j, err := d.Index(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(d.rows))
	for i, r := range d.rows {
		v := r[j]
		if v.IsNull() {
			continue
		}
		f, ok := v.AsFloat()
		if !ok {
			return nil, Mismatch(name, "row %d holds %s, want number", i, v.Kind())
		}
		out = append(out, f)
	}
	return out, nil
}

// Set stores v at row i, column j after checking the column type.
func (d *Dataset) Set(i, j int, v Value) error {
	if !d.cols[j].Type.Accepts(v.Kind()) {
		return Mismatch(d.cols[j].Name, "%s cell in %s column", v.Kind(), d.cols[j].Type)
	}
	d.rows[i][j] = v
	return nil
}

// SetType changes the declared type of column j. Every cell must fit the new type.
func (d *Dataset) SetType(j int, t ColumnType) error {
	for i, r := range d.rows {
		if !t.Accepts(r[j].Kind()) {
			return Mismatch(d.cols[j].Name, "row %d holds %s, cannot become %s", i, r[j].Kind(), t)
		}
	}
	d.cols[j].Type = t
	return nil
}

// ReplaceColumn swaps column j for a new type and cell slice of the same length.
func (d *Dataset) ReplaceColumn(j int, t ColumnType, vals []Value) error {
	if len(vals) != len(d.rows) {
		return fmt.Errorf("replace column %q: got %d cells, want %d", d.cols[j].Name, len(vals), len(d.rows))
	}
	for i, v := range vals {
		if !t.Accepts(v.Kind()) {
			return Mismatch(d.cols[j].Name, "row %d holds %s, cannot be %s", i, v.Kind(), t)
		}
	}
	d.cols[j].Type = t
	for i := range d.rows {
		d.rows[i][j] = vals[i]
	}
	return nil
}

// Rename sets the name of column j.
func (d *Dataset) Rename(j int, name string) {
	d.cols[j].Name = name
	d.reindex()
}

// InsertColumn inserts a column at position pos (0..Width). vals must have
// one cell per row.
func (d *Dataset) InsertColumn(pos int, col Column, vals []Value) error {
	if pos < 0 || pos > len(d.cols) {
		return fmt.Errorf("%w: insert position %d outside 0..%d", ErrInvalidConfiguration, pos, len(d.cols))
	}
	if len(vals) != len(d.rows) {
		return fmt.Errorf("insert column %q: got %d cells, want %d", col.Name, len(vals), len(d.rows))
	}
	for i, v := range vals {
		if !col.Type.Accepts(v.Kind()) {
			return Mismatch(col.Name, "row %d holds %s, cannot be %s", i, v.Kind(), col.Type)
		}
	}
	d.cols = append(d.cols, Column{})
	copy(d.cols[pos+1:], d.cols[pos:])
	d.cols[pos] = col
	for i, r := range d.rows {
		r = append(r, Value{})
		copy(r[pos+1:], r[pos:])
		r[pos] = vals[i]
		d.rows[i] = r
	}
	d.reindex()
	return nil
}

// AddColumn appends a column at the end.
func (d *Dataset) AddColumn(col Column, vals []Value) error {
	return d.InsertColumn(len(d.cols), col, vals)
}

// DropColumn removes every column with the given name. Missing names are ignored.
func (d *Dataset) DropColumn(name string) {
	keep := make([]int, 0, len(d.cols))
	for j, c := range d.cols {
		if c.Name != name {
			keep = append(keep, j)
		}
	}
	if len(keep) == len(d.cols) {
		return
	}
	cols := make([]Column, len(keep))
	for k, j := range keep {
		cols[k] = d.cols[j]
	}
	for i, r := range d.rows {
		nr := make([]Value, len(keep))
		for k, j := range keep {
			nr[k] = r[j]
		}
		d.rows[i] = nr
	}
	d.cols = cols
	d.reindex()
}

// Clone returns a deep copy. Cells are values, so copying rows is enough.
func (d *Dataset) Clone() *Dataset {
	c := &Dataset{cols: append([]Column(nil), d.cols...), rows: make([][]Value, len(d.rows))}
	for i, r := range d.rows {
		c.rows[i] = append([]Value(nil), r...)
	}
	c.reindex()
	return c
}

// Select returns a new Dataset holding copies of the given rows, in order.
func (d *Dataset) Select(rows []int) *Dataset {
	c := &Dataset{cols: append([]Column(nil), d.cols...), rows: make([][]Value, len(rows))}
	for k, i := range rows {
		c.rows[k] = append([]Value(nil), d.rows[i]...)
	}
	c.reindex()
	return c
}

// Filter returns a new Dataset with the rows for which keep returns true.
func (d *Dataset) Filter(keep func(i int, row []Value) bool) *Dataset {
	var idx []int
	for i, r := range d.rows {
		if keep(i, r) {
			idx = append(idx, i)
		}
	}
	return d.Select(idx)
}

// SortedOrder returns row positions stably sorted by the named columns,
// ascending, nulls last.
func (d *Dataset) SortedOrder(names ...string) ([]int, error) {
	js := make([]int, len(names))
	for k, n := range names {
		j, err := d.Index(n)
		if err != nil {
			return nil, err
		}
		js[k] = j
	}
	order := make([]int, len(d.rows))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ra, rb := d.rows[order[a]], d.rows[order[b]]
		for _, j := range js {
			if c := ra[j].Compare(rb[j]); c != 0 {
				return c < 0
			}
		}
		return false
	})
	return order, nil
}

// SortStable returns a new Dataset sorted by the named columns.
func (d *Dataset) SortStable(names ...string) (*Dataset, error) {
	order, err := d.SortedOrder(names...)
	if err != nil {
		return nil, err
	}
	return d.Select(order), nil
}
