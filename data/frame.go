package data

import (
	"errors"
	"fmt"
	"math"
)

var ErrColumnNotFound = errors.New("column not found")

// Kind is the storage type of a column. Feature routing is decided by Kind alone.
type Kind int

const (
	Numeric Kind = iota
	Categorical
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Column is a single typed column. Numeric cells use NaN for missing values,
// categorical cells carry a separate null mask.
//
// Columns are never mutated once they are part of a Frame; operations that
// change values build a new Column.
type Column struct {
	Name    string
	Kind    Kind
	Numbers []float64
	Texts   []string
	Nulls   []bool
}

func NewNumericColumn(name string, values []float64) *Column {
	return &Column{Name: name, Kind: Numeric, Numbers: values}
}

// NewCategoricalColumn builds a text column. nulls may be nil when no cell is missing.
func NewCategoricalColumn(name string, values []string, nulls []bool) *Column {
	if nulls == nil {
		nulls = make([]bool, len(values))
	}
	return &Column{Name: name, Kind: Categorical, Texts: values, Nulls: nulls}
}

func (c *Column) Len() int {
	if c.Kind == Numeric {
		return len(c.Numbers)
	}
	return len(c.Texts)
}

// IsNull reports whether cell i is missing.
func (c *Column) IsNull(i int) bool {
	if c.Kind == Numeric {
		return math.IsNaN(c.Numbers[i])
	}
	return c.Nulls[i]
}

func (c *Column) take(rows []int) *Column {
	if c.Kind == Numeric {
		values := make([]float64, len(rows))
		for i, row := range rows {
			values[i] = c.Numbers[row]
		}
		return NewNumericColumn(c.Name, values)
	}
	values := make([]string, len(rows))
	nulls := make([]bool, len(rows))
	for i, row := range rows {
		values[i] = c.Texts[row]
		nulls[i] = c.Nulls[row]
	}
	return NewCategoricalColumn(c.Name, values, nulls)
}

// Frame is an ordered set of equally long columns.
type Frame struct {
	columns []*Column
	index   map[string]int
	rows    int
}

func NewFrame(columns ...*Column) (*Frame, error) {
	f := &Frame{
		columns: make([]*Column, 0, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for i, col := range columns {
		if col == nil {
			return nil, fmt.Errorf("column %d is nil", i)
		}
		if _, dup := f.index[col.Name]; dup {
			return nil, fmt.Errorf("duplicate column %q", col.Name)
		}
		if i == 0 {
			f.rows = col.Len()
		} else if col.Len() != f.rows {
			return nil, fmt.Errorf("column %q has %d rows, expected %d", col.Name, col.Len(), f.rows)
		}
		if col.Kind == Categorical && len(col.Nulls) != len(col.Texts) {
			return nil, fmt.Errorf("column %q null mask length mismatch", col.Name)
		}
		f.index[col.Name] = len(f.columns)
		f.columns = append(f.columns, col)
	}
	return f, nil
}

func (f *Frame) Rows() int { return f.rows }

func (f *Frame) Width() int { return len(f.columns) }

func (f *Frame) Names() []string {
	names := make([]string, len(f.columns))
	for i, col := range f.columns {
		names[i] = col.Name
	}
	return names
}

func (f *Frame) Columns() []*Column {
	return append([]*Column(nil), f.columns...)
}

func (f *Frame) Has(name string) bool {
	_, ok := f.index[name]
	return ok
}

func (f *Frame) Column(name string) (*Column, error) {
	idx, ok := f.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, name)
	}
	return f.columns[idx], nil
}

// Drop returns a frame without the named columns. Unknown names are ignored.
func (f *Frame) Drop(names ...string) *Frame {
	skip := make(map[string]bool, len(names))
	for _, name := range names {
		skip[name] = true
	}
	kept := make([]*Column, 0, len(f.columns))
	for _, col := range f.columns {
		if !skip[col.Name] {
			kept = append(kept, col)
		}
	}
	out, _ := NewFrame(kept...)
	if len(kept) == 0 {
		out.rows = f.rows
	}
	return out
}

// Replace returns a frame where the column with col.Name is swapped for col,
// keeping its position.
func (f *Frame) Replace(col *Column) (*Frame, error) {
	idx, ok := f.index[col.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, col.Name)
	}
	columns := f.Columns()
	columns[idx] = col
	return NewFrame(columns...)
}

// Take returns a frame with the given rows, in the given order.
func (f *Frame) Take(rows []int) *Frame {
	columns := make([]*Column, len(f.columns))
	for i, col := range f.columns {
		columns[i] = col.take(rows)
	}
	out, _ := NewFrame(columns...)
	out.rows = len(rows)
	return out
}

// NamesByKind lists column names of the given kind in frame order.
func (f *Frame) NamesByKind(kind Kind) []string {
	names := make([]string, 0, len(f.columns))
	for _, col := range f.columns {
		if col.Kind == kind {
			names = append(names, col.Name)
		}
	}
	return names
}
