package table

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind is the storage representation of a column.
type Kind uint8

const (
	Text Kind = iota
	Number
	Date
)

func (k Kind) String() string {
	switch k {
	case Number:
		return "numeric"
	case Date:
		return "datetime"
	default:
		return "text"
	}
}

// Column is a named sequence of cells stored in the slice matching its Kind.
// Missing values are "" for Text, NaN for Number and the zero time for Date.
type Column struct {
	Name  string
	Kind  Kind
	Text  []string
	Nums  []float64
	Times []time.Time
}

// Table is an ordered set of equally long columns. Names are not required to be unique.
type Table struct {
	Name    string
	Columns []Column
	rows    int
}

// New builds a text table from a header and row-major records. Short records are
// padded with missing cells; extra cells are ignored.
func New(name string, header []string, records [][]string) *Table {
	t := &Table{Name: name, Columns: make([]Column, len(header)), rows: len(records)}
	for j, h := range header {
		cells := make([]string, len(records))
		for i, rec := range records {
			if j < len(rec) {
				cells[i] = NormalizeMissing(rec[j])
			}
		}
		t.Columns[j] = Column{Name: h, Kind: Text, Text: cells}
	}
	return t
}

// FromColumns assembles a table from prepared columns of equal length.
func FromColumns(name string, cols []Column) *Table {
	t := &Table{Name: name, Columns: cols}
	if len(cols) > 0 {
		t.rows = cols[0].Len()
	}
	return t
}

// Empty returns the sentinel used when a dataset could not be loaded.
func Empty(name string) *Table {
	return &Table{Name: name}
}

// Len reports the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return t.rows
}

// Width reports the number of columns.
func (t *Table) Width() int {
	if t == nil {
		return 0
	}
	return len(t.Columns)
}

// IsEmpty is true for tables without columns or without rows.
func (t *Table) IsEmpty() bool { return t.Width() == 0 || t.Len() == 0 }

// Names returns the column names in table order.
func (t *Table) Names() []string {
	out := make([]string, t.Width())
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Index returns the position of the first column with the given name, or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Column returns the first column with the given name.
func (t *Table) Column(name string) (*Column, bool) {
	i := t.Index(name)
	if i < 0 {
		return nil, false
	}
	return &t.Columns[i], true
}

// Row returns the canonical string form of row i.
func (t *Table) Row(i int) []string {
	out := make([]string, len(t.Columns))
	for j := range t.Columns {
		out[j] = t.Columns[j].String(i)
	}
	return out
}

// Filter returns a new table holding the rows for which keep returns true.
func (t *Table) Filter(keep func(i int) bool) *Table {
	idx := make([]int, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		if keep(i) {
			idx = append(idx, i)
		}
	}
	out := &Table{Name: t.Name, Columns: make([]Column, len(t.Columns)), rows: len(idx)}
	for j, c := range t.Columns {
		nc := Column{Name: c.Name, Kind: c.Kind}
		switch c.Kind {
		case Number:
			nc.Nums = make([]float64, len(idx))
			for k, i := range idx {
				nc.Nums[k] = c.Nums[i]
			}
		case Date:
			nc.Times = make([]time.Time, len(idx))
			for k, i := range idx {
				nc.Times[k] = c.Times[i]
			}
		default:
			nc.Text = make([]string, len(idx))
			for k, i := range idx {
				nc.Text[k] = c.Text[i]
			}
		}
		out.Columns[j] = nc
	}
	return out
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	return t.Filter(func(int) bool { return true })
}

// Equal compares names, kinds and canonical cell values. NaN cells compare equal.
func (t *Table) Equal(o *Table) bool {
	if t.Width() != o.Width() || t.Len() != o.Len() {
		return false
	}
	for j := range t.Columns {
		a, b := &t.Columns[j], &o.Columns[j]
		if a.Name != b.Name || a.Kind != b.Kind {
			return false
		}
		for i := 0; i < t.Len(); i++ {
			if a.String(i) != b.String(i) {
				return false
			}
		}
	}
	return true
}

// Missing reports whether cell i holds no value.
func (c *Column) Missing(i int) bool {
	switch c.Kind {
	case Number:
		return math.IsNaN(c.Nums[i])
	case Date:
		return c.Times[i].IsZero()
	default:
		return c.Text[i] == ""
	}
}

// String returns the canonical text of cell i; missing cells are "".
func (c *Column) String(i int) string {
	if c.Missing(i) {
		return ""
	}
	switch c.Kind {
	case Number:
		return strconv.FormatFloat(c.Nums[i], 'g', -1, 64)
	case Date:
		return c.Times[i].Format(time.RFC3339Nano)
	default:
		return c.Text[i]
	}
}

// Float returns the numeric value of cell i.
func (c *Column) Float(i int) (float64, bool) {
	if c.Kind != Number || math.IsNaN(c.Nums[i]) {
		return 0, false
	}
	return c.Nums[i], true
}

// Time returns the date value of cell i.
func (c *Column) Time(i int) (time.Time, bool) {
	if c.Kind != Date || c.Times[i].IsZero() {
		return time.Time{}, false
	}
	return c.Times[i], true
}

// Values returns the non-missing numeric cells.
func (c *Column) Values() []float64 {
	if c.Kind != Number {
		return nil
	}
	out := make([]float64, 0, len(c.Nums))
	for _, v := range c.Nums {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Len reports the number of cells.
func (c *Column) Len() int {
	switch c.Kind {
	case Number:
		return len(c.Nums)
	case Date:
		return len(c.Times)
	default:
		return len(c.Text)
	}
}

var missingTokens = map[string]struct{}{
	"": {}, "na": {}, "n/a": {}, "nan": {}, "-nan": {}, "null": {}, "none": {}, "#n/a": {},
}

// IsMissingToken reports whether s spells a missing value.
func IsMissingToken(s string) bool {
	_, ok := missingTokens[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// NormalizeMissing trims s and maps missing-value tokens to "".
func NormalizeMissing(s string) string {
	s = strings.TrimSpace(s)
	if IsMissingToken(s) {
		return ""
	}
	return s
}
