// Package clean turns loaded tables into clean tables: normalized names, typed
// date and numeric columns, no rows missing required values, no duplicates.
//
// Every step is idempotent, so cleaning an already clean table returns an equal
// table.
package clean

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/KaramelBytes/climalyze/internal/roles"
	"github.com/KaramelBytes/climalyze/internal/table"
)

// Options controls which columns are coerced and which rows are dropped.
type Options struct {
	// SplitSeparator re-splits single-column tables. Empty means ",".
	SplitSeparator string
	// DateColumns names (after normalization) the columns coerced to dates.
	DateColumns []string
	// DateKeywords resolves a date column when none of DateColumns exists.
	DateKeywords []string
	// RequiredKeywords selects numeric columns that rows must have a value in.
	RequiredKeywords []string
	// InferNumeric converts text columns whose values all parse as numbers.
	InferNumeric bool
	// DecimalSeparator for numeric parsing; 0 means '.'.
	DecimalSeparator rune
}

// DefaultOptions drops rows missing temperature-like values and infers numbers.
func DefaultOptions() Options {
	return Options{
		SplitSeparator:   ",",
		RequiredKeywords: []string{"average", "temperature"},
		InferNumeric:     true,
	}
}

// TemperatureOptions is used for the land temperature datasets.
func TemperatureOptions() Options {
	o := DefaultOptions()
	o.DateColumns = []string{"dt"}
	o.DateKeywords = roles.Keywords(roles.TemperatureRules(), roles.Date)
	return o
}

// AirQualityOptions is used for measurement datasets such as OpenAQ exports.
func AirQualityOptions() Options {
	o := DefaultOptions()
	o.DateKeywords = roles.Keywords(roles.AirQualityRules(), roles.Date)
	return o
}

// Report summarizes what a Clean call changed.
type Report struct {
	RowsIn         int
	RowsOut        int
	Resplit        bool
	DateColumn     string
	InvalidDates   int
	Required       []string
	DroppedMissing int
	DroppedEmpty   int
	Duplicates     int
	Numeric        []string
}

// Message renders a one-line summary.
func (r Report) Message() string {
	var b strings.Builder
	fmt.Fprintf(&b, "rows %d → %d", r.RowsIn, r.RowsOut)
	var parts []string
	if r.Resplit {
		parts = append(parts, "re-split single column")
	}
	if r.DroppedMissing > 0 {
		parts = append(parts, fmt.Sprintf("%d missing required", r.DroppedMissing))
	}
	if r.DroppedEmpty > 0 {
		parts = append(parts, fmt.Sprintf("%d empty", r.DroppedEmpty))
	}
	if r.Duplicates > 0 {
		parts = append(parts, fmt.Sprintf("%d duplicates", r.Duplicates))
	}
	if r.InvalidDates > 0 {
		parts = append(parts, fmt.Sprintf("%d unparseable dates in %s", r.InvalidDates, r.DateColumn))
	}
	if len(parts) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(parts, ", "))
		b.WriteString(")")
	}
	return b.String()
}

// Clean returns a cleaned copy of t. The input table is not modified.
func Clean(t *table.Table, opt Options) (*table.Table, Report) {
	rep := Report{RowsIn: t.Len()}
	if t.Width() == 0 {
		return table.Empty(t.Name), rep
	}
	out := t.Clone()

	if out.Width() == 1 && out.Columns[0].Kind == table.Text {
		sep := opt.SplitSeparator
		if sep == "" {
			sep = ","
		}
		if split, ok := resplit(out, sep); ok {
			out = split
			rep.Resplit = true
		}
	}

	for j := range out.Columns {
		out.Columns[j].Name = roles.Normalize(out.Columns[j].Name)
	}

	if j := dateColumn(out, opt); j >= 0 {
		rep.DateColumn = out.Columns[j].Name
		rep.InvalidDates = coerceDates(&out.Columns[j])
	}

	var required []int
	for j := range out.Columns {
		c := &out.Columns[j]
		if !containsAny(c.Name, opt.RequiredKeywords) || c.Kind == table.Date {
			continue
		}
		coerceNumbers(c, opt.DecimalSeparator)
		required = append(required, j)
		rep.Required = append(rep.Required, c.Name)
	}
	if len(required) > 0 {
		src := out
		out = src.Filter(func(i int) bool {
			for _, j := range required {
				if src.Columns[j].Missing(i) {
					return false
				}
			}
			return true
		})
		rep.DroppedMissing = src.Len() - out.Len()
	}

	if opt.InferNumeric {
		for j := range out.Columns {
			c := &out.Columns[j]
			if c.Kind == table.Text && allNumeric(c, opt.DecimalSeparator) {
				coerceNumbers(c, opt.DecimalSeparator)
				rep.Numeric = append(rep.Numeric, c.Name)
			}
		}
	}

	src := out
	out = src.Filter(func(i int) bool {
		for j := range src.Columns {
			if !src.Columns[j].Missing(i) {
				return true
			}
		}
		return false
	})
	rep.DroppedEmpty = src.Len() - out.Len()

	src = out
	seen := make(map[string]struct{}, src.Len())
	out = src.Filter(func(i int) bool {
		key := strings.Join(src.Row(i), "\x1f")
		if _, dup := seen[key]; dup {
			return false
		}
		seen[key] = struct{}{}
		return true
	})
	rep.Duplicates = src.Len() - out.Len()

	rep.RowsOut = out.Len()
	return out, rep
}

// resplit splits the only column of t on sep. Header parts name the new columns;
// positions beyond the header are named column_<n>. It reports false when no cell
// contains sep.
func resplit(t *table.Table, sep string) (*table.Table, bool) {
	src := t.Columns[0]
	names := strings.Split(src.Name, sep)
	parts := make([][]string, len(src.Text))
	width := len(names)
	for i, cell := range src.Text {
		parts[i] = strings.Split(cell, sep)
		if len(parts[i]) > width {
			width = len(parts[i])
		}
	}
	if width <= 1 {
		return nil, false
	}
	cols := make([]table.Column, width)
	for j := range cols {
		name := fmt.Sprintf("column_%d", j+1)
		if j < len(names) && strings.TrimSpace(names[j]) != "" {
			name = strings.TrimSpace(names[j])
		}
		cells := make([]string, len(parts))
		for i, p := range parts {
			if j < len(p) {
				cells[i] = table.NormalizeMissing(p[j])
			}
		}
		cols[j] = table.Column{Name: name, Kind: table.Text, Text: cells}
	}
	return table.FromColumns(t.Name, cols), true
}

func dateColumn(t *table.Table, opt Options) int {
	for _, name := range opt.DateColumns {
		if j := t.Index(roles.Normalize(name)); j >= 0 {
			return j
		}
	}
	if len(opt.DateKeywords) == 0 {
		return -1
	}
	m, ok := roles.Resolve(t.Names(), opt.DateKeywords)
	if !ok {
		return -1
	}
	return t.Index(m.Column)
}

// coerceDates converts a text column to dates and returns how many non-missing
// values failed to parse. Number and Date columns are left alone.
func coerceDates(c *table.Column) int {
	if c.Kind != table.Text {
		return 0
	}
	times := make([]time.Time, len(c.Text))
	invalid := 0
	for i, s := range c.Text {
		if s == "" {
			continue
		}
		if ts, ok := ParseDate(s); ok {
			times[i] = ts
		} else {
			invalid++
		}
	}
	*c = table.Column{Name: c.Name, Kind: table.Date, Times: times}
	return invalid
}

func coerceNumbers(c *table.Column, dec rune) {
	if c.Kind != table.Text {
		return
	}
	nums := make([]float64, len(c.Text))
	for i, s := range c.Text {
		if f, ok := ParseNumber(s, dec); ok {
			nums[i] = f
		} else {
			nums[i] = math.NaN()
		}
	}
	*c = table.Column{Name: c.Name, Kind: table.Number, Nums: nums}
}

func allNumeric(c *table.Column, dec rune) bool {
	seen := false
	for _, s := range c.Text {
		if s == "" {
			continue
		}
		if _, ok := ParseNumber(s, dec); !ok {
			return false
		}
		seen = true
	}
	return seen
}

func containsAny(name string, keywords []string) bool {
	for _, k := range keywords {
		if k != "" && strings.Contains(name, roles.Normalize(k)) {
			return true
		}
	}
	return false
}
