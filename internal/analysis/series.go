package analysis

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/KaramelBytes/climalyze/internal/table"
)

// DefaultTopN is the ranking length used when callers pass n <= 0.
const DefaultTopN = 10

var (
	// ErrNoColumn is returned when a named column does not exist.
	ErrNoColumn = errors.New("column not found")
	// ErrColumnKind is returned when a column has the wrong kind for an operation.
	ErrColumnKind = errors.New("unexpected column kind")
)

// Point is one aggregated value. X is the numeric position of time keys
// (the year, or year plus month fraction) and the index for categories.
type Point struct {
	Key   string
	X     float64
	Value float64
	Count int
}

// Series is an ordered sequence of aggregated points.
type Series []Point

// Keys returns the point keys in order.
func (s Series) Keys() []string {
	out := make([]string, len(s))
	for i, p := range s {
		out[i] = p.Key
	}
	return out
}

// Values returns the point values in order.
func (s Series) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Value
	}
	return out
}

// Lookup returns the value stored under key.
func (s Series) Lookup(key string) (float64, bool) {
	for _, p := range s {
		if p.Key == key {
			return p.Value, true
		}
	}
	return 0, false
}

func dateAndNumber(t *table.Table, dateCol, valueCol string) (*table.Column, *table.Column, error) {
	d, ok := t.Column(dateCol)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrNoColumn, dateCol)
	}
	if d.Kind != table.Date {
		return nil, nil, fmt.Errorf("%w: %s is %s, want datetime", ErrColumnKind, dateCol, d.Kind)
	}
	v, err := number(t, valueCol)
	if err != nil {
		return nil, nil, err
	}
	return d, v, nil
}

func number(t *table.Table, name string) (*table.Column, error) {
	c, ok := t.Column(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoColumn, name)
	}
	if c.Kind != table.Number {
		return nil, fmt.Errorf("%w: %s is %s, want numeric", ErrColumnKind, name, c.Kind)
	}
	return c, nil
}

type bucket struct {
	x     float64
	sum   float64
	count int
}

// meanBy groups rows with a date and value present by key(date).
func meanBy(d, v *table.Column, n int, key func(time.Time) (string, float64)) Series {
	groups := map[string]*bucket{}
	for i := 0; i < n; i++ {
		ts, ok := d.Time(i)
		if !ok {
			continue
		}
		x, ok := v.Float(i)
		if !ok {
			continue
		}
		k, pos := key(ts)
		b := groups[k]
		if b == nil {
			b = &bucket{x: pos}
			groups[k] = b
		}
		b.sum += x
		b.count++
	}
	return collect(groups)
}

func collect(groups map[string]*bucket) Series {
	out := make(Series, 0, len(groups))
	for k, b := range groups {
		out = append(out, Point{Key: k, X: b.x, Value: b.sum / float64(b.count), Count: b.count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// YearlyMean averages valueCol per calendar year of dateCol, sorted by year.
func YearlyMean(t *table.Table, dateCol, valueCol string) (Series, error) {
	d, v, err := dateAndNumber(t, dateCol, valueCol)
	if err != nil {
		return nil, fmt.Errorf("yearly mean: %w", err)
	}
	return meanBy(d, v, t.Len(), func(ts time.Time) (string, float64) {
		return fmt.Sprintf("%04d", ts.Year()), float64(ts.Year())
	}), nil
}

// MonthlyMean averages valueCol per year-month of dateCol, sorted by month.
func MonthlyMean(t *table.Table, dateCol, valueCol string) (Series, error) {
	d, v, err := dateAndNumber(t, dateCol, valueCol)
	if err != nil {
		return nil, fmt.Errorf("monthly mean: %w", err)
	}
	return meanBy(d, v, t.Len(), func(ts time.Time) (string, float64) {
		return fmt.Sprintf("%04d-%02d", ts.Year(), int(ts.Month())), float64(ts.Year()) + float64(ts.Month()-1)/12
	}), nil
}

// GroupMean averages valueCol per distinct value of keyCol, sorted by key.
// Rows with a missing key or value are ignored.
func GroupMean(t *table.Table, keyCol, valueCol string) (Series, error) {
	k, ok := t.Column(keyCol)
	if !ok {
		return nil, fmt.Errorf("group mean: %w: %s", ErrNoColumn, keyCol)
	}
	v, err := number(t, valueCol)
	if err != nil {
		return nil, fmt.Errorf("group mean: %w", err)
	}
	groups := map[string]*bucket{}
	for i := 0; i < t.Len(); i++ {
		if k.Missing(i) {
			continue
		}
		x, ok := v.Float(i)
		if !ok {
			continue
		}
		key := k.String(i)
		b := groups[key]
		if b == nil {
			b = &bucket{}
			groups[key] = b
		}
		b.sum += x
		b.count++
	}
	return index(collect(groups)), nil
}

// TopN returns the n highest points by value, ties broken by key. The input is not modified.
func TopN(s Series, n int) Series {
	if n <= 0 {
		n = DefaultTopN
	}
	out := append(Series(nil), s...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Value == out[j].Value {
			return out[i].Key < out[j].Key
		}
		return out[i].Value > out[j].Value
	})
	if len(out) > n {
		out = out[:n]
	}
	return index(out)
}

// ValueShares counts rows per distinct value of col and keeps the n most frequent.
// Point values are counts; renderers derive percentages.
func ValueShares(t *table.Table, col string, n int) (Series, error) {
	c, ok := t.Column(col)
	if !ok {
		return nil, fmt.Errorf("value shares: %w: %s", ErrNoColumn, col)
	}
	groups := map[string]*bucket{}
	for i := 0; i < t.Len(); i++ {
		if c.Missing(i) {
			continue
		}
		key := c.String(i)
		b := groups[key]
		if b == nil {
			b = &bucket{}
			groups[key] = b
		}
		b.count++
		b.sum++
	}
	out := make(Series, 0, len(groups))
	for k, b := range groups {
		out = append(out, Point{Key: k, Value: float64(b.count), Count: b.count})
	}
	return TopN(out, n), nil
}

// FirstNumeric returns the name of the first Number column of t.
func FirstNumeric(t *table.Table) (string, bool) {
	for _, c := range t.Columns {
		if c.Kind == table.Number {
			return c.Name, true
		}
	}
	return "", false
}

func index(s Series) Series {
	for i := range s {
		s[i].X = float64(i)
	}
	return s
}
