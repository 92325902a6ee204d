package analysis

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/KaramelBytes/climalyze/internal/table"
)

// StatRows are the describe rows in output order.
var StatRows = []string{"count", "unique", "top", "freq", "mean", "std", "min", "25%", "50%", "75%", "max"}

// ColumnStats is the describe column for one input column. Fields that do not
// apply to the column kind are left unset and render as empty cells.
type ColumnStats struct {
	Name    string
	Kind    table.Kind
	Count   int
	Missing int
	// Text columns.
	Unique int
	Top    string
	Freq   int
	// Number columns; Date columns fill them with Unix seconds.
	HasMoments bool
	Mean       float64
	Std        float64
	Min        float64
	Q1         float64
	Median     float64
	Q3         float64
	Max        float64
}

// Summary is the describe table of one dataset.
type Summary struct {
	Name    string
	Rows    int
	Columns []ColumnStats
}

// Describe computes count, unique, top, freq, mean, std, min, quartiles and max
// for every column of t.
func Describe(name string, t *table.Table) Summary {
	s := Summary{Name: name, Rows: t.Len(), Columns: make([]ColumnStats, 0, t.Width())}
	for j := range t.Columns {
		c := &t.Columns[j]
		cs := ColumnStats{Name: c.Name, Kind: c.Kind}
		switch c.Kind {
		case table.Number:
			fillMoments(&cs, c.Values())
		case table.Date:
			var secs []float64
			for i := 0; i < c.Len(); i++ {
				if ts, ok := c.Time(i); ok {
					secs = append(secs, float64(ts.Unix()))
				}
			}
			fillMoments(&cs, secs)
		default:
			fillCategories(&cs, c)
		}
		cs.Missing = t.Len() - cs.Count
		s.Columns = append(s.Columns, cs)
	}
	return s
}

func fillMoments(cs *ColumnStats, vals []float64) {
	cs.Count = len(vals)
	if len(vals) == 0 {
		return
	}
	cs.HasMoments = true
	cs.Mean, _ = stats.Mean(vals)
	cs.Min, _ = stats.Min(vals)
	cs.Max, _ = stats.Max(vals)
	if len(vals) > 1 {
		cs.Std, _ = stats.StandardDeviationSample(vals)
	} else {
		cs.Std = math.NaN()
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	cs.Q1 = quantile(sorted, 0.25)
	cs.Median = quantile(sorted, 0.5)
	cs.Q3 = quantile(sorted, 0.75)
}

func fillCategories(cs *ColumnStats, c *table.Column) {
	counts := map[string]int{}
	var order []string
	for i := 0; i < c.Len(); i++ {
		if c.Missing(i) {
			continue
		}
		v := c.String(i)
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
		cs.Count++
	}
	cs.Unique = len(counts)
	for _, v := range order {
		if counts[v] > cs.Freq {
			cs.Top, cs.Freq = v, counts[v]
		}
	}
}

// Cell renders the value of stat for the column, or "" when it does not apply.
func (cs ColumnStats) Cell(stat string) string {
	num := func(f float64) string {
		if math.IsNaN(f) {
			return ""
		}
		if cs.Kind == table.Date {
			return time.Unix(int64(f), 0).UTC().Format(time.RFC3339)
		}
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	switch stat {
	case "count":
		return strconv.Itoa(cs.Count)
	case "unique", "top", "freq":
		if cs.Kind != table.Text || cs.Count == 0 {
			return ""
		}
		switch stat {
		case "unique":
			return strconv.Itoa(cs.Unique)
		case "top":
			return cs.Top
		default:
			return strconv.Itoa(cs.Freq)
		}
	}
	if !cs.HasMoments {
		return ""
	}
	switch stat {
	case "mean":
		return num(cs.Mean)
	case "std":
		if cs.Kind == table.Date {
			return ""
		}
		return num(cs.Std)
	case "min":
		return num(cs.Min)
	case "25%":
		return num(cs.Q1)
	case "50%":
		return num(cs.Median)
	case "75%":
		return num(cs.Q3)
	case "max":
		return num(cs.Max)
	}
	return ""
}

// Grid returns the describe table: a header row of column names (first cell
// empty) followed by one row per entry of StatRows.
func (s Summary) Grid() [][]string {
	out := make([][]string, 0, len(StatRows)+1)
	header := make([]string, 0, len(s.Columns)+1)
	header = append(header, "")
	for _, c := range s.Columns {
		header = append(header, c.Name)
	}
	out = append(out, header)
	for _, stat := range StatRows {
		row := make([]string, 0, len(s.Columns)+1)
		row = append(row, stat)
		for _, c := range s.Columns {
			row = append(row, c.Cell(stat))
		}
		out = append(out, row)
	}
	return out
}

// WriteCSV writes the describe grid to path.
func (s Summary) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create summary: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(s.Grid()); err != nil {
		f.Close()
		return fmt.Errorf("write summary: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close summary: %w", err)
	}
	return nil
}
