package analysis

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/climalyze/internal/table"
)

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func temps() *table.Table {
	return table.FromColumns("temps", []table.Column{
		{Name: "dt", Kind: table.Date, Times: []time.Time{day(2020, 1, 15), day(2020, 2, 15), day(2021, 1, 15), {}}},
		{Name: "averagetemperature", Kind: table.Number, Nums: []float64{10, 12, 11, 99}},
		{Name: "country", Kind: table.Text, Text: []string{"France", "France", "Spain", "Spain"}},
	})
}

func TestYearlyMean(t *testing.T) {
	s, err := YearlyMean(temps(), "dt", "averagetemperature")
	require.NoError(t, err)
	assert.Equal(t, []string{"2020", "2021"}, s.Keys())
	assert.Equal(t, []float64{11, 11}, s.Values())
	assert.Equal(t, 2020.0, s[0].X)
	assert.Equal(t, 2, s[0].Count)
}

func TestMonthlyMean(t *testing.T) {
	s, err := MonthlyMean(temps(), "dt", "averagetemperature")
	require.NoError(t, err)
	assert.Equal(t, []string{"2020-01", "2020-02", "2021-01"}, s.Keys())
	assert.Equal(t, []float64{10, 12, 11}, s.Values())
	assert.InDelta(t, 2020+1.0/12, s[1].X, 1e-9)
}

func TestMeans_ColumnErrors(t *testing.T) {
	_, err := YearlyMean(temps(), "missing", "averagetemperature")
	assert.True(t, errors.Is(err, ErrNoColumn))
	_, err = YearlyMean(temps(), "country", "averagetemperature")
	assert.True(t, errors.Is(err, ErrColumnKind))
	_, err = GroupMean(temps(), "country", "dt")
	assert.True(t, errors.Is(err, ErrColumnKind))
}

func TestGroupMeanAndTopN(t *testing.T) {
	tb := table.FromColumns("aq", []table.Column{
		{Name: "city", Kind: table.Text, Text: []string{"Delhi", "Paris", "Delhi", "Lima", "", "Oslo"}},
		{Name: "value", Kind: table.Number, Nums: []float64{100, 20, 200, 20, 5, math.NaN()}},
	})
	s, err := GroupMean(tb, "city", "value")
	require.NoError(t, err)
	assert.Equal(t, []string{"Delhi", "Lima", "Paris"}, s.Keys())

	top := TopN(s, 2)
	assert.Equal(t, []string{"Delhi", "Lima"}, top.Keys(), "ties break by key")
	assert.Equal(t, []float64{150, 20}, top.Values())
	assert.Equal(t, 1.0, top[1].X)
	assert.Equal(t, []string{"Delhi", "Lima", "Paris"}, s.Keys(), "input untouched")

	assert.Len(t, TopN(s, 0), 3)
}

func TestValueShares(t *testing.T) {
	tb := table.New("aq", []string{"pollutant"}, [][]string{{"pm25"}, {"no2"}, {"pm25"}, {""}, {"o3"}, {"pm25"}, {"no2"}})
	s, err := ValueShares(tb, "pollutant", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"pm25", "no2"}, s.Keys())
	assert.Equal(t, []float64{3, 2}, s.Values())
}

func series(pairs ...any) Series {
	var s Series
	for i := 0; i < len(pairs); i += 2 {
		s = append(s, Point{Key: pairs[i].(string), Value: pairs[i+1].(float64)})
	}
	return s
}

func TestCorrelate_PerfectLinear(t *testing.T) {
	a := series("2018", 1.0, "2019", 2.0, "2020", 3.0, "2021", 4.0)
	b := series("2019", 5.0, "2020", 7.0, "2021", 9.0, "2022", 11.0)
	c, err := Correlate(a, b)
	require.NoError(t, err)
	assert.Equal(t, []string{"2019", "2020", "2021"}, c.Keys)
	assert.InDelta(t, 1.0, c.R, 1e-12)
	assert.InDelta(t, 2.0, c.Slope, 1e-9)
	assert.InDelta(t, 1.0, c.Intercept, 1e-9)

	inv := series("2019", -5.0, "2020", -7.0, "2021", -9.0)
	c, err = Correlate(a, inv)
	require.NoError(t, err)
	assert.InDelta(t, -1.0, c.R, 1e-12)
}

func TestCorrelate_InsufficientData(t *testing.T) {
	a := series("2019", 1.0, "2020", 2.0)
	for _, b := range []Series{nil, series("2020", 3.0), series("1999", 1.0, "2000", 2.0)} {
		_, err := Correlate(a, b)
		assert.ErrorIs(t, err, ErrInsufficientData)
	}
}

func TestCorrelate_ZeroVarianceIsUndefined(t *testing.T) {
	a := series("1", 1.0, "2", 1.0, "3", 1.0)
	b := series("1", 1.0, "2", 2.0, "3", 3.0)
	_, err := Correlate(a, b)
	assert.ErrorIs(t, err, ErrUndefined)
}

func TestCorrelations_PairwiseComplete(t *testing.T) {
	tb := table.FromColumns("m", []table.Column{
		{Name: "a", Kind: table.Number, Nums: []float64{1, 2, 3, 4, math.NaN()}},
		{Name: "b", Kind: table.Number, Nums: []float64{2, 4, 6, 8, 100}},
		{Name: "c", Kind: table.Number, Nums: []float64{4, 3, 2, 1, 0}},
		{Name: "label", Kind: table.Text, Text: []string{"x", "y", "z", "w", "v"}},
	})
	m, err := Correlations(tb)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, m.Columns)
	assert.InDelta(t, 1.0, m.Values[0][1], 1e-12)
	assert.InDelta(t, -1.0, m.Values[0][2], 1e-12)
	assert.Equal(t, m.Values[1][2], m.Values[2][1])
	assert.Equal(t, 4, m.N[0][1])
	assert.Equal(t, 5, m.N[1][2])
	assert.Equal(t, 1.0, m.Values[1][1])

	top := m.TopPairs(2)
	require.Len(t, top, 2)
	assert.InDelta(t, 1.0, math.Abs(top[0].R), 1e-12)

	_, err = Correlations(table.New("t", []string{"x"}, [][]string{{"1"}}))
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestDescribe(t *testing.T) {
	tb := table.FromColumns("d", []table.Column{
		{Name: "v", Kind: table.Number, Nums: []float64{1, 2, 3, 4, math.NaN()}},
		{Name: "city", Kind: table.Text, Text: []string{"Paris", "Lyon", "Paris", "", "Nice"}},
	})
	s := Describe("d", tb)
	require.Len(t, s.Columns, 2)

	v := s.Columns[0]
	assert.Equal(t, 4, v.Count)
	assert.Equal(t, 1, v.Missing)
	assert.InDelta(t, 2.5, v.Mean, 1e-12)
	assert.InDelta(t, 1.2909944, v.Std, 1e-6)
	assert.Equal(t, 1.75, v.Q1)
	assert.Equal(t, 2.5, v.Median)
	assert.Equal(t, 3.25, v.Q3)
	assert.Equal(t, "", v.Cell("top"))

	c := s.Columns[1]
	assert.Equal(t, 4, c.Count)
	assert.Equal(t, 3, c.Unique)
	assert.Equal(t, "Paris", c.Top)
	assert.Equal(t, 2, c.Freq)
	assert.Equal(t, "", c.Cell("mean"))

	grid := s.Grid()
	require.Len(t, grid, len(StatRows)+1)
	assert.Equal(t, []string{"", "v", "city"}, grid[0])
	assert.Equal(t, []string{"count", "4", "4"}, grid[1])
	assert.Equal(t, []string{"top", "", "Paris"}, grid[3])
}

func TestSummaryFiles(t *testing.T) {
	dir := t.TempDir()
	s := Describe("country_temp", temps())

	csvPath := filepath.Join(dir, "country_temp_summary.csv")
	require.NoError(t, s.WriteCSV(csvPath))
	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, ",dt,averagetemperature,country", lines[0])
	assert.Len(t, lines, len(StatRows)+1)

	xlsxPath := filepath.Join(dir, "summaries.xlsx")
	other := Describe("air_quality", table.New("aq", []string{"city"}, [][]string{{"Delhi"}}))
	require.NoError(t, WriteWorkbook(xlsxPath, []Summary{s, other}))

	f, err := excelize.OpenFile(xlsxPath)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"country_temp", "air_quality"}, f.GetSheetList())
	v, err := f.GetCellValue("country_temp", "C2")
	require.NoError(t, err)
	assert.Equal(t, "4", v)
}

func TestSheetNameIsUniqueAndShort(t *testing.T) {
	used := map[string]bool{}
	long := strings.Repeat("x", 40)
	a := sheetName(long, used)
	used[a] = true
	b := sheetName(long, used)
	assert.Len(t, a, 31)
	assert.Len(t, b, 31)
	assert.NotEqual(t, a, b)
	assert.Equal(t, "a_b", sheetName("a/b", used))
}

func TestReportMarkdown(t *testing.T) {
	s := Describe("country_temp", temps())
	c, err := Correlate(series("1", 1.0, "2", 2.0), series("1", 2.0, "2", 4.0))
	require.NoError(t, err)
	r := &Report{
		RunID: "run-1",
		Datasets: []DatasetEntry{{
			Name: "country_temp", File: "c.csv", Status: "loaded", Rows: 4, Cols: 3,
			Roles: map[string]string{"temperature": "averagetemperature", "date": "dt"}, Summary: &s,
		}},
		Correlation: &c,
		CorrLabel:   "temperature ~ aqi",
		Steps:       []StepEntry{{Name: "global_temperature_trend", State: "skipped", Detail: "dataset | missing"}},
		Warnings:    []string{"value resolved ambiguously"},
	}
	md := r.Markdown()
	for _, want := range []string{
		"[RUN SUMMARY]", "Run: run-1", "shape (4, 3)", "roles: date=dt, temperature=averagetemperature",
		"[SCHEMA: country_temp]", "- country: text", "temperature ~ aqi: r=1.000 over 2 aligned keys",
		"| global_temperature_trend | skipped | dataset / missing |", "[NOTES]",
	} {
		assert.Contains(t, md, want)
	}
}
