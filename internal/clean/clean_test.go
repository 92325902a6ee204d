package clean

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/climalyze/internal/table"
)

func temperatureTable() *table.Table {
	return table.New("GlobalLandTemperaturesByCountry.csv",
		[]string{"dt", "AverageTemperature", "AverageTemperatureUncertainty", "Country"},
		[][]string{
			{"2020-01-01", "10", "0.5", "France"},
			{"2020-06-01", "12", "0.4", "France"},
			{"2020-06-01", "12", "0.4", "France"},
			{"2021-01-01", "", "0.3", "France"},
			{"not-a-date", "8.5", "0.2", "Spain"},
			{"", "", "", ""},
		})
}

func TestClean_TemperatureTable(t *testing.T) {
	out, rep := Clean(temperatureTable(), TemperatureOptions())

	assert.Equal(t, []string{"dt", "averagetemperature", "averagetemperatureuncertainty", "country"}, out.Names())
	assert.Equal(t, 6, rep.RowsIn)
	assert.Equal(t, 3, rep.RowsOut)
	assert.Equal(t, 2, rep.DroppedMissing)
	assert.Equal(t, 1, rep.Duplicates)
	assert.Equal(t, "dt", rep.DateColumn)
	assert.Equal(t, 1, rep.InvalidDates)

	dt, ok := out.Column("dt")
	require.True(t, ok)
	assert.Equal(t, table.Date, dt.Kind)
	ts, ok := dt.Time(0)
	require.True(t, ok)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), ts)
	assert.True(t, dt.Missing(2), "unparseable date becomes missing")

	temp, _ := out.Column("averagetemperature")
	assert.Equal(t, table.Number, temp.Kind)
	assert.Equal(t, []float64{10, 12, 8.5}, temp.Values())

	country, _ := out.Column("country")
	assert.Equal(t, table.Text, country.Kind)
}

func TestClean_Idempotent(t *testing.T) {
	inputs := []*table.Table{
		temperatureTable(),
		table.New("aq.csv", []string{"City", "Value", "Last Updated"}, [][]string{
			{"Delhi", "180", "2020-01-01 10:00:00"},
			{"Delhi", "180", "2020-01-01 10:00:00"},
			{"Paris", "n/a", "2020-02-01 10:00:00"},
			{"Lyon", "abc", ""},
		}),
		table.New("single.csv", []string{"city,value,date"}, [][]string{
			{"Delhi,180,2020-01-01"},
			{"Paris,20"},
		}),
	}
	for _, in := range inputs {
		t.Run(in.Name, func(t *testing.T) {
			once, _ := Clean(in, AirQualityOptions())
			twice, rep := Clean(once, AirQualityOptions())
			assert.True(t, once.Equal(twice), "clean(clean(t)) differs from clean(t)")
			assert.Equal(t, rep.RowsIn, rep.RowsOut)
			assert.False(t, rep.Resplit)
		})
	}
}

func TestClean_DoesNotModifyInput(t *testing.T) {
	in := temperatureTable()
	before := in.Clone()
	Clean(in, TemperatureOptions())
	assert.True(t, in.Equal(before))
}

func TestClean_ResplitsDegradedLoad(t *testing.T) {
	p := filepath.Join(t.TempDir(), "openaq.csv")
	content := "\"city,value,date\"\n\"Delhi,180,2020-01-01\"\n\"Paris,20,2020-02-01\"\n"
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))

	res := table.Load(p, table.LoadOptions{})
	require.Equal(t, table.StatusDegraded, res.Status)

	out, rep := Clean(res.Table, AirQualityOptions())
	assert.True(t, rep.Resplit)
	assert.Equal(t, []string{"city", "value", "date"}, out.Names())
	assert.Equal(t, 2, out.Len())

	value, _ := out.Column("value")
	assert.Equal(t, table.Number, value.Kind)
	assert.Equal(t, []float64{180, 20}, value.Values())

	date, _ := out.Column("date")
	assert.Equal(t, table.Date, date.Kind)
	assert.Contains(t, rep.Message(), "re-split single column")
}

func TestClean_ResplitNamesExtraColumns(t *testing.T) {
	in := table.New("x.csv", []string{"a"}, [][]string{{"1,2"}, {"3"}})
	out, rep := Clean(in, Options{SplitSeparator: ","})
	require.True(t, rep.Resplit)
	assert.Equal(t, []string{"a", "column_2"}, out.Names())
	c, _ := out.Column("column_2")
	assert.True(t, c.Missing(1))
}

func TestClean_SingleColumnWithoutSeparatorIsKept(t *testing.T) {
	in := table.New("x.csv", []string{"City"}, [][]string{{"Paris"}, {"Lyon"}})
	out, rep := Clean(in, DefaultOptions())
	assert.False(t, rep.Resplit)
	assert.Equal(t, []string{"city"}, out.Names())
	assert.Equal(t, 2, out.Len())
}

func TestClean_InfersNumericOnlyWhenEveryValueParses(t *testing.T) {
	in := table.New("x.csv", []string{"a", "b", "c"}, [][]string{
		{"1,234.5", "x", ""},
		{"7", "8", ""},
	})
	out, rep := Clean(in, DefaultOptions())
	assert.Equal(t, []string{"a"}, rep.Numeric)
	a, _ := out.Column("a")
	assert.Equal(t, []float64{1234.5, 7}, a.Values())
	b, _ := out.Column("b")
	assert.Equal(t, table.Text, b.Kind)
	c, _ := out.Column("c")
	assert.Equal(t, table.Text, c.Kind, "all-missing column stays text")
}

func TestClean_EmptyInput(t *testing.T) {
	out, rep := Clean(table.Empty("gone.csv"), DefaultOptions())
	assert.True(t, out.IsEmpty())
	assert.Equal(t, 0, rep.RowsOut)
}

func TestParseDate(t *testing.T) {
	cases := map[string]time.Time{
		"2020-01-02":                time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
		"2020-01-02T03:04:05Z":      time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC),
		"2020-01-02 03:04:05+02:00": time.Date(2020, 1, 2, 1, 4, 5, 0, time.UTC),
		"01/02/2020":                time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
		"1/2/2020":                  time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
		"2020-07":                   time.Date(2020, 7, 1, 0, 0, 0, 0, time.UTC),
	}
	for in, want := range cases {
		got, ok := ParseDate(in)
		if assert.True(t, ok, in) {
			assert.True(t, want.Equal(got), "%s: got %s", in, got)
		}
	}
	for _, bad := range []string{"", "NaN", "yesterday", "2020-13-45"} {
		_, ok := ParseDate(bad)
		assert.False(t, ok, bad)
	}
}

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in   string
		dec  rune
		want float64
		ok   bool
	}{
		{"12.5", 0, 12.5, true},
		{" -3 ", 0, -3, true},
		{"1,234,567.25", 0, 1234567.25, true},
		{"45%", 0, 45, true},
		{"1.234,5", ',', 1234.5, true},
		{"1,5", 0, 0, false},
		{"NaN", 0, 0, false},
		{"Inf", 0, 0, false},
		{"abc", 0, 0, false},
		{"", 0, 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseNumber(tc.in, tc.dec)
		assert.Equal(t, tc.ok, ok, tc.in)
		if tc.ok {
			assert.InDelta(t, tc.want, got, 1e-9, tc.in)
		}
	}
}

func TestParseDate_KeepsLocalCalendar(t *testing.T) {
	got, ok := ParseDate("2020-01-01T00:30:00+02:00")
	require.True(t, ok)
	assert.Equal(t, 2020, got.Year())
	assert.Equal(t, time.January, got.Month())
	assert.True(t, time.Date(2019, 12, 31, 22, 30, 0, 0, time.UTC).Equal(got))
}

func TestClean_SubSecondTimestampsAreNotDuplicates(t *testing.T) {
	in := table.New("openaq.csv", []string{"city", "value", "date"}, [][]string{
		{"Paris", "20", "2020-01-01T10:00:00.100Z"},
		{"Paris", "20", "2020-01-01T10:00:00.200Z"},
		{"Paris", "20", "2020-01-01T10:00:00.200Z"},
	})
	out, rep := Clean(in, AirQualityOptions())
	assert.Equal(t, 2, out.Len())
	assert.Equal(t, 1, rep.Duplicates)
}

func TestClean_OffsetDateKeepsLocalYear(t *testing.T) {
	in := table.New("openaq.csv", []string{"city", "value", "date"}, [][]string{
		{"Athens", "40", "2020-01-01T00:30:00+02:00"},
	})
	out, _ := Clean(in, AirQualityOptions())
	d, ok := out.Column("date")
	require.True(t, ok)
	ts, ok := d.Time(0)
	require.True(t, ok)
	assert.Equal(t, 2020, ts.Year())
}
