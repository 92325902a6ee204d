package roles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_KeywordOrderBeatsColumnOrder(t *testing.T) {
	cols := []string{"location", "pm25_reading", "value"}
	m, ok := Resolve(cols, []string{"value", "pm25"})
	require.True(t, ok)
	assert.Equal(t, "value", m.Column)
	assert.Equal(t, "value", m.Keyword)
}

func TestResolve_FirstColumnWinsForSameKeyword(t *testing.T) {
	cols := []string{"dt", "averagetemperature", "averagetemperatureuncertainty"}
	m, ok := Resolve(cols, []string{"averagetemperature"})
	require.True(t, ok)
	assert.Equal(t, "averagetemperature", m.Column)
	assert.True(t, m.Ambiguous())
	assert.Equal(t, []string{"averagetemperature", "averagetemperatureuncertainty"}, m.Candidates)
}

func TestResolve_NotFound(t *testing.T) {
	_, ok := Resolve([]string{"a", "b"}, []string{"city"})
	assert.False(t, ok)
	_, ok = Resolve(nil, []string{"city"})
	assert.False(t, ok)
	_, ok = Resolve([]string{"city"}, nil)
	assert.False(t, ok)
}

func TestResolve_NormalizesKeywordsAndColumns(t *testing.T) {
	m, ok := Resolve([]string{"Country", "Last Updated"}, []string{"last updated"})
	require.True(t, ok)
	assert.Equal(t, "Last Updated", m.Column)
}

func TestResolve_DeterministicAcrossCalls(t *testing.T) {
	cols := []string{"City", "Pollutant", "Value", "Source Value", "Last Updated"}
	rules := AirQualityRules()
	first := ResolveAll(cols, rules)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, ResolveAll(cols, rules))
	}
	c, ok := first.Column(Value)
	require.True(t, ok)
	assert.Equal(t, "Value", c)
	assert.True(t, first[Value].Ambiguous())
}

func TestResolveAll_Missing(t *testing.T) {
	rules := TemperatureRules()
	a := ResolveAll([]string{"dt", "LandAverageTemperature"}, rules)
	col, ok := a.Column(Temperature)
	require.True(t, ok)
	assert.Equal(t, "LandAverageTemperature", col)
	assert.Equal(t, []Role{Country, City}, a.Missing(rules))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "last_updated", Normalize("  Last Updated "))
	assert.Equal(t, Normalize("Last Updated"), Normalize(Normalize("Last Updated")))
}
