// Package roles locates logical columns (city, date, temperature, ...) in tables
// whose schemas are not under our control.
//
// Resolution is a pure function of the column names and an ordered keyword list:
// the first keyword that occurs as a substring of any column name wins, and among
// the columns containing it the first in table order is chosen. "Not found" is a
// normal result and callers skip whatever depended on the role.
package roles

import "strings"

// Role is a logical column label.
type Role string

const (
	City        Role = "city"
	Country     Role = "country"
	Pollutant   Role = "pollutant"
	Value       Role = "value"
	Date        Role = "date"
	Temperature Role = "temperature"
)

// Rule binds a role to its keywords in priority order.
type Rule struct {
	Role     Role
	Keywords []string
}

// Match describes a resolved role.
type Match struct {
	Column  string
	Keyword string
	// Candidates lists every column containing Keyword, in table order. More than
	// one candidate means the pick was ambiguous.
	Candidates []string
}

// Ambiguous reports whether other columns matched the winning keyword too.
func (m Match) Ambiguous() bool { return len(m.Candidates) > 1 }

// Normalize applies the column-name normalization used throughout cleaning:
// trim, lowercase, spaces to underscores.
func Normalize(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// Resolve returns the first column containing one of the keywords.
func Resolve(columns []string, keywords []string) (Match, bool) {
	for _, kw := range keywords {
		k := Normalize(kw)
		if k == "" {
			continue
		}
		var m Match
		for _, c := range columns {
			if strings.Contains(Normalize(c), k) {
				if m.Column == "" {
					m.Column = c
					m.Keyword = k
				}
				m.Candidates = append(m.Candidates, c)
			}
		}
		if m.Column != "" {
			return m, true
		}
	}
	return Match{}, false
}

// Assignment maps each resolved role to its match. Unresolved roles are absent.
type Assignment map[Role]Match

// Column returns the column bound to r.
func (a Assignment) Column(r Role) (string, bool) {
	m, ok := a[r]
	return m.Column, ok
}

// ResolveAll applies every rule independently against the same columns.
func ResolveAll(columns []string, rules []Rule) Assignment {
	out := make(Assignment, len(rules))
	for _, r := range rules {
		if m, ok := Resolve(columns, r.Keywords); ok {
			out[r.Role] = m
		}
	}
	return out
}

// Missing lists the roles from rules that were not resolved, in rule order.
func (a Assignment) Missing(rules []Rule) []Role {
	var out []Role
	for _, r := range rules {
		if _, ok := a[r.Role]; !ok {
			out = append(out, r.Role)
		}
	}
	return out
}

// AirQualityRules returns the rule set for OpenAQ-style measurement tables.
func AirQualityRules() []Rule {
	return []Rule{
		{Role: City, Keywords: []string{"city"}},
		{Role: Pollutant, Keywords: []string{"pollutant", "parameter"}},
		{Role: Value, Keywords: []string{"value", "concentration", "pm25", "pm2.5"}},
		{Role: Date, Keywords: []string{"date", "last_updated", "utc"}},
	}
}

// TemperatureRules returns the rule set for land temperature tables.
func TemperatureRules() []Rule {
	return []Rule{
		{Role: Temperature, Keywords: []string{"averagetemperature", "landaveragetemperature", "meantemperature"}},
		{Role: Date, Keywords: []string{"dt", "date"}},
		{Role: Country, Keywords: []string{"country"}},
		{Role: City, Keywords: []string{"city"}},
	}
}

// Keywords returns the keyword list for role r within rules.
func Keywords(rules []Rule, r Role) []string {
	for _, rule := range rules {
		if rule.Role == r {
			return rule.Keywords
		}
	}
	return nil
}
