package clean

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/climalyze/internal/table"
)

// Month-first before day-first, matching how the source datasets write dates.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"02/01/2006",
	"2006-01",
	"2006",
}

var thousandsGrouping = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d+)?$`)

// ParseDate parses s with the known layouts. Missing tokens and unknown formats
// report false. An explicit offset is kept, so Year and Month stay local to it.
func ParseDate(s string) (time.Time, bool) {
	s = table.NormalizeMissing(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseNumber parses a decimal number. dec selects the decimal separator; 0 means '.'.
// With '.', comma thousands grouping such as 1,234.5 is accepted.
func ParseNumber(s string, dec rune) (float64, bool) {
	raw := table.NormalizeMissing(strings.ReplaceAll(s, "\u00A0", " "))
	if raw == "" {
		return 0, false
	}
	raw = strings.TrimSuffix(raw, "%")
	switch dec {
	case ',':
		raw = strings.ReplaceAll(raw, ".", "")
		raw = strings.ReplaceAll(raw, " ", "")
		raw = strings.ReplaceAll(raw, ",", ".")
	default:
		if thousandsGrouping.MatchString(raw) {
			raw = strings.ReplaceAll(raw, ",", "")
		}
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
