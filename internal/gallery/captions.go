package gallery

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/KaramelBytes/climalyze/internal/config"
)

// DefaultDescription is shown for charts without a known caption.
const DefaultDescription = "This visualization provides analytical insight into air quality and climate interactions."

var builtinCaptions = map[string]config.Caption{
	"top_10_polluted_cities": {
		Caption: "Top 10 Polluted Cities (Global Overview)",
		Description: "This visual highlights the most polluted cities worldwide based on particulate matter concentration (PM2.5/PM10). " +
			"These regions represent critical zones where industrialization, traffic emissions, and lack of air regulations have led to extreme air quality deterioration.",
	},
	"top_10_hottest_countries": {
		Caption: "Top 10 Hottest Countries on Record",
		Description: "This chart presents the countries with the highest average land temperatures. " +
			"It reflects the intensifying global warming trends, particularly across arid and equatorial regions.",
	},
	"global_temperature_trend": {
		Caption: "Global Temperature Trend (1850–2023)",
		Description: "A time-series visualization of average global land temperatures. " +
			"The rising trend clearly illustrates the effect of greenhouse gas accumulation and human-induced climate change.",
	},
	"pollutant_distribution": {
		Caption: "Pollutant Distribution Analysis",
		Description: "This distribution chart compares the occurrence frequency of pollutant levels across measurement sites. " +
			"It provides insight into how often air quality reaches critical thresholds in sampled regions.",
	},
	"correlation_heatmap": {
		Caption: "Correlation Between Environmental Factors",
		Description: "The heatmap represents statistical correlations between pollutants, temperature, and humidity levels. " +
			"Strong relationships highlight how climate conditions amplify or mitigate air pollution severity.",
	},
}

// Captions resolves chart stems to gallery text.
type Captions struct {
	table map[string]config.Caption
}

// NewCaptions merges overrides over the built-in table. Empty override fields
// keep the built-in text.
func NewCaptions(overrides map[string]config.Caption) *Captions {
	t := make(map[string]config.Caption, len(builtinCaptions)+len(overrides))
	for k, v := range builtinCaptions {
		t[k] = v
	}
	for k, v := range overrides {
		cur := t[k]
		if v.Caption != "" {
			cur.Caption = v.Caption
		}
		if v.Description != "" {
			cur.Description = v.Description
		}
		t[k] = cur
	}
	return &Captions{table: t}
}

// Lookup returns the caption and description for a file stem.
func (c *Captions) Lookup(stem string) (caption, desc string) {
	e := c.table[stem]
	caption, desc = e.Caption, e.Description
	if caption == "" {
		// Casers are stateful; one per call keeps handlers goroutine safe.
		caption = cases.Title(language.English).String(strings.ReplaceAll(stem, "_", " "))
	}
	if desc == "" {
		desc = DefaultDescription
	}
	return caption, desc
}
