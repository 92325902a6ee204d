package pipeline

import (
	"fmt"
	"image/color"

	"github.com/KaramelBytes/climalyze/internal/analysis"
	"github.com/KaramelBytes/climalyze/internal/render"
	"github.com/KaramelBytes/climalyze/internal/roles"
)

// Chart names. The gallery keys its captions on these.
const (
	ChartPollutedCities   = "top_10_polluted_cities"
	ChartHottestCountries = "top_10_hottest_countries"
	ChartGlobalTrend      = "global_temperature_trend"
	ChartTempVsAQI        = "temp_vs_aqi_correlation"
	ChartPollutants       = "pollutant_distribution"
	ChartAirDistribution  = "air_quality_distribution"
	ChartHeatmap          = "correlation_heatmap"
	trendSuffix           = "_temp_trend"
)

// TrendChart names the monthly trend chart of a dataset.
func TrendChart(dataset string) string { return dataset + trendSuffix }

type planned struct {
	name  string
	build func() (render.Chart, error)
}

func (r *runner) plan() []planned {
	p := []planned{
		{ChartPollutedCities, r.pollutedCities},
		{ChartHottestCountries, r.hottestCountries},
		{ChartGlobalTrend, r.globalTrend},
		{ChartTempVsAQI, r.tempVsAQI},
		{ChartPollutants, r.pollutants},
		{ChartAirDistribution, r.airDistribution},
		{ChartHeatmap, r.heatmap},
	}
	for _, name := range r.cfg.TrendDatasets {
		p = append(p, planned{TrendChart(name), func() (render.Chart, error) { return r.monthlyTrend(name) }})
	}
	return p
}

func (r *runner) charts() {
	for _, c := range r.plan() {
		spec, err := c.build()
		if err != nil {
			r.record(outcome(c.name, "", err))
			continue
		}
		spec.Name = c.name
		spec.WidthIn, spec.HeightIn = r.cfg.ChartWidthIn, r.cfg.ChartHeightIn
		path, err := render.Render(spec, r.cfg.VisualsDir)
		r.record(outcome(c.name, path, err))
	}
}

func (r *runner) pollutedCities() (render.Chart, error) {
	d, err := r.usable(r.cfg.AirDataset)
	if err != nil {
		return render.Chart{}, err
	}
	cols, err := columns(d, roles.City, roles.Value)
	if err != nil {
		return render.Chart{}, err
	}
	s, err := analysis.GroupMean(d.Table, cols[0], cols[1])
	if err != nil {
		return render.Chart{}, err
	}
	return render.Chart{
		Kind:   render.Bar,
		Title:  fmt.Sprintf("Top %d Most Polluted Cities", r.cfg.TopN),
		XLabel: "Average Pollution Level",
		YLabel: "City",
		Series: analysis.TopN(s, r.cfg.TopN),
		Color:  color.RGBA{R: 0x9b, G: 0x2c, B: 0x4c, A: 0xff},
	}, nil
}

func (r *runner) hottestCountries() (render.Chart, error) {
	d, err := r.usable(r.cfg.CountryDataset)
	if err != nil {
		return render.Chart{}, err
	}
	cols, err := columns(d, roles.Country, roles.Temperature)
	if err != nil {
		return render.Chart{}, err
	}
	s, err := analysis.GroupMean(d.Table, cols[0], cols[1])
	if err != nil {
		return render.Chart{}, err
	}
	return render.Chart{
		Kind:   render.Bar,
		Title:  fmt.Sprintf("Top %d Hottest Countries (Average Temperature)", r.cfg.TopN),
		XLabel: "Average Temperature (°C)",
		YLabel: "Country",
		Series: analysis.TopN(s, r.cfg.TopN),
		Color:  color.RGBA{R: 0xe0, G: 0x5a, B: 0x2b, A: 0xff},
	}, nil
}

func (r *runner) yearlyTemperature() (analysis.Series, error) {
	d, err := r.usable(r.cfg.GlobalDataset)
	if err != nil {
		return nil, err
	}
	cols, err := columns(d, roles.Date, roles.Temperature)
	if err != nil {
		return nil, err
	}
	return analysis.YearlyMean(d.Table, cols[0], cols[1])
}

func (r *runner) globalTrend() (render.Chart, error) {
	s, err := r.yearlyTemperature()
	if err != nil {
		return render.Chart{}, err
	}
	return render.Chart{
		Kind:   render.Line,
		Title:  "Global Average Temperature Trend",
		XLabel: "Year",
		YLabel: "Temperature (°C)",
		Series: s,
		Color:  color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	}, nil
}

// tempVsAQI correlates yearly temperature with the yearly air-quality value.
func (r *runner) tempVsAQI() (render.Chart, error) {
	temp, err := r.yearlyTemperature()
	if err != nil {
		return render.Chart{}, err
	}
	d, err := r.usable(r.cfg.AirDataset)
	if err != nil {
		return render.Chart{}, err
	}
	cols, err := columns(d, roles.Date, roles.Value)
	if err != nil {
		return render.Chart{}, err
	}
	aqi, err := analysis.YearlyMean(d.Table, cols[0], cols[1])
	if err != nil {
		return render.Chart{}, err
	}
	c, err := analysis.Correlate(temp, aqi)
	if err != nil {
		return render.Chart{}, err
	}
	r.rep.Correlation = &c
	r.rep.CorrLabel = "yearly temperature ~ yearly air quality"
	rv := c.R
	r.man.Correlation = &rv
	r.out.Info("Correlation between temperature and AQI: %.3f (%d years)", c.R, c.N())
	return render.Chart{
		Kind:   render.Scatter,
		Title:  fmt.Sprintf("Temperature vs AQI Correlation (r=%.2f)", c.R),
		XLabel: "Average Temperature (°C)",
		YLabel: "Average AQI",
		X:      c.X,
		Y:      c.Y,
		Fit:    &render.Fit{Slope: c.Slope, Intercept: c.Intercept},
		Color:  color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	}, nil
}

func (r *runner) pollutants() (render.Chart, error) {
	d, err := r.usable(r.cfg.AirDataset)
	if err != nil {
		return render.Chart{}, err
	}
	cols, err := columns(d, roles.Pollutant)
	if err != nil {
		return render.Chart{}, err
	}
	s, err := analysis.ValueShares(d.Table, cols[0], r.cfg.TopN)
	if err != nil {
		return render.Chart{}, err
	}
	return render.Chart{Kind: render.Pie, Title: "Pollutant Distribution", Series: s}, nil
}

func (r *runner) airDistribution() (render.Chart, error) {
	d, err := r.usable(r.cfg.AirDataset)
	if err != nil {
		return render.Chart{}, err
	}
	col, ok := analysis.FirstNumeric(d.Table)
	if !ok {
		return render.Chart{}, skipf("no numeric columns in %s", d.Spec.Name)
	}
	c, _ := d.Table.Column(col)
	return render.Chart{
		Kind:   render.Histogram,
		Title:  fmt.Sprintf("Distribution of %s (Air Quality)", col),
		XLabel: col,
		Values: c.Values(),
		Color:  color.RGBA{R: 0x00, G: 0x80, B: 0x80, A: 0xff},
	}, nil
}

func (r *runner) heatmap() (render.Chart, error) {
	d, err := r.usable(r.cfg.AirDataset)
	if err != nil {
		return render.Chart{}, err
	}
	m, err := analysis.Correlations(d.Table)
	if err != nil {
		return render.Chart{}, err
	}
	r.rep.Matrix = m
	return render.Chart{Kind: render.Heatmap, Title: "Correlation Between Environmental Factors", Matrix: m}, nil
}

func (r *runner) monthlyTrend(name string) (render.Chart, error) {
	d, err := r.usable(name)
	if err != nil {
		return render.Chart{}, err
	}
	cols, err := columns(d, roles.Date, roles.Temperature)
	if err != nil {
		return render.Chart{}, err
	}
	s, err := analysis.MonthlyMean(d.Table, cols[0], cols[1])
	if err != nil {
		return render.Chart{}, err
	}
	return render.Chart{
		Kind:   render.Line,
		Title:  fmt.Sprintf("%s - Average Temperature Trend", name),
		XLabel: "Year",
		YLabel: "Temperature (°C)",
		Series: s,
		Color:  color.RGBA{R: 0x41, G: 0x69, B: 0xe1, A: 0xff},
	}, nil
}
