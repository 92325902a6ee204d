// Package render draws aggregated series to PNG files with gonum/plot.
//
// Every chart is written to <dir>/<name>.png. Empty or degenerate inputs are
// reported as errors before anything is drawn, and panics raised while drawing
// are converted to errors so one bad chart never stops a run.
package render

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/KaramelBytes/climalyze/internal/analysis"
)

// Kind selects the chart type.
type Kind string

const (
	Line      Kind = "line"
	Bar       Kind = "bar"
	Histogram Kind = "histogram"
	Pie       Kind = "pie"
	Scatter   Kind = "scatter"
	Heatmap   Kind = "heatmap"
)

var (
	// ErrEmptySeries means there was nothing to draw.
	ErrEmptySeries = errors.New("empty series")
	// ErrDegenerate means the input cannot produce a meaningful chart.
	ErrDegenerate = errors.New("degenerate series")
)

// Default chart size in inches.
const (
	DefaultWidth  = 10.0
	DefaultHeight = 6.0
)

// Fit is a least-squares line drawn over a scatter chart.
type Fit struct {
	Slope     float64
	Intercept float64
}

// Chart describes one image. Which data field is read depends on Kind:
// Series for line, bar and pie; Values for histogram; X and Y for scatter;
// Matrix for heatmap.
type Chart struct {
	Name   string
	Kind   Kind
	Title  string
	XLabel string
	YLabel string

	Series analysis.Series
	Values []float64
	X, Y   []float64
	Fit    *Fit
	Matrix *analysis.CorrMatrix

	// Bins for histograms; 0 picks a bin count from the sample size.
	Bins int
	// Size in inches; zero values use the defaults.
	WidthIn  float64
	HeightIn float64
	Color    color.Color
}

// Path returns the file a chart is written to.
func Path(dir, name string) string { return filepath.Join(dir, name+".png") }

// Render validates c, draws it and saves it under dir.
func Render(c Chart, dir string) (path string, err error) {
	if c.Name == "" || c.Name != filepath.Base(c.Name) || strings.ContainsAny(c.Name, `/\`) {
		return "", fmt.Errorf("render: invalid chart name %q", c.Name)
	}
	defer func() {
		if r := recover(); r != nil {
			path = ""
			err = fmt.Errorf("render %s: panic: %v", c.Name, r)
		}
	}()

	p := plot.New()
	p.Title.Text = c.Title
	p.X.Label.Text = c.XLabel
	p.Y.Label.Text = c.YLabel

	switch c.Kind {
	case Line:
		err = line(p, c)
	case Bar:
		err = bar(p, c)
	case Histogram:
		err = histogram(p, c)
	case Pie:
		err = pie(p, c)
	case Scatter:
		err = scatter(p, c)
	case Heatmap:
		err = heatmap(p, c)
	default:
		err = fmt.Errorf("unknown chart kind %q", c.Kind)
	}
	if err != nil {
		return "", fmt.Errorf("render %s: %w", c.Name, err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	w, h := c.WidthIn, c.HeightIn
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	path = Path(dir, c.Name)
	if err := p.Save(vg.Length(w)*vg.Inch, vg.Length(h)*vg.Inch, path); err != nil {
		return "", fmt.Errorf("save %s: %w", c.Name, err)
	}
	return path, nil
}

func colorOr(c color.Color, i int) color.Color {
	if c != nil {
		return c
	}
	return plotutil.Color(i)
}

func finite(vals []float64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

func line(p *plot.Plot, c Chart) error {
	pts := make(plotter.XYs, 0, len(c.Series))
	for _, pt := range c.Series {
		if math.IsNaN(pt.Value) {
			continue
		}
		pts = append(pts, plotter.XY{X: pt.X, Y: pt.Value})
	}
	switch {
	case len(pts) == 0:
		return ErrEmptySeries
	case len(pts) < 2:
		return fmt.Errorf("%w: line needs two points, got %d", ErrDegenerate, len(pts))
	}
	l, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	l.LineStyle.Color = colorOr(c.Color, 0)
	l.LineStyle.Width = vg.Points(1.5)
	p.Add(plotter.NewGrid(), l)
	return nil
}

// bar draws a ranked horizontal bar chart with the first point on top.
func bar(p *plot.Plot, c Chart) error {
	if len(c.Series) == 0 {
		return ErrEmptySeries
	}
	n := len(c.Series)
	vals := make(plotter.Values, n)
	names := make([]string, n)
	for i, pt := range c.Series {
		if math.IsNaN(pt.Value) {
			return fmt.Errorf("%w: missing value for %q", ErrDegenerate, pt.Key)
		}
		vals[n-1-i] = pt.Value
		names[n-1-i] = pt.Key
	}
	b, err := plotter.NewBarChart(vals, vg.Points(14))
	if err != nil {
		return err
	}
	b.Horizontal = true
	b.Color = colorOr(c.Color, 1)
	b.LineStyle.Width = 0
	p.Add(plotter.NewGrid(), b)
	p.NominalY(names...)
	return nil
}

func histogram(p *plot.Plot, c Chart) error {
	vals := finite(c.Values)
	if len(vals) == 0 {
		return ErrEmptySeries
	}
	lo, hi := vals[0], vals[0]
	for _, v := range vals {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	if lo == hi {
		return fmt.Errorf("%w: every value is %g", ErrDegenerate, lo)
	}
	bins := c.Bins
	if bins <= 0 {
		bins = int(math.Ceil(math.Sqrt(float64(len(vals)))))
		bins = max(5, min(bins, 40))
	}
	h, err := plotter.NewHist(plotter.Values(vals), bins)
	if err != nil {
		return err
	}
	h.FillColor = colorOr(c.Color, 2)
	h.LineStyle.Width = vg.Points(0.5)
	p.Add(h)
	if p.Y.Label.Text == "" {
		p.Y.Label.Text = "Count"
	}
	return nil
}

func scatter(p *plot.Plot, c Chart) error {
	if len(c.X) != len(c.Y) {
		return fmt.Errorf("scatter: %d x values for %d y values", len(c.X), len(c.Y))
	}
	pts := make(plotter.XYs, 0, len(c.X))
	for i := range c.X {
		if math.IsNaN(c.X[i]) || math.IsNaN(c.Y[i]) {
			continue
		}
		pts = append(pts, plotter.XY{X: c.X[i], Y: c.Y[i]})
	}
	switch {
	case len(pts) == 0:
		return ErrEmptySeries
	case len(pts) < 2:
		return fmt.Errorf("%w: scatter needs two points, got %d", ErrDegenerate, len(pts))
	}
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	s.GlyphStyle.Color = colorOr(c.Color, 1)
	s.GlyphStyle.Radius = vg.Points(4)
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(plotter.NewGrid(), s)

	if c.Fit != nil {
		xmin, xmax, _, _ := plotter.XYRange(pts)
		fit := *c.Fit
		f := plotter.NewFunction(func(x float64) float64 { return fit.Intercept + fit.Slope*x })
		f.XMin, f.XMax = xmin, xmax
		f.Samples = 2
		f.Color = plotutil.Color(0)
		f.Width = vg.Points(2)
		p.Add(f)
		p.Legend.Add(fmt.Sprintf("y = %.3g + %.3g·x", fit.Intercept, fit.Slope), f)
		p.Legend.Top = true
	}
	return nil
}

// corrGrid adapts a correlation matrix to plotter.GridXYZ. Row 0 is drawn at the top.
type corrGrid struct{ m *analysis.CorrMatrix }

func (g corrGrid) Dims() (c, r int)   { n := len(g.m.Columns); return n, n }
func (g corrGrid) Z(c, r int) float64 { return g.m.Values[len(g.m.Columns)-1-r][c] }
func (g corrGrid) X(c int) float64    { return float64(c) }
func (g corrGrid) Y(r int) float64    { return float64(r) }

func heatmap(p *plot.Plot, c Chart) error {
	if c.Matrix == nil || len(c.Matrix.Columns) == 0 {
		return ErrEmptySeries
	}
	n := len(c.Matrix.Columns)
	if n < 2 {
		return fmt.Errorf("%w: heatmap needs two columns", ErrDegenerate)
	}
	cm := moreland.SmoothBlueRed()
	cm.SetMin(-1)
	cm.SetMax(1)
	g := corrGrid{c.Matrix}
	h := plotter.NewHeatMap(g, cm.Palette(255))
	h.Min, h.Max = -1, 1
	p.Add(h)

	labels := plotter.XYLabels{}
	for r := 0; r < n; r++ {
		for col := 0; col < n; col++ {
			labels.XYs = append(labels.XYs, plotter.XY{X: g.X(col), Y: g.Y(r)})
			labels.Labels = append(labels.Labels, fmt.Sprintf("%.2f", g.Z(col, r)))
		}
	}
	l, err := plotter.NewLabels(labels)
	if err != nil {
		return err
	}
	for i := range l.TextStyle {
		l.TextStyle[i].XAlign = draw.XCenter
		l.TextStyle[i].YAlign = draw.YCenter
	}
	p.Add(l)

	x := append([]string(nil), c.Matrix.Columns...)
	y := make([]string, n)
	for i, name := range c.Matrix.Columns {
		y[n-1-i] = name
	}
	p.NominalX(x...)
	p.NominalY(y...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	return nil
}
