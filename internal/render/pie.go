package render

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// pieChart draws slices proportional to Values, starting at 12 o'clock and
// going counter-clockwise, with the percentage printed inside each slice.
type pieChart struct {
	Values []float64
	Colors []color.Color
	total  float64
}

// Plot implements plot.Plotter.
func (pc *pieChart) Plot(c draw.Canvas, plt *plot.Plot) {
	center := c.Center()
	size := c.Rectangle.Size()
	radius := vg.Length(math.Min(float64(size.X), float64(size.Y))) * 0.45

	sty := plt.X.Tick.Label
	sty.XAlign = draw.XCenter
	sty.YAlign = draw.YCenter
	sty.Rotation = 0

	start := math.Pi / 2
	for i, v := range pc.Values {
		sweep := 2 * math.Pi * v / pc.total
		var path vg.Path
		path.Move(center)
		path.Arc(center, radius, start, sweep)
		path.Close()
		c.SetColor(pc.Colors[i])
		c.Fill(path)

		mid := start + sweep/2
		at := vg.Point{
			X: center.X + radius*0.65*vg.Length(math.Cos(mid)),
			Y: center.Y + radius*0.65*vg.Length(math.Sin(mid)),
		}
		c.FillText(sty, at, fmt.Sprintf("%1.1f%%", 100*v/pc.total))
		start += sweep
	}
}

// DataRange implements plot.DataRanger so the hidden axes stay centred.
func (pc *pieChart) DataRange() (xmin, xmax, ymin, ymax float64) { return -1, 1, -1, 1 }

// swatch is a legend thumbnail filled with one colour.
type swatch struct{ color color.Color }

func (s swatch) Thumbnail(c *draw.Canvas) {
	pts := []vg.Point{
		{X: c.Min.X, Y: c.Min.Y},
		{X: c.Min.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Min.Y},
	}
	c.FillPolygon(s.color, pts)
}

func pie(p *plot.Plot, c Chart) error {
	if len(c.Series) == 0 {
		return ErrEmptySeries
	}
	pc := &pieChart{Colors: sliceColors(len(c.Series))}
	for _, pt := range c.Series {
		if math.IsNaN(pt.Value) || pt.Value < 0 {
			return fmt.Errorf("%w: invalid share %g for %q", ErrDegenerate, pt.Value, pt.Key)
		}
		pc.Values = append(pc.Values, pt.Value)
		pc.total += pt.Value
	}
	if pc.total <= 0 {
		return fmt.Errorf("%w: shares sum to zero", ErrDegenerate)
	}
	p.HideAxes()
	p.Add(pc)
	for i, pt := range c.Series {
		p.Legend.Add(pt.Key, swatch{pc.Colors[i]})
	}
	p.Legend.Top = true
	return nil
}

// sliceColors spreads n colours evenly over the blue-red map so no two slices share one.
func sliceColors(n int) []color.Color {
	if n == 1 {
		return []color.Color{plotutil.Color(0)}
	}
	cm := moreland.SmoothBlueRed()
	cm.SetMin(0)
	cm.SetMax(1)
	out := make([]color.Color, n)
	for i := range out {
		col, err := cm.At(float64(i) / float64(n-1))
		if err != nil {
			col = plotutil.Color(i)
		}
		out[i] = col
	}
	return out
}
