package analysis

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

var (
	// ErrInsufficientData means fewer than two keys are shared by both series.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrUndefined means the coefficient is not defined, e.g. one side has zero variance.
	ErrUndefined = errors.New("correlation undefined")
)

// Correlation is the Pearson coefficient of two series aligned on their keys,
// together with the least-squares line y = Intercept + Slope*x.
type Correlation struct {
	Keys      []string
	X, Y      []float64
	R         float64
	Slope     float64
	Intercept float64
}

// N reports the number of aligned points.
func (c Correlation) N() int { return len(c.Keys) }

// Align inner-joins a and b on key, in the order of a.
func Align(a, b Series) (keys []string, x, y []float64) {
	byKey := make(map[string]float64, len(b))
	for _, p := range b {
		byKey[p.Key] = p.Value
	}
	for _, p := range a {
		v, ok := byKey[p.Key]
		if !ok || math.IsNaN(p.Value) || math.IsNaN(v) {
			continue
		}
		keys = append(keys, p.Key)
		x = append(x, p.Value)
		y = append(y, v)
	}
	return keys, x, y
}

// Correlate aligns a (x) with b (y) and computes the Pearson coefficient.
func Correlate(a, b Series) (Correlation, error) {
	keys, x, y := Align(a, b)
	if len(keys) < 2 {
		return Correlation{}, fmt.Errorf("correlate: %d aligned points: %w", len(keys), ErrInsufficientData)
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return Correlation{}, fmt.Errorf("correlate: %w", ErrUndefined)
	}
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	alpha, beta := stat.LinearRegression(x, y, nil, false)
	return Correlation{Keys: keys, X: x, Y: y, R: r, Slope: beta, Intercept: alpha}, nil
}
