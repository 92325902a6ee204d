package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/KaramelBytes/climalyze/internal/table"
)

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64 // row-major, Values[i][j]
	// N[i][j] is the number of rows where both columns have a value.
	N [][]int
}

// PairCorr is a simple correlation pair summary.
type PairCorr struct {
	A, B string
	R    float64
	N    int
}

// Exact pairwise accumulators with missingness handling: a row contributes to a
// pair only when both cells are present.
type pairAcc struct {
	n     float64
	sumX  float64
	sumY  float64
	sumXX float64
	sumYY float64
	sumXY float64
}

func (pa *pairAcc) add(x, y float64) {
	pa.n += 1
	pa.sumX += x
	pa.sumY += y
	pa.sumXX += x * x
	pa.sumYY += y * y
	pa.sumXY += x * y
}

// r returns the coefficient, or false when it is undefined.
func (pa *pairAcc) r() (float64, bool) {
	if pa == nil || pa.n < 2 {
		return 0, false
	}
	denom := math.Sqrt((pa.n*pa.sumXX - pa.sumX*pa.sumX) * (pa.n*pa.sumYY - pa.sumY*pa.sumY))
	if denom == 0 {
		return 0, false
	}
	r := (pa.n*pa.sumXY - pa.sumX*pa.sumY) / denom
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, false
	}
	return r, true
}

// Correlations builds the matrix over every Number column of t using
// pairwise-complete rows. Undefined coefficients are stored as 0.
func Correlations(t *table.Table) (*CorrMatrix, error) {
	var idx []int
	for j, c := range t.Columns {
		if c.Kind == table.Number {
			idx = append(idx, j)
		}
	}
	if len(idx) < 2 {
		return nil, fmt.Errorf("correlation matrix: %d numeric columns: %w", len(idx), ErrInsufficientData)
	}
	n := len(idx)
	pair := make([][]pairAcc, n)
	for a := range pair {
		pair[a] = make([]pairAcc, n)
	}
	for i := 0; i < t.Len(); i++ {
		for a := 1; a < n; a++ {
			x, ok := t.Columns[idx[a]].Float(i)
			if !ok {
				continue
			}
			for b := 0; b < a; b++ {
				y, ok := t.Columns[idx[b]].Float(i)
				if !ok {
					continue
				}
				pair[a][b].add(x, y)
			}
		}
	}
	m := &CorrMatrix{Columns: make([]string, n), Values: make([][]float64, n), N: make([][]int, n)}
	for a := 0; a < n; a++ {
		m.Columns[a] = t.Columns[idx[a]].Name
		m.Values[a] = make([]float64, n)
		m.N[a] = make([]int, n)
	}
	for a := 0; a < n; a++ {
		m.Values[a][a] = 1
		m.N[a][a] = len(t.Columns[idx[a]].Values())
		for b := 0; b < a; b++ {
			pa := &pair[a][b]
			r, _ := pa.r()
			m.Values[a][b], m.Values[b][a] = r, r
			m.N[a][b], m.N[b][a] = int(pa.n), int(pa.n)
		}
	}
	return m, nil
}

// TopPairs lists off-diagonal pairs by descending |r|, at most limit.
func (m *CorrMatrix) TopPairs(limit int) []PairCorr {
	var pairs []PairCorr
	n := len(m.Columns)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, PairCorr{A: m.Columns[i], B: m.Columns[j], R: m.Values[i][j], N: m.N[i][j]})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		ai, aj := math.Abs(pairs[i].R), math.Abs(pairs[j].R)
		if ai == aj {
			return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
		}
		return ai > aj
	})
	if limit > 0 && len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs
}

// quantile interpolates linearly between closest ranks of an ascending slice.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
