package analysis

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// Matrix is a symmetric Pearson correlation matrix over named columns.
type Matrix struct {
	Columns []string    `json:"columns"`
	Values  [][]float64 `json:"values"`
}

// CorrelationMatrix computes pairwise Pearson r over row-aligned series.
// Columns whose correlation is undefined (zero variance) read as 0.
func CorrelationMatrix(columns []string, series [][]float64) Matrix {
	n := len(columns)
	values := make([][]float64, n)
	for i := range values {
		values[i] = make([]float64, n)
		values[i][i] = 1
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			r, _ := Pearson(series[i], series[j])
			values[i][j] = r
			values[j][i] = r
		}
	}
	return Matrix{Columns: columns, Values: values}
}

// Pearson returns the correlation coefficient and its two-tailed
// p-value from the t distribution.
func Pearson(x, y []float64) (r, pValue float64) {
	if len(x) < 3 || len(x) != len(y) {
		return 0, 1
	}
	r, err := stats.Pearson(x, y)
	if err != nil || math.IsNaN(r) {
		return 0, 1
	}
	if r >= 1 || r <= -1 {
		return r, 0
	}
	df := float64(len(x) - 2)
	t := r * math.Sqrt(df/(1-r*r))
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	pValue = 2 * (1 - tDist.CDF(math.Abs(t)))
	return r, pValue
}

// WelchTTest compares two sample means without assuming equal variances.
// Returns the t statistic and the two-tailed p-value; samples smaller
// than two observations yield (0, 1).
func WelchTTest(a, b []float64) (tStat, pValue float64) {
	if len(a) < 2 || len(b) < 2 {
		return 0, 1
	}
	meanA, _ := stats.Mean(a)
	meanB, _ := stats.Mean(b)
	varA, _ := stats.SampleVariance(a)
	varB, _ := stats.SampleVariance(b)

	na := float64(len(a))
	nb := float64(len(b))
	se := varA/na + varB/nb
	if se == 0 {
		return 0, 1
	}
	tStat = (meanA - meanB) / math.Sqrt(se)

	// Welch-Satterthwaite degrees of freedom.
	df := se * se / ((varA*varA)/(na*na*(na-1)) + (varB*varB)/(nb*nb*(nb-1)))
	if df <= 0 || math.IsNaN(df) {
		return tStat, 1
	}
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	pValue = 2 * (1 - tDist.CDF(math.Abs(tStat)))
	return tStat, pValue
}
