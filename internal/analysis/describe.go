package analysis

import (
	"math"

	"github.com/montanaflynn/stats"
)

// Summary is a describe-style breakdown of one numeric column.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Q25    float64 `json:"q25"`
	Median float64 `json:"median"`
	Q75    float64 `json:"q75"`
	Max    float64 `json:"max"`
}

// Describe computes summary statistics over one column. Empty input
// yields a zero summary, never an error.
func Describe(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	mean, _ := stats.Mean(values)
	stdDev, _ := stats.StandardDeviation(values)
	min, _ := stats.Min(values)
	max, _ := stats.Max(values)
	median, _ := stats.Median(values)
	q25, _ := stats.Percentile(values, 25)
	q75, _ := stats.Percentile(values, 75)
	return Summary{
		Count:  len(values),
		Mean:   mean,
		StdDev: stdDev,
		Min:    min,
		Q25:    q25,
		Median: median,
		Q75:    q75,
		Max:    max,
	}
}

// Skewness is the adjusted Fisher-Pearson coefficient. Deposit amounts
// are heavily right-skewed, which this makes visible on the EDA page.
func Skewness(values []float64) float64 {
	if len(values) < 3 {
		return 0
	}
	mean, _ := stats.Mean(values)
	stdDev, _ := stats.StandardDeviation(values)
	if stdDev == 0 {
		return 0
	}
	n := float64(len(values))
	var sum float64
	for _, x := range values {
		d := (x - mean) / stdDev
		sum += d * d * d
	}
	skew := sum / n
	return skew * math.Sqrt(n*(n-1)) / (n - 2)
}

// OutlierCount counts values outside the 1.5×IQR fences.
func OutlierCount(values []float64) int {
	if len(values) < 4 {
		return 0
	}
	q25, _ := stats.Percentile(values, 25)
	q75, _ := stats.Percentile(values, 75)
	iqr := q75 - q25
	lower := q25 - 1.5*iqr
	upper := q75 + 1.5*iqr
	count := 0
	for _, x := range values {
		if x < lower || x > upper {
			count++
		}
	}
	return count
}
