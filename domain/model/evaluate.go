package model

import "math"

// Evaluate scores predictions against actuals. R² may be negative for a
// model worse than the mean; RMSE and MAE are always non-negative.
func Evaluate(predicted, actual []float64) (r2, rmse, mae float64) {
	n := len(actual)
	if n == 0 || len(predicted) != n {
		return 0, 0, 0
	}
	var mean float64
	for _, y := range actual {
		mean += y
	}
	mean /= float64(n)

	var ssRes, ssTot, absSum float64
	for i := range actual {
		diff := actual[i] - predicted[i]
		ssRes += diff * diff
		absSum += math.Abs(diff)
		dev := actual[i] - mean
		ssTot += dev * dev
	}
	rmse = math.Sqrt(ssRes / float64(n))
	mae = absSum / float64(n)
	if ssTot == 0 {
		if ssRes == 0 {
			r2 = 1
		}
		return r2, rmse, mae
	}
	r2 = 1 - ssRes/ssTot
	return r2, rmse, mae
}
