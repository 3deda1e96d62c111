package clusterers

import (
	"math"
	"math/rand"
)

const varianceFloor = 1e-6

// GMM fits a mixture of diagonal-covariance gaussians by
// expectation-maximization and labels each row with its most
// responsible component.
type GMM struct {
	K       int
	MaxIter int
	Seed    int64
	Tol     float64
}

// NewGMM creates a gaussian mixture clusterer from manifest options.
func NewGMM(o Options) *GMM {
	return &GMM{K: o.clusters(), MaxIter: o.maxIter(100), Seed: o.Seed, Tol: 1e-4}
}

func (m *GMM) Name() string { return "gmm" }

func (m *GMM) Fit(features [][]float64) ([]int, error) {
	width, err := checkRows(features)
	if err != nil {
		return nil, err
	}
	n := len(features)
	k := m.K
	if k > n {
		k = n
	}

	rng := rand.New(rand.NewSource(m.Seed))
	means := seedCentroids(features, k, rng)
	globalVar := columnVariances(features, width)
	vars := make([][]float64, k)
	weights := make([]float64, k)
	for c := 0; c < k; c++ {
		vars[c] = append([]float64{}, globalVar...)
		weights[c] = 1 / float64(k)
	}

	resp := make([][]float64, n)
	for i := range resp {
		resp[i] = make([]float64, k)
	}

	prevLL := math.Inf(-1)
	for iter := 0; iter < m.MaxIter; iter++ {
		// E step: responsibilities via log-sum-exp to stay stable in
		// 21 dimensions.
		ll := 0.0
		logp := make([]float64, k)
		for i, row := range features {
			for c := 0; c < k; c++ {
				logp[c] = math.Log(weights[c]) + logGaussian(row, means[c], vars[c])
			}
			lse := logSumExp(logp)
			ll += lse
			for c := 0; c < k; c++ {
				resp[i][c] = math.Exp(logp[c] - lse)
			}
		}

		// M step.
		for c := 0; c < k; c++ {
			var nc float64
			mean := make([]float64, width)
			for i, row := range features {
				r := resp[i][c]
				nc += r
				for j, v := range row {
					mean[j] += r * v
				}
			}
			if nc < 1e-10 {
				// Reseed a starved component on a random row.
				means[c] = append([]float64{}, features[rng.Intn(n)]...)
				vars[c] = append([]float64{}, globalVar...)
				weights[c] = 1 / float64(n)
				continue
			}
			for j := range mean {
				mean[j] /= nc
			}
			variance := make([]float64, width)
			for i, row := range features {
				r := resp[i][c]
				for j, v := range row {
					d := v - mean[j]
					variance[j] += r * d * d
				}
			}
			for j := range variance {
				variance[j] = math.Max(variance[j]/nc, varianceFloor)
			}
			means[c] = mean
			vars[c] = variance
			weights[c] = nc / float64(n)
		}

		if iter > 0 && math.Abs(ll-prevLL) < m.Tol {
			break
		}
		prevLL = ll
	}

	labels := make([]int, n)
	for i := range features {
		best, bestR := 0, -1.0
		for c := 0; c < k; c++ {
			if resp[i][c] > bestR {
				best, bestR = c, resp[i][c]
			}
		}
		labels[i] = best
	}
	return labels, nil
}

func logGaussian(row, mean, variance []float64) float64 {
	s := 0.0
	for j, v := range row {
		d := v - mean[j]
		s += math.Log(2*math.Pi*variance[j]) + d*d/variance[j]
	}
	return -0.5 * s
}

func logSumExp(xs []float64) float64 {
	max := math.Inf(-1)
	for _, x := range xs {
		if x > max {
			max = x
		}
	}
	if math.IsInf(max, -1) {
		return max
	}
	var sum float64
	for _, x := range xs {
		sum += math.Exp(x - max)
	}
	return max + math.Log(sum)
}

func columnVariances(features [][]float64, width int) []float64 {
	n := float64(len(features))
	means := make([]float64, width)
	for _, row := range features {
		for j, v := range row {
			means[j] += v
		}
	}
	for j := range means {
		means[j] /= n
	}
	out := make([]float64, width)
	for _, row := range features {
		for j, v := range row {
			d := v - means[j]
			out[j] += d * d
		}
	}
	for j := range out {
		out[j] = math.Max(out[j]/n, varianceFloor)
	}
	return out
}
