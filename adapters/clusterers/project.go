package clusterers

import (
	"gonum.org/v1/gonum/mat"

	"depositscope/internal/errors"
)

// Project2D centers the feature matrix and projects it onto its first
// two principal components via thin SVD. Output rows keep input order,
// so coordinates line up with cluster labels.
func Project2D(features [][]float64) ([][2]float64, error) {
	width, err := checkRows(features)
	if err != nil {
		return nil, err
	}
	n := len(features)

	means := make([]float64, width)
	for _, row := range features {
		for j, v := range row {
			means[j] += v
		}
	}
	for j := range means {
		means[j] /= float64(n)
	}

	centered := mat.NewDense(n, width, nil)
	for i, row := range features {
		for j, v := range row {
			centered.Set(i, j, v-means[j])
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(centered, mat.SVDThin); !ok {
		return nil, errors.InternalError("svd failed to converge")
	}
	var u mat.Dense
	svd.UTo(&u)
	singular := svd.Values(nil)

	coords := make([][2]float64, n)
	for i := range coords {
		coords[i][0] = u.At(i, 0) * singular[0]
		if len(singular) > 1 {
			coords[i][1] = u.At(i, 1) * singular[1]
		}
	}
	return coords, nil
}
