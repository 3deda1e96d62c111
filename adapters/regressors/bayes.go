package regressors

import (
	"encoding/json"
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"

	"depositscope/internal/errors"
)

// BayesianRidge fits ridge regression whose penalty strength is learned
// from the data by evidence iterations: the noise and weight precisions
// are re-estimated from the posterior until they settle.
type BayesianRidge struct {
	MaxIter   int       `json:"max_iter"`
	Tol       float64   `json:"tol"`
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
	Alpha     float64   `json:"alpha"`
	Lambda    float64   `json:"lambda"`
}

// NewBayesianRidge creates an unfitted Bayesian ridge model.
func NewBayesianRidge(p Params) *BayesianRidge {
	return &BayesianRidge{
		MaxIter: p.Int("max_iter", 300),
		Tol:     p.Float("tol", 1e-3),
	}
}

func (m *BayesianRidge) Name() string { return "bayesian_ridge" }

func (m *BayesianRidge) Fit(features [][]float64, targets []float64) error {
	width, err := checkTrainingData(features, targets)
	if err != nil {
		return err
	}
	n := len(features)
	nf := float64(n)

	m.Intercept = meanOf(targets)
	centered := make([]float64, n)
	var variance float64
	for i, y := range targets {
		centered[i] = y - m.Intercept
		variance += centered[i] * centered[i]
	}
	variance /= nf
	if variance == 0 {
		m.Weights = make([]float64, width)
		m.Alpha, m.Lambda = 1, 1
		return nil
	}

	x := mat.NewDense(n, width, nil)
	for i, row := range features {
		x.SetRow(i, row)
	}
	y := mat.NewVecDense(n, centered)

	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	var xty mat.VecDense
	xty.MulVec(x.T(), y)

	alpha := 1 / variance
	lambda := 1.0
	mu := mat.NewVecDense(width, nil)
	prev := make([]float64, width)

	for iter := 0; iter < m.MaxIter; iter++ {
		// Posterior precision A = alpha·X'X + lambda·I, mean mu = alpha·A⁻¹X'y.
		var a mat.Dense
		a.Scale(alpha, &xtx)
		for j := 0; j < width; j++ {
			a.Set(j, j, a.At(j, j)+lambda)
		}
		var ainv mat.Dense
		if err := ainv.Inverse(&a); err != nil {
			return errors.Wrap(err, "posterior precision is singular")
		}
		var scaled mat.VecDense
		scaled.ScaleVec(alpha, &xty)
		mu.MulVec(&ainv, &scaled)

		var gamma float64
		for j := 0; j < width; j++ {
			gamma += 1 - lambda*ainv.At(j, j)
		}

		var muSq float64
		for j := 0; j < width; j++ {
			muSq += mu.AtVec(j) * mu.AtVec(j)
		}
		var sse float64
		for i, row := range features {
			r := centered[i] - dot(row, mu.RawVector().Data)
			sse += r * r
		}

		if muSq > 0 {
			lambda = gamma / muSq
		}
		if sse > 0 && nf > gamma {
			alpha = (nf - gamma) / sse
		}

		var change float64
		for j := 0; j < width; j++ {
			change += math.Abs(mu.AtVec(j) - prev[j])
			prev[j] = mu.AtVec(j)
		}
		if change < m.Tol {
			break
		}
	}

	m.Weights = cloneVector(prev)
	m.Alpha, m.Lambda = alpha, lambda
	return nil
}

func (m *BayesianRidge) Predict(x []float64) (float64, error) {
	if len(m.Weights) == 0 {
		return 0, errors.InvalidInput("model is not fitted")
	}
	if err := checkVector(x, len(m.Weights)); err != nil {
		return 0, err
	}
	return m.Intercept + dot(m.Weights, x), nil
}

func (m *BayesianRidge) MarshalParams() ([]byte, error)    { return json.Marshal(m) }
func (m *BayesianRidge) UnmarshalParams(data []byte) error { return json.Unmarshal(data, m) }

// Huber fits robust regression by iteratively reweighted least squares:
// residuals beyond epsilon robust deviations get downweighted until the
// coefficients settle.
type Huber struct {
	Epsilon   float64   `json:"epsilon"`
	MaxIter   int       `json:"max_iter"`
	Tol       float64   `json:"tol"`
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
}

// NewHuber creates an unfitted Huber regressor.
func NewHuber(p Params) *Huber {
	return &Huber{
		Epsilon: p.Float("epsilon", 1.35),
		MaxIter: p.Int("max_iter", 50),
		Tol:     p.Float("tol", 1e-5),
	}
}

func (m *Huber) Name() string { return "huber" }

func (m *Huber) Fit(features [][]float64, targets []float64) error {
	width, err := checkTrainingData(features, targets)
	if err != nil {
		return err
	}
	n := len(features)

	// Start from the OLS solution.
	ols := NewLinearRegression()
	if err := ols.Fit(features, targets); err != nil {
		return err
	}
	coef := append([]float64{ols.Intercept}, ols.Weights...)

	design := designMatrix(features, width)
	residuals := make([]float64, n)
	absResiduals := make([]float64, n)
	rowWeights := make([]float64, n)

	for iter := 0; iter < m.MaxIter; iter++ {
		for i, row := range features {
			residuals[i] = targets[i] - coef[0] - dot(coef[1:], row)
			absResiduals[i] = math.Abs(residuals[i])
		}
		med, err := stats.Median(absResiduals)
		if err != nil {
			return errors.Wrap(err, "residual scale estimation failed")
		}
		sigma := 1.4826 * med
		if sigma == 0 {
			break
		}
		delta := m.Epsilon * sigma
		for i := range rowWeights {
			if absResiduals[i] <= delta {
				rowWeights[i] = 1
			} else {
				rowWeights[i] = delta / absResiduals[i]
			}
		}

		next, err := weightedLeastSquares(design, targets, rowWeights)
		if err != nil {
			return err
		}
		var change float64
		for j := range coef {
			change += math.Abs(next[j] - coef[j])
		}
		coef = next
		if change < m.Tol {
			break
		}
	}

	m.Intercept = coef[0]
	m.Weights = cloneVector(coef[1:])
	return nil
}

func (m *Huber) Predict(x []float64) (float64, error) {
	if len(m.Weights) == 0 {
		return 0, errors.InvalidInput("model is not fitted")
	}
	if err := checkVector(x, len(m.Weights)); err != nil {
		return 0, err
	}
	return m.Intercept + dot(m.Weights, x), nil
}

func (m *Huber) MarshalParams() ([]byte, error)    { return json.Marshal(m) }
func (m *Huber) UnmarshalParams(data []byte) error { return json.Unmarshal(data, m) }

// weightedLeastSquares solves min Σ w_i (y_i − a_i·coef)² by scaling rows
// with √w_i and solving the slightly damped normal equations.
func weightedLeastSquares(design *mat.Dense, targets, rowWeights []float64) ([]float64, error) {
	n, cols := design.Dims()
	scaled := mat.NewDense(n, cols, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		sw := math.Sqrt(rowWeights[i])
		for j := 0; j < cols; j++ {
			scaled.Set(i, j, sw*design.At(i, j))
		}
		y.SetVec(i, sw*targets[i])
	}

	var ata mat.Dense
	ata.Mul(scaled.T(), scaled)
	for j := 0; j < cols; j++ {
		ata.Set(j, j, ata.At(j, j)+1e-8)
	}
	var aty mat.VecDense
	aty.MulVec(scaled.T(), y)

	coef := mat.NewVecDense(cols, nil)
	if err := coef.SolveVec(&ata, &aty); err != nil {
		return nil, errors.Wrap(err, "weighted least squares solve failed")
	}
	out := make([]float64, cols)
	for j := 0; j < cols; j++ {
		out[j] = coef.AtVec(j)
	}
	return out, nil
}
