package regressors

import (
	"encoding/json"
	"math"

	"gonum.org/v1/gonum/mat"

	"depositscope/internal/errors"
)

// LinearRegression is ordinary least squares, solved by QR factorization.
type LinearRegression struct {
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
}

// NewLinearRegression creates an unfitted OLS model.
func NewLinearRegression() *LinearRegression {
	return &LinearRegression{}
}

func (m *LinearRegression) Name() string { return "linear_regression" }

func (m *LinearRegression) Fit(features [][]float64, targets []float64) error {
	width, err := checkTrainingData(features, targets)
	if err != nil {
		return err
	}
	design := designMatrix(features, width)
	y := mat.NewVecDense(len(targets), cloneVector(targets))

	var qr mat.QR
	qr.Factorize(design)
	coef := mat.NewDense(width+1, 1, nil)
	if err := qr.SolveTo(coef, false, y); err != nil {
		return errors.Wrap(err, "least squares solve failed")
	}

	m.Intercept = coef.At(0, 0)
	m.Weights = make([]float64, width)
	for j := 0; j < width; j++ {
		m.Weights[j] = coef.At(j+1, 0)
	}
	return nil
}

func (m *LinearRegression) Predict(x []float64) (float64, error) {
	if err := checkVector(x, len(m.Weights)); err != nil {
		return 0, err
	}
	return m.Intercept + dot(m.Weights, x), nil
}

func (m *LinearRegression) MarshalParams() ([]byte, error)    { return json.Marshal(m) }
func (m *LinearRegression) UnmarshalParams(data []byte) error { return json.Unmarshal(data, m) }

// Ridge is least squares with an L2 penalty, solved in closed form from
// the normal equations. The intercept is not penalized.
type Ridge struct {
	Alpha     float64   `json:"alpha"`
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
}

// NewRidge creates an unfitted ridge model.
func NewRidge(p Params) *Ridge {
	return &Ridge{Alpha: p.Float("alpha", 1.0)}
}

func (m *Ridge) Name() string { return "ridge" }

func (m *Ridge) Fit(features [][]float64, targets []float64) error {
	width, err := checkTrainingData(features, targets)
	if err != nil {
		return err
	}
	design := designMatrix(features, width)
	y := mat.NewVecDense(len(targets), cloneVector(targets))

	var ata mat.Dense
	ata.Mul(design.T(), design)
	for j := 1; j <= width; j++ {
		ata.Set(j, j, ata.At(j, j)+m.Alpha)
	}
	var aty mat.VecDense
	aty.MulVec(design.T(), y)

	coef := mat.NewVecDense(width+1, nil)
	if err := coef.SolveVec(&ata, &aty); err != nil {
		return errors.Wrap(err, "ridge solve failed")
	}

	m.Intercept = coef.AtVec(0)
	m.Weights = make([]float64, width)
	for j := 0; j < width; j++ {
		m.Weights[j] = coef.AtVec(j + 1)
	}
	return nil
}

func (m *Ridge) Predict(x []float64) (float64, error) {
	if err := checkVector(x, len(m.Weights)); err != nil {
		return 0, err
	}
	return m.Intercept + dot(m.Weights, x), nil
}

func (m *Ridge) MarshalParams() ([]byte, error)    { return json.Marshal(m) }
func (m *Ridge) UnmarshalParams(data []byte) error { return json.Unmarshal(data, m) }

// Lasso is least squares with an L1 penalty, fitted by cyclic coordinate
// descent on the 1/(2n) scaled objective.
type Lasso struct {
	Alpha     float64   `json:"alpha"`
	MaxIter   int       `json:"max_iter"`
	Tol       float64   `json:"tol"`
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
}

// NewLasso creates an unfitted lasso model.
func NewLasso(p Params) *Lasso {
	return &Lasso{
		Alpha:   p.Float("alpha", 1.0),
		MaxIter: p.Int("max_iter", 1000),
		Tol:     p.Float("tol", 1e-4),
	}
}

func (m *Lasso) Name() string { return "lasso" }

func (m *Lasso) Fit(features [][]float64, targets []float64) error {
	w, intercept, err := coordinateDescent(features, targets, m.Alpha, 1.0, m.MaxIter, m.Tol)
	if err != nil {
		return err
	}
	m.Weights, m.Intercept = w, intercept
	return nil
}

func (m *Lasso) Predict(x []float64) (float64, error) {
	if err := checkVector(x, len(m.Weights)); err != nil {
		return 0, err
	}
	return m.Intercept + dot(m.Weights, x), nil
}

func (m *Lasso) MarshalParams() ([]byte, error)    { return json.Marshal(m) }
func (m *Lasso) UnmarshalParams(data []byte) error { return json.Unmarshal(data, m) }

// ElasticNet mixes L1 and L2 penalties under one alpha, split by L1Ratio.
type ElasticNet struct {
	Alpha     float64   `json:"alpha"`
	L1Ratio   float64   `json:"l1_ratio"`
	MaxIter   int       `json:"max_iter"`
	Tol       float64   `json:"tol"`
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
}

// NewElasticNet creates an unfitted elastic net model.
func NewElasticNet(p Params) *ElasticNet {
	return &ElasticNet{
		Alpha:   p.Float("alpha", 1.0),
		L1Ratio: p.Float("l1_ratio", 0.5),
		MaxIter: p.Int("max_iter", 1000),
		Tol:     p.Float("tol", 1e-4),
	}
}

func (m *ElasticNet) Name() string { return "elastic_net" }

func (m *ElasticNet) Fit(features [][]float64, targets []float64) error {
	w, intercept, err := coordinateDescent(features, targets, m.Alpha, m.L1Ratio, m.MaxIter, m.Tol)
	if err != nil {
		return err
	}
	m.Weights, m.Intercept = w, intercept
	return nil
}

func (m *ElasticNet) Predict(x []float64) (float64, error) {
	if err := checkVector(x, len(m.Weights)); err != nil {
		return 0, err
	}
	return m.Intercept + dot(m.Weights, x), nil
}

func (m *ElasticNet) MarshalParams() ([]byte, error)    { return json.Marshal(m) }
func (m *ElasticNet) UnmarshalParams(data []byte) error { return json.Unmarshal(data, m) }

// designMatrix builds the n×(width+1) matrix with a leading bias column.
func designMatrix(features [][]float64, width int) *mat.Dense {
	n := len(features)
	design := mat.NewDense(n, width+1, nil)
	for i, row := range features {
		design.Set(i, 0, 1)
		for j, v := range row {
			design.Set(i, j+1, v)
		}
	}
	return design
}

// coordinateDescent fits w to minimize
//
//	1/(2n)·||y − Xw − b||² + α·l1·||w||₁ + α·(1−l1)/2·||w||²
//
// cycling over coordinates until the largest weight change drops under tol.
// The intercept absorbs the target mean and is refreshed every sweep.
func coordinateDescent(features [][]float64, targets []float64, alpha, l1Ratio float64, maxIter int, tol float64) ([]float64, float64, error) {
	width, err := checkTrainingData(features, targets)
	if err != nil {
		return nil, 0, err
	}
	n := len(features)
	nf := float64(n)

	// Per-column squared norms, scaled by 1/n.
	colNorm := make([]float64, width)
	for _, row := range features {
		for j, v := range row {
			colNorm[j] += v * v
		}
	}
	for j := range colNorm {
		colNorm[j] /= nf
	}

	w := make([]float64, width)
	intercept := meanOf(targets)
	residual := make([]float64, n)
	for i := range targets {
		residual[i] = targets[i] - intercept
	}

	l1 := alpha * l1Ratio
	l2 := alpha * (1 - l1Ratio)

	for iter := 0; iter < maxIter; iter++ {
		var maxChange float64
		for j := 0; j < width; j++ {
			if colNorm[j] == 0 {
				continue
			}
			var rho float64
			for i, row := range features {
				rho += row[j] * (residual[i] + w[j]*row[j])
			}
			rho /= nf
			next := softThreshold(rho, l1) / (colNorm[j] + l2)
			if delta := next - w[j]; delta != 0 {
				for i, row := range features {
					residual[i] -= delta * row[j]
				}
				if abs := math.Abs(delta); abs > maxChange {
					maxChange = abs
				}
				w[j] = next
			}
		}
		// Refresh the unpenalized intercept.
		shift := meanOf(residual)
		if shift != 0 {
			intercept += shift
			for i := range residual {
				residual[i] -= shift
			}
		}
		if maxChange < tol {
			break
		}
	}
	return w, intercept, nil
}
