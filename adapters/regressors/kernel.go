package regressors

import (
	"encoding/json"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"depositscope/internal/errors"
)

// KernelRidge is ridge regression in an RBF feature space, solved in
// closed form over the kernel matrix. Training is capped at MaxSamples
// rows (drawn deterministically from the seed) to keep the kernel matrix
// tractable; the kept rows become the support set.
type KernelRidge struct {
	Alpha      float64     `json:"alpha"`
	Gamma      float64     `json:"gamma"`
	MaxSamples int         `json:"max_samples"`
	Seed       int64       `json:"seed"`
	Support    [][]float64 `json:"support"`
	Coef       []float64   `json:"coef"`
}

// NewKernelRidge creates an unfitted RBF kernel ridge model. A gamma of
// zero means "scale": 1/(width · mean feature variance), resolved at fit.
func NewKernelRidge(p Params) *KernelRidge {
	return &KernelRidge{
		Alpha:      p.Float("alpha", 1.0),
		Gamma:      p.Float("gamma", 0),
		MaxSamples: p.Int("max_samples", 2000),
		Seed:       p.Seed(),
	}
}

func (m *KernelRidge) Name() string { return "kernel_ridge" }

func (m *KernelRidge) Fit(features [][]float64, targets []float64) error {
	width, err := checkTrainingData(features, targets)
	if err != nil {
		return err
	}

	rows, y := features, targets
	if m.MaxSamples > 0 && len(features) > m.MaxSamples {
		rng := rand.New(rand.NewSource(m.Seed))
		picked := rng.Perm(len(features))[:m.MaxSamples]
		sort.Ints(picked)
		rows = make([][]float64, len(picked))
		y = make([]float64, len(picked))
		for i, idx := range picked {
			rows[i] = features[idx]
			y[i] = targets[idx]
		}
	}
	n := len(rows)

	if m.Gamma == 0 {
		m.Gamma = scaleGamma(rows, width)
	}

	k := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := math.Exp(-m.Gamma * squaredDistance(rows[i], rows[j]))
			if i == j {
				v += m.Alpha
			}
			k.SetSym(i, j, v)
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(k); !ok {
		return errors.InternalError("kernel matrix is not positive definite")
	}
	coef := mat.NewVecDense(n, nil)
	if err := chol.SolveVecTo(coef, mat.NewVecDense(n, cloneVector(y))); err != nil {
		return errors.Wrap(err, "kernel ridge solve failed")
	}

	m.Support = cloneMatrix(rows)
	m.Coef = make([]float64, n)
	for i := 0; i < n; i++ {
		m.Coef[i] = coef.AtVec(i)
	}
	return nil
}

func (m *KernelRidge) Predict(x []float64) (float64, error) {
	if len(m.Support) == 0 {
		return 0, errors.InvalidInput("model is not fitted")
	}
	if err := checkVector(x, len(m.Support[0])); err != nil {
		return 0, err
	}
	var out float64
	for i, sv := range m.Support {
		out += m.Coef[i] * math.Exp(-m.Gamma*squaredDistance(sv, x))
	}
	return out, nil
}

func (m *KernelRidge) MarshalParams() ([]byte, error)    { return json.Marshal(m) }
func (m *KernelRidge) UnmarshalParams(data []byte) error { return json.Unmarshal(data, m) }

// scaleGamma is the "scale" heuristic: 1/(width · mean feature variance).
func scaleGamma(rows [][]float64, width int) float64 {
	if len(rows) == 0 || width == 0 {
		return 1
	}
	mean := make([]float64, width)
	for _, row := range rows {
		for j, v := range row {
			mean[j] += v
		}
	}
	n := float64(len(rows))
	for j := range mean {
		mean[j] /= n
	}
	var variance float64
	for _, row := range rows {
		for j, v := range row {
			dev := v - mean[j]
			variance += dev * dev
		}
	}
	variance /= n * float64(width)
	if variance == 0 {
		return 1
	}
	return 1 / (float64(width) * variance)
}

// PolynomialRidge expands the features to degree two, squares and pairwise
// interactions included, then fits closed-form ridge on the expansion.
type PolynomialRidge struct {
	Alpha     float64   `json:"alpha"`
	InputDim  int       `json:"input_dim"`
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
}

// NewPolynomialRidge creates an unfitted degree-2 polynomial ridge model.
func NewPolynomialRidge(p Params) *PolynomialRidge {
	return &PolynomialRidge{Alpha: p.Float("alpha", 1.0)}
}

func (m *PolynomialRidge) Name() string { return "polynomial_ridge" }

func (m *PolynomialRidge) Fit(features [][]float64, targets []float64) error {
	width, err := checkTrainingData(features, targets)
	if err != nil {
		return err
	}
	m.InputDim = width
	expanded := make([][]float64, len(features))
	for i, row := range features {
		expanded[i] = expandQuadratic(row)
	}

	inner := &Ridge{Alpha: m.Alpha}
	if err := inner.Fit(expanded, targets); err != nil {
		return err
	}
	m.Weights = inner.Weights
	m.Intercept = inner.Intercept
	return nil
}

func (m *PolynomialRidge) Predict(x []float64) (float64, error) {
	if len(m.Weights) == 0 {
		return 0, errors.InvalidInput("model is not fitted")
	}
	if err := checkVector(x, m.InputDim); err != nil {
		return 0, err
	}
	return m.Intercept + dot(m.Weights, expandQuadratic(x)), nil
}

func (m *PolynomialRidge) MarshalParams() ([]byte, error)    { return json.Marshal(m) }
func (m *PolynomialRidge) UnmarshalParams(data []byte) error { return json.Unmarshal(data, m) }

// expandQuadratic maps x to [x, x², pairwise products].
func expandQuadratic(x []float64) []float64 {
	d := len(x)
	out := make([]float64, 0, d+d+d*(d-1)/2)
	out = append(out, x...)
	for j := 0; j < d; j++ {
		out = append(out, x[j]*x[j])
	}
	for j := 0; j < d; j++ {
		for k := j + 1; k < d; k++ {
			out = append(out, x[j]*x[k])
		}
	}
	return out
}
