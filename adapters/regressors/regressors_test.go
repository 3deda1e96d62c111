package regressors

import (
	"math"
	"math/rand"
	"testing"

	"depositscope/domain/model"
	"depositscope/internal/errors"
)

// trainingData builds a mostly linear target with a mild interaction term
// over roughly standardized features, so every model family can fit it.
func trainingData(n int, seed int64) ([][]float64, []float64) {
	rng := rand.New(rand.NewSource(seed))
	features := make([][]float64, n)
	targets := make([]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, 4)
		for j := range row {
			row[j] = rng.NormFloat64()
		}
		features[i] = row
		targets[i] = 4 + 3*row[0] - 2*row[1] + 1.5*row[2] +
			0.5*row[0]*row[1] + 0.05*rng.NormFloat64()
	}
	return features, targets
}

func testParams() Params {
	return Params{"seed": 11, "alpha": 0.1, "n_estimators": 40}
}

func TestRegistryRoster(t *testing.T) {
	names := Names()
	if len(names) != 18 {
		t.Fatalf("expected 18 registered models, got %d", len(names))
	}
	if names[0] != "linear_regression" {
		t.Errorf("expected linear_regression first in roster, got %s", names[0])
	}

	counts := map[string]int{}
	for _, s := range Specs() {
		counts[s.Category]++
	}
	if counts[model.CategoryBaseline] != 5 {
		t.Errorf("expected 5 baseline models, got %d", counts[model.CategoryBaseline])
	}
	if counts[model.CategoryTree] != 7 {
		t.Errorf("expected 7 tree ensemble models, got %d", counts[model.CategoryTree])
	}
	if counts[model.CategoryAdvanced] != 6 {
		t.Errorf("expected 6 advanced models, got %d", counts[model.CategoryAdvanced])
	}

	if cat, ok := CategoryOf("extra_trees"); !ok || cat != model.CategoryTree {
		t.Errorf("CategoryOf(extra_trees) = %q, %v", cat, ok)
	}
	if _, ok := CategoryOf("quantum_forest"); ok {
		t.Error("expected CategoryOf to reject unregistered name")
	}
}

func TestUnknownModelName(t *testing.T) {
	_, err := New("quantum_forest", nil)
	if err == nil {
		t.Fatal("expected error for unregistered model name")
	}
	if !errors.IsUnknownModel(err) {
		t.Errorf("expected UNKNOWN_MODEL code, got %v", err)
	}
}

func TestAllModelsFitAndScore(t *testing.T) {
	features, targets := trainingData(160, 3)

	for _, spec := range Specs() {
		spec := spec
		t.Run(spec.Name, func(t *testing.T) {
			predictor := spec.New(testParams())
			if predictor.Name() != spec.Name {
				t.Fatalf("predictor reports name %q, registered as %q", predictor.Name(), spec.Name)
			}
			if err := predictor.Fit(features, targets); err != nil {
				t.Fatalf("fit failed: %v", err)
			}

			predicted := make([]float64, len(features))
			for i, row := range features {
				p, err := predictor.Predict(row)
				if err != nil {
					t.Fatalf("predict row %d failed: %v", i, err)
				}
				if math.IsNaN(p) || math.IsInf(p, 0) {
					t.Fatalf("predict row %d returned non-finite value %v", i, p)
				}
				predicted[i] = p
			}

			r2, rmse, _ := model.Evaluate(predicted, targets)
			if r2 < 0.5 {
				t.Errorf("training R² = %.4f, expected at least 0.5 (rmse %.4f)", r2, rmse)
			}
		})
	}
}

func TestSameSeedSamePredictions(t *testing.T) {
	features, targets := trainingData(120, 9)
	probes := features[:5]

	for _, spec := range Specs() {
		spec := spec
		t.Run(spec.Name, func(t *testing.T) {
			first := spec.New(testParams())
			second := spec.New(testParams())
			if err := first.Fit(features, targets); err != nil {
				t.Fatalf("first fit failed: %v", err)
			}
			if err := second.Fit(features, targets); err != nil {
				t.Fatalf("second fit failed: %v", err)
			}
			for i, probe := range probes {
				a, err := first.Predict(probe)
				if err != nil {
					t.Fatalf("first predict failed: %v", err)
				}
				b, err := second.Predict(probe)
				if err != nil {
					t.Fatalf("second predict failed: %v", err)
				}
				if a != b {
					t.Errorf("probe %d: predictions differ across identically seeded fits (%v vs %v)", i, a, b)
				}
			}
		})
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	features, targets := trainingData(120, 17)
	probes := features[:5]

	for _, spec := range Specs() {
		spec := spec
		t.Run(spec.Name, func(t *testing.T) {
			fitted := spec.New(testParams())
			if err := fitted.Fit(features, targets); err != nil {
				t.Fatalf("fit failed: %v", err)
			}
			blob, err := fitted.MarshalParams()
			if err != nil {
				t.Fatalf("marshal failed: %v", err)
			}

			restored, err := New(spec.Name, nil)
			if err != nil {
				t.Fatalf("registry lookup failed: %v", err)
			}
			if err := restored.UnmarshalParams(blob); err != nil {
				t.Fatalf("unmarshal failed: %v", err)
			}

			for i, probe := range probes {
				want, err := fitted.Predict(probe)
				if err != nil {
					t.Fatalf("fitted predict failed: %v", err)
				}
				got, err := restored.Predict(probe)
				if err != nil {
					t.Fatalf("restored predict failed: %v", err)
				}
				if want != got {
					t.Errorf("probe %d: restored model predicts %v, fitted predicts %v", i, got, want)
				}
			}
		})
	}
}

func TestInvalidTrainingData(t *testing.T) {
	cases := []struct {
		name     string
		features [][]float64
		targets  []float64
	}{
		{"empty", nil, nil},
		{"length mismatch", [][]float64{{1, 2}}, []float64{1, 2}},
		{"ragged rows", [][]float64{{1, 2}, {1}}, []float64{1, 2}},
		{"non-finite feature", [][]float64{{1, math.NaN()}, {1, 2}}, []float64{1, 2}},
		{"non-finite target", [][]float64{{1, 2}, {3, 4}}, []float64{1, math.Inf(1)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := NewLinearRegression()
			if err := m.Fit(tc.features, tc.targets); err == nil {
				t.Error("expected fit to reject invalid training data")
			}
		})
	}
}

func TestPredictValidation(t *testing.T) {
	features, targets := trainingData(60, 5)

	unfitted := NewDecisionTree(nil)
	if _, err := unfitted.Predict([]float64{1, 2, 3, 4}); err == nil {
		t.Error("expected predict on unfitted model to fail")
	}

	fitted := NewDecisionTree(nil)
	if err := fitted.Fit(features, targets); err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	if _, err := fitted.Predict([]float64{1, 2}); err == nil {
		t.Error("expected predict to reject short feature vector")
	}
	if _, err := fitted.Predict([]float64{1, math.NaN(), 3, 4}); err == nil {
		t.Error("expected predict to reject non-finite input")
	}
}

func TestDecisionTreeStructure(t *testing.T) {
	features, targets := trainingData(80, 21)
	tree := NewDecisionTree(Params{"max_depth": 4})
	if err := tree.Fit(features, targets); err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	if len(tree.Nodes) == 0 {
		t.Fatal("fitted tree has no nodes")
	}

	for i, node := range tree.Nodes {
		if node.IsLeaf {
			if math.IsNaN(node.Prediction) {
				t.Errorf("node %d: leaf prediction is NaN", i)
			}
			continue
		}
		if node.LeftChild != 1 {
			t.Errorf("node %d: left child offset %d, subtree layout expects 1", i, node.LeftChild)
		}
		if node.RightChild <= node.LeftChild {
			t.Errorf("node %d: right child offset %d not past left subtree", i, node.RightChild)
		}
		if i+node.RightChild >= len(tree.Nodes) {
			t.Errorf("node %d: right child offset %d escapes node array", i, node.RightChild)
		}
	}
}

func TestKNNExactMatch(t *testing.T) {
	features := [][]float64{{0, 0}, {1, 0}, {0, 1}, {2, 2}}
	targets := []float64{10, 20, 30, 40}

	m := NewKNN(Params{"k": 3})
	if err := m.Fit(features, targets); err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	got, err := m.Predict([]float64{1, 0})
	if err != nil {
		t.Fatalf("predict failed: %v", err)
	}
	if got != 20 {
		t.Errorf("exact training point should return stored target, got %v", got)
	}
}

func TestConstantTargetIsHandled(t *testing.T) {
	features, _ := trainingData(40, 2)
	targets := make([]float64, len(features))
	for i := range targets {
		targets[i] = 7.5
	}

	for _, name := range []string{"linear_regression", "bayesian_ridge", "huber", "decision_tree", "mlp"} {
		t.Run(name, func(t *testing.T) {
			predictor, err := New(name, Params{"seed": 1})
			if err != nil {
				t.Fatalf("registry lookup failed: %v", err)
			}
			if err := predictor.Fit(features, targets); err != nil {
				t.Fatalf("fit failed: %v", err)
			}
			got, err := predictor.Predict(features[0])
			if err != nil {
				t.Fatalf("predict failed: %v", err)
			}
			if math.Abs(got-7.5) > 1.0 {
				t.Errorf("constant target fit predicts %v, want near 7.5", got)
			}
		})
	}
}
