package regressors

import (
	"depositscope/domain/model"
	"depositscope/internal/errors"
)

// Factory builds a fresh, unfitted predictor from hyperparameters.
type Factory func(p Params) model.Predictor

// Spec describes one registry entry.
type Spec struct {
	Name        string
	Category    string
	Description string
	New         Factory
}

// The model roster. Order here is the training order; the comparison
// artifact is sorted by score, not by this list.
var specs = []Spec{
	{"linear_regression", model.CategoryBaseline, "ordinary least squares", func(p Params) model.Predictor { return NewLinearRegression() }},
	{"ridge", model.CategoryBaseline, "L2-regularized least squares", func(p Params) model.Predictor { return NewRidge(p) }},
	{"lasso", model.CategoryBaseline, "L1-regularized least squares", func(p Params) model.Predictor { return NewLasso(p) }},
	{"elastic_net", model.CategoryBaseline, "mixed L1/L2 regression", func(p Params) model.Predictor { return NewElasticNet(p) }},
	{"knn", model.CategoryBaseline, "k-nearest neighbours", func(p Params) model.Predictor { return NewKNN(p) }},

	{"decision_tree", model.CategoryTree, "CART regression tree", func(p Params) model.Predictor { return NewDecisionTree(p) }},
	{"random_forest", model.CategoryTree, "bootstrapped tree ensemble", func(p Params) model.Predictor { return NewRandomForest(p) }},
	{"extra_trees", model.CategoryTree, "extremely randomized trees", func(p Params) model.Predictor { return NewExtraTrees(p) }},
	{"gradient_boosting", model.CategoryTree, "residual-fitted tree boosting", func(p Params) model.Predictor { return NewGradientBoosting(p) }},
	{"hist_gradient_boosting", model.CategoryTree, "binned gradient boosting", func(p Params) model.Predictor { return NewHistGradientBoosting(p) }},
	{"adaboost", model.CategoryTree, "AdaBoost.R2 over trees", func(p Params) model.Predictor { return NewAdaBoost(p) }},
	{"bagging", model.CategoryTree, "bootstrap-aggregated trees", func(p Params) model.Predictor { return NewBagging(p) }},

	{"linear_svr", model.CategoryAdvanced, "epsilon-insensitive linear regression", func(p Params) model.Predictor { return NewLinearSVR(p) }},
	{"kernel_ridge", model.CategoryAdvanced, "RBF kernel ridge regression", func(p Params) model.Predictor { return NewKernelRidge(p) }},
	{"polynomial_ridge", model.CategoryAdvanced, "degree-2 polynomial ridge", func(p Params) model.Predictor { return NewPolynomialRidge(p) }},
	{"bayesian_ridge", model.CategoryAdvanced, "evidence-weighted ridge", func(p Params) model.Predictor { return NewBayesianRidge(p) }},
	{"huber", model.CategoryAdvanced, "robust IRLS regression", func(p Params) model.Predictor { return NewHuber(p) }},
	{"mlp", model.CategoryAdvanced, "single-hidden-layer network", func(p Params) model.Predictor { return NewMLP(p) }},
}

// Specs returns the full roster in training order.
func Specs() []Spec {
	out := make([]Spec, len(specs))
	copy(out, specs)
	return out
}

// Names returns every registered model name in roster order.
func Names() []string {
	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.Name
	}
	return names
}

// CategoryOf resolves a model name to its category.
func CategoryOf(name string) (string, bool) {
	for _, s := range specs {
		if s.Name == name {
			return s.Category, true
		}
	}
	return "", false
}

// New builds an unfitted predictor by name.
func New(name string, p Params) (model.Predictor, error) {
	for _, s := range specs {
		if s.Name == name {
			return s.New(p), nil
		}
	}
	return nil, errors.UnknownModel(name)
}
