package regressors

// Params carries hyperparameters from the training manifest. Models read
// what they understand and fall back to defaults for the rest.
type Params map[string]float64

// Float returns a parameter or its default.
func (p Params) Float(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// Int returns a parameter truncated to int, or its default.
func (p Params) Int(key string, def int) int {
	if v, ok := p[key]; ok {
		return int(v)
	}
	return def
}

// Seed returns the training seed, defaulting to 42.
func (p Params) Seed() int64 {
	return int64(p.Float("seed", 42))
}
