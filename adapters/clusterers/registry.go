package clusterers

import "depositscope/internal/errors"

// Clusterer partitions feature rows into groups. Fit returns one label
// per input row; dbscan may return the noise label for outliers.
type Clusterer interface {
	Name() string
	Fit(features [][]float64) ([]int, error)
}

// Options carries the clustering section of the training manifest. Zero
// values mean "use the algorithm default".
type Options struct {
	Clusters  int
	Eps       float64
	MinPoints int
	MaxIter   int
	Seed      int64
}

func (o Options) clusters() int {
	if o.Clusters < 1 {
		return 4
	}
	return o.Clusters
}

func (o Options) maxIter(def int) int {
	if o.MaxIter < 1 {
		return def
	}
	return o.MaxIter
}

// Spec describes one registry entry.
type Spec struct {
	Name        string
	Description string
	New         func(o Options) Clusterer
}

var specs = []Spec{
	{"kmeans", "partition clustering with k-means++ seeding", func(o Options) Clusterer { return NewKMeans(o) }},
	{"hierarchical", "agglomerative average-linkage clustering", func(o Options) Clusterer { return NewHierarchical(o) }},
	{"dbscan", "density-based clustering with noise detection", func(o Options) Clusterer { return NewDBSCAN(o) }},
	{"gmm", "gaussian mixture with diagonal covariance", func(o Options) Clusterer { return NewGMM(o) }},
}

// Specs returns the full roster in run order.
func Specs() []Spec {
	out := make([]Spec, len(specs))
	copy(out, specs)
	return out
}

// New builds a clusterer by name.
func New(name string, o Options) (Clusterer, error) {
	for _, s := range specs {
		if s.Name == name {
			return s.New(o), nil
		}
	}
	return nil, errors.UnknownModel(name)
}

func checkRows(features [][]float64) (int, error) {
	if len(features) == 0 {
		return 0, errors.InvalidInput("clustering input is empty")
	}
	width := len(features[0])
	if width == 0 {
		return 0, errors.InvalidInput("clustering rows are empty")
	}
	for _, row := range features {
		if len(row) != width {
			return 0, errors.InvalidInput("clustering rows have inconsistent widths")
		}
	}
	return width, nil
}
