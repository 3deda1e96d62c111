package run

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest is the full recipe for a training run. It is the truth
// source for replay: the same manifest over the same raw data must
// reproduce every artifact byte-for-byte except timestamps and the
// run ID.
type Manifest struct {
	Run        Params           `yaml:"run"`
	Models     []ModelEntry     `yaml:"models"`
	Clustering ClusteringParams `yaml:"clustering"`
	Importance ImportanceParams `yaml:"importance"`
}

// Params carries the run-wide knobs.
type Params struct {
	Seed       int64   `yaml:"seed"`
	SplitRatio float64 `yaml:"split_ratio"`
	Workers    int     `yaml:"workers"`
}

// ModelEntry names one roster model with optional hyperparameter
// overrides.
type ModelEntry struct {
	Name   string             `yaml:"name"`
	Params map[string]float64 `yaml:"params,omitempty"`
}

// ClusteringParams configures the clustering stage.
type ClusteringParams struct {
	Algorithms []string `yaml:"algorithms"`
	Clusters   int      `yaml:"clusters"`
	Eps        float64  `yaml:"eps"`
	MinPoints  int      `yaml:"min_points"`
	MaxIter    int      `yaml:"max_iter"`
	Sample     int      `yaml:"sample"`
}

// ImportanceParams configures permutation importance scoring.
type ImportanceParams struct {
	Repeats int `yaml:"repeats"`
}

// Default builds a manifest over the given model roster with the
// standard knobs.
func Default(modelNames []string) Manifest {
	models := make([]ModelEntry, len(modelNames))
	for i, name := range modelNames {
		models[i] = ModelEntry{Name: name}
	}
	return Manifest{
		Run: Params{Seed: 42, SplitRatio: 0.8, Workers: 4},
		Clustering: ClusteringParams{
			Algorithms: []string{"kmeans", "hierarchical", "dbscan", "gmm"},
			Clusters:   4,
			Eps:        2.5,
			MinPoints:  10,
			MaxIter:    100,
			Sample:     2000,
		},
		Importance: ImportanceParams{Repeats: 5},
		Models:     models,
	}
}

// Load reads and validates a manifest file.
func Load(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	m.applyDefaults()
	if err := m.Validate(); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// applyDefaults fills zero-valued knobs so hand-written manifests can
// stay short.
func (m *Manifest) applyDefaults() {
	if m.Run.Seed == 0 {
		m.Run.Seed = 42
	}
	if m.Run.SplitRatio == 0 {
		m.Run.SplitRatio = 0.8
	}
	if m.Run.Workers == 0 {
		m.Run.Workers = 4
	}
	if len(m.Clustering.Algorithms) == 0 {
		m.Clustering.Algorithms = []string{"kmeans", "hierarchical", "dbscan", "gmm"}
	}
	if m.Clustering.Clusters == 0 {
		m.Clustering.Clusters = 4
	}
	if m.Clustering.Eps == 0 {
		m.Clustering.Eps = 2.5
	}
	if m.Clustering.MinPoints == 0 {
		m.Clustering.MinPoints = 10
	}
	if m.Clustering.MaxIter == 0 {
		m.Clustering.MaxIter = 100
	}
	if m.Clustering.Sample == 0 {
		m.Clustering.Sample = 2000
	}
	if m.Importance.Repeats == 0 {
		m.Importance.Repeats = 5
	}
}

// Validate rejects structurally broken manifests. Model and algorithm
// names are resolved against the registries later, where unknown names
// carry their own error code.
func (m Manifest) Validate() error {
	if m.Run.SplitRatio <= 0 || m.Run.SplitRatio >= 1 {
		return fmt.Errorf("split_ratio must be in (0, 1), got %v", m.Run.SplitRatio)
	}
	if m.Run.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", m.Run.Workers)
	}
	if len(m.Models) == 0 {
		return fmt.Errorf("manifest names no models")
	}
	seen := make(map[string]struct{}, len(m.Models))
	for _, entry := range m.Models {
		if entry.Name == "" {
			return fmt.Errorf("manifest contains a model entry without a name")
		}
		if _, dup := seen[entry.Name]; dup {
			return fmt.Errorf("model %s appears twice in the manifest", entry.Name)
		}
		seen[entry.Name] = struct{}{}
	}
	if m.Clustering.Clusters < 2 {
		return fmt.Errorf("clustering needs at least 2 clusters, got %d", m.Clustering.Clusters)
	}
	return nil
}

// ParamsFor returns the hyperparameter overrides for one model, nil if
// the manifest has none.
func (m Manifest) ParamsFor(name string) map[string]float64 {
	for _, entry := range m.Models {
		if entry.Name == name {
			return entry.Params
		}
	}
	return nil
}

// ModelNames lists the roster in manifest order.
func (m Manifest) ModelNames() []string {
	names := make([]string, len(m.Models))
	for i, entry := range m.Models {
		names[i] = entry.Name
	}
	return names
}
