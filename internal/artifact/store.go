package artifact

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"depositscope/adapters/tabular"
	"depositscope/domain/banking"
	"depositscope/domain/cluster"
	"depositscope/domain/model"
	"depositscope/internal/errors"
	"depositscope/internal/pipeline"
)

// Store is the dashboard's only way at trained artifacts: read-only,
// load-once. Artifacts are immutable for the process lifetime, so cached
// entries never invalidate; the LRU only bounds memory.
type Store struct {
	layout Layout
	cache  *lru.Cache[string, any]
}

// NewStore opens a store over the data root.
func NewStore(root string, cacheSize int) (*Store, error) {
	if cacheSize < 1 {
		cacheSize = 64
	}
	cache, err := lru.New[string, any](cacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build artifact cache")
	}
	return &Store{layout: NewLayout(root), cache: cache}, nil
}

// Layout exposes the path mapping for download handlers and the checker.
func (s *Store) Layout() Layout { return s.layout }

// load returns the cached value for key or runs the loader. Concurrent
// loads of the same artifact are harmless: both parse the same bytes.
func (s *Store) load(key string, loader func() (any, error)) (any, error) {
	if v, ok := s.cache.Get(key); ok {
		return v, nil
	}
	v, err := loader()
	if err != nil {
		return nil, err
	}
	s.cache.Add(key, v)
	return v, nil
}

// CleanedData loads the cleaned dataset.
func (s *Store) CleanedData() (*banking.Dataset, error) {
	v, err := s.load(NameCleanedData, func() (any, error) {
		table, err := s.readTable(s.layout.CleanedData(), NameCleanedData)
		if err != nil {
			return nil, err
		}
		records, err := tabular.DecodeRecords(table)
		if err != nil {
			return nil, errors.ArtifactFormat(NameCleanedData, err)
		}
		return banking.NewDataset(records), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*banking.Dataset), nil
}

// FeaturedData loads the engineered feature frame. Row IDs are the data
// row positions, matching cleaned-data numbering.
func (s *Store) FeaturedData() (*pipeline.FeatureFrame, error) {
	v, err := s.load(NameFeaturedData, func() (any, error) {
		table, err := s.readTable(s.layout.FeaturedData(), NameFeaturedData)
		if err != nil {
			return nil, err
		}
		names := pipeline.FeatureNames()
		rows, target, err := tabular.DecodeMatrix(table, names, pipeline.TargetColumn)
		if err != nil {
			return nil, errors.ArtifactFormat(NameFeaturedData, err)
		}
		frame := &pipeline.FeatureFrame{Names: names, Rows: rows, Target: target}
		frame.RowIDs = make([]int, len(rows))
		for i := range frame.RowIDs {
			frame.RowIDs[i] = i
		}
		return frame, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*pipeline.FeatureFrame), nil
}

// ModelComparison loads the stored comparison table.
func (s *Store) ModelComparison() (model.Comparison, error) {
	v, err := s.load(NameModelComparison, func() (any, error) {
		table, err := s.readTable(s.layout.ModelComparison(), NameModelComparison)
		if err != nil {
			return nil, err
		}
		comparison, err := tabular.DecodeComparison(table)
		if err != nil {
			return nil, errors.ArtifactFormat(NameModelComparison, err)
		}
		return comparison, nil
	})
	if err != nil {
		return model.Comparison{}, err
	}
	return v.(model.Comparison), nil
}

// ProjectSummary loads the run summary.
func (s *Store) ProjectSummary() (*model.ProjectSummary, error) {
	v, err := s.load(NameProjectSummary, func() (any, error) {
		var summary model.ProjectSummary
		if err := s.readJSON(s.layout.ProjectSummary(), NameProjectSummary, &summary); err != nil {
			return nil, err
		}
		return &summary, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.ProjectSummary), nil
}

// InsightsNarrative loads the markdown narrative.
func (s *Store) InsightsNarrative() (string, error) {
	v, err := s.load(NameInsightsNarrative, func() (any, error) {
		data, err := os.ReadFile(s.layout.InsightsNarrative())
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.ArtifactMissing(NameInsightsNarrative)
			}
			return nil, errors.ArtifactFormat(NameInsightsNarrative, err)
		}
		return string(data), nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// ClusteringReport loads clustering metrics and profiles.
func (s *Store) ClusteringReport() (*cluster.Report, error) {
	v, err := s.load(NameClusteringReport, func() (any, error) {
		var report cluster.Report
		if err := s.readJSON(s.layout.ClusteringReport(), NameClusteringReport, &report); err != nil {
			return nil, err
		}
		return &report, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*cluster.Report), nil
}

// ClusterAssignments loads the winning run's row assignments.
func (s *Store) ClusterAssignments() ([]cluster.Assignment, error) {
	v, err := s.load(NameClusterAssignments, func() (any, error) {
		table, err := s.readTable(s.layout.ClusterAssignments(), NameClusterAssignments)
		if err != nil {
			return nil, err
		}
		assignments, err := tabular.DecodeAssignments(table)
		if err != nil {
			return nil, errors.ArtifactFormat(NameClusterAssignments, err)
		}
		return assignments, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]cluster.Assignment), nil
}

// Importances loads the permutation importance report.
func (s *Store) Importances() (*model.ImportanceReport, error) {
	v, err := s.load(NameFeatureImportance, func() (any, error) {
		var report model.ImportanceReport
		if err := s.readJSON(s.layout.FeatureImportance(), NameFeatureImportance, &report); err != nil {
			return nil, err
		}
		return &report, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.ImportanceReport), nil
}

// Encoder loads the inference encoder.
func (s *Store) Encoder() (*pipeline.Encoder, error) {
	v, err := s.load(NameEncoder, func() (any, error) {
		var enc pipeline.Encoder
		if err := s.readJSON(s.layout.Encoder(), NameEncoder, &enc); err != nil {
			return nil, err
		}
		return &enc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*pipeline.Encoder), nil
}

// Model loads one saved model envelope by name.
func (s *Store) Model(name string) (*model.SavedModel, error) {
	key := "model:" + name
	v, err := s.load(key, func() (any, error) {
		var saved model.SavedModel
		if err := s.readJSON(s.layout.Model(name), key, &saved); err != nil {
			return nil, err
		}
		return &saved, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.SavedModel), nil
}

// AvailableModels lists the saved model names present on disk, sorted.
// The encoder artifact is not a model and is excluded.
func (s *Store) AvailableModels() ([]string, error) {
	entries, err := os.ReadDir(s.layout.ModelsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to list saved models")
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") || name == "encoder.json" {
			continue
		}
		names = append(names, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// Figures lists report figure files, if any were shipped with the run.
func (s *Store) Figures() ([]string, error) {
	entries, err := os.ReadDir(s.layout.FiguresDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to list figures")
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ext := filepath.Ext(e.Name()); ext == ".png" || ext == ".svg" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) readTable(path, name string) (*tabular.Table, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, errors.ArtifactMissing(name)
	}
	table, err := tabular.NewDataReader(path).Read()
	if err != nil {
		return nil, errors.ArtifactFormat(name, err)
	}
	return table, nil
}

func (s *Store) readJSON(path, name string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.ArtifactMissing(name)
		}
		return errors.ArtifactFormat(name, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.ArtifactFormat(name, err)
	}
	return nil
}
