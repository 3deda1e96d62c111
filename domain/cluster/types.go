package cluster

import "time"

// NoiseLabel marks points DBSCAN leaves unassigned.
const NoiseLabel = -1

// Assignment maps one record to a cluster label, with its 2-D projection
// coordinates for plotting.
type Assignment struct {
	RowID int     `json:"row_id"`
	Label int     `json:"label"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// Metrics holds the quality figures of one clustering run.
type Metrics struct {
	Algorithm     string  `json:"algorithm"`
	Clusters      int     `json:"clusters"`
	Silhouette    float64 `json:"silhouette"`
	DaviesBouldin float64 `json:"davies_bouldin"`
	ExecutionSecs float64 `json:"execution_time"`
	NoisePoints   int     `json:"noise_points,omitempty"`
}

// Profile describes one cluster of the winning run in banking terms.
type Profile struct {
	Label            int     `json:"label"`
	Size             int     `json:"size"`
	AvgDeposits      float64 `json:"avg_deposits"`
	AvgOffices       float64 `json:"avg_offices"`
	AvgAccounts      float64 `json:"avg_accounts"`
	DominantGroup    string  `json:"dominant_group"`
	DominantRegion   string  `json:"dominant_region"`
	Characterization string  `json:"characterization"`
}

// Report is the stored clustering_results.json artifact.
type Report struct {
	RunID         string    `json:"run_id"`
	GeneratedAt   time.Time `json:"generated_at"`
	BestAlgorithm string    `json:"best_algorithm"`
	Runs          []Metrics `json:"runs"`
	Profiles      []Profile `json:"profiles"`
}

// BestRun returns the metrics of the winning algorithm, false when the
// report is empty.
func (r Report) BestRun() (Metrics, bool) {
	for _, run := range r.Runs {
		if run.Algorithm == r.BestAlgorithm {
			return run, true
		}
	}
	if len(r.Runs) == 0 {
		return Metrics{}, false
	}
	return r.Runs[0], true
}
