package model

import "time"

// ProjectSummary is the stored run-level report: what was trained, on what
// data, and which model won.
type ProjectSummary struct {
	RunID         string         `json:"run_id"`
	GeneratedAt   time.Time      `json:"generated_at"`
	Seed          int64          `json:"seed"`
	SplitRatio    float64        `json:"split_ratio"`
	FeatureCount  int            `json:"feature_count"`
	ModelsTrained int            `json:"models_trained"`
	BestModel     Result         `json:"best_model"`
	Dataset       DatasetProfile `json:"dataset"`
}

// DatasetProfile summarizes the cleaned dataset a run trained on.
type DatasetProfile struct {
	SourceRows      int     `json:"source_rows"`
	CleanedRows     int     `json:"cleaned_rows"`
	ZeroDepositRows int     `json:"zero_deposit_rows"`
	TotalDeposits   float64 `json:"total_deposits"`
	TotalOffices    int64   `json:"total_offices"`
	TotalAccounts   int64   `json:"total_accounts"`
	UniqueStates    int     `json:"unique_states"`
	UniqueDistricts int     `json:"unique_districts"`
}
