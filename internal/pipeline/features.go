package pipeline

import (
	"math"

	"depositscope/domain/banking"
	"depositscope/domain/model"
)

// TargetColumn is the regression target in the featured dataset.
const TargetColumn = "deposit_amount"

// FeatureNames is the canonical feature vector, in column order: the two
// raw counts, six engineered ratios and transforms, three label codes,
// then one-hot encodings for region and population group.
func FeatureNames() []string {
	names := []string{
		"no_of_offices",
		"no_of_accounts",
		"accounts_per_office",
		"deposit_per_office",
		"deposit_per_account",
		"log_no_of_offices",
		"log_no_of_accounts",
		"offices_x_accounts",
		"state_code",
		"district_code",
		"region_code",
	}
	for _, region := range banking.Regions {
		names = append(names, "region_"+region)
	}
	for _, group := range banking.PopulationGroups {
		names = append(names, "population_group_"+group)
	}
	return names
}

// CanonicalSchema returns the feature schema models are trained against.
func CanonicalSchema() model.Schema {
	return model.Schema{Features: FeatureNames()}
}

// FeatureFrame is the engineered dataset: one row per record, columns in
// FeatureNames order, plus the aligned target.
type FeatureFrame struct {
	Names  []string
	Rows   [][]float64
	Target []float64
	RowIDs []int
}

// BuildFeatures engineers the feature frame from cleaned records using a
// fitted encoder's label-code tables.
func (e *Encoder) BuildFeatures(records []banking.Record) *FeatureFrame {
	frame := &FeatureFrame{
		Names:  FeatureNames(),
		Rows:   make([][]float64, 0, len(records)),
		Target: make([]float64, 0, len(records)),
		RowIDs: make([]int, 0, len(records)),
	}
	for _, r := range records {
		frame.Rows = append(frame.Rows, e.encode(r, r.DepositPerOffice(), r.DepositPerAccount()))
		frame.Target = append(frame.Target, r.DepositAmount)
		frame.RowIDs = append(frame.RowIDs, r.RowID)
	}
	return frame
}

// encode assembles one feature vector. The two deposit-derived ratios are
// passed in so the training path can use the observed values while the
// inference path substitutes reference ratios.
func (e *Encoder) encode(r banking.Record, depositPerOffice, depositPerAccount float64) []float64 {
	offices := float64(r.NoOfOffices)
	accounts := float64(r.NoOfAccounts)
	vec := make([]float64, 0, len(e.Features))
	vec = append(vec,
		offices,
		accounts,
		r.AccountsPerOffice(),
		depositPerOffice,
		depositPerAccount,
		math.Log1p(offices),
		math.Log1p(accounts),
		offices*accounts,
		float64(e.StateCodes[r.StateName]),
		float64(e.DistrictCodes[r.DistrictName]),
		float64(e.RegionCodes[r.Region]),
	)
	for _, region := range banking.Regions {
		vec = append(vec, oneHot(r.Region == region))
	}
	for _, group := range banking.PopulationGroups {
		vec = append(vec, oneHot(r.PopulationGroup == group))
	}
	return vec
}

func oneHot(match bool) float64 {
	if match {
		return 1
	}
	return 0
}
