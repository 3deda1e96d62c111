package banking

import "sort"

// Record represents one cleaned bank-branch observation: deposits held by
// offices of a population group within a district.
type Record struct {
	RowID           int     `json:"row_id"`
	PopulationGroup string  `json:"population_group"`
	Region          string  `json:"region"`
	StateName       string  `json:"state_name"`
	DistrictName    string  `json:"district_name"`
	NoOfOffices     int64   `json:"no_of_offices"`
	NoOfAccounts    int64   `json:"no_of_accounts"`
	DepositAmount   float64 `json:"deposit_amount"` // in ₹ millions
}

// The categorical vocabularies are closed sets fixed by the source data.
var (
	PopulationGroups = []string{"Metropolitan", "Rural", "Semi-urban", "Urban"}
	Regions          = []string{"Central", "Eastern", "North-Eastern", "Northern", "Southern", "Western"}
)

// IsValidPopulationGroup reports whether g is one of the known groups.
func IsValidPopulationGroup(g string) bool {
	for _, known := range PopulationGroups {
		if g == known {
			return true
		}
	}
	return false
}

// IsValidRegion reports whether r is one of the known RBI regions.
func IsValidRegion(r string) bool {
	for _, known := range Regions {
		if r == known {
			return true
		}
	}
	return false
}

// AccountsPerOffice returns the accounts-to-offices ratio, zero-safe.
func (r Record) AccountsPerOffice() float64 {
	if r.NoOfOffices == 0 {
		return 0
	}
	return float64(r.NoOfAccounts) / float64(r.NoOfOffices)
}

// DepositPerOffice returns the deposit-to-offices ratio, zero-safe.
func (r Record) DepositPerOffice() float64 {
	if r.NoOfOffices == 0 {
		return 0
	}
	return r.DepositAmount / float64(r.NoOfOffices)
}

// DepositPerAccount returns the deposit-to-accounts ratio, zero-safe.
func (r Record) DepositPerAccount() float64 {
	if r.NoOfAccounts == 0 {
		return 0
	}
	return r.DepositAmount / float64(r.NoOfAccounts)
}

// Dataset wraps an ordered set of records with derived lookup lists.
type Dataset struct {
	Records []Record

	states    []string
	districts []string
}

// NewDataset builds a dataset and precomputes its sorted lookup lists.
func NewDataset(records []Record) *Dataset {
	d := &Dataset{Records: records}
	d.states = uniqueSorted(records, func(r Record) string { return r.StateName })
	d.districts = uniqueSorted(records, func(r Record) string { return r.DistrictName })
	return d
}

// States returns the sorted unique state names.
func (d *Dataset) States() []string {
	return d.states
}

// Districts returns the sorted unique district names.
func (d *Dataset) Districts() []string {
	return d.districts
}

// StatesIn returns the sorted unique states of one region, for dependent
// dropdowns. An empty or "All" region returns every state.
func (d *Dataset) StatesIn(region string) []string {
	if region == "" || region == FilterAll {
		return d.states
	}
	return uniqueSorted(d.Records, func(r Record) string {
		if r.Region != region {
			return ""
		}
		return r.StateName
	})
}

func uniqueSorted(records []Record, key func(Record) string) []string {
	seen := make(map[string]struct{}, len(records))
	out := make([]string, 0, 64)
	for _, r := range records {
		k := key(r)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
