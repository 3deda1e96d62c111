package banking

import "sort"

// Summary holds the headline figures for a record set.
type Summary struct {
	TotalRecords    int     `json:"total_records"`
	TotalDeposits   float64 `json:"total_deposits"`
	AverageDeposits float64 `json:"average_deposits"`
	TotalOffices    int64   `json:"total_offices"`
	TotalAccounts   int64   `json:"total_accounts"`
	UniqueStates    int     `json:"unique_states"`
	UniqueDistricts int     `json:"unique_districts"`
}

// AccountsPerOffice returns the overall accounts-to-offices ratio.
func (s Summary) AccountsPerOffice() float64 {
	if s.TotalOffices == 0 {
		return 0
	}
	return float64(s.TotalAccounts) / float64(s.TotalOffices)
}

// Summarize computes the headline figures over any record subset.
// The empty set summarizes to zeros.
func Summarize(records []Record) Summary {
	s := Summary{TotalRecords: len(records)}
	states := make(map[string]struct{})
	districts := make(map[string]struct{})
	for _, r := range records {
		s.TotalDeposits += r.DepositAmount
		s.TotalOffices += r.NoOfOffices
		s.TotalAccounts += r.NoOfAccounts
		states[r.StateName] = struct{}{}
		districts[r.DistrictName] = struct{}{}
	}
	s.UniqueStates = len(states)
	s.UniqueDistricts = len(districts)
	if len(records) > 0 {
		s.AverageDeposits = s.TotalDeposits / float64(len(records))
	}
	return s
}

// GroupAggregate holds per-group totals for one categorical key.
type GroupAggregate struct {
	Key             string  `json:"key"`
	Records         int     `json:"records"`
	TotalDeposits   float64 `json:"total_deposits"`
	AverageDeposits float64 `json:"average_deposits"`
	TotalOffices    int64   `json:"total_offices"`
	TotalAccounts   int64   `json:"total_accounts"`
}

// AggregateBy rolls records up by an arbitrary key, ordered by total
// deposits descending.
func AggregateBy(records []Record, key func(Record) string) []GroupAggregate {
	byKey := make(map[string]*GroupAggregate)
	order := make([]string, 0, 16)
	for _, r := range records {
		k := key(r)
		agg, ok := byKey[k]
		if !ok {
			agg = &GroupAggregate{Key: k}
			byKey[k] = agg
			order = append(order, k)
		}
		agg.Records++
		agg.TotalDeposits += r.DepositAmount
		agg.TotalOffices += r.NoOfOffices
		agg.TotalAccounts += r.NoOfAccounts
	}
	out := make([]GroupAggregate, 0, len(order))
	for _, k := range order {
		agg := byKey[k]
		if agg.Records > 0 {
			agg.AverageDeposits = agg.TotalDeposits / float64(agg.Records)
		}
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalDeposits != out[j].TotalDeposits {
			return out[i].TotalDeposits > out[j].TotalDeposits
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// ByPopulationGroup aggregates records per population group.
func ByPopulationGroup(records []Record) []GroupAggregate {
	return AggregateBy(records, func(r Record) string { return r.PopulationGroup })
}

// ByRegion aggregates records per RBI region.
func ByRegion(records []Record) []GroupAggregate {
	return AggregateBy(records, func(r Record) string { return r.Region })
}

// ByState aggregates records per state, keeping the top n by deposits.
// n <= 0 keeps every state.
func ByState(records []Record, n int) []GroupAggregate {
	aggs := AggregateBy(records, func(r Record) string { return r.StateName })
	if n > 0 && len(aggs) > n {
		aggs = aggs[:n]
	}
	return aggs
}

// ByDistrict aggregates records per district, keeping the top n by deposits.
func ByDistrict(records []Record, n int) []GroupAggregate {
	aggs := AggregateBy(records, func(r Record) string { return r.DistrictName })
	if n > 0 && len(aggs) > n {
		aggs = aggs[:n]
	}
	return aggs
}
