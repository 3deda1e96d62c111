package banking

import "testing"

func testRecords() []Record {
	return []Record{
		{RowID: 1, PopulationGroup: "Metropolitan", Region: "Western", StateName: "Maharashtra", DistrictName: "Mumbai", NoOfOffices: 120, NoOfAccounts: 54000, DepositAmount: 98000},
		{RowID: 2, PopulationGroup: "Urban", Region: "Southern", StateName: "Karnataka", DistrictName: "Bangalore Urban", NoOfOffices: 85, NoOfAccounts: 31000, DepositAmount: 46000},
		{RowID: 3, PopulationGroup: "Rural", Region: "Southern", StateName: "Karnataka", DistrictName: "Mandya", NoOfOffices: 14, NoOfAccounts: 5200, DepositAmount: 1800},
		{RowID: 4, PopulationGroup: "Semi-urban", Region: "Northern", StateName: "Punjab", DistrictName: "Ludhiana", NoOfOffices: 33, NoOfAccounts: 11000, DepositAmount: 7600},
		{RowID: 5, PopulationGroup: "Rural", Region: "Central", StateName: "Madhya Pradesh", DistrictName: "Sehore", NoOfOffices: 9, NoOfAccounts: 2600, DepositAmount: 640},
	}
}

func TestFilterAllSentinelMatchesEverything(t *testing.T) {
	records := testRecords()
	f := Filter{PopulationGroup: FilterAll, Region: FilterAll, State: FilterAll}
	got := f.Apply(records)
	if len(got) != len(records) {
		t.Errorf("expected %d records, got %d", len(records), len(got))
	}
	if !f.IsZero() {
		t.Error("all-sentinel filter should constrain nothing")
	}
}

func TestFilterCombinesSelectors(t *testing.T) {
	records := testRecords()
	f := Filter{Region: "Southern", PopulationGroup: "Rural"}
	got := f.Apply(records)
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	if got[0].DistrictName != "Mandya" {
		t.Errorf("expected Mandya, got %s", got[0].DistrictName)
	}
}

func TestFilterZeroMatchesYieldsEmptyNotNil(t *testing.T) {
	f := Filter{PopulationGroup: "Metropolitan", State: "Punjab"}
	got := f.Apply(testRecords())
	if got == nil {
		t.Fatal("zero-match filter must return an empty slice, not nil")
	}
	if len(got) != 0 {
		t.Errorf("expected no records, got %d", len(got))
	}
}

func TestSummarizeTotals(t *testing.T) {
	s := Summarize(testRecords())
	if s.TotalRecords != 5 {
		t.Errorf("total records: expected 5, got %d", s.TotalRecords)
	}
	if s.TotalOffices != 261 {
		t.Errorf("total offices: expected 261, got %d", s.TotalOffices)
	}
	if s.TotalAccounts != 103800 {
		t.Errorf("total accounts: expected 103800, got %d", s.TotalAccounts)
	}
	wantDeposits := 98000.0 + 46000 + 1800 + 7600 + 640
	if s.TotalDeposits != wantDeposits {
		t.Errorf("total deposits: expected %.0f, got %.0f", wantDeposits, s.TotalDeposits)
	}
	if s.UniqueStates != 4 {
		t.Errorf("unique states: expected 4, got %d", s.UniqueStates)
	}
	if s.UniqueDistricts != 5 {
		t.Errorf("unique districts: expected 5, got %d", s.UniqueDistricts)
	}
}

func TestSummarizeEmptySetIsZeros(t *testing.T) {
	s := Summarize(nil)
	if s.TotalRecords != 0 || s.TotalDeposits != 0 || s.AverageDeposits != 0 {
		t.Errorf("empty summary should be zeros, got %+v", s)
	}
	if s.AccountsPerOffice() != 0 {
		t.Error("accounts per office over empty set should be 0")
	}
}

func TestAggregateByRegionOrdersByDeposits(t *testing.T) {
	aggs := ByRegion(testRecords())
	if len(aggs) != 4 {
		t.Fatalf("expected 4 regions, got %d", len(aggs))
	}
	if aggs[0].Key != "Western" {
		t.Errorf("expected Western first, got %s", aggs[0].Key)
	}
	for i := 1; i < len(aggs); i++ {
		if aggs[i].TotalDeposits > aggs[i-1].TotalDeposits {
			t.Errorf("aggregates out of order at %d: %f > %f", i, aggs[i].TotalDeposits, aggs[i-1].TotalDeposits)
		}
	}
}

func TestByStateTopN(t *testing.T) {
	aggs := ByState(testRecords(), 2)
	if len(aggs) != 2 {
		t.Fatalf("expected top 2 states, got %d", len(aggs))
	}
	if aggs[0].Key != "Maharashtra" || aggs[1].Key != "Karnataka" {
		t.Errorf("unexpected top states: %s, %s", aggs[0].Key, aggs[1].Key)
	}
}

func TestStatesInRegion(t *testing.T) {
	d := NewDataset(testRecords())
	southern := d.StatesIn("Southern")
	if len(southern) != 1 || southern[0] != "Karnataka" {
		t.Errorf("expected [Karnataka], got %v", southern)
	}
	all := d.StatesIn(FilterAll)
	if len(all) != 4 {
		t.Errorf("expected 4 states for All, got %d", len(all))
	}
}

func TestRecordRatiosZeroSafe(t *testing.T) {
	r := Record{NoOfOffices: 0, NoOfAccounts: 0, DepositAmount: 100}
	if r.DepositPerOffice() != 0 || r.DepositPerAccount() != 0 || r.AccountsPerOffice() != 0 {
		t.Error("ratios with zero denominators should be 0")
	}
}

func TestVocabularyValidation(t *testing.T) {
	if !IsValidPopulationGroup("Semi-urban") {
		t.Error("Semi-urban should be a known population group")
	}
	if IsValidPopulationGroup("Suburban") {
		t.Error("Suburban is not a known population group")
	}
	if !IsValidRegion("North-Eastern") {
		t.Error("North-Eastern should be a known region")
	}
	if IsValidRegion("South") {
		t.Error("South is not a known region")
	}
}
