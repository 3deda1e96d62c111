package testkit

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"depositscope/domain/banking"
)

// Config controls the synthetic deposits generator.
type Config struct {
	Rows int
	Seed int64
}

// DefaultConfig returns a fixture sized for fast tests.
func DefaultConfig() Config {
	return Config{Rows: 120, Seed: 7}
}

// Generator produces synthetic banking records with a planted linear
// deposit signal, so trained models have something real to learn and
// tests can reason about predictions.
type Generator struct {
	cfg Config
}

// NewGenerator creates a seeded generator.
func NewGenerator(cfg Config) *Generator {
	if cfg.Rows <= 0 {
		cfg.Rows = DefaultConfig().Rows
	}
	return &Generator{cfg: cfg}
}

type site struct {
	state, district, region string
}

var sites = []site{
	{"Karnataka", "Bangalore", "Southern"},
	{"Karnataka", "Mysore", "Southern"},
	{"Tamil Nadu", "Chennai", "Southern"},
	{"Maharashtra", "Mumbai", "Western"},
	{"Maharashtra", "Pune", "Western"},
	{"Gujarat", "Ahmedabad", "Western"},
	{"Odisha", "Cuttack", "Eastern"},
	{"West Bengal", "Kolkata", "Eastern"},
	{"Punjab", "Amritsar", "Northern"},
	{"Delhi", "New Delhi", "Northern"},
	{"Madhya Pradesh", "Bhopal", "Central"},
	{"Assam", "Guwahati", "North-Eastern"},
}

// groupScale shifts deposits per population group the way the source
// data does: metropolitan branches hold far more than rural ones.
var groupScale = map[string]float64{
	"Rural":        0.6,
	"Semi-urban":   0.9,
	"Urban":        1.2,
	"Metropolitan": 2.0,
}

// Records generates the synthetic record set. Deposits follow
// 120·offices + 8·accounts, scaled by population group, plus noise.
// Every call replays the same seed, so repeated calls agree.
func (g *Generator) Records() []banking.Record {
	rng := rand.New(rand.NewSource(g.cfg.Seed))
	records := make([]banking.Record, 0, g.cfg.Rows)
	for i := 0; i < g.cfg.Rows; i++ {
		s := sites[i%len(sites)]
		group := banking.PopulationGroups[i%len(banking.PopulationGroups)]
		offices := int64(2 + rng.Intn(60))
		accounts := offices*12 + int64(rng.Intn(200))
		deposit := (120.0*float64(offices) + 8.0*float64(accounts)) * groupScale[group]
		deposit += rng.Float64() * 40

		records = append(records, banking.Record{
			RowID:           i,
			PopulationGroup: group,
			Region:          s.region,
			StateName:       s.state,
			DistrictName:    s.district,
			NoOfOffices:     offices,
			NoOfAccounts:    accounts,
			DepositAmount:   deposit,
		})
	}
	return records
}

// WriteRawCSV writes the records as a raw source file in the shape the
// cleaning stage ingests.
func (g *Generator) WriteRawCSV(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var b strings.Builder
	b.WriteString("population_group,region,state_name,district_name,no_of_offices,no_of_accounts,deposit_amount\n")
	for _, r := range g.Records() {
		fmt.Fprintf(&b, "%s,%s,%s,%s,%d,%d,%.2f\n",
			r.PopulationGroup, r.Region, r.StateName, r.DistrictName,
			r.NoOfOffices, r.NoOfAccounts, r.DepositAmount)
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}
