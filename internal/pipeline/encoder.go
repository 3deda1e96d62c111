package pipeline

import (
	"fmt"
	"math"
	"sort"

	"depositscope/domain/banking"
	"depositscope/domain/model"
	"depositscope/internal/errors"
)

// Encoder freezes everything inference needs to rebuild the training-time
// feature vector: the schema, label-code tables, reference deposit ratios
// and the fitted scaler. It is stored as models/saved_models/encoder.json.
type Encoder struct {
	Features      []string             `json:"features"`
	StateCodes    map[string]int       `json:"state_codes"`
	DistrictCodes map[string]int       `json:"district_codes"`
	RegionCodes   map[string]int       `json:"region_codes"`
	Reference     map[string]RatioCell `json:"reference_ratios"`
	Global        RatioCell            `json:"global_ratios"`
	Scaler        Scaler               `json:"scaler"`
}

// RatioCell holds the deposit ratios of one population-group×region cell,
// computed as ratios of sums over the cell's records.
type RatioCell struct {
	DepositPerOffice  float64 `json:"deposit_per_office"`
	DepositPerAccount float64 `json:"deposit_per_account"`
	Records           int     `json:"records"`
}

// InferenceInput is what the prediction form supplies. The two deposit
// ratios the schema needs are imputed from the encoder's reference cells.
type InferenceInput struct {
	Offices         int64
	Accounts        int64
	PopulationGroup string
	Region          string
	State           string
	District        string
}

// FitEncoder derives label codes and reference ratios from the cleaned
// records. Codes are assigned by sorted name, so refitting on the same
// data always yields the same tables. The scaler is fitted separately.
func FitEncoder(records []banking.Record) *Encoder {
	e := &Encoder{
		Features:      FeatureNames(),
		StateCodes:    codesByName(records, func(r banking.Record) string { return r.StateName }),
		DistrictCodes: codesByName(records, func(r banking.Record) string { return r.DistrictName }),
		RegionCodes:   make(map[string]int, len(banking.Regions)),
		Reference:     make(map[string]RatioCell),
	}
	for i, region := range banking.Regions {
		e.RegionCodes[region] = i
	}

	type sums struct {
		deposits float64
		offices  int64
		accounts int64
		records  int
	}
	cells := make(map[string]*sums)
	var global sums
	for _, r := range records {
		key := refKey(r.PopulationGroup, r.Region)
		cell, ok := cells[key]
		if !ok {
			cell = &sums{}
			cells[key] = cell
		}
		cell.deposits += r.DepositAmount
		cell.offices += r.NoOfOffices
		cell.accounts += r.NoOfAccounts
		cell.records++
		global.deposits += r.DepositAmount
		global.offices += r.NoOfOffices
		global.accounts += r.NoOfAccounts
		global.records++
	}
	toCell := func(s *sums) RatioCell {
		c := RatioCell{Records: s.records}
		if s.offices > 0 {
			c.DepositPerOffice = s.deposits / float64(s.offices)
		}
		if s.accounts > 0 {
			c.DepositPerAccount = s.deposits / float64(s.accounts)
		}
		return c
	}
	for key, s := range cells {
		e.Reference[key] = toCell(s)
	}
	e.Global = toCell(&global)
	return e
}

// Schema returns the frozen feature schema.
func (e *Encoder) Schema() model.Schema {
	return model.Schema{Features: e.Features}
}

// ReferenceFor returns the ratio cell of one group×region combination.
func (e *Encoder) ReferenceFor(group, region string) (RatioCell, bool) {
	cell, ok := e.Reference[refKey(group, region)]
	return cell, ok
}

// EncodeInput validates a prediction form input and assembles its feature
// vector, imputing the deposit-derived ratios from the reference cell of
// the input's group and region (global ratios when the cell is empty).
// The returned cell reports how many records back the imputation.
func (e *Encoder) EncodeInput(in InferenceInput) ([]float64, RatioCell, error) {
	if in.Offices < 1 {
		return nil, RatioCell{}, errors.FeatureMismatch("number of offices must be at least 1")
	}
	if in.Accounts < 1 {
		return nil, RatioCell{}, errors.FeatureMismatch("number of accounts must be at least 1")
	}
	if !banking.IsValidPopulationGroup(in.PopulationGroup) {
		return nil, RatioCell{}, errors.FeatureMismatch(fmt.Sprintf("unknown population group %q", in.PopulationGroup))
	}
	if !banking.IsValidRegion(in.Region) {
		return nil, RatioCell{}, errors.FeatureMismatch(fmt.Sprintf("unknown region %q", in.Region))
	}
	if _, ok := e.StateCodes[in.State]; !ok {
		return nil, RatioCell{}, errors.FeatureMismatch(fmt.Sprintf("unknown state %q", in.State))
	}
	if _, ok := e.DistrictCodes[in.District]; !ok {
		return nil, RatioCell{}, errors.FeatureMismatch(fmt.Sprintf("unknown district %q", in.District))
	}

	cell, ok := e.ReferenceFor(in.PopulationGroup, in.Region)
	if !ok {
		cell = e.Global
		cell.Records = 0
	}

	record := banking.Record{
		PopulationGroup: in.PopulationGroup,
		Region:          in.Region,
		StateName:       in.State,
		DistrictName:    in.District,
		NoOfOffices:     in.Offices,
		NoOfAccounts:    in.Accounts,
	}
	return e.encode(record, cell.DepositPerOffice, cell.DepositPerAccount), cell, nil
}

// Scaler standardizes feature columns with training-split statistics.
type Scaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// FitScaler computes per-column mean and standard deviation over the given
// rows and stores them on the encoder.
func (e *Encoder) FitScaler(rows [][]float64) {
	if len(rows) == 0 {
		return
	}
	width := len(rows[0])
	mean := make([]float64, width)
	std := make([]float64, width)
	for _, row := range rows {
		for j, v := range row {
			mean[j] += v
		}
	}
	n := float64(len(rows))
	for j := range mean {
		mean[j] /= n
	}
	for _, row := range rows {
		for j, v := range row {
			dev := v - mean[j]
			std[j] += dev * dev
		}
	}
	for j := range std {
		std[j] = math.Sqrt(std[j] / n)
	}
	e.Scaler = Scaler{Mean: mean, Std: std}
}

// Scale standardizes one vector. Constant columns scale to zero.
func (e *Encoder) Scale(vec []float64) []float64 {
	if len(e.Scaler.Mean) != len(vec) {
		out := make([]float64, len(vec))
		copy(out, vec)
		return out
	}
	out := make([]float64, len(vec))
	for j, v := range vec {
		if e.Scaler.Std[j] == 0 {
			out[j] = 0
			continue
		}
		out[j] = (v - e.Scaler.Mean[j]) / e.Scaler.Std[j]
	}
	return out
}

// ScaleRows standardizes a whole matrix.
func (e *Encoder) ScaleRows(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = e.Scale(row)
	}
	return out
}

func codesByName(records []banking.Record, key func(banking.Record) string) map[string]int {
	seen := make(map[string]struct{})
	names := make([]string, 0, 64)
	for _, r := range records {
		k := key(r)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		names = append(names, k)
	}
	sort.Strings(names)
	codes := make(map[string]int, len(names))
	for i, name := range names {
		codes[name] = i
	}
	return codes
}

func refKey(group, region string) string {
	return group + "|" + region
}
