package banking

// FilterAll is the sentinel dropdown value meaning "no constraint".
const FilterAll = "All"

// Filter narrows a record set by population group, region and state.
// Empty or "All" selectors match everything.
type Filter struct {
	PopulationGroup string `json:"population_group,omitempty"`
	Region          string `json:"region,omitempty"`
	State           string `json:"state,omitempty"`
}

// IsZero reports whether the filter constrains nothing.
func (f Filter) IsZero() bool {
	return !constrains(f.PopulationGroup) && !constrains(f.Region) && !constrains(f.State)
}

// Matches reports whether a record satisfies every active selector.
func (f Filter) Matches(r Record) bool {
	if constrains(f.PopulationGroup) && r.PopulationGroup != f.PopulationGroup {
		return false
	}
	if constrains(f.Region) && r.Region != f.Region {
		return false
	}
	if constrains(f.State) && r.StateName != f.State {
		return false
	}
	return true
}

// Apply returns the records satisfying the filter. The result is always
// non-nil; a filter matching nothing yields an empty slice.
func (f Filter) Apply(records []Record) []Record {
	if f.IsZero() {
		out := make([]Record, len(records))
		copy(out, records)
		return out
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

func constrains(selector string) bool {
	return selector != "" && selector != FilterAll
}
