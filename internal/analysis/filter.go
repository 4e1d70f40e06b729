package analysis

import (
	"encoding/json"
	"sort"
)

// FilterKind names one of the three membership sets of a FilterState.
type FilterKind string

const (
	FilterPerson  FilterKind = "person"
	FilterArea    FilterKind = "area"
	FilterFeature FilterKind = "feature"
)

// Valid reports whether k is a known filter kind.
func (k FilterKind) Valid() bool {
	switch k {
	case FilterPerson, FilterArea, FilterFeature:
		return true
	}
	return false
}

// stringSet is an unordered membership set. It marshals as a sorted array.
type stringSet map[string]struct{}

func newStringSet(values ...string) stringSet {
	s := make(stringSet, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

func (s stringSet) has(v string) bool {
	_, ok := s[v]
	return ok
}

func (s stringSet) sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func (s stringSet) clone() stringSet {
	c := make(stringSet, len(s))
	for v := range s {
		c[v] = struct{}{}
	}
	return c
}

// FilterState holds the active people, macro areas and feature names.
// The zero value excludes everything; use NewFilterState to include all.
type FilterState struct {
	people   stringSet
	areas    stringSet
	features stringSet
}

// NewFilterState returns a filter that includes every person, area and
// feature present in the store.
func NewFilterState(s *Store) FilterState {
	fs := FilterState{
		people:   newStringSet(),
		areas:    newStringSet(),
		features: newStringSet(),
	}
	for _, p := range s.People() {
		fs.people[p.Name] = struct{}{}
	}
	for _, e := range s.Evaluations() {
		fs.areas[NormalizeMacroArea(e.MacroArea)] = struct{}{}
		fs.features[e.FeatureName] = struct{}{}
	}
	return fs
}

// Set returns a copy of fs with value added to or removed from the set
// named by kind. Unknown kinds return fs unchanged.
func (fs FilterState) Set(kind FilterKind, value string, included bool) FilterState {
	next := fs.Clone()
	var target stringSet
	switch kind {
	case FilterPerson:
		target = next.people
	case FilterArea:
		target = next.areas
	case FilterFeature:
		target = next.features
	default:
		return fs
	}
	if included {
		target[value] = struct{}{}
	} else {
		delete(target, value)
	}
	return next
}

// Clone returns a deep copy so transitions never share sets.
func (fs FilterState) Clone() FilterState {
	return FilterState{
		people:   fs.people.clone(),
		areas:    fs.areas.clone(),
		features: fs.features.clone(),
	}
}

func (fs FilterState) HasPerson(name string) bool { return fs.people.has(name) }
func (fs FilterState) HasArea(area string) bool { return fs.areas.has(area) }
func (fs FilterState) HasFeature(name string) bool { return fs.features.has(name) }
func (fs FilterState) People() []string { return fs.people.sorted() }
func (fs FilterState) Areas() []string { return fs.areas.sorted() }
func (fs FilterState) Features() []string { return fs.features.sorted() }

type filterStateJSON struct {
	People   []string `json:"people"`
	Areas    []string `json:"areas"`
	Features []string `json:"features"`
}

func (fs FilterState) MarshalJSON() ([]byte, error) {
	return json.Marshal(filterStateJSON{
		People:   fs.People(),
		Areas:    fs.Areas(),
		Features: fs.Features(),
	})
}

func (fs *FilterState) UnmarshalJSON(data []byte) error {
	var raw filterStateJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	fs.people = newStringSet(raw.People...)
	fs.areas = newStringSet(raw.Areas...)
	fs.features = newStringSet(raw.Features...)
	return nil
}

// ApplyFilters keeps the features whose area and name are active and that at
// least one active person evaluated. Survivors are recomputed from the active
// people's evaluations only; the input slice is not modified.
func ApplyFilters(features []AggregatedFeature, fs FilterState) []AggregatedFeature {
	out := make([]AggregatedFeature, 0, len(features))
	for _, f := range features {
		if !fs.HasArea(f.MacroArea) || !fs.HasFeature(f.Name) {
			continue
		}

		active := make([]EvaluationRef, 0, len(f.Evaluations))
		for _, ev := range f.Evaluations {
			if fs.HasPerson(ev.Person) {
				active = append(active, ev)
			}
		}
		if len(active) == 0 {
			continue
		}

		filtered := f
		filtered.Evaluations = active
		filtered.People = append([]PersonSelection(nil), f.People...)
		filtered.OriginalAvgImpact = nil
		filtered.OriginalAvgEffort = nil
		filtered.AvgImpact, filtered.AvgEffort, filtered.SelectionRate = summarize(active)
		out = append(out, filtered)
	}
	return out
}
