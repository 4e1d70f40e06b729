package analysis

import (
	"sort"
	"strings"
)

// SortField is a column the table can be ordered by.
type SortField string

const (
	SortByScore  SortField = "score"
	SortByImpact SortField = "impact"
	SortByEffort SortField = "effort"
	SortByName   SortField = "name"
)

func (f SortField) Valid() bool {
	switch f {
	case SortByScore, SortByImpact, SortByEffort, SortByName:
		return true
	}
	return false
}

// SortOrder is the direction of a sort.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

func (o SortOrder) Valid() bool {
	return o == SortAsc || o == SortDesc
}

// SortSpec pairs a field with a direction.
type SortSpec struct {
	Field SortField `json:"field"`
	Order SortOrder `json:"order"`
}

// DefaultSort ranks by score, best first.
func DefaultSort() SortSpec {
	return SortSpec{Field: SortByScore, Order: SortDesc}
}

// SortFeatures returns a sorted copy. Equal keys keep their input order in
// both directions. Unknown fields fall back to score.
func SortFeatures(features []ScoredFeature, spec SortSpec) []ScoredFeature {
	out := append([]ScoredFeature(nil), features...)
	less := lessFor(spec.Field)
	desc := spec.Order == SortDesc

	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

func lessFor(field SortField) func(a, b ScoredFeature) bool {
	switch field {
	case SortByImpact:
		return func(a, b ScoredFeature) bool { return a.AvgImpact < b.AvgImpact }
	case SortByEffort:
		return func(a, b ScoredFeature) bool { return a.AvgEffort < b.AvgEffort }
	case SortByName:
		return func(a, b ScoredFeature) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	default:
		return func(a, b ScoredFeature) bool { return a.Score < b.Score }
	}
}

// InQuadrant returns the features classified into q, best score first.
func InQuadrant(features []ScoredFeature, q Quadrant) []ScoredFeature {
	matched := make([]ScoredFeature, 0, len(features))
	for _, f := range features {
		if f.Quadrant == q {
			matched = append(matched, f)
		}
	}
	return SortFeatures(matched, DefaultSort())
}
