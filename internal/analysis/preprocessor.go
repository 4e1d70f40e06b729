package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/types"
)

const (
	minMetric = 1.0
	maxMetric = 5.0
)

// Issue describes an input record that was dropped during preprocessing
type Issue struct {
	Person  string `json:"person"`
	Feature string `json:"feature"`
	Index   int    `json:"index"`
	Reason  string `json:"reason"`
}

func (i Issue) String() string {
	return fmt.Sprintf("person %q feature %q (#%d): %s", i.Person, i.Feature, i.Index, i.Reason)
}

// Preprocessor turns loosely shaped person records into evaluations
type Preprocessor struct{}

// NewPreprocessor creates a new preprocessor
func NewPreprocessor() *Preprocessor {
	return &Preprocessor{}
}

// ProcessRecords normalizes records and rejects the ones that would poison
// the aggregates. Order of the surviving evaluations follows the input.
func (p *Preprocessor) ProcessRecords(records []types.PersonRecord) ([]Evaluation, []Issue) {
	evaluations := make([]Evaluation, 0, len(records)*4)
	var issues []Issue

	// keyed across records: one person may be split over several of them
	type evalKey struct{ person, feature string }
	seen := make(map[evalKey]struct{})

	for _, record := range records {
		person := strings.TrimSpace(record.PersonName)

		for i, in := range record.Features {
			name := strings.TrimSpace(in.FeatureName)
			reject := func(reason string) {
				issues = append(issues, Issue{Person: person, Feature: name, Index: i, Reason: reason})
			}

			switch {
			case person == "":
				reject("missing person_name")
				continue
			case name == "":
				reject("missing feature_name")
				continue
			case in.Impact == nil:
				reject("missing impact")
				continue
			case in.Effort == nil:
				reject("missing effort")
				continue
			}

			if reason := checkMetric("impact", *in.Impact); reason != "" {
				reject(reason)
				continue
			}
			if reason := checkMetric("effort", *in.Effort); reason != "" {
				reject(reason)
				continue
			}

			// a person contributes at most one evaluation per feature
			key := evalKey{person: person, feature: name}
			if _, dup := seen[key]; dup {
				reject("duplicate evaluation")
				continue
			}
			seen[key] = struct{}{}

			evaluations = append(evaluations, Evaluation{
				Person:      person,
				FeatureName: name,
				Description: in.Description,
				MacroArea:   NormalizeMacroArea(in.MacroArea),
				Impact:      *in.Impact,
				Effort:      *in.Effort,
				Selected:    in.Selected,
			})
		}
	}

	return evaluations, issues
}

// NormalizeMacroArea strips the quoting artifacts some exports leave behind.
func NormalizeMacroArea(area string) string {
	return strings.ReplaceAll(area, `"`, "")
}

func checkMetric(field string, v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return field + " is not a finite number"
	}
	if v < minMetric || v > maxMetric {
		return fmt.Sprintf("%s %.2f outside [1,5]", field, v)
	}
	return ""
}
