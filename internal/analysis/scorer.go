package analysis

import (
	"math"
	"strconv"
	"strings"
)

// Default weights, used on load and whenever a weight input is invalid.
const (
	DefaultImpactWeight     = 40
	DefaultEffortWeight     = 30
	DefaultPreferenceWeight = 30
)

// WeightKind names one of the three score weights.
type WeightKind string

const (
	WeightImpact     WeightKind = "impact"
	WeightEffort     WeightKind = "effort"
	WeightPreference WeightKind = "preference"
)

// Default returns the default value for the weight.
func (k WeightKind) Default() int {
	switch k {
	case WeightImpact:
		return DefaultImpactWeight
	case WeightEffort:
		return DefaultEffortWeight
	case WeightPreference:
		return DefaultPreferenceWeight
	}
	return 0
}

func (k WeightKind) Valid() bool {
	switch k {
	case WeightImpact, WeightEffort, WeightPreference:
		return true
	}
	return false
}

// WeightState holds the score weights as percentages. They are not required
// to sum to 100.
type WeightState struct {
	Impact     int `json:"impact"`
	Effort     int `json:"effort"`
	Preference int `json:"preference"`
}

func DefaultWeights() WeightState {
	return WeightState{
		Impact:     DefaultImpactWeight,
		Effort:     DefaultEffortWeight,
		Preference: DefaultPreferenceWeight,
	}
}

func (w WeightState) Total() int {
	return w.Impact + w.Effort + w.Preference
}

// Valid is the indicator shown next to the sliders; scoring ignores it.
func (w WeightState) Valid() bool {
	return w.Total() == 100
}

// With returns w with the weight of kind set to value. Negative values fall
// back to the default for that weight.
func (w WeightState) With(kind WeightKind, value int) WeightState {
	if value < 0 {
		value = kind.Default()
	}
	switch kind {
	case WeightImpact:
		w.Impact = value
	case WeightEffort:
		w.Effort = value
	case WeightPreference:
		w.Preference = value
	}
	return w
}

// Sanitize replaces every negative weight with its default.
func (w WeightState) Sanitize() WeightState {
	return w.
		With(WeightImpact, w.Impact).
		With(WeightEffort, w.Effort).
		With(WeightPreference, w.Preference)
}

// ParseWeight reads a slider value. Anything that is not a finite,
// non-negative number yields the default for kind. Fractions are truncated.
func ParseWeight(kind WeightKind, raw string) int {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > math.MaxInt32 {
		return kind.Default()
	}
	return int(v)
}

// Score combines impact, effort (as a penalty) and selection rate into a value
// in [0,100]. The +1 centring and the clip keep any non-negative weights in range.
func Score(f AggregatedFeature, w WeightState) float64 {
	impactTerm := (f.AvgImpact / maxMetric) * (float64(w.Impact) / 100)
	effortTerm := (f.AvgEffort / maxMetric) * (float64(w.Effort) / 100)
	preferenceTerm := (f.SelectionRate / 100) * (float64(w.Preference) / 100)

	raw := (impactTerm + preferenceTerm - effortTerm + 1) * 50
	return clip(raw, 0, 100)
}

// quadrantMidpoint splits both axes; comparisons against it are strict.
const quadrantMidpoint = 3.0

// Classify buckets a feature by its (possibly scaled) averages.
func Classify(avgImpact, avgEffort float64) Quadrant {
	highImpact := avgImpact > quadrantMidpoint
	lowEffort := avgEffort < quadrantMidpoint

	switch {
	case highImpact && lowEffort:
		return QuadrantQuickWins
	case highImpact:
		return QuadrantMajorProjects
	case lowEffort:
		return QuadrantFillIns
	default:
		return QuadrantThanklessTasks
	}
}

// ScoreFeatures attaches a score and a quadrant to every feature.
func ScoreFeatures(features []AggregatedFeature, w WeightState) []ScoredFeature {
	out := make([]ScoredFeature, len(features))
	for i, f := range features {
		out[i] = ScoredFeature{
			AggregatedFeature: f,
			Score:             Score(f, w),
			Quadrant:          Classify(f.AvgImpact, f.AvgEffort),
		}
	}
	return out
}

func clip(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
