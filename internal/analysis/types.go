package analysis

// Quadrant is one of the four prioritization buckets of the Impact/Effort matrix
type Quadrant string

const (
	QuadrantQuickWins      Quadrant = "quick-wins"
	QuadrantMajorProjects  Quadrant = "major-projects"
	QuadrantFillIns        Quadrant = "fill-ins"
	QuadrantThanklessTasks Quadrant = "thankless-tasks"
)

// Quadrants lists every quadrant in display order.
var Quadrants = []Quadrant{
	QuadrantQuickWins,
	QuadrantMajorProjects,
	QuadrantFillIns,
	QuadrantThanklessTasks,
}

var quadrantTitles = map[Quadrant]string{
	QuadrantQuickWins:      "Quick Wins - High Impact, Low Effort",
	QuadrantMajorProjects:  "Major Projects - High Impact, High Effort",
	QuadrantFillIns:        "Fill-ins - Low Impact, Low Effort",
	QuadrantThanklessTasks: "Thankless Tasks - Low Impact, High Effort",
}

// Valid reports whether q names a known quadrant.
func (q Quadrant) Valid() bool {
	_, ok := quadrantTitles[q]
	return ok
}

// Title returns the panel heading for the quadrant.
func (q Quadrant) Title() string {
	if title, ok := quadrantTitles[q]; ok {
		return title
	}
	return "Quadrant Features"
}

// Evaluation is one person's judgment of one feature, after normalization.
type Evaluation struct {
	Person      string  `json:"person"`
	FeatureName string  `json:"feature_name"`
	Description string  `json:"description"`
	MacroArea   string  `json:"macro_area"`
	Impact      float64 `json:"impact"`
	Effort      float64 `json:"effort"`
	Selected    bool    `json:"selected"`
}

// EvaluationRef is the per-feature view of an evaluation.
type EvaluationRef struct {
	Person   string  `json:"person"`
	Impact   float64 `json:"impact"`
	Effort   float64 `json:"effort"`
	Selected bool    `json:"selected"`
}

// PersonSelection records whether a person selected a feature
type PersonSelection struct {
	Name     string `json:"name"`
	Selected bool   `json:"selected"`
}

// AggregatedFeature collapses every evaluation of one feature name.
//
// OriginalAvgImpact and OriginalAvgEffort are only set while scaling actually
// remapped the corresponding metric.
type AggregatedFeature struct {
	Name              string            `json:"name"`
	Description       string            `json:"description"`
	MacroArea         string            `json:"macro_area"`
	Evaluations       []EvaluationRef   `json:"evaluations"`
	AvgImpact         float64           `json:"avg_impact"`
	AvgEffort         float64           `json:"avg_effort"`
	SelectionRate     float64           `json:"selection_rate"`
	People            []PersonSelection `json:"people"`
	OriginalAvgImpact *float64          `json:"original_avg_impact,omitempty"`
	OriginalAvgEffort *float64          `json:"original_avg_effort,omitempty"`
}

// ScoredFeature is the record handed to presentation collaborators
type ScoredFeature struct {
	AggregatedFeature
	Score    float64  `json:"score"`
	Quadrant Quadrant `json:"quadrant"`
}

// DisplayImpact returns the unscaled impact, whether or not scaling is active.
func (f AggregatedFeature) DisplayImpact() float64 {
	if f.OriginalAvgImpact != nil {
		return *f.OriginalAvgImpact
	}
	return f.AvgImpact
}

// DisplayEffort returns the unscaled effort, whether or not scaling is active.
func (f AggregatedFeature) DisplayEffort() float64 {
	if f.OriginalAvgEffort != nil {
		return *f.OriginalAvgEffort
	}
	return f.AvgEffort
}

// SelectedBy returns the names of the people who selected the feature, in
// evaluation order.
func (f AggregatedFeature) SelectedBy() []string {
	names := make([]string, 0, len(f.People))
	for _, p := range f.People {
		if p.Selected {
			names = append(names, p.Name)
		}
	}
	return names
}

// Counts summarises a filtered view
type Counts struct {
	Total    int `json:"total"`
	Selected int `json:"selected"`
}
