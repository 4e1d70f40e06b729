package analysis

// FeatureAggregator collects evaluations per feature name, keeping the order
// in which feature names are first encountered.
type FeatureAggregator struct {
	index    map[string]int
	features []AggregatedFeature
}

func NewFeatureAggregator() *FeatureAggregator {
	return &FeatureAggregator{index: make(map[string]int)}
}

// Add folds one evaluation into its feature. Description and macro area come
// from the first evaluation seen for the name.
func (fa *FeatureAggregator) Add(e Evaluation) {
	i, ok := fa.index[e.FeatureName]
	if !ok {
		i = len(fa.features)
		fa.index[e.FeatureName] = i
		fa.features = append(fa.features, AggregatedFeature{
			Name:        e.FeatureName,
			Description: e.Description,
			MacroArea:   NormalizeMacroArea(e.MacroArea),
		})
	}

	f := &fa.features[i]
	f.Evaluations = append(f.Evaluations, EvaluationRef{
		Person:   e.Person,
		Impact:   e.Impact,
		Effort:   e.Effort,
		Selected: e.Selected,
	})
	f.People = append(f.People, PersonSelection{Name: e.Person, Selected: e.Selected})
}

// Features computes the aggregates and returns them in encounter order.
func (fa *FeatureAggregator) Features() []AggregatedFeature {
	out := make([]AggregatedFeature, len(fa.features))
	for i, f := range fa.features {
		f.AvgImpact, f.AvgEffort, f.SelectionRate = summarize(f.Evaluations)
		out[i] = f
	}
	return out
}

// Aggregate produces one AggregatedFeature per distinct feature name in the
// store. A nil or empty store yields an empty slice.
func Aggregate(s *Store) []AggregatedFeature {
	fa := NewFeatureAggregator()
	for _, e := range s.Evaluations() {
		fa.Add(e)
	}
	return fa.Features()
}

// summarize returns mean impact, mean effort and the selected percentage.
// An empty subset summarizes to zeros; callers exclude such features first.
func summarize(refs []EvaluationRef) (avgImpact, avgEffort, selectionRate float64) {
	if len(refs) == 0 {
		return 0, 0, 0
	}

	var impact, effort float64
	selected := 0
	for _, r := range refs {
		impact += r.Impact
		effort += r.Effort
		if r.Selected {
			selected++
		}
	}

	n := float64(len(refs))
	return impact / n, effort / n, float64(selected) / n * 100
}
