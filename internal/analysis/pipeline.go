package analysis

// ComputeView runs the whole engine from the raw evaluations: aggregate,
// filter, scale, then score and classify. It is recomputed on every call and
// never reads a previous result. Output keeps first-encounter order.
func ComputeView(s *Store, filters FilterState, weights WeightState, scaling ScalingState) []ScoredFeature {
	features := Aggregate(s)
	features = ApplyFilters(features, filters)
	features = ApplyScaling(features, scaling)
	return ScoreFeatures(features, weights.Sanitize())
}

// CountFeatures reports how many features survive the filters and how many
// of those at least one active person selected.
func CountFeatures(features []ScoredFeature) Counts {
	c := Counts{Total: len(features)}
	for _, f := range features {
		for _, ev := range f.Evaluations {
			if ev.Selected {
				c.Selected++
				break
			}
		}
	}
	return c
}

// FindFeature looks a feature up by exact name.
func FindFeature(features []ScoredFeature, name string) (ScoredFeature, bool) {
	for _, f := range features {
		if f.Name == name {
			return f, true
		}
	}
	return ScoredFeature{}, false
}
