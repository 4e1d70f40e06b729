package analysis

// ScalingState toggles the per-metric remap onto the full [1,5] range.
type ScalingState struct {
	Impact bool `json:"impact"`
	Effort bool `json:"effort"`
}

// Metric identifies a scalable axis.
type Metric string

const (
	MetricImpact Metric = "impact"
	MetricEffort Metric = "effort"
)

func (m Metric) Valid() bool {
	return m == MetricImpact || m == MetricEffort
}

// Toggle flips the flag for m. Unknown metrics leave the state unchanged.
func (s ScalingState) Toggle(m Metric) ScalingState {
	switch m {
	case MetricImpact:
		s.Impact = !s.Impact
	case MetricEffort:
		s.Effort = !s.Effort
	}
	return s
}

// ApplyScaling runs the enabled transforms over the filtered set.
func ApplyScaling(features []AggregatedFeature, s ScalingState) []AggregatedFeature {
	out := append([]AggregatedFeature(nil), features...)
	if s.Impact {
		out = ScaleImpact(out)
	}
	if s.Effort {
		out = ScaleEffort(out)
	}
	return out
}

// ScaleImpact remaps AvgImpact linearly from [min,max] of the set onto [1,5]
// and keeps the previous value in OriginalAvgImpact. A set whose impacts are
// all equal is returned unchanged.
func ScaleImpact(features []AggregatedFeature) []AggregatedFeature {
	return scaleMetric(features,
		func(f *AggregatedFeature) *float64 { return &f.AvgImpact },
		func(f *AggregatedFeature, orig float64) { f.OriginalAvgImpact = &orig },
	)
}

// ScaleEffort is ScaleImpact for AvgEffort.
func ScaleEffort(features []AggregatedFeature) []AggregatedFeature {
	return scaleMetric(features,
		func(f *AggregatedFeature) *float64 { return &f.AvgEffort },
		func(f *AggregatedFeature, orig float64) { f.OriginalAvgEffort = &orig },
	)
}

func scaleMetric(
	features []AggregatedFeature,
	field func(*AggregatedFeature) *float64,
	keep func(*AggregatedFeature, float64),
) []AggregatedFeature {
	out := append([]AggregatedFeature(nil), features...)
	if len(out) == 0 {
		return out
	}

	lo, hi := *field(&out[0]), *field(&out[0])
	for i := range out {
		v := *field(&out[i])
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo == hi {
		return out
	}

	for i := range out {
		v := field(&out[i])
		keep(&out[i], *v)
		*v = remap(*v, lo, hi)
	}
	return out
}

// remap pins the extremes so min and max land on exactly 1 and 5.
func remap(v, lo, hi float64) float64 {
	switch v {
	case lo:
		return minMetric
	case hi:
		return maxMetric
	}
	return minMetric + (v-lo)/(hi-lo)*(maxMetric-minMetric)
}
