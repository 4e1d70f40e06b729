package types

// PersonRecord is one person's block of evaluations as delivered by a data source
type PersonRecord struct {
	PersonName string         `json:"person_name" yaml:"person_name"`
	Features   []FeatureInput `json:"features" yaml:"features"`
}

// FeatureInput is a single raw evaluation. Impact and Effort are pointers so a
// missing value can be told apart from a zero.
type FeatureInput struct {
	FeatureName string   `json:"feature_name" yaml:"feature_name"`
	Description string   `json:"description" yaml:"description"`
	MacroArea   string   `json:"macro_area" yaml:"macro_area"`
	Impact      *float64 `json:"impact" yaml:"impact"`
	Effort      *float64 `json:"effort" yaml:"effort"`
	Selected    bool     `json:"selected" yaml:"selected"`
}

// Float returns a pointer to v, handy for building inputs in code.
func Float(v float64) *float64 {
	return &v
}
