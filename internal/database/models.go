package database

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/types"
)

// EvaluationRow is one row of the evaluations table joined with its person.
// Feature columns are nullable because people without evaluations still
// come back from the LEFT JOIN.
type EvaluationRow struct {
	PersonPosition int             `db:"position"`
	PersonName     string          `db:"name"`
	FeatureName    sql.NullString  `db:"feature_name"`
	Description    sql.NullString  `db:"description"`
	MacroArea      sql.NullString  `db:"macro_area"`
	Impact         sql.NullFloat64 `db:"impact"`
	Effort         sql.NullFloat64 `db:"effort"`
	Selected       sql.NullBool    `db:"selected"`
}

// Input converts the row back into the loader's input shape.
func (r EvaluationRow) Input() types.FeatureInput {
	in := types.FeatureInput{
		FeatureName: r.FeatureName.String,
		Description: r.Description.String,
		MacroArea:   r.MacroArea.String,
		Selected:    r.Selected.Bool,
	}
	if r.Impact.Valid {
		in.Impact = types.Float(r.Impact.Float64)
	}
	if r.Effort.Valid {
		in.Effort = types.Float(r.Effort.Float64)
	}
	return in
}

// ImportResult describes one completed import.
type ImportResult struct {
	ID          string    `json:"id"`
	People      int       `json:"people"`
	Evaluations int       `json:"evaluations"`
	ImportedAt  time.Time `json:"imported_at"`
}

// NewImportResult stamps an import with a fresh ID.
func NewImportResult(people, evaluations int) *ImportResult {
	return &ImportResult{
		ID:          uuid.New().String(),
		People:      people,
		Evaluations: evaluations,
		ImportedAt:  time.Now(),
	}
}

// Counts reports table sizes.
type Counts struct {
	People      int `json:"people"`
	Evaluations int `json:"evaluations"`
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
