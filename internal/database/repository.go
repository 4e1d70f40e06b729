package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/types"
)

// Repository handles database operations
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// ReplaceAll swaps the stored dataset for records in one transaction. Person
// and feature order is kept through position columns.
func (r *Repository) ReplaceAll(ctx context.Context, records []types.PersonRecord) (*ImportResult, error) {
	insertPerson, err := r.db.GetPreparedStatement("insert_person")
	if err != nil {
		return nil, err
	}
	insertEvaluation, err := r.db.GetPreparedStatement("insert_evaluation")
	if err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM evaluations`); err != nil {
		return nil, fmt.Errorf("failed to clear evaluations: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM people`); err != nil {
		return nil, fmt.Errorf("failed to clear people: %w", err)
	}

	personStmt := tx.StmtContext(ctx, insertPerson)
	evalStmt := tx.StmtContext(ctx, insertEvaluation)

	evaluations := 0
	for p, rec := range records {
		if _, err := personStmt.ExecContext(ctx, p, rec.PersonName); err != nil {
			return nil, fmt.Errorf("failed to insert person %q: %w", rec.PersonName, err)
		}
		for f, in := range rec.Features {
			_, err := evalStmt.ExecContext(ctx,
				p, f, in.FeatureName, in.Description, in.MacroArea,
				nullFloat(in.Impact), nullFloat(in.Effort), in.Selected,
			)
			if err != nil {
				return nil, fmt.Errorf("failed to insert evaluation %q for %q: %w", in.FeatureName, rec.PersonName, err)
			}
			evaluations++
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit import: %w", err)
	}

	return NewImportResult(len(records), evaluations), nil
}

// LoadRecords reads the dataset back in stored order.
func (r *Repository) LoadRecords(ctx context.Context) ([]types.PersonRecord, error) {
	stmt, err := r.db.GetPreparedStatement("select_evaluations")
	if err != nil {
		return nil, err
	}

	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query evaluations: %w", err)
	}
	defer rows.Close()

	var records []types.PersonRecord
	lastPosition := -1
	for rows.Next() {
		var row EvaluationRow
		if err := rows.Scan(
			&row.PersonPosition, &row.PersonName, &row.FeatureName, &row.Description,
			&row.MacroArea, &row.Impact, &row.Effort, &row.Selected,
		); err != nil {
			return nil, fmt.Errorf("failed to scan evaluation: %w", err)
		}

		if row.PersonPosition != lastPosition {
			records = append(records, types.PersonRecord{PersonName: row.PersonName, Features: []types.FeatureInput{}})
			lastPosition = row.PersonPosition
		}
		if row.FeatureName.Valid {
			last := &records[len(records)-1]
			last.Features = append(last.Features, row.Input())
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate evaluations: %w", err)
	}

	return records, nil
}

// Counts returns how many people and evaluations are stored.
func (r *Repository) Counts(ctx context.Context) (Counts, error) {
	stmt, err := r.db.GetPreparedStatement("count_rows")
	if err != nil {
		return Counts{}, err
	}

	var c Counts
	if err := stmt.QueryRowContext(ctx).Scan(&c.People, &c.Evaluations); err != nil {
		if err == sql.ErrNoRows {
			return Counts{}, nil
		}
		return Counts{}, fmt.Errorf("failed to count rows: %w", err)
	}
	return c, nil
}
