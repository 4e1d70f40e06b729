package loader

import (
	"context"

	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/database"
	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/errors"
	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/types"
)

// SQLiteSource reads the dataset previously stored with Import.
type SQLiteSource struct {
	path string
}

func NewSQLiteSource(path string) *SQLiteSource {
	return &SQLiteSource{path: path}
}

func (s *SQLiteSource) Name() string { return "sqlite:" + s.path }

func (s *SQLiteSource) Load(ctx context.Context) ([]types.PersonRecord, error) {
	db, err := database.Open(ctx, s.path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return database.NewRepository(db).LoadRecords(ctx)
}

// Import replaces the contents of the database at dbPath with records.
func Import(ctx context.Context, dbPath string, records []types.PersonRecord) (*database.ImportResult, error) {
	db, err := database.Open(ctx, dbPath)
	if err != nil {
		return nil, errors.WrapError(err, "import into %s", dbPath)
	}
	defer db.Close()

	result, err := database.NewRepository(db).ReplaceAll(ctx, records)
	if err != nil {
		return nil, errors.WrapError(err, "import into %s", dbPath)
	}
	return result, nil
}
