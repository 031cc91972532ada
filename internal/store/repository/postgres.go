package repository

import (
	"context"
	"database/sql"

	"github.com/fekuna/omnipos-catalog-service/internal/model"
	"github.com/fekuna/omnipos-catalog-service/pkg/database/postgres"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Store, error) {
	var s model.Store
	query := `SELECT id, code, name, address, is_active, created_at, updated_at FROM stores WHERE id = $1 LIMIT 1`
	err := sqlx.GetContext(ctx, postgres.Conn(ctx, r.DB), &s, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || postgres.InvalidInput(err) {
			return nil, nil
		}
		return nil, postgres.TranslateError(errors.Wrap(err, "storeRepo.FindByID"))
	}
	return &s, nil
}

func (r *PGRepository) FindByIDs(ctx context.Context, ids []string) ([]model.Store, error) {
	stores := []model.Store{}

	// Ids that are not UUIDs cannot exist; dropping them lets the caller report which one is missing.
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if uuid.Validate(id) == nil {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return stores, nil
	}

	query := `SELECT id, code, name, address, is_active, created_at, updated_at FROM stores WHERE id IN (:ids)`
	err := postgres.NamedSelect(ctx, postgres.Conn(ctx, r.DB), &stores, query, map[string]any{"ids": valid})
	if err != nil {
		return nil, postgres.TranslateError(errors.Wrap(err, "storeRepo.FindByIDs"))
	}
	return stores, nil
}
