package repository

import (
	"context"

	"github.com/fekuna/omnipos-catalog-service/internal/apperror"
	"github.com/fekuna/omnipos-catalog-service/internal/model"
	"github.com/fekuna/omnipos-catalog-service/pkg/database/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

const assignmentPKey = "store_products_pkey"

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, a *model.StoreAssignment) error {
	query := `INSERT INTO store_products (product_id, store_id, created_at) VALUES (:product_id, :store_id, :created_at)`
	_, err := sqlx.NamedExecContext(ctx, postgres.Conn(ctx, r.DB), query, a)
	if err != nil {
		if constraint, ok := postgres.UniqueViolation(err); ok && constraint == assignmentPKey {
			return apperror.AlreadyAssigned(a.ProductID, a.StoreID)
		}
		return postgres.TranslateError(errors.Wrap(err, "assignmentRepo.Create"))
	}
	return nil
}

func (r *PGRepository) Exists(ctx context.Context, productID, storeID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM store_products WHERE product_id = $1 AND store_id = $2)`
	if err := sqlx.GetContext(ctx, postgres.Conn(ctx, r.DB), &exists, query, productID, storeID); err != nil {
		if postgres.InvalidInput(err) {
			return false, nil
		}
		return false, postgres.TranslateError(errors.Wrap(err, "assignmentRepo.Exists"))
	}
	return exists, nil
}

func (r *PGRepository) Delete(ctx context.Context, productID, storeID string) error {
	query := `DELETE FROM store_products WHERE product_id = $1 AND store_id = $2`
	if _, err := postgres.Conn(ctx, r.DB).ExecContext(ctx, query, productID, storeID); err != nil {
		return postgres.TranslateError(errors.Wrap(err, "assignmentRepo.Delete"))
	}
	return nil
}

func (r *PGRepository) FindByStore(ctx context.Context, storeID string) ([]model.StoreAssignment, error) {
	items := []model.StoreAssignment{}
	query := `SELECT product_id, store_id, created_at FROM store_products WHERE store_id = $1 ORDER BY created_at ASC`
	if err := sqlx.SelectContext(ctx, postgres.Conn(ctx, r.DB), &items, query, storeID); err != nil {
		if postgres.InvalidInput(err) {
			return items, nil
		}
		return nil, postgres.TranslateError(errors.Wrap(err, "assignmentRepo.FindByStore"))
	}
	return items, nil
}
