package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-catalog-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-catalog-service/internal/model"
	"github.com/fekuna/omnipos-catalog-service/pkg/database/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

const inventoryColumns = `id, product_id, store_id, quantity, store_price, reorder_level, optimal_level, created_at, updated_at`

const historyColumns = `id, inventory_id, product_id, store_id, change_type, quantity_change, previous_quantity,
        new_quantity, reference_type, reference_id, notes, created_by, created_at`

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) GetByProductStore(ctx context.Context, productID, storeID string, forUpdate bool) (*model.Inventory, error) {
	var inv model.Inventory
	query := `SELECT ` + inventoryColumns + ` FROM inventory WHERE product_id = $1 AND store_id = $2`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	err := sqlx.GetContext(ctx, postgres.Conn(ctx, r.DB), &inv, query, productID, storeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || postgres.InvalidInput(err) {
			return nil, nil
		}
		return nil, postgres.TranslateError(errors.Wrap(err, "inventoryRepo.GetByProductStore"))
	}
	return &inv, nil
}

func (r *PGRepository) Create(ctx context.Context, inv *model.Inventory) error {
	query := `
        INSERT INTO inventory (` + inventoryColumns + `)
        VALUES (:id, :product_id, :store_id, :quantity, :store_price, :reorder_level, :optimal_level, :created_at, :updated_at)
    `
	_, err := sqlx.NamedExecContext(ctx, postgres.Conn(ctx, r.DB), query, inv)
	if err != nil {
		return postgres.TranslateError(errors.Wrap(err, "inventoryRepo.Create"))
	}
	return nil
}

func (r *PGRepository) UpdateQuantity(ctx context.Context, inv *model.Inventory) error {
	query := `UPDATE inventory SET quantity = :quantity, updated_at = :updated_at WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, postgres.Conn(ctx, r.DB), query, inv)
	if err != nil {
		return postgres.TranslateError(errors.Wrap(err, "inventoryRepo.UpdateQuantity"))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "inventoryRepo.UpdateQuantity rows")
	}
	if n == 0 {
		return errors.Errorf("inventoryRepo.UpdateQuantity: inventory %s not found", inv.ID)
	}
	return nil
}

func (r *PGRepository) Delete(ctx context.Context, id string) error {
	_, err := postgres.Conn(ctx, r.DB).ExecContext(ctx, `DELETE FROM inventory WHERE id = $1`, id)
	if err != nil {
		return postgres.TranslateError(errors.Wrap(err, "inventoryRepo.Delete"))
	}
	return nil
}

func (r *PGRepository) SumQuantityByProduct(ctx context.Context, productID string) (int64, error) {
	var total int64
	query := `SELECT COALESCE(SUM(quantity), 0) FROM inventory WHERE product_id = $1`
	if err := sqlx.GetContext(ctx, postgres.Conn(ctx, r.DB), &total, query, productID); err != nil {
		return 0, postgres.TranslateError(errors.Wrap(err, "inventoryRepo.SumQuantityByProduct"))
	}
	return total, nil
}

// FindLowStock returns every record at or under threshold, or at or under its own reorder
// level when one is set.
func (r *PGRepository) FindLowStock(ctx context.Context, threshold int64) ([]model.LowStockRecord, error) {
	items := []model.LowStockRecord{}
	query := `
        SELECT p.id AS product_id, p.name AS product_name, p.type AS product_type, p.grade,
               s.id AS store_id, s.name AS store_name,
               i.quantity, i.reorder_level, i.optimal_level
        FROM inventory i
        JOIN products p ON p.id = i.product_id
        JOIN stores s ON s.id = i.store_id
        WHERE i.quantity <= $1
           OR (i.reorder_level IS NOT NULL AND i.quantity <= i.reorder_level)
        ORDER BY p.name ASC, i.quantity ASC
    `
	if err := sqlx.SelectContext(ctx, postgres.Conn(ctx, r.DB), &items, query, threshold); err != nil {
		return nil, postgres.TranslateError(errors.Wrap(err, "inventoryRepo.FindLowStock"))
	}
	return items, nil
}

func (r *PGRepository) LogHistory(ctx context.Context, h *model.InventoryHistory) error {
	query := `
        INSERT INTO inventory_history (` + historyColumns + `)
        VALUES (
            :id, :inventory_id, :product_id, :store_id, :change_type, :quantity_change, :previous_quantity,
            :new_quantity, :reference_type, :reference_id, :notes, :created_by, :created_at
        )
    `
	_, err := sqlx.NamedExecContext(ctx, postgres.Conn(ctx, r.DB), query, h)
	if err != nil {
		return postgres.TranslateError(errors.Wrap(err, "inventoryRepo.LogHistory"))
	}
	return nil
}

func (r *PGRepository) ListHistory(ctx context.Context, f *dto.HistoryFilters) ([]model.InventoryHistory, int, error) {
	items := []model.InventoryHistory{}
	var count int

	conditions := []string{}
	args := map[string]any{}

	if f.ProductID != "" {
		conditions = append(conditions, "product_id = :product_id")
		args["product_id"] = f.ProductID
	}
	if f.StoreID != "" {
		conditions = append(conditions, "store_id = :store_id")
		args["store_id"] = f.StoreID
	}
	if f.ChangeType != "" {
		conditions = append(conditions, "change_type = :change_type")
		args["change_type"] = f.ChangeType
	}
	if f.StartDate != nil {
		conditions = append(conditions, "created_at >= :start_date")
		args["start_date"] = *f.StartDate
	}
	if f.EndDate != nil {
		conditions = append(conditions, "created_at <= :end_date")
		args["end_date"] = *f.EndDate
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	conn := postgres.Conn(ctx, r.DB)
	if err := postgres.NamedGet(ctx, conn, &count, "SELECT count(*) FROM inventory_history"+whereClause, args); err != nil {
		return nil, 0, postgres.TranslateError(errors.Wrap(err, "inventoryRepo.ListHistory count"))
	}

	query := "SELECT " + historyColumns + " FROM inventory_history" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		offset := (max(f.Page, 1) - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	if err := postgres.NamedSelect(ctx, conn, &items, query, args); err != nil {
		return nil, 0, postgres.TranslateError(errors.Wrap(err, "inventoryRepo.ListHistory"))
	}
	return items, count, nil
}

func (r *PGRepository) CountHistorySince(ctx context.Context, productID string, changeType model.ChangeType, since time.Time) (int, error) {
	var n int
	query := `SELECT count(*) FROM inventory_history WHERE product_id = $1 AND change_type = $2 AND created_at >= $3`
	if err := sqlx.GetContext(ctx, postgres.Conn(ctx, r.DB), &n, query, productID, changeType, since); err != nil {
		return 0, postgres.TranslateError(errors.Wrap(err, "inventoryRepo.CountHistorySince"))
	}
	return n, nil
}
