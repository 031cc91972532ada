package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fekuna/omnipos-catalog-service/internal/apperror"
	"github.com/fekuna/omnipos-catalog-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-catalog-service/internal/model"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) (*PGRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPGRepository(sqlx.NewDb(db, "pgx")), mock
}

func TestGetByProductStore(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Now()

	mock.ExpectQuery(`FROM inventory WHERE product_id = \$1 AND store_id = \$2 FOR UPDATE`).
		WithArgs("p1", "s1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "store_id", "quantity", "store_price", "reorder_level", "optimal_level", "created_at", "updated_at"}).
			AddRow("i1", "p1", "s1", 7, "12.50", 3, nil, now, now))

	inv, err := repo.GetByProductStore(context.Background(), "p1", "s1", true)
	require.NoError(t, err)
	require.NotNil(t, inv)
	assert.EqualValues(t, 7, inv.Quantity)
	assert.True(t, inv.StorePrice.Valid)
	assert.Equal(t, "12.5", inv.StorePrice.Decimal.String())
	require.NotNil(t, inv.ReorderLevel)
	assert.EqualValues(t, 3, *inv.ReorderLevel)
	assert.Nil(t, inv.OptimalLevel)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByProductStoreMissing(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery(`FROM inventory WHERE product_id = \$1 AND store_id = \$2`).
		WithArgs("p1", "s1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	inv, err := repo.GetByProductStore(context.Background(), "p1", "s1", false)
	require.NoError(t, err)
	assert.Nil(t, inv)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUniqueViolation(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec(`INSERT INTO inventory`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "inventory_product_store_key"})

	err := repo.Create(context.Background(), &model.Inventory{ID: "i1", ProductID: "p1", StoreID: "s1"})
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateQuantityCheckViolation(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec(`UPDATE inventory SET quantity`).
		WithArgs(int64(-1), sqlmock.AnyArg(), "i1").
		WillReturnError(&pgconn.PgError{Code: "23514", ConstraintName: "inventory_quantity_check"})

	err := repo.UpdateQuantity(context.Background(), &model.Inventory{ID: "i1", Quantity: -1, UpdatedAt: time.Now()})
	assert.Equal(t, apperror.KindInvalidQuantity, apperror.KindOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateQuantityMissingRow(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec(`UPDATE inventory SET quantity`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateQuantity(context.Background(), &model.Inventory{ID: "i1", Quantity: 1})
	assert.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindLowStock(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery(`i.quantity <= \$1\s+OR \(i.reorder_level IS NOT NULL AND i.quantity <= i.reorder_level\)`).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "product_name", "product_type", "grade", "store_id", "store_name", "quantity", "reorder_level", "optimal_level"}).
			AddRow("p1", "Tire-X", "TIRE", "A", "s1", "Store A", 2, nil, nil).
			AddRow("p1", "Tire-X", "TIRE", "A", "s2", "Store B", 15, 20, 40))

	rows, err := repo.FindLowStock(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, model.ProductTypeTire, rows[0].ProductType)
	assert.Nil(t, rows[0].ReorderLevel)
	require.NotNil(t, rows[1].ReorderLevel)
	assert.EqualValues(t, 20, *rows[1].ReorderLevel)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListHistory(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT count\(\*\) FROM inventory_history WHERE product_id = \$1 AND change_type = \$2`).
		WithArgs("p1", "SALE").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`FROM inventory_history WHERE product_id = \$1 AND change_type = \$2 ORDER BY created_at DESC LIMIT 2 OFFSET 2`).
		WithArgs("p1", "SALE").
		WillReturnRows(sqlmock.NewRows([]string{"id", "inventory_id", "product_id", "store_id", "change_type", "quantity_change", "previous_quantity", "new_quantity", "reference_type", "reference_id", "notes", "created_by", "created_at"}).
			AddRow("h3", "i1", "p1", "s1", "SALE", -1, 5, 4, "ORDER", "o-9", "", "system", now))

	items, total, err := repo.ListHistory(context.Background(), &dto.HistoryFilters{
		ProductID: "p1", ChangeType: model.ChangeSale, Page: 2, PageSize: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, items, 1)
	assert.True(t, items[0].Balanced())
	require.NotNil(t, items[0].ReferenceID)
	assert.Equal(t, "o-9", *items[0].ReferenceID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCountHistorySince(t *testing.T) {
	repo, mock := newRepo(t)
	since := time.Now().Add(-30 * 24 * time.Hour)

	mock.ExpectQuery(`SELECT count\(\*\) FROM inventory_history WHERE product_id = \$1 AND change_type = \$2 AND created_at >= \$3`).
		WithArgs("p1", "SALE", since).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	n, err := repo.CountHistorySince(context.Background(), "p1", model.ChangeSale, since)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSumQuantityByProductUnavailable(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(quantity\), 0\) FROM inventory`).
		WillReturnError(&pgconn.PgError{Code: "08006"})

	_, err := repo.SumQuantityByProduct(context.Background(), "p1")
	assert.Equal(t, apperror.KindStorageUnavailable, apperror.KindOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByProductStoreMalformedIDIsMissing(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery(`SELECT (.+) FROM inventory WHERE product_id = \$1 AND store_id = \$2`).
		WithArgs("p1", "nope").
		WillReturnError(&pgconn.PgError{Code: "22P02"})

	inv, err := repo.GetByProductStore(context.Background(), "p1", "nope", true)
	require.NoError(t, err)
	assert.Nil(t, inv)
	require.NoError(t, mock.ExpectationsWereMet())
}
