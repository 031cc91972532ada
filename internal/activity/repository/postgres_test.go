package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fekuna/omnipos-catalog-service/internal/activity/dto"
	"github.com/fekuna/omnipos-catalog-service/internal/model"
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

func TestCreate(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec(`INSERT INTO activity_logs`).
		WithArgs("a1", "u1", model.ActionProductCreated, model.EntityProduct, "p1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &model.ActivityLog{
		ID: "a1", UserID: "u1", Action: model.ActionProductCreated, EntityType: model.EntityProduct,
		EntityID: "p1", Details: []byte(`{"name":"Tire-X"}`), CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindAllFiltersAndPages(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT count\(\*\) FROM activity_logs WHERE action = \$1 AND entity_id = \$2`).
		WithArgs(model.ActionInventoryAdjusted, "inv-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`FROM activity_logs WHERE action = \$1 AND entity_id = \$2 ORDER BY created_at DESC LIMIT 2 OFFSET 2`).
		WithArgs(model.ActionInventoryAdjusted, "inv-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "action", "entity_type", "entity_id", "details", "created_at"}).
			AddRow("a3", "u1", model.ActionInventoryAdjusted, model.EntityInventory, "inv-1", []byte(`{}`), now))

	items, total, err := repo.FindAll(context.Background(), &dto.ActivityFilters{
		Action: model.ActionInventoryAdjusted, EntityID: "inv-1", Page: 2, PageSize: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, items, 1)
	assert.Equal(t, "a3", items[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
