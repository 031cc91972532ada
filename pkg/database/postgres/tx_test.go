package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fekuna/omnipos-catalog-service/internal/apperror"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestWithinTransaction_Commit(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO stores").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := NewTxManager(db).WithinTransaction(context.Background(), func(ctx context.Context) error {
		_, ok := TxFromContext(ctx)
		require.True(t, ok)
		_, err := Conn(ctx, db).ExecContext(ctx, "INSERT INTO stores (id) VALUES ($1)", "s-1")
		return err
	})

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTransaction_RollbackOnError(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := NewTxManager(db).WithinTransaction(context.Background(), func(ctx context.Context) error {
		return boom
	})

	assert.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTransaction_RollbackOnPanic(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.Panics(t, func() {
		_ = NewTxManager(db).WithinTransaction(context.Background(), func(ctx context.Context) error {
			panic("unexpected")
		})
	})
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTransaction_NestedCallJoinsOuter(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	tm := NewTxManager(db)
	err := tm.WithinTransaction(context.Background(), func(ctx context.Context) error {
		outer, _ := TxFromContext(ctx)
		return tm.WithinTransaction(ctx, func(inner context.Context) error {
			got, _ := TxFromContext(inner)
			assert.Same(t, outer, got)
			return nil
		})
	})

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTransaction_BeginFailureIsStorageUnavailable(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin().WillReturnError(&pgconn.PgError{Code: "08006", Message: "connection failure"})

	err := NewTxManager(db).WithinTransaction(context.Background(), func(ctx context.Context) error {
		t.Fatal("fn must not run")
		return nil
	})

	assert.Equal(t, apperror.KindStorageUnavailable, apperror.KindOf(err))
}

func TestConnFallsBackToDB(t *testing.T) {
	db, _ := newMock(t)
	assert.Same(t, db, Conn(context.Background(), db))
}

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperror.Kind
	}{
		{"unique", &pgconn.PgError{Code: CodeUniqueViolation, ConstraintName: "products_name_key"}, apperror.KindConflict},
		{"serialization", &pgconn.PgError{Code: CodeSerializationFailure}, apperror.KindConflict},
		{"deadlock", &pgconn.PgError{Code: CodeDeadlockDetected}, apperror.KindConflict},
		{"check", &pgconn.PgError{Code: CodeCheckViolation}, apperror.KindInvalidQuantity},
		{"connection", &pgconn.PgError{Code: "08006"}, apperror.KindStorageUnavailable},
		{"bad conn", driver.ErrBadConn, apperror.KindStorageUnavailable},
		{"kind kept", apperror.StoreNotFound("s"), apperror.KindStoreNotFound},
		{"unknown", errors.New("syntax"), apperror.KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apperror.KindOf(TranslateError(tt.err)))
		})
	}
}

func TestUniqueViolation(t *testing.T) {
	name, ok := UniqueViolation(&pgconn.PgError{Code: CodeUniqueViolation, ConstraintName: "store_products_pkey"})
	assert.True(t, ok)
	assert.Equal(t, "store_products_pkey", name)

	_, ok = UniqueViolation(errors.New("other"))
	assert.False(t, ok)
}
