package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"github.com/fekuna/omnipos-catalog-service/internal/apperror"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	CodeUniqueViolation      = "23505"
	CodeForeignKeyViolation  = "23503"
	CodeCheckViolation       = "23514"
	CodeSerializationFailure = "40001"
	CodeDeadlockDetected     = "40P01"
	CodeInvalidTextRepr      = "22P02"
)

// UniqueViolation reports whether err is a unique constraint violation and on which constraint.
func UniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == CodeUniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}

// InvalidInput reports whether PostgreSQL rejected a parameter that does not parse as its column
// type, such as a non-UUID id. Lookups treat it as no rows.
func InvalidInput(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == CodeInvalidTextRepr
}

// TranslateError maps driver failures onto the generic Conflict and StorageUnavailable kinds.
// Errors that already carry a kind, and errors it does not recognise, are returned untouched.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == CodeUniqueViolation:
			return apperror.Wrap(apperror.KindConflict, err, "unique constraint "+pgErr.ConstraintName)
		case pgErr.Code == CodeSerializationFailure, pgErr.Code == CodeDeadlockDetected:
			return apperror.Wrap(apperror.KindConflict, err, "concurrent update")
		case pgErr.Code == CodeCheckViolation:
			return apperror.Wrap(apperror.KindInvalidQuantity, err, "check constraint "+pgErr.ConstraintName)
		case strings.HasPrefix(pgErr.Code, "08"), strings.HasPrefix(pgErr.Code, "57P"):
			return apperror.Wrap(apperror.KindStorageUnavailable, err, "database unavailable")
		}
		return err
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.Is(err, context.DeadlineExceeded) {
		return apperror.Wrap(apperror.KindStorageUnavailable, err, "database unavailable")
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return apperror.Wrap(apperror.KindStorageUnavailable, err, "database unavailable")
	}

	return err
}
