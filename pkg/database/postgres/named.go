package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// NamedSelect runs a named query against e, expanding slice arguments for IN clauses.
func NamedSelect(ctx context.Context, e Executor, dest any, query string, arg any) error {
	q, args, err := bindNamed(e, query, arg)
	if err != nil {
		return err
	}
	return sqlx.SelectContext(ctx, e, dest, q, args...)
}

func NamedGet(ctx context.Context, e Executor, dest any, query string, arg any) error {
	q, args, err := bindNamed(e, query, arg)
	if err != nil {
		return err
	}
	return sqlx.GetContext(ctx, e, dest, q, args...)
}

func bindNamed(e Executor, query string, arg any) (string, []any, error) {
	q, args, err := sqlx.Named(query, arg)
	if err != nil {
		return "", nil, err
	}
	q, args, err = sqlx.In(q, args...)
	if err != nil {
		return "", nil, err
	}
	return e.Rebind(q), args, nil
}
