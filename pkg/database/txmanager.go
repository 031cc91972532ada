// Package database declares the unit-of-work contract shared by use cases.
package database

import "context"

// TxManager runs fn inside one transaction. The transaction commits when fn returns nil and
// rolls back on any error or panic. Calls made with a context that already carries a
// transaction join it instead of opening a new one.
type TxManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
