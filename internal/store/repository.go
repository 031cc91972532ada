package store

import (
	"context"

	"github.com/fekuna/omnipos-catalog-service/internal/model"
)

// Repository is the read side of the store directory. Stores are managed elsewhere.
type Repository interface {
	FindByID(ctx context.Context, id string) (*model.Store, error)
	FindByIDs(ctx context.Context, ids []string) ([]model.Store, error)
}
