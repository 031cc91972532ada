package assignment

import (
	"context"

	"github.com/fekuna/omnipos-catalog-service/internal/model"
)

type Repository interface {
	Create(ctx context.Context, a *model.StoreAssignment) error
	Exists(ctx context.Context, productID, storeID string) (bool, error)
	Delete(ctx context.Context, productID, storeID string) error
	FindByStore(ctx context.Context, storeID string) ([]model.StoreAssignment, error)
}
