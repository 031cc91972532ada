package product

import (
	"context"

	"github.com/fekuna/omnipos-catalog-service/internal/model"
	"github.com/fekuna/omnipos-catalog-service/internal/product/dto"
)

type Repository interface {
	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id string) (*model.Product, error)
	FindAll(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)
	Update(ctx context.Context, product *model.Product) error

	// Name uniqueness, excluding excludeID when set
	IsNameUnique(ctx context.Context, name, excludeID string) (bool, error)

	// Assigned stores with their inventory, if any
	FindStoreInventory(ctx context.Context, productID string) ([]model.StoreInventory, error)
}
