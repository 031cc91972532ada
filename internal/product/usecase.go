package product

import (
	"context"

	"github.com/fekuna/omnipos-catalog-service/internal/model"
	"github.com/fekuna/omnipos-catalog-service/internal/product/dto"
)

type UseCase interface {
	CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error)
	UpdateProduct(ctx context.Context, input *dto.UpdateProductInput) (*model.Product, error)
	// ArchiveProduct never archives: it logs the request and always returns an error.
	ArchiveProduct(ctx context.Context, productID, actorID, reason string) error

	GetProductWithInventory(ctx context.Context, productID string) (*model.ProductDetail, error)
	SearchProducts(ctx context.Context, filters *dto.ProductFilters) (*dto.ProductPage, error)
}
