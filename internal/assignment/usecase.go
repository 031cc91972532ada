package assignment

import (
	"context"

	"github.com/fekuna/omnipos-catalog-service/internal/assignment/dto"
	"github.com/fekuna/omnipos-catalog-service/internal/model"
)

type UseCase interface {
	AssignProductToStores(ctx context.Context, input *dto.AssignInput) ([]model.AssignmentResult, error)
	RemoveProductFromStore(ctx context.Context, productID, storeID, actorID string) error
	ListStoreProducts(ctx context.Context, storeID string) ([]model.StoreAssignment, error)

	// AttachStores performs the assignment writes without an activity entry. It must run
	// inside the caller's transaction; the product is assumed to exist.
	AttachStores(ctx context.Context, input *dto.AttachInput) ([]model.AssignmentResult, error)
}
