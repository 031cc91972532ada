package usecase

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-catalog-service/internal/activity"
	activitydto "github.com/fekuna/omnipos-catalog-service/internal/activity/dto"
	"github.com/fekuna/omnipos-catalog-service/internal/apperror"
	"github.com/fekuna/omnipos-catalog-service/internal/assignment"
	"github.com/fekuna/omnipos-catalog-service/internal/assignment/dto"
	"github.com/fekuna/omnipos-catalog-service/internal/inventory"
	inventorydto "github.com/fekuna/omnipos-catalog-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-catalog-service/internal/model"
	"github.com/fekuna/omnipos-catalog-service/internal/product"
	"github.com/fekuna/omnipos-catalog-service/internal/store"
	"github.com/fekuna/omnipos-catalog-service/internal/validation"
	"github.com/fekuna/omnipos-catalog-service/pkg/cache"
	"github.com/fekuna/omnipos-catalog-service/pkg/database"
	"github.com/fekuna/omnipos-catalog-service/pkg/logger"
	"github.com/fekuna/omnipos-catalog-service/pkg/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("github.com/fekuna/omnipos-catalog-service/internal/assignment")

type assignmentUseCase struct {
	repo          assignment.Repository
	productRepo   product.Repository
	storeRepo     store.Repository
	inventoryRepo inventory.Repository
	stocker       inventory.UseCase
	tx            database.TxManager
	activity      activity.Emitter
	cache         cache.Cache
	logger        logger.ZapLogger
	now           func() time.Time
}

func NewAssignmentUseCase(
	repo assignment.Repository,
	productRepo product.Repository,
	storeRepo store.Repository,
	inventoryRepo inventory.Repository,
	stocker inventory.UseCase,
	tx database.TxManager,
	emitter activity.Emitter,
	cache cache.Cache,
	log logger.ZapLogger,
) assignment.UseCase {
	return &assignmentUseCase{
		repo:          repo,
		productRepo:   productRepo,
		storeRepo:     storeRepo,
		inventoryRepo: inventoryRepo,
		stocker:       stocker,
		tx:            tx,
		activity:      emitter,
		cache:         cache,
		logger:        log,
		now:           time.Now,
	}
}

func (uc *assignmentUseCase) AssignProductToStores(ctx context.Context, input *dto.AssignInput) (results []model.AssignmentResult, err error) {
	ctx, span := tracer.Start(ctx, "assignment.AssignProductToStores", trace.WithAttributes(
		attribute.String("product.id", input.ProductID),
		attribute.Int("stores.count", len(input.Allocations)),
	))
	defer func() { observability.EndSpan(span, err) }()

	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	err = uc.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		p, err := uc.productRepo.FindByID(ctx, input.ProductID)
		if err != nil {
			return err
		}
		if p == nil {
			return apperror.ProductNotFound(input.ProductID)
		}

		results, err = uc.AttachStores(ctx, &dto.AttachInput{
			ProductID:     input.ProductID,
			ActorID:       input.ActorID,
			ReferenceType: model.RefStoreAssignment,
			Allocations:   input.Allocations,
		})
		if err != nil {
			return err
		}

		storeIDs := make([]string, 0, len(results))
		for _, r := range results {
			storeIDs = append(storeIDs, r.StoreID)
		}
		return uc.activity.Emit(ctx, &activitydto.EmitInput{
			ActorID:    input.ActorID,
			Action:     model.ActionProductAssignedToStores,
			EntityType: model.EntityProduct,
			EntityID:   input.ProductID,
			Details: map[string]any{
				"product_name": p.Name,
				"store_count":  len(storeIDs),
				"store_ids":    storeIDs,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	uc.invalidateSearch(ctx)
	uc.logger.Info("product assigned to stores",
		zap.String("product_id", input.ProductID),
		zap.Int("stores", len(results)),
	)
	return results, nil
}

// AttachStores validates every store before writing anything, then creates the assignment and
// initial stock for each allocation in request order.
func (uc *assignmentUseCase) AttachStores(ctx context.Context, input *dto.AttachInput) ([]model.AssignmentResult, error) {
	if input.ActorID == "" {
		return nil, apperror.MissingField("actor_id")
	}
	if len(input.Allocations) == 0 {
		return []model.AssignmentResult{}, nil
	}

	ids := make([]string, 0, len(input.Allocations))
	seen := make(map[string]struct{}, len(input.Allocations))
	for i := range input.Allocations {
		alloc := &input.Allocations[i]
		if err := validation.Struct(alloc); err != nil {
			return nil, err
		}
		if _, dup := seen[alloc.StoreID]; dup {
			return nil, apperror.AlreadyAssigned(input.ProductID, alloc.StoreID)
		}
		seen[alloc.StoreID] = struct{}{}
		ids = append(ids, alloc.StoreID)
	}

	var results []model.AssignmentResult
	err := uc.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		stores, err := uc.storeRepo.FindByIDs(ctx, ids)
		if err != nil {
			return err
		}
		byID := make(map[string]model.Store, len(stores))
		for _, s := range stores {
			byID[s.ID] = s
		}
		for _, id := range ids {
			if _, ok := byID[id]; !ok {
				return apperror.StoreNotFound(id)
			}
			exists, err := uc.repo.Exists(ctx, input.ProductID, id)
			if err != nil {
				return err
			}
			if exists {
				return apperror.AlreadyAssigned(input.ProductID, id)
			}
		}

		results = make([]model.AssignmentResult, 0, len(input.Allocations))
		for _, alloc := range input.Allocations {
			if err := uc.repo.Create(ctx, &model.StoreAssignment{
				ProductID: input.ProductID,
				StoreID:   alloc.StoreID,
				CreatedAt: uc.now().UTC(),
			}); err != nil {
				return err
			}

			inv, err := uc.stocker.StockInitial(ctx, &inventorydto.StockInput{
				ProductID:     input.ProductID,
				StoreID:       alloc.StoreID,
				Quantity:      alloc.InitialQuantity,
				StorePrice:    alloc.StorePrice,
				ReorderLevel:  alloc.ReorderLevel,
				OptimalLevel:  alloc.OptimalLevel,
				ReferenceType: input.ReferenceType,
				ActorID:       input.ActorID,
			})
			if err != nil {
				return err
			}

			results = append(results, model.AssignmentResult{
				StoreID:   alloc.StoreID,
				StoreName: byID[alloc.StoreID].Name,
				Inventory: inv,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (uc *assignmentUseCase) RemoveProductFromStore(ctx context.Context, productID, storeID, actorID string) (err error) {
	ctx, span := tracer.Start(ctx, "assignment.RemoveProductFromStore", trace.WithAttributes(
		attribute.String("product.id", productID),
		attribute.String("store.id", storeID),
	))
	defer func() { observability.EndSpan(span, err) }()

	switch {
	case productID == "":
		return apperror.MissingField("product_id")
	case storeID == "":
		return apperror.MissingField("store_id")
	case actorID == "":
		return apperror.MissingField("actor_id")
	}

	err = uc.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		p, err := uc.productRepo.FindByID(ctx, productID)
		if err != nil {
			return err
		}
		if p == nil {
			return apperror.ProductNotFound(productID)
		}

		assigned, err := uc.repo.Exists(ctx, productID, storeID)
		if err != nil {
			return err
		}
		if !assigned {
			return apperror.NotAssigned(productID, storeID)
		}

		inv, err := uc.inventoryRepo.GetByProductStore(ctx, productID, storeID, true)
		if err != nil {
			return err
		}
		if inv != nil {
			if inv.Quantity > 0 {
				return apperror.ProductHasInventory(productID, inv.Quantity)
			}
			if err := uc.inventoryRepo.Delete(ctx, inv.ID); err != nil {
				return err
			}
		}

		if err := uc.repo.Delete(ctx, productID, storeID); err != nil {
			return err
		}

		return uc.activity.Emit(ctx, &activitydto.EmitInput{
			ActorID:    actorID,
			Action:     model.ActionProductRemovedFromStore,
			EntityType: model.EntityProduct,
			EntityID:   productID,
			Details: map[string]any{
				"product_name": p.Name,
				"store_id":     storeID,
			},
		})
	})
	if err != nil {
		return err
	}

	uc.invalidateSearch(ctx)
	uc.logger.Info("product removed from store", zap.String("product_id", productID), zap.String("store_id", storeID))
	return nil
}

func (uc *assignmentUseCase) ListStoreProducts(ctx context.Context, storeID string) ([]model.StoreAssignment, error) {
	s, err := uc.storeRepo.FindByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, apperror.StoreNotFound(storeID)
	}
	return uc.repo.FindByStore(ctx, storeID)
}

func (uc *assignmentUseCase) invalidateSearch(ctx context.Context) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.DeletePattern(ctx, product.SearchCachePattern); err != nil {
		uc.logger.Warn("failed to invalidate product search cache", zap.Error(err))
	}
}
