package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/fekuna/omnipos-catalog-service/internal/activity"
	activitydto "github.com/fekuna/omnipos-catalog-service/internal/activity/dto"
	"github.com/fekuna/omnipos-catalog-service/internal/apperror"
	"github.com/fekuna/omnipos-catalog-service/internal/assignment"
	"github.com/fekuna/omnipos-catalog-service/internal/inventory"
	"github.com/fekuna/omnipos-catalog-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-catalog-service/internal/model"
	"github.com/fekuna/omnipos-catalog-service/internal/product"
	"github.com/fekuna/omnipos-catalog-service/internal/store"
	"github.com/fekuna/omnipos-catalog-service/internal/validation"
	"github.com/fekuna/omnipos-catalog-service/pkg/cache"
	"github.com/fekuna/omnipos-catalog-service/pkg/database"
	"github.com/fekuna/omnipos-catalog-service/pkg/logger"
	"github.com/fekuna/omnipos-catalog-service/pkg/observability"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	DefaultLowStockThreshold int64 = 10
	defaultHistoryPageSize         = 20
	maxHistoryPageSize             = 100
)

var tracer = otel.Tracer("github.com/fekuna/omnipos-catalog-service/internal/inventory")

type inventoryUseCase struct {
	repo        inventory.Repository
	productRepo product.Repository
	storeRepo   store.Repository
	assignRepo  assignment.Repository
	tx          database.TxManager
	activity    activity.Emitter
	history     *HistoryRecorder
	cache       cache.Cache
	logger      logger.ZapLogger
	now         func() time.Time

	lowStockThreshold int64
}

// NewInventoryUseCase wires the stocking operations. cache may be nil.
func NewInventoryUseCase(
	repo inventory.Repository,
	productRepo product.Repository,
	storeRepo store.Repository,
	assignRepo assignment.Repository,
	tx database.TxManager,
	emitter activity.Emitter,
	cache cache.Cache,
	log logger.ZapLogger,
	lowStockThreshold int64,
) inventory.UseCase {
	if lowStockThreshold <= 0 {
		lowStockThreshold = DefaultLowStockThreshold
	}
	uc := &inventoryUseCase{
		repo:              repo,
		productRepo:       productRepo,
		storeRepo:         storeRepo,
		assignRepo:        assignRepo,
		tx:                tx,
		activity:          emitter,
		cache:             cache,
		logger:            log,
		now:               time.Now,
		lowStockThreshold: lowStockThreshold,
	}
	uc.history = NewHistoryRecorder(repo, func() time.Time { return uc.now() })
	return uc
}

func (uc *inventoryUseCase) StockInitial(ctx context.Context, input *dto.StockInput) (*model.Inventory, error) {
	if input.ActorID == "" {
		return nil, apperror.MissingField("actor_id")
	}
	if input.Quantity < 0 {
		return nil, apperror.InvalidQuantity("initial_quantity", "must not be negative")
	}
	if input.StorePrice != nil && input.StorePrice.IsNegative() {
		return nil, apperror.InvalidPrice("store_price")
	}

	hasOverrides := input.StorePrice != nil || input.ReorderLevel != nil || input.OptimalLevel != nil
	if input.Quantity == 0 && !hasOverrides {
		return nil, nil
	}

	var inv *model.Inventory
	err := uc.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		now := uc.now().UTC()
		inv = &model.Inventory{
			ID:           uuid.New().String(),
			ProductID:    input.ProductID,
			StoreID:      input.StoreID,
			Quantity:     input.Quantity,
			ReorderLevel: input.ReorderLevel,
			OptimalLevel: input.OptimalLevel,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if input.StorePrice != nil {
			inv.StorePrice.Decimal = *input.StorePrice
			inv.StorePrice.Valid = true
		}
		if err := uc.repo.Create(ctx, inv); err != nil {
			return err
		}

		if input.Quantity == 0 {
			return nil
		}
		_, err := uc.history.Record(ctx, HistoryEntry{
			Inventory:     inv,
			ChangeType:    model.ChangePurchase,
			Previous:      0,
			Change:        input.Quantity,
			ReferenceType: input.ReferenceType,
			Notes:         "initial stock",
			ActorID:       input.ActorID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (uc *inventoryUseCase) AdjustInventory(ctx context.Context, input *dto.AdjustInventoryInput) (inv *model.Inventory, err error) {
	ctx, span := tracer.Start(ctx, "inventory.AdjustInventory", trace.WithAttributes(
		attribute.String("product.id", input.ProductID),
		attribute.String("store.id", input.StoreID),
		attribute.String("change.type", string(input.ChangeType)),
		attribute.Int64("change.quantity", input.QuantityChange),
	))
	defer func() { observability.EndSpan(span, err) }()

	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if err := checkSign(input.ChangeType, input.QuantityChange); err != nil {
		return nil, err
	}
	refType := input.ReferenceType
	if refType == "" {
		refType = model.RefManual
	}

	var previous int64
	err = uc.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := uc.requireProductAndStores(ctx, input.ProductID, input.StoreID); err != nil {
			return err
		}

		current, err := uc.repo.GetByProductStore(ctx, input.ProductID, input.StoreID, true)
		if err != nil {
			return err
		}

		now := uc.now().UTC()
		if current == nil {
			if err := uc.requireAssigned(ctx, input.ProductID, input.StoreID); err != nil {
				return err
			}
			if input.QuantityChange < 0 {
				return apperror.InsufficientStock(input.ProductID, input.StoreID, 0, -input.QuantityChange)
			}
			current = &model.Inventory{
				ID:        uuid.New().String(),
				ProductID: input.ProductID,
				StoreID:   input.StoreID,
				Quantity:  input.QuantityChange,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := uc.repo.Create(ctx, current); err != nil {
				return err
			}
		} else {
			previous = current.Quantity
			if previous+input.QuantityChange < 0 {
				return apperror.InsufficientStock(input.ProductID, input.StoreID, previous, -input.QuantityChange)
			}
			current.Quantity = previous + input.QuantityChange
			current.UpdatedAt = now
			if err := uc.repo.UpdateQuantity(ctx, current); err != nil {
				return err
			}
		}

		if _, err := uc.history.Record(ctx, HistoryEntry{
			Inventory:     current,
			ChangeType:    input.ChangeType,
			Previous:      previous,
			Change:        input.QuantityChange,
			ReferenceType: refType,
			ReferenceID:   input.ReferenceID,
			Notes:         input.Reason,
			ActorID:       input.ActorID,
		}); err != nil {
			return err
		}

		inv = current
		return uc.activity.Emit(ctx, &activitydto.EmitInput{
			ActorID:    input.ActorID,
			Action:     model.ActionInventoryAdjusted,
			EntityType: model.EntityInventory,
			EntityID:   current.ID,
			Details: map[string]any{
				"product_id":        input.ProductID,
				"store_id":          input.StoreID,
				"change_type":       input.ChangeType,
				"quantity_change":   input.QuantityChange,
				"previous_quantity": previous,
				"new_quantity":      current.Quantity,
				"reason":            input.Reason,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	uc.invalidateSearch(ctx)
	uc.logger.Info("inventory adjusted",
		zap.String("product_id", input.ProductID),
		zap.String("store_id", input.StoreID),
		zap.String("change_type", string(input.ChangeType)),
		zap.Int64("previous", previous),
		zap.Int64("new", inv.Quantity),
	)
	return inv, nil
}

// checkSign enforces the direction each change type moves stock in.
func checkSign(changeType model.ChangeType, change int64) error {
	switch changeType {
	case model.ChangePurchase, model.ChangeReturn:
		if change <= 0 {
			return apperror.InvalidQuantity("quantity_change", "must be positive for "+string(changeType))
		}
	case model.ChangeSale, model.ChangeDamage:
		if change >= 0 {
			return apperror.InvalidQuantity("quantity_change", "must be negative for "+string(changeType))
		}
	default:
		if change == 0 {
			return apperror.InvalidQuantity("quantity_change", "must not be zero")
		}
	}
	return nil
}

func (uc *inventoryUseCase) TransferInventory(ctx context.Context, input *dto.TransferInventoryInput) (err error) {
	ctx, span := tracer.Start(ctx, "inventory.TransferInventory", trace.WithAttributes(
		attribute.String("product.id", input.ProductID),
		attribute.String("store.source", input.SourceStoreID),
		attribute.String("store.target", input.TargetStoreID),
		attribute.Int64("quantity", input.Quantity),
	))
	defer func() { observability.EndSpan(span, err) }()

	if err := validation.Struct(input); err != nil {
		return err
	}
	if input.SourceStoreID == input.TargetStoreID {
		return apperror.InvalidQuantity("target_store_id", "must differ from the source store")
	}

	referenceID := uuid.New().String()
	err = uc.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := uc.requireProductAndStores(ctx, input.ProductID, input.SourceStoreID, input.TargetStoreID); err != nil {
			return err
		}

		// Lock both rows in store id order so concurrent opposite transfers cannot deadlock.
		storeIDs := []string{input.SourceStoreID, input.TargetStoreID}
		sort.Strings(storeIDs)
		locked := make(map[string]*model.Inventory, 2)
		for _, storeID := range storeIDs {
			inv, err := uc.repo.GetByProductStore(ctx, input.ProductID, storeID, true)
			if err != nil {
				return err
			}
			locked[storeID] = inv
		}

		source := locked[input.SourceStoreID]
		if source == nil {
			if err := uc.requireAssigned(ctx, input.ProductID, input.SourceStoreID); err != nil {
				return err
			}
			return apperror.InsufficientStock(input.ProductID, input.SourceStoreID, 0, input.Quantity)
		}
		if source.Quantity < input.Quantity {
			return apperror.InsufficientStock(input.ProductID, input.SourceStoreID, source.Quantity, input.Quantity)
		}

		now := uc.now().UTC()
		sourcePrevious := source.Quantity
		source.Quantity -= input.Quantity
		source.UpdatedAt = now
		if err := uc.repo.UpdateQuantity(ctx, source); err != nil {
			return err
		}

		var targetPrevious int64
		target := locked[input.TargetStoreID]
		if target == nil {
			if err := uc.requireAssigned(ctx, input.ProductID, input.TargetStoreID); err != nil {
				return err
			}
			target = &model.Inventory{
				ID:        uuid.New().String(),
				ProductID: input.ProductID,
				StoreID:   input.TargetStoreID,
				Quantity:  input.Quantity,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := uc.repo.Create(ctx, target); err != nil {
				return err
			}
		} else {
			targetPrevious = target.Quantity
			target.Quantity += input.Quantity
			target.UpdatedAt = now
			if err := uc.repo.UpdateQuantity(ctx, target); err != nil {
				return err
			}
		}

		entries := []HistoryEntry{
			{Inventory: source, Previous: sourcePrevious, Change: -input.Quantity},
			{Inventory: target, Previous: targetPrevious, Change: input.Quantity},
		}
		for _, e := range entries {
			e.ChangeType = model.ChangeTransfer
			e.ReferenceType = model.RefTransfer
			e.ReferenceID = referenceID
			e.Notes = input.Reason
			e.ActorID = input.ActorID
			if _, err := uc.history.Record(ctx, e); err != nil {
				return err
			}
		}

		return uc.activity.Emit(ctx, &activitydto.EmitInput{
			ActorID:    input.ActorID,
			Action:     model.ActionInventoryTransferred,
			EntityType: model.EntityInventory,
			EntityID:   source.ID,
			Details: map[string]any{
				"product_id":      input.ProductID,
				"source_store_id": input.SourceStoreID,
				"target_store_id": input.TargetStoreID,
				"quantity":        input.Quantity,
				"reference_id":    referenceID,
				"reason":          input.Reason,
			},
		})
	})
	if err != nil {
		return err
	}

	uc.invalidateSearch(ctx)
	uc.logger.Info("inventory transferred",
		zap.String("product_id", input.ProductID),
		zap.String("source_store_id", input.SourceStoreID),
		zap.String("target_store_id", input.TargetStoreID),
		zap.Int64("quantity", input.Quantity),
		zap.String("reference_id", referenceID),
	)
	return nil
}

func (uc *inventoryUseCase) GetLowStockProducts(ctx context.Context, threshold int64) ([]model.LowStockProduct, error) {
	if threshold < 0 {
		threshold = uc.lowStockThreshold
	}

	records, err := uc.repo.FindLowStock(ctx, threshold)
	if err != nil {
		return nil, err
	}

	out := []model.LowStockProduct{}
	index := map[string]int{}
	for _, r := range records {
		i, ok := index[r.ProductID]
		if !ok {
			i = len(out)
			index[r.ProductID] = i
			out = append(out, model.LowStockProduct{
				ProductID:   r.ProductID,
				ProductName: r.ProductName,
				ProductType: r.ProductType,
				Grade:       r.Grade,
			})
		}
		out[i].TotalQuantity += r.Quantity
		out[i].Stores = append(out[i].Stores, model.LowStockStore{
			StoreID:      r.StoreID,
			StoreName:    r.StoreName,
			Quantity:     r.Quantity,
			ReorderLevel: r.ReorderLevel,
			OptimalLevel: r.OptimalLevel,
		})
	}
	for i := range out {
		stores := out[i].Stores
		sort.SliceStable(stores, func(a, b int) bool { return stores[a].Quantity < stores[b].Quantity })
	}
	return out, nil
}

func (uc *inventoryUseCase) ListHistory(ctx context.Context, filters *dto.HistoryFilters) ([]model.InventoryHistory, int, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = defaultHistoryPageSize
	}
	if filters.PageSize > maxHistoryPageSize {
		filters.PageSize = maxHistoryPageSize
	}
	return uc.repo.ListHistory(ctx, filters)
}

func (uc *inventoryUseCase) requireProductAndStores(ctx context.Context, productID string, storeIDs ...string) error {
	p, err := uc.productRepo.FindByID(ctx, productID)
	if err != nil {
		return err
	}
	if p == nil {
		return apperror.ProductNotFound(productID)
	}
	for _, id := range storeIDs {
		s, err := uc.storeRepo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if s == nil {
			return apperror.StoreNotFound(id)
		}
	}
	return nil
}

func (uc *inventoryUseCase) requireAssigned(ctx context.Context, productID, storeID string) error {
	ok, err := uc.assignRepo.Exists(ctx, productID, storeID)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NotAssigned(productID, storeID)
	}
	return nil
}

func (uc *inventoryUseCase) invalidateSearch(ctx context.Context) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.DeletePattern(ctx, product.SearchCachePattern); err != nil {
		uc.logger.Warn("failed to invalidate product search cache", zap.Error(err))
	}
}
