package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/fekuna/omnipos-catalog-service/internal/activity"
	activitydto "github.com/fekuna/omnipos-catalog-service/internal/activity/dto"
	"github.com/fekuna/omnipos-catalog-service/internal/apperror"
	"github.com/fekuna/omnipos-catalog-service/internal/assignment"
	assignmentdto "github.com/fekuna/omnipos-catalog-service/internal/assignment/dto"
	"github.com/fekuna/omnipos-catalog-service/internal/inventory"
	"github.com/fekuna/omnipos-catalog-service/internal/model"
	"github.com/fekuna/omnipos-catalog-service/internal/product"
	"github.com/fekuna/omnipos-catalog-service/internal/product/dto"
	"github.com/fekuna/omnipos-catalog-service/internal/validation"
	"github.com/fekuna/omnipos-catalog-service/pkg/cache"
	"github.com/fekuna/omnipos-catalog-service/pkg/database"
	"github.com/fekuna/omnipos-catalog-service/pkg/logger"
	"github.com/fekuna/omnipos-catalog-service/pkg/observability"
	"github.com/fekuna/omnipos-catalog-service/pkg/search"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	DefaultPage              = 1
	DefaultLimit             = 20
	MaxLimit                 = 100
	DefaultRecentSalesWindow = 30 * 24 * time.Hour
	DefaultSearchCacheTTL    = 5 * time.Minute

	indexTimeout = 5 * time.Second
)

var tracer = otel.Tracer("github.com/fekuna/omnipos-catalog-service/internal/product")

type Config struct {
	RecentSalesWindow time.Duration
	SearchCacheTTL    time.Duration
}

type productUseCase struct {
	repo          product.Repository
	inventoryRepo inventory.Repository
	assigner      assignment.UseCase
	tx            database.TxManager
	activity      activity.Emitter
	cache         cache.Cache
	es            search.Indexer
	logger        logger.ZapLogger
	cfg           Config
	now           func() time.Time
}

// NewProductUseCase wires the catalog operations. cache and es may be nil.
func NewProductUseCase(
	repo product.Repository,
	inventoryRepo inventory.Repository,
	assigner assignment.UseCase,
	tx database.TxManager,
	emitter activity.Emitter,
	cache cache.Cache,
	es search.Indexer,
	log logger.ZapLogger,
	cfg Config,
) product.UseCase {
	if cfg.RecentSalesWindow <= 0 {
		cfg.RecentSalesWindow = DefaultRecentSalesWindow
	}
	if cfg.SearchCacheTTL <= 0 {
		cfg.SearchCacheTTL = DefaultSearchCacheTTL
	}
	return &productUseCase{
		repo:          repo,
		inventoryRepo: inventoryRepo,
		assigner:      assigner,
		tx:            tx,
		activity:      emitter,
		cache:         cache,
		es:            es,
		logger:        log,
		cfg:           cfg,
		now:           time.Now,
	}
}

func (uc *productUseCase) CreateProduct(ctx context.Context, input *dto.CreateProductInput) (p *model.Product, err error) {
	ctx, span := tracer.Start(ctx, "product.CreateProduct", trace.WithAttributes(
		attribute.String("product.name", input.Name),
		attribute.String("product.type", string(input.Type)),
		attribute.Int("stores.count", len(input.StoreAssignments)),
	))
	defer func() { observability.EndSpan(span, err) }()

	input.Name = strings.TrimSpace(input.Name)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	attrs, err := newAttributes(input.Type, input.Tire, input.Bale)
	if err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	p = &model.Product{
		BaseModel:  model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		Name:       input.Name,
		BasePrice:  *input.BasePrice,
		Type:       input.Type,
		Grade:      input.Grade,
		Commodity:  input.Commodity,
		Attributes: attrs,
	}

	err = uc.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		unique, err := uc.repo.IsNameUnique(ctx, p.Name, "")
		if err != nil {
			return err
		}
		if !unique {
			return apperror.DuplicateName(p.Name)
		}

		if err := uc.repo.Create(ctx, p); err != nil {
			return err
		}

		results, err := uc.assigner.AttachStores(ctx, &assignmentdto.AttachInput{
			ProductID:     p.ID,
			ActorID:       input.ActorID,
			ReferenceType: model.RefProductCreation,
			Allocations:   input.StoreAssignments,
		})
		if err != nil {
			return err
		}

		assignments := make([]map[string]any, 0, len(results))
		for i, r := range results {
			assignments = append(assignments, map[string]any{
				"store_id":         r.StoreID,
				"store_name":       r.StoreName,
				"initial_quantity": input.StoreAssignments[i].InitialQuantity,
			})
		}
		return uc.activity.Emit(ctx, &activitydto.EmitInput{
			ActorID:    input.ActorID,
			Action:     model.ActionProductCreated,
			EntityType: model.EntityProduct,
			EntityID:   p.ID,
			Details: map[string]any{
				"name":              p.Name,
				"type":              p.Type,
				"grade":             p.Grade,
				"base_price":        p.BasePrice.String(),
				"store_assignments": assignments,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	uc.invalidateSearch(ctx)
	uc.syncToElastic(ctx, p)
	uc.logger.Info("product created", zap.String("product_id", p.ID), zap.String("name", p.Name))
	return p, nil
}

func (uc *productUseCase) UpdateProduct(ctx context.Context, input *dto.UpdateProductInput) (p *model.Product, err error) {
	ctx, span := tracer.Start(ctx, "product.UpdateProduct", trace.WithAttributes(attribute.String("product.id", input.ID)))
	defer func() { observability.EndSpan(span, err) }()

	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if input.Name == nil && input.BasePrice == nil && input.Grade == nil && input.Commodity == nil &&
		input.Tire == nil && input.Bale == nil {
		return nil, apperror.NoUpdatesProvided()
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperror.MissingField("name")
		}
		input.Name = &name
	}
	if input.Bale != nil && input.Bale.Weight != nil && input.Bale.Weight.IsNegative() {
		return nil, apperror.InvalidQuantity("bale_weight", "must not be negative")
	}

	var changed []string
	err = uc.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		p, err = uc.repo.FindByID(ctx, input.ID)
		if err != nil {
			return err
		}
		if p == nil {
			return apperror.ProductNotFound(input.ID)
		}

		if input.Name != nil && *input.Name != p.Name {
			unique, err := uc.repo.IsNameUnique(ctx, *input.Name, p.ID)
			if err != nil {
				return err
			}
			if !unique {
				return apperror.DuplicateName(*input.Name)
			}
		}

		changed = applyUpdate(p, input)
		p.UpdatedAt = uc.now().UTC()
		if err := uc.repo.Update(ctx, p); err != nil {
			return err
		}

		return uc.activity.Emit(ctx, &activitydto.EmitInput{
			ActorID:    input.ActorID,
			Action:     model.ActionProductUpdated,
			EntityType: model.EntityProduct,
			EntityID:   p.ID,
			Details:    map[string]any{"changed_fields": changed},
		})
	})
	if err != nil {
		return nil, err
	}

	uc.invalidateSearch(ctx)
	uc.syncToElastic(ctx, p)
	uc.logger.Info("product updated", zap.String("product_id", p.ID), zap.Strings("changed_fields", changed))
	return p, nil
}

// ArchiveProduct records the archive request and always fails: products are never deleted.
func (uc *productUseCase) ArchiveProduct(ctx context.Context, productID, actorID, reason string) (err error) {
	ctx, span := tracer.Start(ctx, "product.ArchiveProduct", trace.WithAttributes(attribute.String("product.id", productID)))
	defer func() { observability.EndSpan(span, err) }()

	if productID == "" {
		return apperror.MissingField("product_id")
	}
	if actorID == "" {
		return apperror.MissingField("actor_id")
	}

	windowDays := int(uc.cfg.RecentSalesWindow / (24 * time.Hour))
	err = uc.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		p, err := uc.repo.FindByID(ctx, productID)
		if err != nil {
			return err
		}
		if p == nil {
			return apperror.ProductNotFound(productID)
		}

		total, err := uc.inventoryRepo.SumQuantityByProduct(ctx, productID)
		if err != nil {
			return err
		}
		if total > 0 {
			return apperror.ProductHasInventory(productID, total)
		}

		since := uc.now().UTC().Add(-uc.cfg.RecentSalesWindow)
		sales, err := uc.inventoryRepo.CountHistorySince(ctx, productID, model.ChangeSale, since)
		if err != nil {
			return err
		}
		if sales > 0 {
			return apperror.ProductHasRecentSales(productID, windowDays)
		}

		return uc.activity.Emit(ctx, &activitydto.EmitInput{
			ActorID:    actorID,
			Action:     model.ActionProductArchiveRequested,
			EntityType: model.EntityProduct,
			EntityID:   productID,
			Details: map[string]any{
				"product_name": p.Name,
				"reason":       reason,
			},
		})
	})
	if err != nil {
		return err
	}

	uc.logger.Warn("product archive requested; products are never deleted", zap.String("product_id", productID))
	return apperror.ProductDeletionPrevented(productID)
}

func (uc *productUseCase) GetProductWithInventory(ctx context.Context, productID string) (*model.ProductDetail, error) {
	p, err := uc.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperror.ProductNotFound(productID)
	}

	stores, err := uc.repo.FindStoreInventory(ctx, productID)
	if err != nil {
		return nil, err
	}

	detail := &model.ProductDetail{Product: *p, Stores: stores}
	detail.Counts.Stores = len(stores)
	for _, s := range stores {
		detail.Counts.TotalQuantity += s.Quantity
		if s.Quantity > 0 {
			detail.Counts.StoresInStock++
		}
	}
	return detail, nil
}

func (uc *productUseCase) SearchProducts(ctx context.Context, filters *dto.ProductFilters) (*dto.ProductPage, error) {
	if filters.Page < 1 {
		filters.Page = DefaultPage
	}
	if filters.Limit <= 0 {
		filters.Limit = DefaultLimit
	}
	if filters.Limit > MaxLimit {
		filters.Limit = MaxLimit
	}
	if filters.Type != "" && !filters.Type.Valid() {
		return nil, &apperror.Error{Kind: apperror.KindInvalidTypeField, Message: "unknown product type " + string(filters.Type), Field: "type"}
	}
	if filters.Grade != "" && !filters.Grade.Valid() {
		return nil, &apperror.Error{Kind: apperror.KindInvalidTypeField, Message: "unknown grade " + string(filters.Grade), Field: "grade"}
	}
	if (filters.MinPrice != nil && filters.MinPrice.IsNegative()) || (filters.MaxPrice != nil && filters.MaxPrice.IsNegative()) {
		return nil, apperror.InvalidPrice("price_range")
	}

	cacheKey := ""
	if uc.cache != nil {
		key, err := product.SearchCacheKey(filters)
		if err == nil {
			cacheKey = key
			var cached dto.ProductPage
			found, err := uc.cache.GetJSON(ctx, cacheKey, &cached)
			if err != nil {
				uc.logger.Warn("product search cache read failed", zap.Error(err))
			} else if found {
				return &cached, nil
			}
		}
	}

	products, total, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, err
	}

	page := &dto.ProductPage{
		Products:   products,
		Total:      total,
		Page:       filters.Page,
		Limit:      filters.Limit,
		TotalPages: (total + filters.Limit - 1) / filters.Limit,
	}

	if cacheKey != "" {
		if err := uc.cache.SetJSON(ctx, cacheKey, page, uc.cfg.SearchCacheTTL); err != nil {
			uc.logger.Warn("product search cache write failed", zap.Error(err))
		}
	}
	return page, nil
}

func (uc *productUseCase) invalidateSearch(ctx context.Context) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.DeletePattern(ctx, product.SearchCachePattern); err != nil {
		uc.logger.Warn("failed to invalidate product search cache", zap.Error(err))
	}
}

// syncToElastic is best effort; the database stays the source of truth.
func (uc *productUseCase) syncToElastic(ctx context.Context, p *model.Product) {
	if uc.es == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), indexTimeout)
	defer cancel()
	if err := uc.es.Index(ctx, product.SearchIndex, p.ID, product.NewDocument(p)); err != nil {
		uc.logger.Error("failed to index product", zap.String("product_id", p.ID), zap.Error(err))
	}
}
