package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	activityusecase "github.com/fekuna/omnipos-catalog-service/internal/activity/usecase"
	"github.com/fekuna/omnipos-catalog-service/internal/apperror"
	assignmentdto "github.com/fekuna/omnipos-catalog-service/internal/assignment/dto"
	assignmentusecase "github.com/fekuna/omnipos-catalog-service/internal/assignment/usecase"
	"github.com/fekuna/omnipos-catalog-service/internal/inventory"
	inventorydto "github.com/fekuna/omnipos-catalog-service/internal/inventory/dto"
	inventoryusecase "github.com/fekuna/omnipos-catalog-service/internal/inventory/usecase"
	"github.com/fekuna/omnipos-catalog-service/internal/model"
	"github.com/fekuna/omnipos-catalog-service/internal/product"
	"github.com/fekuna/omnipos-catalog-service/internal/product/dto"
	"github.com/fekuna/omnipos-catalog-service/internal/testutil/memstore"
	"github.com/fekuna/omnipos-catalog-service/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIndexer struct {
	mu   sync.Mutex
	docs map[string]product.Document
	err  error
}

func (f *fakeIndexer) EnsureIndex(ctx context.Context, index, mapping string) error { return nil }

func (f *fakeIndexer) Index(ctx context.Context, index, id string, doc any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.docs == nil {
		f.docs = map[string]product.Document{}
	}
	f.docs[id] = doc.(product.Document)
	return nil
}

type fixture struct {
	m      *memstore.Store
	cache  *memstore.Cache
	es     *fakeIndexer
	stock  inventory.UseCase
	uc     *productUseCase
	storeA model.Store
	storeB model.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	m := memstore.New()
	c := memstore.NewCache()
	es := &fakeIndexer{}
	log := logger.NewNop()
	emitter := activityusecase.NewActivityUseCase(m.Activity(), log)
	stock := inventoryusecase.NewInventoryUseCase(m.Inventory(), m.Products(), m.Stores(), m.Assignments(), m, emitter, c, log, 0)
	assigner := assignmentusecase.NewAssignmentUseCase(m.Assignments(), m.Products(), m.Stores(), m.Inventory(), stock, m, emitter, c, log)
	uc := NewProductUseCase(m.Products(), m.Inventory(), assigner, m, emitter, c, es, log, Config{}).(*productUseCase)

	return &fixture{
		m: m, cache: c, es: es, stock: stock, uc: uc,
		storeA: m.AddStore("Store A"),
		storeB: m.AddStore("Store B"),
	}
}

func price(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func str(s string) *string { return &s }

func tireInput(name string, allocations ...assignmentdto.Allocation) *dto.CreateProductInput {
	return &dto.CreateProductInput{
		Name:             name,
		BasePrice:        price(50),
		Type:             model.ProductTypeTire,
		Grade:            model.GradeA,
		ActorID:          "u1",
		Tire:             &dto.TireFields{Category: str("PCR"), Size: str("205/55R16")},
		StoreAssignments: allocations,
	}
}

func (f *fixture) create(t *testing.T, input *dto.CreateProductInput) *model.Product {
	t.Helper()
	p, err := f.uc.CreateProduct(context.Background(), input)
	require.NoError(t, err)
	return p
}

func TestCreateProduct(t *testing.T) {
	f := newFixture(t)

	p := f.create(t, tireInput("  Tire-X  ", assignmentdto.Allocation{StoreID: f.storeA.ID, InitialQuantity: 20}))

	assert.Equal(t, "Tire-X", p.Name)
	assert.True(t, decimal.NewFromInt(50).Equal(p.BasePrice))
	require.NotNil(t, p.Tire())
	assert.Equal(t, "PCR", p.Tire().Category)

	require.Len(t, f.m.ProductRows(), 1)
	require.Len(t, f.m.AssignmentRows(), 1)
	inv := f.m.InventoryRows()
	require.Len(t, inv, 1)
	assert.EqualValues(t, 20, inv[0].Quantity)

	history := f.m.HistoryRows()
	require.Len(t, history, 1)
	assert.Equal(t, model.ChangePurchase, history[0].ChangeType)
	assert.EqualValues(t, 0, history[0].PreviousQuantity)
	assert.EqualValues(t, 20, history[0].NewQuantity)
	require.NotNil(t, history[0].ReferenceType)
	assert.Equal(t, model.RefProductCreation, *history[0].ReferenceType)

	created := f.m.ActivityByAction(model.ActionProductCreated)
	require.Len(t, created, 1)
	assert.Equal(t, p.ID, created[0].EntityID)
	assert.Len(t, f.m.ActivityRows(), 1)

	assert.Equal(t, 1, f.cache.Deletes)
	require.Contains(t, f.es.docs, p.ID)
	assert.Equal(t, "Tire-X", f.es.docs[p.ID].Name)
	assert.Equal(t, 50.0, f.es.docs[p.ID].BasePrice)
}

func TestCreateProductWithoutStores(t *testing.T) {
	f := newFixture(t)

	f.create(t, &dto.CreateProductInput{
		Name: "Bale-1", BasePrice: price(300), Type: model.ProductTypeBale, Grade: model.GradeB, ActorID: "u1",
		Bale: &dto.BaleFields{Weight: price(45), OriginCountry: str("JP")},
	})

	rows := f.m.ProductRows()
	require.Len(t, rows, 1)
	bale := rows[0].Bale()
	require.NotNil(t, bale)
	assert.True(t, bale.Weight.Valid)
	assert.Equal(t, "JP", bale.OriginCountry)
	assert.Empty(t, f.m.AssignmentRows())
	assert.Empty(t, f.m.HistoryRows())
}

func TestCreateProductErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *fixture, in *dto.CreateProductInput)
		kind   apperror.Kind
	}{
		{"missing name", func(f *fixture, in *dto.CreateProductInput) { in.Name = "   " }, apperror.KindMissingField},
		{"missing price", func(f *fixture, in *dto.CreateProductInput) { in.BasePrice = nil }, apperror.KindMissingField},
		{"negative price", func(f *fixture, in *dto.CreateProductInput) { in.BasePrice = price(-1) }, apperror.KindInvalidPrice},
		{"unknown type", func(f *fixture, in *dto.CreateProductInput) { in.Type = "WHEEL" }, apperror.KindInvalidTypeField},
		{"unknown grade", func(f *fixture, in *dto.CreateProductInput) { in.Grade = "Z" }, apperror.KindInvalidTypeField},
		{"missing actor", func(f *fixture, in *dto.CreateProductInput) { in.ActorID = "" }, apperror.KindMissingField},
		{"bale fields on tire", func(f *fixture, in *dto.CreateProductInput) {
			in.Bale = &dto.BaleFields{Weight: price(10)}
		}, apperror.KindInvalidTypeField},
		{"tire fields on bale", func(f *fixture, in *dto.CreateProductInput) {
			in.Type = model.ProductTypeBale
		}, apperror.KindInvalidTypeField},
		{"negative bale weight", func(f *fixture, in *dto.CreateProductInput) {
			in.Type = model.ProductTypeBale
			in.Tire = nil
			in.Bale = &dto.BaleFields{Weight: price(-3)}
		}, apperror.KindInvalidQuantity},
		{"negative initial quantity", func(f *fixture, in *dto.CreateProductInput) {
			in.StoreAssignments = []assignmentdto.Allocation{{StoreID: f.storeA.ID, InitialQuantity: -1}}
		}, apperror.KindInvalidQuantity},
		{"unknown store", func(f *fixture, in *dto.CreateProductInput) {
			in.StoreAssignments = []assignmentdto.Allocation{{StoreID: f.storeA.ID, InitialQuantity: 3}, {StoreID: "nope", InitialQuantity: 1}}
		}, apperror.KindStoreNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			in := tireInput("Tire-X")
			tt.mutate(f, in)

			_, err := f.uc.CreateProduct(context.Background(), in)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperror.KindOf(err))
			assert.Empty(t, f.m.ProductRows())
			assert.Empty(t, f.m.AssignmentRows())
			assert.Empty(t, f.m.InventoryRows())
			assert.Empty(t, f.m.HistoryRows())
			assert.Empty(t, f.m.ActivityRows())
			assert.Zero(t, f.cache.Deletes)
			assert.Empty(t, f.es.docs)
		})
	}
}

func TestCreateProductIgnoresEmptyOtherTypeFields(t *testing.T) {
	t.Run("tire with empty bale bag", func(t *testing.T) {
		f := newFixture(t)
		in := tireInput("Tire-X")
		in.Bale = &dto.BaleFields{}

		p, err := f.uc.CreateProduct(context.Background(), in)
		require.NoError(t, err)
		attrs, ok := p.Attributes.(model.TireAttributes)
		require.True(t, ok)
		assert.Equal(t, "PCR", attrs.Category)
	})

	t.Run("bale with empty tire bag", func(t *testing.T) {
		f := newFixture(t)
		in := tireInput("Bale-X")
		in.Type = model.ProductTypeBale
		in.Tire = &dto.TireFields{}
		in.Bale = &dto.BaleFields{Weight: price(40)}

		p, err := f.uc.CreateProduct(context.Background(), in)
		require.NoError(t, err)
		attrs, ok := p.Attributes.(model.BaleAttributes)
		require.True(t, ok)
		require.True(t, attrs.Weight.Valid)
		assert.True(t, attrs.Weight.Decimal.Equal(*price(40)))
	})
}

func TestCreateProductDuplicateName(t *testing.T) {
	f := newFixture(t)
	f.create(t, tireInput("Tire-X"))

	_, err := f.uc.CreateProduct(context.Background(), tireInput("Tire-X", assignmentdto.Allocation{StoreID: f.storeA.ID, InitialQuantity: 5}))
	require.Error(t, err)
	assert.Equal(t, apperror.KindDuplicateName, apperror.KindOf(err))
	assert.Len(t, f.m.ProductRows(), 1)
	assert.Empty(t, f.m.InventoryRows())
	assert.Len(t, f.m.ActivityRows(), 1)
}

func TestCreateProductRollsBackOnLateFailure(t *testing.T) {
	f := newFixture(t)
	f.m.FailOn("activity.Create", errors.New("disk full"))

	_, err := f.uc.CreateProduct(context.Background(), tireInput("Tire-X",
		assignmentdto.Allocation{StoreID: f.storeA.ID, InitialQuantity: 20},
		assignmentdto.Allocation{StoreID: f.storeB.ID, InitialQuantity: 4},
	))
	require.Error(t, err)

	assert.Empty(t, f.m.ProductRows())
	assert.Empty(t, f.m.AssignmentRows())
	assert.Empty(t, f.m.InventoryRows())
	assert.Empty(t, f.m.HistoryRows())
	assert.Zero(t, f.m.Commits())
}

func TestCreateProductIndexFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.es.err = errors.New("cluster red")

	p := f.create(t, tireInput("Tire-X"))
	assert.NotEmpty(t, p.ID)
	assert.Len(t, f.m.ProductRows(), 1)
}

func TestUpdateProduct(t *testing.T) {
	f := newFixture(t)
	p := f.create(t, tireInput("Tire-X"))
	f.cache.Deletes = 0

	grade := model.GradeC
	updated, err := f.uc.UpdateProduct(context.Background(), &dto.UpdateProductInput{
		ID:        p.ID,
		ActorID:   "u2",
		Name:      str("Tire-Y"),
		BasePrice: price(75),
		Grade:     &grade,
		Tire:      &dto.TireFields{Size: str("215/60R16")},
		Bale:      &dto.BaleFields{Weight: price(9)},
	})
	require.NoError(t, err)

	assert.Equal(t, "Tire-Y", updated.Name)
	assert.True(t, decimal.NewFromInt(75).Equal(updated.BasePrice))
	assert.Equal(t, model.GradeC, updated.Grade)
	require.NotNil(t, updated.Tire())
	assert.Equal(t, "215/60R16", updated.Tire().Size)
	assert.Equal(t, "PCR", updated.Tire().Category)

	entries := f.m.ActivityByAction(model.ActionProductUpdated)
	require.Len(t, entries, 1)
	assert.Equal(t, "u2", entries[0].UserID)
	assert.JSONEq(t, `{"changed_fields":["name","base_price","grade","tire_size"]}`, string(entries[0].Details))

	assert.Equal(t, 1, f.cache.Deletes)
	assert.Equal(t, "Tire-Y", f.es.docs[p.ID].Name)
}

func TestUpdateProductErrors(t *testing.T) {
	f := newFixture(t)
	p := f.create(t, tireInput("Tire-X"))
	f.create(t, tireInput("Tire-Z"))
	ctx := context.Background()

	_, err := f.uc.UpdateProduct(ctx, &dto.UpdateProductInput{ID: p.ID, ActorID: "u1"})
	assert.Equal(t, apperror.KindNoUpdatesProvided, apperror.KindOf(err))

	_, err = f.uc.UpdateProduct(ctx, &dto.UpdateProductInput{ID: "missing", ActorID: "u1", Name: str("A")})
	assert.Equal(t, apperror.KindProductNotFound, apperror.KindOf(err))

	_, err = f.uc.UpdateProduct(ctx, &dto.UpdateProductInput{ID: p.ID, ActorID: "u1", Name: str("Tire-Z")})
	assert.Equal(t, apperror.KindDuplicateName, apperror.KindOf(err))

	_, err = f.uc.UpdateProduct(ctx, &dto.UpdateProductInput{ID: p.ID, ActorID: "u1", BasePrice: price(-5)})
	assert.Equal(t, apperror.KindInvalidPrice, apperror.KindOf(err))

	_, err = f.uc.UpdateProduct(ctx, &dto.UpdateProductInput{ID: p.ID, ActorID: "u1", Name: str(" ")})
	assert.Equal(t, apperror.KindMissingField, apperror.KindOf(err))

	assert.Empty(t, f.m.ActivityByAction(model.ActionProductUpdated))
}

func TestUpdateProductKeepsOwnName(t *testing.T) {
	f := newFixture(t)
	p := f.create(t, tireInput("Tire-X"))

	updated, err := f.uc.UpdateProduct(context.Background(), &dto.UpdateProductInput{
		ID: p.ID, ActorID: "u1", Name: str("Tire-X"), BasePrice: price(60),
	})
	require.NoError(t, err)
	assert.Equal(t, "Tire-X", updated.Name)
}

func TestArchiveProduct(t *testing.T) {
	f := newFixture(t)
	p := f.create(t, tireInput("Tire-X"))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		err := f.uc.ArchiveProduct(ctx, p.ID, "u1", "discontinued")
		require.Error(t, err)
		assert.Equal(t, apperror.KindProductDeletionPrevented, apperror.KindOf(err))
	}

	assert.Len(t, f.m.ActivityByAction(model.ActionProductArchiveRequested), 2)
	require.Len(t, f.m.ProductRows(), 1)
	assert.Equal(t, p.UpdatedAt, f.m.ProductRows()[0].UpdatedAt)
}

func TestArchiveProductBlocked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.uc.ArchiveProduct(ctx, "missing", "u1", "")
	assert.Equal(t, apperror.KindProductNotFound, apperror.KindOf(err))

	p := f.create(t, tireInput("Tire-X", assignmentdto.Allocation{StoreID: f.storeA.ID, InitialQuantity: 3}))
	err = f.uc.ArchiveProduct(ctx, p.ID, "u1", "")
	assert.Equal(t, apperror.KindProductHasInventory, apperror.KindOf(err))

	_, err = f.stock.AdjustInventory(ctx, &inventorydto.AdjustInventoryInput{
		ProductID: p.ID, StoreID: f.storeA.ID, ChangeType: model.ChangeSale, QuantityChange: -3, ActorID: "u1",
	})
	require.NoError(t, err)

	err = f.uc.ArchiveProduct(ctx, p.ID, "u1", "")
	assert.Equal(t, apperror.KindProductHasRecentSales, apperror.KindOf(err))
	assert.Empty(t, f.m.ActivityByAction(model.ActionProductArchiveRequested))

	f.uc.now = func() time.Time { return time.Now().Add(31 * 24 * time.Hour) }
	err = f.uc.ArchiveProduct(ctx, p.ID, "u1", "")
	assert.Equal(t, apperror.KindProductDeletionPrevented, apperror.KindOf(err))
	assert.Len(t, f.m.ActivityByAction(model.ActionProductArchiveRequested), 1)
}

func TestGetProductWithInventory(t *testing.T) {
	f := newFixture(t)
	p := f.create(t, tireInput("Tire-X",
		assignmentdto.Allocation{StoreID: f.storeA.ID, InitialQuantity: 20, StorePrice: price(55)},
		assignmentdto.Allocation{StoreID: f.storeB.ID},
	))

	detail, err := f.uc.GetProductWithInventory(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, detail.Product.ID)
	require.Len(t, detail.Stores, 2)
	assert.Equal(t, 2, detail.Counts.Stores)
	assert.Equal(t, 1, detail.Counts.StoresInStock)
	assert.EqualValues(t, 20, detail.Counts.TotalQuantity)

	_, err = f.uc.GetProductWithInventory(context.Background(), "missing")
	assert.Equal(t, apperror.KindProductNotFound, apperror.KindOf(err))
}

func TestSearchProductsPagination(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"A1", "A2", "A3", "A4", "A5"} {
		f.create(t, tireInput(name))
	}

	page, err := f.uc.SearchProducts(context.Background(), &dto.ProductFilters{SortBy: "name", SortOrder: "asc", Page: 3, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Products, 1)
	assert.Equal(t, "A5", page.Products[0].Name)

	page, err = f.uc.SearchProducts(context.Background(), &dto.ProductFilters{Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, MaxLimit, page.Limit)
	assert.Equal(t, 1, page.TotalPages)
}

func TestSearchProductsInStockFalseIncludesUnstocked(t *testing.T) {
	f := newFixture(t)
	f.create(t, tireInput("Stocked", assignmentdto.Allocation{StoreID: f.storeA.ID, InitialQuantity: 4}))
	f.create(t, tireInput("Never Stocked"))
	f.create(t, tireInput("Assigned Empty", assignmentdto.Allocation{StoreID: f.storeB.ID}))

	no := false
	page, err := f.uc.SearchProducts(context.Background(), &dto.ProductFilters{InStock: &no, SortBy: "name", SortOrder: "asc"})
	require.NoError(t, err)
	require.Len(t, page.Products, 2)
	assert.Equal(t, "Assigned Empty", page.Products[0].Name)
	assert.Equal(t, "Never Stocked", page.Products[1].Name)

	yes := true
	page, err = f.uc.SearchProducts(context.Background(), &dto.ProductFilters{InStock: &yes})
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	assert.Equal(t, "Stocked", page.Products[0].Name)
}

func TestSearchProductsRejectsBadFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.SearchProducts(ctx, &dto.ProductFilters{Type: "WHEEL"})
	assert.Equal(t, apperror.KindInvalidTypeField, apperror.KindOf(err))

	_, err = f.uc.SearchProducts(ctx, &dto.ProductFilters{MinPrice: price(-1)})
	assert.Equal(t, apperror.KindInvalidPrice, apperror.KindOf(err))
}

func TestSearchProductsCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, tireInput("Tire-X"))

	first, err := f.uc.SearchProducts(ctx, &dto.ProductFilters{Name: "tire"})
	require.NoError(t, err)
	require.Equal(t, 1, first.Total)
	assert.Equal(t, 1, f.cache.Len())

	// a row written behind the use case's back is invisible until the cache is invalidated
	require.NoError(t, f.m.Products().Create(ctx, &model.Product{
		BaseModel: model.BaseModel{ID: "p-raw"}, Name: "Tire-Raw", Type: model.ProductTypeTire,
		Grade: model.GradeA, Attributes: model.TireAttributes{},
	}))
	cached, err := f.uc.SearchProducts(ctx, &dto.ProductFilters{Name: "tire"})
	require.NoError(t, err)
	assert.Equal(t, 1, cached.Total)

	f.create(t, tireInput("Tire-Y"))
	assert.Zero(t, f.cache.Len())

	fresh, err := f.uc.SearchProducts(ctx, &dto.ProductFilters{Name: "tire"})
	require.NoError(t, err)
	assert.Equal(t, 3, fresh.Total)
}
