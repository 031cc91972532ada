package memstore

import (
	"context"
	"sort"
	"time"

	activitydto "github.com/fekuna/omnipos-catalog-service/internal/activity/dto"
	"github.com/fekuna/omnipos-catalog-service/internal/apperror"
	inventorydto "github.com/fekuna/omnipos-catalog-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-catalog-service/internal/model"
	productdto "github.com/fekuna/omnipos-catalog-service/internal/product/dto"
)

type ProductRepo struct{ m *Store }

func (r *ProductRepo) Create(ctx context.Context, p *model.Product) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail("product.Create"); err != nil {
		return err
	}
	for _, existing := range r.m.state.products {
		if existing.Name == p.Name {
			return apperror.DuplicateName(p.Name)
		}
	}
	r.m.state.products[p.ID] = *p
	return nil
}

func (r *ProductRepo) FindByID(ctx context.Context, id string) (*model.Product, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	p, ok := r.m.state.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *ProductRepo) FindAll(ctx context.Context, f *productdto.ProductFilters) ([]model.Product, int, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	matched := []model.Product{}
	for _, p := range r.m.state.products {
		if r.matches(p, f) {
			matched = append(matched, p)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		asc := f.SortOrder == "asc"
		switch f.SortBy {
		case "name":
			if asc {
				return a.Name < b.Name
			}
			return a.Name > b.Name
		case "price":
			if !a.BasePrice.Equal(b.BasePrice) {
				if asc {
					return a.BasePrice.LessThan(b.BasePrice)
				}
				return a.BasePrice.GreaterThan(b.BasePrice)
			}
			return a.Name < b.Name
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.Name < b.Name
	})

	return page(matched, f.Page, f.Limit), len(matched), nil
}

func (r *ProductRepo) matches(p model.Product, f *productdto.ProductFilters) bool {
	if f.Name != "" && !containsFold(p.Name, f.Name) {
		return false
	}
	if f.Commodity != "" && (p.Commodity == nil || !containsFold(*p.Commodity, f.Commodity)) {
		return false
	}
	if f.TireCategory != "" {
		tire := p.Tire()
		if tire == nil || !containsFold(tire.Category, f.TireCategory) {
			return false
		}
	}
	if f.Type != "" && p.Type != f.Type {
		return false
	}
	if f.Grade != "" && p.Grade != f.Grade {
		return false
	}
	if f.StoreID != "" {
		if _, ok := r.m.state.assignments[pairKey{p.ID, f.StoreID}]; !ok {
			return false
		}
	}
	if f.MinPrice != nil && p.BasePrice.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && p.BasePrice.GreaterThan(*f.MaxPrice) {
		return false
	}
	if f.InStock != nil {
		inStock := false
		for _, inv := range r.m.state.inventory {
			if inv.ProductID == p.ID && inv.Quantity > 0 {
				inStock = true
				break
			}
		}
		if inStock != *f.InStock {
			return false
		}
	}
	return true
}

func (r *ProductRepo) Update(ctx context.Context, p *model.Product) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail("product.Update"); err != nil {
		return err
	}
	for id, existing := range r.m.state.products {
		if id != p.ID && existing.Name == p.Name {
			return apperror.DuplicateName(p.Name)
		}
	}
	if _, ok := r.m.state.products[p.ID]; !ok {
		return apperror.ProductNotFound(p.ID)
	}
	r.m.state.products[p.ID] = *p
	return nil
}

func (r *ProductRepo) IsNameUnique(ctx context.Context, name, excludeID string) (bool, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	for id, p := range r.m.state.products {
		if p.Name == name && id != excludeID {
			return false, nil
		}
	}
	return true, nil
}

func (r *ProductRepo) FindStoreInventory(ctx context.Context, productID string) ([]model.StoreInventory, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	out := []model.StoreInventory{}
	for key, a := range r.m.state.assignments {
		if key.productID != productID {
			continue
		}
		s := r.m.state.stores[key.storeID]
		si := model.StoreInventory{
			StoreID:    s.ID,
			StoreCode:  s.Code,
			StoreName:  s.Name,
			AssignedAt: a.CreatedAt,
		}
		for _, inv := range r.m.state.inventory {
			if inv.ProductID == productID && inv.StoreID == key.storeID {
				id := inv.ID
				si.InventoryID = &id
				si.Quantity = inv.Quantity
				si.StorePrice = inv.StorePrice
				si.ReorderLevel = inv.ReorderLevel
				si.OptimalLevel = inv.OptimalLevel
			}
		}
		out = append(out, si)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StoreName < out[j].StoreName })
	return out, nil
}

type StoreRepo struct{ m *Store }

func (r *StoreRepo) FindByID(ctx context.Context, id string) (*model.Store, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	s, ok := r.m.state.stores[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *StoreRepo) FindByIDs(ctx context.Context, ids []string) ([]model.Store, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := []model.Store{}
	for _, id := range ids {
		if s, ok := r.m.state.stores[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

type AssignmentRepo struct{ m *Store }

func (r *AssignmentRepo) Create(ctx context.Context, a *model.StoreAssignment) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail("assignment.Create"); err != nil {
		return err
	}
	key := pairKey{a.ProductID, a.StoreID}
	if _, ok := r.m.state.assignments[key]; ok {
		return apperror.AlreadyAssigned(a.ProductID, a.StoreID)
	}
	r.m.state.assignments[key] = *a
	return nil
}

func (r *AssignmentRepo) Exists(ctx context.Context, productID, storeID string) (bool, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	_, ok := r.m.state.assignments[pairKey{productID, storeID}]
	return ok, nil
}

func (r *AssignmentRepo) Delete(ctx context.Context, productID, storeID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail("assignment.Delete"); err != nil {
		return err
	}
	delete(r.m.state.assignments, pairKey{productID, storeID})
	return nil
}

func (r *AssignmentRepo) FindByStore(ctx context.Context, storeID string) ([]model.StoreAssignment, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := []model.StoreAssignment{}
	for key, a := range r.m.state.assignments {
		if key.storeID == storeID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type InventoryRepo struct{ m *Store }

func (r *InventoryRepo) GetByProductStore(ctx context.Context, productID, storeID string, forUpdate bool) (*model.Inventory, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	for _, inv := range r.m.state.inventory {
		if inv.ProductID == productID && inv.StoreID == storeID {
			return &inv, nil
		}
	}
	return nil, nil
}

func (r *InventoryRepo) Create(ctx context.Context, inv *model.Inventory) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail("inventory.Create"); err != nil {
		return err
	}
	for _, existing := range r.m.state.inventory {
		if existing.ProductID == inv.ProductID && existing.StoreID == inv.StoreID {
			return conflict("unique constraint inventory_product_store_key")
		}
	}
	if inv.Quantity < 0 {
		return apperror.InvalidQuantity("quantity", "must not be negative")
	}
	r.m.state.inventory[inv.ID] = *inv
	return nil
}

func (r *InventoryRepo) UpdateQuantity(ctx context.Context, inv *model.Inventory) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail("inventory.UpdateQuantity"); err != nil {
		return err
	}
	existing, ok := r.m.state.inventory[inv.ID]
	if !ok {
		return conflict("inventory row vanished")
	}
	if inv.Quantity < 0 {
		return apperror.InvalidQuantity("quantity", "must not be negative")
	}
	existing.Quantity = inv.Quantity
	existing.UpdatedAt = inv.UpdatedAt
	r.m.state.inventory[inv.ID] = existing
	return nil
}

func (r *InventoryRepo) Delete(ctx context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail("inventory.Delete"); err != nil {
		return err
	}
	delete(r.m.state.inventory, id)
	return nil
}

func (r *InventoryRepo) SumQuantityByProduct(ctx context.Context, productID string) (int64, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	var total int64
	for _, inv := range r.m.state.inventory {
		if inv.ProductID == productID {
			total += inv.Quantity
		}
	}
	return total, nil
}

func (r *InventoryRepo) FindLowStock(ctx context.Context, threshold int64) ([]model.LowStockRecord, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	out := []model.LowStockRecord{}
	for _, inv := range r.m.state.inventory {
		low := inv.Quantity <= threshold || (inv.ReorderLevel != nil && inv.Quantity <= *inv.ReorderLevel)
		if !low {
			continue
		}
		p := r.m.state.products[inv.ProductID]
		s := r.m.state.stores[inv.StoreID]
		out = append(out, model.LowStockRecord{
			ProductID:    p.ID,
			ProductName:  p.Name,
			ProductType:  p.Type,
			Grade:        p.Grade,
			StoreID:      s.ID,
			StoreName:    s.Name,
			Quantity:     inv.Quantity,
			ReorderLevel: inv.ReorderLevel,
			OptimalLevel: inv.OptimalLevel,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductName != out[j].ProductName {
			return out[i].ProductName < out[j].ProductName
		}
		return out[i].Quantity < out[j].Quantity
	})
	return out, nil
}

func (r *InventoryRepo) LogHistory(ctx context.Context, h *model.InventoryHistory) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail("inventory.LogHistory"); err != nil {
		return err
	}
	if !h.Balanced() {
		return apperror.InvalidQuantity("new_quantity", "does not balance")
	}
	r.m.state.history = append(r.m.state.history, *h)
	return nil
}

func (r *InventoryRepo) ListHistory(ctx context.Context, f *inventorydto.HistoryFilters) ([]model.InventoryHistory, int, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	matched := []model.InventoryHistory{}
	for _, h := range r.m.state.history {
		if f.ProductID != "" && h.ProductID != f.ProductID {
			continue
		}
		if f.StoreID != "" && h.StoreID != f.StoreID {
			continue
		}
		if f.ChangeType != "" && h.ChangeType != f.ChangeType {
			continue
		}
		if f.StartDate != nil && h.CreatedAt.Before(*f.StartDate) {
			continue
		}
		if f.EndDate != nil && h.CreatedAt.After(*f.EndDate) {
			continue
		}
		matched = append(matched, h)
	}
	// newest first; insertion order breaks ties
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return page(matched, f.Page, f.PageSize), len(matched), nil
}

func (r *InventoryRepo) CountHistorySince(ctx context.Context, productID string, changeType model.ChangeType, since time.Time) (int, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	n := 0
	for _, h := range r.m.state.history {
		if h.ProductID == productID && h.ChangeType == changeType && !h.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

type ActivityRepo struct{ m *Store }

func (r *ActivityRepo) Create(ctx context.Context, a *model.ActivityLog) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail("activity.Create"); err != nil {
		return err
	}
	r.m.state.activity = append(r.m.state.activity, *a)
	return nil
}

func (r *ActivityRepo) FindAll(ctx context.Context, f *activitydto.ActivityFilters) ([]model.ActivityLog, int, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	matched := []model.ActivityLog{}
	for _, a := range r.m.state.activity {
		if f.UserID != "" && a.UserID != f.UserID {
			continue
		}
		if f.Action != "" && a.Action != f.Action {
			continue
		}
		if f.EntityType != "" && a.EntityType != f.EntityType {
			continue
		}
		if f.EntityID != "" && a.EntityID != f.EntityID {
			continue
		}
		if f.StartDate != nil && a.CreatedAt.Before(*f.StartDate) {
			continue
		}
		if f.EndDate != nil && a.CreatedAt.After(*f.EndDate) {
			continue
		}
		matched = append(matched, a)
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return page(matched, f.Page, f.PageSize), len(matched), nil
}
