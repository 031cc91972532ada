package inventory

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-catalog-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-catalog-service/internal/model"
)

type Repository interface {
	// Inventory records. forUpdate locks the row for the rest of the transaction.
	GetByProductStore(ctx context.Context, productID, storeID string, forUpdate bool) (*model.Inventory, error)
	Create(ctx context.Context, inv *model.Inventory) error
	UpdateQuantity(ctx context.Context, inv *model.Inventory) error
	Delete(ctx context.Context, id string) error
	SumQuantityByProduct(ctx context.Context, productID string) (int64, error)
	FindLowStock(ctx context.Context, threshold int64) ([]model.LowStockRecord, error)

	// History, append-only
	LogHistory(ctx context.Context, entry *model.InventoryHistory) error
	ListHistory(ctx context.Context, filters *dto.HistoryFilters) ([]model.InventoryHistory, int, error)
	CountHistorySince(ctx context.Context, productID string, changeType model.ChangeType, since time.Time) (int, error)
}
