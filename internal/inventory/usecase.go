package inventory

import (
	"context"

	"github.com/fekuna/omnipos-catalog-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-catalog-service/internal/model"
)

type UseCase interface {
	// StockInitial creates the inventory record for a freshly assigned pair. Runs in the
	// caller's transaction.
	StockInitial(ctx context.Context, input *dto.StockInput) (*model.Inventory, error)
	AdjustInventory(ctx context.Context, input *dto.AdjustInventoryInput) (*model.Inventory, error)
	TransferInventory(ctx context.Context, input *dto.TransferInventoryInput) error

	// GetLowStockProducts uses the configured threshold when threshold is negative. Zero is honored
	// and matches only empty stock or records at their reorder level.
	GetLowStockProducts(ctx context.Context, threshold int64) ([]model.LowStockProduct, error)
	ListHistory(ctx context.Context, filters *dto.HistoryFilters) ([]model.InventoryHistory, int, error)
}
