package dto

import (
	"github.com/fekuna/omnipos-catalog-service/internal/model"
	"github.com/shopspring/decimal"
)

type StockInput struct {
	ProductID     string
	StoreID       string
	Quantity      int64
	StorePrice    *decimal.Decimal
	ReorderLevel  *int64
	OptimalLevel  *int64
	ReferenceType string
	ActorID       string
}

type AdjustInventoryInput struct {
	ProductID      string           `validate:"required"`
	StoreID        string           `validate:"required"`
	ChangeType     model.ChangeType `validate:"required,oneof=PURCHASE SALE ADJUSTMENT RETURN DAMAGE"`
	QuantityChange int64
	Reason         string
	ReferenceID    string
	ReferenceType  string // MANUAL when empty
	ActorID        string `validate:"required"`
}

type TransferInventoryInput struct {
	ProductID     string `validate:"required"`
	SourceStoreID string `validate:"required"`
	TargetStoreID string `validate:"required"`
	Quantity      int64  `validate:"gt=0"`
	Reason        string
	ActorID       string `validate:"required"`
}
