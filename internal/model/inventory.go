package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Inventory struct {
	ID           string              `db:"id" json:"id"`
	ProductID    string              `db:"product_id" json:"product_id"`
	StoreID      string              `db:"store_id" json:"store_id"`
	Quantity     int64               `db:"quantity" json:"quantity"`
	StorePrice   decimal.NullDecimal `db:"store_price" json:"store_price"`
	ReorderLevel *int64              `db:"reorder_level" json:"reorder_level"`
	OptimalLevel *int64              `db:"optimal_level" json:"optimal_level"`
	CreatedAt    time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time           `db:"updated_at" json:"updated_at"`
}

type ChangeType string

const (
	ChangePurchase   ChangeType = "PURCHASE"
	ChangeSale       ChangeType = "SALE"
	ChangeTransfer   ChangeType = "TRANSFER"
	ChangeAdjustment ChangeType = "ADJUSTMENT"
	ChangeReturn     ChangeType = "RETURN"
	ChangeDamage     ChangeType = "DAMAGE"
)

func (c ChangeType) Valid() bool {
	switch c {
	case ChangePurchase, ChangeSale, ChangeTransfer, ChangeAdjustment, ChangeReturn, ChangeDamage:
		return true
	}
	return false
}

// Reference types recorded on history entries.
const (
	RefProductCreation = "PRODUCT_CREATION"
	RefStoreAssignment = "STORE_ASSIGNMENT"
	RefManual          = "MANUAL"
	RefTransfer        = "TRANSFER"
	RefOrder           = "ORDER"
)

// InventoryHistory is one immutable ledger line. PreviousQuantity + QuantityChange
// always equals NewQuantity.
type InventoryHistory struct {
	ID               string     `db:"id" json:"id"`
	InventoryID      string     `db:"inventory_id" json:"inventory_id"`
	ProductID        string     `db:"product_id" json:"product_id"`
	StoreID          string     `db:"store_id" json:"store_id"`
	ChangeType       ChangeType `db:"change_type" json:"change_type"`
	QuantityChange   int64      `db:"quantity_change" json:"quantity_change"`
	PreviousQuantity int64      `db:"previous_quantity" json:"previous_quantity"`
	NewQuantity      int64      `db:"new_quantity" json:"new_quantity"`
	ReferenceType    *string    `db:"reference_type" json:"reference_type"`
	ReferenceID      *string    `db:"reference_id" json:"reference_id"`
	Notes            string     `db:"notes" json:"notes"`
	CreatedBy        string     `db:"created_by" json:"created_by"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
}

func (h *InventoryHistory) Balanced() bool {
	return h.PreviousQuantity+h.QuantityChange == h.NewQuantity
}

// LowStockRecord is a flat inventory row joined with product and store names.
type LowStockRecord struct {
	ProductID    string      `db:"product_id"`
	ProductName  string      `db:"product_name"`
	ProductType  ProductType `db:"product_type"`
	Grade        Grade       `db:"grade"`
	StoreID      string      `db:"store_id"`
	StoreName    string      `db:"store_name"`
	Quantity     int64       `db:"quantity"`
	ReorderLevel *int64      `db:"reorder_level"`
	OptimalLevel *int64      `db:"optimal_level"`
}

type LowStockProduct struct {
	ProductID     string          `json:"product_id"`
	ProductName   string          `json:"product_name"`
	ProductType   ProductType     `json:"product_type"`
	Grade         Grade           `json:"grade"`
	TotalQuantity int64           `json:"total_quantity"`
	Stores        []LowStockStore `json:"stores"`
}

type LowStockStore struct {
	StoreID      string `json:"store_id"`
	StoreName    string `json:"store_name"`
	Quantity     int64  `json:"quantity"`
	ReorderLevel *int64 `json:"reorder_level"`
	OptimalLevel *int64 `json:"optimal_level"`
}
