package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type ProductType string

const (
	ProductTypeTire ProductType = "TIRE"
	ProductTypeBale ProductType = "BALE"
)

func (t ProductType) Valid() bool {
	return t == ProductTypeTire || t == ProductTypeBale
}

type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
)

func (g Grade) Valid() bool {
	return g == GradeA || g == GradeB || g == GradeC
}

// ProductAttributes is either TireAttributes or BaleAttributes. The variant is chosen at
// creation and never changes.
type ProductAttributes interface {
	ProductType() ProductType
}

type TireAttributes struct {
	Category    string `json:"category,omitempty"`
	Usage       string `json:"usage,omitempty"`
	Size        string `json:"size,omitempty"`
	LoadIndex   string `json:"load_index,omitempty"`
	SpeedRating string `json:"speed_rating,omitempty"`
	Warranty    string `json:"warranty,omitempty"`
}

func (TireAttributes) ProductType() ProductType { return ProductTypeTire }

type BaleAttributes struct {
	Weight        decimal.NullDecimal `json:"weight"`
	Category      string              `json:"category,omitempty"`
	OriginCountry string              `json:"origin_country,omitempty"`
	ImportDate    *time.Time          `json:"import_date,omitempty"`
}

func (BaleAttributes) ProductType() ProductType { return ProductTypeBale }

type Product struct {
	BaseModel
	Name       string            `json:"name"`
	BasePrice  decimal.Decimal   `json:"base_price"`
	Type       ProductType       `json:"type"`
	Grade      Grade             `json:"grade"`
	Commodity  *string           `json:"commodity"`
	Attributes ProductAttributes `json:"attributes"`
}

// Tire returns the tire attributes, or nil for other product types.
func (p *Product) Tire() *TireAttributes {
	if a, ok := p.Attributes.(TireAttributes); ok {
		return &a
	}
	return nil
}

func (p *Product) Bale() *BaleAttributes {
	if a, ok := p.Attributes.(BaleAttributes); ok {
		return &a
	}
	return nil
}

func (p *Product) UnmarshalJSON(data []byte) error {
	type alias Product
	aux := struct {
		*alias
		Attributes json.RawMessage `json:"attributes"`
	}{alias: (*alias)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	switch p.Type {
	case ProductTypeTire:
		var a TireAttributes
		if len(aux.Attributes) > 0 && string(aux.Attributes) != "null" {
			if err := json.Unmarshal(aux.Attributes, &a); err != nil {
				return err
			}
		}
		p.Attributes = a
	case ProductTypeBale:
		var a BaleAttributes
		if len(aux.Attributes) > 0 && string(aux.Attributes) != "null" {
			if err := json.Unmarshal(aux.Attributes, &a); err != nil {
				return err
			}
		}
		p.Attributes = a
	default:
		return fmt.Errorf("unknown product type %q", p.Type)
	}
	return nil
}

// ProductDetail is a product with its per-store inventory.
type ProductDetail struct {
	Product Product          `json:"product"`
	Stores  []StoreInventory `json:"stores"`
	Counts  ProductCounts    `json:"counts"`
}

type StoreInventory struct {
	StoreID      string              `db:"store_id" json:"store_id"`
	StoreCode    string              `db:"store_code" json:"store_code"`
	StoreName    string              `db:"store_name" json:"store_name"`
	AssignedAt   time.Time           `db:"assigned_at" json:"assigned_at"`
	InventoryID  *string             `db:"inventory_id" json:"inventory_id"`
	Quantity     int64               `db:"quantity" json:"quantity"`
	StorePrice   decimal.NullDecimal `db:"store_price" json:"store_price"`
	ReorderLevel *int64              `db:"reorder_level" json:"reorder_level"`
	OptimalLevel *int64              `db:"optimal_level" json:"optimal_level"`
}

type ProductCounts struct {
	Stores        int   `json:"stores"`
	StoresInStock int   `json:"stores_in_stock"`
	TotalQuantity int64 `json:"total_quantity"`
}
