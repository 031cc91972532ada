package model

import "time"

type Store struct {
	BaseModel
	Code     string  `db:"code" json:"code"`
	Name     string  `db:"name" json:"name"`
	Address  *string `db:"address" json:"address"`
	IsActive bool    `db:"is_active" json:"is_active"`
}

// StoreAssignment marks a product as sellable at a store, independent of stock.
type StoreAssignment struct {
	ProductID string    `db:"product_id" json:"product_id"`
	StoreID   string    `db:"store_id" json:"store_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type AssignmentResult struct {
	StoreID   string     `json:"store_id"`
	StoreName string     `json:"store_name"`
	Inventory *Inventory `json:"inventory,omitempty"`
}
