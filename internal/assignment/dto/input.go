package dto

import "github.com/shopspring/decimal"

type Allocation struct {
	StoreID         string           `validate:"required"`
	InitialQuantity int64            `validate:"gte=0"`
	StorePrice      *decimal.Decimal `validate:"omitempty,gte=0"`
	ReorderLevel    *int64           `validate:"omitempty,gte=0"`
	OptimalLevel    *int64           `validate:"omitempty,gte=0"`
}

type AssignInput struct {
	ProductID   string       `validate:"required"`
	ActorID     string       `validate:"required"`
	Allocations []Allocation `validate:"required,min=1,dive"`
}

type AttachInput struct {
	ProductID     string
	ActorID       string
	ReferenceType string
	Allocations   []Allocation
}
