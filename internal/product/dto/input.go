package dto

import (
	"time"

	assignmentdto "github.com/fekuna/omnipos-catalog-service/internal/assignment/dto"
	"github.com/fekuna/omnipos-catalog-service/internal/model"
	"github.com/shopspring/decimal"
)

// TireFields and BaleFields arrive as loose optional bags; the use case turns the one matching
// the product type into model.ProductAttributes and rejects the other when it carries any field.
type TireFields struct {
	Category    *string
	Usage       *string
	Size        *string
	LoadIndex   *string
	SpeedRating *string
	Warranty    *string
}

type BaleFields struct {
	Weight        *decimal.Decimal
	Category      *string
	OriginCountry *string
	ImportDate    *time.Time
}

// IsEmpty reports whether no tire field is set. A nil bag is empty.
func (f *TireFields) IsEmpty() bool {
	return f == nil || (f.Category == nil && f.Usage == nil && f.Size == nil &&
		f.LoadIndex == nil && f.SpeedRating == nil && f.Warranty == nil)
}

// IsEmpty reports whether no bale field is set. A nil bag is empty.
func (f *BaleFields) IsEmpty() bool {
	return f == nil || (f.Weight == nil && f.Category == nil && f.OriginCountry == nil && f.ImportDate == nil)
}

type CreateProductInput struct {
	Name             string                     `validate:"required"`
	BasePrice        *decimal.Decimal           `validate:"required,gte=0"`
	Type             model.ProductType          `validate:"required,oneof=TIRE BALE"`
	Grade            model.Grade                `validate:"required,oneof=A B C"`
	ActorID          string                     `validate:"required"`
	Commodity        *string
	Tire             *TireFields
	Bale             *BaleFields
	StoreAssignments []assignmentdto.Allocation `validate:"dive"`
}

// UpdateProductInput: nil fields are left untouched.
type UpdateProductInput struct {
	ID        string           `validate:"required"`
	ActorID   string           `validate:"required"`
	Name      *string
	BasePrice *decimal.Decimal `validate:"omitempty,gte=0"`
	Grade     *model.Grade     `validate:"omitempty,oneof=A B C"`
	Commodity *string
	Tire      *TireFields
	Bale      *BaleFields
}
