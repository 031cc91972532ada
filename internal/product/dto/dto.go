package dto

import (
	"github.com/fekuna/omnipos-catalog-service/internal/model"
	"github.com/shopspring/decimal"
)

type ProductFilters struct {
	Name         string // contains, case-insensitive
	Commodity    string // contains, case-insensitive
	TireCategory string // contains, case-insensitive
	Type         model.ProductType
	Grade        model.Grade
	StoreID      string
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	InStock      *bool
	SortBy       string // name, price, created_at
	SortOrder    string // asc, desc
	Page         int
	Limit        int
}

type ProductPage struct {
	Products   []model.Product `json:"products"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"total_pages"`
}
