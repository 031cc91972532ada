package repository

import (
	"time"

	"github.com/fekuna/omnipos-catalog-service/internal/model"
	"github.com/shopspring/decimal"
)

// productRow is the flat column layout of the products table.
type productRow struct {
	ID              string              `db:"id"`
	Name            string              `db:"name"`
	BasePrice       decimal.Decimal     `db:"base_price"`
	Type            model.ProductType   `db:"type"`
	Grade           model.Grade         `db:"grade"`
	Commodity       *string             `db:"commodity"`
	TireCategory    *string             `db:"tire_category"`
	TireUsage       *string             `db:"tire_usage"`
	TireSize        *string             `db:"tire_size"`
	TireLoadIndex   *string             `db:"tire_load_index"`
	TireSpeedRating *string             `db:"tire_speed_rating"`
	TireWarranty    *string             `db:"tire_warranty"`
	BaleWeight      decimal.NullDecimal `db:"bale_weight"`
	BaleCategory    *string             `db:"bale_category"`
	BaleOrigin      *string             `db:"bale_origin"`
	BaleImportDate  *time.Time          `db:"bale_import_date"`
	CreatedAt       time.Time           `db:"created_at"`
	UpdatedAt       time.Time           `db:"updated_at"`
}

const productColumns = `id, name, base_price, type, grade, commodity,
        tire_category, tire_usage, tire_size, tire_load_index, tire_speed_rating, tire_warranty,
        bale_weight, bale_category, bale_origin, bale_import_date, created_at, updated_at`

func toRow(p *model.Product) productRow {
	row := productRow{
		ID:        p.ID,
		Name:      p.Name,
		BasePrice: p.BasePrice,
		Type:      p.Type,
		Grade:     p.Grade,
		Commodity: p.Commodity,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	switch a := p.Attributes.(type) {
	case model.TireAttributes:
		row.TireCategory = nullable(a.Category)
		row.TireUsage = nullable(a.Usage)
		row.TireSize = nullable(a.Size)
		row.TireLoadIndex = nullable(a.LoadIndex)
		row.TireSpeedRating = nullable(a.SpeedRating)
		row.TireWarranty = nullable(a.Warranty)
	case model.BaleAttributes:
		row.BaleWeight = a.Weight
		row.BaleCategory = nullable(a.Category)
		row.BaleOrigin = nullable(a.OriginCountry)
		row.BaleImportDate = a.ImportDate
	}
	return row
}

func (r productRow) toProduct() model.Product {
	p := model.Product{
		BaseModel: model.BaseModel{ID: r.ID, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt},
		Name:      r.Name,
		BasePrice: r.BasePrice,
		Type:      r.Type,
		Grade:     r.Grade,
		Commodity: r.Commodity,
	}
	switch r.Type {
	case model.ProductTypeTire:
		p.Attributes = model.TireAttributes{
			Category:    deref(r.TireCategory),
			Usage:       deref(r.TireUsage),
			Size:        deref(r.TireSize),
			LoadIndex:   deref(r.TireLoadIndex),
			SpeedRating: deref(r.TireSpeedRating),
			Warranty:    deref(r.TireWarranty),
		}
	case model.ProductTypeBale:
		p.Attributes = model.BaleAttributes{
			Weight:        r.BaleWeight,
			Category:      deref(r.BaleCategory),
			OriginCountry: deref(r.BaleOrigin),
			ImportDate:    r.BaleImportDate,
		}
	}
	return p
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
