package product

import (
	"time"

	"github.com/fekuna/omnipos-catalog-service/internal/model"
)

const SearchIndex = "products"

const SearchIndexMapping = `{
	"mappings": {
		"properties": {
			"name": { "type": "text", "fields": { "keyword": { "type": "keyword" } } },
			"type": { "type": "keyword" },
			"grade": { "type": "keyword" },
			"commodity": { "type": "text" },
			"category": { "type": "text" },
			"base_price": { "type": "double" },
			"created_at": { "type": "date" },
			"updated_at": { "type": "date" }
		}
	}
}`

// Document is the search-index projection of a product.
type Document struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Grade     string    `json:"grade"`
	Commodity string    `json:"commodity,omitempty"`
	Category  string    `json:"category,omitempty"`
	BasePrice float64   `json:"base_price"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewDocument(p *model.Product) Document {
	doc := Document{
		ID:        p.ID,
		Name:      p.Name,
		Type:      string(p.Type),
		Grade:     string(p.Grade),
		BasePrice: p.BasePrice.InexactFloat64(),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if p.Commodity != nil {
		doc.Commodity = *p.Commodity
	}
	if t := p.Tire(); t != nil {
		doc.Category = t.Category
	}
	if b := p.Bale(); b != nil {
		doc.Category = b.Category
	}
	return doc
}
