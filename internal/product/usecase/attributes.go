package usecase

import (
	"github.com/fekuna/omnipos-catalog-service/internal/apperror"
	"github.com/fekuna/omnipos-catalog-service/internal/model"
	"github.com/fekuna/omnipos-catalog-service/internal/product/dto"
	"github.com/shopspring/decimal"
)

// newAttributes picks the variant for productType and rejects fields of the other type.
func newAttributes(productType model.ProductType, tire *dto.TireFields, bale *dto.BaleFields) (model.ProductAttributes, error) {
	switch productType {
	case model.ProductTypeTire:
		if !bale.IsEmpty() {
			return nil, apperror.InvalidTypeField("bale", string(productType))
		}
		var a model.TireAttributes
		if tire != nil {
			applyTire(&a, tire)
		}
		return a, nil
	case model.ProductTypeBale:
		if !tire.IsEmpty() {
			return nil, apperror.InvalidTypeField("tire", string(productType))
		}
		var a model.BaleAttributes
		if bale != nil {
			if bale.Weight != nil && bale.Weight.IsNegative() {
				return nil, apperror.InvalidQuantity("bale_weight", "must not be negative")
			}
			applyBale(&a, bale)
		}
		return a, nil
	}
	return nil, &apperror.Error{Kind: apperror.KindInvalidTypeField, Message: "unknown product type " + string(productType), Field: "type"}
}

// applyUpdate copies the supplied fields onto p and returns their names. The attribute bag that
// does not match p's type is ignored.
func applyUpdate(p *model.Product, in *dto.UpdateProductInput) []string {
	changed := []string{}
	if in.Name != nil && *in.Name != p.Name {
		p.Name = *in.Name
		changed = append(changed, "name")
	}
	if in.BasePrice != nil && !in.BasePrice.Equal(p.BasePrice) {
		p.BasePrice = *in.BasePrice
		changed = append(changed, "base_price")
	}
	if in.Grade != nil && *in.Grade != p.Grade {
		p.Grade = *in.Grade
		changed = append(changed, "grade")
	}
	if in.Commodity != nil && (p.Commodity == nil || *p.Commodity != *in.Commodity) {
		commodity := *in.Commodity
		p.Commodity = &commodity
		changed = append(changed, "commodity")
	}

	switch a := p.Attributes.(type) {
	case model.TireAttributes:
		if in.Tire != nil {
			before := a
			applyTire(&a, in.Tire)
			changed = append(changed, tireChanges(before, a)...)
			p.Attributes = a
		}
	case model.BaleAttributes:
		if in.Bale != nil {
			before := a
			applyBale(&a, in.Bale)
			changed = append(changed, baleChanges(before, a)...)
			p.Attributes = a
		}
	}
	return changed
}

func applyTire(a *model.TireAttributes, f *dto.TireFields) {
	set(&a.Category, f.Category)
	set(&a.Usage, f.Usage)
	set(&a.Size, f.Size)
	set(&a.LoadIndex, f.LoadIndex)
	set(&a.SpeedRating, f.SpeedRating)
	set(&a.Warranty, f.Warranty)
}

func applyBale(a *model.BaleAttributes, f *dto.BaleFields) {
	if f.Weight != nil {
		a.Weight = decimal.NewNullDecimal(*f.Weight)
	}
	set(&a.Category, f.Category)
	set(&a.OriginCountry, f.OriginCountry)
	if f.ImportDate != nil {
		d := *f.ImportDate
		a.ImportDate = &d
	}
}

func tireChanges(before, after model.TireAttributes) []string {
	var out []string
	diff := func(name, x, y string) {
		if x != y {
			out = append(out, name)
		}
	}
	diff("tire_category", before.Category, after.Category)
	diff("tire_usage", before.Usage, after.Usage)
	diff("tire_size", before.Size, after.Size)
	diff("tire_load_index", before.LoadIndex, after.LoadIndex)
	diff("tire_speed_rating", before.SpeedRating, after.SpeedRating)
	diff("tire_warranty", before.Warranty, after.Warranty)
	return out
}

func baleChanges(before, after model.BaleAttributes) []string {
	var out []string
	if before.Weight.Valid != after.Weight.Valid || !before.Weight.Decimal.Equal(after.Weight.Decimal) {
		out = append(out, "bale_weight")
	}
	if before.Category != after.Category {
		out = append(out, "bale_category")
	}
	if before.OriginCountry != after.OriginCountry {
		out = append(out, "bale_origin")
	}
	if (before.ImportDate == nil) != (after.ImportDate == nil) ||
		(before.ImportDate != nil && !before.ImportDate.Equal(*after.ImportDate)) {
		out = append(out, "bale_import_date")
	}
	return out
}

func set(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
