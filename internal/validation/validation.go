// Package validation runs struct-tag checks on use case inputs and reports the first
// failure as an apperror kind.
package validation

import (
	"reflect"
	"strings"
	"unicode"

	"github.com/fekuna/omnipos-catalog-service/internal/apperror"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Money is validated as a float so gte/lte tags apply to decimal fields.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	return v
}

func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperror.Wrap(apperror.KindInternal, err, "validate input")
	}

	fe := verrs[0]
	field := snakeCase(fe.Field())
	switch fe.Tag() {
	case "required":
		return apperror.MissingField(field)
	case "oneof":
		return &apperror.Error{Kind: apperror.KindInvalidTypeField, Message: field + " must be one of " + fe.Param(), Field: field}
	case "gte", "gt", "min":
		if fe.Kind() == reflect.Slice {
			return apperror.MissingField(field)
		}
		if strings.Contains(fe.Field(), "Price") {
			return apperror.InvalidPrice(field)
		}
		return apperror.InvalidQuantity(field, "must not be negative")
	}
	return &apperror.Error{Kind: apperror.KindMissingField, Message: field + " failed " + fe.Tag(), Field: field}
}

func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
