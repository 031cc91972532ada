// Package apperror holds the failure kinds surfaced by the catalog core.
package apperror

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindMissingField             Kind = "MissingField"
	KindInvalidPrice             Kind = "InvalidPrice"
	KindInvalidTypeField         Kind = "InvalidTypeField"
	KindInvalidQuantity          Kind = "InvalidQuantity"
	KindDuplicateName            Kind = "DuplicateName"
	KindAlreadyAssigned          Kind = "AlreadyAssigned"
	KindNotAssigned              Kind = "NotAssigned"
	KindProductNotFound          Kind = "ProductNotFound"
	KindStoreNotFound            Kind = "StoreNotFound"
	KindProductHasInventory      Kind = "ProductHasInventory"
	KindProductHasRecentSales    Kind = "ProductHasRecentSales"
	KindProductDeletionPrevented Kind = "ProductDeletionPrevented"
	KindInsufficientStock        Kind = "InsufficientStock"
	KindNoUpdatesProvided        Kind = "NoUpdatesProvided"
	KindConflict                 Kind = "Conflict"
	KindStorageUnavailable       Kind = "StorageUnavailable"
	KindInternal                 Kind = "Internal"
)

// Error carries the kind plus the offending field or identifier.
type Error struct {
	Kind    Kind
	Message string
	Field   string
	ID      string
	Err     error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, apperror.ProductNotFound("")) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf returns the kind of the first *Error in the chain, KindInternal otherwise.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func MissingField(field string) *Error {
	return &Error{Kind: KindMissingField, Message: field + " is required", Field: field}
}

func InvalidPrice(field string) *Error {
	return &Error{Kind: KindInvalidPrice, Message: field + " must not be negative", Field: field}
}

func InvalidTypeField(field, productType string) *Error {
	return &Error{Kind: KindInvalidTypeField, Message: fmt.Sprintf("%s is not allowed for %s products", field, productType), Field: field}
}

func InvalidQuantity(field, reason string) *Error {
	return &Error{Kind: KindInvalidQuantity, Message: field + " " + reason, Field: field}
}

func DuplicateName(name string) *Error {
	return &Error{Kind: KindDuplicateName, Message: fmt.Sprintf("product name %q already exists", name), Field: "name", ID: name}
}

func AlreadyAssigned(productID, storeID string) *Error {
	return &Error{Kind: KindAlreadyAssigned, Message: fmt.Sprintf("product %s is already assigned to store %s", productID, storeID), ID: storeID}
}

func NotAssigned(productID, storeID string) *Error {
	return &Error{Kind: KindNotAssigned, Message: fmt.Sprintf("product %s is not assigned to store %s", productID, storeID), ID: storeID}
}

func ProductNotFound(id string) *Error {
	return &Error{Kind: KindProductNotFound, Message: "product " + id + " not found", ID: id}
}

func StoreNotFound(id string) *Error {
	return &Error{Kind: KindStoreNotFound, Message: "store " + id + " not found", ID: id}
}

func ProductHasInventory(productID string, quantity int64) *Error {
	return &Error{Kind: KindProductHasInventory, Message: fmt.Sprintf("product %s still has %d units in stock", productID, quantity), ID: productID}
}

func ProductHasRecentSales(productID string, days int) *Error {
	return &Error{Kind: KindProductHasRecentSales, Message: fmt.Sprintf("product %s was sold within the last %d days", productID, days), ID: productID}
}

func ProductDeletionPrevented(productID string) *Error {
	return &Error{Kind: KindProductDeletionPrevented, Message: "products cannot be deleted; archive request for " + productID + " was logged", ID: productID}
}

func InsufficientStock(productID, storeID string, available, requested int64) *Error {
	return &Error{
		Kind:    KindInsufficientStock,
		Message: fmt.Sprintf("store %s has %d units of product %s, %d requested", storeID, available, productID, requested),
		ID:      storeID,
	}
}

func NoUpdatesProvided() *Error {
	return &Error{Kind: KindNoUpdatesProvided, Message: "at least one field must be updated"}
}
