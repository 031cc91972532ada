package usecase

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-catalog-service/internal/apperror"
	"github.com/fekuna/omnipos-catalog-service/internal/inventory"
	"github.com/fekuna/omnipos-catalog-service/internal/model"
	"github.com/google/uuid"
)

// HistoryEntry describes one quantity change of an inventory record.
type HistoryEntry struct {
	Inventory     *model.Inventory // record after the change
	ChangeType    model.ChangeType
	Previous      int64
	Change        int64
	ReferenceType string
	ReferenceID   string
	Notes         string
	ActorID       string
}

// HistoryRecorder is the only writer of inventory history. It runs in the caller's
// transaction so the ledger line commits or rolls back with the quantity it explains.
type HistoryRecorder struct {
	repo inventory.Repository
	now  func() time.Time
}

func NewHistoryRecorder(repo inventory.Repository, now func() time.Time) *HistoryRecorder {
	if now == nil {
		now = time.Now
	}
	return &HistoryRecorder{repo: repo, now: now}
}

func (r *HistoryRecorder) Record(ctx context.Context, e HistoryEntry) (*model.InventoryHistory, error) {
	if e.ActorID == "" {
		return nil, apperror.MissingField("created_by")
	}
	if !e.ChangeType.Valid() {
		return nil, &apperror.Error{Kind: apperror.KindInvalidTypeField, Message: "unknown change type " + string(e.ChangeType), Field: "change_type"}
	}
	if e.Change == 0 {
		return nil, apperror.InvalidQuantity("quantity_change", "must not be zero")
	}

	h := &model.InventoryHistory{
		ID:               uuid.New().String(),
		InventoryID:      e.Inventory.ID,
		ProductID:        e.Inventory.ProductID,
		StoreID:          e.Inventory.StoreID,
		ChangeType:       e.ChangeType,
		QuantityChange:   e.Change,
		PreviousQuantity: e.Previous,
		NewQuantity:      e.Inventory.Quantity,
		Notes:            e.Notes,
		CreatedBy:        e.ActorID,
		CreatedAt:        r.now().UTC(),
	}
	if e.ReferenceType != "" {
		h.ReferenceType = &e.ReferenceType
	}
	if e.ReferenceID != "" {
		h.ReferenceID = &e.ReferenceID
	}

	if !h.Balanced() {
		return nil, apperror.New(apperror.KindInvalidQuantity,
			"history does not balance: %d %+d != %d", h.PreviousQuantity, h.QuantityChange, h.NewQuantity)
	}

	if err := r.repo.LogHistory(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}
