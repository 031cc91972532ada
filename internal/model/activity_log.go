package model

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

type ActivityLog struct {
	ID         string         `db:"id" json:"id"`
	UserID     string         `db:"user_id" json:"user_id"`
	Action     string         `db:"action" json:"action"`
	EntityType string         `db:"entity_type" json:"entity_type"`
	EntityID   string         `db:"entity_id" json:"entity_id"`
	Details    types.JSONText `db:"details" json:"details"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}

const (
	ActionProductCreated          = "PRODUCT_CREATED"
	ActionProductUpdated          = "PRODUCT_UPDATED"
	ActionProductArchiveRequested = "PRODUCT_ARCHIVE_REQUESTED"
	ActionProductAssignedToStores = "PRODUCT_ASSIGNED_TO_STORES"
	ActionProductRemovedFromStore = "PRODUCT_REMOVED_FROM_STORE"
	ActionInventoryAdjusted       = "INVENTORY_ADJUSTED"
	ActionInventoryTransferred    = "INVENTORY_TRANSFERRED"
)

const (
	EntityProduct   = "PRODUCT"
	EntityInventory = "INVENTORY"
)
