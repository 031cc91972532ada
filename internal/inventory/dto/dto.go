package dto

import (
	"time"

	"github.com/fekuna/omnipos-catalog-service/internal/model"
)

type HistoryFilters struct {
	ProductID  string
	StoreID    string
	ChangeType model.ChangeType
	StartDate  *time.Time
	EndDate    *time.Time
	Page       int
	PageSize   int
}
