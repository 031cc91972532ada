package dto

import "time"

type ActivityFilters struct {
	UserID     string
	Action     string
	EntityType string
	EntityID   string
	StartDate  *time.Time
	EndDate    *time.Time
	Page       int
	PageSize   int
}
