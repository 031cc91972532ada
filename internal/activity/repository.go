package activity

import (
	"context"

	"github.com/fekuna/omnipos-catalog-service/internal/activity/dto"
	"github.com/fekuna/omnipos-catalog-service/internal/model"
)

// Repository is append-only: there is no update or delete.
type Repository interface {
	Create(ctx context.Context, entry *model.ActivityLog) error
	FindAll(ctx context.Context, filters *dto.ActivityFilters) ([]model.ActivityLog, int, error)
}
