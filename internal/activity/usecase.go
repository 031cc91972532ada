package activity

import (
	"context"

	"github.com/fekuna/omnipos-catalog-service/internal/activity/dto"
	"github.com/fekuna/omnipos-catalog-service/internal/model"
)

// Emitter writes one activity entry per mutating operation, inside the caller's transaction.
type Emitter interface {
	Emit(ctx context.Context, input *dto.EmitInput) error
}

type UseCase interface {
	Emitter
	ListActivity(ctx context.Context, filters *dto.ActivityFilters) ([]model.ActivityLog, int, error)
}
