package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-catalog-service/internal/activity"
	"github.com/fekuna/omnipos-catalog-service/internal/activity/dto"
	"github.com/fekuna/omnipos-catalog-service/internal/apperror"
	"github.com/fekuna/omnipos-catalog-service/internal/model"
	"github.com/fekuna/omnipos-catalog-service/pkg/logger"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type activityUseCase struct {
	repo   activity.Repository
	logger logger.ZapLogger
	now    func() time.Time
}

func NewActivityUseCase(repo activity.Repository, log logger.ZapLogger) activity.UseCase {
	return &activityUseCase{
		repo:   repo,
		logger: log,
		now:    time.Now,
	}
}

func (uc *activityUseCase) Emit(ctx context.Context, input *dto.EmitInput) error {
	if input.ActorID == "" {
		return apperror.MissingField("actor_id")
	}
	if input.Action == "" {
		return apperror.MissingField("action")
	}

	details := []byte("{}")
	if input.Details != nil {
		data, err := json.Marshal(input.Details)
		if err != nil {
			return errors.Wrap(err, "marshal activity details")
		}
		details = data
	}

	return uc.repo.Create(ctx, &model.ActivityLog{
		ID:         uuid.New().String(),
		UserID:     input.ActorID,
		Action:     input.Action,
		EntityType: input.EntityType,
		EntityID:   input.EntityID,
		Details:    details,
		CreatedAt:  uc.now().UTC(),
	})
}

func (uc *activityUseCase) ListActivity(ctx context.Context, filters *dto.ActivityFilters) ([]model.ActivityLog, int, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	return uc.repo.FindAll(ctx, filters)
}
