package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-catalog-service/internal/activity/dto"
	"github.com/fekuna/omnipos-catalog-service/internal/model"
	"github.com/fekuna/omnipos-catalog-service/pkg/database/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, a *model.ActivityLog) error {
	query := `
        INSERT INTO activity_logs (id, user_id, action, entity_type, entity_id, details, created_at)
        VALUES (:id, :user_id, :action, :entity_type, :entity_id, :details, :created_at)
    `
	_, err := sqlx.NamedExecContext(ctx, postgres.Conn(ctx, r.DB), query, a)
	if err != nil {
		return postgres.TranslateError(errors.Wrap(err, "activityRepo.Create"))
	}
	return nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ActivityFilters) ([]model.ActivityLog, int, error) {
	items := []model.ActivityLog{}
	var count int

	conditions := []string{}
	args := map[string]any{}

	if f.UserID != "" {
		conditions = append(conditions, "user_id = :user_id")
		args["user_id"] = f.UserID
	}
	if f.Action != "" {
		conditions = append(conditions, "action = :action")
		args["action"] = f.Action
	}
	if f.EntityType != "" {
		conditions = append(conditions, "entity_type = :entity_type")
		args["entity_type"] = f.EntityType
	}
	if f.EntityID != "" {
		conditions = append(conditions, "entity_id = :entity_id")
		args["entity_id"] = f.EntityID
	}
	if f.StartDate != nil {
		conditions = append(conditions, "created_at >= :start_date")
		args["start_date"] = *f.StartDate
	}
	if f.EndDate != nil {
		conditions = append(conditions, "created_at <= :end_date")
		args["end_date"] = *f.EndDate
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	conn := postgres.Conn(ctx, r.DB)
	if err := postgres.NamedGet(ctx, conn, &count, "SELECT count(*) FROM activity_logs"+whereClause, args); err != nil {
		return nil, 0, postgres.TranslateError(errors.Wrap(err, "activityRepo.FindAll count"))
	}

	query := "SELECT id, user_id, action, entity_type, entity_id, details, created_at FROM activity_logs" +
		whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		offset := (max(f.Page, 1) - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	if err := postgres.NamedSelect(ctx, conn, &items, query, args); err != nil {
		return nil, 0, postgres.TranslateError(errors.Wrap(err, "activityRepo.FindAll"))
	}
	return items, count, nil
}
