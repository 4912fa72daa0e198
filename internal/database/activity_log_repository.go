package database

import (
	"context"
	"fmt"
	"time"

	"github.com/estatehub/marketplace-backend/internal/models"
	"github.com/google/uuid"
)

// ActivityLogRepository handles the append-only admin_activity_logs table
type ActivityLogRepository struct {
	db DB
}

// NewActivityLogRepository creates a new ActivityLogRepository
func NewActivityLogRepository(db DB) *ActivityLogRepository {
	return &ActivityLogRepository{db: db}
}

// Create appends one activity row
func (r *ActivityLogRepository) Create(ctx context.Context, entry *models.ActivityLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO admin_activity_logs (id, admin_id, action, target_type, target_id, target_email, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.AdminID, entry.Action, entry.TargetType, entry.TargetID,
		entry.TargetEmail, entry.Details, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to log admin activity: %w", err)
	}
	return nil
}

// ListRecent returns the newest entries first
func (r *ActivityLogRepository) ListRecent(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	entries := []models.ActivityLog{}
	query := `
		SELECT id, admin_id, action, target_type, target_id, target_email, details, created_at
		FROM admin_activity_logs
		ORDER BY created_at DESC
		LIMIT $1
	`
	if err := r.db.SelectContext(ctx, &entries, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list admin activity: %w", err)
	}
	return entries, nil
}

// ListByTarget returns the history of one entity, newest first
func (r *ActivityLogRepository) ListByTarget(ctx context.Context, targetType models.TargetType, targetID uuid.UUID) ([]models.ActivityLog, error) {
	entries := []models.ActivityLog{}
	query := `
		SELECT id, admin_id, action, target_type, target_id, target_email, details, created_at
		FROM admin_activity_logs
		WHERE target_type = $1 AND target_id = $2
		ORDER BY created_at DESC
	`
	if err := r.db.SelectContext(ctx, &entries, query, targetType, targetID); err != nil {
		return nil, fmt.Errorf("failed to list target activity: %w", err)
	}
	return entries, nil
}
