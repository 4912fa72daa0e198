package database

import (
	"context"
	"fmt"
	"time"

	"github.com/estatehub/marketplace-backend/internal/models"
	"github.com/google/uuid"
)

// SystemNotificationRepository handles admin-facing system_notifications
type SystemNotificationRepository struct {
	db DB
}

// NewSystemNotificationRepository creates a new SystemNotificationRepository
func NewSystemNotificationRepository(db DB) *SystemNotificationRepository {
	return &SystemNotificationRepository{db: db}
}

// Create inserts a notification. A nil AdminID makes it global.
func (r *SystemNotificationRepository) Create(ctx context.Context, n *models.SystemNotification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.Severity == "" {
		n.Severity = models.SeverityInfo
	}
	n.CreatedAt = time.Now()

	query := `
		INSERT INTO system_notifications (
			id, admin_id, type, title, message, severity, is_read,
			related_entity_type, related_entity_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		n.ID, n.AdminID, n.Type, n.Title, n.Message, n.Severity,
		n.RelatedEntityType, n.RelatedEntityID, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create system notification: %w", err)
	}
	return nil
}

// ListForAdmin returns the admin's own and global notifications, newest first
func (r *SystemNotificationRepository) ListForAdmin(ctx context.Context, adminID uuid.UUID, limit int) ([]models.SystemNotification, error) {
	notifications := []models.SystemNotification{}
	query := `
		SELECT id, admin_id, type, title, message, severity, is_read,
		       related_entity_type, related_entity_id, created_at, read_at
		FROM system_notifications
		WHERE admin_id = $1 OR admin_id IS NULL
		ORDER BY created_at DESC
		LIMIT $2
	`
	if err := r.db.SelectContext(ctx, &notifications, query, adminID, limit); err != nil {
		return nil, fmt.Errorf("failed to list system notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead marks one notification visible to the admin as read
func (r *SystemNotificationRepository) MarkRead(ctx context.Context, id, adminID uuid.UUID) error {
	query := `
		UPDATE system_notifications SET is_read = TRUE, read_at = NOW()
		WHERE id = $1 AND (admin_id = $2 OR admin_id IS NULL)
	`
	return execOne(ctx, r.db, "mark notification read", query, id, adminID)
}

// MarkAllRead marks every unread notification visible to the admin as read
func (r *SystemNotificationRepository) MarkAllRead(ctx context.Context, adminID uuid.UUID) (int64, error) {
	query := `
		UPDATE system_notifications SET is_read = TRUE, read_at = NOW()
		WHERE is_read = FALSE AND (admin_id = $1 OR admin_id IS NULL)
	`
	result, err := r.db.ExecContext(ctx, query, adminID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return result.RowsAffected()
}

// ProviderNotificationRepository handles owner-facing provider_notifications
type ProviderNotificationRepository struct {
	db DB
}

// NewProviderNotificationRepository creates a new ProviderNotificationRepository
func NewProviderNotificationRepository(db DB) *ProviderNotificationRepository {
	return &ProviderNotificationRepository{db: db}
}

// Create inserts an owner notification
func (r *ProviderNotificationRepository) Create(ctx context.Context, n *models.ProviderNotification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	n.CreatedAt = time.Now()

	query := `
		INSERT INTO provider_notifications (
			id, account_id, type, title, message, is_read,
			related_entity_type, related_entity_id, created_at
		) VALUES ($1, $2, $3, $4, $5, FALSE, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		n.ID, n.AccountID, n.Type, n.Title, n.Message,
		n.RelatedEntityType, n.RelatedEntityID, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create provider notification: %w", err)
	}
	return nil
}

// ListForAccount returns an owner's notifications, newest first
func (r *ProviderNotificationRepository) ListForAccount(ctx context.Context, accountID uuid.UUID, unreadOnly bool, limit int) ([]models.ProviderNotification, error) {
	notifications := []models.ProviderNotification{}
	query := `
		SELECT id, account_id, type, title, message, is_read,
		       related_entity_type, related_entity_id, created_at, read_at
		FROM provider_notifications
		WHERE account_id = $1 AND ($2 = FALSE OR is_read = FALSE)
		ORDER BY created_at DESC
		LIMIT $3
	`
	if err := r.db.SelectContext(ctx, &notifications, query, accountID, unreadOnly, limit); err != nil {
		return nil, fmt.Errorf("failed to list provider notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead marks one of the owner's notifications as read
func (r *ProviderNotificationRepository) MarkRead(ctx context.Context, id, accountID uuid.UUID) error {
	query := `UPDATE provider_notifications SET is_read = TRUE, read_at = NOW() WHERE id = $1 AND account_id = $2`
	return execOne(ctx, r.db, "mark notification read", query, id, accountID)
}

// MarkAllRead marks all of the owner's notifications as read
func (r *ProviderNotificationRepository) MarkAllRead(ctx context.Context, accountID uuid.UUID) (int64, error) {
	query := `UPDATE provider_notifications SET is_read = TRUE, read_at = NOW() WHERE account_id = $1 AND is_read = FALSE`
	result, err := r.db.ExecContext(ctx, query, accountID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return result.RowsAffected()
}
