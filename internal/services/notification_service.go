package services

import (
	"context"
	"fmt"

	"github.com/estatehub/marketplace-backend/internal/database"
	"github.com/estatehub/marketplace-backend/internal/models"
	"github.com/google/uuid"
)

const defaultNotificationLimit = 50

// OwnerNotice is a notification addressed to one listing owner
type OwnerNotice struct {
	AccountID  uuid.UUID
	Type       string
	Title      string
	Message    string
	TargetType models.TargetType
	TargetID   uuid.UUID
}

// AdminNotice is a notification for the admin back-office. A nil AdminID means every admin.
type AdminNotice struct {
	AdminID    *uuid.UUID
	Type       string
	Title      string
	Message    string
	Severity   models.Severity
	TargetType models.TargetType
	TargetID   uuid.UUID
}

// NotificationService writes and reads the two notification contexts:
// owner-facing provider_notifications and admin-facing system_notifications.
type NotificationService struct {
	owners *database.ProviderNotificationRepository
	admins *database.SystemNotificationRepository
}

// NewNotificationService creates a new notification service
func NewNotificationService(owners *database.ProviderNotificationRepository, admins *database.SystemNotificationRepository) *NotificationService {
	return &NotificationService{owners: owners, admins: admins}
}

// NotifyOwner writes one owner notification
func (s *NotificationService) NotifyOwner(ctx context.Context, n OwnerNotice) error {
	targetType := n.TargetType
	targetID := n.TargetID
	row := &models.ProviderNotification{
		AccountID:         n.AccountID,
		Type:              n.Type,
		Title:             n.Title,
		Message:           n.Message,
		RelatedEntityType: &targetType,
		RelatedEntityID:   &targetID,
	}
	if err := s.owners.Create(ctx, row); err != nil {
		return fmt.Errorf("failed to notify owner %s: %w", n.AccountID, err)
	}
	return nil
}

// NotifyAdmins writes one admin notification
func (s *NotificationService) NotifyAdmins(ctx context.Context, n AdminNotice) error {
	targetType := n.TargetType
	targetID := n.TargetID
	row := &models.SystemNotification{
		AdminID:           n.AdminID,
		Type:              n.Type,
		Title:             n.Title,
		Message:           n.Message,
		Severity:          n.Severity,
		RelatedEntityType: &targetType,
		RelatedEntityID:   &targetID,
	}
	if err := s.admins.Create(ctx, row); err != nil {
		return fmt.Errorf("failed to notify admins: %w", err)
	}
	return nil
}

// ListForAdmin returns this admin's and global notifications
func (s *NotificationService) ListForAdmin(ctx context.Context, adminID uuid.UUID, limit int) ([]models.SystemNotification, error) {
	return s.admins.ListForAdmin(ctx, adminID, clampLimit(limit))
}

// MarkAdminRead marks one admin notification read
func (s *NotificationService) MarkAdminRead(ctx context.Context, id, adminID uuid.UUID) error {
	return s.admins.MarkRead(ctx, id, adminID)
}

// MarkAllAdminRead marks all of an admin's visible notifications read
func (s *NotificationService) MarkAllAdminRead(ctx context.Context, adminID uuid.UUID) (int64, error) {
	return s.admins.MarkAllRead(ctx, adminID)
}

// ListForOwner returns an owner's notifications
func (s *NotificationService) ListForOwner(ctx context.Context, accountID uuid.UUID, unreadOnly bool, limit int) ([]models.ProviderNotification, error) {
	return s.owners.ListForAccount(ctx, accountID, unreadOnly, clampLimit(limit))
}

// MarkOwnerRead marks one owner notification read
func (s *NotificationService) MarkOwnerRead(ctx context.Context, id, accountID uuid.UUID) error {
	return s.owners.MarkRead(ctx, id, accountID)
}

// MarkAllOwnerRead marks all of an owner's notifications read
func (s *NotificationService) MarkAllOwnerRead(ctx context.Context, accountID uuid.UUID) (int64, error) {
	return s.owners.MarkAllRead(ctx, accountID)
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 200 {
		return defaultNotificationLimit
	}
	return limit
}
