package services

import (
	"context"
	"fmt"

	"github.com/estatehub/marketplace-backend/internal/database"
	"github.com/estatehub/marketplace-backend/internal/models"
	"github.com/estatehub/marketplace-backend/internal/utils"
	"github.com/google/uuid"
)

// Actor identifies who performs an action and from where
type Actor struct {
	ID        uuid.UUID
	IPAddress string
	UserAgent string
}

// AuditService records admin moderation actions in admin_activity_logs
type AuditService struct {
	repo *database.ActivityLogRepository
}

// NewAuditService creates a new audit service
func NewAuditService(repo *database.ActivityLogRepository) *AuditService {
	return &AuditService{repo: repo}
}

// AuditEvent is one admin action to be logged
type AuditEvent struct {
	Action      models.ActivityAction
	TargetType  models.TargetType
	TargetID    uuid.UUID
	TargetEmail *string
	Details     map[string]interface{}
}

// LogAdminAction appends an activity row. The admin's client is recorded
// under details.device and details.ip_address.
func (s *AuditService) LogAdminAction(ctx context.Context, actor Actor, event AuditEvent) error {
	details := models.JSONB{}
	for k, v := range event.Details {
		details[k] = v
	}
	if actor.UserAgent != "" {
		details["device"] = utils.ParseUserAgent(actor.UserAgent)
	}
	if actor.IPAddress != "" {
		details["ip_address"] = actor.IPAddress
	}

	entry := &models.ActivityLog{
		AdminID:     actor.ID,
		Action:      event.Action,
		TargetType:  event.TargetType,
		TargetID:    event.TargetID,
		TargetEmail: event.TargetEmail,
		Details:     details,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return fmt.Errorf("failed to log %s on %s %s: %w", event.Action, event.TargetType, event.TargetID, err)
	}
	return nil
}

// History returns every logged action on one entity, newest first
func (s *AuditService) History(ctx context.Context, targetType models.TargetType, targetID uuid.UUID) ([]models.ActivityLog, error) {
	return s.repo.ListByTarget(ctx, targetType, targetID)
}
