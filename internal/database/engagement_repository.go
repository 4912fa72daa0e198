package database

import (
	"context"
	"fmt"
	"time"

	"github.com/estatehub/marketplace-backend/internal/models"
	"github.com/google/uuid"
)

// EngagementRepository records property views and inquiries
type EngagementRepository struct {
	db DB
}

// NewEngagementRepository creates a new EngagementRepository
func NewEngagementRepository(db DB) *EngagementRepository {
	return &EngagementRepository{db: db}
}

// RecordView inserts a view row and bumps the property counter
func (r *EngagementRepository) RecordView(ctx context.Context, propertyID uuid.UUID, viewerID *uuid.UUID, ipAddress string) error {
	query := `INSERT INTO property_views (id, property_id, viewer_id, ip_address, created_at) VALUES ($1, $2, $3, $4, NOW())`
	if _, err := r.db.ExecContext(ctx, query, uuid.New(), propertyID, viewerID, ipAddress); err != nil {
		return fmt.Errorf("failed to record property view: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `UPDATE properties SET view_count = view_count + 1 WHERE id = $1`, propertyID); err != nil {
		return fmt.Errorf("failed to bump view count: %w", err)
	}
	return nil
}

// CreateInquiry inserts an inquiry row and bumps the property counter
func (r *EngagementRepository) CreateInquiry(ctx context.Context, inquiry *models.PropertyInquiry) error {
	if inquiry.ID == uuid.Nil {
		inquiry.ID = uuid.New()
	}
	inquiry.CreatedAt = time.Now()

	query := `
		INSERT INTO property_inquiries (id, property_id, account_id, name, email, phone, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		inquiry.ID, inquiry.PropertyID, inquiry.AccountID, inquiry.Name, inquiry.Email,
		inquiry.Phone, inquiry.Message, inquiry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create inquiry: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `UPDATE properties SET inquiry_count = inquiry_count + 1 WHERE id = $1`, inquiry.PropertyID); err != nil {
		return fmt.Errorf("failed to bump inquiry count: %w", err)
	}
	return nil
}

// ListInquiriesForProvider returns the newest inquiries on a provider's listings
func (r *EngagementRepository) ListInquiriesForProvider(ctx context.Context, providerID uuid.UUID, limit int) ([]models.PropertyInquiry, error) {
	inquiries := []models.PropertyInquiry{}
	query := `
		SELECT i.id, i.property_id, i.account_id, i.name, i.email, i.phone, i.message, i.created_at
		FROM property_inquiries i
		JOIN properties p ON p.id = i.property_id
		WHERE p.provider_id = $1 AND p.deleted_at IS NULL
		ORDER BY i.created_at DESC
		LIMIT $2
	`
	if err := r.db.SelectContext(ctx, &inquiries, query, providerID, limit); err != nil {
		return nil, fmt.Errorf("failed to list inquiries: %w", err)
	}
	return inquiries, nil
}
