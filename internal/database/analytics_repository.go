package database

import (
	"context"
	"fmt"
	"time"

	"github.com/estatehub/marketplace-backend/internal/models"
	"github.com/google/uuid"
)

// AnalyticsRepository fetches the raw snapshots that analytics aggregates in memory
type AnalyticsRepository struct {
	db DB
}

// NewAnalyticsRepository creates a new AnalyticsRepository
func NewAnalyticsRepository(db DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// AccountSnapshots returns every live account
func (r *AnalyticsRepository) AccountSnapshots(ctx context.Context) ([]models.AccountSnapshot, error) {
	rows := []models.AccountSnapshot{}
	query := `SELECT role, status, created_at FROM accounts WHERE deleted_at IS NULL`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to fetch account snapshot: %w", err)
	}
	return rows, nil
}

// ProviderSnapshots returns every provider with a live account
func (r *AnalyticsRepository) ProviderSnapshots(ctx context.Context) ([]models.ProviderSnapshot, error) {
	rows := []models.ProviderSnapshot{}
	query := `
		SELECT a.status AS account_status, p.subscription_status, p.created_at
		FROM providers p JOIN accounts a ON a.id = p.account_id
		WHERE a.deleted_at IS NULL
	`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to fetch provider snapshot: %w", err)
	}
	return rows, nil
}

// PropertySnapshots returns every live property, optionally for one provider
func (r *AnalyticsRepository) PropertySnapshots(ctx context.Context, providerID *uuid.UUID) ([]models.PropertySnapshot, error) {
	q := From("properties", "id, type, category, status, is_featured, provider_id, created_at").IsNull("deleted_at")
	if providerID != nil {
		q.Eq("provider_id", *providerID)
	}
	rows := []models.PropertySnapshot{}
	query, args := q.ToSQL()
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch property snapshot: %w", err)
	}
	return rows, nil
}

// ViewsSince returns view timestamps since a cutoff, optionally for one provider
func (r *AnalyticsRepository) ViewsSince(ctx context.Context, since time.Time, providerID *uuid.UUID) ([]models.EventSnapshot, error) {
	return r.eventsSince(ctx, "property_views", since, providerID)
}

// InquiriesSince returns inquiry timestamps since a cutoff, optionally for one provider
func (r *AnalyticsRepository) InquiriesSince(ctx context.Context, since time.Time, providerID *uuid.UUID) ([]models.EventSnapshot, error) {
	return r.eventsSince(ctx, "property_inquiries", since, providerID)
}

func (r *AnalyticsRepository) eventsSince(ctx context.Context, table string, since time.Time, providerID *uuid.UUID) ([]models.EventSnapshot, error) {
	q := From(table+" e JOIN properties p ON p.id = e.property_id", "e.created_at").
		IsNull("p.deleted_at").
		Gte("e.created_at", since)
	if providerID != nil {
		q.Eq("p.provider_id", *providerID)
	}
	rows := []models.EventSnapshot{}
	query, args := q.ToSQL()
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch %s snapshot: %w", table, err)
	}
	return rows, nil
}

// ActivitiesSince returns admin activity timestamps since a cutoff
func (r *AnalyticsRepository) ActivitiesSince(ctx context.Context, since time.Time) ([]models.EventSnapshot, error) {
	rows := []models.EventSnapshot{}
	query := `SELECT created_at FROM admin_activity_logs WHERE created_at >= $1`
	if err := r.db.SelectContext(ctx, &rows, query, since); err != nil {
		return nil, fmt.Errorf("failed to fetch activity snapshot: %w", err)
	}
	return rows, nil
}

// EngagementTotals returns the all-time view and inquiry counters of live properties
func (r *AnalyticsRepository) EngagementTotals(ctx context.Context) (views, inquiries int, err error) {
	var totals struct {
		Views     int `db:"views"`
		Inquiries int `db:"inquiries"`
	}
	query := `
		SELECT COALESCE(SUM(view_count), 0) AS views, COALESCE(SUM(inquiry_count), 0) AS inquiries
		FROM properties WHERE deleted_at IS NULL
	`
	if err := r.db.GetContext(ctx, &totals, query); err != nil {
		return 0, 0, fmt.Errorf("failed to fetch engagement totals: %w", err)
	}
	return totals.Views, totals.Inquiries, nil
}

// TopViewed returns the most viewed live properties
func (r *AnalyticsRepository) TopViewed(ctx context.Context, limit int) ([]models.PropertyRank, error) {
	rows := []models.PropertyRank{}
	query := `
		SELECT id, title, view_count, inquiry_count
		FROM properties
		WHERE deleted_at IS NULL AND status = 'published'
		ORDER BY view_count DESC
		LIMIT $1
	`
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to fetch top viewed properties: %w", err)
	}
	return rows, nil
}
