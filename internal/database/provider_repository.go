package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/estatehub/marketplace-backend/internal/models"
	"github.com/google/uuid"
)

const providerColumns = `
	p.id, p.account_id, p.business_name, p.business_email, p.business_phone, p.city,
	p.subscription_status, p.subscription_plan, p.subscription_expires_at,
	p.total_listings, p.total_views, p.total_inquiries,
	p.approved_at, p.approved_by, p.created_at, p.updated_at,
	a.email AS account_email, a.display_name, a.status AS account_status, a.rejection_reason`

const providerFrom = `providers p JOIN accounts a ON a.id = p.account_id`

// ProviderRepository handles database operations for the providers table
type ProviderRepository struct {
	db DB
}

// NewProviderRepository creates a new ProviderRepository
func NewProviderRepository(db DB) *ProviderRepository {
	return &ProviderRepository{db: db}
}

// Create inserts a provider profile for an account
func (r *ProviderRepository) Create(ctx context.Context, provider *models.Provider) error {
	if provider.ID == uuid.Nil {
		provider.ID = uuid.New()
	}
	if provider.SubscriptionStatus == "" {
		provider.SubscriptionStatus = models.SubscriptionInactive
	}
	now := time.Now()
	provider.CreatedAt = now
	provider.UpdatedAt = now

	query := `
		INSERT INTO providers (
			id, account_id, business_name, business_email, business_phone, city,
			subscription_status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		provider.ID, provider.AccountID, provider.BusinessName, provider.BusinessEmail,
		provider.BusinessPhone, provider.City, provider.SubscriptionStatus,
		provider.CreatedAt, provider.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}
	return nil
}

// GetByID retrieves a provider joined with its account
func (r *ProviderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ProviderWithAccount, error) {
	return r.getOne(ctx, "p.id = $1", id)
}

// GetByAccountID retrieves the provider profile owned by an account
func (r *ProviderRepository) GetByAccountID(ctx context.Context, accountID uuid.UUID) (*models.ProviderWithAccount, error) {
	return r.getOne(ctx, "p.account_id = $1", accountID)
}

func (r *ProviderRepository) getOne(ctx context.Context, where string, arg interface{}) (*models.ProviderWithAccount, error) {
	var provider models.ProviderWithAccount
	query := `SELECT ` + providerColumns + ` FROM ` + providerFrom + ` WHERE ` + where + ` AND a.deleted_at IS NULL`
	if err := r.db.GetContext(ctx, &provider, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get provider: %w", err)
	}
	return &provider, nil
}

// List returns a page of providers whose accounts are live
func (r *ProviderRepository) List(ctx context.Context, filter models.ProviderFilter) (models.Page[models.ProviderWithAccount], error) {
	filter.Normalize()

	q := From(providerFrom, providerColumns).
		IsNull("a.deleted_at").
		Search(filter.Search, "p.business_name", "p.business_email", "a.email")
	if filter.AccountStatus != "" {
		q.Eq("a.status", filter.AccountStatus)
	}
	if filter.SubscriptionStatus != "" {
		q.Eq("p.subscription_status", filter.SubscriptionStatus)
	}
	if filter.City != "" {
		q.IEq("p.city", filter.City)
	}

	var total int
	countSQL, countArgs := q.CountSQL()
	if err := r.db.GetContext(ctx, &total, countSQL, countArgs...); err != nil {
		return models.Page[models.ProviderWithAccount]{}, fmt.Errorf("failed to count providers: %w", err)
	}

	switch filter.SortBy {
	case models.SortPopularity:
		q.Order("p.total_views", filter.Ascending)
	default:
		q.Order("p.created_at", filter.Ascending)
	}
	q.Range(filter.Offset(), filter.Offset()+filter.PageSize-1)

	providers := []models.ProviderWithAccount{}
	listSQL, listArgs := q.ToSQL()
	if err := r.db.SelectContext(ctx, &providers, listSQL, listArgs...); err != nil {
		return models.Page[models.ProviderWithAccount]{}, fmt.Errorf("failed to list providers: %w", err)
	}

	return models.NewPage(providers, total, filter.Pagination), nil
}

// StampApproval records the approver on the provider row
func (r *ProviderRepository) StampApproval(ctx context.Context, id, adminID uuid.UUID) error {
	query := `UPDATE providers SET approved_at = NOW(), approved_by = $2, updated_at = NOW() WHERE id = $1`
	return execOne(ctx, r.db, "stamp provider approval", query, id, adminID)
}

// ClearApproval removes the approver stamp
func (r *ProviderRepository) ClearApproval(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE providers SET approved_at = NULL, approved_by = NULL, updated_at = NOW() WHERE id = $1`
	return execOne(ctx, r.db, "clear provider approval", query, id)
}

// UpdateSubscription sets a provider's plan and expiry
func (r *ProviderRepository) UpdateSubscription(ctx context.Context, id uuid.UUID, plan string, expiresAt time.Time) error {
	query := `
		UPDATE providers
		SET subscription_status = 'active', subscription_plan = $2, subscription_expires_at = $3, updated_at = NOW()
		WHERE id = $1
	`
	return execOne(ctx, r.db, "update subscription", query, id, plan, expiresAt)
}

// ExpireLapsedSubscriptions marks active subscriptions past their expiry as expired
// and returns the affected providers
func (r *ProviderRepository) ExpireLapsedSubscriptions(ctx context.Context, now time.Time) ([]models.Provider, error) {
	query := `
		UPDATE providers
		SET subscription_status = 'expired', updated_at = NOW()
		WHERE subscription_status = 'active' AND subscription_expires_at IS NOT NULL AND subscription_expires_at < $1
		RETURNING id, account_id, business_name, business_email, business_phone, city,
		          subscription_status, subscription_plan, subscription_expires_at,
		          total_listings, total_views, total_inquiries,
		          approved_at, approved_by, created_at, updated_at
	`
	providers := []models.Provider{}
	if err := r.db.SelectContext(ctx, &providers, query, now); err != nil {
		return nil, fmt.Errorf("failed to expire subscriptions: %w", err)
	}
	return providers, nil
}

// IncrementCounters adjusts the cumulative listing/view/inquiry counters
func (r *ProviderRepository) IncrementCounters(ctx context.Context, id uuid.UUID, listings, views, inquiries int) error {
	query := `
		UPDATE providers
		SET total_listings = total_listings + $2, total_views = total_views + $3,
		    total_inquiries = total_inquiries + $4, updated_at = NOW()
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id, listings, views, inquiries); err != nil {
		return fmt.Errorf("failed to update provider counters: %w", err)
	}
	return nil
}
