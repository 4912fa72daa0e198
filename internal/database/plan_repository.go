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

const planColumns = `
	id, provider_id, title, description, category, status, bedrooms, bathrooms, area, price,
	features, view_count, download_count, purchase_count,
	approved_at, approved_by, rejected_at, rejected_by, rejection_reason,
	deleted_at, created_at, updated_at`

// PlanRepository handles database operations for architectural_plans
type PlanRepository struct {
	db DB
}

// NewPlanRepository creates a new PlanRepository
func NewPlanRepository(db DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// Create inserts a plan
func (r *PlanRepository) Create(ctx context.Context, plan *models.ArchitecturalPlan) error {
	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}
	if plan.Status == "" {
		plan.Status = models.PlanPending
	}
	now := time.Now()
	plan.CreatedAt = now
	plan.UpdatedAt = now

	query := `
		INSERT INTO architectural_plans (
			id, provider_id, title, description, category, status,
			bedrooms, bathrooms, area, price, features, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.db.ExecContext(ctx, query,
		plan.ID, plan.ProviderID, plan.Title, plan.Description, plan.Category, plan.Status,
		plan.Bedrooms, plan.Bathrooms, plan.Area, plan.Price, plan.Features,
		plan.CreatedAt, plan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}
	return nil
}

// Update changes the editable fields of a plan
func (r *PlanRepository) Update(ctx context.Context, plan *models.ArchitecturalPlan) error {
	query := `
		UPDATE architectural_plans
		SET title = $2, description = $3, category = $4, bedrooms = $5, bathrooms = $6,
		    area = $7, price = $8, features = $9, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	return execOne(ctx, r.db, "update plan", query,
		plan.ID, plan.Title, plan.Description, plan.Category, plan.Bedrooms, plan.Bathrooms,
		plan.Area, plan.Price, plan.Features)
}

// GetByID retrieves a live plan
func (r *PlanRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ArchitecturalPlan, error) {
	var plan models.ArchitecturalPlan
	query := `SELECT ` + planColumns + ` FROM architectural_plans WHERE id = $1 AND deleted_at IS NULL`
	if err := r.db.GetContext(ctx, &plan, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return &plan, nil
}

// List returns a page of live plans
func (r *PlanRepository) List(ctx context.Context, filter models.PlanFilter) (models.Page[models.ArchitecturalPlan], error) {
	filter.Normalize()

	q := From("architectural_plans", planColumns).
		IsNull("deleted_at").
		Search(filter.Search, "title", "description")
	if filter.Status != "" {
		q.Eq("status", filter.Status)
	}
	if filter.Category != "" {
		q.Eq("category", filter.Category)
	}
	if filter.ProviderID != "" {
		q.Eq("provider_id", filter.ProviderID)
	}
	if filter.MinPrice != nil {
		q.Gte("price", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		q.Lte("price", *filter.MaxPrice)
	}
	if filter.MinBedrooms != nil {
		q.Gte("bedrooms", *filter.MinBedrooms)
	}

	var total int
	countSQL, countArgs := q.CountSQL()
	if err := r.db.GetContext(ctx, &total, countSQL, countArgs...); err != nil {
		return models.Page[models.ArchitecturalPlan]{}, fmt.Errorf("failed to count plans: %w", err)
	}

	switch filter.SortBy {
	case models.SortPrice:
		q.Order("price", filter.Ascending)
	case models.SortSize:
		q.Order("area", filter.Ascending)
	case models.SortPopularity:
		q.Order("view_count", filter.Ascending)
	default:
		q.Order("created_at", filter.Ascending)
	}
	q.Range(filter.Offset(), filter.Offset()+filter.PageSize-1)

	plans := []models.ArchitecturalPlan{}
	listSQL, listArgs := q.ToSQL()
	if err := r.db.SelectContext(ctx, &plans, listSQL, listArgs...); err != nil {
		return models.Page[models.ArchitecturalPlan]{}, fmt.Errorf("failed to list plans: %w", err)
	}
	return models.NewPage(plans, total, filter.Pagination), nil
}

// Approve publishes the plan and clears every rejection field
func (r *PlanRepository) Approve(ctx context.Context, id, adminID uuid.UUID) error {
	query := `
		UPDATE architectural_plans
		SET status = 'published', approved_at = NOW(), approved_by = $2,
		    rejection_reason = NULL, rejected_at = NULL, rejected_by = NULL, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	return execOne(ctx, r.db, "approve plan", query, id, adminID)
}

// Reject marks the plan rejected and clears the approval fields
func (r *PlanRepository) Reject(ctx context.Context, id, adminID uuid.UUID, reason string) error {
	query := `
		UPDATE architectural_plans
		SET status = 'rejected', rejected_at = NOW(), rejected_by = $2, rejection_reason = $3,
		    approved_at = NULL, approved_by = NULL, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	return execOne(ctx, r.db, "reject plan", query, id, adminID, reason)
}

// Archive takes a plan out of the catalogue without deleting it
func (r *PlanRepository) Archive(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE architectural_plans SET status = 'archived', updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	return execOne(ctx, r.db, "archive plan", query, id)
}

// Resubmit returns a rejected or draft plan to pending
func (r *PlanRepository) Resubmit(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE architectural_plans
		SET status = 'pending', rejection_reason = NULL, rejected_at = NULL, rejected_by = NULL, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL AND status IN ('rejected', 'draft')
	`
	return execOne(ctx, r.db, "resubmit plan", query, id)
}

// SoftDelete stamps deleted_at
func (r *PlanRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE architectural_plans SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	return execOne(ctx, r.db, "delete plan", query, id)
}

// IncrementViews bumps the view counter of a plan
func (r *PlanRepository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE architectural_plans SET view_count = view_count + 1 WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to bump plan views: %w", err)
	}
	return nil
}
