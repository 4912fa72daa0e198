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

const propertyColumns = `
	p.id, p.title, p.description, p.type, p.category, p.status, p.price, p.currency,
	p.provider_id, p.view_count, p.inquiry_count, p.is_featured,
	p.rejection_reason, p.rejected_at, p.rejected_by, p.approved_by, p.published_at,
	p.deleted_at, p.deletion_reason, p.created_at, p.updated_at`

const propertyFrom = `properties p
	LEFT JOIN property_locations l ON l.property_id = p.id
	LEFT JOIN property_features f ON f.property_id = p.id
	LEFT JOIN land_details ld ON ld.property_id = p.id
	LEFT JOIN commercial_details cd ON cd.property_id = p.id`

// PropertyRepository handles database operations for properties
type PropertyRepository struct {
	db DB
}

// NewPropertyRepository creates a new PropertyRepository
func NewPropertyRepository(db DB) *PropertyRepository {
	return &PropertyRepository{db: db}
}

// Create inserts the property row only; children are written separately
func (r *PropertyRepository) Create(ctx context.Context, property *models.Property) error {
	if property.ID == uuid.Nil {
		property.ID = uuid.New()
	}
	if property.Status == "" {
		property.Status = models.PropertyPending
	}
	if property.Currency == "" {
		property.Currency = "LKR"
	}
	now := time.Now()
	property.CreatedAt = now
	property.UpdatedAt = now
	if property.Status == models.PropertyPublished {
		property.PublishedAt = &now
	}

	query := `
		INSERT INTO properties (
			id, title, description, type, category, status, price, currency,
			provider_id, is_featured, published_at, approved_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := r.db.ExecContext(ctx, query,
		property.ID, property.Title, property.Description, property.Type, property.Category,
		property.Status, property.Price, property.Currency, property.ProviderID,
		property.IsFeatured, property.PublishedAt, property.ApprovedBy,
		property.CreatedAt, property.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create property: %w", err)
	}
	return nil
}

// Update changes the editable fields of a live property
func (r *PropertyRepository) Update(ctx context.Context, property *models.Property) error {
	query := `
		UPDATE properties
		SET title = $2, description = $3, category = $4, price = $5, currency = $6, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	return execOne(ctx, r.db, "update property", query,
		property.ID, property.Title, property.Description, property.Category, property.Price, property.Currency)
}

// GetByID retrieves a live property
func (r *PropertyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	var property models.Property
	query := `SELECT ` + propertyColumns + ` FROM properties p WHERE p.id = $1 AND p.deleted_at IS NULL`
	if err := r.db.GetContext(ctx, &property, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	return &property, nil
}

// List returns a page of live properties matching the filter
func (r *PropertyRepository) List(ctx context.Context, filter models.PropertyFilter) (models.Page[models.Property], error) {
	filter.Normalize()
	q := r.filtered(filter)

	var total int
	countSQL, countArgs := q.CountSQL()
	if err := r.db.GetContext(ctx, &total, countSQL, countArgs...); err != nil {
		return models.Page[models.Property]{}, fmt.Errorf("failed to count properties: %w", err)
	}

	switch filter.SortBy {
	case models.SortPrice:
		q.Order("p.price", filter.Ascending)
	case models.SortSize:
		q.Order("COALESCE(f.area_sqft, ld.area, cd.floor_area, 0)", filter.Ascending)
	case models.SortPopularity:
		q.Order("p.view_count", filter.Ascending)
	default:
		q.Order("p.created_at", filter.Ascending)
	}
	q.Range(filter.Offset(), filter.Offset()+filter.PageSize-1)

	properties := []models.Property{}
	listSQL, listArgs := q.ToSQL()
	if err := r.db.SelectContext(ctx, &properties, listSQL, listArgs...); err != nil {
		return models.Page[models.Property]{}, fmt.Errorf("failed to list properties: %w", err)
	}
	return models.NewPage(properties, total, filter.Pagination), nil
}

func (r *PropertyRepository) filtered(filter models.PropertyFilter) *Query {
	q := From(propertyFrom, propertyColumns).
		IsNull("p.deleted_at").
		Search(filter.Search, "p.title", "p.description").
		In("p.status", filter.Statuses)
	if filter.Type != "" {
		q.Eq("p.type", filter.Type)
	}
	if filter.Category != "" {
		q.Eq("p.category", filter.Category)
	}
	if filter.City != "" {
		q.IEq("l.city", filter.City)
	}
	if filter.Zoning != "" {
		q.Or(EqCond("ld.zoning", filter.Zoning), EqCond("cd.zoning", filter.Zoning))
	}
	if filter.ProviderID != "" {
		q.Eq("p.provider_id", filter.ProviderID)
	}
	if filter.Featured != nil {
		q.Eq("p.is_featured", *filter.Featured)
	}
	if filter.MinPrice != nil {
		q.Gte("p.price", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		q.Lte("p.price", *filter.MaxPrice)
	}
	if filter.MinArea != nil {
		q.Gte("COALESCE(f.area_sqft, ld.area, cd.floor_area)", *filter.MinArea)
	}
	if filter.MaxArea != nil {
		q.Lte("COALESCE(f.area_sqft, ld.area, cd.floor_area)", *filter.MaxArea)
	}
	if filter.MinRent != nil {
		q.Gte("cd.rent_per_area", *filter.MinRent)
	}
	if filter.MaxRent != nil {
		q.Lte("cd.rent_per_area", *filter.MaxRent)
	}
	if filter.MinBedrooms != nil {
		q.Gte("f.bedrooms", *filter.MinBedrooms)
	}
	if filter.CreatedFrom != nil {
		q.Gte("p.created_at", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		q.Lte("p.created_at", endOfDay(*filter.CreatedTo))
	}
	return q
}

// Approve publishes the property and clears every rejection field
func (r *PropertyRepository) Approve(ctx context.Context, id, adminID uuid.UUID) error {
	query := `
		UPDATE properties
		SET status = 'published', published_at = NOW(), approved_by = $2,
		    rejection_reason = NULL, rejected_at = NULL, rejected_by = NULL, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	return execOne(ctx, r.db, "approve property", query, id, adminID)
}

// Reject marks the property rejected and clears the publication fields
func (r *PropertyRepository) Reject(ctx context.Context, id, adminID uuid.UUID, reason string) error {
	query := `
		UPDATE properties
		SET status = 'rejected', rejected_at = NOW(), rejected_by = $2, rejection_reason = $3,
		    published_at = NULL, approved_by = NULL, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	return execOne(ctx, r.db, "reject property", query, id, adminID, reason)
}

// Resubmit returns a rejected or draft property to pending
func (r *PropertyRepository) Resubmit(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE properties
		SET status = 'pending', rejection_reason = NULL, rejected_at = NULL, rejected_by = NULL, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL AND status IN ('rejected', 'draft')
	`
	return execOne(ctx, r.db, "resubmit property", query, id)
}

// SoftDelete stamps deleted_at; the row is kept
func (r *PropertyRepository) SoftDelete(ctx context.Context, id uuid.UUID, reason *string) error {
	query := `
		UPDATE properties
		SET deleted_at = NOW(), deletion_reason = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	return execOne(ctx, r.db, "delete property", query, id, reason)
}

// SetFeatured toggles the featured flag
func (r *PropertyRepository) SetFeatured(ctx context.Context, id uuid.UUID, featured bool) error {
	query := `UPDATE properties SET is_featured = $2, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	return execOne(ctx, r.db, "update featured flag", query, id, featured)
}

// SetStatus sets a sales status (sold or rented) on a published property
func (r *PropertyRepository) SetStatus(ctx context.Context, id uuid.UUID, status models.PropertyStatus) error {
	query := `
		UPDATE properties
		SET status = $2, published_at = NULL, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL AND status = 'published'
	`
	return execOne(ctx, r.db, "update property status", query, id, status)
}

// ListPublished returns every live published property, used to rebuild the search index
func (r *PropertyRepository) ListPublished(ctx context.Context) ([]models.Property, error) {
	properties := []models.Property{}
	query := `SELECT ` + propertyColumns + ` FROM properties p WHERE p.deleted_at IS NULL AND p.status = 'published' ORDER BY p.published_at DESC`
	if err := r.db.SelectContext(ctx, &properties, query); err != nil {
		return nil, fmt.Errorf("failed to list published properties: %w", err)
	}
	return properties, nil
}

// GetManyByIDs returns live properties by id, in no particular order
func (r *PropertyRepository) GetManyByIDs(ctx context.Context, ids []string) ([]models.Property, error) {
	properties := []models.Property{}
	if len(ids) == 0 {
		return properties, nil
	}
	query, args := From("properties p", propertyColumns).
		IsNull("p.deleted_at").
		In("p.id::text", ids).
		ToSQL()
	if err := r.db.SelectContext(ctx, &properties, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get properties: %w", err)
	}
	return properties, nil
}
