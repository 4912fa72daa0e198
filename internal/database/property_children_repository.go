package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/estatehub/marketplace-backend/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PropertyChildRepository handles the 1:1 and 1:N tables hanging off properties
type PropertyChildRepository struct {
	db DB
}

// NewPropertyChildRepository creates a new PropertyChildRepository
func NewPropertyChildRepository(db DB) *PropertyChildRepository {
	return &PropertyChildRepository{db: db}
}

// UpsertLocation writes the property's location
func (r *PropertyChildRepository) UpsertLocation(ctx context.Context, loc *models.PropertyLocation) error {
	query := `
		INSERT INTO property_locations (property_id, address, city, district, postal_code, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (property_id) DO UPDATE SET
			address = EXCLUDED.address, city = EXCLUDED.city, district = EXCLUDED.district,
			postal_code = EXCLUDED.postal_code, latitude = EXCLUDED.latitude, longitude = EXCLUDED.longitude
	`
	_, err := r.db.ExecContext(ctx, query,
		loc.PropertyID, loc.Address, loc.City, loc.District, loc.PostalCode, loc.Latitude, loc.Longitude)
	if err != nil {
		return fmt.Errorf("failed to save property location: %w", err)
	}
	return nil
}

// UpsertFeatures writes the property's feature sheet
func (r *PropertyChildRepository) UpsertFeatures(ctx context.Context, f *models.PropertyFeatures) error {
	query := `
		INSERT INTO property_features (property_id, bedrooms, bathrooms, area_sqft, floors, parking_spaces, year_built, furnished)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (property_id) DO UPDATE SET
			bedrooms = EXCLUDED.bedrooms, bathrooms = EXCLUDED.bathrooms, area_sqft = EXCLUDED.area_sqft,
			floors = EXCLUDED.floors, parking_spaces = EXCLUDED.parking_spaces,
			year_built = EXCLUDED.year_built, furnished = EXCLUDED.furnished
	`
	_, err := r.db.ExecContext(ctx, query,
		f.PropertyID, f.Bedrooms, f.Bathrooms, f.AreaSqft, f.Floors, f.ParkingSpaces, f.YearBuilt, f.Furnished)
	if err != nil {
		return fmt.Errorf("failed to save property features: %w", err)
	}
	return nil
}

// ReplaceAmenities replaces the amenity list of a property
func (r *PropertyChildRepository) ReplaceAmenities(ctx context.Context, propertyID uuid.UUID, amenities []string) error {
	return r.replaceTags(ctx, "property_amenities", "amenity", propertyID, amenities)
}

// ReplaceUtilities replaces the utility list of a property
func (r *PropertyChildRepository) ReplaceUtilities(ctx context.Context, propertyID uuid.UUID, utilities []string) error {
	return r.replaceTags(ctx, "property_utilities", "utility", propertyID, utilities)
}

func (r *PropertyChildRepository) replaceTags(ctx context.Context, table, column string, propertyID uuid.UUID, values []string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE property_id = $1`, propertyID); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}
	if len(values) == 0 {
		return nil
	}
	query := `INSERT INTO ` + table + ` (property_id, ` + column + `) SELECT $1, unnest($2::text[])`
	if _, err := r.db.ExecContext(ctx, query, propertyID, pq.Array(values)); err != nil {
		return fmt.Errorf("failed to save %s: %w", table, err)
	}
	return nil
}

// UpsertLandDetails writes the land side-table
func (r *PropertyChildRepository) UpsertLandDetails(ctx context.Context, d *models.LandDetails) error {
	query := `
		INSERT INTO land_details (property_id, area, area_unit, zoning, soil_type, road_access)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (property_id) DO UPDATE SET
			area = EXCLUDED.area, area_unit = EXCLUDED.area_unit, zoning = EXCLUDED.zoning,
			soil_type = EXCLUDED.soil_type, road_access = EXCLUDED.road_access
	`
	_, err := r.db.ExecContext(ctx, query, d.PropertyID, d.Area, d.AreaUnit, d.Zoning, d.SoilType, d.RoadAccess)
	if err != nil {
		return fmt.Errorf("failed to save land details: %w", err)
	}
	return nil
}

// UpsertCommercialDetails writes the commercial side-table
func (r *PropertyChildRepository) UpsertCommercialDetails(ctx context.Context, d *models.CommercialDetails) error {
	query := `
		INSERT INTO commercial_details (property_id, floor_area, rent_per_area, zoning, business_type, parking_spaces)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (property_id) DO UPDATE SET
			floor_area = EXCLUDED.floor_area, rent_per_area = EXCLUDED.rent_per_area, zoning = EXCLUDED.zoning,
			business_type = EXCLUDED.business_type, parking_spaces = EXCLUDED.parking_spaces
	`
	_, err := r.db.ExecContext(ctx, query, d.PropertyID, d.FloorArea, d.RentPerArea, d.Zoning, d.BusinessType, d.ParkingSpaces)
	if err != nil {
		return fmt.Errorf("failed to save commercial details: %w", err)
	}
	return nil
}

// AddImage inserts an image record. The first image of a property becomes primary.
func (r *PropertyChildRepository) AddImage(ctx context.Context, img *models.PropertyImage) error {
	if img.ID == uuid.Nil {
		img.ID = uuid.New()
	}
	img.CreatedAt = time.Now()

	query := `
		INSERT INTO property_images (id, property_id, url, storage_path, is_primary, sort_order, created_at)
		VALUES (
			$1, $2, $3, $4,
			NOT EXISTS (SELECT 1 FROM property_images WHERE property_id = $2),
			COALESCE((SELECT MAX(sort_order) + 1 FROM property_images WHERE property_id = $2), 0),
			$5
		)
		RETURNING is_primary, sort_order
	`
	row := r.db.QueryRowContext(ctx, query, img.ID, img.PropertyID, img.URL, img.StoragePath, img.CreatedAt)
	if err := row.Scan(&img.IsPrimary, &img.SortOrder); err != nil {
		return fmt.Errorf("failed to save property image: %w", err)
	}
	return nil
}

// GetImage retrieves an image by id
func (r *PropertyChildRepository) GetImage(ctx context.Context, id uuid.UUID) (*models.PropertyImage, error) {
	var img models.PropertyImage
	query := `SELECT id, property_id, url, storage_path, is_primary, sort_order, created_at FROM property_images WHERE id = $1`
	if err := r.db.GetContext(ctx, &img, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get property image: %w", err)
	}
	return &img, nil
}

// DeleteImage removes an image record
func (r *PropertyChildRepository) DeleteImage(ctx context.Context, id uuid.UUID) error {
	return execOne(ctx, r.db, "delete property image", `DELETE FROM property_images WHERE id = $1`, id)
}

// SetPrimaryImage makes one image primary and demotes the rest
func (r *PropertyChildRepository) SetPrimaryImage(ctx context.Context, propertyID, imageID uuid.UUID) error {
	query := `UPDATE property_images SET is_primary = (id = $2) WHERE property_id = $1`
	if _, err := r.db.ExecContext(ctx, query, propertyID, imageID); err != nil {
		return fmt.Errorf("failed to set primary image: %w", err)
	}
	return nil
}

// AddDocument inserts a land document record
func (r *PropertyChildRepository) AddDocument(ctx context.Context, doc *models.LandDocument) error {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	doc.CreatedAt = time.Now()
	query := `
		INSERT INTO land_documents (id, property_id, name, url, storage_path, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query, doc.ID, doc.PropertyID, doc.Name, doc.URL, doc.StoragePath, doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save land document: %w", err)
	}
	return nil
}

// GetDetail loads a live property together with every child record
func (r *PropertyChildRepository) GetDetail(ctx context.Context, property *models.Property) (*models.PropertyDetail, error) {
	detail := &models.PropertyDetail{Property: *property}
	id := property.ID

	var loc models.PropertyLocation
	err := r.db.GetContext(ctx, &loc, `
		SELECT property_id, address, city, district, postal_code, latitude, longitude
		FROM property_locations WHERE property_id = $1`, id)
	if err == nil {
		detail.Location = &loc
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to load property location: %w", err)
	}

	var features models.PropertyFeatures
	err = r.db.GetContext(ctx, &features, `
		SELECT property_id, bedrooms, bathrooms, area_sqft, floors, parking_spaces, year_built, furnished
		FROM property_features WHERE property_id = $1`, id)
	if err == nil {
		detail.Features = &features
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to load property features: %w", err)
	}

	detail.Amenities = []string{}
	if err := r.db.SelectContext(ctx, &detail.Amenities,
		`SELECT amenity FROM property_amenities WHERE property_id = $1 ORDER BY amenity`, id); err != nil {
		return nil, fmt.Errorf("failed to load amenities: %w", err)
	}

	detail.Utilities = []string{}
	if err := r.db.SelectContext(ctx, &detail.Utilities,
		`SELECT utility FROM property_utilities WHERE property_id = $1 ORDER BY utility`, id); err != nil {
		return nil, fmt.Errorf("failed to load utilities: %w", err)
	}

	detail.Images = []models.PropertyImage{}
	if err := r.db.SelectContext(ctx, &detail.Images, `
		SELECT id, property_id, url, storage_path, is_primary, sort_order, created_at
		FROM property_images WHERE property_id = $1 ORDER BY is_primary DESC, sort_order`, id); err != nil {
		return nil, fmt.Errorf("failed to load images: %w", err)
	}

	switch property.Type {
	case models.PropertyLand:
		var land models.LandDetails
		err = r.db.GetContext(ctx, &land, `
			SELECT property_id, area, area_unit, zoning, soil_type, road_access
			FROM land_details WHERE property_id = $1`, id)
		if err == nil {
			detail.Land = &land
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to load land details: %w", err)
		}

		detail.Documents = []models.LandDocument{}
		if err := r.db.SelectContext(ctx, &detail.Documents, `
			SELECT id, property_id, name, url, storage_path, created_at
			FROM land_documents WHERE property_id = $1 ORDER BY created_at`, id); err != nil {
			return nil, fmt.Errorf("failed to load land documents: %w", err)
		}
	case models.PropertyCommercial:
		var commercial models.CommercialDetails
		err = r.db.GetContext(ctx, &commercial, `
			SELECT property_id, floor_area, rent_per_area, zoning, business_type, parking_spaces
			FROM commercial_details WHERE property_id = $1`, id)
		if err == nil {
			detail.Commercial = &commercial
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to load commercial details: %w", err)
		}
	}

	return detail, nil
}
