package models

import (
	"time"

	"github.com/google/uuid"
)

// PropertyType distinguishes the listing specialisations
type PropertyType string

const (
	PropertyResidential PropertyType = "residential"
	PropertyLand        PropertyType = "land"
	PropertyCommercial  PropertyType = "commercial"
)

// Valid reports whether t is a known property type
func (t PropertyType) Valid() bool {
	switch t {
	case PropertyResidential, PropertyLand, PropertyCommercial:
		return true
	}
	return false
}

// PropertyStatus is the moderation/sales state of a listing
type PropertyStatus string

const (
	PropertyDraft     PropertyStatus = "draft"
	PropertyPending   PropertyStatus = "pending"
	PropertyPublished PropertyStatus = "published"
	PropertyRejected  PropertyStatus = "rejected"
	PropertySold      PropertyStatus = "sold"
	PropertyRented    PropertyStatus = "rented"
)

// Property is a listing row. ProviderID is nil for admin-authored listings.
type Property struct {
	ID              uuid.UUID      `json:"id" db:"id"`
	Title           string         `json:"title" db:"title"`
	Description     string         `json:"description" db:"description"`
	Type            PropertyType   `json:"type" db:"type"`
	Category        string         `json:"category" db:"category"`
	Status          PropertyStatus `json:"status" db:"status"`
	Price           float64        `json:"price" db:"price"`
	Currency        string         `json:"currency" db:"currency"`
	ProviderID      *uuid.UUID     `json:"provider_id,omitempty" db:"provider_id"`
	ViewCount       int            `json:"view_count" db:"view_count"`
	InquiryCount    int            `json:"inquiry_count" db:"inquiry_count"`
	IsFeatured      bool           `json:"is_featured" db:"is_featured"`
	RejectionReason *string        `json:"rejection_reason,omitempty" db:"rejection_reason"`
	RejectedAt      *time.Time     `json:"rejected_at,omitempty" db:"rejected_at"`
	RejectedBy      *uuid.UUID     `json:"rejected_by,omitempty" db:"rejected_by"`
	ApprovedBy      *uuid.UUID     `json:"approved_by,omitempty" db:"approved_by"`
	PublishedAt     *time.Time     `json:"published_at,omitempty" db:"published_at"`
	DeletedAt       *time.Time     `json:"deleted_at,omitempty" db:"deleted_at"`
	DeletionReason  *string        `json:"deletion_reason,omitempty" db:"deletion_reason"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at" db:"updated_at"`
}

// IsLive reports whether the listing is publicly visible
func (p *Property) IsLive() bool {
	return p.Status == PropertyPublished && p.DeletedAt == nil
}

// PropertyLocation is the 1:1 address of a property
type PropertyLocation struct {
	PropertyID uuid.UUID `json:"property_id" db:"property_id"`
	Address    string    `json:"address" db:"address" validate:"required"`
	City       string    `json:"city" db:"city" validate:"required"`
	District   *string   `json:"district,omitempty" db:"district"`
	PostalCode *string   `json:"postal_code,omitempty" db:"postal_code"`
	Latitude   *float64  `json:"latitude,omitempty" db:"latitude" validate:"omitempty,latitude"`
	Longitude  *float64  `json:"longitude,omitempty" db:"longitude" validate:"omitempty,longitude"`
}

// PropertyFeatures is the 1:1 feature sheet of a property
type PropertyFeatures struct {
	PropertyID    uuid.UUID `json:"property_id" db:"property_id"`
	Bedrooms      *int      `json:"bedrooms,omitempty" db:"bedrooms" validate:"omitempty,min=0"`
	Bathrooms     *int      `json:"bathrooms,omitempty" db:"bathrooms" validate:"omitempty,min=0"`
	AreaSqft      *float64  `json:"area_sqft,omitempty" db:"area_sqft" validate:"omitempty,gt=0"`
	Floors        *int      `json:"floors,omitempty" db:"floors"`
	ParkingSpaces *int      `json:"parking_spaces,omitempty" db:"parking_spaces"`
	YearBuilt     *int      `json:"year_built,omitempty" db:"year_built"`
	Furnished     bool      `json:"furnished" db:"furnished"`
}

// PropertyImage is an uploaded listing photo
type PropertyImage struct {
	ID          uuid.UUID `json:"id" db:"id"`
	PropertyID  uuid.UUID `json:"property_id" db:"property_id"`
	URL         string    `json:"url" db:"url"`
	StoragePath string    `json:"-" db:"storage_path"`
	IsPrimary   bool      `json:"is_primary" db:"is_primary"`
	SortOrder   int       `json:"sort_order" db:"sort_order"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// LandDetails is the land specialisation side-table
type LandDetails struct {
	PropertyID uuid.UUID `json:"property_id" db:"property_id"`
	Area       float64   `json:"area" db:"area" validate:"gt=0"`
	AreaUnit   string    `json:"area_unit" db:"area_unit" validate:"required,oneof=sqft sqm perch acre hectare"`
	Zoning     string    `json:"zoning" db:"zoning" validate:"required"`
	SoilType   *string   `json:"soil_type,omitempty" db:"soil_type"`
	RoadAccess bool      `json:"road_access" db:"road_access"`
}

// CommercialDetails is the commercial specialisation side-table
type CommercialDetails struct {
	PropertyID    uuid.UUID `json:"property_id" db:"property_id"`
	FloorArea     float64   `json:"floor_area" db:"floor_area" validate:"gt=0"`
	RentPerArea   *float64  `json:"rent_per_area,omitempty" db:"rent_per_area" validate:"omitempty,gte=0"`
	Zoning        *string   `json:"zoning,omitempty" db:"zoning"`
	BusinessType  *string   `json:"business_type,omitempty" db:"business_type"`
	ParkingSpaces *int      `json:"parking_spaces,omitempty" db:"parking_spaces"`
}

// LandDocument is an uploaded deed/survey file attached to a land listing
type LandDocument struct {
	ID          uuid.UUID `json:"id" db:"id"`
	PropertyID  uuid.UUID `json:"property_id" db:"property_id"`
	Name        string    `json:"name" db:"name"`
	URL         string    `json:"url" db:"url"`
	StoragePath string    `json:"-" db:"storage_path"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// PropertyDetail is a property with all of its child records
type PropertyDetail struct {
	Property
	Location   *PropertyLocation  `json:"location,omitempty"`
	Features   *PropertyFeatures  `json:"features,omitempty"`
	Amenities  []string           `json:"amenities"`
	Utilities  []string           `json:"utilities"`
	Images     []PropertyImage    `json:"images"`
	Land       *LandDetails       `json:"land,omitempty"`
	Commercial *CommercialDetails `json:"commercial,omitempty"`
	Documents  []LandDocument     `json:"documents,omitempty"`
}

// PropertyInquiry is a buyer/tenant message about a listing
type PropertyInquiry struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	PropertyID uuid.UUID  `json:"property_id" db:"property_id"`
	AccountID  *uuid.UUID `json:"account_id,omitempty" db:"account_id"`
	Name       string     `json:"name" db:"name"`
	Email      string     `json:"email" db:"email"`
	Phone      *string    `json:"phone,omitempty" db:"phone"`
	Message    string     `json:"message" db:"message"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}
