package models

// PropertyRequest creates or edits a listing with its child records
type PropertyRequest struct {
	Title       string             `json:"title" validate:"required,min=5,max=200"`
	Description string             `json:"description" validate:"required,min=20"`
	Type        PropertyType       `json:"type" validate:"required,oneof=residential land commercial"`
	Category    string             `json:"category" validate:"required,max=50"`
	Price       float64            `json:"price" validate:"gt=0"`
	Currency    string             `json:"currency" validate:"omitempty,len=3"`
	Submit      bool               `json:"submit"`
	Location    *PropertyLocation  `json:"location" validate:"required"`
	Features    *PropertyFeatures  `json:"features" validate:"omitempty"`
	Amenities   []string           `json:"amenities" validate:"omitempty,dive,min=1,max=50"`
	Utilities   []string           `json:"utilities" validate:"omitempty,dive,min=1,max=50"`
	Land        *LandDetails       `json:"land" validate:"required_if=Type land"`
	Commercial  *CommercialDetails `json:"commercial" validate:"required_if=Type commercial"`
}

// PlanRequest creates or edits an architectural plan
type PlanRequest struct {
	Title       string   `json:"title" validate:"required,min=5,max=200"`
	Description string   `json:"description" validate:"required"`
	Category    string   `json:"category" validate:"required,max=50"`
	Bedrooms    int      `json:"bedrooms" validate:"gte=0,lte=50"`
	Bathrooms   int      `json:"bathrooms" validate:"gte=0,lte=50"`
	Area        float64  `json:"area" validate:"gt=0"`
	Price       float64  `json:"price" validate:"gte=0"`
	Features    []string `json:"features" validate:"omitempty,dive,min=1,max=100"`
	Submit      bool     `json:"submit"`
}

// InquiryRequest is a buyer/tenant message about a published listing
type InquiryRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"omitempty,lkphone"`
	Message string `json:"message" validate:"required,min=10,max=2000"`
}

// ReasonRequest carries a moderation reason
type ReasonRequest struct {
	Reason string `json:"reason"`
}

// FeatureRequest sets or clears the featured flag
type FeatureRequest struct {
	Featured bool `json:"featured"`
}

// SalesStatusRequest marks a published listing sold or rented
type SalesStatusRequest struct {
	Status PropertyStatus `json:"status" validate:"required,oneof=sold rented"`
}
