package models

import "time"

// SortKey is one of the enumerated listing sort keys
type SortKey string

const (
	SortDate       SortKey = "date"
	SortPrice      SortKey = "price"
	SortSize       SortKey = "size"
	SortPopularity SortKey = "popularity"
)

// Pagination is the common offset/limit request
type Pagination struct {
	Page     int `form:"page" json:"page"`
	PageSize int `form:"page_size" json:"page_size"`
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	MaxPage         = 10000
)

// Normalize clamps page and page size to sane bounds
func (p *Pagination) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
}

// Offset returns the zero-based row offset of the page
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Page is a generic paged result
type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

// NewPage builds a page, computing the page count from total
func NewPage[T any](items []T, total int, p Pagination) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if p.PageSize > 0 {
		pages = (total + p.PageSize - 1) / p.PageSize
	}
	return Page[T]{Items: items, Total: total, Page: p.Page, PageSize: p.PageSize, TotalPages: pages}
}

// AccountFilter holds the admin user listing filters
type AccountFilter struct {
	Pagination
	Search      string     `form:"search"`
	Role        string     `form:"role" binding:"omitempty,oneof=admin provider user"`
	Status      string     `form:"status" binding:"omitempty,oneof=email_unconfirmed pending approved rejected suspended"`
	CreatedFrom *time.Time `form:"created_from" time_format:"2006-01-02"`
	CreatedTo   *time.Time `form:"created_to" time_format:"2006-01-02"`
	SortBy      SortKey    `form:"sort_by" binding:"omitempty,oneof=date popularity"`
	Ascending   bool       `form:"ascending"`
}

// ProviderFilter holds the admin provider listing filters
type ProviderFilter struct {
	Pagination
	Search             string  `form:"search"`
	AccountStatus      string  `form:"status" binding:"omitempty,oneof=email_unconfirmed pending approved rejected suspended"`
	SubscriptionStatus string  `form:"subscription_status" binding:"omitempty,oneof=active inactive expired cancelled"`
	City               string  `form:"city"`
	SortBy             SortKey `form:"sort_by" binding:"omitempty,oneof=date popularity"`
	Ascending          bool    `form:"ascending"`
}

// PropertyFilter holds the listing filters used by admin and public catalogue reads
type PropertyFilter struct {
	Pagination
	Search      string     `form:"search"`
	Statuses    []string   `form:"status"`
	Type        string     `form:"type" binding:"omitempty,oneof=residential land commercial"`
	Category    string     `form:"category"`
	City        string     `form:"city"`
	Zoning      string     `form:"zoning"`
	ProviderID  string     `form:"provider_id" binding:"omitempty,uuid"`
	Featured    *bool      `form:"featured"`
	MinPrice    *float64   `form:"min_price"`
	MaxPrice    *float64   `form:"max_price"`
	MinArea     *float64   `form:"min_area"`
	MaxArea     *float64   `form:"max_area"`
	MinRent     *float64   `form:"min_rent"`
	MaxRent     *float64   `form:"max_rent"`
	MinBedrooms *int       `form:"min_bedrooms"`
	CreatedFrom *time.Time `form:"created_from" time_format:"2006-01-02"`
	CreatedTo   *time.Time `form:"created_to" time_format:"2006-01-02"`
	SortBy      SortKey    `form:"sort_by" binding:"omitempty,oneof=date price size popularity"`
	Ascending   bool       `form:"ascending"`
}

// PlanFilter holds architectural plan listing filters
type PlanFilter struct {
	Pagination
	Search      string   `form:"search"`
	Status      string   `form:"status" binding:"omitempty,oneof=draft pending approved published rejected archived"`
	Category    string   `form:"category"`
	ProviderID  string   `form:"provider_id" binding:"omitempty,uuid"`
	MinPrice    *float64 `form:"min_price"`
	MaxPrice    *float64 `form:"max_price"`
	MinBedrooms *int     `form:"min_bedrooms"`
	SortBy      SortKey  `form:"sort_by" binding:"omitempty,oneof=date price size popularity"`
	Ascending   bool     `form:"ascending"`
}
