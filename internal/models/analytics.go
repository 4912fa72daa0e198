package models

import (
	"time"

	"github.com/google/uuid"
)

// DailyCount is one day of a dense date series
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// UserStats summarises accounts
type UserStats struct {
	Total       int            `json:"total"`
	NewInPeriod int            `json:"new_in_period"`
	Growth      int            `json:"growth"`
	ByStatus    map[string]int `json:"by_status"`
	ByRole      map[string]int `json:"by_role"`
}

// ProviderStats summarises providers
type ProviderStats struct {
	Total                int            `json:"total"`
	Approved             int            `json:"approved"`
	Pending              int            `json:"pending"`
	NewInPeriod          int            `json:"new_in_period"`
	Growth               int            `json:"growth"`
	BySubscriptionStatus map[string]int `json:"by_subscription_status"`
}

// PropertyStats summarises listings
type PropertyStats struct {
	Total       int            `json:"total"`
	Published   int            `json:"published"`
	Pending     int            `json:"pending"`
	Rejected    int            `json:"rejected"`
	Featured    int            `json:"featured"`
	NewInPeriod int            `json:"new_in_period"`
	Growth      int            `json:"growth"`
	ByType      map[string]int `json:"by_type"`
	ByCategory  map[string]int `json:"by_category"`
	ByStatus    map[string]int `json:"by_status"`
}

// EngagementStats summarises views and inquiries
type EngagementStats struct {
	TotalViews        int     `json:"total_views"`
	TotalInquiries    int     `json:"total_inquiries"`
	ViewsInPeriod     int     `json:"views_in_period"`
	InquiriesInPeriod int     `json:"inquiries_in_period"`
	ViewsGrowth       int     `json:"views_growth"`
	InquiriesGrowth   int     `json:"inquiries_growth"`
	ConversionRate    float64 `json:"conversion_rate"`
}

// RevenueEstimate is a synthetic listing_count * fee figure, not billing data
type RevenueEstimate struct {
	Amount        float64 `json:"amount"`
	ListingFee    float64 `json:"listing_fee"`
	ListingCount  int     `json:"listing_count"`
	IsPlaceholder bool    `json:"is_placeholder"`
}

// DailySeries holds the dense per-day series of the dashboard
type DailySeries struct {
	Views         []DailyCount `json:"views"`
	Inquiries     []DailyCount `json:"inquiries"`
	Registrations []DailyCount `json:"registrations"`
	Activities    []DailyCount `json:"activities"`
}

// DashboardAnalytics is the admin dashboard summary
type DashboardAnalytics struct {
	WindowDays  int             `json:"window_days"`
	GeneratedAt time.Time       `json:"generated_at"`
	Users       UserStats       `json:"users"`
	Providers   ProviderStats   `json:"providers"`
	Properties  PropertyStats   `json:"properties"`
	Engagement  EngagementStats `json:"engagement"`
	Activities  int             `json:"activities_in_period"`
	Revenue     RevenueEstimate `json:"revenue"`
	Series      DailySeries     `json:"series"`
}

// EmptyDashboardAnalytics is the all-zero shape returned when a fetch fails
func EmptyDashboardAnalytics() DashboardAnalytics {
	return DashboardAnalytics{
		GeneratedAt: time.Now().UTC(),
		Users:       UserStats{ByStatus: map[string]int{}, ByRole: map[string]int{}},
		Providers:   ProviderStats{BySubscriptionStatus: map[string]int{}},
		Properties:  PropertyStats{ByType: map[string]int{}, ByCategory: map[string]int{}, ByStatus: map[string]int{}},
		Revenue:     RevenueEstimate{IsPlaceholder: true},
		Series: DailySeries{
			Views:         []DailyCount{},
			Inquiries:     []DailyCount{},
			Registrations: []DailyCount{},
			Activities:    []DailyCount{},
		},
	}
}

// PropertyAnalytics is the listing-focused analytics view
type PropertyAnalytics struct {
	WindowDays int            `json:"window_days"`
	Properties PropertyStats  `json:"properties"`
	TopViewed  []PropertyRank `json:"top_viewed"`
	Views      []DailyCount   `json:"views"`
	Inquiries  []DailyCount   `json:"inquiries"`
}

// PropertyRank is a listing with its engagement counters
type PropertyRank struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Title        string    `json:"title" db:"title"`
	ViewCount    int       `json:"view_count" db:"view_count"`
	InquiryCount int       `json:"inquiry_count" db:"inquiry_count"`
}

// ProviderAnalytics is the provider's own dashboard
type ProviderAnalytics struct {
	WindowDays        int            `json:"window_days"`
	ProviderID        uuid.UUID      `json:"provider_id"`
	TotalListings     int            `json:"total_listings"`
	ByStatus          map[string]int `json:"by_status"`
	ViewsInPeriod     int            `json:"views_in_period"`
	InquiriesInPeriod int            `json:"inquiries_in_period"`
	ViewsGrowth       int            `json:"views_growth"`
	InquiriesGrowth   int            `json:"inquiries_growth"`
	Views             []DailyCount   `json:"views"`
	Inquiries         []DailyCount   `json:"inquiries"`
}

// Snapshot rows fetched for in-memory aggregation

// AccountSnapshot is the minimal account projection used by analytics
type AccountSnapshot struct {
	Role      string    `db:"role"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}

// ProviderSnapshot is the minimal provider projection used by analytics
type ProviderSnapshot struct {
	AccountStatus      string    `db:"account_status"`
	SubscriptionStatus string    `db:"subscription_status"`
	CreatedAt          time.Time `db:"created_at"`
}

// PropertySnapshot is the minimal property projection used by analytics
type PropertySnapshot struct {
	ID         uuid.UUID  `db:"id"`
	Type       string     `db:"type"`
	Category   string     `db:"category"`
	Status     string     `db:"status"`
	IsFeatured bool       `db:"is_featured"`
	ProviderID *uuid.UUID `db:"provider_id"`
	CreatedAt  time.Time  `db:"created_at"`
}

// EventSnapshot is a date-stamped row (view, inquiry, activity)
type EventSnapshot struct {
	CreatedAt time.Time `db:"created_at"`
}
