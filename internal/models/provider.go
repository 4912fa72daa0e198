package models

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus is a provider's subscription state
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionInactive  SubscriptionStatus = "inactive"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// Provider is the business profile attached 1:1 to a provider account
type Provider struct {
	ID                    uuid.UUID          `json:"id" db:"id"`
	AccountID             uuid.UUID          `json:"account_id" db:"account_id"`
	BusinessName          string             `json:"business_name" db:"business_name"`
	BusinessEmail         string             `json:"business_email" db:"business_email"`
	BusinessPhone         *string            `json:"business_phone,omitempty" db:"business_phone"`
	City                  *string            `json:"city,omitempty" db:"city"`
	SubscriptionStatus    SubscriptionStatus `json:"subscription_status" db:"subscription_status"`
	SubscriptionPlan      *string            `json:"subscription_plan,omitempty" db:"subscription_plan"`
	SubscriptionExpiresAt *time.Time         `json:"subscription_expires_at,omitempty" db:"subscription_expires_at"`
	TotalListings         int                `json:"total_listings" db:"total_listings"`
	TotalViews            int                `json:"total_views" db:"total_views"`
	TotalInquiries        int                `json:"total_inquiries" db:"total_inquiries"`
	ApprovedAt            *time.Time         `json:"approved_at,omitempty" db:"approved_at"`
	ApprovedBy            *uuid.UUID         `json:"approved_by,omitempty" db:"approved_by"`
	CreatedAt             time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time          `json:"updated_at" db:"updated_at"`
}

// ProviderWithAccount joins a provider with the moderation state of its account
type ProviderWithAccount struct {
	Provider
	AccountEmail    string        `json:"account_email" db:"account_email"`
	DisplayName     string        `json:"display_name" db:"display_name"`
	AccountStatus   AccountStatus `json:"account_status" db:"account_status"`
	RejectionReason *string       `json:"rejection_reason,omitempty" db:"rejection_reason"`
}
