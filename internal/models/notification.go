package models

import (
	"time"

	"github.com/google/uuid"
)

// Severity of an admin-facing notification
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
	SeveritySuccess Severity = "success"
)

// Notification types shared by both notification tables
const (
	NotificationAccountApproved   = "account_approved"
	NotificationAccountRejected   = "account_rejected"
	NotificationAccountSuspended  = "account_suspended"
	NotificationAccountActivated  = "account_activated"
	NotificationAccountDeleted    = "account_deleted"
	NotificationProviderApproved  = "provider_approved"
	NotificationProviderRejected  = "provider_rejected"
	NotificationPropertyApproved  = "property_approved"
	NotificationPropertyRejected  = "property_rejected"
	NotificationPropertyDeleted   = "property_deleted"
	NotificationPlanApproved      = "plan_approved"
	NotificationPlanRejected      = "plan_rejected"
	NotificationNewInquiry        = "new_inquiry"
	NotificationSubscriptionEnded = "subscription_expired"
	NotificationResubmitted       = "listing_resubmitted"
	NotificationListingSubmitted  = "listing_submitted"
	NotificationNewRegistration   = "new_registration"
)

// SystemNotification is an admin-facing notification. A nil AdminID means global.
type SystemNotification struct {
	ID                uuid.UUID   `json:"id" db:"id"`
	AdminID           *uuid.UUID  `json:"admin_id,omitempty" db:"admin_id"`
	Type              string      `json:"type" db:"type"`
	Title             string      `json:"title" db:"title"`
	Message           string      `json:"message" db:"message"`
	Severity          Severity    `json:"severity" db:"severity"`
	IsRead            bool        `json:"is_read" db:"is_read"`
	RelatedEntityType *TargetType `json:"related_entity_type,omitempty" db:"related_entity_type"`
	RelatedEntityID   *uuid.UUID  `json:"related_entity_id,omitempty" db:"related_entity_id"`
	CreatedAt         time.Time   `json:"created_at" db:"created_at"`
	ReadAt            *time.Time  `json:"read_at,omitempty" db:"read_at"`
}

// ProviderNotification is an owner-facing notification addressed to one account
type ProviderNotification struct {
	ID                uuid.UUID   `json:"id" db:"id"`
	AccountID         uuid.UUID   `json:"account_id" db:"account_id"`
	Type              string      `json:"type" db:"type"`
	Title             string      `json:"title" db:"title"`
	Message           string      `json:"message" db:"message"`
	IsRead            bool        `json:"is_read" db:"is_read"`
	RelatedEntityType *TargetType `json:"related_entity_type,omitempty" db:"related_entity_type"`
	RelatedEntityID   *uuid.UUID  `json:"related_entity_id,omitempty" db:"related_entity_id"`
	CreatedAt         time.Time   `json:"created_at" db:"created_at"`
	ReadAt            *time.Time  `json:"read_at,omitempty" db:"read_at"`
}
