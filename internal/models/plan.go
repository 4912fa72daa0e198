package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PlanStatus is the lifecycle state of an architectural plan
type PlanStatus string

const (
	PlanDraft     PlanStatus = "draft"
	PlanPending   PlanStatus = "pending"
	PlanApproved  PlanStatus = "approved"
	PlanPublished PlanStatus = "published"
	PlanRejected  PlanStatus = "rejected"
	PlanArchived  PlanStatus = "archived"
)

// ArchitecturalPlan is a purchasable house plan with its own moderation lifecycle
type ArchitecturalPlan struct {
	ID              uuid.UUID      `json:"id" db:"id"`
	ProviderID      *uuid.UUID     `json:"provider_id,omitempty" db:"provider_id"`
	Title           string         `json:"title" db:"title"`
	Description     string         `json:"description" db:"description"`
	Category        string         `json:"category" db:"category"`
	Status          PlanStatus     `json:"status" db:"status"`
	Bedrooms        int            `json:"bedrooms" db:"bedrooms"`
	Bathrooms       int            `json:"bathrooms" db:"bathrooms"`
	Area            float64        `json:"area" db:"area"`
	Price           float64        `json:"price" db:"price"`
	Features        pq.StringArray `json:"features" db:"features"`
	ViewCount       int            `json:"view_count" db:"view_count"`
	DownloadCount   int            `json:"download_count" db:"download_count"`
	PurchaseCount   int            `json:"purchase_count" db:"purchase_count"`
	ApprovedAt      *time.Time     `json:"approved_at,omitempty" db:"approved_at"`
	ApprovedBy      *uuid.UUID     `json:"approved_by,omitempty" db:"approved_by"`
	RejectedAt      *time.Time     `json:"rejected_at,omitempty" db:"rejected_at"`
	RejectedBy      *uuid.UUID     `json:"rejected_by,omitempty" db:"rejected_by"`
	RejectionReason *string        `json:"rejection_reason,omitempty" db:"rejection_reason"`
	DeletedAt       *time.Time     `json:"deleted_at,omitempty" db:"deleted_at"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at" db:"updated_at"`
}
