package models

import (
	"time"

	"github.com/google/uuid"
)

// ActivityAction is the verb recorded in admin_activity_logs.action
type ActivityAction string

const (
	ActionApprove   ActivityAction = "approve"
	ActionReject    ActivityAction = "reject"
	ActionSuspend   ActivityAction = "suspend"
	ActionActivate  ActivityAction = "activate"
	ActionDelete    ActivityAction = "delete"
	ActionFeature   ActivityAction = "feature"
	ActionUnfeature ActivityAction = "unfeature"
	ActionArchive   ActivityAction = "archive"
)

// TargetType is the entity class an activity or notification refers to
type TargetType string

const (
	TargetUser     TargetType = "user"
	TargetProvider TargetType = "provider"
	TargetProperty TargetType = "property"
	TargetPlan     TargetType = "plan"
)

// ActivityLog is one append-only row of admin_activity_logs
type ActivityLog struct {
	ID          uuid.UUID      `json:"id" db:"id"`
	AdminID     uuid.UUID      `json:"admin_id" db:"admin_id"`
	Action      ActivityAction `json:"action" db:"action"`
	TargetType  TargetType     `json:"target_type" db:"target_type"`
	TargetID    uuid.UUID      `json:"target_id" db:"target_id"`
	TargetEmail *string        `json:"target_email,omitempty" db:"target_email"`
	Details     JSONB          `json:"details,omitempty" db:"details"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
}

// ActivityFeedItem is an activity row with the acting admin's display name resolved
type ActivityFeedItem struct {
	ActivityLog
	AdminName string `json:"admin_name"`
}

// DeviceInfo describes the admin's client, stored under details.device
type DeviceInfo struct {
	Browser        string `json:"browser,omitempty"`
	BrowserVersion string `json:"browser_version,omitempty"`
	OS             string `json:"os,omitempty"`
	Platform       string `json:"platform,omitempty"`
	IsMobile       bool   `json:"is_mobile"`
	IsBot          bool   `json:"is_bot"`
}
