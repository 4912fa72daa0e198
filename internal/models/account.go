package models

import (
	"time"

	"github.com/google/uuid"
)

// AccountRole is the role embedded in an account's trusted metadata
type AccountRole string

const (
	RoleAdmin    AccountRole = "admin"
	RoleProvider AccountRole = "provider"
	RoleUser     AccountRole = "user"
)

// Valid reports whether r is a known role
func (r AccountRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleProvider, RoleUser:
		return true
	}
	return false
}

// AccountStatus is the moderation status of an account
type AccountStatus string

const (
	AccountEmailUnconfirmed AccountStatus = "email_unconfirmed"
	AccountPending          AccountStatus = "pending"
	AccountApproved         AccountStatus = "approved"
	AccountRejected         AccountStatus = "rejected"
	AccountSuspended        AccountStatus = "suspended"
)

// Valid reports whether s is a known status
func (s AccountStatus) Valid() bool {
	switch s {
	case AccountEmailUnconfirmed, AccountPending, AccountApproved, AccountRejected, AccountSuspended:
		return true
	}
	return false
}

// Account represents a user, provider or admin login
type Account struct {
	ID               uuid.UUID     `json:"id" db:"id"`
	Email            string        `json:"email" db:"email"`
	PasswordHash     string        `json:"-" db:"password_hash"`
	DisplayName      string        `json:"display_name" db:"display_name"`
	Role             AccountRole   `json:"role" db:"role"`
	Status           AccountStatus `json:"status" db:"status"`
	RejectionReason  *string       `json:"rejection_reason,omitempty" db:"rejection_reason"`
	RejectedAt       *time.Time    `json:"rejected_at,omitempty" db:"rejected_at"`
	RejectedBy       *uuid.UUID    `json:"rejected_by,omitempty" db:"rejected_by"`
	ApprovedAt       *time.Time    `json:"approved_at,omitempty" db:"approved_at"`
	ApprovedBy       *uuid.UUID    `json:"approved_by,omitempty" db:"approved_by"`
	SuspensionReason *string       `json:"suspension_reason,omitempty" db:"suspension_reason"`
	SuspendedAt      *time.Time    `json:"suspended_at,omitempty" db:"suspended_at"`
	DeletedAt        *time.Time    `json:"deleted_at,omitempty" db:"deleted_at"`
	DeletionReason   *string       `json:"deletion_reason,omitempty" db:"deletion_reason"`
	CreatedAt        time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at" db:"updated_at"`
	LastLoginAt      *time.Time    `json:"last_login_at,omitempty" db:"last_login_at"`
	LoginCount       int           `json:"login_count" db:"login_count"`
}

// IsDeleted reports whether the account has been soft-deleted
func (a *Account) IsDeleted() bool {
	return a.DeletedAt != nil
}

// StoredRefreshToken is a hashed refresh token kept for revocation checks
type StoredRefreshToken struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	AccountID uuid.UUID  `json:"account_id" db:"account_id"`
	TokenHash string     `json:"-" db:"token_hash"`
	UserAgent *string    `json:"user_agent,omitempty" db:"user_agent"`
	IPAddress *string    `json:"ip_address,omitempty" db:"ip_address"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	ExpiresAt time.Time  `json:"expires_at" db:"expires_at"`
	Revoked   bool       `json:"revoked" db:"revoked"`
	RevokedAt *time.Time `json:"revoked_at,omitempty" db:"revoked_at"`
}
