package models

import (
	"time"

	"github.com/google/uuid"
)

// SignUpRequest registers a user or provider account
type SignUpRequest struct {
	Email         string      `json:"email" validate:"required,email"`
	Password      string      `json:"password" validate:"required,min=8,max=72"`
	DisplayName   string      `json:"display_name" validate:"required,min=2,max=100"`
	Role          AccountRole `json:"role" validate:"required,oneof=provider user"`
	BusinessName  string      `json:"business_name" validate:"required_if=Role provider,max=200"`
	BusinessEmail string      `json:"business_email" validate:"omitempty,email"`
	BusinessPhone string      `json:"business_phone" validate:"omitempty,lkphone"`
	City          string      `json:"city" validate:"omitempty,max=100"`
}

// SignInRequest is an email/password sign-in
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshTokenRequest carries a refresh token for rotation or sign-out
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// ConfirmEmailRequest redeems an emailed confirmation code
type ConfirmEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

// ResendConfirmationRequest asks for a fresh confirmation code
type ResendConfirmationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// EmailConfirmation is one issued confirmation code. Only its hash is stored.
type EmailConfirmation struct {
	ID          uuid.UUID  `db:"id"`
	AccountID   uuid.UUID  `db:"account_id"`
	CodeHash    string     `db:"code_hash"`
	CreatedAt   time.Time  `db:"created_at"`
	ExpiresAt   time.Time  `db:"expires_at"`
	Verified    bool       `db:"verified"`
	VerifiedAt  *time.Time `db:"verified_at"`
	Attempts    int        `db:"attempts"`
	MaxAttempts int        `db:"max_attempts"`
	IPAddress   *string    `db:"ip_address"`
	UserAgent   *string    `db:"user_agent"`
}

// AuthSession is returned by sign-up, sign-in and refresh
type AuthSession struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int64    `json:"expires_in"`
	Account      *Account `json:"account"`
}

// Profile is the identity returned by /auth/me. Source is "profile" when the
// account row was read, "token" when it fell back to token metadata.
type Profile struct {
	ID          uuid.UUID            `json:"id"`
	Email       string               `json:"email"`
	DisplayName string               `json:"display_name"`
	Role        AccountRole          `json:"role"`
	Status      AccountStatus        `json:"status"`
	LastLoginAt *time.Time           `json:"last_login_at,omitempty"`
	Provider    *ProviderWithAccount `json:"provider,omitempty"`
	Source      string               `json:"source"`
}
