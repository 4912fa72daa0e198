package database

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/estatehub/marketplace-backend/internal/models"
	"github.com/google/uuid"
)

// RefreshTokenRepository handles refresh token database operations
type RefreshTokenRepository struct {
	db DB
}

// NewRefreshTokenRepository creates a new refresh token repository
func NewRefreshTokenRepository(db DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

// HashToken creates a SHA-256 hash of the token for storage
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// Store saves a refresh token hash for an account
func (r *RefreshTokenRepository) Store(ctx context.Context, accountID uuid.UUID, token, ipAddress, userAgent string, expiresAt time.Time) error {
	query := `
		INSERT INTO refresh_tokens (id, account_id, token_hash, ip_address, user_agent, created_at, expires_at, revoked)
		VALUES ($1, $2, $3, $4, $5, NOW(), $6, FALSE)
	`

	var ipVal, userAgentVal interface{}
	if ipAddress != "" {
		ipVal = ipAddress
	}
	if userAgent != "" {
		userAgentVal = userAgent
	}

	_, err := r.db.ExecContext(ctx, query, uuid.New(), accountID, HashToken(token), ipVal, userAgentVal, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

// Get retrieves a stored refresh token by its plain value
func (r *RefreshTokenRepository) Get(ctx context.Context, token string) (*models.StoredRefreshToken, error) {
	var stored models.StoredRefreshToken
	query := `
		SELECT id, account_id, token_hash, user_agent, ip_address, created_at, expires_at, revoked, revoked_at
		FROM refresh_tokens
		WHERE token_hash = $1
	`
	if err := r.db.GetContext(ctx, &stored, query, HashToken(token)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Token not found
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}
	return &stored, nil
}

// IsUsable reports whether a token exists, is not revoked and has not expired
func (r *RefreshTokenRepository) IsUsable(ctx context.Context, token string) (bool, error) {
	stored, err := r.Get(ctx, token)
	if err != nil {
		return false, err
	}
	if stored == nil {
		return false, nil
	}
	return !stored.Revoked && time.Now().Before(stored.ExpiresAt), nil
}

// Revoke revokes a single refresh token
func (r *RefreshTokenRepository) Revoke(ctx context.Context, token string) error {
	query := `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = NOW() WHERE token_hash = $1 AND revoked = FALSE`
	if _, err := r.db.ExecContext(ctx, query, HashToken(token)); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// RevokeAll revokes every token of an account
func (r *RefreshTokenRepository) RevokeAll(ctx context.Context, accountID uuid.UUID) error {
	query := `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = NOW() WHERE account_id = $1 AND revoked = FALSE`
	if _, err := r.db.ExecContext(ctx, query, accountID); err != nil {
		return fmt.Errorf("failed to revoke account tokens: %w", err)
	}
	return nil
}

// CleanupExpired removes expired tokens and revoked tokens older than the retention window
func (r *RefreshTokenRepository) CleanupExpired(ctx context.Context, revokedRetention time.Duration) (int64, error) {
	query := `DELETE FROM refresh_tokens WHERE expires_at < NOW() OR (revoked = TRUE AND revoked_at < $1)`
	result, err := r.db.ExecContext(ctx, query, time.Now().Add(-revokedRetention))
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup refresh tokens: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}
