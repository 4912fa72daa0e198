package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/estatehub/marketplace-backend/internal/database"
	"github.com/estatehub/marketplace-backend/internal/models"
	"github.com/google/uuid"
)

const (
	// ConfirmationCodeLength is the number of digits in a code
	ConfirmationCodeLength = 6

	// ConfirmationExpiry is how long a code stays valid
	ConfirmationExpiry = 30 * time.Minute

	// MaxConfirmationAttempts bounds wrong guesses per code
	MaxConfirmationAttempts = 5
)

var (
	ErrCodeExpired         = errors.New("confirmation code has expired")
	ErrCodeInvalid         = errors.New("invalid confirmation code")
	ErrMaxAttemptsExceeded = errors.New("maximum confirmation attempts exceeded")
	ErrNoCodeFound         = errors.New("no confirmation code found for this account")
)

// ConfirmationService issues and checks the e-mail confirmation codes new
// accounts redeem before moderation
type ConfirmationService struct {
	db  database.DB
	now func() time.Time
}

// NewConfirmationService creates a new confirmation service
func NewConfirmationService(db database.DB) *ConfirmationService {
	return &ConfirmationService{db: db, now: time.Now}
}

// Issue invalidates any open code for the account and returns a fresh one
func (s *ConfirmationService) Issue(ctx context.Context, accountID uuid.UUID, client Actor) (string, error) {
	if err := s.Invalidate(ctx, accountID); err != nil {
		return "", err
	}

	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("failed to generate confirmation code: %w", err)
	}

	query := `
		INSERT INTO email_confirmations (account_id, code_hash, expires_at, attempts, max_attempts, ip_address, user_agent)
		VALUES ($1, $2, $3, 0, $4, $5, $6)
	`
	_, err = s.db.ExecContext(ctx, query, accountID, hashCode(code), s.now().Add(ConfirmationExpiry),
		MaxConfirmationAttempts, models.StringPtr(client.IPAddress), models.StringPtr(client.UserAgent))
	if err != nil {
		return "", fmt.Errorf("failed to store confirmation code: %w", err)
	}
	return code, nil
}

// Verify checks code against the account's open confirmation. Every call
// that reaches the comparison uses up one attempt.
func (s *ConfirmationService) Verify(ctx context.Context, accountID uuid.UUID, code string) error {
	record, err := s.openRecord(ctx, accountID)
	if err != nil {
		return err
	}
	if s.now().After(record.ExpiresAt) {
		return ErrCodeExpired
	}
	if record.Attempts >= record.MaxAttempts {
		return ErrMaxAttemptsExceeded
	}

	query := `UPDATE email_confirmations SET attempts = attempts + 1 WHERE id = $1`
	if _, err := s.db.ExecContext(ctx, query, record.ID); err != nil {
		return fmt.Errorf("failed to increment attempts: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(record.CodeHash), []byte(hashCode(code))) != 1 {
		return ErrCodeInvalid
	}

	query = `UPDATE email_confirmations SET verified = TRUE, verified_at = $2 WHERE id = $1`
	if _, err := s.db.ExecContext(ctx, query, record.ID, s.now()); err != nil {
		return fmt.Errorf("failed to mark code verified: %w", err)
	}
	return nil
}

// Invalidate closes every open code of the account
func (s *ConfirmationService) Invalidate(ctx context.Context, accountID uuid.UUID) error {
	query := `UPDATE email_confirmations SET verified = TRUE WHERE account_id = $1 AND verified = FALSE`
	if _, err := s.db.ExecContext(ctx, query, accountID); err != nil {
		return fmt.Errorf("failed to invalidate confirmation codes: %w", err)
	}
	return nil
}

// CleanupExpired deletes codes that expired more than olderThan ago
func (s *ConfirmationService) CleanupExpired(ctx context.Context, olderThan time.Duration) (int64, error) {
	query := `DELETE FROM email_confirmations WHERE expires_at < $1`
	result, err := s.db.ExecContext(ctx, query, s.now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup confirmation codes: %w", err)
	}
	return result.RowsAffected()
}

func (s *ConfirmationService) openRecord(ctx context.Context, accountID uuid.UUID) (*models.EmailConfirmation, error) {
	query := `
		SELECT id, account_id, code_hash, created_at, expires_at, verified, verified_at, attempts, max_attempts, ip_address, user_agent
		FROM email_confirmations
		WHERE account_id = $1 AND verified = FALSE
		ORDER BY created_at DESC
		LIMIT 1
	`
	var record models.EmailConfirmation
	if err := s.db.GetContext(ctx, &record, query, accountID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoCodeFound
		}
		return nil, fmt.Errorf("failed to get confirmation code: %w", err)
	}
	return &record, nil
}

func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// generateCode returns a zero-padded random decimal code
func generateCode() (string, error) {
	max := big.NewInt(1_000_000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", ConfirmationCodeLength, n.Int64()), nil
}
