package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/estatehub/marketplace-backend/internal/database"
)

// Rate limited actions
const (
	RateActionSignIn       = "sign_in"
	RateActionInquiry      = "inquiry"
	RateActionConfirmation = "confirmation"
)

// RateLimitRule bounds one action per identifier type
type RateLimitRule struct {
	MaxRequests int
	Window      time.Duration
}

// RateLimitService throttles sign-in attempts, confirmation resends and inquiry submissions
// using the rate_limit_events table
type RateLimitService struct {
	db    database.DB
	rules map[string]map[string]RateLimitRule // action -> identifier type -> rule
	now   func() time.Time
}

// NewRateLimitService creates a new rate limit service with the default rules
func NewRateLimitService(db database.DB) *RateLimitService {
	return &RateLimitService{
		db:    db,
		rules: DefaultRateLimitRules(),
		now:   time.Now,
	}
}

// DefaultRateLimitRules returns the default limits
func DefaultRateLimitRules() map[string]map[string]RateLimitRule {
	return map[string]map[string]RateLimitRule{
		RateActionSignIn: {
			"email": {MaxRequests: 5, Window: 15 * time.Minute},
			"ip":    {MaxRequests: 20, Window: time.Hour},
		},
		RateActionInquiry: {
			"ip": {MaxRequests: 10, Window: time.Hour},
		},
		RateActionConfirmation: {
			"email": {MaxRequests: 3, Window: time.Hour},
			"ip":    {MaxRequests: 10, Window: time.Hour},
		},
	}
}

// RateLimitError represents a rate limit exceeded error
type RateLimitError struct {
	Message    string
	RetryAfter time.Time
	Type       string // "email" or "ip"
}

func (e *RateLimitError) Error() string {
	return e.Message
}

// Check returns a *RateLimitError when any identifier has used up its window
func (s *RateLimitService) Check(ctx context.Context, action string, identifiers map[string]string) error {
	for _, idType := range []string{"email", "ip"} {
		identifier := identifiers[idType]
		rule, ok := s.rules[action][idType]
		if identifier == "" || !ok {
			continue
		}

		count, lastRequest, err := s.requestCount(ctx, action, identifier, idType, rule.Window)
		if err != nil {
			return fmt.Errorf("failed to check %s rate limit: %w", idType, err)
		}
		if count >= rule.MaxRequests {
			retryAfter := lastRequest.Add(rule.Window)
			return &RateLimitError{
				Message:    fmt.Sprintf("Too many attempts. Please try again after %s", retryAfter.Format("15:04:05")),
				RetryAfter: retryAfter,
				Type:       idType,
			}
		}
	}
	return nil
}

func (s *RateLimitService) requestCount(ctx context.Context, action, identifier, idType string, window time.Duration) (int, time.Time, error) {
	query := `
		SELECT COUNT(*), COALESCE(MAX(created_at), NOW())
		FROM rate_limit_events
		WHERE action = $1
		  AND identifier = $2
		  AND identifier_type = $3
		  AND created_at > $4
	`

	var count int
	var lastRequest time.Time
	err := s.db.QueryRowContext(ctx, query, action, identifier, idType, s.now().Add(-window)).Scan(&count, &lastRequest)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, time.Time{}, err
	}
	return count, lastRequest, nil
}

// Record stores one attempt per identifier
func (s *RateLimitService) Record(ctx context.Context, action string, identifiers map[string]string) error {
	query := `INSERT INTO rate_limit_events (action, identifier, identifier_type, created_at) VALUES ($1, $2, $3, NOW())`
	for _, idType := range []string{"email", "ip"} {
		identifier := identifiers[idType]
		if _, ok := s.rules[action][idType]; identifier == "" || !ok {
			continue
		}
		if _, err := s.db.ExecContext(ctx, query, action, identifier, idType); err != nil {
			return fmt.Errorf("failed to record %s attempt: %w", idType, err)
		}
	}
	return nil
}

// Reset forgets the attempts of one identifier, used after a successful sign-in
func (s *RateLimitService) Reset(ctx context.Context, action, identifier, idType string) error {
	query := `DELETE FROM rate_limit_events WHERE action = $1 AND identifier = $2 AND identifier_type = $3`
	if _, err := s.db.ExecContext(ctx, query, action, identifier, idType); err != nil {
		return fmt.Errorf("failed to reset rate limit: %w", err)
	}
	return nil
}

// CleanupExpired removes events older than the longest window
func (s *RateLimitService) CleanupExpired(ctx context.Context) (int64, error) {
	var maxWindow time.Duration
	for _, byType := range s.rules {
		for _, rule := range byType {
			if rule.Window > maxWindow {
				maxWindow = rule.Window
			}
		}
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM rate_limit_events WHERE created_at < $1`, s.now().Add(-maxWindow))
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup rate limits: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}
