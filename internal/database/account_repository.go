package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/estatehub/marketplace-backend/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const accountColumns = `
	id, email, password_hash, display_name, role, status,
	rejection_reason, rejected_at, rejected_by, approved_at, approved_by,
	suspension_reason, suspended_at, deleted_at, deletion_reason,
	created_at, updated_at, last_login_at, login_count`

// AccountRepository handles database operations for the accounts table
type AccountRepository struct {
	db DB
}

// NewAccountRepository creates a new AccountRepository
func NewAccountRepository(db DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts a new account
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now

	query := `
		INSERT INTO accounts (id, email, password_hash, display_name, role, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		account.ID, account.Email, account.PasswordHash, account.DisplayName,
		account.Role, account.Status, account.CreatedAt, account.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetByID retrieves an account by ID, including soft-deleted rows
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var account models.Account
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	if err := r.db.GetContext(ctx, &account, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

// GetByEmail retrieves a live account by email
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE lower(email) = lower($1) AND deleted_at IS NULL`
	if err := r.db.GetContext(ctx, &account, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}
	return &account, nil
}

// List returns a page of live accounts matching the filter
func (r *AccountRepository) List(ctx context.Context, filter models.AccountFilter) (models.Page[models.Account], error) {
	filter.Normalize()

	q := From("accounts", accountColumns).
		IsNull("deleted_at").
		Search(filter.Search, "display_name", "email")
	if filter.Role != "" {
		q.Eq("role", filter.Role)
	}
	if filter.Status != "" {
		q.Eq("status", filter.Status)
	}
	if filter.CreatedFrom != nil {
		q.Gte("created_at", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		q.Lte("created_at", endOfDay(*filter.CreatedTo))
	}

	var total int
	countSQL, countArgs := q.CountSQL()
	if err := r.db.GetContext(ctx, &total, countSQL, countArgs...); err != nil {
		return models.Page[models.Account]{}, fmt.Errorf("failed to count accounts: %w", err)
	}

	switch filter.SortBy {
	case models.SortPopularity:
		q.Order("login_count", filter.Ascending)
	default:
		q.Order("created_at", filter.Ascending)
	}
	q.Range(filter.Offset(), filter.Offset()+filter.PageSize-1)

	accounts := []models.Account{}
	listSQL, listArgs := q.ToSQL()
	if err := r.db.SelectContext(ctx, &accounts, listSQL, listArgs...); err != nil {
		return models.Page[models.Account]{}, fmt.Errorf("failed to list accounts: %w", err)
	}

	return models.NewPage(accounts, total, filter.Pagination), nil
}

// CountLive counts live accounts, optionally restricted to one role
func (r *AccountRepository) CountLive(ctx context.Context, role string) (int, error) {
	q := From("accounts", "id").IsNull("deleted_at")
	if role != "" {
		q.Eq("role", role)
	}
	var total int
	query, args := q.CountSQL()
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count accounts: %w", err)
	}
	return total, nil
}

// DisplayNames resolves account ids to display names
func (r *AccountRepository) DisplayNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = id.String()
	}

	var rows []struct {
		ID          uuid.UUID `db:"id"`
		DisplayName string    `db:"display_name"`
	}
	query := `SELECT id, display_name FROM accounts WHERE id = ANY($1::uuid[])`
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(strIDs)); err != nil {
		return nil, fmt.Errorf("failed to resolve display names: %w", err)
	}
	for _, row := range rows {
		names[row.ID] = row.DisplayName
	}
	return names, nil
}

// Approve sets the account approved and clears every rejection and suspension field
func (r *AccountRepository) Approve(ctx context.Context, id, adminID uuid.UUID) error {
	query := `
		UPDATE accounts
		SET status = 'approved', approved_at = NOW(), approved_by = $2,
		    rejection_reason = NULL, rejected_at = NULL, rejected_by = NULL,
		    suspension_reason = NULL, suspended_at = NULL, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	return r.execOne(ctx, "approve account", query, id, adminID)
}

// Reject sets the account rejected and clears the approval fields
func (r *AccountRepository) Reject(ctx context.Context, id, adminID uuid.UUID, reason string) error {
	query := `
		UPDATE accounts
		SET status = 'rejected', rejected_at = NOW(), rejected_by = $2, rejection_reason = $3,
		    approved_at = NULL, approved_by = NULL, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	return r.execOne(ctx, "reject account", query, id, adminID, reason)
}

// Suspend blocks an approved account
func (r *AccountRepository) Suspend(ctx context.Context, id uuid.UUID, reason string) error {
	query := `
		UPDATE accounts
		SET status = 'suspended', suspension_reason = $2, suspended_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	return r.execOne(ctx, "suspend account", query, id, reason)
}

// Activate returns a suspended account to approved
func (r *AccountRepository) Activate(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE accounts
		SET status = 'approved', suspension_reason = NULL, suspended_at = NULL, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	return r.execOne(ctx, "activate account", query, id)
}

// SoftDelete stamps deleted_at; the row is kept
func (r *AccountRepository) SoftDelete(ctx context.Context, id uuid.UUID, reason *string) error {
	query := `
		UPDATE accounts
		SET deleted_at = NOW(), deletion_reason = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	return r.execOne(ctx, "delete account", query, id, reason)
}

// RecordLogin bumps last_login_at and login_count
func (r *AccountRepository) RecordLogin(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE accounts SET last_login_at = NOW(), login_count = login_count + 1 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to record login: %w", err)
	}
	return nil
}

// UpdateDisplayName changes the display name of an account
func (r *AccountRepository) UpdateDisplayName(ctx context.Context, id uuid.UUID, name string) error {
	query := `UPDATE accounts SET display_name = $2, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	return r.execOne(ctx, "update display name", query, id, name)
}

// ConfirmEmail moves an email_unconfirmed account to next
func (r *AccountRepository) ConfirmEmail(ctx context.Context, id uuid.UUID, next models.AccountStatus) error {
	query := `
		UPDATE accounts SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'email_unconfirmed' AND deleted_at IS NULL
	`
	return r.execOne(ctx, "confirm email", query, id, next)
}

func (r *AccountRepository) execOne(ctx context.Context, op, query string, args ...interface{}) error {
	return execOne(ctx, r.db, op, query, args...)
}

// ErrNoRowsAffected is returned when an update matched nothing
var ErrNoRowsAffected = errors.New("no rows affected")

func execOne(ctx context.Context, db DB, op, query string, args ...interface{}) error {
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("failed to %s: %w", op, ErrNoRowsAffected)
	}
	return nil
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
