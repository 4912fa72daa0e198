package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// Stored procedures that bundle a moderation state change with its log and notification writes
const (
	RPCApproveProperty = "admin_approve_property"
	RPCRejectProperty  = "admin_reject_property"
	RPCDeleteProperty  = "admin_delete_property"
	RPCApproveProvider = "admin_approve_provider"
	RPCRejectProvider  = "admin_reject_provider"
	RPCSuspendUser     = "admin_suspend_user"
	RPCActivateUser    = "admin_activate_user"
	RPCApproveUser     = "admin_approve_user"
	RPCRejectUser      = "admin_reject_user"
	RPCDeleteUser      = "admin_delete_user"
	RPCApprovePlan     = "admin_approve_plan"
	RPCRejectPlan      = "admin_reject_plan"
)

var knownRPCs = map[string]bool{
	RPCApproveProperty: true,
	RPCRejectProperty:  true,
	RPCDeleteProperty:  true,
	RPCApproveProvider: true,
	RPCRejectProvider:  true,
	RPCSuspendUser:     true,
	RPCActivateUser:    true,
	RPCApproveUser:     true,
	RPCRejectUser:      true,
	RPCDeleteUser:      true,
	RPCApprovePlan:     true,
	RPCRejectPlan:      true,
}

// SQLSTATE for "function does not exist"
const undefinedFunctionCode = "42883"

// RPCRepository calls the moderation stored procedures
type RPCRepository struct {
	db DB
}

// NewRPCRepository creates a new RPCRepository
func NewRPCRepository(db DB) *RPCRepository {
	return &RPCRepository{db: db}
}

// Call runs SELECT name($1, ...). Only known procedure names are accepted.
func (r *RPCRepository) Call(ctx context.Context, name string, args ...interface{}) error {
	if !knownRPCs[name] {
		return fmt.Errorf("unknown procedure %q", name)
	}

	placeholders := make([]string, len(args))
	for i := range args {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf("SELECT %s(%s)", name, strings.Join(placeholders, ", "))

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("procedure %s failed: %w", name, err)
	}
	return nil
}

// IsUndefinedFunction reports whether err says the procedure is not deployed
func IsUndefinedFunction(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == undefinedFunctionCode
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == undefinedFunctionCode
	}
	return false
}
