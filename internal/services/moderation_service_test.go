package services

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/estatehub/marketplace-backend/internal/database"
	"github.com/estatehub/marketplace-backend/internal/models"
	"github.com/estatehub/marketplace-backend/internal/realtime"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type moderationFixture struct {
	svc    *ModerationService
	db     *database.PostgresDB
	mock   sqlmock.Sqlmock
	feed   *realtime.MemoryFeed
	mailer *recordingMailer
	index  *recordingIndex
	events []realtime.Event
}

func newModerationFixture(t *testing.T, useRPC bool) *moderationFixture {
	db, mock := newMockDB(t)
	f := &moderationFixture{
		db:     db,
		mock:   mock,
		feed:   realtime.NewMemoryFeed(),
		mailer: &recordingMailer{},
		index:  &recordingIndex{},
	}
	for _, ch := range []string{realtime.ChannelActivityLogs, realtime.ChannelSystemNotifications} {
		_, err := f.feed.Subscribe(context.Background(), ch, func(ev realtime.Event) {
			f.events = append(f.events, ev)
		}, func(error) {})
		require.NoError(t, err)
	}

	f.svc = NewModerationService(ModerationDependencies{
		Accounts:   database.NewAccountRepository(db),
		Providers:  database.NewProviderRepository(db),
		Properties: database.NewPropertyRepository(db),
		Plans:      database.NewPlanRepository(db),
		RPC:        database.NewRPCRepository(db),
		Audit:      NewAuditService(database.NewActivityLogRepository(db)),
		Notifications: NewNotificationService(
			database.NewProviderNotificationRepository(db),
			database.NewSystemNotificationRepository(db),
		),
		Publisher: f.feed,
		Index:     f.index,
		Mailer:    f.mailer,
		UseRPC:    useRPC,
		Logger:    quietLogger(),
	})
	return f
}

func (f *moderationFixture) expectProperty(id, providerID uuid.UUID, status string) {
	f.mock.ExpectQuery(`SELECT .+ FROM properties p WHERE p.id = \$1 AND p.deleted_at IS NULL`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "type", "status", "provider_id"}).
			AddRow(id.String(), "Sea view villa", "residential", status, providerID.String()))
}

func (f *moderationFixture) expectProvider(where string, arg, providerID, accountID uuid.UUID) {
	f.mock.ExpectQuery(`SELECT .+ FROM providers p JOIN accounts a ON a.id = p.account_id WHERE `+where).
		WithArgs(arg).
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "business_name", "account_email", "display_name", "account_status"}).
			AddRow(providerID.String(), accountID.String(), "Lanka Homes", "owner@example.com", "Nimal", "approved"))
}

func (f *moderationFixture) expectAccount(id uuid.UUID, status string) {
	f.mock.ExpectQuery(`SELECT .+ FROM accounts WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "display_name", "role", "status"}).
			AddRow(id.String(), "user@example.com", "Kamala", "user", status))
}

func TestModerationService_ApprovePropertyViaRPC(t *testing.T) {
	f := newModerationFixture(t, true)
	admin := Actor{ID: uuid.New()}
	propertyID, providerID, ownerID := uuid.New(), uuid.New(), uuid.New()

	f.expectProperty(propertyID, providerID, "pending")
	f.expectProvider(`p.id = \$1`, providerID, providerID, ownerID)
	f.mock.ExpectExec(`SELECT admin_approve_property\(\$1, \$2\)`).
		WithArgs(propertyID, admin.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	result := f.svc.ApproveProperty(context.Background(), admin, propertyID)

	require.True(t, result.Success, result.Message)
	assert.Equal(t, models.PathRPC, result.Path)
	assert.NoError(t, f.mock.ExpectationsWereMet())

	require.Len(t, f.index.indexed, 1)
	assert.Equal(t, models.PropertyPublished, f.index.indexed[0].Status)
	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "owner@example.com", f.mailer.sent[0].to)
	assert.Equal(t, "Listing approved", f.mailer.sent[0].subject)

	require.Len(t, f.events, 1)
	assert.Equal(t, realtime.ChannelActivityLogs, f.events[0].Table)
	assert.Equal(t, propertyID.String(), f.events[0].RecordID)
}

// containsArg matches a text or JSON argument holding the given substring
type containsArg string

func (c containsArg) Match(v driver.Value) bool {
	switch val := v.(type) {
	case string:
		return strings.Contains(val, string(c))
	case []byte:
		return strings.Contains(string(val), string(c))
	}
	return false
}

func TestModerationService_ApprovePropertyFallbackScenario(t *testing.T) {
	f := newModerationFixture(t, true)
	admin := Actor{ID: uuid.New()}
	propertyID, providerID, ownerID := uuid.New(), uuid.New(), uuid.New()

	f.expectProperty(propertyID, providerID, "pending")
	f.expectProvider(`p.id = \$1`, providerID, providerID, ownerID)
	f.mock.ExpectExec(`SELECT admin_approve_property\(\$1, \$2\)`).
		WithArgs(propertyID, admin.ID).
		WillReturnError(errors.New(`function admin_approve_property(uuid, uuid) does not exist`))
	f.mock.ExpectExec(`UPDATE properties SET status = 'published', published_at = NOW\(\), approved_by = \$2, rejection_reason = NULL, rejected_at = NULL, rejected_by = NULL`).
		WithArgs(propertyID, admin.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec(`INSERT INTO admin_activity_logs`).
		WithArgs(sqlmock.AnyArg(), admin.ID, models.ActionApprove, models.TargetProperty, propertyID,
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec(`INSERT INTO provider_notifications`).
		WithArgs(sqlmock.AnyArg(), ownerID, models.NotificationPropertyApproved, "Listing approved",
			containsArg("Sea view villa"), models.TargetProperty, propertyID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	result := f.svc.ApproveProperty(context.Background(), admin, propertyID)

	require.True(t, result.Success, result.Message)
	assert.Equal(t, models.PathFallback, result.Path)
	// any further log or notification write would be an unexpected call
	assert.NoError(t, f.mock.ExpectationsWereMet())

	require.Len(t, f.index.indexed, 1)
	assert.NotNil(t, f.index.indexed[0].PublishedAt)
	require.Len(t, f.events, 1)
	assert.Equal(t, propertyID.String(), f.events[0].RecordID)
}

func TestModerationService_RejectProviderScenario(t *testing.T) {
	f := newModerationFixture(t, false)
	admin := Actor{ID: uuid.New()}
	providerID, accountID := uuid.New(), uuid.New()
	const reason = "Incomplete documentation"

	f.expectProvider(`p.id = \$1`, providerID, providerID, accountID)
	f.mock.ExpectExec(`UPDATE accounts SET status = 'rejected', rejected_at = NOW\(\), rejected_by = \$2, rejection_reason = \$3, approved_at = NULL, approved_by = NULL`).
		WithArgs(accountID, admin.ID, reason).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec(`UPDATE providers SET approved_at = NULL, approved_by = NULL`).
		WithArgs(providerID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec(`INSERT INTO admin_activity_logs`).
		WithArgs(sqlmock.AnyArg(), admin.ID, models.ActionReject, models.TargetProvider, providerID,
			sqlmock.AnyArg(), containsArg(reason), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec(`INSERT INTO provider_notifications`).
		WithArgs(sqlmock.AnyArg(), accountID, models.NotificationProviderRejected, "Provider account rejected",
			containsArg(reason), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	result := f.svc.RejectProvider(context.Background(), admin, providerID, " "+reason+" ")

	require.True(t, result.Success, result.Message)
	assert.Equal(t, models.PathFallback, result.Path)
	require.Len(t, f.mailer.sent, 1)
	assert.Contains(t, f.mailer.sent[0].body, reason)

	// the approved listing filters on the account status the rejection changed
	f.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM providers p JOIN accounts a ON a.id = p.account_id WHERE .+a.status = \$1`).
		WithArgs("approved").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	f.mock.ExpectQuery(`SELECT .+ FROM providers p JOIN accounts a ON a.id = p.account_id WHERE .+a.status = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	page, err := database.NewProviderRepository(f.db).List(context.Background(), models.ProviderFilter{AccountStatus: "approved"})

	require.NoError(t, err)
	assert.Zero(t, page.Total)
	assert.Empty(t, page.Items)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestModerationService_ApproveAccountFallback(t *testing.T) {
	f := newModerationFixture(t, true)
	admin := Actor{ID: uuid.New(), IPAddress: "203.0.113.7"}
	accountID := uuid.New()

	f.expectAccount(accountID, "pending")
	f.mock.ExpectExec(`SELECT admin_approve_user`).
		WithArgs(accountID, admin.ID).
		WillReturnError(errors.New("function admin_approve_user(uuid, uuid) does not exist"))
	f.mock.ExpectExec(`UPDATE accounts SET status = 'approved'`).
		WithArgs(accountID, admin.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec(`INSERT INTO admin_activity_logs`).
		WithArgs(sqlmock.AnyArg(), admin.ID, models.ActionApprove, models.TargetUser, accountID,
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec(`INSERT INTO provider_notifications`).
		WithArgs(sqlmock.AnyArg(), accountID, models.NotificationAccountApproved, "Account approved",
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	result := f.svc.ApproveAccount(context.Background(), admin, accountID)

	require.True(t, result.Success, result.Message)
	assert.Equal(t, models.PathFallback, result.Path)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestModerationService_MissingProcedureIsLogged(t *testing.T) {
	f := newModerationFixture(t, true)
	logger, hook := logtest.NewNullLogger()
	f.svc.logger = logger
	admin := Actor{ID: uuid.New()}
	accountID := uuid.New()

	f.expectAccount(accountID, "pending")
	f.mock.ExpectExec(`SELECT admin_reject_user`).
		WillReturnError(&pgconn.PgError{Code: "42883", Message: "function admin_reject_user does not exist"})
	f.mock.ExpectExec(`UPDATE accounts SET status = 'rejected'`).WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec(`INSERT INTO admin_activity_logs`).WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec(`INSERT INTO provider_notifications`).WillReturnResult(sqlmock.NewResult(0, 1))

	result := f.svc.RejectAccount(context.Background(), admin, accountID, "Duplicate account")

	require.True(t, result.Success, result.Message)
	assert.Equal(t, models.PathFallback, result.Path)

	var procedure interface{}
	for _, entry := range hook.AllEntries() {
		if v, ok := entry.Data["procedure"]; ok {
			procedure = v
		}
	}
	assert.Equal(t, database.RPCRejectUser, procedure)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestModerationService_DirectPathWhenRPCDisabled(t *testing.T) {
	f := newModerationFixture(t, false)
	admin := Actor{ID: uuid.New()}
	accountID := uuid.New()

	f.expectAccount(accountID, "suspended")
	f.mock.ExpectExec(`UPDATE accounts SET status = 'approved', suspension_reason = NULL`).
		WithArgs(accountID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec(`INSERT INTO admin_activity_logs`).WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec(`INSERT INTO provider_notifications`).WillReturnResult(sqlmock.NewResult(0, 1))

	result := f.svc.ActivateAccount(context.Background(), admin, accountID)

	require.True(t, result.Success, result.Message)
	assert.Equal(t, models.PathFallback, result.Path)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestModerationService_BestEffortWritesDoNotFailAction(t *testing.T) {
	f := newModerationFixture(t, false)
	admin := Actor{ID: uuid.New()}
	accountID := uuid.New()

	f.expectAccount(accountID, "approved")
	f.mock.ExpectExec(`UPDATE accounts SET status = 'suspended'`).
		WithArgs(accountID, "Spam listings").
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec(`INSERT INTO admin_activity_logs`).WillReturnError(errors.New("disk full"))
	f.mock.ExpectExec(`INSERT INTO provider_notifications`).WillReturnError(errors.New("disk full"))

	result := f.svc.SuspendAccount(context.Background(), admin, accountID, "  Spam listings ")

	require.True(t, result.Success, result.Message)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestModerationService_RejectRequiresReason(t *testing.T) {
	f := newModerationFixture(t, true)
	admin := Actor{ID: uuid.New()}
	id := uuid.New()

	tests := []struct {
		name string
		run  func() models.ActionResult
	}{
		{"property", func() models.ActionResult { return f.svc.RejectProperty(context.Background(), admin, id, "") }},
		{"property whitespace", func() models.ActionResult { return f.svc.RejectProperty(context.Background(), admin, id, "   ") }},
		{"account", func() models.ActionResult { return f.svc.RejectAccount(context.Background(), admin, id, "") }},
		{"suspend", func() models.ActionResult { return f.svc.SuspendAccount(context.Background(), admin, id, "") }},
		{"provider", func() models.ActionResult { return f.svc.RejectProvider(context.Background(), admin, id, "") }},
		{"plan", func() models.ActionResult { return f.svc.RejectPlan(context.Background(), admin, id, "\t") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.run()
			assert.False(t, result.Success)
			assert.Equal(t, models.CodeValidationError, result.Code)
		})
	}
	// nothing reached the database
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestModerationService_NotFound(t *testing.T) {
	f := newModerationFixture(t, true)
	id := uuid.New()

	f.mock.ExpectQuery(`SELECT .+ FROM properties p WHERE p.id = \$1`).
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)

	result := f.svc.ApproveProperty(context.Background(), Actor{ID: uuid.New()}, id)

	assert.False(t, result.Success)
	assert.Equal(t, models.CodeNotFound, result.Code)
	assert.Equal(t, "Property not found", result.Message)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestModerationService_DeletedAccountIsNotFound(t *testing.T) {
	f := newModerationFixture(t, true)
	id := uuid.New()

	f.mock.ExpectQuery(`SELECT .+ FROM accounts WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "status", "deleted_at"}).
			AddRow(id.String(), "gone@example.com", "approved", time.Now().Add(-time.Hour)))

	result := f.svc.DeleteAccount(context.Background(), Actor{ID: uuid.New()}, id, nil)

	assert.Equal(t, models.CodeNotFound, result.Code)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestModerationService_InvalidTransition(t *testing.T) {
	t.Run("Suspend pending account", func(t *testing.T) {
		f := newModerationFixture(t, true)
		id := uuid.New()
		f.expectAccount(id, "pending")

		result := f.svc.SuspendAccount(context.Background(), Actor{ID: uuid.New()}, id, "abuse")

		assert.Equal(t, models.CodeInvalidTransition, result.Code)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("Feature pending property", func(t *testing.T) {
		f := newModerationFixture(t, true)
		id, providerID := uuid.New(), uuid.New()
		f.expectProperty(id, providerID, "pending")
		f.expectProvider(`p.id = \$1`, providerID, providerID, uuid.New())

		result := f.svc.FeatureProperty(context.Background(), Actor{ID: uuid.New()}, id, true)

		assert.Equal(t, models.CodeInvalidTransition, result.Code)
		assert.Contains(t, result.Message, "pending")
	})

	t.Run("Approve published property", func(t *testing.T) {
		f := newModerationFixture(t, true)
		id, providerID := uuid.New(), uuid.New()
		f.expectProperty(id, providerID, "published")
		f.expectProvider(`p.id = \$1`, providerID, providerID, uuid.New())

		result := f.svc.ApproveProperty(context.Background(), Actor{ID: uuid.New()}, id)

		assert.Equal(t, models.CodeInvalidTransition, result.Code)
		assert.Empty(t, f.index.indexed)
		assert.Empty(t, f.events)
	})
}

func TestModerationService_SelfModerationRejected(t *testing.T) {
	f := newModerationFixture(t, true)
	admin := Actor{ID: uuid.New()}

	assert.Equal(t, models.CodeValidationError, f.svc.SuspendAccount(context.Background(), admin, admin.ID, "x").Code)
	assert.Equal(t, models.CodeValidationError, f.svc.DeleteAccount(context.Background(), admin, admin.ID, nil).Code)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestModerationService_FallbackUpdateErrors(t *testing.T) {
	t.Run("No rows affected", func(t *testing.T) {
		f := newModerationFixture(t, true)
		id, providerID := uuid.New(), uuid.New()
		f.expectProperty(id, providerID, "published")
		f.expectProvider(`p.id = \$1`, providerID, providerID, uuid.New())
		f.mock.ExpectExec(`SELECT admin_reject_property`).WillReturnError(errors.New("rpc unavailable"))
		f.mock.ExpectExec(`UPDATE properties SET status = 'rejected'`).
			WithArgs(id, sqlmock.AnyArg(), "Blurry photos").
			WillReturnResult(sqlmock.NewResult(0, 0))

		result := f.svc.RejectProperty(context.Background(), Actor{ID: uuid.New()}, id, "Blurry photos")

		assert.Equal(t, models.CodeNotFound, result.Code)
		assert.Empty(t, f.index.removed)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("Update error", func(t *testing.T) {
		f := newModerationFixture(t, true)
		id, providerID := uuid.New(), uuid.New()
		f.expectProperty(id, providerID, "published")
		f.expectProvider(`p.id = \$1`, providerID, providerID, uuid.New())
		f.mock.ExpectExec(`SELECT admin_reject_property`).WillReturnError(errors.New("rpc unavailable"))
		f.mock.ExpectExec(`UPDATE properties SET status = 'rejected'`).WillReturnError(errors.New("connection reset"))

		result := f.svc.RejectProperty(context.Background(), Actor{ID: uuid.New()}, id, "Blurry photos")

		assert.Equal(t, models.CodeUpdateFailed, result.Code)
		assert.Contains(t, result.Error, "connection reset")
	})
}

func TestModerationService_RejectPropertyRemovesFromIndex(t *testing.T) {
	f := newModerationFixture(t, true)
	admin := Actor{ID: uuid.New()}
	id, providerID := uuid.New(), uuid.New()

	f.expectProperty(id, providerID, "published")
	f.expectProvider(`p.id = \$1`, providerID, providerID, uuid.New())
	f.mock.ExpectExec(`SELECT admin_reject_property\(\$1, \$2, \$3\)`).
		WithArgs(id, admin.ID, "Duplicate listing").
		WillReturnResult(sqlmock.NewResult(0, 1))

	result := f.svc.RejectProperty(context.Background(), admin, id, "Duplicate listing")

	require.True(t, result.Success)
	assert.Equal(t, []uuid.UUID{id}, f.index.removed)
	require.Len(t, f.mailer.sent, 1)
	assert.Contains(t, f.mailer.sent[0].body, "Duplicate listing")
}

func TestModerationService_ArchivePlanSkipsRPC(t *testing.T) {
	f := newModerationFixture(t, true)
	id := uuid.New()

	f.mock.ExpectQuery(`SELECT .+ FROM architectural_plans`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "status"}).AddRow(id.String(), "Two storey", "published"))
	f.mock.ExpectExec(`UPDATE architectural_plans SET status = 'archived'`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec(`INSERT INTO admin_activity_logs`).WillReturnResult(sqlmock.NewResult(0, 1))

	result := f.svc.ArchivePlan(context.Background(), Actor{ID: uuid.New()}, id)

	require.True(t, result.Success, result.Message)
	assert.Equal(t, models.PathFallback, result.Path)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestModerationService_ResubmitProperty(t *testing.T) {
	t.Run("Owner resubmits rejected listing", func(t *testing.T) {
		f := newModerationFixture(t, true)
		owner := Actor{ID: uuid.New()}
		id, providerID := uuid.New(), uuid.New()

		f.expectProperty(id, providerID, "rejected")
		f.expectProvider(`p.account_id = \$1`, owner.ID, providerID, owner.ID)
		f.mock.ExpectExec(`UPDATE properties SET status = 'pending'`).
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 1))
		f.mock.ExpectExec(`INSERT INTO system_notifications`).
			WithArgs(sqlmock.AnyArg(), nil, models.NotificationResubmitted, sqlmock.AnyArg(), sqlmock.AnyArg(),
				models.SeverityInfo, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		result := f.svc.ResubmitProperty(context.Background(), owner, id)

		require.True(t, result.Success, result.Message)
		assert.NoError(t, f.mock.ExpectationsWereMet())
		require.Len(t, f.events, 1)
		assert.Equal(t, realtime.ChannelSystemNotifications, f.events[0].Table)
	})

	t.Run("Other owner sees not found", func(t *testing.T) {
		f := newModerationFixture(t, true)
		owner := Actor{ID: uuid.New()}
		id := uuid.New()

		f.expectProperty(id, uuid.New(), "rejected")
		f.expectProvider(`p.account_id = \$1`, owner.ID, uuid.New(), owner.ID)

		result := f.svc.ResubmitProperty(context.Background(), owner, id)

		assert.Equal(t, models.CodeNotFound, result.Code)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("Published listing cannot be resubmitted", func(t *testing.T) {
		f := newModerationFixture(t, true)
		owner := Actor{ID: uuid.New()}
		id, providerID := uuid.New(), uuid.New()

		f.expectProperty(id, providerID, "published")
		f.expectProvider(`p.account_id = \$1`, owner.ID, providerID, owner.ID)

		result := f.svc.ResubmitProperty(context.Background(), owner, id)

		assert.Equal(t, models.CodeInvalidTransition, result.Code)
	})
}
