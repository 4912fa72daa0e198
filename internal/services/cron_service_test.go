package services

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/estatehub/marketplace-backend/internal/database"
	"github.com/estatehub/marketplace-backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCronFixture(t *testing.T) (*CronService, sqlmock.Sqlmock, *recordingMailer) {
	db, mock := newMockDB(t)
	mailer := &recordingMailer{}
	svc := NewCronService(CronDependencies{
		Providers: database.NewProviderRepository(db),
		Tokens:    database.NewRefreshTokenRepository(db),
		Notifications: NewNotificationService(
			database.NewProviderNotificationRepository(db),
			database.NewSystemNotificationRepository(db),
		),
		Limiter: NewRateLimitService(db),
		Mailer:  mailer,
		Logger:  quietLogger(),
	})
	return svc, mock, mailer
}

func TestCronService_ExpireSubscriptions(t *testing.T) {
	svc, mock, mailer := newCronFixture(t)
	providerID, ownerID := uuid.New(), uuid.New()

	mock.ExpectQuery(`UPDATE providers SET subscription_status = 'expired'`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "business_name", "business_email", "subscription_plan"}).
			AddRow(providerID.String(), ownerID.String(), "Lanka Homes", "office@lankahomes.lk", "premium"))
	mock.ExpectExec(`INSERT INTO provider_notifications`).
		WithArgs(sqlmock.AnyArg(), ownerID, models.NotificationSubscriptionEnded, "Subscription expired", sqlmock.AnyArg(),
			models.TargetProvider, providerID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	run, err := svc.RunNow(jobExpireSubscriptions)

	require.NoError(t, err)
	assert.Empty(t, run.Error)
	assert.Equal(t, int64(1), run.Affected)
	assert.NoError(t, mock.ExpectationsWereMet())
	require.Len(t, mailer.sent, 1)
	assert.Contains(t, mailer.sent[0].body, "premium subscription for Lanka Homes")
}

func TestCronService_NotifyFailureDoesNotFailJob(t *testing.T) {
	svc, mock, _ := newCronFixture(t)
	mock.ExpectQuery(`UPDATE providers`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "business_name"}).
			AddRow(uuid.NewString(), uuid.NewString(), "Lanka Homes"))
	mock.ExpectExec(`INSERT INTO provider_notifications`).WillReturnError(errors.New("connection reset"))

	run, err := svc.RunNow(jobExpireSubscriptions)

	require.NoError(t, err)
	assert.Empty(t, run.Error)
	assert.Equal(t, int64(1), run.Affected)
}

func TestCronService_CleanupTokens(t *testing.T) {
	svc, mock, _ := newCronFixture(t)
	mock.ExpectExec(`DELETE FROM refresh_tokens`).WillReturnResult(sqlmock.NewResult(0, 12))

	run, err := svc.RunNow(jobCleanupTokens)

	require.NoError(t, err)
	assert.Equal(t, int64(12), run.Affected)
}

func TestCronService_FailedJobIsReported(t *testing.T) {
	svc, mock, _ := newCronFixture(t)
	mock.ExpectExec(`DELETE FROM rate_limit_events`).WillReturnError(errors.New("relation does not exist"))

	run, err := svc.RunNow(jobCleanupRateLimits)

	require.NoError(t, err)
	assert.Contains(t, run.Error, "relation does not exist")
}

func TestCronService_ReindexWithoutSearchIsNoop(t *testing.T) {
	svc, mock, _ := newCronFixture(t)

	run, err := svc.RunNow(jobReindexSearch)

	require.NoError(t, err)
	assert.Zero(t, run.Affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCronService_UnknownJob(t *testing.T) {
	svc, _, _ := newCronFixture(t)

	_, err := svc.RunNow("generate_trips")

	assert.Error(t, err)
}

func TestCronService_JobStatus(t *testing.T) {
	svc, mock, _ := newCronFixture(t)
	mock.ExpectExec(`DELETE FROM refresh_tokens`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, svc.Start())
	defer svc.Stop()
	_, err := svc.RunNow(jobCleanupTokens)
	require.NoError(t, err)

	status := svc.GetJobStatus()

	assert.Equal(t, true, status["running"])
	assert.Equal(t, 5, status["job_count"])
	jobs := status["jobs"].([]map[string]interface{})
	var reported bool
	for _, job := range jobs {
		if job["name"] == jobCleanupTokens {
			_, reported = job["last_result"]
		}
	}
	assert.True(t, reported)
}
