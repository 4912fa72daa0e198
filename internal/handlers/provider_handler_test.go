package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/estatehub/marketplace-backend/internal/models"
	"github.com/estatehub/marketplace-backend/internal/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderRoutes_PendingProviderBlocked(t *testing.T) {
	srv := newTestServer(t)
	token, accountID := srv.token(t, models.RoleProvider, models.AccountPending)

	srv.mock.ExpectQuery(`FROM providers p JOIN accounts a ON a.id = p.account_id WHERE p.account_id = \$1`).
		WithArgs(accountID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "business_name", "account_status"}).
			AddRow(uuid.NewString(), accountID.String(), "Lanka Homes", "pending"))

	w := srv.do(http.MethodGet, "/api/v1/provider/plans", token, nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "PROVIDER_NOT_APPROVED")
	assert.NoError(t, srv.mock.ExpectationsWereMet())
}

func TestProviderRoutes_UserRoleBlocked(t *testing.T) {
	srv := newTestServer(t)
	token, _ := srv.token(t, models.RoleUser, models.AccountApproved)

	w := srv.do(http.MethodGet, "/api/v1/provider/properties", token, nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.NoError(t, srv.mock.ExpectationsWereMet())
}

func TestProviderHandler_Progress(t *testing.T) {
	srv := newTestServer(t)
	token, accountID := srv.token(t, models.RoleProvider, models.AccountApproved)

	_, err := srv.rewards.RecordAchievementProgress(context.Background(), accountID, "first_listing", 1)
	require.NoError(t, err)

	w := srv.do(http.MethodGet, "/api/v1/me/progress", token, nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var progress services.Progress
	decode(t, w, &progress)
	assert.Equal(t, accountID, progress.AccountID)
	require.Len(t, progress.Achievements, 1)
	assert.Equal(t, "first_listing", progress.Achievements[0].Key)
}

func TestProviderHandler_MarkForeignNotificationRead(t *testing.T) {
	srv := newTestServer(t)
	token, accountID := srv.token(t, models.RoleProvider, models.AccountApproved)
	notificationID := uuid.New()

	srv.mock.ExpectExec(`UPDATE provider_notifications SET is_read = TRUE`).
		WithArgs(notificationID, accountID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	w := srv.do(http.MethodPost, "/api/v1/me/notifications/"+notificationID.String()+"/read", token, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NoError(t, srv.mock.ExpectationsWereMet())
}
