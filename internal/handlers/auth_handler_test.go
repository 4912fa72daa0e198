package handlers

import (
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/estatehub/marketplace-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthHandler_SignInValidation(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(http.MethodPost, "/api/v1/auth/sign-in", "", map[string]string{"email": "not-an-email"})

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body ErrorResponse
	decode(t, w, &body)
	assert.Equal(t, "validation_error", body.Error)
	assert.NotEmpty(t, body.Fields)
	assert.NoError(t, srv.mock.ExpectationsWereMet())
}

func TestAuthHandler_SignInUnknownEmail(t *testing.T) {
	srv := newTestServer(t)

	srv.mock.ExpectQuery(`FROM accounts WHERE lower\(email\) = lower\(\$1\)`).
		WithArgs("nobody@estatehub.lk").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	w := srv.do(http.MethodPost, "/api/v1/auth/sign-in", "", map[string]string{
		"email":    "Nobody@EstateHub.lk",
		"password": "secret-password",
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NoError(t, srv.mock.ExpectationsWereMet())
}

func TestAuthHandler_MalformedBody(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(http.MethodPost, "/api/v1/auth/refresh", "", "just a string")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_MeRequiresToken(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(http.MethodGet, "/api/v1/auth/me", "", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMeRoutes_SuspendedToken(t *testing.T) {
	srv := newTestServer(t)
	token, _ := srv.token(t, models.RoleUser, models.AccountSuspended)

	w := srv.do(http.MethodGet, "/api/v1/me/progress", token, nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "ACCOUNT_SUSPENDED")
}

func TestAuthHandler_ConfirmEmailUnknownAddress(t *testing.T) {
	srv := newTestServer(t)

	srv.mock.ExpectQuery(`FROM accounts WHERE lower\(email\) = lower\(\$1\)`).
		WithArgs("ghost@estatehub.lk").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	w := srv.do(http.MethodPost, "/api/v1/auth/confirm-email", "", map[string]string{
		"email": "ghost@estatehub.lk",
		"code":  "123456",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_CONFIRMATION_CODE")
	assert.NoError(t, srv.mock.ExpectationsWereMet())
}
