package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/estatehub/marketplace-backend/internal/config"
	"github.com/estatehub/marketplace-backend/internal/database"
	"github.com/estatehub/marketplace-backend/internal/models"
	"github.com/estatehub/marketplace-backend/internal/realtime"
	"github.com/estatehub/marketplace-backend/pkg/jwt"
	"github.com/estatehub/marketplace-backend/pkg/validator"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthService(t *testing.T, feed realtime.Publisher) (*AuthService, sqlmock.Sqlmock, *jwt.Service) {
	db, mock := newMockDB(t)
	return newAuthServiceOn(db, feed), mock, jwtServiceForTests()
}

func jwtServiceForTests() *jwt.Service {
	return jwt.NewService("access-secret-for-tests", "refresh-secret-for-tests", 15*time.Minute, 24*time.Hour)
}

func newAuthServiceOn(db database.DB, feed realtime.Publisher) *AuthService {
	jwtService := jwtServiceForTests()
	return NewAuthService(
		database.NewAccountRepository(db),
		database.NewProviderRepository(db),
		database.NewRefreshTokenRepository(db),
		jwtService,
		NewNotificationService(database.NewProviderNotificationRepository(db), database.NewSystemNotificationRepository(db)),
		feed,
		config.SecurityConfig{BcryptCost: bcrypt.MinCost, ProfileFetchTimeout: 50 * time.Millisecond},
		quietLogger(),
	)
}

func accountRows(id uuid.UUID, email, password, role, status string) *sqlmock.Rows {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return sqlmock.NewRows([]string{"id", "email", "password_hash", "display_name", "role", "status", "created_at", "updated_at", "login_count"}).
		AddRow(id.String(), email, string(hash), "Test Person", role, status, time.Now(), time.Now(), 3)
}

func TestAuthService_SignIn(t *testing.T) {
	client := Actor{IPAddress: "198.51.100.4", UserAgent: "Mozilla/5.0"}

	t.Run("Success", func(t *testing.T) {
		svc, mock, jwtService := newAuthService(t, nil)
		id := uuid.New()

		mock.ExpectQuery(`FROM accounts WHERE lower\(email\) = lower\(\$1\) AND deleted_at IS NULL`).
			WithArgs("admin@example.com").
			WillReturnRows(accountRows(id, "admin@example.com", "correct horse", "admin", "approved"))
		mock.ExpectExec(`UPDATE accounts SET last_login_at = NOW\(\)`).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO refresh_tokens`).
			WithArgs(sqlmock.AnyArg(), id, sqlmock.AnyArg(), "198.51.100.4", "Mozilla/5.0", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		session, err := svc.SignIn(context.Background(), models.SignInRequest{Email: "  Admin@Example.com ", Password: "correct horse"}, client)

		require.NoError(t, err)
		assert.Equal(t, "Bearer", session.TokenType)
		assert.Equal(t, int64(900), session.ExpiresIn)

		claims, err := jwtService.ValidateAccessToken(session.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, id, claims.AccountID)
		assert.Equal(t, "admin", claims.Role)
		assert.Equal(t, "approved", claims.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Wrong password", func(t *testing.T) {
		svc, mock, _ := newAuthService(t, nil)
		mock.ExpectQuery(`FROM accounts WHERE lower\(email\)`).
			WillReturnRows(accountRows(uuid.New(), "a@example.com", "right password", "user", "approved"))

		_, err := svc.SignIn(context.Background(), models.SignInRequest{Email: "a@example.com", Password: "wrong password"}, client)

		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("Unknown or deleted email", func(t *testing.T) {
		svc, mock, _ := newAuthService(t, nil)
		mock.ExpectQuery(`FROM accounts WHERE lower\(email\)`).WillReturnError(sql.ErrNoRows)

		_, err := svc.SignIn(context.Background(), models.SignInRequest{Email: "gone@example.com", Password: "whatever"}, client)

		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("Suspended", func(t *testing.T) {
		svc, mock, _ := newAuthService(t, nil)
		mock.ExpectQuery(`FROM accounts WHERE lower\(email\)`).
			WillReturnRows(accountRows(uuid.New(), "s@example.com", "password1", "provider", "suspended"))

		_, err := svc.SignIn(context.Background(), models.SignInRequest{Email: "s@example.com", Password: "password1"}, client)

		assert.ErrorIs(t, err, ErrAccountSuspended)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Throttled", func(t *testing.T) {
		db, mock := newMockDB(t)
		svc := newAuthServiceOn(db, nil).WithRateLimiter(NewRateLimitService(db))

		mock.ExpectQuery("SELECT COUNT(.+) FROM rate_limit_events").
			WithArgs(RateActionSignIn, "a@example.com", "email", sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"count", "created_at"}).AddRow(5, time.Now()))

		_, err := svc.SignIn(context.Background(), models.SignInRequest{Email: "a@example.com", Password: "whatever"}, client)

		var limited *RateLimitError
		assert.ErrorAs(t, err, &limited)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failed attempt is recorded", func(t *testing.T) {
		db, mock := newMockDB(t)
		svc := newAuthServiceOn(db, nil).WithRateLimiter(NewRateLimitService(db))

		mock.ExpectQuery("SELECT COUNT(.+) FROM rate_limit_events").
			WillReturnRows(sqlmock.NewRows([]string{"count", "created_at"}).AddRow(0, time.Now()))
		mock.ExpectQuery("SELECT COUNT(.+) FROM rate_limit_events").
			WillReturnRows(sqlmock.NewRows([]string{"count", "created_at"}).AddRow(0, time.Now()))
		mock.ExpectQuery(`FROM accounts WHERE lower\(email\)`).WillReturnError(sql.ErrNoRows)
		mock.ExpectExec("INSERT INTO rate_limit_events").
			WithArgs(RateActionSignIn, "a@example.com", "email").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO rate_limit_events").
			WithArgs(RateActionSignIn, "198.51.100.4", "ip").
			WillReturnResult(sqlmock.NewResult(1, 1))

		_, err := svc.SignIn(context.Background(), models.SignInRequest{Email: "a@example.com", Password: "whatever"}, client)

		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Invalid request", func(t *testing.T) {
		svc, _, _ := newAuthService(t, nil)

		_, err := svc.SignIn(context.Background(), models.SignInRequest{Email: "not-an-email"}, client)

		var verr *validator.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Len(t, verr.Fields, 2)
	})
}

func TestAuthService_SignUpProvider(t *testing.T) {
	feed := realtime.NewMemoryFeed()
	var published []realtime.Event
	_, err := feed.Subscribe(context.Background(), realtime.ChannelSystemNotifications, func(ev realtime.Event) {
		published = append(published, ev)
	}, func(error) {})
	require.NoError(t, err)

	svc, mock, _ := newAuthService(t, feed)

	mock.ExpectQuery(`FROM accounts WHERE lower\(email\)`).WithArgs("owner@example.com").WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO accounts`).
		WithArgs(sqlmock.AnyArg(), "owner@example.com", sqlmock.AnyArg(), "Nimal Perera", models.RoleProvider, models.AccountPending,
			sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO providers`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "Lanka Homes", "owner@example.com", "0771234567", "Colombo",
			models.SubscriptionInactive, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO system_notifications`).
		WithArgs(sqlmock.AnyArg(), nil, models.NotificationNewRegistration, sqlmock.AnyArg(), sqlmock.AnyArg(),
			models.SeverityInfo, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO refresh_tokens`).WillReturnResult(sqlmock.NewResult(0, 1))

	session, err := svc.SignUp(context.Background(), models.SignUpRequest{
		Email:         "Owner@Example.com",
		Password:      "long enough password",
		DisplayName:   "Nimal Perera",
		Role:          models.RoleProvider,
		BusinessName:  "Lanka Homes",
		BusinessPhone: "+94 77 123 4567",
		City:          "Colombo",
	}, Actor{})

	require.NoError(t, err)
	assert.Equal(t, models.AccountPending, session.Account.Status)
	assert.NotEmpty(t, session.Account.PasswordHash)
	require.Len(t, published, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthService_SignUpRejections(t *testing.T) {
	t.Run("Email taken", func(t *testing.T) {
		svc, mock, _ := newAuthService(t, nil)
		mock.ExpectQuery(`FROM accounts WHERE lower\(email\)`).
			WillReturnRows(accountRows(uuid.New(), "taken@example.com", "x", "user", "approved"))

		_, err := svc.SignUp(context.Background(), models.SignUpRequest{
			Email: "taken@example.com", Password: "password123", DisplayName: "Taken", Role: models.RoleUser,
		}, Actor{})

		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("Provider without business name", func(t *testing.T) {
		svc, mock, _ := newAuthService(t, nil)

		_, err := svc.SignUp(context.Background(), models.SignUpRequest{
			Email: "p@example.com", Password: "password123", DisplayName: "Provider", Role: models.RoleProvider,
		}, Actor{})

		var verr *validator.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "business_name", verr.Fields[0].Field)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Admin role cannot self-register", func(t *testing.T) {
		svc, _, _ := newAuthService(t, nil)

		_, err := svc.SignUp(context.Background(), models.SignUpRequest{
			Email: "a@example.com", Password: "password123", DisplayName: "Admin", Role: models.RoleAdmin,
		}, Actor{})

		var verr *validator.ValidationError
		assert.True(t, errors.As(err, &verr))
	})
}

func TestAuthService_Refresh(t *testing.T) {
	t.Run("Rotates the token", func(t *testing.T) {
		svc, mock, jwtService := newAuthService(t, nil)
		id := uuid.New()
		token, err := jwtService.GenerateRefreshToken(id, "u@example.com")
		require.NoError(t, err)

		mock.ExpectQuery(`FROM refresh_tokens WHERE token_hash = \$1`).
			WithArgs(database.HashToken(token)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "token_hash", "created_at", "expires_at", "revoked"}).
				AddRow(uuid.NewString(), id.String(), database.HashToken(token), time.Now(), time.Now().Add(time.Hour), false))
		mock.ExpectQuery(`FROM accounts WHERE id = \$1`).
			WithArgs(id).
			WillReturnRows(accountRows(id, "u@example.com", "pw", "user", "approved"))
		mock.ExpectExec(`UPDATE refresh_tokens SET revoked = TRUE`).
			WithArgs(database.HashToken(token)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO refresh_tokens`).WillReturnResult(sqlmock.NewResult(0, 1))

		session, err := svc.Refresh(context.Background(), token, Actor{})

		require.NoError(t, err)
		assert.NotEqual(t, token, session.RefreshToken)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Revoked token", func(t *testing.T) {
		svc, mock, jwtService := newAuthService(t, nil)
		id := uuid.New()
		token, _ := jwtService.GenerateRefreshToken(id, "u@example.com")

		mock.ExpectQuery(`FROM refresh_tokens`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "token_hash", "created_at", "expires_at", "revoked"}).
				AddRow(uuid.NewString(), id.String(), "h", time.Now(), time.Now().Add(time.Hour), true))

		_, err := svc.Refresh(context.Background(), token, Actor{})

		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	})

	t.Run("Access token is not a refresh token", func(t *testing.T) {
		svc, _, jwtService := newAuthService(t, nil)
		access, _ := jwtService.GenerateAccessToken(jwt.Identity{AccountID: uuid.New(), Role: "user"})

		_, err := svc.Refresh(context.Background(), access, Actor{})

		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	})
}

func TestAuthService_CurrentProfile(t *testing.T) {
	identity := jwt.Identity{AccountID: uuid.New(), Email: "p@example.com", DisplayName: "From Token", Role: "provider", Status: "approved"}

	t.Run("Loads the account and provider", func(t *testing.T) {
		svc, mock, _ := newAuthService(t, nil)
		mock.ExpectQuery(`FROM accounts WHERE id = \$1`).
			WillReturnRows(accountRows(identity.AccountID, "p@example.com", "pw", "provider", "approved"))
		mock.ExpectQuery(`FROM providers p JOIN accounts a ON a.id = p.account_id WHERE p.account_id = \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "business_name"}).
				AddRow(uuid.NewString(), identity.AccountID.String(), "Lanka Homes"))

		profile, err := svc.CurrentProfile(context.Background(), identity)

		require.NoError(t, err)
		assert.Equal(t, "profile", profile.Source)
		require.NotNil(t, profile.Provider)
		assert.Equal(t, "Lanka Homes", profile.Provider.BusinessName)
	})

	t.Run("Slow lookup falls back to token metadata", func(t *testing.T) {
		svc, mock, _ := newAuthService(t, nil)
		mock.ExpectQuery(`FROM accounts WHERE id = \$1`).
			WillDelayFor(time.Second).
			WillReturnRows(accountRows(identity.AccountID, "p@example.com", "pw", "provider", "approved"))

		start := time.Now()
		profile, err := svc.CurrentProfile(context.Background(), identity)

		require.NoError(t, err)
		assert.Less(t, time.Since(start), 500*time.Millisecond)
		assert.Equal(t, "token", profile.Source)
		assert.Equal(t, "From Token", profile.DisplayName)
		assert.Equal(t, models.RoleProvider, profile.Role)
	})

	t.Run("Lookup error falls back", func(t *testing.T) {
		svc, mock, _ := newAuthService(t, nil)
		mock.ExpectQuery(`FROM accounts`).WillReturnError(errors.New("connection refused"))

		profile, err := svc.CurrentProfile(context.Background(), identity)

		require.NoError(t, err)
		assert.Equal(t, "token", profile.Source)
	})

	t.Run("Deleted account", func(t *testing.T) {
		svc, mock, _ := newAuthService(t, nil)
		mock.ExpectQuery(`FROM accounts`).WillReturnError(sql.ErrNoRows)

		_, err := svc.CurrentProfile(context.Background(), identity)

		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestAuthService_ConfirmEmail(t *testing.T) {
	t.Run("provider moves to pending review", func(t *testing.T) {
		db, mock := newMockDB(t)
		svc := newAuthServiceOn(db, nil).WithConfirmations(NewConfirmationService(db), nil)
		accountID, recordID := uuid.New(), uuid.New()

		mock.ExpectQuery(`FROM accounts WHERE lower\(email\) = lower\(\$1\)`).
			WithArgs("owner@example.com").
			WillReturnRows(accountRows(accountID, "owner@example.com", "whatever1", "provider", "email_unconfirmed"))
		mock.ExpectQuery(`FROM email_confirmations`).
			WithArgs(accountID).
			WillReturnRows(sqlmock.NewRows(confirmationColumns).
				AddRow(recordID.String(), accountID.String(), hashCode("042917"), time.Now(), time.Now().Add(time.Minute), false, nil, 0, MaxConfirmationAttempts, nil, nil))
		mock.ExpectExec(`UPDATE email_confirmations SET attempts`).WithArgs(recordID).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE email_confirmations SET verified = TRUE, verified_at`).WithArgs(recordID, sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE accounts SET status = \$2`).WithArgs(accountID, models.AccountPending).WillReturnResult(sqlmock.NewResult(0, 1))

		account, err := svc.ConfirmEmail(context.Background(), models.ConfirmEmailRequest{Email: "owner@example.com", Code: "042917"})

		require.NoError(t, err)
		assert.Equal(t, models.AccountPending, account.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already confirmed", func(t *testing.T) {
		db, mock := newMockDB(t)
		svc := newAuthServiceOn(db, nil).WithConfirmations(NewConfirmationService(db), nil)

		mock.ExpectQuery(`FROM accounts WHERE lower\(email\) = lower\(\$1\)`).
			WithArgs("buyer@example.com").
			WillReturnRows(accountRows(uuid.New(), "buyer@example.com", "whatever1", "user", "approved"))

		_, err := svc.ConfirmEmail(context.Background(), models.ConfirmEmailRequest{Email: "buyer@example.com", Code: "123456"})
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("malformed code", func(t *testing.T) {
		db, mock := newMockDB(t)
		svc := newAuthServiceOn(db, nil).WithConfirmations(NewConfirmationService(db), nil)

		_, err := svc.ConfirmEmail(context.Background(), models.ConfirmEmailRequest{Email: "buyer@example.com", Code: "12ab"})

		var verr *validator.ValidationError
		assert.True(t, errors.As(err, &verr))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAuthService_ResendConfirmation(t *testing.T) {
	db, mock := newMockDB(t)
	mailer := &recordingMailer{}
	svc := newAuthServiceOn(db, nil).WithConfirmations(NewConfirmationService(db), mailer)
	accountID := uuid.New()

	mock.ExpectQuery(`FROM accounts WHERE lower\(email\) = lower\(\$1\)`).
		WithArgs("buyer@example.com").
		WillReturnRows(accountRows(accountID, "buyer@example.com", "whatever1", "user", "email_unconfirmed"))
	mock.ExpectExec(`UPDATE email_confirmations SET verified = TRUE WHERE account_id`).WithArgs(accountID).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO email_confirmations`).WillReturnResult(sqlmock.NewResult(1, 1))

	err := svc.ResendConfirmation(context.Background(), models.ResendConfirmationRequest{Email: "Buyer@Example.com"}, Actor{})

	require.NoError(t, err)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "buyer@example.com", mailer.sent[0].to)
	assert.Regexp(t, `code is [0-9]{6}\.`, mailer.sent[0].body)
	assert.NoError(t, mock.ExpectationsWereMet())
}
