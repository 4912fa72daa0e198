package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/estatehub/marketplace-backend/internal/config"
	"github.com/estatehub/marketplace-backend/internal/database"
	"github.com/estatehub/marketplace-backend/internal/models"
	"github.com/estatehub/marketplace-backend/internal/services"
	"github.com/estatehub/marketplace-backend/pkg/jwt"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// testServer is the full route tree over one mocked database
type testServer struct {
	engine  *gin.Engine
	mock    sqlmock.Sqlmock
	jwt     *jwt.Service
	health  *services.HealthService
	rewards *services.GamificationService
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestServer(t *testing.T) *testServer {
	gin.SetMode(gin.TestMode)
	logrus.SetOutput(io.Discard)

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	db := &database.PostgresDB{DB: sqlx.NewDb(sqlDB, "sqlmock")}
	logger := quietLogger()

	jwtService := jwt.NewService("handler-access-secret-123456789", "handler-refresh-secret-123456789", time.Hour, 24*time.Hour)

	accounts := database.NewAccountRepository(db)
	providers := database.NewProviderRepository(db)
	properties := database.NewPropertyRepository(db)
	children := database.NewPropertyChildRepository(db)
	plans := database.NewPlanRepository(db)
	notifications := services.NewNotificationService(
		database.NewProviderNotificationRepository(db),
		database.NewSystemNotificationRepository(db),
	)
	audit := services.NewAuditService(database.NewActivityLogRepository(db))
	analytics := services.NewAnalyticsService(database.NewAnalyticsRepository(db), config.AnalyticsConfig{DefaultWindowDays: 30}, logger)
	rewards := services.NewGamificationService(services.NewMemoryProgressStore(), logger)
	health := services.NewHealthService()

	authService := services.NewAuthService(accounts, providers, database.NewRefreshTokenRepository(db), jwtService,
		notifications, nil, config.SecurityConfig{BcryptCost: 4, ProfileFetchTimeout: time.Second}, logger).
		WithConfirmations(services.NewConfirmationService(db), nil)
	moderation := services.NewModerationService(services.ModerationDependencies{
		Accounts:      accounts,
		Providers:     providers,
		Properties:    properties,
		Plans:         plans,
		RPC:           database.NewRPCRepository(db),
		Audit:         audit,
		Notifications: notifications,
		UseRPC:        true,
		Logger:        logger,
	})
	catalogue := services.NewCatalogueService(services.CatalogueDependencies{
		Properties:    properties,
		Children:      children,
		Engagement:    database.NewEngagementRepository(db),
		Plans:         plans,
		Providers:     providers,
		Notifications: notifications,
		Logger:        logger,
	})

	engine := gin.New()
	Router{
		JWT:       jwtService,
		Providers: providers,
		Health:    NewHealthHandler(health, "test"),
		Auth:      NewAuthHandler(authService, logger),
		Admin: NewAdminHandler(AdminDependencies{
			Moderation:    moderation,
			Analytics:     analytics,
			Notifications: notifications,
			Audit:         audit,
			Accounts:      accounts,
			Providers:     providers,
			Properties:    properties,
			Children:      children,
			Plans:         plans,
		}),
		Provider: NewProviderHandler(ProviderDependencies{
			Plans:         services.NewPlanService(plans, providers, notifications, nil, rewards, logger),
			Moderation:    moderation,
			Catalogue:     catalogue,
			Analytics:     analytics,
			Notifications: notifications,
			Rewards:       rewards,
		}),
		Catalogue: NewCatalogueHandler(catalogue),
	}.Register(engine)

	return &testServer{engine: engine, mock: mock, jwt: jwtService, health: health, rewards: rewards}
}

func (s *testServer) token(t *testing.T, role models.AccountRole, status models.AccountStatus) (string, uuid.UUID) {
	id := uuid.New()
	token, err := s.jwt.GenerateAccessToken(jwt.Identity{
		AccountID:   id,
		Email:       "kamal@estatehub.lk",
		DisplayName: "Kamal",
		Role:        string(role),
		Status:      string(status),
	})
	require.NoError(t, err)
	return token, id
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst), w.Body.String())
}
