package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/estatehub/marketplace-backend/internal/config"
	"github.com/estatehub/marketplace-backend/internal/database"
	"github.com/estatehub/marketplace-backend/internal/handlers"
	"github.com/estatehub/marketplace-backend/internal/middleware"
	"github.com/estatehub/marketplace-backend/internal/realtime"
	"github.com/estatehub/marketplace-backend/internal/services"
	"github.com/estatehub/marketplace-backend/internal/websocket"
	"github.com/estatehub/marketplace-backend/pkg/jwt"
	"github.com/estatehub/marketplace-backend/pkg/sms"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

const redisChannelPrefix = "estatehub:"

func main() {
	// Handlers and middleware log through the package-level logger
	logger := logrus.StandardLogger()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting EstateHub marketplace backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Database
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database, logger)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	if cfg.Database.RunMigrations {
		migrateCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		if err := database.RunMigrations(migrateCtx, db, logger); err != nil {
			cancel()
			logger.Fatalf("Failed to run migrations: %v", err)
		}
		cancel()
	}

	// Redis backs the redis change feed and the progress store
	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			logger.Fatalf("Invalid REDIS_URL: %v", err)
		}
		redisClient = redis.NewClient(opt)
		defer redisClient.Close()
		logger.Info("Redis client configured")
	}

	// Change feed. Under postgres the triggers announce every change, so
	// services do not publish themselves.
	var feed realtime.ChangeFeed
	var publisher realtime.Publisher
	switch cfg.Realtime.Driver {
	case "redis":
		redisFeed := realtime.NewRedisFeed(redisClient, redisChannelPrefix, logger)
		feed, publisher = redisFeed, redisFeed
	case "memory":
		memoryFeed := realtime.NewMemoryFeed()
		feed, publisher = memoryFeed, memoryFeed
	default:
		feed = realtime.NewPostgresFeed(cfg.Database.URL, db, logger)
	}
	logger.WithField("driver", cfg.Realtime.Driver).Info("Realtime change feed ready")

	// Object storage
	if !cfg.StorageEnabled() {
		logger.Fatal("MINIO_ENDPOINT and MINIO_ACCESS_KEY are required for listing media")
	}
	storage, err := services.NewStorageService(cfg.Storage, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}
	bucketCtx, cancelBucket := context.WithTimeout(context.Background(), 30*time.Second)
	if err := storage.EnsureBucket(bucketCtx); err != nil {
		logger.WithError(err).Warn("Storage bucket check failed")
	}
	cancelBucket()

	// Repositories
	accountRepository := database.NewAccountRepository(db)
	providerRepository := database.NewProviderRepository(db)
	propertyRepository := database.NewPropertyRepository(db)
	childRepository := database.NewPropertyChildRepository(db)
	planRepository := database.NewPlanRepository(db)
	activityRepository := database.NewActivityLogRepository(db)
	refreshTokenRepository := database.NewRefreshTokenRepository(db)

	// Search is optional; listings fall back to SQL filtering without it
	searchService := services.NewSearchService(cfg.Search, propertyRepository, logger)
	var index services.ListingIndex
	if searchService.Enabled() {
		if err := searchService.EnsureIndex(); err != nil {
			logger.WithError(err).Warn("Search index setup failed")
		}
		index = searchService
	} else {
		logger.Info("MEILISEARCH_HOST not set, using SQL search")
	}

	var mailer services.Mailer
	if emailService := services.NewEmailService(cfg.Email, logger); emailService != nil {
		mailer = emailService
	}

	var smsGateway sms.Gateway
	if cfg.SMSEnabled() {
		if cfg.SMS.Method == "url" {
			smsGateway = sms.NewDialogURLGateway(sms.DialogURLConfig{APIKey: cfg.SMS.APIKey, Mask: cfg.SMS.Mask})
		} else {
			smsGateway = sms.NewDialogGateway(sms.DialogConfig{
				APIURL:   cfg.SMS.APIURL,
				Username: cfg.SMS.Username,
				Password: cfg.SMS.Password,
				Mask:     cfg.SMS.Mask,
			})
		}
		logger.WithField("gateway", smsGateway.Name()).Info("SMS alerts enabled")
	}

	var progressStore services.ProgressStore = services.NewMemoryProgressStore()
	if redisClient != nil {
		progressStore = services.NewRedisProgressStore(redisClient)
	}

	// Services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	notificationService := services.NewNotificationService(
		database.NewProviderNotificationRepository(db),
		database.NewSystemNotificationRepository(db),
	)
	auditService := services.NewAuditService(activityRepository)
	rateLimitService := services.NewRateLimitService(db)
	confirmationService := services.NewConfirmationService(db)
	rewards := services.NewGamificationService(progressStore, logger)
	analyticsService := services.NewAnalyticsService(database.NewAnalyticsRepository(db), cfg.Analytics, logger)

	authService := services.NewAuthService(
		accountRepository,
		providerRepository,
		refreshTokenRepository,
		jwtService,
		notificationService,
		publisher,
		cfg.Security,
		logger,
	).WithRateLimiter(rateLimitService).WithConfirmations(confirmationService, mailer)

	moderationService := services.NewModerationService(services.ModerationDependencies{
		Accounts:      accountRepository,
		Providers:     providerRepository,
		Properties:    propertyRepository,
		Plans:         planRepository,
		RPC:           database.NewRPCRepository(db),
		Audit:         auditService,
		Notifications: notificationService,
		Publisher:     publisher,
		Index:         index,
		Mailer:        mailer,
		UseRPC:        cfg.Moderation.UseRPC,
		Logger:        logger,
	})

	propertyService := services.NewPropertyService(services.PropertyDependencies{
		Properties:    propertyRepository,
		Children:      childRepository,
		Providers:     providerRepository,
		Notifications: notificationService,
		Publisher:     publisher,
		Index:         index,
		Storage:       storage,
		Rewards:       rewards,
		Logger:        logger,
	})
	planService := services.NewPlanService(planRepository, providerRepository, notificationService, publisher, rewards, logger)

	catalogueService := services.NewCatalogueService(services.CatalogueDependencies{
		Properties:    propertyRepository,
		Children:      childRepository,
		Engagement:    database.NewEngagementRepository(db),
		Plans:         planRepository,
		Providers:     providerRepository,
		Search:        searchService,
		Notifications: notificationService,
		Mailer:        mailer,
		SMS:           smsGateway,
		Limiter:       rateLimitService,
		Rewards:       rewards,
		Logger:        logger,
	})

	realtimeOptions := services.RealtimeOptions{
		BaseDelay:   cfg.Realtime.ReconnectBaseDelay,
		MaxAttempts: cfg.Realtime.MaxReconnectAttempts,
		FeedSize:    cfg.Realtime.ActivityFeedSize,
	}
	hub := websocket.NewHub(func() websocket.RealtimeSession {
		return services.NewAdminRealtimeService(feed, activityRepository, accountRepository, notificationService, logger, realtimeOptions)
	}, cfg.CORS.AllowedOrigins, logger)

	var cronService *services.CronService
	if cfg.Cron.Enabled {
		cronService = services.NewCronService(services.CronDependencies{
			Providers:     providerRepository,
			Tokens:        refreshTokenRepository,
			Notifications: notificationService,
			Search:        searchService,
			Limiter:       rateLimitService,
			Confirmations: confirmationService,
			Mailer:        mailer,
			Logger:        logger,
		})
		if err := cronService.Start(); err != nil {
			logger.Fatalf("Failed to start cron service: %v", err)
		}
		logger.Info("Cron service started")
	}

	// Readiness checks
	healthService := services.NewHealthService()
	healthService.Register("postgres", db.PingContext)
	healthService.Register("storage", storage.Ping)
	if redisClient != nil {
		healthService.Register("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}
	if searchService.Enabled() {
		healthService.Register("search", searchService.Ping)
	}

	logger.Info("Services initialized")

	// HTTP
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	handlers.Router{
		JWT:       jwtService,
		Providers: providerRepository,
		Health:    handlers.NewHealthHandler(healthService, version),
		Auth:      handlers.NewAuthHandler(authService, logger),
		Admin: handlers.NewAdminHandler(handlers.AdminDependencies{
			Moderation:    moderationService,
			Analytics:     analyticsService,
			Notifications: notificationService,
			Audit:         auditService,
			Accounts:      accountRepository,
			Providers:     providerRepository,
			Properties:    propertyRepository,
			Children:      childRepository,
			Plans:         planRepository,
			Hub:           hub,
			Cron:          cronService,
			AnalyticsDays: cfg.Analytics.DefaultWindowDays,
		}),
		Provider: handlers.NewProviderHandler(handlers.ProviderDependencies{
			Properties:    propertyService,
			Plans:         planService,
			Moderation:    moderationService,
			Catalogue:     catalogueService,
			Analytics:     analyticsService,
			Notifications: notificationService,
			Rewards:       rewards,
			AnalyticsDays: cfg.Analytics.DefaultWindowDays,
		}),
		Catalogue: handlers.NewCatalogueHandler(catalogueService),
	}.Register(router)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	if cronService != nil {
		logger.Info("Stopping cron service...")
		cronService.Stop()
	}

	// Hijacked websocket connections are not closed by Shutdown
	hub.CloseAll()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}
