package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// JWT configuration
	JWT JWTConfig

	// CORS configuration
	CORS CORSConfig

	// Security configuration
	Security SecurityConfig

	// Realtime change feed configuration
	Realtime RealtimeConfig

	// Redis configuration (optional)
	Redis RedisConfig

	// Object storage configuration
	Storage StorageConfig

	// Search configuration (optional)
	Search SearchConfig

	// Email configuration (optional)
	Email EmailConfig

	// SMS alert configuration (optional)
	SMS SMSConfig

	// Moderation workflow configuration
	Moderation ModerationConfig

	// Analytics configuration
	Analytics AnalyticsConfig

	// Cron configuration
	Cron CronConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
	RunMigrations      bool
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret             string
	RefreshSecret      string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	BcryptCost               int
	RequireEmailConfirmation bool          // new accounts start as email_unconfirmed instead of pending
	ProfileFetchTimeout      time.Duration // bound on the richer profile lookup behind /auth/me
}

// RealtimeConfig holds realtime sync configuration
type RealtimeConfig struct {
	Driver               string // "postgres" (LISTEN/NOTIFY), "redis" (Pub/Sub) or "memory" (single instance)
	ReconnectBaseDelay   time.Duration
	MaxReconnectAttempts int
	ActivityFeedSize     int
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	URL string
}

// StorageConfig holds MinIO / S3-compatible storage configuration
type StorageConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	PublicBaseURL string // optional CDN/base URL used when building public links
}

// SearchConfig holds Meilisearch configuration
type SearchConfig struct {
	Host   string
	APIKey string
	Index  string
}

// EmailConfig holds SendGrid configuration
type EmailConfig struct {
	SendGridAPIKey string
	FromEmail      string
	FromName       string
}

// SMSConfig holds Dialog eSMS configuration
type SMSConfig struct {
	Method   string // "api" (token login) or "url" (API key)
	APIURL   string
	Username string
	Password string
	APIKey   string
	Mask     string
}

// ModerationConfig holds moderation workflow configuration
type ModerationConfig struct {
	UseRPC bool // try the atomic stored procedure before the client-side fallback
}

// AnalyticsConfig holds dashboard analytics configuration
type AnalyticsConfig struct {
	DefaultWindowDays int
	ListingFee        float64 // flat placeholder fee used for the synthetic revenue figure
}

// CronConfig holds scheduled job configuration
type CronConfig struct {
	Enabled bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
			RunMigrations:      getEnvAsBool("RUN_MIGRATIONS", false),
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", ""),
			RefreshSecret:      getEnv("JWT_REFRESH_SECRET", ""),
			AccessTokenExpiry:  time.Duration(getEnvAsInt("JWT_ACCESS_TOKEN_EXPIRY", 3600)) * time.Second,
			RefreshTokenExpiry: time.Duration(getEnvAsInt("JWT_REFRESH_TOKEN_EXPIRY", 604800)) * time.Second,
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
		},
		Security: SecurityConfig{
			BcryptCost:               getEnvAsInt("BCRYPT_COST", 12),
			RequireEmailConfirmation: getEnvAsBool("REQUIRE_EMAIL_CONFIRMATION", false),
			ProfileFetchTimeout:      time.Duration(getEnvAsInt("PROFILE_FETCH_TIMEOUT_MS", 3000)) * time.Millisecond,
		},
		Realtime: RealtimeConfig{
			Driver:               getEnv("REALTIME_DRIVER", "postgres"),
			ReconnectBaseDelay:   time.Duration(getEnvAsInt("REALTIME_RECONNECT_BASE_MS", 1000)) * time.Millisecond,
			MaxReconnectAttempts: getEnvAsInt("REALTIME_MAX_RECONNECT_ATTEMPTS", 5),
			ActivityFeedSize:     getEnvAsInt("REALTIME_ACTIVITY_FEED_SIZE", 20),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},
		Storage: StorageConfig{
			Endpoint:      getEnv("MINIO_ENDPOINT", ""),
			AccessKey:     getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey:     getEnv("MINIO_SECRET_KEY", ""),
			Bucket:        getEnv("STORAGE_BUCKET", "property-media"),
			UseSSL:        getEnvAsBool("MINIO_USE_SSL", false),
			PublicBaseURL: getEnv("STORAGE_PUBLIC_BASE_URL", ""),
		},
		Search: SearchConfig{
			Host:   getEnv("MEILISEARCH_HOST", ""),
			APIKey: getEnv("MEILISEARCH_API_KEY", ""),
			Index:  getEnv("MEILISEARCH_INDEX", "properties"),
		},
		Email: EmailConfig{
			SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
			FromEmail:      getEnv("EMAIL_FROM_ADDRESS", "no-reply@estatehub.local"),
			FromName:       getEnv("EMAIL_FROM_NAME", "EstateHub"),
		},
		SMS: SMSConfig{
			Method:   getEnv("SMS_METHOD", "api"),
			APIURL:   getEnv("DIALOG_SMS_API_URL", "https://e-sms.dialog.lk/api/v2"),
			Username: getEnv("DIALOG_SMS_USERNAME", ""),
			Password: getEnv("DIALOG_SMS_PASSWORD", ""),
			APIKey:   getEnv("DIALOG_SMS_API_KEY", ""),
			Mask:     getEnv("DIALOG_SMS_MASK", ""),
		},
		Moderation: ModerationConfig{
			UseRPC: getEnvAsBool("MODERATION_USE_RPC", true),
		},
		Analytics: AnalyticsConfig{
			DefaultWindowDays: getEnvAsInt("ANALYTICS_WINDOW_DAYS", 30),
			ListingFee:        getEnvAsFloat("ANALYTICS_LISTING_FEE", 50),
		},
		Cron: CronConfig{
			Enabled: getEnvAsBool("CRON_ENABLED", true),
		},
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.JWT.RefreshSecret == "" {
		return fmt.Errorf("JWT_REFRESH_SECRET is required")
	}

	switch c.Realtime.Driver {
	case "postgres", "memory":
	case "redis":
		if c.Redis.URL == "" {
			return fmt.Errorf("REDIS_URL is required when REALTIME_DRIVER=redis")
		}
	default:
		return fmt.Errorf("invalid realtime driver: %s (must be 'postgres', 'redis' or 'memory')", c.Realtime.Driver)
	}

	if c.Realtime.MaxReconnectAttempts < 1 {
		return fmt.Errorf("REALTIME_MAX_RECONNECT_ATTEMPTS must be at least 1")
	}

	if c.SMS.Method != "api" && c.SMS.Method != "url" {
		return fmt.Errorf("invalid SMS method: %s (must be 'api' or 'url')", c.SMS.Method)
	}

	if c.Analytics.DefaultWindowDays < 1 {
		return fmt.Errorf("ANALYTICS_WINDOW_DAYS must be at least 1")
	}

	return nil
}

// StorageEnabled reports whether object storage credentials are present
func (c *Config) StorageEnabled() bool {
	return c.Storage.Endpoint != "" && c.Storage.AccessKey != ""
}

// SMSEnabled reports whether credentials for the selected SMS method are present
func (c *Config) SMSEnabled() bool {
	if c.SMS.Method == "url" {
		return c.SMS.APIKey != ""
	}
	return c.SMS.Username != "" && c.SMS.Password != ""
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Invalid float value for %s, using default: %v", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Invalid boolean value for %s, using default: %t", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
