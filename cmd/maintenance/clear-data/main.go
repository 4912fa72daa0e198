package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/estatehub/marketplace-backend/internal/config"
	"github.com/estatehub/marketplace-backend/internal/database"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// listingTables hold marketplace content; accountTables hold identities
var (
	listingTables = []string{
		"property_views",
		"property_inquiries",
		"land_documents",
		"commercial_details",
		"land_details",
		"property_images",
		"property_utilities",
		"property_amenities",
		"property_features",
		"property_locations",
		"properties",
		"architectural_plans",
		"admin_activity_logs",
		"system_notifications",
		"provider_notifications",
		"rate_limit_events",
	}
	accountTables = []string{
		"email_confirmations",
		"refresh_tokens",
		"providers",
		"accounts",
	}
)

func main() {
	var dbURLFlag string
	var keepAccounts, migrate bool
	flag.StringVar(&dbURLFlag, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	flag.BoolVar(&keepAccounts, "keep-accounts", false, "only clear listings, plans, logs and notifications")
	flag.BoolVar(&migrate, "migrate", false, "re-apply the schema after clearing")
	flag.Parse()

	// .env in the working directory is optional
	_ = godotenv.Load()

	dbURL := dbURLFlag
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set and -database-url was not provided")
	}

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	db, err := database.NewConnection(config.DatabaseConfig{
		URL:                dbURL,
		MaxConnections:     5,
		MaxIdleConnections: 2,
	}, logger)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	tables := listingTables
	if !keepAccounts {
		tables = append(append([]string{}, listingTables...), accountTables...)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	fmt.Printf("Connected to database. Truncating %d tables...\n", len(tables))
	truncateSQL := "TRUNCATE TABLE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE"
	if _, err := db.ExecContext(ctx, truncateSQL); err != nil {
		log.Fatalf("failed to truncate tables: %v", err)
	}
	fmt.Println("Data cleared.")

	if migrate {
		if err := database.RunMigrations(ctx, db, logger); err != nil {
			log.Fatalf("failed to re-apply schema: %v", err)
		}
		fmt.Println("Schema re-applied.")
	}

	fmt.Println("Post-clear row counts:")
	for _, t := range tables {
		var count int
		if err := db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", t)).Scan(&count); err != nil {
			fmt.Printf("  %s: error: %v\n", t, err)
			continue
		}
		fmt.Printf("  %s: %d\n", t, count)
	}
}
