package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/showsettle/showsettle-backend/internal/entitlements"
	"github.com/showsettle/showsettle-backend/pkg/config"
	"github.com/showsettle/showsettle-backend/pkg/db"
	"github.com/showsettle/showsettle-backend/pkg/enums"
	"github.com/showsettle/showsettle-backend/pkg/logger"
)

// Grants or revokes an entitlement directly, bypassing Stripe. Used for comp
// accounts and dev/test access.
func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "grant-entitlement"})

	_ = godotenv.Load()

	userFlag := flag.String("user", "", "user id (uuid, required)")
	sourceFlag := flag.String("source", string(enums.EntitlementSourceManualComp), "entitlement source: manual_comp|dev_account|test_account|stripe")
	statusFlag := flag.String("status", string(enums.EntitlementStatusActive), "entitlement status: active|inactive|expired")
	grantedBy := flag.String("granted-by", "cli", "who performed the grant")
	expiresIn := flag.Duration("expires-in", 0, "optional ttl; zero means no expiry")
	flag.Parse()

	userID, err := uuid.Parse(*userFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, "missing or invalid -user uuid")
		os.Exit(1)
	}

	source, err := enums.ParseEntitlementSource(*sourceFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -source: %v\n", err)
		os.Exit(1)
	}
	status, err := enums.ParseEntitlementStatus(*statusFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -status: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "grant-entitlement",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	svc, err := entitlements.NewService(entitlements.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(ctx, "failed to create entitlements service", err)
		os.Exit(1)
	}

	var expiresAt *time.Time
	if *expiresIn > 0 {
		t := time.Now().UTC().Add(*expiresIn)
		expiresAt = &t
	}

	if err := svc.Grant(ctx, entitlements.GrantParams{
		UserID:    userID,
		Source:    source,
		Status:    status,
		GrantedBy: *grantedBy,
		ExpiresAt: expiresAt,
	}); err != nil {
		logg.Error(ctx, "grant failed", err)
		os.Exit(1)
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"user_id": userID.String(),
		"source":  source.String(),
		"status":  status.String(),
	})
	logg.Info(ctx, "entitlement written")
}
