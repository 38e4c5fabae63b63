package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/hostfold/hostfold/internal/backup"
	stripeclient "github.com/hostfold/hostfold/internal/billing/stripe"
	"github.com/hostfold/hostfold/internal/database"
	"github.com/hostfold/hostfold/internal/hestia"
	"github.com/hostfold/hostfold/internal/logging"
	"github.com/hostfold/hostfold/internal/server"
)

func main() {
	logger := logging.Setup(os.Getenv("HOSTFOLD_LOG_LEVEL"))

	port := envOr("HOSTFOLD_PORT", "8080")
	dbPath := envOr("HOSTFOLD_DB_PATH", "hostfold.db")

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("open database", "path", dbPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	hestiaPort, err := strconv.Atoi(envOr("HESTIA_PORT", "8083"))
	if err != nil {
		logger.Error("invalid HESTIA_PORT", "error", err)
		os.Exit(1)
	}
	hestiaCfg := hestia.Config{
		Host:     os.Getenv("HESTIA_HOST"),
		Port:     hestiaPort,
		User:     os.Getenv("HESTIA_USER"),
		Password: os.Getenv("HESTIA_PASSWORD"),
		Insecure: os.Getenv("HESTIA_INSECURE") == "true",
	}
	if hestiaCfg.Host == "" || hestiaCfg.User == "" {
		logger.Error("HESTIA_HOST and HESTIA_USER are required")
		os.Exit(1)
	}
	panel := hestia.WithRetry(
		hestia.NewClient(hestiaCfg),
		3, 500*time.Millisecond, 30*time.Second,
	)

	cfg := server.Config{
		PrimaryDomain: envOr("HOSTFOLD_PRIMARY_DOMAIN", "example.host"),
		CronSecret:    os.Getenv("HOSTFOLD_CRON_SECRET"),
		SecureCookies: os.Getenv("HOSTFOLD_INSECURE_COOKIES") != "true",
		DBPath:        dbPath,
		Backup: backup.Config{
			S3: backup.S3Config{
				Endpoint:  os.Getenv("HOSTFOLD_S3_ENDPOINT"),
				Bucket:    os.Getenv("HOSTFOLD_S3_BUCKET"),
				Region:    envOr("HOSTFOLD_S3_REGION", "us-east-1"),
				AccessKey: os.Getenv("HOSTFOLD_S3_ACCESS_KEY"),
				SecretKey: os.Getenv("HOSTFOLD_S3_SECRET_KEY"),
			},
			DBPath:     dbPath,
			Passphrase: os.Getenv("HOSTFOLD_BACKUP_PASSPHRASE"),
		},
		Stripe: stripeclient.Config{
			SecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
			WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		},
	}

	srv := server.New(db, panel, cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go cleanupLoop(ctx, srv, logger)

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("listening", "port", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

// cleanupLoop prunes expired sessions, stale rate-limit entries, and
// backups past the retention window.
func cleanupLoop(ctx context.Context, srv *server.Server, logger *slog.Logger) {
	retentionDays, _ := strconv.Atoi(envOr("HOSTFOLD_BACKUP_RETENTION_DAYS", "30"))
	if retentionDays <= 0 {
		retentionDays = 30
	}

	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := srv.SessionStore().DeleteExpired(); err != nil {
				logger.Error("session cleanup", "error", err)
			} else if n > 0 {
				logger.Info("expired sessions removed", "count", n)
			}
			srv.RateLimiter().Cleanup()
			if srv.BackupService().Configured() {
				if n, err := srv.BackupService().Prune(ctx, time.Duration(retentionDays)*24*time.Hour); err != nil {
					logger.Error("backup prune", "error", err)
				} else if n > 0 {
					logger.Info("old backups pruned", "count", n)
				}
			}
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
