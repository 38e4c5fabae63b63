package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/hostfold/hostfold/internal/backup"
	"github.com/hostfold/hostfold/internal/billing"
	stripeclient "github.com/hostfold/hostfold/internal/billing/stripe"
	"github.com/hostfold/hostfold/internal/expire"
	"github.com/hostfold/hostfold/internal/handler"
	"github.com/hostfold/hostfold/internal/hestia"
	"github.com/hostfold/hostfold/internal/middleware"
	"github.com/hostfold/hostfold/internal/provision"
	"github.com/hostfold/hostfold/internal/store"
	"github.com/hostfold/hostfold/internal/suspend"
	ws "github.com/hostfold/hostfold/internal/websocket"
)

// Config carries everything the HTTP layer needs beyond the database
// and the panel client.
type Config struct {
	PrimaryDomain string
	CronSecret    string
	SecureCookies bool
	DBPath        string
	Backup        backup.Config
	Stripe        stripeclient.Config
}

type Server struct {
	db           *sql.DB
	hub          *ws.Hub
	customerH    *handler.CustomerHandler
	websiteH     *handler.WebsiteHandler
	databaseH    *handler.DatabaseHandler
	cronH        *handler.CronHandler
	webhookH     *handler.WebhookHandler
	authH        *handler.AuthHandler
	backupH      *handler.BackupHandler
	sessionStore *store.SessionStore
	adminStore   *store.AdminUserStore
	rateLimiter  *middleware.RateLimiter
	backupSvc    *backup.Service
	cronSecret   string
	logger       *slog.Logger
}

func New(db *sql.DB, panel hestia.Invoker, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	customerStore := store.NewCustomerStore(db)
	websiteStore := store.NewWebsiteStore(db)
	databaseStore := store.NewDatabaseStore(db)
	packageStore := store.NewPackageStore(db)
	activityStore := store.NewActivityStore(db)
	adminStore := store.NewAdminUserStore(db)
	sessionStore := store.NewSessionStore(db)
	backupStore := store.NewBackupStore(db)

	suspendSvc := suspend.NewService(customerStore, websiteStore, activityStore, panel, logger.With("component", "suspend"))
	billingSvc := billing.NewService(customerStore, websiteStore, activityStore, panel, logger.With("component", "billing"))
	provisionSvc := provision.NewService(customerStore, websiteStore, databaseStore, packageStore, activityStore, panel, cfg.PrimaryDomain, logger.With("component", "provision"))
	scanner := expire.NewScanner(customerStore, websiteStore, activityStore, panel, logger.With("component", "expire"))
	backupSvc := backup.NewService(cfg.Backup, db, backupStore, logger.With("component", "backup"))
	stripeClient := stripeclient.NewClient(cfg.Stripe)

	return &Server{
		db:           db,
		hub:          hub,
		customerH:    handler.NewCustomerHandler(customerStore, websiteStore, activityStore, suspendSvc, billingSvc, hub, logger.With("component", "customer")),
		websiteH:     handler.NewWebsiteHandler(provisionSvc, hub, logger.With("component", "website")),
		databaseH:    handler.NewDatabaseHandler(provisionSvc, logger.With("component", "database")),
		cronH:        handler.NewCronHandler(scanner, hub, logger.With("component", "cron")),
		webhookH:     handler.NewWebhookHandler(stripeClient, customerStore, billingSvc, hub, logger.With("component", "webhook")),
		authH:        handler.NewAuthHandler(adminStore, sessionStore, cfg.SecureCookies, logger.With("component", "auth")),
		backupH:      handler.NewBackupHandler(backupSvc, backupStore, cfg.DBPath, hub, logger.With("component", "backup_handler")),
		sessionStore: sessionStore,
		adminStore:   adminStore,
		rateLimiter:  middleware.NewRateLimiter(),
		backupSvc:    backupSvc,
		cronSecret:   cfg.CronSecret,
		logger:       logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// BackupService returns the backup service for retention pruning.
func (s *Server) BackupService() *backup.Service {
	return s.backupSvc
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes
	outerMux.HandleFunc("POST /login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("POST /webhooks/stripe", s.webhookH.Stripe)
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Scheduler routes, shared secret or bearer token
	cronAuth := middleware.RequireCronAuth(s.cronSecret)
	outerMux.Handle("POST /internal/cron/expire", cronAuth(http.HandlerFunc(s.cronH.Expire)))

	// Admin routes behind session auth
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.adminStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /logout", s.authH.Logout)

	// Customer lifecycle
	mux.HandleFunc("GET /api/customers/{id}", s.customerH.Get)
	mux.HandleFunc("GET /api/customers/{id}/activity", s.customerH.Activity)
	mux.Handle("POST /api/customers/{id}/suspend", middleware.RequireAdmin(http.HandlerFunc(s.customerH.Suspend)))
	mux.Handle("POST /api/customers/{id}/unsuspend", middleware.RequireAdmin(http.HandlerFunc(s.customerH.Unsuspend)))
	mux.Handle("POST /api/customers/{id}/extend", middleware.RequireAdmin(http.HandlerFunc(s.customerH.Extend)))

	// Provisioning, admin only
	mux.Handle("POST /api/websites", middleware.RequireAdmin(http.HandlerFunc(s.websiteH.Create)))
	mux.Handle("POST /api/websites/{id}/custom-domain", middleware.RequireAdmin(http.HandlerFunc(s.websiteH.CustomDomain)))
	mux.Handle("POST /api/websites/{id}/ssl", middleware.RequireAdmin(http.HandlerFunc(s.websiteH.SSL)))
	mux.Handle("POST /api/databases", middleware.RequireAdmin(http.HandlerFunc(s.databaseH.Create)))

	// Backups, admin only
	mux.Handle("GET /api/backups", middleware.RequireAdmin(http.HandlerFunc(s.backupH.List)))
	mux.Handle("POST /api/backups/now", middleware.RequireAdmin(http.HandlerFunc(s.backupH.Now)))
	mux.Handle("POST /api/backups/restore", middleware.RequireAdmin(http.HandlerFunc(s.backupH.Restore)))

	// Lifecycle event stream
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))
}
