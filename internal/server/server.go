package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/logger"
	custommiddleware "storefront/internal/middleware"
	"storefront/internal/notify"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/internal/session"
	"storefront/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config     *config.Config
	logger     *zap.Logger
	db         database.Service
	redis      *redis.Client
	dispatcher *notify.Dispatcher
}

// NewServer loads the store collections and assembles the HTTP stack
func NewServer(ctx context.Context, cfg *config.Config, log *zap.Logger, db database.Service, redisClient *redis.Client) (*Server, error) {
	sqlDB, dialect := db.DB(), db.Dialect()
	sequences := repository.NewSequenceRepository(sqlDB, dialect)
	retries := cfg.Persist.MaxRetries

	catalog, err := service.NewCatalog(ctx, repository.NewProductRepository(sqlDB, dialect), sequences, retries, logger.Component(log, "catalog"))
	if err != nil {
		return nil, err
	}
	ledger, err := service.NewOrderLedger(ctx, repository.NewOrderRepository(sqlDB, dialect), sequences, retries, logger.Component(log, "ledger"))
	if err != nil {
		return nil, err
	}
	directory, err := service.NewCustomerDirectory(ctx, repository.NewCustomerRepository(sqlDB, dialect), sequences, retries, logger.Component(log, "directory"))
	if err != nil {
		return nil, err
	}

	mailLogger := logger.Component(log, "notify")
	dispatcher := notify.NewDispatcher(notify.NewSender(cfg.Mail, mailLogger), cfg.Mail.QueueSize, cfg.Mail.MaxRetries, mailLogger)

	admins, jwtSecret, err := newAdminService(cfg, log)
	if err != nil {
		dispatcher.Close(ctx)
		return nil, err
	}

	carts := service.NewCartService(catalog)
	checkout := service.NewCheckoutService(carts, ledger, directory, dispatcher, cfg.Mail.StoreName, logger.Component(log, "checkout"))
	office := service.NewBackOffice(catalog, ledger, directory, dispatcher, logger.Component(log, "backoffice"))

	router := chi.NewRouter()
	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.LoggingMiddleware(logger.Component(log, "http")))
	router.Use(custommiddleware.ErrorHandlingMiddleware(log))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.Server.IsDevelopment()))
	router.Use(custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimit.Requests,
		Window:            cfg.RateLimit.Window,
		KeyPrefix:         "rate_limit",
		ExemptPaths:       []string{"/health"},
	}, log))

	s := &Server{
		config:     cfg,
		logger:     log,
		db:         db,
		redis:      redisClient,
		dispatcher: dispatcher,
	}
	router.Get("/health", s.health)

	sessions := custommiddleware.SessionMiddleware(
		session.NewRedisStore(redisClient, cfg.Session.TTL),
		custommiddleware.SessionConfig{
			CookieName: cfg.Session.CookieName,
			TTL:        cfg.Session.TTL,
			Secure:     cfg.Session.SecureCookie,
		},
		logger.Component(log, "session"),
	)

	handlerLogger := logger.Component(log, "transport")
	transport.NewStorefrontHandler(catalog, carts, checkout, ledger, handlerLogger).RegisterRoutes(router, sessions)
	transport.NewAdminHandler(admins, office, catalog, ledger, directory, cfg.Session.SecureCookie, handlerLogger).RegisterRoutes(router,
		custommiddleware.AuthMiddleware(jwtSecret, log),
		custommiddleware.RequireAdmin(log),
	)

	s.Server = &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s, nil
}

// newAdminService hashes the configured admin password when no hash is given.
// Without a JWT secret a random one is used, so tokens do not survive a restart.
func newAdminService(cfg *config.Config, log *zap.Logger) (service.AdminService, string, error) {
	hash := cfg.Admin.PasswordHash
	if hash == "" && cfg.Admin.Password != "" {
		var err error
		if hash, err = service.HashPassword(cfg.Admin.Password); err != nil {
			return nil, "", err
		}
	}
	if hash == "" {
		log.Warn("No admin password configured, admin login is disabled")
	}

	secret := cfg.JWT.Secret
	if secret == "" {
		log.Warn("JWT_SECRET not set, using a random per-process secret")
		secret = uuid.NewString() + uuid.NewString()
	}

	ttl := time.Duration(cfg.JWT.AdminExpiry) * time.Minute
	return service.NewAdminService(cfg.Admin.Username, hash, secret, ttl), secret, nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	stats := map[string]interface{}{"status": "ok", "database": s.db.Health()}

	if err := s.redis.Ping(r.Context()).Err(); err != nil {
		stats["status"] = "degraded"
		stats["redis"] = map[string]string{"status": "down", "error": err.Error()}
	} else {
		stats["redis"] = map[string]string{"status": "up"}
	}
	if dbStats, ok := stats["database"].(map[string]string); ok && dbStats["status"] != "up" {
		stats["status"] = "degraded"
	}

	status := http.StatusOK
	if stats["status"] != "ok" {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(stats)
}

// Close drains pending notifications and releases the redis and database connections
func (s *Server) Close(ctx context.Context) error {
	s.logger.Info("Closing server resources")

	if err := s.dispatcher.Close(ctx); err != nil {
		s.logger.Error("Failed to drain notification queue", zap.Error(err))
	}

	if err := s.redis.Close(); err != nil {
		s.logger.Error("Failed to close redis connection", zap.Error(err))
	}

	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close database connection", zap.Error(err))
	}

	s.logger.Sync()
	return nil
}
