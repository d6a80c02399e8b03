// Package http wires the gin router, middlewares and HTTP servers of the service.
package http

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/rotavault/internal/config"
	cryptoHTTP "github.com/allisson/rotavault/internal/crypto/http"
	"github.com/allisson/rotavault/internal/metrics"
	secretsHTTP "github.com/allisson/rotavault/internal/secrets/http"
)

// readinessTimeout bounds the database ping of the readiness probe.
const readinessTimeout = 2 * time.Second

// Server is the API server.
type Server struct {
	db        *sql.DB
	requireDB bool
	server    *http.Server
	router    *gin.Engine
	logger    *slog.Logger
}

// NewServer creates the API server. A nil db makes the service not ready unless
// SkipDatabaseCheck is called.
func NewServer(db *sql.DB, host string, port int, logger *slog.Logger) *Server {
	return &Server{
		db:        db,
		requireDB: true,
		logger:    logger,
		server:    newListener(host, port),
	}
}

// SetupRouter builds the gin engine with the middleware chain and every route.
// metricsProvider may be nil when metrics are disabled.
func (s *Server) SetupRouter(
	ctx context.Context,
	cfg *config.Config,
	secretHandler *secretsHTTP.SecretHandler,
	keyHandler *cryptoHTTP.KeyHandler,
	metricsProvider *metrics.Provider,
) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}
	if metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(metricsProvider.MeterProvider(), cfg.MetricsNamespace))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")
	if cfg.RateLimitEnabled {
		v1.Use(RateLimitMiddleware(ctx, cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, s.logger))
	}

	secrets := v1.Group("/secrets")
	{
		secrets.GET("", secretHandler.VersionReportHandler)
		secrets.POST("/migrate", secretHandler.MigrateHandler)
		secrets.PUT("/:name", secretHandler.PutHandler)
		secrets.GET("/:name", secretHandler.GetHandler)
	}

	keys := v1.Group("/keys")
	{
		keys.GET("", keyHandler.InfoHandler)
		keys.POST("/rotate", keyHandler.RotateHandler)
	}

	s.router = router
}

// SkipDatabaseCheck makes readiness independent of the database, for the in-memory store.
func (s *Server) SkipDatabaseCheck() {
	s.requireDB = false
}

// GetHandler returns the configured router, or nil before SetupRouter.
func (s *Server) GetHandler() http.Handler {
	if s.router == nil {
		return nil
	}
	return s.router
}

// Start serves until Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	s.server.Handler = s.router

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

// healthHandler reports liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the database is reachable.
func (s *Server) readinessHandler(c *gin.Context) {
	components := gin.H{}
	ready := true

	switch {
	case !s.requireDB:
		components["database"] = "skipped"
	case s.db == nil:
		components["database"] = "error"
		ready = false
	default:
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		defer cancel()
		if err := s.db.PingContext(ctx); err != nil {
			s.logger.Warn("readiness check failed", slog.Any("error", err))
			components["database"] = "error"
			ready = false
		} else {
			components["database"] = "ok"
		}
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "components": components})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "components": components})
}
