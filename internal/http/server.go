// Package http assembles the gin API server: middleware, routes and health probes.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/pandorica/internal/config"
	cryptoHTTP "github.com/allisson/pandorica/internal/crypto/http"
	filesHTTP "github.com/allisson/pandorica/internal/files/http"
	"github.com/allisson/pandorica/internal/metrics"
)

// maxJSONBodyBytes bounds JSON request bodies. File uploads are streamed and not bounded.
const maxJSONBodyBytes = 8 << 20

// Server is the API server.
type Server struct {
	db      *sql.DB
	server  *http.Server
	logger  *slog.Logger
	router  *gin.Engine
	limiter *ipRateLimiter
}

// NewServer creates a Server. Call SetupRouter before Start.
//
// Read and write timeouts are unset because file bodies are streamed; slow-header clients
// are still cut off by ReadHeaderTimeout.
func NewServer(db *sql.DB, host string, port int, logger *slog.Logger) *Server {
	return &Server{
		db:     db,
		logger: logger,
		server: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", host, port),
			ReadHeaderTimeout: 15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// Handlers groups the API handlers mounted by SetupRouter.
type Handlers struct {
	Value    *cryptoHTTP.ValueHandler
	Password *cryptoHTTP.PasswordHandler
	Key      *cryptoHTTP.KeyHandler
	File     *filesHTTP.FileHandler
}

// SetupRouter builds the gin engine with the middleware chain and every route.
// metricsProvider may be nil when metrics are disabled.
func (s *Server) SetupRouter(cfg *config.Config, handlers Handlers, metricsProvider *metrics.Provider) {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := newCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(metricsProvider.MeterProvider(), cfg.MetricsNamespace))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")
	if cfg.RateLimitEnabled {
		s.limiter = newIPRateLimiter(cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst)
		v1.Use(s.limiter.middleware(s.logger))
	}

	jsonAPI := v1.Group("")
	jsonAPI.Use(MaxBodySizeMiddleware(maxJSONBodyBytes))
	{
		jsonAPI.POST("/values/encrypt", handlers.Value.EncryptHandler)
		jsonAPI.POST("/values/decrypt", handlers.Value.DecryptHandler)

		jsonAPI.POST("/passwords/hash", handlers.Password.HashHandler)
		jsonAPI.POST("/passwords/verify", handlers.Password.VerifyHandler)

		jsonAPI.POST("/keys/derive", handlers.Key.DeriveHandler)

		jsonAPI.GET("/master-key", handlers.Key.StatusHandler)
		jsonAPI.POST("/master-key/rotate", handlers.Key.RotateHandler)
	}

	files := v1.Group("/files")
	{
		files.PUT("/*name", handlers.File.UploadHandler)
		files.GET("/*name", handlers.File.DownloadHandler)
		files.HEAD("/*name", handlers.File.HeadHandler)
		files.DELETE("/*name", handlers.File.DeleteHandler)
	}

	s.router = router
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// Start serves until Shutdown. ctx bounds background work such as rate limiter cleanup.
func (s *Server) Start(ctx context.Context) error {
	if s.router == nil {
		return fmt.Errorf("router not configured")
	}
	s.server.Handler = s.router

	if s.limiter != nil {
		go s.limiter.cleanupStale(ctx, 5*time.Minute)
	}

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports ready once the master key store answers.
func (s *Server) readinessHandler(c *gin.Context) {
	components := gin.H{"database": "ok"}

	if s.db == nil {
		components["database"] = "error"
	} else {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.PingContext(ctx); err != nil {
			s.logger.Warn("readiness check failed", slog.String("component", "database"), slog.Any("error", err))
			components["database"] = "error"
		}
	}

	if components["database"] != "ok" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "components": components})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready", "components": components})
}
