// Package server is the Skill Portal REST API (portal-api)
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/skillportal/skillportal/internal/auth"
	"github.com/skillportal/skillportal/internal/config"
	"github.com/skillportal/skillportal/internal/models"
	"github.com/skillportal/skillportal/internal/workers"
)

// Server represents the HTTP server
type Server struct {
	router    *gin.Engine
	db        *gorm.DB
	config    *config.Config
	logger    zerolog.Logger
	validator *validator.Validate
	registry  *prometheus.Registry
	metrics   *httpMetrics
	sweeper   *workers.SessionSweeper
	now       func() time.Time
	version   string
}

// Option configures a Server
type Option func(*Server)

// WithClock replaces time.Now for session expiry and attempt timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// New opens the configured database and creates a server on it
func New(cfg *config.Config, zlog zerolog.Logger, version string, opts ...Option) (*Server, error) {
	// Initialize database with production settings
	db, err := initDatabase(cfg, zlog)
	if err != nil {
		return nil, err
	}

	return NewWithDB(db, cfg, zlog, version, opts...)
}

// NewWithDB creates a server on an open database
func NewWithDB(db *gorm.DB, cfg *config.Config, zlog zerolog.Logger, version string, opts ...Option) (*Server, error) {
	// Run database migrations
	if err := models.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	if err := initJWT(db, cfg, zlog); err != nil {
		return nil, err
	}

	server := &Server{
		db:        db,
		config:    cfg,
		logger:    zlog,
		validator: newValidator(),
		registry:  prometheus.NewRegistry(),
		now:       time.Now,
		version:   version,
	}
	for _, opt := range opts {
		opt(server)
	}

	metrics, err := newHTTPMetrics(server.registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	server.metrics = metrics

	sweeper, err := workers.NewSessionSweeper(db, zlog.With().Str("component", "sweeper").Logger(),
		cfg.Session.SweepSchedule,
		workers.WithClock(server.now),
		workers.WithRegisterer(server.registry),
	)
	if err != nil {
		return nil, err
	}
	server.sweeper = sweeper

	// Setup router
	server.setupRouter()

	return server, nil
}

// initJWT uses JWT_SECRET when set, otherwise the secret persisted in the
// settings row, generating it on first start
func initJWT(db *gorm.DB, cfg *config.Config, zlog zerolog.Logger) error {
	if cfg.Session.JWTSecret != "" {
		auth.InitializeJWT(cfg.Session.JWTSecret)
		zlog.Debug().Msg("Using JWT secret from environment")
		return nil
	}

	var settings models.Settings
	err := db.First(&settings).Error
	if err == nil {
		auth.InitializeJWT(settings.JWTSecret)
		zlog.Debug().Msg("Loaded JWT secret from database")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	// Generate JWT secret (64 hex characters = 32 bytes of randomness)
	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return fmt.Errorf("failed to generate JWT secret: %w", err)
	}
	settings = models.Settings{JWTSecret: hex.EncodeToString(secretBytes)}
	if err := db.Create(&settings).Error; err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	auth.InitializeJWT(settings.JWTSecret)
	zlog.Info().Msg("Generated JWT secret")
	return nil
}

// initDatabase initializes the database connection with production settings
func initDatabase(cfg *config.Config, zlog zerolog.Logger) (*gorm.DB, error) {
	const (
		maxOpenConns      = 8     // Reduced for SQLite efficiency
		maxIdleConns      = 4     // Reduced proportionally
		connMaxLifetime   = 300   // 5 minutes
		busyTimeout       = 5000  // 5 seconds
		cacheSize         = 10000 // 10MB
		walAutocheckpoint = 1000  // WAL auto-checkpoint pages
	)

	db, err := gorm.Open(sqlite.Open(sqliteDSN(cfg.Database.URL)), &gorm.Config{
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				LogLevel:                  logger.Error,
				IgnoreRecordNotFoundError: true,
				SlowThreshold:             200 * time.Millisecond,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(connMaxLifetime) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// WAL mode must be set first
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		fmt.Sprintf("PRAGMA wal_autocheckpoint=%d", walAutocheckpoint),
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout),
		fmt.Sprintf("PRAGMA cache_size=-%d", cacheSize),
		"PRAGMA foreign_keys=1",
		"PRAGMA temp_store=2",
	}

	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			zlog.Warn().Str("pragma", pragma).Err(err).Msg("Failed to apply pragma")
		}
	}

	var walMode string
	var foreignKeys int
	db.Raw("PRAGMA journal_mode").Scan(&walMode)
	db.Raw("PRAGMA foreign_keys").Scan(&foreignKeys)
	zlog.Debug().Str("journal_mode", walMode).Int("foreign_keys", foreignKeys).Msg("Database opened")

	return db, nil
}

// sqliteDSN enables foreign keys on every pooled connection
func sqliteDSN(path string) string {
	if strings.Contains(path, "_pragma=foreign_keys") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)"
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()

	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
	s.router.Use(s.metrics.middleware())

	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", s.metricsHandler())

	api := s.router.Group("/api")
	api.Use(SessionMiddleware(s.db, s.logger, s.now))
	{
		// Public auth endpoints
		api.POST("/user/auth/register", s.register(models.RoleUser))
		api.POST("/user/auth/login", s.login(models.RoleUser))
		api.GET("/user/auth/session", s.getSession)
		api.POST("/user/auth/logout", s.logout)
		api.POST("/admin/auth/register", s.register(models.RoleAdmin))
		api.POST("/admin/auth/login", s.login(models.RoleAdmin))

		user := api.Group("/user")
		user.Use(RequireSession(s.logger))
		{
			user.GET("/dashboard/skills", s.dashboardSkills)
			user.GET("/dashboard/history", s.dashboardHistory)
			user.GET("/quiz/questions", s.quizQuestions)
			user.POST("/quiz/submit", s.submitQuiz)
		}

		admin := api.Group("/admin")
		admin.Use(AdminOnlyMiddleware(s.logger))
		{
			admin.GET("/users", s.listUsers)
			admin.POST("/users", s.createUser)
			admin.PUT("/users/:id", s.updateUser)
			admin.DELETE("/users/:id", s.deleteUser)

			admin.GET("/skills", s.listSkills)
			admin.POST("/skills", s.createSkill)
			admin.PUT("/skills/:id", s.updateSkill)
			admin.DELETE("/skills/:id", s.deleteSkill)

			admin.GET("/questions", s.listQuestions)
			admin.POST("/questions", s.createQuestion)
			admin.PUT("/questions/:id", s.updateQuestion)
			admin.DELETE("/questions/:id", s.deleteQuestion)

			admin.GET("/reports/user-performance", s.userPerformance)
			admin.GET("/reports/skill-gap", s.skillGap)
			admin.GET("/reports/time-based", s.timeBased)
		}
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Not found"})
	})
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	status := "online"
	code := http.StatusOK
	if sqlDB, err := s.db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"service":   "portal-api",
		"version":   s.version,
	})
}

// Handler returns the HTTP handler serving the API
func (s *Server) Handler() http.Handler {
	return s.router
}

// GetDB returns the database connection
func (s *Server) GetDB() *gorm.DB {
	return s.db
}

// Start serves HTTP on the configured port until ctx is cancelled, then
// shuts down gracefully and closes the database
func (s *Server) Start(ctx context.Context) error {
	addr := s.config.Server.Addr()

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.sweeper.Start()

	serveErr := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")
	case err := <-serveErr:
		if err != nil {
			s.logger.Error().Err(err).Msg("HTTP server error")
			runErr = err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	s.sweeper.Stop(shutdownCtx)

	s.logger.Info().Msg("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		if runErr == nil {
			runErr = err
		}
	}

	// Close database connection to flush WAL writes
	if sqlDB, err := s.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			s.logger.Error().Err(err).Msg("Error closing database")
		} else {
			s.logger.Info().Msg("Database closed successfully")
		}
	}

	s.logger.Info().Msg("Server shutdown complete")
	return runErr
}
