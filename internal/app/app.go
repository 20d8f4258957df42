package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/atcpro/atcpro/internal/atcoder"
	"github.com/atcpro/atcpro/internal/config"
	"github.com/atcpro/atcpro/internal/database"
	"github.com/atcpro/atcpro/internal/editorial"
	"github.com/atcpro/atcpro/internal/handlers"
	"github.com/atcpro/atcpro/internal/messaging"
	"github.com/atcpro/atcpro/internal/middleware"
	"github.com/atcpro/atcpro/internal/services"
	"github.com/atcpro/atcpro/internal/validation"
)

type App struct {
	config   *config.Config
	logger   *logrus.Logger
	db       *database.Database
	bus      *messaging.EventBus
	services *services.Services
	handlers *handlers.Handlers
	router   *gin.Engine
}

func New(cfg *config.Config) (*App, error) {
	app := &App{
		config: cfg,
		logger: NewLogger(cfg),
	}

	// Initialize cache connection
	db, err := database.New(cfg, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	metrics := services.NewMetrics()

	source, err := NewSource(cfg, db, metrics, app.logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	store, err := editorial.Open(cfg.Editorial.StorePath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open editorial store: %w", err)
	}
	app.logger.WithFields(logrus.Fields{
		"path":       cfg.Editorial.StorePath,
		"editorials": store.Len(),
	}).Info("Editorial store loaded")

	app.bus = messaging.NewEventBus(cfg, app.logger)

	// Initialize services
	app.services = services.New(cfg, app.logger, db, source, store, app.bus, metrics)

	// Initialize handlers
	app.handlers = handlers.New(app.logger, app.services)

	// Setup router
	app.setupRouter()

	return app, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func (a *App) Logger() *logrus.Logger {
	return a.logger
}

func (a *App) Services() *services.Services {
	return a.services
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Shutting down application...")

	var errs []error
	if err := a.bus.Close(); err != nil {
		a.logger.WithError(err).Error("Error closing event bus")
		errs = append(errs, err)
	}
	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).Error("Error closing database connections")
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// NewLogger builds the process logger from the logging section.
func NewLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}

// NewSource returns the fixture source when a fixtures directory is
// configured and the live client otherwise. Catalog responses are cached in
// Redis when it is enabled.
func NewSource(cfg *config.Config, db *database.Database, metrics *services.Metrics, logger *logrus.Logger) (atcoder.Source, error) {
	validator, err := validation.NewSchemaValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to load schemas: %w", err)
	}

	if cfg.AtCoder.FixturesDir != "" {
		logger.WithField("dir", cfg.AtCoder.FixturesDir).Info("Using fixture data source")
		return atcoder.NewFixtureSource(cfg.AtCoder.FixturesDir, validator), nil
	}

	opts := []atcoder.Option{atcoder.WithObserver(metrics)}
	if cache := db.Cache(); cache != nil {
		opts = append(opts, atcoder.WithCache(cache, cfg.Redis.CatalogTTL))
	}

	return atcoder.NewClient(atcoder.ClientConfig{
		ResourcesURL:    cfg.AtCoder.ResourcesURL,
		APIURL:          cfg.AtCoder.APIURL,
		SiteURL:         cfg.AtCoder.SiteURL,
		RequestInterval: cfg.AtCoder.RequestInterval,
		Timeout:         cfg.AtCoder.Timeout,
		UserAgent:       cfg.AtCoder.UserAgent,
	}, validator, logger, opts...), nil
}

func (a *App) setupRouter() {
	if a.config.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	metricsPath := a.config.Monitoring.MetricsPath

	// Global middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(a.logger))
	router.Use(middleware.Recovery(a.logger))
	router.Use(middleware.CORS(a.config))
	router.Use(middleware.Metrics(a.services.Metrics))
	router.Use(middleware.Compression(metricsPath))

	router.GET("/health", a.handlers.Health.Check)

	if a.config.Monitoring.Enabled {
		router.GET(metricsPath, gin.WrapH(a.services.Metrics.Handler()))
	}

	// User-facing actions run one at a time
	api := router.Group("/api/v1")
	api.Use(middleware.Serialize())
	{
		users := api.Group("/users")
		{
			users.GET("/:user/recommendations", a.handlers.Recommendation.Get)
			users.GET("/:user/history", a.handlers.Recommendation.History)
			users.POST("/:user/advice", a.handlers.Advice.Create)
		}

		api.GET("/problems/:problemId/similar", a.handlers.Recommendation.Similar)
		api.POST("/editorials/scrape", a.handlers.Editorial.Scrape)
	}

	a.router = router
}
