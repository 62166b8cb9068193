package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mx-space/fieldkit/internal/config"
	"github.com/mx-space/fieldkit/internal/database"
	"github.com/mx-space/fieldkit/internal/middleware"
	"github.com/mx-space/fieldkit/internal/modules/gateway"
	"github.com/mx-space/fieldkit/internal/modules/schema/builder"
	"github.com/mx-space/fieldkit/internal/modules/schema/contenttype"
	"github.com/mx-space/fieldkit/internal/modules/schema/editor"
	"github.com/mx-space/fieldkit/internal/pkg/cron"
	"github.com/mx-space/fieldkit/internal/pkg/metrics"
	pkgredis "github.com/mx-space/fieldkit/internal/pkg/redis"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App holds all application dependencies.
type App struct {
	cfg     *config.AppConfig
	router  *gin.Engine
	db      *gorm.DB
	rc      *pkgredis.Client
	hub     *gateway.Hub
	types   *contenttype.Service
	editor  *editor.Service
	metrics *metrics.Metrics
	logger  *zap.Logger
	cancel  context.CancelFunc
	sched   *cron.Scheduler
	started time.Time
}

// New initializes the application: config → DB → Redis → services → routes.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	applyRuntimeSettings(cfg)

	db, err := database.Connect(cfg, true)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	var (
		rc    *pkgredis.Client
		store editor.Store
	)
	if cfg.Redis.Enable {
		rc, err = pkgredis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("redis: %w", err)
		}
		store = editor.NewRedisStore(rc)
	} else {
		logger.Warn("redis disabled, builder sessions are kept in memory only")
		store = editor.NewMemoryStore()
	}

	m := metrics.New()

	catalog := builder.DefaultCatalog()
	types := contenttype.NewService(db, catalog)
	editorSvc := editor.NewService(types, store, logger.Named("builder"), editor.Options{
		PlaceholderLabel: cfg.Builder.PlaceholderLabel,
		Policy:           editorPolicy(cfg.Builder),
		IdleTimeout:      cfg.Builder.SessionIdleTimeout,
		Catalog:          catalog,
		Metrics:          m,
	})

	hub := gateway.NewHub(rc, logger.Named("gateway"), editorSvc)
	editorSvc.SetNotifier(hub)
	go hub.Run(ctx)

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger.Named("http"), m))
	router.Use(cors.New(corsConfig(cfg)))

	sched := cron.New(cron.WithLogger(logger.Named("cron")))
	if err := registerCronJobs(sched, cfg, editorSvc, logger.Named("cron")); err != nil {
		cancel()
		return nil, err
	}
	sched.Start(ctx)

	app := &App{
		cfg:     cfg,
		router:  router,
		db:      db,
		rc:      rc,
		hub:     hub,
		types:   types,
		editor:  editorSvc,
		metrics: m,
		logger:  logger,
		cancel:  cancel,
		sched:   sched,
		started: time.Now(),
	}
	app.registerRoutes()

	return app, nil
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown stops background goroutines and closes connections.
func (a *App) Shutdown() {
	a.cancel()
	if a.rc != nil {
		if err := a.rc.Close(); err != nil {
			a.logger.Warn("close redis", zap.Error(err))
		}
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func corsConfig(cfg *config.AppConfig) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.IdempotenceHeader},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
	}
	if len(cfg.AllowedOrigins) > 0 && !cfg.IsDev() {
		patterns := cfg.AllowedOrigins
		c.AllowOriginFunc = func(origin string) bool {
			return originAllowed(patterns, origin)
		}
	} else {
		c.AllowOriginFunc = func(string) bool { return true }
	}
	return c
}

func editorPolicy(cfg config.BuilderRuntimeConfig) builder.IdentifierPolicy {
	if cfg.PreserveManualIdentifiers {
		return builder.PreserveManual
	}
	return builder.OverwriteOnLabelChange
}
