package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/openlearn-backend/internal/db"
	httpserver "github.com/yungbote/openlearn-backend/internal/http"
	"github.com/yungbote/openlearn-backend/internal/observability"
	"github.com/yungbote/openlearn-backend/internal/platform/envutil"
	"github.com/yungbote/openlearn-backend/internal/platform/logger"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Repos    Repos
	Services Services
	Clients  Clients
	Server   *httpserver.Server

	shutdownOtel func(context.Context) error
}

func newLogger() (*logger.Logger, error) {
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return log, nil
}

// bootstrap loads config and opens the database.
func bootstrap() (*logger.Logger, Config, *gorm.DB, error) {
	log, err := newLogger()
	if err != nil {
		return nil, Config{}, nil, err
	}
	log.Info("Loading configuration...")
	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, Config{}, nil, err
	}
	theDB, err := db.Open(log, cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		log.Sync()
		return nil, Config{}, nil, err
	}
	return log, cfg, theDB, nil
}

func New(ctx context.Context) (*App, error) {
	log, cfg, theDB, err := bootstrap()
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrateAll(log, theDB); err != nil {
		log.Sync()
		return nil, fmt.Errorf("automigrate: %w", err)
	}

	var metrics *observability.Metrics
	if cfg.MetricsEnabled {
		metrics = observability.Init(log)
		if sqlDB, err := theDB.DB(); err == nil {
			metrics.RegisterDB(sqlDB, cfg.Database.Driver)
		}
	}
	shutdownOtel := observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.Otel.Enabled,
		ServiceName: cfg.ProjectName,
		Environment: cfg.LogMode,
		Endpoint:    cfg.Otel.Endpoint,
		Headers:     observability.ParseHeaders(cfg.Otel.Headers),
		Insecure:    cfg.Otel.Insecure,
		SampleRatio: cfg.Otel.SampleRatio,
	})

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}
	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(theDB, log, cfg, reposet, clients)
	if err != nil {
		clients.Close()
		log.Sync()
		return nil, err
	}
	server := wireServer(log, cfg, metrics, wireHandlers(log, serviceset), wireMiddleware(log, serviceset))

	return &App{
		Log:          log,
		DB:           theDB,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Clients:      clients,
		Server:       server,
		shutdownOtel: shutdownOtel,
	}, nil
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return errors.New("app not initialized")
	}
	errCh := make(chan error, 1)
	go func() {
		a.Log.Info("HTTP server listening", "port", a.Cfg.Port, "prefix", a.Cfg.APIV1Prefix)
		errCh <- a.Server.Run()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	a.Log.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.shutdownOtel != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.shutdownOtel(ctx)
		cancel()
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}

// Migrate creates or updates the schema and returns.
func Migrate() error {
	log, _, theDB, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync()
	defer func() {
		if sqlDB, err := theDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()
	if err := db.AutoMigrateAll(log, theDB); err != nil {
		return err
	}
	log.Info("Migration complete")
	return nil
}
