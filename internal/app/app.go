package app

import (
	"context"
	"fmt"
	"net"

	"gorm.io/gorm"

	"github.com/yungbote/gma-backend/internal/data/db"
	"github.com/yungbote/gma-backend/internal/http"
	"github.com/yungbote/gma-backend/internal/observability"
	"github.com/yungbote/gma-backend/internal/platform/logger"
	"github.com/yungbote/gma-backend/internal/platform/objstore"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *http.Server
	Cfg      Config
	Repos    Repos
	Services Services
	Clients  Clients
	Store    objstore.Store
	Metrics  *observability.Metrics

	dbService    *db.Service
	otelShutdown func(context.Context) error
}

// New loads configuration and wires every layer. Close releases what New
// opened, including on partial failure.
func New(ctx context.Context) (*App, error) {
	a, err := Bootstrap(ctx)
	if err != nil {
		return nil, err
	}

	a.Clients, err = wireClients(a.Log, a.Cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	if a.Cfg.MetricsEnabled {
		if a.Metrics, err = observability.NewMetrics(); err != nil {
			a.Close()
			return nil, fmt.Errorf("init metrics: %w", err)
		}
	}

	a.Services = wireServices(a.DB, a.Log, a.Cfg, a.Repos, a.Clients, a.Store, a.Metrics)
	handlers := wireHandlers(a.Log, a.Cfg, a.Services)
	middleware := wireMiddleware(a.Log, a.Clients, a.Services)
	a.Server = wireServer(a.Log, a.Cfg, a.Metrics, handlers, middleware)
	return a, nil
}

// Bootstrap opens the logger, tracing, database and video store. Offline
// tools that do not serve HTTP stop here.
func Bootstrap(ctx context.Context) (*App, error) {
	cfg, err := LoadConfig(nil)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	a := &App{Log: log, Cfg: cfg}
	a.otelShutdown, err = observability.InitOTel(ctx, log, cfg.Otel)
	if err != nil {
		log.Warn("Tracing disabled", "error", err)
	}

	log.Info("Opening database...", "driver", cfg.Database.Driver)
	a.dbService, err = db.Open(log, cfg.DB())
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := a.dbService.AutoMigrateAll(); err != nil {
		a.Close()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	a.DB = a.dbService.DB()
	a.Repos = wireRepos(a.DB, log)

	a.Store, err = resolveObjectStore(ctx, log, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	addr := net.JoinHostPort("", a.Cfg.Port)
	a.Log.Info("Server listening", "addr", addr, "storage", a.Store.Backend(), "auth_mode", a.Cfg.Auth.Mode)
	return a.Server.Run(ctx, addr, a.Cfg.ShutdownGrace)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.dbService != nil {
		if err := a.dbService.Close(); err != nil && a.Log != nil {
			a.Log.Warn("Closing database failed", "error", err)
		}
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(context.Background()); err != nil && a.Log != nil {
			a.Log.Warn("OTel shutdown failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
