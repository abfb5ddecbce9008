package app

import (
	"context"
	"database/sql"
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	libdb "parkinglot/backend/libs/db"
	libredis "parkinglot/backend/libs/redis"
	"parkinglot/backend/services/parking-service/internal/config"
	httpserver "parkinglot/backend/services/parking-service/internal/http"
	"parkinglot/backend/services/parking-service/internal/http/handlers"
	"parkinglot/backend/services/parking-service/internal/http/middleware"
	"parkinglot/backend/services/parking-service/internal/metrics"
	"parkinglot/backend/services/parking-service/internal/receipt"
	redisstore "parkinglot/backend/services/parking-service/internal/redis"
	"parkinglot/backend/services/parking-service/internal/repository"
	"parkinglot/backend/services/parking-service/internal/service"
	"parkinglot/backend/services/parking-service/internal/ws"
)

// App wires parking-service dependencies.
type App struct {
	server      *httpserver.Server
	db          *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger
}

// New constructs the application graph.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	sqlDB, err := libdb.NewPostgresDB(ctx, cfg.Database.DSN, cfg.Database.Pool)
	if err != nil {
		return nil, err
	}
	a := &App{db: sqlDB, logger: logger}

	if cfg.Database.Migrate {
		if err := libdb.Migrate(ctx, sqlDB, repository.Migrations, repository.MigrationsDir); err != nil {
			a.Close()
			return nil, err
		}
		logger.Info("database migrations applied")
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	signer, err := receipt.NewSigner(cfg.Receipts.Secret, cfg.Receipts.Issuer)
	if err != nil {
		a.Close()
		return nil, err
	}

	vehicleTypes := service.NewVehicleTypesService(repository.NewVehicleTypeRepository(sqlDB), logger.Named("vehicle-types"))
	if cfg.Seed.OnStartup {
		if _, err := vehicleTypes.SeedDefaults(ctx); err != nil && !errors.Is(err, service.ErrAlreadySeeded) {
			a.Close()
			return nil, err
		}
	}

	opts := []service.EntriesOption{
		service.WithSigner(signer),
		service.WithMetrics(m),
	}
	if cfg.Redis.Enabled {
		a.redisClient, err = libredis.NewRedisClient(ctx, libredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			a.Close()
			return nil, err
		}
		opts = append(opts, service.WithActiveCache(redisstore.NewStore(a.redisClient, cfg.ActiveEntryTTL())))
	}

	var hub *ws.Hub
	if cfg.Feed.Enabled {
		hub = ws.NewHub(ws.Options{
			PingInterval:   cfg.Feed.PingInterval,
			AllowedOrigins: cfg.Feed.AllowedOrigins,
		}, logger.Named("feed"), m)
		opts = append(opts, service.WithPublisher(hub))
	}

	entries := service.NewEntriesService(repository.NewEntryRepository(sqlDB), vehicleTypes, logger.Named("entries"), opts...)

	checks := map[string]handlers.Pinger{"postgres": sqlDB.PingContext}
	if a.redisClient != nil {
		client := a.redisClient
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	}

	deps := httpserver.RouterDeps{
		Entries: handlers.NewEntriesHandlers(entries, receipt.Layout{
			Title:    cfg.Receipts.Title,
			Currency: cfg.Receipts.Currency,
			Location: loc,
		}, logger),
		VehicleTypes:  handlers.NewVehicleTypesHandlers(vehicleTypes, logger),
		Billing:       handlers.NewBillingHandlers(entries, logger),
		HealthHandler: handlers.NewHealthHandler(checks),
	}
	if m != nil {
		deps.Metrics = m.Handler()
	}
	if hub != nil {
		deps.Feed = hub.Handler()
	}

	a.server = httpserver.NewServer(cfg.HTTPAddress(), httpserver.NewRouter(deps), httpserver.ServerOptions{
		ReadTimeout:     cfg.HTTP.ReadTimeout,
		WriteTimeout:    cfg.HTTP.WriteTimeout,
		IdleTimeout:     cfg.HTTP.IdleTimeout,
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
	}, logger,
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger, cfg.HTTP.AccessLog),
	)
	if hub != nil {
		a.server.RegisterOnShutdown(hub.Close)
	}
	return a, nil
}

// Run starts HTTP server.
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
