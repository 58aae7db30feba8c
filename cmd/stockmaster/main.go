package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/stockmaster/stockmaster/internal/app"
	"github.com/stockmaster/stockmaster/internal/auth"
	"github.com/stockmaster/stockmaster/internal/dashboard"
	"github.com/stockmaster/stockmaster/internal/masterdata/contacts"
	"github.com/stockmaster/stockmaster/internal/masterdata/locations"
	"github.com/stockmaster/stockmaster/internal/masterdata/products"
	"github.com/stockmaster/stockmaster/internal/masterdata/warehouses"
	"github.com/stockmaster/stockmaster/internal/moves"
	"github.com/stockmaster/stockmaster/internal/observability"
	"github.com/stockmaster/stockmaster/internal/operations"
	"github.com/stockmaster/stockmaster/internal/platform/cache"
	"github.com/stockmaster/stockmaster/internal/platform/db"
	"github.com/stockmaster/stockmaster/internal/search"
	"github.com/stockmaster/stockmaster/internal/shared"
	"github.com/stockmaster/stockmaster/internal/stock"
	"github.com/stockmaster/stockmaster/internal/users"
	"github.com/stockmaster/stockmaster/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessions := shared.NewSessionStore(redisClient, cfg.SessionTTL)
	metrics := observability.NewMetrics()

	auditLogger := shared.NewAuditLogger(pool)
	stockService := stock.NewService(stock.NewRepository(pool), auditLogger)

	authHandler := auth.NewHandler(logger, auth.NewService(auth.NewRepository(pool)), sessions)
	usersHandler := users.NewHandler(logger, users.NewRepository(pool))
	operationsHandler := operations.NewHandler(logger, stockService, operations.NewRepository(pool))
	productsHandler := products.NewHandler(logger, products.NewService(products.NewRepository(pool)))
	warehousesHandler := warehouses.NewHandler(logger, warehouses.NewService(warehouses.NewRepository(pool)))
	locationsHandler := locations.NewHandler(logger, locations.NewService(locations.NewRepository(pool)))
	contactsHandler := contacts.NewHandler(logger, contacts.NewRepository(pool))
	movesHandler := moves.NewHandler(logger, moves.NewRepository(pool))
	dashboardHandler := dashboard.NewHandler(logger, dashboard.NewService(dashboard.NewRepository(pool), redisClient))
	searchHandler := search.NewHandler(logger, search.NewRepository(pool))

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		Sessions:          sessions,
		AuthHandler:       authHandler,
		UsersHandler:      usersHandler,
		OperationsHandler: operationsHandler,
		ProductsHandler:   productsHandler,
		WarehousesHandler: warehousesHandler,
		LocationsHandler:  locationsHandler,
		ContactsHandler:   contactsHandler,
		MovesHandler:      movesHandler,
		DashboardHandler:  dashboardHandler,
		SearchHandler:     searchHandler,
		JobsHandler:       jobsHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
