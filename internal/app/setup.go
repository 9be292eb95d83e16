// Package app contains the application setup for the sweets service.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sweetlab/sweetshop/internal/cache"
	"github.com/sweetlab/sweetshop/internal/config"
	"github.com/sweetlab/sweetshop/internal/service"
	"github.com/sweetlab/sweetshop/internal/store"
	"github.com/sweetlab/sweetshop/internal/transport/rest"
	"github.com/sweetlab/sweetshop/pkg/messaging"
	"github.com/sweetlab/sweetshop/pkg/server"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Dependencies struct {
	Inventory  service.InventoryService
	Catalog    service.CatalogService
	Logger     *slog.Logger
	ReadyCheck func(ctx context.Context) error
}

// SetupDependencies wires the store, cache and services together. The
// publisher may be nil when eventing is disabled.
func SetupDependencies(dbPool *pgxpool.Pool, redisClient *redis.Client, publisher messaging.Publisher, cacheTTL time.Duration, logger *slog.Logger) *Dependencies {
	sweetStore := store.NewPgStore(dbPool)
	sweetCache := cache.NewRedisCache(redisClient)

	return &Dependencies{
		Inventory: service.NewInventory(sweetStore, sweetCache, publisher, logger),
		Catalog:   service.NewCatalog(sweetStore, sweetCache, cacheTTL, logger),
		Logger:    logger,
		ReadyCheck: func(ctx context.Context) error {
			if err := dbPool.Ping(ctx); err != nil {
				return fmt.Errorf("database not ready: %w", err)
			}
			if err := redisClient.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("cache not ready: %w", err)
			}
			return nil
		},
	}
}

// SetupHttpHandler initializes the HTTP server and routes for the sweets service.
// Used by tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

// wireRoutes sets up the HTTP routes for the sweets service.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	sweetHandler := rest.NewHandler(deps.Inventory, deps.Catalog, deps.Logger)
	sweetHandler.ReadyCheck = deps.ReadyCheck
	sweetHandler.RegisterRoutes(mux)
}

// SetupHttpServer creates and configures an HTTP server for the sweets service.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	mux := SetupHttpHandler(deps)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, mux)
}
