package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"spinchart/internal/app/plays"
	"spinchart/internal/app/trending"
	"spinchart/internal/app/users"
	"spinchart/internal/auth"
	"spinchart/internal/cache"
	"spinchart/internal/httpapi"
	"spinchart/internal/store"
	"spinchart/internal/store/memstore"
	"spinchart/shared/go/config"
	"spinchart/shared/go/logging"
	"spinchart/shared/go/middleware"
)

// dataStore is the persistence surface shared by the Postgres and in-memory backends.
type dataStore interface {
	users.Store
	plays.Store
	trending.Store
	Ping(ctx context.Context) error
}

// openStore returns the configured backend and a close func.
func openStore(ctx context.Context, cfg *config.Config) (dataStore, func(), error) {
	if cfg.Database.Backend == config.BackendMemory {
		mem := memstore.New()
		if cfg.Database.Seed {
			if err := mem.Seed(ctx); err != nil {
				return nil, nil, fmt.Errorf("seed memory store: %w", err)
			}
		}
		logging.Info("Using in-memory store")
		return mem, func() {}, nil
	}

	db, err := store.Open(ctx, cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}
	pg := store.New(db)
	if cfg.Database.Seed {
		if err := bootstrapDemoData(ctx, db, pg); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
	}
	return pg, func() { _ = db.Close() }, nil
}

func newHTTPHandler(cfg *config.Config, logger *logging.Logger, ds dataStore) http.Handler {
	tokens := auth.NewTokenManager(cfg.Security.JWTSecret, cfg.Security.TokenTTL)

	userSvc := users.New(ds, tokens)
	playSvc := plays.New(ds)
	trendingSvc := trending.NewService(ds, trending.Options{
		GrowthWeight: cfg.Trending.GrowthWeight,
		Cache:        cache.New(cfg.Trending.CacheSize, cfg.Trending.CacheTTL),
	})

	var handler http.Handler = httpapi.New(userSvc, playSvc, trendingSvc).WithHealthCheck(ds).Routes()
	handler = middleware.Timeout(cfg.Server.RequestTimeout)(handler)
	handler = middleware.CORS(cfg.CORS.AllowedOrigins)(handler)
	handler = middleware.RequestLogging(logger)(handler)
	handler = middleware.Recovery()(handler)
	return handler
}

func newHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
