package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	mongoopts "go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/crmagente/ranking/internal/adapters/cache"
	"github.com/crmagente/ranking/internal/adapters/http/api"
	"github.com/crmagente/ranking/internal/adapters/registry"
	"github.com/crmagente/ranking/internal/adapters/store"
	"github.com/crmagente/ranking/internal/app"
	"github.com/crmagente/ranking/internal/config"
	"github.com/crmagente/ranking/pkg/logger"
	"github.com/crmagente/ranking/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
	connectTimeout    = 10 * time.Second
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env).
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input).
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	client, err := mongo.Connect(connectCtx, mongoopts.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Error(ctx, "failed to connect to document store", logger.Error(err))
		return
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Error(ctx, "document store disconnect failed", logger.Error(err))
		}
	}()
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		log.Warn(ctx, "document store not reachable yet; continuing", logger.Error(err))
	}

	db := client.Database(cfg.MongoDatabase)
	scanner := store.NewMongoScanner(db,
		store.WithPrefix(cfg.CollectionPrefix),
		store.WithMaxParallel(cfg.MaxParallelScans),
		store.WithMaxFailedCollections(cfg.MaxFailedCollections),
		store.WithLogger(logger.Named("store")),
	)
	directory := registry.NewMongoDirectory(db, cfg.UsersCollection)
	resultCache := cache.New[*app.Result](
		cache.WithTTL[*app.Result](time.Duration(cfg.CacheTTLSeconds) * time.Second),
	)

	svc := app.New(scanner, directory,
		app.WithCache(resultCache),
		app.WithWorkers(cfg.AggregationWorkers),
		app.WithTimeout(time.Duration(cfg.RequestTimeoutMS)*time.Millisecond),
		app.WithLogger(logger.Named("app")),
	)
	defer svc.Close()

	// HTTP mux and routes.
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	api.NewServer(svc, cfg.MaxLimit).Register(mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}
