package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kiwari-pos/ordering/internal/config"
	"github.com/kiwari-pos/ordering/internal/db"
	"github.com/kiwari-pos/ordering/internal/enum"
	"github.com/kiwari-pos/ordering/internal/logging"
	"github.com/kiwari-pos/ordering/internal/router"
	"github.com/kiwari-pos/ordering/internal/session"
	"github.com/kiwari-pos/ordering/internal/snapshot"
	"github.com/kiwari-pos/ordering/internal/ws"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	shutdownTimeout = 10 * time.Second
	sweepInterval   = time.Minute
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("open snapshot store", zap.String("backend", cfg.SnapshotBackend), zap.Error(err))
	}
	defer closeStore()

	// Background workers outlive the request context and stop on signal.
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	writer := snapshot.NewWriter(store, logger.Named("snapshot"), cfg.SnapshotWriteTimeout)
	writerDone := make(chan struct{})
	go func() {
		writer.Run(workerCtx)
		close(writerDone)
	}()

	hub := ws.NewHub(logger.Named("ws"))
	go hub.Run(workerCtx)

	// Carts idle past the token lifetime can no longer be reached.
	registry := session.NewRegistry(writer, hub, logger.Named("session"), session.Options{
		KeyPrefix:      cfg.SnapshotKey,
		RestoreOnStart: cfg.RestoreOnStart,
		IdleTTL:        cfg.SessionTTL,
	})
	go registry.RunSweeper(workerCtx, sweepInterval)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.New(cfg, registry, hub, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", srv.Addr), zap.String("snapshot_backend", cfg.SnapshotBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}

	// Stopping the writer flushes every pending snapshot.
	cancelWorkers()
	select {
	case <-writerDone:
	case <-shutdownCtx.Done():
		logger.Warn("snapshot writer did not finish", zap.Int("pending", writer.Pending()))
	}
	logger.Info("server stopped")
}

// openStore builds the snapshot store selected by SNAPSHOT_BACKEND and a
// func releasing its connections.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (snapshot.Store, func(), error) {
	switch cfg.SnapshotBackend {
	case enum.SnapshotBackendMemory:
		return snapshot.NewMemoryStore(), func() {}, nil

	case enum.SnapshotBackendRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		logger.Info("snapshot store ready", zap.String("backend", "redis"), zap.String("addr", cfg.RedisAddr))
		return snapshot.NewRedisStore(client, cfg.SnapshotTTL), func() { client.Close() }, nil

	case enum.SnapshotBackendPostgres:
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := snapshot.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info("snapshot store ready", zap.String("backend", "postgres"))
		return snapshot.NewPostgresStore(pool), pool.Close, nil

	case enum.SnapshotBackendMySQL:
		sqlDB, err := snapshot.OpenMySQL(ctx, cfg.MySQLDSN)
		if err != nil {
			return nil, nil, err
		}
		store := snapshot.NewMySQLStore(sqlDB)
		if err := store.EnsureSchema(ctx); err != nil {
			sqlDB.Close()
			return nil, nil, err
		}
		logger.Info("snapshot store ready", zap.String("backend", "mysql"))
		return store, func() { sqlDB.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown snapshot backend %q", cfg.SnapshotBackend)
	}
}
