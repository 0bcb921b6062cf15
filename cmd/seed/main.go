package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/kiwari-pos/ordering/internal/auth"
	"github.com/kiwari-pos/ordering/internal/cart"
	"github.com/kiwari-pos/ordering/internal/config"
	"github.com/kiwari-pos/ordering/internal/db"
	"github.com/kiwari-pos/ordering/internal/enum"
	"github.com/kiwari-pos/ordering/internal/logging"
	"github.com/kiwari-pos/ordering/internal/snapshot"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// seed writes a demo cart snapshot into the Postgres snapshot table and
// prints a session token that can restore it through POST /cart/restore.
func main() {
	// CLI flags
	sessionFlag := flag.String("session", "", "Session ID to seed (random when empty)")
	role := flag.String("role", enum.SessionRoleCashier, "Role for the printed session token")
	flag.Parse()

	// Fall back to environment variables
	if *sessionFlag == "" {
		*sessionFlag = os.Getenv("SEED_SESSION")
	}

	cfg := config.Load()
	logger, err := logging.New(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	sessionID := uuid.New()
	if *sessionFlag != "" {
		if sessionID, err = uuid.Parse(*sessionFlag); err != nil {
			logger.Fatal("invalid session id", zap.String("session", *sessionFlag), zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("unable to connect to database", zap.Error(err))
	}
	defer pool.Close()
	logger.Info("connected to database")

	if err := snapshot.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate snapshot table", zap.Error(err))
	}

	payload, err := snapshot.Encode(demoCart())
	if err != nil {
		logger.Fatal("encode demo cart", zap.Error(err))
	}

	key := snapshot.SessionKey(cfg.SnapshotKey, sessionID)
	if err := snapshot.NewPostgresStore(pool).Set(ctx, key, payload); err != nil {
		logger.Fatal("write demo cart", zap.String("key", key), zap.Error(err))
	}

	token, err := auth.GenerateSessionToken(cfg.JWTSecret, sessionID, *role, cfg.SessionTTL)
	if err != nil {
		logger.Fatal("generate session token", zap.Error(err))
	}

	logger.Info("seed completed successfully",
		zap.String("session_id", sessionID.String()),
		zap.String("key", key),
	)
	fmt.Println(token)
}

func demoCart() []cart.LineItem {
	return []cart.LineItem{
		{ID: "nasi-bakar-ayam", Name: "Nasi Bakar Ayam", UnitPrice: decimal.RequireFromString("28000"), Quantity: 2},
		{ID: "nasi-bakar-cumi", Name: "Nasi Bakar Cumi", UnitPrice: decimal.RequireFromString("32000"), Quantity: 1},
		{ID: "es-teh-manis", Title: "Es Teh Manis", UnitPrice: decimal.RequireFromString("8000"), Quantity: 3},
	}
}
