//go:build integration

package snapshot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiwari-pos/ordering/internal/cart"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestPostgresStoreFlow snapshots a cart through the Writer into a real
// PostgreSQL database and restores it into a fresh aggregator.
func TestPostgresStoreFlow(t *testing.T) {
	ctx := context.Background()

	connStr, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	defer pool.Close()

	if err := Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// Second run must be a no-op.
	if err := Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate again: %v", err)
	}

	store := NewPostgresStore(pool)
	w := NewWriter(store, nil, 5*time.Second)

	if _, err := w.Load(ctx, "cart:pg"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before first write, got %v", err)
	}

	agg := cart.New(cart.WithHook(w.Hook("cart:pg")))
	agg.AddItem(cart.LineItemInput{ID: "A", Name: "Nasi Bakar", UnitPrice: decimal.RequireFromString("25000.00")})
	agg.AddItem(cart.LineItemInput{ID: "B", Title: "Es Jeruk", UnitPrice: decimal.RequireFromString("8000.50")})
	agg.UpdateQuantity("A", 2)
	w.Flush(ctx)

	items, err := w.Load(ctx, "cart:pg")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	restored := cart.New()
	restored.Restore(items)

	if got := restored.Total().StringFixed(2); got != "83000.50" {
		t.Errorf("restored total: got %s, want 83000.50", got)
	}
	if got := restored.Items(); len(got) != 2 || got[0].ID != "A" || got[0].Quantity != 3 {
		t.Errorf("restored items: %+v", got)
	}

	// Overwrite with the emptied cart.
	agg.PlaceOrder()
	w.Flush(ctx)
	items, err = w.Load(ctx, "cart:pg")
	if err != nil {
		t.Fatalf("load after order: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("snapshot after order: got %d items, want 0", len(items))
	}
}

func setupPostgresContainer(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("cart_test"),
		tcpostgres.WithUsername("pos"),
		tcpostgres.WithPassword("pos"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("get connection string: %v", err)
	}

	cleanup := func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	}
	return connStr, cleanup
}
