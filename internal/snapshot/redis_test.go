package snapshot

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

func TestRedisStore_SetAndGet(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	store := NewRedisStore(client, time.Minute)
	client.Del(ctx, "cart:test-session")

	if err := store.Set(ctx, "cart:test-session", []byte(`[]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	b, err := store.Get(ctx, "cart:test-session")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(b) != "[]" {
		t.Errorf("got %s, want []", b)
	}

	ttl, _ := client.TTL(ctx, "cart:test-session").Result()
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("ttl: got %v, want (0, 1m]", ttl)
	}
}

func TestRedisStore_GetMissing(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	client.Del(ctx, "cart:missing-session")

	_, err := NewRedisStore(client, 0).Get(ctx, "cart:missing-session")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
