package redis

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/thiagodifaria/MoodAPI/internal/cache"
	"github.com/thiagodifaria/MoodAPI/internal/fingerprint"
)

var (
	testRedisURL string
	redContainer testcontainers.Container
)

func TestMain(m *testing.M) {
	// Parse flags to check for -short
	flag.Parse()

	// Skip container setup if running in short mode
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	var err error
	redContainer, err = redis.Run(ctx, "redis:7-alpine")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start redis container: %v\n", err)
		os.Exit(1)
	}

	endpoint, err := redContainer.Endpoint(ctx, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get redis endpoint: %v\n", err)
		os.Exit(1)
	}
	testRedisURL = "redis://" + endpoint

	defer func() {
		if err := redContainer.Terminate(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "failed to terminate redis container: %v\n", err)
		}
	}()
	os.Exit(m.Run())
}

func setupTestClient(t *testing.T) *Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	client, err := NewClient(testRedisURL)
	if err != nil {
		t.Fatalf("failed to create redis client: %v", err)
	}

	// Flush all keys before each test
	if err := client.Underlying().FlushAll(context.Background()).Err(); err != nil {
		t.Fatalf("failed to flush redis: %v", err)
	}

	t.Cleanup(func() {
		_ = client.Close()
	})

	return client
}

func TestNewClient_Ping(t *testing.T) {
	client := setupTestClient(t)

	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient("not-a-redis-url")
	if err == nil {
		t.Fatal("expected error for invalid URL")
	}
}

func TestResultCache_RoundtripAgainstRedis(t *testing.T) {
	client := setupTestClient(t)
	ctx := context.Background()

	c := cache.New(client.Underlying(), cache.Options{})
	key := fingerprint.Key("integration test text", "en", "model-v1")

	if _, ok := c.Get(ctx, key); ok {
		t.Fatal("expected a miss on a fresh key")
	}

	c.Put(ctx, key, `{"sentiment":"positive"}`, time.Minute)

	got, ok := c.Get(ctx, key)
	if !ok {
		t.Fatal("expected a hit after put")
	}
	if got != `{"sentiment":"positive"}` {
		t.Fatalf("got %q", got)
	}

	// TTL must land on the primary entry.
	ttl, err := client.Underlying().TTL(ctx, key).Result()
	if err != nil {
		t.Fatalf("ttl lookup failed: %v", err)
	}
	if ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected ttl %v", ttl)
	}

	c.Invalidate(ctx, key)
	if _, ok := c.Get(ctx, key); ok {
		t.Fatal("expected a miss after invalidate")
	}
}
