package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// newTestClient connects to TEST_REDIS_ADDR; the test is skipped without it.
func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis at %s unavailable: %v", addr, err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestTokenCacheRoundTrip(t *testing.T) {
	client := newTestClient(t)
	c := NewTokenCache(client)
	ctx := context.Background()
	userID := uuid.NewString()

	cases := []struct {
		name   string
		key    string
		ttl    time.Duration
		save   func(token string) error
		get    func(token string) (string, error)
		delete func(token string) error
	}{
		{
			name:   "refresh",
			key:    refreshPrefix,
			ttl:    time.Hour,
			save:   func(tok string) error { return c.SaveRefresh(ctx, userID, tok, time.Hour) },
			get:    func(tok string) (string, error) { return c.CheckRefresh(ctx, tok) },
			delete: func(tok string) error { return c.DeleteRefresh(ctx, tok) },
		},
		{
			name:   "verify",
			key:    verifyPrefix,
			ttl:    VerifyTTL,
			save:   func(tok string) error { return c.SaveVerifyToken(ctx, tok, userID) },
			get:    func(tok string) (string, error) { return c.GetVerifyToken(ctx, tok) },
			delete: func(tok string) error { return c.DeleteVerifyToken(ctx, tok) },
		},
		{
			name:   "reset",
			key:    resetPrefix,
			ttl:    ResetTTL,
			save:   func(tok string) error { return c.SaveResetToken(ctx, tok, userID) },
			get:    func(tok string) (string, error) { return c.GetResetToken(ctx, tok) },
			delete: func(tok string) error { return c.DeleteResetToken(ctx, tok) },
		},
	}
	for _, tc := range cases {
		token := uuid.NewString()
		t.Cleanup(func() { client.Del(context.Background(), tc.key+token) })

		if _, err := tc.get(token); !errors.Is(err, ErrMiss) {
			t.Fatalf("%s: expected ErrMiss before save, got %v", tc.name, err)
		}
		if err := tc.save(token); err != nil {
			t.Fatalf("%s: save: %v", tc.name, err)
		}
		got, err := tc.get(token)
		if err != nil || got != userID {
			t.Fatalf("%s: get = %q, %v", tc.name, got, err)
		}

		ttl, err := client.TTL(ctx, tc.key+token).Result()
		if err != nil {
			t.Fatalf("%s: ttl: %v", tc.name, err)
		}
		if ttl <= 0 || ttl > tc.ttl {
			t.Fatalf("%s: ttl = %v, want (0, %v]", tc.name, ttl, tc.ttl)
		}

		if err := tc.delete(token); err != nil {
			t.Fatalf("%s: delete: %v", tc.name, err)
		}
		if _, err := tc.get(token); !errors.Is(err, ErrMiss) {
			t.Fatalf("%s: expected ErrMiss after delete, got %v", tc.name, err)
		}
	}
}

func TestTokenCacheConnectionErrorIsNotMiss(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 200 * time.Millisecond,
	})
	defer client.Close()
	c := NewTokenCache(client)

	_, err := c.CheckRefresh(context.Background(), "token")
	if err == nil || errors.Is(err, ErrMiss) {
		t.Fatalf("expected a connection error distinct from ErrMiss, got %v", err)
	}
}
