package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned when a token is unknown or has expired.
var ErrMiss = errors.New("cache: token not found")

const (
	refreshPrefix = "refresh_token:"
	verifyPrefix  = "verify_token:"
	resetPrefix   = "reset_token:"

	VerifyTTL = 24 * time.Hour
	ResetTTL  = 10 * time.Minute
)

type TokenCache struct {
	client *redis.Client
}

func NewTokenCache(client *redis.Client) *TokenCache {
	return &TokenCache{client: client}
}

func (c *TokenCache) SaveRefresh(ctx context.Context, userID, refreshToken string, ttl time.Duration) error {
	return c.client.Set(ctx, refreshPrefix+refreshToken, userID, ttl).Err()
}

func (c *TokenCache) CheckRefresh(ctx context.Context, refreshToken string) (string, error) {
	return c.get(ctx, refreshPrefix+refreshToken)
}

func (c *TokenCache) DeleteRefresh(ctx context.Context, refreshToken string) error {
	return c.client.Del(ctx, refreshPrefix+refreshToken).Err()
}

// Токены подтверждения и сброса хранятся только в виде хеша

func (c *TokenCache) SaveVerifyToken(ctx context.Context, digest, userID string) error {
	return c.client.Set(ctx, verifyPrefix+digest, userID, VerifyTTL).Err()
}

func (c *TokenCache) GetVerifyToken(ctx context.Context, digest string) (string, error) {
	return c.get(ctx, verifyPrefix+digest)
}

func (c *TokenCache) DeleteVerifyToken(ctx context.Context, digest string) error {
	return c.client.Del(ctx, verifyPrefix+digest).Err()
}

func (c *TokenCache) SaveResetToken(ctx context.Context, digest, userID string) error {
	return c.client.Set(ctx, resetPrefix+digest, userID, ResetTTL).Err()
}

func (c *TokenCache) GetResetToken(ctx context.Context, digest string) (string, error) {
	return c.get(ctx, resetPrefix+digest)
}

func (c *TokenCache) DeleteResetToken(ctx context.Context, digest string) error {
	return c.client.Del(ctx, resetPrefix+digest).Err()
}

func (c *TokenCache) get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	if err != nil {
		return "", err
	}
	return val, nil
}
