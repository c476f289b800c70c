package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"scanlink/backend/config"
)

// Client wraps the Redis connection.
// Currently a read-through cache for short-code resolution; tokens are not
// revocable, so there is no blacklist here.
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewClient connects to Redis and pings it once.
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}

	logger.Info("redis connected", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, logger: logger}, nil
}

// ── short-code cache ──

const (
	shortCodePrefix = "shortcode:"
	shortCodeTTL    = 24 * time.Hour
)

// CacheShortCode stores a code → scan-id mapping. Aliases are immutable,
// so a stale entry can only mean a deleted scan, which the service
// re-checks against the store anyway.
func (c *Client) CacheShortCode(ctx context.Context, code, scanID string) error {
	return c.rdb.Set(ctx, shortCodePrefix+code, scanID, shortCodeTTL).Err()
}

// LookupShortCode returns the cached scan id for a code, or "" on miss.
func (c *Client) LookupShortCode(ctx context.Context, code string) (string, error) {
	val, err := c.rdb.Get(ctx, shortCodePrefix+code).Result()
	if err == goredis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

// InvalidateShortCode drops a cached mapping (used by the consent
// cascade, which deletes scans).
func (c *Client) InvalidateShortCode(ctx context.Context, code string) error {
	return c.rdb.Del(ctx, shortCodePrefix+code).Err()
}

// ── rate limiting ──

// CheckRateLimit records one hit under key and reports whether the
// caller is still within limit for the sliding window. Entries older
// than the window are dropped on every check.
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	cutoff := strconv.FormatInt(now.Add(-window).UnixNano(), 10)

	pipe := c.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", cutoff)
	count := pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, goredis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()})
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	return count.Val() < int64(limit), nil
}

// Close shuts the connection down.
func (c *Client) Close() error {
	return c.rdb.Close()
}
