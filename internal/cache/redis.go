package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyspace = "fantazy:"

// Redis stores entries as hashes {data, etag} with a key TTL.
type Redis struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedis parses a redis:// URL and verifies connectivity.
func NewRedis(ctx context.Context, redisURL string, logger *slog.Logger) (*Redis, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisFromClient(client, logger), nil
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(client *redis.Client, logger *slog.Logger) *Redis {
	if logger == nil {
		logger = slog.Default()
	}
	return &Redis{client: client, logger: logger}
}

// Close releases the client.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Get returns the entry or ok=false on miss. Redis errors are logged and
// treated as misses so the request still reaches Postgres.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, string, bool) {
	fields, err := r.client.HGetAll(ctx, redisKeyspace+key).Result()
	if err != nil {
		r.logger.Warn("Redis cache get failed", "key", key, "error", err)
		return nil, "", false
	}
	data, ok := fields["data"]
	if !ok {
		return nil, "", false
	}
	return []byte(data), fields["etag"], true
}

// Set writes the entry and its TTL in one transaction.
func (r *Redis) Set(ctx context.Context, key string, data []byte, ttl time.Duration) string {
	etag := ComputeETag(data)
	k := redisKeyspace + key
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, k, "data", data, "etag", etag)
	pipe.Expire(ctx, k, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Warn("Redis cache set failed", "key", key, "error", err)
	}
	return etag
}

// InvalidatePrefix deletes matching keys using SCAN so large keyspaces do not
// block the server.
func (r *Redis) InvalidatePrefix(ctx context.Context, prefix string) int {
	n := 0
	iter := r.client.Scan(ctx, 0, redisKeyspace+prefix+"*", 200).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			r.logger.Warn("Redis cache delete failed", "key", iter.Val(), "error", err)
			continue
		}
		n++
	}
	if err := iter.Err(); err != nil {
		r.logger.Warn("Redis cache scan failed", "prefix", prefix, "error", err)
	}
	return n
}

// Stats reports key count for this application's keyspace.
func (r *Redis) Stats(ctx context.Context) map[string]interface{} {
	keys := 0
	iter := r.client.Scan(ctx, 0, redisKeyspace+"*", 500).Iterator()
	for iter.Next(ctx) {
		keys++
	}
	stats := map[string]interface{}{
		"backend":    "redis",
		"enabled":    true,
		"total_keys": keys,
	}
	if err := iter.Err(); err != nil {
		stats["error"] = err.Error()
	}
	return stats
}
