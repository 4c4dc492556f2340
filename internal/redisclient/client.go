package redisclient

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Client wraps a Redis client with OpenTelemetry tracing. Only the
// commands the verification store and registry need are exposed.
type Client struct {
	cmdable redis.Cmdable
}

// NewClient creates a new traced Redis client for a single Redis instance
func NewClient(client *redis.Client) *Client {
	return &Client{cmdable: client}
}

// NewClusterClient creates a new traced Redis client for a Redis cluster
func NewClusterClient(client *redis.ClusterClient) *Client {
	return &Client{cmdable: client}
}

func startSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(err error)) {
	start := time.Now()
	attrs = append(attrs,
		attribute.String("redis.operation", op),
		attribute.String("redis.client", "phone-verification"),
	)
	ctx, span := otel.Tracer("redis").Start(ctx, "redis."+op,
		trace.WithAttributes(attrs...),
	)
	return ctx, func(err error) {
		span.SetAttributes(
			attribute.Int64("redis.duration_ms", time.Since(start).Milliseconds()),
		)
		if err != nil && err != redis.Nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "success")
		}
		span.End()
	}
}

// Get wraps Redis GET
func (c *Client) Get(ctx context.Context, key string) *redis.StringCmd {
	ctx, finish := startSpan(ctx, "get", attribute.String("redis.key", key))
	cmd := c.cmdable.Get(ctx, key)
	finish(cmd.Err())
	return cmd
}

// Set wraps Redis SET
func (c *Client) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	ctx, finish := startSpan(ctx, "set",
		attribute.String("redis.key", key),
		attribute.String("redis.expiration", expiration.String()),
	)
	cmd := c.cmdable.Set(ctx, key, value, expiration)
	finish(cmd.Err())
	return cmd
}

// Del wraps Redis DEL
func (c *Client) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	ctx, finish := startSpan(ctx, "del", attribute.StringSlice("redis.keys", keys))
	cmd := c.cmdable.Del(ctx, keys...)
	finish(cmd.Err())
	return cmd
}

// Exists wraps Redis EXISTS
func (c *Client) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	ctx, finish := startSpan(ctx, "exists", attribute.StringSlice("redis.keys", keys))
	cmd := c.cmdable.Exists(ctx, keys...)
	finish(cmd.Err())
	return cmd
}

// Incr wraps Redis INCR
func (c *Client) Incr(ctx context.Context, key string) *redis.IntCmd {
	ctx, finish := startSpan(ctx, "incr", attribute.String("redis.key", key))
	cmd := c.cmdable.Incr(ctx, key)
	finish(cmd.Err())
	return cmd
}

// PExpireAt wraps Redis PEXPIREAT
func (c *Client) PExpireAt(ctx context.Context, key string, tm time.Time) *redis.BoolCmd {
	ctx, finish := startSpan(ctx, "pexpireat", attribute.String("redis.key", key))
	cmd := c.cmdable.PExpireAt(ctx, key, tm)
	finish(cmd.Err())
	return cmd
}

// TTL wraps Redis TTL
func (c *Client) TTL(ctx context.Context, key string) *redis.DurationCmd {
	ctx, finish := startSpan(ctx, "ttl", attribute.String("redis.key", key))
	cmd := c.cmdable.TTL(ctx, key)
	finish(cmd.Err())
	return cmd
}

// HGetAll wraps Redis HGETALL
func (c *Client) HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd {
	ctx, finish := startSpan(ctx, "hgetall",
		attribute.String("redis.key", key),
		attribute.String("redis.type", "hash"),
	)
	cmd := c.cmdable.HGetAll(ctx, key)
	finish(cmd.Err())
	return cmd
}

// HGet wraps Redis HGET
func (c *Client) HGet(ctx context.Context, key, field string) *redis.StringCmd {
	ctx, finish := startSpan(ctx, "hget",
		attribute.String("redis.key", key),
		attribute.String("redis.field", field),
		attribute.String("redis.type", "hash"),
	)
	cmd := c.cmdable.HGet(ctx, key, field)
	finish(cmd.Err())
	return cmd
}

// HSet wraps Redis HSET
func (c *Client) HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	ctx, finish := startSpan(ctx, "hset",
		attribute.String("redis.key", key),
		attribute.String("redis.type", "hash"),
	)
	cmd := c.cmdable.HSet(ctx, key, values...)
	finish(cmd.Err())
	return cmd
}

// ZAdd wraps Redis ZADD
func (c *Client) ZAdd(ctx context.Context, key string, members ...redis.Z) *redis.IntCmd {
	ctx, finish := startSpan(ctx, "zadd",
		attribute.String("redis.key", key),
		attribute.String("redis.type", "zset"),
		attribute.Int("redis.member_count", len(members)),
	)
	cmd := c.cmdable.ZAdd(ctx, key, members...)
	finish(cmd.Err())
	return cmd
}

// ZRem wraps Redis ZREM
func (c *Client) ZRem(ctx context.Context, key string, members ...interface{}) *redis.IntCmd {
	ctx, finish := startSpan(ctx, "zrem",
		attribute.String("redis.key", key),
		attribute.String("redis.type", "zset"),
	)
	cmd := c.cmdable.ZRem(ctx, key, members...)
	finish(cmd.Err())
	return cmd
}

// ZScore wraps Redis ZSCORE
func (c *Client) ZScore(ctx context.Context, key, member string) *redis.FloatCmd {
	ctx, finish := startSpan(ctx, "zscore",
		attribute.String("redis.key", key),
		attribute.String("redis.type", "zset"),
	)
	cmd := c.cmdable.ZScore(ctx, key, member)
	finish(cmd.Err())
	return cmd
}

// ZCard wraps Redis ZCARD
func (c *Client) ZCard(ctx context.Context, key string) *redis.IntCmd {
	ctx, finish := startSpan(ctx, "zcard",
		attribute.String("redis.key", key),
		attribute.String("redis.type", "zset"),
	)
	cmd := c.cmdable.ZCard(ctx, key)
	finish(cmd.Err())
	return cmd
}

// ZRevRangeWithScores wraps Redis ZREVRANGE WITHSCORES
func (c *Client) ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) *redis.ZSliceCmd {
	ctx, finish := startSpan(ctx, "zrevrange",
		attribute.String("redis.key", key),
		attribute.String("redis.type", "zset"),
	)
	cmd := c.cmdable.ZRevRangeWithScores(ctx, key, start, stop)
	finish(cmd.Err())
	return cmd
}

// ZRangeByScore wraps Redis ZRANGEBYSCORE
func (c *Client) ZRangeByScore(ctx context.Context, key string, opt *redis.ZRangeBy) *redis.StringSliceCmd {
	ctx, finish := startSpan(ctx, "zrangebyscore",
		attribute.String("redis.key", key),
		attribute.String("redis.type", "zset"),
	)
	cmd := c.cmdable.ZRangeByScore(ctx, key, opt)
	finish(cmd.Err())
	return cmd
}

// Ping wraps Redis PING
func (c *Client) Ping(ctx context.Context) *redis.StatusCmd {
	ctx, finish := startSpan(ctx, "ping")
	cmd := c.cmdable.Ping(ctx)
	finish(cmd.Err())
	return cmd
}

// PoolStats returns connection pool statistics when available.
func (c *Client) PoolStats() *redis.PoolStats {
	if singleClient, ok := c.cmdable.(*redis.Client); ok {
		return singleClient.PoolStats()
	}
	if clusterClient, ok := c.cmdable.(*redis.ClusterClient); ok {
		return clusterClient.PoolStats()
	}
	return &redis.PoolStats{}
}
