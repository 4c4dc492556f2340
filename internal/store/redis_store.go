package store

import (
	"context"
	"strconv"
	"time"

	"github.com/forumhub/phone-verification/internal/redisclient"
	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on top of the traced Redis client.
type RedisStore struct {
	client *redisclient.Client
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client *redisclient.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	return val, err
}

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, key).Result()
	return n > 0, err
}

func (s *RedisStore) Increment(ctx context.Context, key string) (int64, error) {
	return s.client.Incr(ctx, key).Result()
}

func (s *RedisStore) ExpireAt(ctx context.Context, key string, at time.Time) error {
	return s.client.PExpireAt(ctx, key, at).Err()
}

func (s *RedisStore) GetObject(ctx context.Context, key string) (map[string]string, error) {
	return s.client.HGetAll(ctx, key).Result()
}

func (s *RedisStore) SetObject(ctx context.Context, key string, fields map[string]string) error {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return s.client.HSet(ctx, key, args...).Err()
}

func (s *RedisStore) SetObjectField(ctx context.Context, key, field, value string) error {
	return s.client.HSet(ctx, key, field, value).Err()
}

func (s *RedisStore) SortedSetAdd(ctx context.Context, set string, score float64, member string) error {
	return s.client.ZAdd(ctx, set, redis.Z{Score: score, Member: member}).Err()
}

func (s *RedisStore) SortedSetRemove(ctx context.Context, set string, member string) error {
	return s.client.ZRem(ctx, set, member).Err()
}

func (s *RedisStore) SortedSetScore(ctx context.Context, set, member string) (float64, bool, error) {
	score, err := s.client.ZScore(ctx, set, member).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return score, true, nil
}

func (s *RedisStore) SortedSetCard(ctx context.Context, set string) (int64, error) {
	return s.client.ZCard(ctx, set).Result()
}

func (s *RedisStore) SortedSetRevRange(ctx context.Context, set string, start, stop int64) ([]Member, error) {
	zs, err := s.client.ZRevRangeWithScores(ctx, set, start, stop).Result()
	if err != nil {
		return nil, err
	}
	members := make([]Member, 0, len(zs))
	for _, z := range zs {
		member, _ := z.Member.(string)
		members = append(members, Member{Member: member, Score: z.Score})
	}
	return members, nil
}

func (s *RedisStore) SortedSetRangeByScore(ctx context.Context, set string, min, max float64) ([]string, error) {
	return s.client.ZRangeByScore(ctx, set, &redis.ZRangeBy{
		Min: strconv.FormatFloat(min, 'f', -1, 64),
		Max: strconv.FormatFloat(max, 'f', -1, 64),
	}).Result()
}
