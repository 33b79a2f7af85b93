package credentials

import (
	"context"
	"fmt"

	"github.com/apitaf/apitaf/data"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps headers as the fields of a Redis hash.
type RedisStore struct {
	redis *redis.Client
	key   string
}

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{redis: client, key: key}
}

func (r *RedisStore) Location() string {
	return fmt.Sprintf("redis://%s (hash %s)", r.redis.Options().Addr, r.key)
}

func (r *RedisStore) Load(ctx context.Context) (map[string]string, error) {
	headers, err := r.redis.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, err
	}
	if len(headers) == 0 {
		return nil, data.ConfigurationError{Path: r.Location(), Reason: missingCredentialsReason, Fatal: true}
	}
	return headers, nil
}

func (r *RedisStore) Save(ctx context.Context, headers map[string]string) error {
	_, err := r.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key)
		if len(headers) != 0 {
			pipe.HSet(ctx, r.key, headers)
		}
		return nil
	})
	return err
}
