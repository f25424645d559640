package localstore

import (
	"context"
	"errors"
	"time"

	"ai-analytics-client/internal/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// RedisStore backs the selection mirror with redis for shared or kiosk
// deployments where several client instances serve the same user.
type RedisStore struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger logger.ILogger
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration, log logger.ILogger) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl, logger: log}
}

func (s *RedisStore) Get(key string) (string, bool) {
	val, err := s.rdb.Get(context.Background(), key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("LocalStore", "Redis read failed", map[string]interface{}{
				"key": key, "error": err.Error(),
			})
		}
		return "", false
	}
	return val, true
}

func (s *RedisStore) Set(key, value string) {
	if err := s.rdb.Set(context.Background(), key, value, s.ttl).Err(); err != nil {
		s.logger.Warn("LocalStore", "Redis write failed", map[string]interface{}{
			"key": key, "error": err.Error(),
		})
	}
}

func (s *RedisStore) Delete(key string) {
	if err := s.rdb.Del(context.Background(), key).Err(); err != nil {
		s.logger.Warn("LocalStore", "Redis delete failed", map[string]interface{}{
			"key": key, "error": err.Error(),
		})
	}
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
