package cache

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig captures the connection parameters for the Redis-backed store.
type RedisConfig struct {
	Address  string
	Username string
	Password string
	DB       int
	TLS      bool
	Timeout  time.Duration
}

const defaultRedisTimeout = 5 * time.Second
const redisKeyPrefix = "agegate:"

// RedisStore implements Store on top of go-redis. A single client is shared;
// go-redis manages pooling internally.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed store. The connection is verified
// eagerly so misconfiguration surfaces during application startup.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRedisTimeout
	}

	opts := &redis.Options{
		Addr:         cfg.Address,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}
	if cfg.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

// Health checks if the Redis connection is healthy.
func (s *RedisStore) Health(ctx context.Context) error {
	if s == nil || s.client == nil {
		return errors.New("cache: redis store not initialised")
	}
	return s.client.Ping(ctx).Err()
}

// IncrementWithTTL atomically increments a counter, starting the expiry window
// on first use.
func (s *RedisStore) IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if s == nil || s.client == nil {
		return 0, 0, errors.New("cache: redis store not initialised")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if window <= 0 {
		window = time.Minute
	}

	prefixed := redisKeyPrefix + key

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, prefixed)
	ttlCmd := pipe.PTTL(ctx, prefixed)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, err
	}

	ttl := ttlCmd.Val()
	if ttl < 0 {
		// Key is fresh or has no expiry yet.
		if err := s.client.PExpire(ctx, prefixed, window).Err(); err != nil {
			return 0, 0, err
		}
		ttl = window
	}

	return incr.Val(), ttl, nil
}

// Set stores the value under key with the supplied TTL (0 means no expiry).
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if s == nil || s.client == nil {
		return errors.New("cache: redis store not initialised")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if ttl < 0 {
		ttl = 0
	}

	return s.client.Set(ctx, redisKeyPrefix+key, value, ttl).Err()
}

// Get retrieves a value by key.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s == nil || s.client == nil {
		return nil, false, errors.New("cache: redis store not initialised")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	value, err := s.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Delete removes keys from the store.
func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if s == nil || s.client == nil {
		return errors.New("cache: redis store not initialised")
	}
	if len(keys) == 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = redisKeyPrefix + key
	}
	return s.client.Del(ctx, prefixed...).Err()
}
