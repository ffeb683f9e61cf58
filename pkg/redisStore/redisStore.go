// Package redisStore implements keyValStore.Store on top of Redis.
package redisStore

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/i5heu/prolix/pkg/keyValStore"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Host              string
	Port              int
	Password          string
	DB                int
	DefaultTTLSeconds int
	Logger            *logrus.Logger
}

func (c Config) addr() string {
	host := c.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := c.Port
	if port == 0 {
		port = 6379
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

type RedisStore struct {
	client     *redis.Client
	log        *logrus.Logger
	defaultTTL int
}

var _ keyValStore.Store = (*RedisStore)(nil)

// New connects lazily; Ping checks the connection.
func New(config Config) *RedisStore {
	if config.Logger == nil {
		config.Logger = logrus.New()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.addr(),
		Password: config.Password,
		DB:       config.DB,
	})

	config.Logger.WithFields(logrus.Fields{
		"addr": config.addr(),
		"db":   config.DB,
	}).Debug("redis descriptor store configured")

	return &RedisStore{
		client:     client,
		log:        config.Logger,
		defaultTTL: config.DefaultTTLSeconds,
	}
}

func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("error pinging redis: %w", err)
	}
	return nil
}

func (r *RedisStore) StoreWithExpiration(ctx context.Context, key, value string, ttlSeconds int) (int, error) {
	if err := keyValStore.CheckArgs(key, value); err != nil {
		return 0, err
	}

	ttl := keyValStore.EffectiveTTL(ttlSeconds, r.defaultTTL)
	if err := r.client.Set(ctx, key, value, time.Duration(ttl)*time.Second).Err(); err != nil {
		return 0, fmt.Errorf("error writing key %s: %w", key, err)
	}
	return ttl, nil
}

func (r *RedisStore) Get(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("%w: empty key", keyValStore.ErrInvalidArgument)
	}

	v, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", keyValStore.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("error reading key %s: %w", key, err)
	}
	return v, nil
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", keyValStore.ErrInvalidArgument)
	}

	n, err := r.client.Del(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("error deleting key %s: %w", key, err)
	}
	if n == 0 {
		return keyValStore.ErrNotFound
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
