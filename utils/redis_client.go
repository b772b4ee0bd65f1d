package utils

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cppla/focusstreak/config"
)

var (
	redisClient *redis.Client
	redisOnce   sync.Once
)

// NewRedis builds a Redis client from configuration.
func NewRedis(cfg config.AppConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(cfg.RedisHost, strconv.Itoa(cfg.RedisPort)),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// GetRedis returns a singleton Redis client based on loaded config.
// The ping result is returned so callers can decide whether to start.
func GetRedis() (*redis.Client, error) {
	var err error
	redisOnce.Do(func() {
		redisClient = NewRedis(config.Get())
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		err = redisClient.Ping(ctx).Err()
	})
	return redisClient, err
}
