package utils

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions selects the Redis instance used for caching and token revocation.
type RedisOptions struct {
	Host     string
	Port     int
	DB       int
	Password string
}

// NewRedis returns a client, or nil when no host is configured so callers use their in-memory paths.
func NewRedis(opts RedisOptions) *redis.Client {
	if opts.Host == "" {
		return nil
	}
	rc := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port)),
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		Sugar.Warnf("redis ping failed, continuing without guarantees: %v", err)
	}
	return rc
}
