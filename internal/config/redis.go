package config

import (
	"context"
	"crypto/tls"
	"log"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to Redis for the rate limiter and response
// cache.  REDIS_URL takes precedence when set (redis:// or rediss://
// form); otherwise the address is assembled from REDIS_HOST/REDIS_PORT
// with optional REDIS_PASSWORD, REDIS_DB and REDIS_TLS.  A nil return
// means Redis is unreachable; both middlewares treat that as
// "disabled" rather than an error, so the API runs without it.
func NewRedisClient() *redis.Client {
	var opts *redis.Options
	if url := os.Getenv("REDIS_URL"); url != "" {
		parsed, err := redis.ParseURL(url)
		if err != nil {
			log.Printf("redis: bad REDIS_URL: %v", err)
			return nil
		}
		opts = parsed
	} else {
		host := envStr("REDIS_HOST", "localhost")
		port := envStr("REDIS_PORT", "6379")
		db := 0
		if n, err := strconv.Atoi(os.Getenv("REDIS_DB")); err == nil {
			db = n
		}
		opts = &redis.Options{
			Addr:     net.JoinHostPort(host, port),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       db,
		}
		if envBool("REDIS_TLS", false) {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("redis: unavailable, cache and rate limiting disabled: %v", err)
		_ = client.Close()
		return nil
	}
	return client
}
