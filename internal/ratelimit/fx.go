package ratelimit

import (
	redis "github.com/redis/go-redis/v9"
	"github.com/ultracivic/backend/internal/config"
	"go.uber.org/fx"
)

// NewRedisClient returns nil when no redis address is configured; the
// limiter degrades to allow-all.
func NewRedisClient(cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
}

var Module = fx.Module("ratelimit",
	fx.Provide(NewRedisClient),
	fx.Provide(NewTokenBucket),
	fx.Provide(NewMagicLinkLimiter),
)
