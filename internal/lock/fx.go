package lock

import (
	"github.com/arenaworks/prizepay/internal/config"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides the optional redis-backed challenge lock. Without a
// configured REDIS_ADDR the locker is nil and callers fall back to the
// delay-based mitigation.
var Module = fx.Module("lock",
	fx.Provide(func(cfg config.Config, log *zap.Logger) *Locker {
		if cfg.RedisAddr == "" {
			log.Info("challenge lock disabled, no redis configured")
			return nil
		}
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return NewLocker(client)
	}),
)
