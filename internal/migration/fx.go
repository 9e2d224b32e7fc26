package migration

import (
	"strings"

	"github.com/arenaworks/prizepay/internal/config"
	"github.com/arenaworks/prizepay/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
		if strings.EqualFold(cfg.DBType, "postgres") {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			log.Warn("automatic migrations are postgres only, schema must exist already",
				zap.String("database_type", cfg.DBType),
			)
		}

		return seed.EnsureSequenceCounters(conn)
	}),
)
