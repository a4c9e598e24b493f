package app

import (
	"context"

	"github.com/fiffu/stockwatch/config"
	"github.com/fiffu/stockwatch/lib/models"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewDatabase(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) *gorm.DB {
	gormCfg := &gorm.Config{}
	if cfg.Env == "production" {
		gormCfg.Logger = logger.Default.LogMode(logger.Warn)
	}

	// Ticks write from several workers, SQLite wants them queued on one connection.
	db, err := gorm.Open(sqlite.Open(cfg.DatabasePath+"?_busy_timeout=5000"), gormCfg)
	if err != nil {
		log.Sugar().Panicw("failed to connect database", "path", cfg.DatabasePath, "err", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Sugar().Panicw("failed to get database handle", "err", err)
	}
	sqlDB.SetMaxOpenConns(1)
	log.Sugar().Infow("Database started", "path", cfg.DatabasePath)

	log.Info("Starting migrations")
	if err := models.Migrate(db); err != nil {
		log.Sugar().Panicw("failed to migrate database", "err", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return sqlDB.Close()
		},
	})
	return db
}
