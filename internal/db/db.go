package db

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"complaint-service/internal/config"
)

const connectTimeout = 10 * time.Second

// New opens the complaints database, tunes the pool and applies the schema.
func New(cfg *config.Config, log zerolog.Logger) (*gorm.DB, error) {
	database, err := gorm.Open(postgres.Open(cfg.DB.DSN), &gorm.Config{
		Logger: newGormLogger(log, cfg.Environment),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := database.DB()
	if err != nil {
		return nil, err
	}
	if cfg.DB.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	}
	if cfg.DB.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	}
	if cfg.DB.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := HealthCheck(ctx, database); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(database); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	log.Info().Int("statements", len(migrationStatements)).Msg("database migrations applied")

	return database, nil
}

func HealthCheck(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Exec("SELECT 1").Error
}

func newGormLogger(log zerolog.Logger, env string) gormlogger.Interface {
	level := gormlogger.Warn
	if env == "development" {
		level = gormlogger.Info
	}
	return gormlogger.New(
		zerologWriter{logger: log.With().Str("component", "gorm").Logger()},
		gormlogger.Config{
			SlowThreshold:             time.Second,
			Colorful:                  false,
			IgnoreRecordNotFoundError: true,
			LogLevel:                  level,
		},
	)
}

type zerologWriter struct {
	logger zerolog.Logger
}

func (w zerologWriter) Printf(msg string, args ...interface{}) {
	w.logger.Info().Msgf(msg, args...)
}
