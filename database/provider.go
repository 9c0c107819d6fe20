package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tech-arch1tect/accounts/clock"
	"github.com/tech-arch1tect/accounts/config"
	"github.com/tech-arch1tect/accounts/services/logging"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	MigrationModeAuto  = "auto"
	MigrationModeGoose = "goose"
)

type ModelsOption struct {
	models []any
}

func WithModels(models ...any) *ModelsOption {
	return &ModelsOption{models: models}
}

func (o *ModelsOption) Models() []any {
	if o == nil {
		return nil
	}
	return o.models
}

func dialectorFor(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "sqlite":
		return sqlite.Open(cfg.DSN), nil
	case "postgres", "postgresql":
		return postgres.Open(cfg.DSN), nil
	case "mysql":
		return mysql.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s (supported: sqlite, postgres, mysql)", cfg.Driver)
	}
}

func newGormLogger(logger *logging.Service) gormlogger.Interface {
	z := logger.Logger()
	if z == nil {
		return gormlogger.Discard
	}
	return gormlogger.New(zap.NewStdLog(z.Named("gorm")), gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

func ProvideDatabase(cfg config.DatabaseConfig, clk clock.Clock, modelsOpt *ModelsOption, logger *logging.Service) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	gormCfg := &gorm.Config{
		TranslateError: true,
		Logger:         newGormLogger(logger),
	}
	if clk != nil {
		gormCfg.NowFunc = func() time.Time { return clk.Now().UTC() }
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	maxOpen := cfg.MaxOpenConns
	if cfg.Driver == "sqlite" && (cfg.DSN == ":memory:" || maxOpen == 0) {
		maxOpen = 1
	}
	if maxOpen > 0 {
		sqlDB.SetMaxOpenConns(maxOpen)
	}

	if err := Migrate(context.Background(), db, cfg, modelsOpt, logger); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	logger.Info("database ready",
		zap.String("driver", cfg.Driver),
		zap.String("migration_mode", migrationMode(cfg)))
	return db, nil
}

func migrationMode(cfg config.DatabaseConfig) string {
	if cfg.MigrationMode == "" {
		return MigrationModeAuto
	}
	return cfg.MigrationMode
}

// Migrate brings the schema up to date. Goose mode runs the embedded SQL
// migrations and is only available on postgres.
func Migrate(ctx context.Context, db *gorm.DB, cfg config.DatabaseConfig, modelsOpt *ModelsOption, logger *logging.Service) error {
	switch migrationMode(cfg) {
	case MigrationModeAuto:
		models := modelsOpt.Models()
		if !cfg.AutoMigrate || len(models) == 0 {
			return nil
		}
		if err := db.AutoMigrate(models...); err != nil {
			return fmt.Errorf("failed to auto-migrate models: %w", err)
		}
		return nil
	case MigrationModeGoose:
		if cfg.Driver != "postgres" && cfg.Driver != "postgresql" {
			return fmt.Errorf("migration mode %q requires the postgres driver, got %s", MigrationModeGoose, cfg.Driver)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("failed to access connection pool: %w", err)
		}
		return runGoose(ctx, sqlDB, logger)
	default:
		return fmt.Errorf("unknown migration mode: %s (supported: auto, goose)", cfg.MigrationMode)
	}
}
