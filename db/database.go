package db

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"eshop/config"
	"eshop/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to the configured database and migrates the schema.
// The caller owns the returned handle and must release it with Close.
func Open(cfg config.Database, logger *zap.Logger) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Driver == "sqlite" && isMemory(cfg.DSN) {
		sqlDB, err := conn.DB()
		if err != nil {
			return nil, err
		}
		// every pooled connection to an in-memory database sees its own copy
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(conn); err != nil {
		_ = Close(conn)
		return nil, err
	}

	logger.Info("database connected", zap.String("driver", cfg.Driver))
	return conn, nil
}

func dialectorFor(cfg config.Database) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "postgres":
		return postgres.Open(cfg.DSN), nil
	case "sqlite", "":
		if !isMemory(cfg.DSN) {
			dir := filepath.Dir(cfg.DSN)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		return sqlite.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func isMemory(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}

func Migrate(conn *gorm.DB) error {
	err := conn.AutoMigrate(
		&models.User{}, &models.Address{},
		&models.Category{}, &models.SubCategory{}, &models.Brand{},
		&models.Product{}, &models.Coupon{},
		&models.Cart{}, &models.CartItem{},
		&models.Order{}, &models.OrderItem{},
		&models.Review{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

func Close(conn *gorm.DB) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
