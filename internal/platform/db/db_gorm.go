// Package db opens the relational Credential Store and classifies driver errors.
package db

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	gmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"

	// DefaultSQLiteDSN is a shared in-memory database, used when no DSN is configured.
	DefaultSQLiteDSN = "file:dynamicpro?mode=memory&cache=shared"

	retryInterval = 3 * time.Second
)

// Config holds the relational store settings.
type Config struct {
	Driver         string
	DSN            string
	ConnectTimeout time.Duration
}

// Opener opens a gorm connection for a DSN. Swapped in tests.
type Opener func(dsn string) (*gorm.DB, error)

// BuildDSN returns the DSN to connect with, falling back to the in-memory sqlite database.
func BuildDSN(cfg Config) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	if cfg.Driver == "" || cfg.Driver == DriverSQLite {
		return DefaultSQLiteDSN
	}
	return ""
}

// Dialector selects the gorm dialector for the configured driver.
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch strings.ToLower(driver) {
	case "", DriverSQLite:
		return sqlite.Open(dsn), nil
	case DriverPostgres:
		return postgres.Open(dsn), nil
	case DriverMySQL:
		return gmysql.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported SQL driver %q", driver)
	}
}

// ConnectWithRetry calls opener until it succeeds or timeout elapses.
func ConnectWithRetry(dsn string, timeout time.Duration, opener Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := opener(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("DB connect failed after %s: %w", timeout, err)
		}
		slog.Warn("DB connect failed, retrying...", "error", err)
		time.Sleep(retryInterval)
	}
}

// OpenDB connects to the configured store and migrates the given models.
func OpenDB(cfg Config, models ...any) (*gorm.DB, error) {
	dsn := BuildDSN(cfg)
	if dsn == "" {
		return nil, fmt.Errorf("SQL_DSN is required for driver %q", cfg.Driver)
	}
	if _, err := Dialector(cfg.Driver, dsn); err != nil {
		return nil, err
	}

	opener := func(dsn string) (*gorm.DB, error) {
		dialector, err := Dialector(cfg.Driver, dsn)
		if err != nil {
			return nil, err
		}
		return gorm.Open(dialector, &gorm.Config{
			TranslateError: true,
			Logger:         logger.Default.LogMode(logger.Warn),
		})
	}

	db, err := ConnectWithRetry(dsn, cfg.ConnectTimeout, opener)
	if err != nil {
		return nil, err
	}

	if cfg.Driver == "" || cfg.Driver == DriverSQLite {
		// sqlite serializes writers; one connection avoids "database is locked"
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if len(models) > 0 {
		// マイグレーション（User, Post, Course など）
		if err := db.AutoMigrate(models...); err != nil {
			return nil, fmt.Errorf("failed to migrate: %w", err)
		}
	}

	return db, nil
}
