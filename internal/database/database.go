package database

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/freightlink/backend/internal/config"
	"github.com/freightlink/backend/internal/database/migrations"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB initializes the database connection with configuration and runs migrations
func InitDB(dbConfig config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger:         newLogger(dbConfig.LogLevel),
		TranslateError: true,
	}

	var dialector gorm.Dialector
	switch dbConfig.Driver {
	case "", "postgres":
		dialector = postgres.Open(dbConfig.URL)
	case "sqlite":
		dialector = sqlite.Open(dbConfig.URL)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", dbConfig.Driver)
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}

	if dbConfig.Driver == "sqlite" {
		// sqlite allows a single writer
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(dbConfig.MaxIdle)
		sqlDB.SetMaxOpenConns(dbConfig.MaxConns)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	if err := migrations.RunMigrations(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// OpenSQLite opens a migrated sqlite database, used for local runs and tests
func OpenSQLite(dsn string) (*gorm.DB, error) {
	return InitDB(config.DatabaseConfig{
		Driver:   "sqlite",
		URL:      dsn,
		LogLevel: "silent",
	})
}

func newLogger(level string) logger.Interface {
	logLevel := logger.Warn
	switch strings.ToLower(level) {
	case "silent":
		logLevel = logger.Silent
	case "error":
		logLevel = logger.Error
	case "info":
		logLevel = logger.Info
	}

	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
		},
	)
}
