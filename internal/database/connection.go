// internal/database/connection.go
package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/javajoker/imi-ledger/internal/config"
	"github.com/javajoker/imi-ledger/internal/models"
)

func Initialize(cfg config.DatabaseConfig, log *logrus.Logger) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.New(log, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormLogLevel(cfg.LogLevel),
			IgnoreRecordNotFoundError: true,
		}),
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN())
	default:
		dialector = postgres.Open(cfg.DSN())
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	if cfg.Driver == "sqlite" {
		// One connection: SQLite has a single writer, and an in-memory
		// database lives only as long as its connection.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)
	}

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.WithField("driver", cfg.Driver).Info("Database connection established")
	return db, nil
}

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

func Close(db *gorm.DB, log logrus.FieldLogger) {
	sqlDB, err := db.DB()
	if err != nil {
		log.WithError(err).Error("Error getting underlying sql.DB")
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.WithError(err).Error("Error closing database connection")
	} else {
		log.Info("Database connection closed")
	}
}

func RunMigrations(db *gorm.DB, log logrus.FieldLogger) error {
	log.Info("Running database migrations...")

	err := db.AutoMigrate(
		&models.PlatformState{},
		&models.IntellectualProperty{},
		&models.License{},
		&models.IPRevenue{},
		&models.LicenseUsage{},
		&models.RoyaltyPayment{},
		&models.Account{},
		&models.AuditLog{},
		&models.Settlement{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	createIndexes(db, log)

	log.Info("Database migrations completed")
	return nil
}

func createIndexes(db *gorm.DB, log logrus.FieldLogger) {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_licenses_asset_licensee ON licenses(asset_id, licensee)",
		"CREATE INDEX IF NOT EXISTS idx_royalty_payments_license_paid ON royalty_payments(license_id, paid_at)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_caller_action ON audit_logs(caller, action)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_resource ON audit_logs(resource_type, resource_id)",
		"CREATE INDEX IF NOT EXISTS idx_settlements_status_created ON settlements(status, created_at)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			// Continue with other indexes instead of failing completely
			log.WithError(err).WithField("index", index).Warn("Failed to create index")
		}
	}
}

// EnsurePlatformState creates the platform state row on first start. An
// existing row is left alone, so the configured fee rate only seeds it.
func EnsurePlatformState(db *gorm.DB, feeRateBp uint16) (*models.PlatformState, error) {
	if feeRateBp > models.MaxPlatformFeeBp {
		return nil, fmt.Errorf("initial fee rate %d bp exceeds %d bp", feeRateBp, models.MaxPlatformFeeBp)
	}

	var state models.PlatformState
	err := db.First(&state, models.PlatformStateID).Error
	if err == nil {
		return &state, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load platform state: %w", err)
	}

	state = models.PlatformState{
		ID:            models.PlatformStateID,
		FeeRateBp:     feeRateBp,
		NextAssetID:   1,
		NextLicenseID: 1,
		NextPaymentID: 1,
	}
	if err := db.Create(&state).Error; err != nil {
		return nil, fmt.Errorf("failed to create platform state: %w", err)
	}
	return &state, nil
}

// Transaction helper
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
