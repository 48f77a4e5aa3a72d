package persistence

import (
	"fmt"
	"time"

	"github.com/ledgersg/backend/internal/infrastructure/config"
	applogger "github.com/ledgersg/backend/internal/infrastructure/logger"
	"github.com/ledgersg/backend/internal/infrastructure/persistence/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Database wraps the GORM connection and the tenant scoping every
// repository builds on
type Database struct {
	DB *gorm.DB
}

// Connect opens a postgres connection from the configuration. When log
// is nil SQL logging is silent; otherwise queries go through the zap
// SQL logger at the level named by sqlLevel.
func Connect(cfg *config.DatabaseConfig, log *zap.Logger, sqlLevel string) (*Database, error) {
	var gl gormlogger.Interface
	if log == nil {
		gl = gormlogger.Default.LogMode(gormlogger.Silent)
	} else {
		gl = applogger.NewSQLLogger(log, applogger.GormLevel(sqlLevel))
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:                 gl,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Database{DB: db}, nil
}

// AutoMigrate creates or updates the ledger schema. Intended for
// development and tests; production deployments run the SQL migrations
// under migrations/ instead.
func (d *Database) AutoMigrate() error {
	return d.DB.AutoMigrate(
		&models.AccountModel{},
		&models.JournalEntryModel{},
		&models.AuditRecordModel{},
		&models.DocumentModel{},
		&models.TaxCodeModel{},
		&models.ReturnPeriodModel{},
		&models.NumberSequenceModel{},
	)
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Ping()
}

// PoolStats is a snapshot of the connection pool
type PoolStats struct {
	MaxOpenConnections int
	OpenConnections    int
	InUse              int
	Idle               int
	WaitCount          int64
	WaitDuration       time.Duration
}

// Stats returns a snapshot of the connection pool
func (d *Database) Stats() (PoolStats, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return PoolStats{}, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	s := sqlDB.Stats()
	return PoolStats{
		MaxOpenConnections: s.MaxOpenConnections,
		OpenConnections:    s.OpenConnections,
		InUse:              s.InUse,
		Idle:               s.Idle,
		WaitCount:          s.WaitCount,
		WaitDuration:       s.WaitDuration,
	}, nil
}

// Transaction executes a function within a database transaction
func (d *Database) Transaction(fn func(tx *gorm.DB) error) error {
	return d.DB.Transaction(fn)
}

// WithTenant returns a GORM DB scoped to one tenant. An empty tenant
// ID panics: an unscoped query here is cross-tenant data leakage.
func (d *Database) WithTenant(tenantID string) *gorm.DB {
	if tenantID == "" {
		panic("WithTenant called with empty tenant ID")
	}
	return d.DB.Where("tenant_id = ?", tenantID)
}
