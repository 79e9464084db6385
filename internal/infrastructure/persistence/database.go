package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/retailops/backend/internal/domain/catalog"
	"github.com/retailops/backend/internal/domain/distribution"
	"github.com/retailops/backend/internal/domain/finance"
	"github.com/retailops/backend/internal/domain/inventory"
	"github.com/retailops/backend/internal/infrastructure/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Database holds the database connection
type Database struct {
	DB *gorm.DB
}

// NewDatabase opens a Postgres connection and configures the pool.
// log may be nil, in which case GORM logging is silenced.
func NewDatabase(cfg *config.DatabaseConfig, log gormlogger.Interface) (*Database, error) {
	if log == nil {
		log = gormlogger.Default.LogMode(gormlogger.Silent)
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:                 log,
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

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Models lists every persisted entity. The SQL migrations are the schema
// of record; AutoMigrate over this list is only used by in-memory test databases.
func Models() []any {
	return []any{
		&catalog.Product{},
		&inventory.Bucket{},
		&inventory.Lot{},
		&inventory.Movement{},
		&inventory.StockReceipt{},
		&distribution.ShopDistribution{},
		&distribution.LedgerEntry{},
		&finance.Invoice{},
		&finance.Transaction{},
		&finance.GiftCardAccount{},
	}
}
