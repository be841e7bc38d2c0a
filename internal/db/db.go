package db

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/diewo77/haulage/internal/config"
	"github.com/diewo77/haulage/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Models lists every table the application owns, in dependency order.
func Models() []any {
	return []any{
		&models.Driver{}, &models.FleetOwner{}, &models.Vehicle{},
		&models.Trip{}, &models.TripLoad{}, &models.LedgerEntry{},
		&models.Calculation{},
	}
}

// Connect opens the configured database and brings the schema up to date.
// Postgres is retried while it starts; SQL migrations run when enabled,
// AutoMigrate otherwise.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	logLevel := logger.Silent
	if cfg.Database.Debug {
		logLevel = logger.Info
	}
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Database.Driver {
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(cfg.Database.Path), gcfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.Database.Path, err)
		}
		log.Println("[DB] Using sqlite:", cfg.Database.Path)
	case "postgres", "":
		dsn := NormalizeDSN(cfg.Database.ConnString())
		for i := 0; i < 10; i++ {
			db, err = gorm.Open(postgres.Open(dsn), gcfg)
			if err == nil {
				break
			}
			log.Println("Retrying DB connection...", err)
			time.Sleep(2 * time.Second)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to connect database after retries: %w", err)
		}
		log.Println("[DB] Using DSN:", MaskDSN(dsn))
		if cfg.App.Migrations {
			if err := RunSQLMigrations(cfg.App.MigrationsDir, dsn); err != nil {
				return nil, fmt.Errorf("sql migrations failed: %w", err)
			}
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Database.Driver)
	}

	if pingErr := db.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}
	if cfg.Database.Driver == "sqlite" || !cfg.App.Migrations {
		if err := AutoMigrate(db); err != nil {
			return nil, err
		}
	}
	for _, table := range []string{"trips", "ledger_entries", "calculations"} {
		if !db.Migrator().HasTable(table) {
			return nil, errors.New("missing table after migration: " + table)
		}
	}
	if cfg.App.Seed {
		if err := Seed(db); err != nil {
			return nil, fmt.Errorf("seed: %w", err)
		}
	}
	return db, nil
}

// AutoMigrate creates or updates every application table.
func AutoMigrate(db *gorm.DB) error {
	for _, m := range Models() {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	return nil
}
