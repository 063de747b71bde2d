package infra

import (
	"fmt"

	"vestibox/internal/config"
	"vestibox/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, sizes the pool from
// config, runs AutoMigrate for every model, then applies the idempotent SQL
// patches that GORM cannot express (partial unique indexes).
func NewDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		// Maps 23505/23503 to gorm.ErrDuplicatedKey / gorm.ErrForeignKeyViolated.
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates / updates all tables and applies schema patches.
// Also used by the integration tests against a throwaway container.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Cliente{},
		&model.Producto{},
		&model.Alquiler{},
		&model.DetalleAlquiler{},
		&model.Venta{},
		&model.DetalleVenta{},
		&model.MovimientoStock{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches runs idempotent DDL statements that GORM AutoMigrate cannot
// handle on its own. Each statement uses IF NOT EXISTS so re-running on an
// already-patched DB is safe.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// At most one pending order per cliente and kind. The services also lock
		// the cliente row; the index catches writers that bypass them.
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_alquileres_cliente_pendiente
		    ON alquileres (cliente_id) WHERE estado = 'pendiente'`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_ventas_cliente_pendiente
		    ON ventas (cliente_id) WHERE estado = 'pendiente'`,
		`CREATE INDEX IF NOT EXISTS idx_movimientos_stock_referencia
		    ON movimientos_stock (referencia_id) WHERE referencia_id IS NOT NULL`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}
