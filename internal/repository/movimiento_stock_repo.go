package repository

import (
	"context"

	"vestibox/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MovimientoStockFilter narrows the stock ledger. ReferenciaID selects the
// movements one alquiler or venta produced, including the restore rows
// written when it was deleted. Page and Limit arrive already normalized.
type MovimientoStockFilter struct {
	ProductoID   *uuid.UUID
	ReferenciaID *uuid.UUID
	Tipo         string
	Page         int
	Limit        int
}

// MovimientoStockRepository is append-only: rows are written inside the
// transaction that changes Producto.Stock and are never updated.
type MovimientoStockRepository interface {
	CreateTx(tx *gorm.DB, m *model.MovimientoStock) error
	List(ctx context.Context, filter MovimientoStockFilter) ([]model.MovimientoStock, int64, error)
}

type movimientoStockRepo struct{ db *gorm.DB }

func NewMovimientoStockRepository(db *gorm.DB) MovimientoStockRepository {
	return &movimientoStockRepo{db: db}
}

func (r *movimientoStockRepo) CreateTx(tx *gorm.DB, m *model.MovimientoStock) error {
	return tx.Omit("Producto").Create(m).Error
}

func (r *movimientoStockRepo) List(ctx context.Context, filter MovimientoStockFilter) ([]model.MovimientoStock, int64, error) {
	ledger := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&model.MovimientoStock{}).Scopes(movimientosDe(filter))
	}

	var total int64
	if err := ledger().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []model.MovimientoStock{}, 0, nil
	}

	var movs []model.MovimientoStock
	err := ledger().
		Preload("Producto", func(db *gorm.DB) *gorm.DB { return db.Select("id", "nombre") }).
		Order("created_at DESC, id").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&movs).Error
	return movs, total, err
}

func movimientosDe(f MovimientoStockFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.ProductoID != nil {
			db = db.Where("producto_id = ?", *f.ProductoID)
		}
		if f.ReferenciaID != nil {
			db = db.Where("referencia_id = ?", *f.ReferenciaID)
		}
		if f.Tipo != "" {
			db = db.Where("tipo = ?", f.Tipo)
		}
		return db
	}
}
