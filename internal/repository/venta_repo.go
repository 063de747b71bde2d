package repository

import (
	"context"
	"time"

	"vestibox/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VentaRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Venta, error)
	List(ctx context.Context, skip, limit int) ([]model.Venta, error)
	ListByCliente(ctx context.Context, clienteID uuid.UUID) ([]model.Venta, error)

	// FindPendienteTx locks and returns the cliente's pending venta with its
	// detalles, or nil when there is none.
	FindPendienteTx(tx *gorm.DB, clienteID uuid.UUID) (*model.Venta, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Venta, error)
	// FindByIDForUpdateTx locks the venta row until tx ends, so merges,
	// state changes and deletes of the same order run one at a time.
	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Venta, error)
	CreateTx(tx *gorm.DB, v *model.Venta) error
	CreateDetallesTx(tx *gorm.DB, detalles []model.DetalleVenta) error
	UpdateTotalTx(tx *gorm.DB, id uuid.UUID, total decimal.Decimal) error
	UpdateEstadoTx(tx *gorm.DB, id uuid.UUID, estado model.EstadoPedido, fechaPago *time.Time) error
	// DeleteTx removes the venta and its detalles.
	DeleteTx(tx *gorm.DB, id uuid.UUID) error

	DB() *gorm.DB
}

type ventaRepo struct{ db *gorm.DB }

func NewVentaRepository(db *gorm.DB) VentaRepository { return &ventaRepo{db: db} }

func (r *ventaRepo) DB() *gorm.DB { return r.db }

func preloadDetallesVenta(db *gorm.DB) *gorm.DB {
	return db.Preload("Detalles", func(db *gorm.DB) *gorm.DB {
		return db.Order("linea ASC")
	}).Preload("Detalles.Producto")
}

func (r *ventaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Venta, error) {
	return r.FindByIDTx(r.db.WithContext(ctx), id)
}

func (r *ventaRepo) List(ctx context.Context, skip, limit int) ([]model.Venta, error) {
	var ventas []model.Venta
	err := preloadDetallesVenta(r.db.WithContext(ctx)).
		Order("cliente_id ASC").Order("fecha_venta DESC").
		Offset(skip).Limit(limit).
		Find(&ventas).Error
	return ventas, err
}

func (r *ventaRepo) ListByCliente(ctx context.Context, clienteID uuid.UUID) ([]model.Venta, error) {
	var ventas []model.Venta
	err := preloadDetallesVenta(r.db.WithContext(ctx)).
		Where("cliente_id = ?", clienteID).
		Order("fecha_venta DESC").
		Find(&ventas).Error
	return ventas, err
}

func (r *ventaRepo) FindPendienteTx(tx *gorm.DB, clienteID uuid.UUID) (*model.Venta, error) {
	var ventas []model.Venta
	err := preloadDetallesVenta(tx.Clauses(clause.Locking{Strength: "UPDATE"})).
		Where("cliente_id = ? AND estado = ?", clienteID, model.EstadoPendiente).
		Order("fecha_creacion ASC").
		Limit(1).
		Find(&ventas).Error
	if err != nil || len(ventas) == 0 {
		return nil, err
	}
	return &ventas[0], nil
}

func (r *ventaRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Venta, error) {
	var v model.Venta
	err := preloadDetallesVenta(tx).First(&v, "id = ?", id).Error
	return &v, err
}

func (r *ventaRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Venta, error) {
	var v model.Venta
	err := preloadDetallesVenta(tx.Clauses(clause.Locking{Strength: "UPDATE"})).First(&v, "id = ?", id).Error
	return &v, err
}

func (r *ventaRepo) CreateTx(tx *gorm.DB, v *model.Venta) error {
	return tx.Omit("Detalles", "Cliente").Create(v).Error
}

func (r *ventaRepo) CreateDetallesTx(tx *gorm.DB, detalles []model.DetalleVenta) error {
	if len(detalles) == 0 {
		return nil
	}
	return tx.Omit("Producto").Create(&detalles).Error
}

func (r *ventaRepo) UpdateTotalTx(tx *gorm.DB, id uuid.UUID, total decimal.Decimal) error {
	return tx.Model(&model.Venta{}).Where("id = ?", id).Update("total", total).Error
}

func (r *ventaRepo) UpdateEstadoTx(tx *gorm.DB, id uuid.UUID, estado model.EstadoPedido, fechaPago *time.Time) error {
	updates := map[string]interface{}{"estado": estado}
	if fechaPago != nil {
		updates["fecha_pago"] = *fechaPago
	}
	return tx.Model(&model.Venta{}).Where("id = ?", id).Updates(updates).Error
}

func (r *ventaRepo) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	if err := tx.Where("venta_id = ?", id).Delete(&model.DetalleVenta{}).Error; err != nil {
		return err
	}
	res := tx.Delete(&model.Venta{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
