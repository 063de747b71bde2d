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

type AlquilerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Alquiler, error)
	List(ctx context.Context, skip, limit int) ([]model.Alquiler, error)
	ListByCliente(ctx context.Context, clienteID uuid.UUID) ([]model.Alquiler, error)

	// FindPendienteTx locks and returns the cliente's pending alquiler with its
	// detalles, or nil when there is none.
	FindPendienteTx(tx *gorm.DB, clienteID uuid.UUID) (*model.Alquiler, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Alquiler, error)
	// FindByIDForUpdateTx locks the alquiler row until tx ends, so merges,
	// state changes and deletes of the same order run one at a time.
	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Alquiler, error)
	CreateTx(tx *gorm.DB, a *model.Alquiler) error
	CreateDetallesTx(tx *gorm.DB, detalles []model.DetalleAlquiler) error
	UpdateTotalTx(tx *gorm.DB, id uuid.UUID, total decimal.Decimal) error
	UpdateEstadoTx(tx *gorm.DB, id uuid.UUID, estado model.EstadoPedido, fechaDevolucion *time.Time) error
	// DeleteTx removes the alquiler and its detalles.
	DeleteTx(tx *gorm.DB, id uuid.UUID) error

	DB() *gorm.DB
}

type alquilerRepo struct{ db *gorm.DB }

func NewAlquilerRepository(db *gorm.DB) AlquilerRepository { return &alquilerRepo{db: db} }

func (r *alquilerRepo) DB() *gorm.DB { return r.db }

func preloadDetallesAlquiler(db *gorm.DB) *gorm.DB {
	return db.Preload("Detalles", func(db *gorm.DB) *gorm.DB {
		return db.Order("linea ASC")
	}).Preload("Detalles.Producto")
}

func (r *alquilerRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Alquiler, error) {
	return r.FindByIDTx(r.db.WithContext(ctx), id)
}

func (r *alquilerRepo) List(ctx context.Context, skip, limit int) ([]model.Alquiler, error) {
	var alquileres []model.Alquiler
	err := preloadDetallesAlquiler(r.db.WithContext(ctx)).
		Order("cliente_id ASC").Order("fecha_creacion DESC").
		Offset(skip).Limit(limit).
		Find(&alquileres).Error
	return alquileres, err
}

func (r *alquilerRepo) ListByCliente(ctx context.Context, clienteID uuid.UUID) ([]model.Alquiler, error) {
	var alquileres []model.Alquiler
	err := preloadDetallesAlquiler(r.db.WithContext(ctx)).
		Where("cliente_id = ?", clienteID).
		Order("fecha_creacion DESC").
		Find(&alquileres).Error
	return alquileres, err
}

func (r *alquilerRepo) FindPendienteTx(tx *gorm.DB, clienteID uuid.UUID) (*model.Alquiler, error) {
	var alquileres []model.Alquiler
	err := preloadDetallesAlquiler(tx.Clauses(clause.Locking{Strength: "UPDATE"})).
		Where("cliente_id = ? AND estado = ?", clienteID, model.EstadoPendiente).
		Order("fecha_creacion ASC").
		Limit(1).
		Find(&alquileres).Error
	if err != nil || len(alquileres) == 0 {
		return nil, err
	}
	return &alquileres[0], nil
}

func (r *alquilerRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Alquiler, error) {
	var a model.Alquiler
	err := preloadDetallesAlquiler(tx).First(&a, "id = ?", id).Error
	return &a, err
}

func (r *alquilerRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Alquiler, error) {
	var a model.Alquiler
	err := preloadDetallesAlquiler(tx.Clauses(clause.Locking{Strength: "UPDATE"})).First(&a, "id = ?", id).Error
	return &a, err
}

func (r *alquilerRepo) CreateTx(tx *gorm.DB, a *model.Alquiler) error {
	return tx.Omit("Detalles", "Cliente").Create(a).Error
}

func (r *alquilerRepo) CreateDetallesTx(tx *gorm.DB, detalles []model.DetalleAlquiler) error {
	if len(detalles) == 0 {
		return nil
	}
	return tx.Omit("Producto").Create(&detalles).Error
}

func (r *alquilerRepo) UpdateTotalTx(tx *gorm.DB, id uuid.UUID, total decimal.Decimal) error {
	return tx.Model(&model.Alquiler{}).Where("id = ?", id).Update("total", total).Error
}

func (r *alquilerRepo) UpdateEstadoTx(tx *gorm.DB, id uuid.UUID, estado model.EstadoPedido, fechaDevolucion *time.Time) error {
	updates := map[string]interface{}{"estado": estado}
	if fechaDevolucion != nil {
		updates["fecha_devolucion"] = *fechaDevolucion
	}
	return tx.Model(&model.Alquiler{}).Where("id = ?", id).Updates(updates).Error
}

func (r *alquilerRepo) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	if err := tx.Where("alquiler_id = ?", id).Delete(&model.DetalleAlquiler{}).Error; err != nil {
		return err
	}
	res := tx.Delete(&model.Alquiler{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
