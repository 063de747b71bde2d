package model

import (
	"time"

	"github.com/google/uuid"
)

// Tipos de MovimientoStock.
const (
	MovimientoVenta              = "venta"
	MovimientoAlquiler           = "alquiler"
	MovimientoRestoreEliminacion = "restore_eliminacion"
	MovimientoAjusteManual       = "ajuste_manual"
)

// MovimientoStock registra cada cambio de stock en un producto.
// Se crea automáticamente al vender, alquilar, eliminar un pedido o ajustar a mano.
type MovimientoStock struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductoID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Tipo          string    `gorm:"type:varchar(30);not null"`
	Cantidad      int       `gorm:"not null"` // positive = entrada, negative = salida
	StockAnterior int       `gorm:"not null"`
	StockNuevo    int       `gorm:"not null"`
	Motivo        string
	// alquiler_id or venta_id; kept after the pedido is deleted
	ReferenciaID *uuid.UUID `gorm:"type:uuid"`
	CreatedAt    time.Time

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}

// TableName overrides GORM's default pluralization (movimiento_stocks → movimientos_stock).
func (MovimientoStock) TableName() string { return "movimientos_stock" }
