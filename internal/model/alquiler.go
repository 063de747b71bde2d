package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Alquiler is a rental order. A cliente has at most one alquiler in estado
// "pendiente"; new rental requests are merged into it.
type Alquiler struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ClienteID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	FechaInicio     time.Time       `gorm:"not null"`
	FechaFin        time.Time       `gorm:"not null"`
	Total           decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Estado          EstadoPedido    `gorm:"type:varchar(20);not null;default:'pendiente'"`
	FechaCreacion   time.Time       `gorm:"autoCreateTime"`
	FechaDevolucion *time.Time

	Cliente  *Cliente          `gorm:"foreignKey:ClienteID"`
	Detalles []DetalleAlquiler `gorm:"foreignKey:AlquilerID;constraint:OnDelete:CASCADE"`
}

// TableName keeps the Spanish plural (alquilers → alquileres).
func (Alquiler) TableName() string { return "alquileres" }

// DetalleAlquiler is a rental line item. Subtotal is stored as supplied by the caller.
type DetalleAlquiler struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	AlquilerID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductoID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Linea          int             `gorm:"not null"` // 1-based position inside the order
	Cantidad       int             `gorm:"not null"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}

func (DetalleAlquiler) TableName() string { return "detalles_alquiler" }
