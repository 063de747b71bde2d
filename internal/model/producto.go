package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Producto is a garment available for sale and rental.
// Stock is only mutated through the inventory ledger (see MovimientoStock).
type Producto struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre         string          `gorm:"type:varchar(100);index;not null"`
	Descripcion    *string         `gorm:"type:varchar(500)"`
	PrecioVenta    decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	PrecioAlquiler decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Stock          int             `gorm:"not null;default:0"`
	Talla          string          `gorm:"type:varchar(10);not null"`
	Color          string          `gorm:"type:varchar(50);not null"`
	FechaCreacion  time.Time       `gorm:"autoCreateTime"`
}
