package model

import (
	"time"

	"github.com/google/uuid"
)

// Cliente is a shop customer. Email is unique across all customers.
type Cliente struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre        string    `gorm:"type:varchar(100);not null"`
	Email         string    `gorm:"type:varchar(100);uniqueIndex;not null"`
	Telefono      *string   `gorm:"type:varchar(20)"`
	Direccion     *string   `gorm:"type:varchar(200)"`
	Activo        bool      `gorm:"not null;default:true"`
	FechaCreacion time.Time `gorm:"autoCreateTime"`

	Alquileres []Alquiler `gorm:"foreignKey:ClienteID"`
	Ventas     []Venta    `gorm:"foreignKey:ClienteID"`
}
