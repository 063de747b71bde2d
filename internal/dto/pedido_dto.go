package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

// DetalleRequest is one line of an alquiler or venta. Subtotal is trusted as sent.
type DetalleRequest struct {
	ProductoID     string          `json:"id_producto"     validate:"required,uuid"`
	Cantidad       int             `json:"cantidad"        validate:"gt=0"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario" validate:"min=0"`
	Subtotal       decimal.Decimal `json:"subtotal"        validate:"min=0"`
}

type RegistrarAlquilerRequest struct {
	ClienteID   string           `json:"id_cliente"   validate:"required,uuid"`
	FechaInicio time.Time        `json:"fecha_inicio" validate:"required"`
	FechaFin    time.Time        `json:"fecha_fin"    validate:"required,gtefield=FechaInicio"`
	Total       decimal.Decimal  `json:"total"        validate:"min=0"`
	Detalles    []DetalleRequest `json:"detalles"     validate:"required,min=1,dive"`
}

type RegistrarVentaRequest struct {
	ClienteID string           `json:"id_cliente" validate:"required,uuid"`
	Total     decimal.Decimal  `json:"total"      validate:"min=0"`
	Detalles  []DetalleRequest `json:"detalles"   validate:"required,min=1,dive"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type DetalleResponse struct {
	ID             string          `json:"id"`
	PedidoID       string          `json:"id_pedido"`
	ProductoID     string          `json:"id_producto"`
	Producto       string          `json:"producto,omitempty"`
	Cantidad       int             `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

type AlquilerResponse struct {
	ID              string            `json:"id"`
	ClienteID       string            `json:"id_cliente"`
	FechaInicio     string            `json:"fecha_inicio"`
	FechaFin        string            `json:"fecha_fin"`
	Total           decimal.Decimal   `json:"total"`
	Estado          string            `json:"estado"`
	FechaCreacion   string            `json:"fecha_creacion"`
	FechaDevolucion *string           `json:"fecha_devolucion"`
	Detalles        []DetalleResponse `json:"detalles"`
}

type VentaResponse struct {
	ID            string            `json:"id"`
	ClienteID     string            `json:"id_cliente"`
	FechaVenta    string            `json:"fecha_venta"`
	Total         decimal.Decimal   `json:"total"`
	Estado        string            `json:"estado"`
	FechaCreacion string            `json:"fecha_creacion"`
	FechaPago     *string           `json:"fecha_pago"`
	Detalles      []DetalleResponse `json:"detalles"`
}
