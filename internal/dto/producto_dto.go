package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// ProductoRequest is used for create and full update. On update Stock is
// ignored: stock only moves through the inventory ledger.
type ProductoRequest struct {
	Nombre         string          `json:"nombre"          validate:"required,min=1,max=100"`
	Descripcion    *string         `json:"descripcion"     validate:"omitempty,max=500"`
	PrecioVenta    decimal.Decimal `json:"precio_venta"    validate:"min=0"`
	PrecioAlquiler decimal.Decimal `json:"precio_alquiler" validate:"min=0"`
	Stock          int             `json:"stock"           validate:"min=0"`
	Talla          string          `json:"talla"           validate:"required,max=10"`
	Color          string          `json:"color"           validate:"required,max=50"`
}

// AjustarStockRequest applies a signed delta to a product's stock.
type AjustarStockRequest struct {
	Delta  int    `json:"delta"  validate:"required"`
	Motivo string `json:"motivo" validate:"required,min=3"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductoResponse struct {
	ID             string          `json:"id"`
	Nombre         string          `json:"nombre"`
	Descripcion    *string         `json:"descripcion"`
	PrecioVenta    decimal.Decimal `json:"precio_venta"`
	PrecioAlquiler decimal.Decimal `json:"precio_alquiler"`
	Stock          int             `json:"stock"`
	Talla          string          `json:"talla"`
	Color          string          `json:"color"`
	FechaCreacion  string          `json:"fecha_creacion"`
}

// DisponibilidadResponse answers GET /v1/productos/:id/disponibilidad.
type DisponibilidadResponse struct {
	ProductoID string `json:"producto_id"`
	Cantidad   int    `json:"cantidad"`
	Stock      int    `json:"stock"`
	Disponible bool   `json:"disponible"`
}
