package service

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"vestibox/internal/dto"
	"vestibox/internal/model"
	"vestibox/internal/repository"
	"vestibox/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Helpers shared by AlquilerService and VentaService.

// ComprobanteDispatcher schedules receipt generation once an order closes.
// *worker.Dispatcher satisfies it.
type ComprobanteDispatcher interface {
	EnqueueComprobante(ctx context.Context, p worker.ComprobantePayload) error
}

const maxLargoEstado = 20

type lineaPedido struct {
	productoID uuid.UUID
	cantidad   int
	precio     decimal.Decimal
	subtotal   decimal.Decimal
}

// prepararLineas validates the incoming detalles without touching the
// database. An empty list is rejected here so nothing is ever persisted.
func prepararLineas(detalles []dto.DetalleRequest) ([]lineaPedido, error) {
	if len(detalles) == 0 {
		return nil, fmt.Errorf("%w: el pedido debe tener al menos un detalle", ErrValidacion)
	}
	lineas := make([]lineaPedido, 0, len(detalles))
	for i, d := range detalles {
		pid, err := uuid.Parse(d.ProductoID)
		if err != nil {
			return nil, fmt.Errorf("%w: detalle %d: id_producto invalido", ErrValidacion, i+1)
		}
		if d.Cantidad <= 0 {
			return nil, fmt.Errorf("%w: detalle %d: cantidad debe ser mayor a 0", ErrValidacion, i+1)
		}
		lineas = append(lineas, lineaPedido{
			productoID: pid,
			cantidad:   d.Cantidad,
			precio:     d.PrecioUnitario,
			subtotal:   d.Subtotal,
		})
	}
	return lineas, nil
}

func parseID(raw, campo string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s invalido", ErrValidacion, campo)
	}
	return id, nil
}

// bloquearProductos locks every distinct producto in uuid order. A fixed
// lock order keeps two orders sharing productos from deadlocking; the stock
// ledger re-locks rows this tx already holds.
func bloquearProductos(tx *gorm.DB, productos repository.ProductoRepository, ids []uuid.UUID) error {
	unicos := make([]uuid.UUID, 0, len(ids))
	vistos := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if !vistos[id] {
			vistos[id] = true
			unicos = append(unicos, id)
		}
	}
	sort.Slice(unicos, func(i, j int) bool { return bytes.Compare(unicos[i][:], unicos[j][:]) < 0 })

	for _, id := range unicos {
		if _, err := productos.FindByIDForUpdateTx(tx, id); err != nil {
			return noEncontrado(err, "producto "+id.String())
		}
	}
	return nil
}

// validarEstado checks the requested state before any lookup. In lenient
// mode any non-empty string that fits the column passes.
func validarEstado(tabla model.Transiciones, estrictos bool, nuevo model.EstadoPedido) error {
	if nuevo == "" || len(nuevo) > maxLargoEstado {
		return fmt.Errorf("%w: estado debe tener entre 1 y %d caracteres", ErrValidacion, maxLargoEstado)
	}
	if estrictos && !tabla.Conoce(nuevo) {
		return fmt.Errorf("%w: estado desconocido %q", ErrValidacion, nuevo)
	}
	return nil
}

// validarTransicion rejects, in strict mode, moves missing from the table.
func validarTransicion(tabla model.Transiciones, estrictos bool, actual, nuevo model.EstadoPedido) error {
	if estrictos && !tabla.Permite(actual, nuevo) {
		return fmt.Errorf("%w: %s -> %s", ErrTransicionInvalida, actual, nuevo)
	}
	return nil
}

func formatFecha(t time.Time) string { return t.Format(time.RFC3339) }

func formatFechaPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatFecha(*t)
	return &s
}

func idsProductos(lineas []lineaPedido) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(lineas))
	for _, l := range lineas {
		ids = append(ids, l.productoID)
	}
	return ids
}
