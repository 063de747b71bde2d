package worker

// comprobante_worker.go
// Processes jobs from QueueComprobantes: renders the PDF receipt of a paid
// venta or a returned alquiler and, when a mail relay is configured,
// enqueues an email with the PDF attached.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"vestibox/internal/infra"
	"vestibox/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	TipoVenta    = "venta"
	TipoAlquiler = "alquiler"
)

type ComprobantePayload struct {
	Tipo     string `json:"tipo"` // venta | alquiler
	PedidoID string `json:"pedido_id"`
}

type AlquilerFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Alquiler, error)
}

type VentaFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Venta, error)
}

type ClienteFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Cliente, error)
}

type EmailEnqueuer interface {
	EnqueueEmail(ctx context.Context, p EmailPayload) error
}

type ComprobanteWorker struct {
	alquileres     AlquilerFinder
	ventas         VentaFinder
	clientes       ClienteFinder
	emails         EmailEnqueuer // nil disables the follow-up email
	pdfStoragePath string
}

func NewComprobanteWorker(
	alquileres AlquilerFinder,
	ventas VentaFinder,
	clientes ClienteFinder,
	emails EmailEnqueuer,
	pdfStoragePath string,
) *ComprobanteWorker {
	return &ComprobanteWorker{
		alquileres:     alquileres,
		ventas:         ventas,
		clientes:       clientes,
		emails:         emails,
		pdfStoragePath: pdfStoragePath,
	}
}

// Process handles a single comprobante job:
//  1. Load the order with detalles and productos
//  2. Load the cliente for name and email
//  3. Render the PDF
//  4. Enqueue the email job
func (w *ComprobanteWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload ComprobantePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("%w: invalid payload: %v", ErrPermanente, err)
	}
	id, err := uuid.Parse(payload.PedidoID)
	if err != nil {
		return fmt.Errorf("%w: invalid pedido_id %q", ErrPermanente, payload.PedidoID)
	}

	comp, clienteID, err := w.cargar(ctx, payload.Tipo, id)
	if err != nil {
		return err
	}

	cliente, err := w.clientes.FindByID(ctx, clienteID)
	if err != nil {
		return permanenteSiNoExiste(err, "cliente")
	}
	comp.Cliente = cliente.Nombre

	pdfPath, err := infra.GenerarComprobantePDF(comp, w.pdfStoragePath)
	if err != nil {
		return err
	}
	log.Ctx(ctx).Info().Str("pdf", pdfPath).Str("pedido_id", payload.PedidoID).Msg("comprobante_worker: PDF generated")

	if w.emails == nil || cliente.Email == "" {
		return nil
	}
	emailJob := EmailPayload{
		Para:    cliente.Email,
		Asunto:  fmt.Sprintf("Comprobante de %s %s", payload.Tipo, id.String()[:8]),
		Cuerpo:  fmt.Sprintf("Hola %s,\nadjuntamos tu comprobante.\nTotal: $%s", cliente.Nombre, comp.Total.StringFixed(2)),
		Adjunto: pdfPath,
	}
	if err := w.emails.EnqueueEmail(ctx, emailJob); err != nil {
		// the PDF exists, a retry would only regenerate it
		log.Ctx(ctx).Warn().Err(err).Str("email", cliente.Email).Msg("comprobante_worker: failed to enqueue email")
	}
	return nil
}

func (w *ComprobanteWorker) cargar(ctx context.Context, tipo string, id uuid.UUID) (infra.Comprobante, uuid.UUID, error) {
	comp := infra.Comprobante{Tipo: tipo, PedidoID: id}

	switch tipo {
	case TipoVenta:
		v, err := w.ventas.FindByID(ctx, id)
		if err != nil {
			return comp, uuid.Nil, permanenteSiNoExiste(err, "venta")
		}
		comp.Fecha = fechaOAhora(v.FechaPago, v.FechaVenta)
		comp.Total = v.Total
		for _, d := range v.Detalles {
			comp.Lineas = append(comp.Lineas, infra.LineaComprobante{
				Producto: nombreProducto(d.Producto, d.ProductoID),
				Cantidad: d.Cantidad,
				Subtotal: d.Subtotal,
			})
		}
		return comp, v.ClienteID, nil

	case TipoAlquiler:
		a, err := w.alquileres.FindByID(ctx, id)
		if err != nil {
			return comp, uuid.Nil, permanenteSiNoExiste(err, "alquiler")
		}
		comp.Fecha = fechaOAhora(a.FechaDevolucion, a.FechaFin)
		comp.Total = a.Total
		for _, d := range a.Detalles {
			comp.Lineas = append(comp.Lineas, infra.LineaComprobante{
				Producto: nombreProducto(d.Producto, d.ProductoID),
				Cantidad: d.Cantidad,
				Subtotal: d.Subtotal,
			})
		}
		return comp, a.ClienteID, nil
	}
	return comp, uuid.Nil, fmt.Errorf("%w: unknown tipo %q", ErrPermanente, tipo)
}

func permanenteSiNoExiste(err error, entidad string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s not found", ErrPermanente, entidad)
	}
	return err
}

func fechaOAhora(preferida *time.Time, fallback time.Time) time.Time {
	if preferida != nil {
		return *preferida
	}
	if !fallback.IsZero() {
		return fallback
	}
	return time.Now()
}

func nombreProducto(p *model.Producto, id uuid.UUID) string {
	if p != nil {
		return p.Nombre
	}
	return id.String()
}
