package service

import (
	"context"
	"time"

	"vestibox/internal/dto"
	"vestibox/internal/metrics"
	"vestibox/internal/model"
	"vestibox/internal/repository"
	"vestibox/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type VentaService interface {
	// Registrar merges the request into the cliente's pending venta, or opens
	// a new one, and takes every line's cantidad out of stock.
	Registrar(ctx context.Context, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.VentaResponse, error)
	Listar(ctx context.Context, pag dto.Paginacion) ([]dto.VentaResponse, error)
	ListarPorCliente(ctx context.Context, clienteID uuid.UUID) ([]dto.VentaResponse, error)
	ActualizarEstado(ctx context.Context, id uuid.UUID, estado string) (*dto.VentaResponse, error)
	Eliminar(ctx context.Context, id uuid.UUID) error
}

type ventaService struct {
	repo             repository.VentaRepository
	clientes         repository.ClienteRepository
	productos        repository.ProductoRepository
	inventario       InventarioService
	cache            ProductoCache
	dispatcher       ComprobanteDispatcher
	estadosEstrictos bool
}

func NewVentaService(
	repo repository.VentaRepository,
	clientes repository.ClienteRepository,
	productos repository.ProductoRepository,
	inventario InventarioService,
	cache ProductoCache,
	dispatcher ComprobanteDispatcher,
	estadosEstrictos bool,
) VentaService {
	return &ventaService{
		repo:             repo,
		clientes:         clientes,
		productos:        productos,
		inventario:       inventario,
		cache:            cache,
		dispatcher:       dispatcher,
		estadosEstrictos: estadosEstrictos,
	}
}

// ── Registrar ─────────────────────────────────────────────────────────────────
// Same find-or-create flow as alquileres. Every detalle goes through the
// stock ledger as a "venta" movement inside the same transaction, so a
// failure anywhere leaves neither the venta nor the stock change behind.

func (s *ventaService) Registrar(ctx context.Context, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error) {
	lineas, err := prepararLineas(req.Detalles)
	if err != nil {
		return nil, err
	}
	clienteID, err := parseID(req.ClienteID, "id_cliente")
	if err != nil {
		return nil, err
	}

	var (
		id        uuid.UUID
		fusionado bool
	)
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if _, err := s.clientes.FindByIDForUpdateTx(tx, clienteID); err != nil {
			return noEncontrado(err, "cliente "+clienteID.String())
		}
		if err := bloquearProductos(tx, s.productos, idsProductos(lineas)); err != nil {
			return err
		}

		pendiente, err := s.repo.FindPendienteTx(tx, clienteID)
		if err != nil {
			return err
		}

		primeraLinea := 1
		if pendiente != nil {
			fusionado = true
			id = pendiente.ID
			primeraLinea = len(pendiente.Detalles) + 1
			if err := s.repo.UpdateTotalTx(tx, id, pendiente.Total.Add(req.Total)); err != nil {
				return err
			}
		} else {
			v := &model.Venta{
				ClienteID:  clienteID,
				FechaVenta: time.Now(),
				Total:      req.Total,
				Estado:     model.EstadoPendiente,
			}
			if err := s.repo.CreateTx(tx, v); err != nil {
				return conflicto(err, "el cliente ya tiene una venta pendiente")
			}
			id = v.ID
		}

		detalles := make([]model.DetalleVenta, 0, len(lineas))
		for i, l := range lineas {
			detalles = append(detalles, model.DetalleVenta{
				VentaID:        id,
				ProductoID:     l.productoID,
				Linea:          primeraLinea + i,
				Cantidad:       l.cantidad,
				PrecioUnitario: l.precio,
				Subtotal:       l.subtotal,
			})
		}
		if err := s.repo.CreateDetallesTx(tx, detalles); err != nil {
			return err
		}

		for _, l := range lineas {
			ref := id
			if _, err := s.inventario.AjustarStockTx(ctx, tx, AjusteStock{
				ProductoID:   l.productoID,
				Delta:        -l.cantidad,
				Tipo:         model.MovimientoVenta,
				Motivo:       "Venta " + id.String(),
				ReferenciaID: &ref,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidarProductos(ctx, s.cache, idsProductos(lineas)...)
	resultado := "creado"
	if fusionado {
		resultado = "fusionado"
	}
	metrics.PedidosRegistrados.WithLabelValues("venta", resultado).Inc()
	log.Ctx(ctx).Info().
		Str("venta_id", id.String()).
		Str("cliente_id", clienteID.String()).
		Int("detalles", len(lineas)).
		Str("resultado", resultado).
		Msg("venta registrada")

	return s.ObtenerPorID(ctx, id)
}

func (s *ventaService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.VentaResponse, error) {
	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "venta")
	}
	return ventaToResponse(v), nil
}

func (s *ventaService) Listar(ctx context.Context, pag dto.Paginacion) ([]dto.VentaResponse, error) {
	pag.Normalizar()
	ventas, err := s.repo.List(ctx, pag.Skip, pag.Limit)
	if err != nil {
		return nil, err
	}
	return ventasToResponse(ventas), nil
}

func (s *ventaService) ListarPorCliente(ctx context.Context, clienteID uuid.UUID) ([]dto.VentaResponse, error) {
	if _, err := s.clientes.FindByID(ctx, clienteID); err != nil {
		return nil, noEncontrado(err, "cliente")
	}
	ventas, err := s.repo.ListByCliente(ctx, clienteID)
	if err != nil {
		return nil, err
	}
	return ventasToResponse(ventas), nil
}

func (s *ventaService) ActualizarEstado(ctx context.Context, id uuid.UUID, estado string) (*dto.VentaResponse, error) {
	nuevo := model.EstadoPedido(estado)
	if err := validarEstado(model.TransicionesVenta, s.estadosEstrictos, nuevo); err != nil {
		return nil, err
	}

	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		v, err := s.bloquear(tx, id)
		if err != nil {
			return err
		}
		if err := validarTransicion(model.TransicionesVenta, s.estadosEstrictos, v.Estado, nuevo); err != nil {
			return err
		}
		var pago *time.Time
		if nuevo == model.EstadoPagado {
			now := time.Now()
			pago = &now
		}
		// lenient mode can reopen a venta while another one is pending
		return conflicto(s.repo.UpdateEstadoTx(tx, id, nuevo, pago), "el cliente ya tiene una venta pendiente")
	})
	if err != nil {
		return nil, err
	}

	log.Ctx(ctx).Info().Str("venta_id", id.String()).Str("estado", estado).Msg("venta: estado actualizado")
	if nuevo == model.EstadoPagado && s.dispatcher != nil {
		if err := s.dispatcher.EnqueueComprobante(ctx, worker.ComprobantePayload{Tipo: worker.TipoVenta, PedidoID: id.String()}); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("venta_id", id.String()).Msg("venta: no se pudo encolar comprobante")
		}
	}
	return s.ObtenerPorID(ctx, id)
}

func (s *ventaService) Eliminar(ctx context.Context, id uuid.UUID) error {
	var productos []uuid.UUID

	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		v, err := s.bloquear(tx, id)
		if err != nil {
			return err
		}
		ids := make([]uuid.UUID, 0, len(v.Detalles))
		for _, d := range v.Detalles {
			ids = append(ids, d.ProductoID)
		}
		if err := bloquearProductos(tx, s.productos, ids); err != nil {
			return err
		}
		for _, d := range v.Detalles {
			ref := v.ID
			if _, err := s.inventario.AjustarStockTx(ctx, tx, AjusteStock{
				ProductoID:   d.ProductoID,
				Delta:        d.Cantidad,
				Tipo:         model.MovimientoRestoreEliminacion,
				Motivo:       "Eliminación venta " + v.ID.String(),
				ReferenciaID: &ref,
			}); err != nil {
				return err
			}
			productos = append(productos, d.ProductoID)
		}
		return noEncontrado(s.repo.DeleteTx(tx, id), "venta")
	})
	if err != nil {
		return err
	}

	invalidarProductos(ctx, s.cache, productos...)
	metrics.PedidosEliminados.WithLabelValues("venta").Inc()
	log.Ctx(ctx).Info().Str("venta_id", id.String()).Int("restaurados", len(productos)).Msg("venta eliminada")
	return nil
}

// bloquear takes the cliente lock before the venta lock, like Registrar.
func (s *ventaService) bloquear(tx *gorm.DB, id uuid.UUID) (*model.Venta, error) {
	v, err := s.repo.FindByIDTx(tx, id)
	if err != nil {
		return nil, noEncontrado(err, "venta")
	}
	if _, err := s.clientes.FindByIDForUpdateTx(tx, v.ClienteID); err != nil {
		return nil, noEncontrado(err, "cliente")
	}
	v, err = s.repo.FindByIDForUpdateTx(tx, id)
	if err != nil {
		return nil, noEncontrado(err, "venta")
	}
	return v, nil
}

func ventaToResponse(v *model.Venta) *dto.VentaResponse {
	resp := &dto.VentaResponse{
		ID:            v.ID.String(),
		ClienteID:     v.ClienteID.String(),
		FechaVenta:    formatFecha(v.FechaVenta),
		Total:         v.Total,
		Estado:        string(v.Estado),
		FechaCreacion: formatFecha(v.FechaCreacion),
		FechaPago:     formatFechaPtr(v.FechaPago),
		Detalles:      make([]dto.DetalleResponse, 0, len(v.Detalles)),
	}
	for _, d := range v.Detalles {
		dr := dto.DetalleResponse{
			ID:             d.ID.String(),
			PedidoID:       d.VentaID.String(),
			ProductoID:     d.ProductoID.String(),
			Cantidad:       d.Cantidad,
			PrecioUnitario: d.PrecioUnitario,
			Subtotal:       d.Subtotal,
		}
		if d.Producto != nil {
			dr.Producto = d.Producto.Nombre
		}
		resp.Detalles = append(resp.Detalles, dr)
	}
	return resp
}

func ventasToResponse(ventas []model.Venta) []dto.VentaResponse {
	out := make([]dto.VentaResponse, 0, len(ventas))
	for i := range ventas {
		out = append(out, *ventaToResponse(&ventas[i]))
	}
	return out
}
