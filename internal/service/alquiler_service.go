package service

import (
	"context"
	"fmt"
	"time"

	"vestibox/internal/config"
	"vestibox/internal/dto"
	"vestibox/internal/metrics"
	"vestibox/internal/model"
	"vestibox/internal/repository"
	"vestibox/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type AlquilerService interface {
	// Registrar merges the request into the cliente's pending alquiler, or
	// opens a new one when there is none.
	Registrar(ctx context.Context, req dto.RegistrarAlquilerRequest) (*dto.AlquilerResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.AlquilerResponse, error)
	Listar(ctx context.Context, pag dto.Paginacion) ([]dto.AlquilerResponse, error)
	ListarPorCliente(ctx context.Context, clienteID uuid.UUID) ([]dto.AlquilerResponse, error)
	ActualizarEstado(ctx context.Context, id uuid.UUID, estado string) (*dto.AlquilerResponse, error)
	// Eliminar restores stock for every detalle, then deletes the alquiler.
	Eliminar(ctx context.Context, id uuid.UUID) error
}

// AlquilerConfig carries the rental-specific switches from config.Config.
type AlquilerConfig struct {
	ModoStock        string // config.ModoStock*
	EstadosEstrictos bool
}

type alquilerService struct {
	repo       repository.AlquilerRepository
	clientes   repository.ClienteRepository
	productos  repository.ProductoRepository
	inventario InventarioService
	cache      ProductoCache
	dispatcher ComprobanteDispatcher
	cfg        AlquilerConfig
}

func NewAlquilerService(
	repo repository.AlquilerRepository,
	clientes repository.ClienteRepository,
	productos repository.ProductoRepository,
	inventario InventarioService,
	cache ProductoCache,
	dispatcher ComprobanteDispatcher,
	cfg AlquilerConfig,
) AlquilerService {
	if cfg.ModoStock == "" {
		cfg.ModoStock = config.ModoStockLegado
	}
	return &alquilerService{
		repo:       repo,
		clientes:   clientes,
		productos:  productos,
		inventario: inventario,
		cache:      cache,
		dispatcher: dispatcher,
		cfg:        cfg,
	}
}

// ── Registrar ─────────────────────────────────────────────────────────────────
// One transaction:
//   1. Lock the cliente row (serializes find-or-create per cliente)
//   2. Lock every producto in the request
//   3. Find the pending alquiler; merge (total += req.Total) or create
//   4. Append one detalle per request line
//   5. In "reserva" mode, take the units out of stock through the ledger

func (s *alquilerService) Registrar(ctx context.Context, req dto.RegistrarAlquilerRequest) (*dto.AlquilerResponse, error) {
	lineas, err := prepararLineas(req.Detalles)
	if err != nil {
		return nil, err
	}
	clienteID, err := parseID(req.ClienteID, "id_cliente")
	if err != nil {
		return nil, err
	}
	if req.FechaFin.Before(req.FechaInicio) {
		return nil, fmt.Errorf("%w: fecha_fin anterior a fecha_inicio", ErrValidacion)
	}
	reserva := s.cfg.ModoStock == config.ModoStockReserva

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
			a := &model.Alquiler{
				ClienteID:   clienteID,
				FechaInicio: req.FechaInicio,
				FechaFin:    req.FechaFin,
				Total:       req.Total,
				Estado:      model.EstadoPendiente,
			}
			if err := s.repo.CreateTx(tx, a); err != nil {
				return conflicto(err, "el cliente ya tiene un alquiler pendiente")
			}
			id = a.ID
		}

		detalles := make([]model.DetalleAlquiler, 0, len(lineas))
		for i, l := range lineas {
			detalles = append(detalles, model.DetalleAlquiler{
				AlquilerID:     id,
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

		if !reserva {
			return nil
		}
		for _, l := range lineas {
			ref := id
			if _, err := s.inventario.AjustarStockTx(ctx, tx, AjusteStock{
				ProductoID:   l.productoID,
				Delta:        -l.cantidad,
				Tipo:         model.MovimientoAlquiler,
				Motivo:       "Alquiler " + id.String(),
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

	if reserva {
		invalidarProductos(ctx, s.cache, idsProductos(lineas)...)
	}
	resultado := "creado"
	if fusionado {
		resultado = "fusionado"
	}
	metrics.PedidosRegistrados.WithLabelValues("alquiler", resultado).Inc()
	log.Ctx(ctx).Info().
		Str("alquiler_id", id.String()).
		Str("cliente_id", clienteID.String()).
		Int("detalles", len(lineas)).
		Str("resultado", resultado).
		Msg("alquiler registrado")

	return s.ObtenerPorID(ctx, id)
}

func (s *alquilerService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.AlquilerResponse, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "alquiler")
	}
	return alquilerToResponse(a), nil
}

func (s *alquilerService) Listar(ctx context.Context, pag dto.Paginacion) ([]dto.AlquilerResponse, error) {
	pag.Normalizar()
	alquileres, err := s.repo.List(ctx, pag.Skip, pag.Limit)
	if err != nil {
		return nil, err
	}
	return alquileresToResponse(alquileres), nil
}

func (s *alquilerService) ListarPorCliente(ctx context.Context, clienteID uuid.UUID) ([]dto.AlquilerResponse, error) {
	if _, err := s.clientes.FindByID(ctx, clienteID); err != nil {
		return nil, noEncontrado(err, "cliente")
	}
	alquileres, err := s.repo.ListByCliente(ctx, clienteID)
	if err != nil {
		return nil, err
	}
	return alquileresToResponse(alquileres), nil
}

func (s *alquilerService) ActualizarEstado(ctx context.Context, id uuid.UUID, estado string) (*dto.AlquilerResponse, error) {
	nuevo := model.EstadoPedido(estado)
	if err := validarEstado(model.TransicionesAlquiler, s.cfg.EstadosEstrictos, nuevo); err != nil {
		return nil, err
	}

	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		a, err := s.bloquear(tx, id)
		if err != nil {
			return err
		}
		if err := validarTransicion(model.TransicionesAlquiler, s.cfg.EstadosEstrictos, a.Estado, nuevo); err != nil {
			return err
		}
		var devolucion *time.Time
		if nuevo == model.EstadoDevuelto {
			now := time.Now()
			devolucion = &now
		}
		// lenient mode can reopen an order while another one is pending
		return conflicto(s.repo.UpdateEstadoTx(tx, id, nuevo, devolucion), "el cliente ya tiene un alquiler pendiente")
	})
	if err != nil {
		return nil, err
	}

	log.Ctx(ctx).Info().Str("alquiler_id", id.String()).Str("estado", estado).Msg("alquiler: estado actualizado")
	if nuevo == model.EstadoDevuelto && s.dispatcher != nil {
		// best-effort: the state change is already committed
		if err := s.dispatcher.EnqueueComprobante(ctx, worker.ComprobantePayload{Tipo: worker.TipoAlquiler, PedidoID: id.String()}); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("alquiler_id", id.String()).Msg("alquiler: no se pudo encolar comprobante")
		}
	}
	return s.ObtenerPorID(ctx, id)
}

func (s *alquilerService) Eliminar(ctx context.Context, id uuid.UUID) error {
	restaurar := s.cfg.ModoStock != config.ModoStockSinStock
	var productos []uuid.UUID

	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		a, err := s.bloquear(tx, id)
		if err != nil {
			return err
		}
		if restaurar {
			ids := make([]uuid.UUID, 0, len(a.Detalles))
			for _, d := range a.Detalles {
				ids = append(ids, d.ProductoID)
			}
			if err := bloquearProductos(tx, s.productos, ids); err != nil {
				return err
			}
			for _, d := range a.Detalles {
				ref := a.ID
				if _, err := s.inventario.AjustarStockTx(ctx, tx, AjusteStock{
					ProductoID:   d.ProductoID,
					Delta:        d.Cantidad,
					Tipo:         model.MovimientoRestoreEliminacion,
					Motivo:       "Eliminación alquiler " + a.ID.String(),
					ReferenciaID: &ref,
				}); err != nil {
					return err
				}
				productos = append(productos, d.ProductoID)
			}
		}
		return noEncontrado(s.repo.DeleteTx(tx, id), "alquiler")
	})
	if err != nil {
		return err
	}

	invalidarProductos(ctx, s.cache, productos...)
	metrics.PedidosEliminados.WithLabelValues("alquiler").Inc()
	log.Ctx(ctx).Info().Str("alquiler_id", id.String()).Int("restaurados", len(productos)).Msg("alquiler eliminado")
	return nil
}

// bloquear locks the cliente and then the alquiler, the same order Registrar
// takes them in. The detalles returned are final until tx ends.
func (s *alquilerService) bloquear(tx *gorm.DB, id uuid.UUID) (*model.Alquiler, error) {
	a, err := s.repo.FindByIDTx(tx, id)
	if err != nil {
		return nil, noEncontrado(err, "alquiler")
	}
	if _, err := s.clientes.FindByIDForUpdateTx(tx, a.ClienteID); err != nil {
		return nil, noEncontrado(err, "cliente")
	}
	a, err = s.repo.FindByIDForUpdateTx(tx, id)
	if err != nil {
		return nil, noEncontrado(err, "alquiler")
	}
	return a, nil
}

func alquilerToResponse(a *model.Alquiler) *dto.AlquilerResponse {
	resp := &dto.AlquilerResponse{
		ID:              a.ID.String(),
		ClienteID:       a.ClienteID.String(),
		FechaInicio:     formatFecha(a.FechaInicio),
		FechaFin:        formatFecha(a.FechaFin),
		Total:           a.Total,
		Estado:          string(a.Estado),
		FechaCreacion:   formatFecha(a.FechaCreacion),
		FechaDevolucion: formatFechaPtr(a.FechaDevolucion),
		Detalles:        make([]dto.DetalleResponse, 0, len(a.Detalles)),
	}
	for _, d := range a.Detalles {
		dr := dto.DetalleResponse{
			ID:             d.ID.String(),
			PedidoID:       d.AlquilerID.String(),
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

func alquileresToResponse(alquileres []model.Alquiler) []dto.AlquilerResponse {
	out := make([]dto.AlquilerResponse, 0, len(alquileres))
	for i := range alquileres {
		out = append(out, *alquilerToResponse(&alquileres[i]))
	}
	return out
}
