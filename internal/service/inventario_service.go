package service

import (
	"context"
	"fmt"

	"vestibox/internal/dto"
	"vestibox/internal/metrics"
	"vestibox/internal/model"
	"vestibox/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// AjusteStock is one signed movement applied by the stock ledger.
type AjusteStock struct {
	ProductoID   uuid.UUID
	Delta        int // negative = salida
	Tipo         string
	Motivo       string
	ReferenciaID *uuid.UUID
}

// InventarioService is the stock ledger. It is the only writer of
// Producto.Stock and journals every change as a MovimientoStock.
type InventarioService interface {
	// AjustarStockTx runs under the caller's transaction so order writes and
	// stock writes commit or roll back together.
	AjustarStockTx(ctx context.Context, tx *gorm.DB, a AjusteStock) (*model.Producto, error)
	AjustarStock(ctx context.Context, productoID uuid.UUID, req dto.AjustarStockRequest) (*dto.ProductoResponse, error)
	HayStockSuficiente(ctx context.Context, productoID uuid.UUID, cantidad int) (bool, error)
	Disponibilidad(ctx context.Context, productoID uuid.UUID, cantidad int) (*dto.DisponibilidadResponse, error)
	ListarMovimientos(ctx context.Context, filter dto.MovimientoFilter) (*dto.MovimientoListResponse, error)
}

type inventarioService struct {
	productos        repository.ProductoRepository
	movimientos      repository.MovimientoStockRepository
	cache            ProductoCache
	permitirNegativo bool
}

func NewInventarioService(
	productos repository.ProductoRepository,
	movimientos repository.MovimientoStockRepository,
	cache ProductoCache,
	permitirNegativo bool,
) InventarioService {
	return &inventarioService{
		productos:        productos,
		movimientos:      movimientos,
		cache:            cache,
		permitirNegativo: permitirNegativo,
	}
}

func (s *inventarioService) AjustarStockTx(ctx context.Context, tx *gorm.DB, a AjusteStock) (*model.Producto, error) {
	p, err := s.productos.FindByIDForUpdateTx(tx, a.ProductoID)
	if err != nil {
		return nil, noEncontrado(err, "producto "+a.ProductoID.String())
	}

	anterior := p.Stock
	nuevo := anterior + a.Delta
	if nuevo < 0 && !s.permitirNegativo {
		return nil, fmt.Errorf("%w: %s tiene %d unidades, se piden %d", ErrStockInsuficiente, p.Nombre, anterior, -a.Delta)
	}

	if err := s.productos.UpdateStockTx(tx, p.ID, a.Delta); err != nil {
		return nil, err
	}
	mov := &model.MovimientoStock{
		ProductoID:    p.ID,
		Tipo:          a.Tipo,
		Cantidad:      a.Delta,
		StockAnterior: anterior,
		StockNuevo:    nuevo,
		Motivo:        a.Motivo,
		ReferenciaID:  a.ReferenciaID,
	}
	if err := s.movimientos.CreateTx(tx, mov); err != nil {
		return nil, err
	}

	metrics.AjustesStock.WithLabelValues(a.Tipo).Inc()
	if nuevo < 0 {
		metrics.StockNegativo.Inc()
		log.Ctx(ctx).Warn().
			Str("producto_id", p.ID.String()).
			Int("stock", nuevo).
			Str("tipo", a.Tipo).
			Msg("inventario: stock negativo")
	}

	p.Stock = nuevo
	return p, nil
}

func (s *inventarioService) AjustarStock(ctx context.Context, productoID uuid.UUID, req dto.AjustarStockRequest) (*dto.ProductoResponse, error) {
	if req.Delta == 0 {
		return nil, fmt.Errorf("%w: delta no puede ser 0", ErrValidacion)
	}

	var p *model.Producto
	err := runTx(ctx, s.productos.DB(), func(tx *gorm.DB) error {
		var err error
		p, err = s.AjustarStockTx(ctx, tx, AjusteStock{
			ProductoID: productoID,
			Delta:      req.Delta,
			Tipo:       model.MovimientoAjusteManual,
			Motivo:     req.Motivo,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	invalidarProductos(ctx, s.cache, productoID)

	log.Ctx(ctx).Info().
		Str("producto_id", productoID.String()).
		Int("delta", req.Delta).
		Int("stock", p.Stock).
		Msg("inventario: ajuste manual")
	return productoToResponse(p), nil
}

// HayStockSuficiente is read-only and advisory: order submission never calls
// it, stock may legitimately go below zero.
func (s *inventarioService) HayStockSuficiente(ctx context.Context, productoID uuid.UUID, cantidad int) (bool, error) {
	d, err := s.Disponibilidad(ctx, productoID, cantidad)
	if err != nil {
		return false, err
	}
	return d.Disponible, nil
}

func (s *inventarioService) Disponibilidad(ctx context.Context, productoID uuid.UUID, cantidad int) (*dto.DisponibilidadResponse, error) {
	if cantidad <= 0 {
		return nil, fmt.Errorf("%w: cantidad debe ser mayor a 0", ErrValidacion)
	}
	p, err := s.productos.FindByID(ctx, productoID)
	if err != nil {
		return nil, noEncontrado(err, "producto "+productoID.String())
	}
	return &dto.DisponibilidadResponse{
		ProductoID: p.ID.String(),
		Cantidad:   cantidad,
		Stock:      p.Stock,
		Disponible: p.Stock >= cantidad,
	}, nil
}

func (s *inventarioService) ListarMovimientos(ctx context.Context, filter dto.MovimientoFilter) (*dto.MovimientoListResponse, error) {
	repoFilter := repository.MovimientoStockFilter{
		Tipo:  filter.Tipo,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	if filter.ProductoID != "" {
		id, err := parseID(filter.ProductoID, "producto_id")
		if err != nil {
			return nil, err
		}
		repoFilter.ProductoID = &id
	}
	if filter.ReferenciaID != "" {
		id, err := parseID(filter.ReferenciaID, "referencia_id")
		if err != nil {
			return nil, err
		}
		repoFilter.ReferenciaID = &id
	}
	if repoFilter.Page < 1 {
		repoFilter.Page = 1
	}
	if repoFilter.Limit < 1 || repoFilter.Limit > 500 {
		repoFilter.Limit = 100
	}

	movs, total, err := s.movimientos.List(ctx, repoFilter)
	if err != nil {
		return nil, err
	}

	data := make([]dto.MovimientoStockResponse, 0, len(movs))
	for i := range movs {
		data = append(data, movimientoToResponse(&movs[i]))
	}
	return &dto.MovimientoListResponse{
		Data:  data,
		Total: total,
		Page:  repoFilter.Page,
		Limit: repoFilter.Limit,
	}, nil
}

func movimientoToResponse(m *model.MovimientoStock) dto.MovimientoStockResponse {
	r := dto.MovimientoStockResponse{
		ID:            m.ID.String(),
		ProductoID:    m.ProductoID.String(),
		Tipo:          m.Tipo,
		Cantidad:      m.Cantidad,
		StockAnterior: m.StockAnterior,
		StockNuevo:    m.StockNuevo,
		Motivo:        m.Motivo,
		CreatedAt:     formatFecha(m.CreatedAt),
	}
	if m.Producto != nil {
		r.Producto = m.Producto.Nombre
	}
	if m.ReferenciaID != nil {
		ref := m.ReferenciaID.String()
		r.ReferenciaID = &ref
	}
	return r
}
