package service

import (
	"context"
	"fmt"

	"vestibox/internal/dto"
	"vestibox/internal/model"
	"vestibox/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ProductoCache is the read-through cache for single productos.
// *infra.ProductoCache satisfies it; a nil ProductoCache disables caching.
type ProductoCache interface {
	// Get returns the snapshot, or on a miss the version to hand to Set.
	Get(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, int64, bool)
	// Set is dropped if the producto was invalidated after version was read.
	Set(ctx context.Context, p *dto.ProductoResponse, version int64)
	Invalidate(ctx context.Context, ids ...uuid.UUID)
}

func invalidarProductos(ctx context.Context, cache ProductoCache, ids ...uuid.UUID) {
	if cache == nil || len(ids) == 0 {
		return
	}
	cache.Invalidate(ctx, ids...)
}

// ProductoService defines the business logic contract for products.
// Stock is read-only here; it moves only through InventarioService.
type ProductoService interface {
	Crear(ctx context.Context, req dto.ProductoRequest) (*dto.ProductoResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error)
	Listar(ctx context.Context, pag dto.Paginacion) ([]dto.ProductoResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ProductoRequest) (*dto.ProductoResponse, error)
	Eliminar(ctx context.Context, id uuid.UUID) error
}

type productoService struct {
	repo  repository.ProductoRepository
	cache ProductoCache
}

func NewProductoService(repo repository.ProductoRepository, cache ProductoCache) ProductoService {
	return &productoService{repo: repo, cache: cache}
}

func (s *productoService) Crear(ctx context.Context, req dto.ProductoRequest) (*dto.ProductoResponse, error) {
	p := &model.Producto{
		Nombre:         req.Nombre,
		Descripcion:    req.Descripcion,
		PrecioVenta:    req.PrecioVenta,
		PrecioAlquiler: req.PrecioAlquiler,
		Stock:          req.Stock,
		Talla:          req.Talla,
		Color:          req.Color,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	log.Ctx(ctx).Info().Str("producto_id", p.ID.String()).Int("stock", p.Stock).Msg("producto creado")
	return productoToResponse(p), nil
}

func (s *productoService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error) {
	var version int64
	if s.cache != nil {
		resp, v, ok := s.cache.Get(ctx, id)
		if ok {
			return resp, nil
		}
		version = v
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "producto")
	}
	resp := productoToResponse(p)
	if s.cache != nil {
		s.cache.Set(ctx, resp, version)
	}
	return resp, nil
}

func (s *productoService) Listar(ctx context.Context, pag dto.Paginacion) ([]dto.ProductoResponse, error) {
	pag.Normalizar()
	productos, err := s.repo.List(ctx, pag.Skip, pag.Limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ProductoResponse, 0, len(productos))
	for i := range productos {
		out = append(out, *productoToResponse(&productos[i]))
	}
	return out, nil
}

func (s *productoService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ProductoRequest) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "producto")
	}
	p.Nombre = req.Nombre
	p.Descripcion = req.Descripcion
	p.PrecioVenta = req.PrecioVenta
	p.PrecioAlquiler = req.PrecioAlquiler
	p.Talla = req.Talla
	p.Color = req.Color
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	invalidarProductos(ctx, s.cache, id)
	return productoToResponse(p), nil
}

func (s *productoService) Eliminar(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		err = conflicto(err, fmt.Sprintf("producto %s tiene pedidos o movimientos asociados", id))
		return noEncontrado(err, "producto")
	}
	invalidarProductos(ctx, s.cache, id)
	log.Ctx(ctx).Info().Str("producto_id", id.String()).Msg("producto eliminado")
	return nil
}

func productoToResponse(p *model.Producto) *dto.ProductoResponse {
	return &dto.ProductoResponse{
		ID:             p.ID.String(),
		Nombre:         p.Nombre,
		Descripcion:    p.Descripcion,
		PrecioVenta:    p.PrecioVenta,
		PrecioAlquiler: p.PrecioAlquiler,
		Stock:          p.Stock,
		Talla:          p.Talla,
		Color:          p.Color,
		FechaCreacion:  formatFecha(p.FechaCreacion),
	}
}
