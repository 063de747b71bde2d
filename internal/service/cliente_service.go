package service

import (
	"context"
	"errors"
	"fmt"

	"vestibox/internal/dto"
	"vestibox/internal/model"
	"vestibox/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var errEmailRegistrado = fmt.Errorf("%w: Email ya registrado", ErrConflicto)

type ClienteService interface {
	Crear(ctx context.Context, req dto.ClienteRequest) (*dto.ClienteResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ClienteResponse, error)
	Listar(ctx context.Context, pag dto.Paginacion) ([]dto.ClienteResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ClienteRequest) (*dto.ClienteResponse, error)
	// Eliminar refuses while the cliente still has alquileres or ventas.
	Eliminar(ctx context.Context, id uuid.UUID) error
}

type clienteService struct {
	repo repository.ClienteRepository
}

func NewClienteService(repo repository.ClienteRepository) ClienteService {
	return &clienteService{repo: repo}
}

func (s *clienteService) Crear(ctx context.Context, req dto.ClienteRequest) (*dto.ClienteResponse, error) {
	if err := s.emailLibre(ctx, req.Email, uuid.Nil); err != nil {
		return nil, err
	}
	c := &model.Cliente{
		Nombre:    req.Nombre,
		Email:     req.Email,
		Telefono:  req.Telefono,
		Direccion: req.Direccion,
		Activo:    true,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, conflicto(err, "Email ya registrado")
	}
	log.Ctx(ctx).Info().Str("cliente_id", c.ID.String()).Msg("cliente creado")
	return clienteToResponse(c), nil
}

func (s *clienteService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ClienteResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "cliente")
	}
	return clienteToResponse(c), nil
}

func (s *clienteService) Listar(ctx context.Context, pag dto.Paginacion) ([]dto.ClienteResponse, error) {
	pag.Normalizar()
	clientes, err := s.repo.List(ctx, pag.Skip, pag.Limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ClienteResponse, 0, len(clientes))
	for i := range clientes {
		out = append(out, *clienteToResponse(&clientes[i]))
	}
	return out, nil
}

func (s *clienteService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ClienteRequest) (*dto.ClienteResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "cliente")
	}
	if req.Email != c.Email {
		if err := s.emailLibre(ctx, req.Email, id); err != nil {
			return nil, err
		}
	}
	c.Nombre = req.Nombre
	c.Email = req.Email
	c.Telefono = req.Telefono
	c.Direccion = req.Direccion
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, conflicto(err, "Email ya registrado")
	}
	return clienteToResponse(c), nil
}

func (s *clienteService) Eliminar(ctx context.Context, id uuid.UUID) error {
	n, err := s.repo.CountPedidos(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: el cliente tiene %d pedidos", ErrConflicto, n)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return noEncontrado(conflicto(err, "el cliente tiene pedidos"), "cliente")
	}
	log.Ctx(ctx).Info().Str("cliente_id", id.String()).Msg("cliente eliminado")
	return nil
}

// emailLibre returns errEmailRegistrado when another cliente owns email.
func (s *clienteService) emailLibre(ctx context.Context, email string, propio uuid.UUID) error {
	otro, err := s.repo.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	case err != nil:
		return err
	case otro.ID != propio:
		return errEmailRegistrado
	}
	return nil
}

func clienteToResponse(c *model.Cliente) *dto.ClienteResponse {
	return &dto.ClienteResponse{
		ID:            c.ID.String(),
		Nombre:        c.Nombre,
		Email:         c.Email,
		Telefono:      c.Telefono,
		Direccion:     c.Direccion,
		Activo:        c.Activo,
		FechaCreacion: formatFecha(c.FechaCreacion),
	}
}
