package service

import (
	"context"
	"errors"
	"time"

	"tallerpro/internal/apierror"
	"tallerpro/internal/dto"
	"tallerpro/internal/model"
	"tallerpro/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClienteService interface {
	Crear(ctx context.Context, usuarioID uuid.UUID, req dto.CrearClienteRequest) (*dto.ClienteResponse, error)
	Obtener(ctx context.Context, usuarioID, id uuid.UUID) (*dto.ClienteResponse, error)
	Listar(ctx context.Context, usuarioID uuid.UUID, filter dto.ClienteFilter) (*dto.ClienteListResponse, error)
	Actualizar(ctx context.Context, usuarioID, id uuid.UUID, req dto.ActualizarClienteRequest) (*dto.ClienteResponse, error)
	Eliminar(ctx context.Context, usuarioID, id uuid.UUID) error
}

type clienteService struct {
	clientes repository.ClienteRepository
}

func NewClienteService(clientes repository.ClienteRepository) ClienteService {
	return &clienteService{clientes: clientes}
}

func (s *clienteService) Crear(ctx context.Context, usuarioID uuid.UUID, req dto.CrearClienteRequest) (*dto.ClienteResponse, error) {
	c := &model.Cliente{
		UsuarioID: usuarioID,
		Nombre:    req.Nombre,
		Telefono:  req.Telefono,
		Email:     req.Email,
		Direccion: req.Direccion,
		Documento: req.Documento,
	}
	if err := s.clientes.Create(ctx, c); err != nil {
		return nil, err
	}
	return clienteToResponse(c), nil
}

func (s *clienteService) Obtener(ctx context.Context, usuarioID, id uuid.UUID) (*dto.ClienteResponse, error) {
	c, err := s.buscar(ctx, usuarioID, id)
	if err != nil {
		return nil, err
	}
	return clienteToResponse(c), nil
}

func (s *clienteService) Listar(ctx context.Context, usuarioID uuid.UUID, filter dto.ClienteFilter) (*dto.ClienteListResponse, error) {
	repoFilter := repository.ClienteFilter{
		Nombre: filter.Nombre,
		Page:   filter.Page,
		Limit:  filter.Limit,
	}
	if repoFilter.Page < 1 {
		repoFilter.Page = 1
	}
	if repoFilter.Limit < 1 {
		repoFilter.Limit = 20
	}

	clientes, total, err := s.clientes.List(ctx, usuarioID, repoFilter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.ClienteResponse, 0, len(clientes))
	for i := range clientes {
		data = append(data, *clienteToResponse(&clientes[i]))
	}
	return &dto.ClienteListResponse{Data: data, Total: total, Page: repoFilter.Page, Limit: repoFilter.Limit}, nil
}

func (s *clienteService) Actualizar(ctx context.Context, usuarioID, id uuid.UUID, req dto.ActualizarClienteRequest) (*dto.ClienteResponse, error) {
	c, err := s.buscar(ctx, usuarioID, id)
	if err != nil {
		return nil, err
	}

	if req.Nombre != nil {
		c.Nombre = *req.Nombre
	}
	if req.Telefono != nil {
		c.Telefono = req.Telefono
	}
	if req.Email != nil {
		c.Email = req.Email
	}
	if req.Direccion != nil {
		c.Direccion = req.Direccion
	}
	if req.Documento != nil {
		c.Documento = req.Documento
	}

	if err := s.clientes.Update(ctx, c); err != nil {
		return nil, err
	}
	return clienteToResponse(c), nil
}

func (s *clienteService) Eliminar(ctx context.Context, usuarioID, id uuid.UUID) error {
	if err := s.clientes.Delete(ctx, usuarioID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierror.NotFound("Cliente no encontrado")
		}
		return err
	}
	return nil
}

func (s *clienteService) buscar(ctx context.Context, usuarioID, id uuid.UUID) (*model.Cliente, error) {
	c, err := s.clientes.FindByID(ctx, usuarioID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("Cliente no encontrado")
		}
		return nil, err
	}
	return c, nil
}

func clienteToResponse(c *model.Cliente) *dto.ClienteResponse {
	return &dto.ClienteResponse{
		ID:        c.ID.String(),
		Nombre:    c.Nombre,
		Telefono:  c.Telefono,
		Email:     c.Email,
		Direccion: c.Direccion,
		Documento: c.Documento,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
}
