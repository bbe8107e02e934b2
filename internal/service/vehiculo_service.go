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

type VehiculoService interface {
	Crear(ctx context.Context, usuarioID uuid.UUID, req dto.CrearVehiculoRequest) (*dto.VehiculoResponse, error)
	Obtener(ctx context.Context, usuarioID, id uuid.UUID) (*dto.VehiculoResponse, error)
	Listar(ctx context.Context, usuarioID uuid.UUID, filter dto.VehiculoFilter) (*dto.VehiculoListResponse, error)
	Actualizar(ctx context.Context, usuarioID, id uuid.UUID, req dto.ActualizarVehiculoRequest) (*dto.VehiculoResponse, error)
	Eliminar(ctx context.Context, usuarioID, id uuid.UUID) error
}

type vehiculoService struct {
	vehiculos repository.VehiculoRepository
	clientes  repository.ClienteRepository
}

func NewVehiculoService(vehiculos repository.VehiculoRepository, clientes repository.ClienteRepository) VehiculoService {
	return &vehiculoService{vehiculos: vehiculos, clientes: clientes}
}

func (s *vehiculoService) Crear(ctx context.Context, usuarioID uuid.UUID, req dto.CrearVehiculoRequest) (*dto.VehiculoResponse, error) {
	clienteID, err := uuid.Parse(req.ClienteID)
	if err != nil {
		return nil, apierror.Validation("cliente_id invalido")
	}
	if _, err := s.clientes.FindByID(ctx, usuarioID, clienteID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("Cliente no encontrado")
		}
		return nil, err
	}

	v := &model.Vehiculo{
		UsuarioID:   usuarioID,
		ClienteID:   clienteID,
		Marca:       req.Marca,
		Modelo:      req.Modelo,
		Anio:        req.Anio,
		Patente:     req.Patente,
		Kilometraje: req.Kilometraje,
		Color:       req.Color,
		Notas:       req.Notas,
	}
	if err := s.vehiculos.Create(ctx, v); err != nil {
		return nil, err
	}
	return vehiculoToResponse(v), nil
}

func (s *vehiculoService) Obtener(ctx context.Context, usuarioID, id uuid.UUID) (*dto.VehiculoResponse, error) {
	v, err := s.buscar(ctx, usuarioID, id)
	if err != nil {
		return nil, err
	}
	return vehiculoToResponse(v), nil
}

func (s *vehiculoService) Listar(ctx context.Context, usuarioID uuid.UUID, filter dto.VehiculoFilter) (*dto.VehiculoListResponse, error) {
	repoFilter := repository.VehiculoFilter{
		Patente: filter.Patente,
		Page:    filter.Page,
		Limit:   filter.Limit,
	}
	if filter.ClienteID != "" {
		cid, err := uuid.Parse(filter.ClienteID)
		if err != nil {
			return nil, apierror.Validation("cliente_id invalido")
		}
		repoFilter.ClienteID = &cid
	}
	if repoFilter.Page < 1 {
		repoFilter.Page = 1
	}
	if repoFilter.Limit < 1 {
		repoFilter.Limit = 20
	}

	vehiculos, total, err := s.vehiculos.List(ctx, usuarioID, repoFilter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.VehiculoResponse, 0, len(vehiculos))
	for i := range vehiculos {
		data = append(data, *vehiculoToResponse(&vehiculos[i]))
	}
	return &dto.VehiculoListResponse{Data: data, Total: total, Page: repoFilter.Page, Limit: repoFilter.Limit}, nil
}

func (s *vehiculoService) Actualizar(ctx context.Context, usuarioID, id uuid.UUID, req dto.ActualizarVehiculoRequest) (*dto.VehiculoResponse, error) {
	v, err := s.buscar(ctx, usuarioID, id)
	if err != nil {
		return nil, err
	}

	if req.Marca != nil {
		v.Marca = *req.Marca
	}
	if req.Modelo != nil {
		v.Modelo = *req.Modelo
	}
	if req.Anio != nil {
		v.Anio = *req.Anio
	}
	if req.Patente != nil {
		v.Patente = *req.Patente
	}
	if req.Kilometraje != nil {
		v.Kilometraje = req.Kilometraje
	}
	if req.Color != nil {
		v.Color = req.Color
	}
	if req.Notas != nil {
		v.Notas = req.Notas
	}

	if err := s.vehiculos.Update(ctx, v); err != nil {
		return nil, err
	}
	return vehiculoToResponse(v), nil
}

func (s *vehiculoService) Eliminar(ctx context.Context, usuarioID, id uuid.UUID) error {
	if err := s.vehiculos.Delete(ctx, usuarioID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierror.NotFound("Vehiculo no encontrado")
		}
		return err
	}
	return nil
}

func (s *vehiculoService) buscar(ctx context.Context, usuarioID, id uuid.UUID) (*model.Vehiculo, error) {
	v, err := s.vehiculos.FindByID(ctx, usuarioID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("Vehiculo no encontrado")
		}
		return nil, err
	}
	return v, nil
}

func vehiculoToResponse(v *model.Vehiculo) *dto.VehiculoResponse {
	resp := &dto.VehiculoResponse{
		ID:          v.ID.String(),
		ClienteID:   v.ClienteID.String(),
		Marca:       v.Marca,
		Modelo:      v.Modelo,
		Anio:        v.Anio,
		Patente:     v.Patente,
		Kilometraje: v.Kilometraje,
		Color:       v.Color,
		Notas:       v.Notas,
		CreatedAt:   v.CreatedAt.Format(time.RFC3339),
	}
	if v.Cliente != nil {
		resp.ClienteNombre = v.Cliente.Nombre
	}
	return resp
}
