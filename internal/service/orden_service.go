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
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// OrdenService maneja órdenes de trabajo. Una orden nace de dos maneras:
// directa (sus ítems vinculados reservan stock al crearla, todo-o-nada) o
// desde un presupuesto aprobado (copia sus ítems; el stock ya se reservó al
// aprobar, nunca se reserva dos veces).
type OrdenService interface {
	Crear(ctx context.Context, usuarioID uuid.UUID, req dto.CrearOrdenRequest) (*dto.OrdenResponse, error)
	Obtener(ctx context.Context, usuarioID, id uuid.UUID) (*dto.OrdenResponse, error)
	Listar(ctx context.Context, usuarioID uuid.UUID, filter dto.OrdenFilter) (*dto.OrdenListResponse, error)
	Actualizar(ctx context.Context, usuarioID, id uuid.UUID, req dto.ActualizarOrdenRequest) (*dto.OrdenResponse, error)
	CambiarEstado(ctx context.Context, usuarioID, actorID, id uuid.UUID, req dto.CambiarEstadoOrdenRequest) (*dto.OrdenResponse, error)
	Eliminar(ctx context.Context, usuarioID, id uuid.UUID) error
}

type ordenService struct {
	ordenes      repository.OrdenRepository
	presupuestos repository.PresupuestoRepository
	repuestos    repository.RepuestoRepository
	clientes     repository.ClienteRepository
	vehiculos    repository.VehiculoRepository
	reservas     *ReservaCoordinator
	historial    HistorialService
}

func NewOrdenService(
	ordenes repository.OrdenRepository,
	presupuestos repository.PresupuestoRepository,
	repuestos repository.RepuestoRepository,
	clientes repository.ClienteRepository,
	vehiculos repository.VehiculoRepository,
	reservas *ReservaCoordinator,
	historial HistorialService,
) OrdenService {
	return &ordenService{
		ordenes:      ordenes,
		presupuestos: presupuestos,
		repuestos:    repuestos,
		clientes:     clientes,
		vehiculos:    vehiculos,
		reservas:     reservas,
		historial:    historial,
	}
}

func (s *ordenService) Crear(ctx context.Context, usuarioID uuid.UUID, req dto.CrearOrdenRequest) (*dto.OrdenResponse, error) {
	if req.PresupuestoID != nil {
		return s.crearDesdePresupuesto(ctx, usuarioID, req)
	}
	return s.crearDirecta(ctx, usuarioID, req)
}

// crearDesdePresupuesto snapshots an approved budget's items into a new
// order. No stock moves here: the approval already reserved it.
func (s *ordenService) crearDesdePresupuesto(ctx context.Context, usuarioID uuid.UUID, req dto.CrearOrdenRequest) (*dto.OrdenResponse, error) {
	pid, err := uuid.Parse(*req.PresupuestoID)
	if err != nil {
		return nil, apierror.Validation("presupuesto_id invalido")
	}
	p, err := s.presupuestos.FindByID(ctx, usuarioID, pid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("Presupuesto no encontrado")
		}
		return nil, err
	}
	if p.Estado != model.EstadoPresupuestoAprobado {
		return nil, apierror.Validation("Solo un presupuesto aprobado puede generar una orden")
	}
	if len(req.Items) > 0 {
		return nil, apierror.Validation("Una orden creada desde presupuesto toma los items del presupuesto")
	}

	clienteID := p.ClienteID
	vehiculoID := p.VehiculoID
	if req.ClienteID != nil || req.VehiculoID != nil {
		cid, vid, err := s.resolverReferencias(ctx, usuarioID, req.ClienteID, req.VehiculoID)
		if err != nil {
			return nil, err
		}
		if req.ClienteID != nil {
			clienteID = cid
		}
		if req.VehiculoID != nil {
			vehiculoID = vid
		}
	}

	items := make([]model.OrdenItem, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, model.OrdenItem{
			Tipo:           it.Tipo,
			RepuestoID:     it.RepuestoID,
			Descripcion:    it.Descripcion,
			Cantidad:       it.Cantidad,
			PrecioUnitario: it.PrecioUnitario,
			Subtotal:       it.Subtotal,
		})
	}

	o := &model.OrdenTrabajo{
		UsuarioID:     usuarioID,
		ClienteID:     clienteID,
		VehiculoID:    vehiculoID,
		PresupuestoID: &p.ID,
		Estado:        model.EstadoOrdenPendiente,
		Subtotal:      p.Subtotal,
		Descuento:     p.Descuento,
		Total:         p.Total,
		Notas:         req.Notas,
		Version:       1,
		Items:         items,
	}
	if err := s.ordenes.Create(ctx, nil, o); err != nil {
		return nil, err
	}
	return ordenToResponse(o), nil
}

// crearDirecta persists the order and reserves stock for every linked item
// inside one transaction. Any shortfall unwinds everything: the compensating
// delete keeps stub-backed storage consistent, the rollback covers Postgres.
func (s *ordenService) crearDirecta(ctx context.Context, usuarioID uuid.UUID, req dto.CrearOrdenRequest) (*dto.OrdenResponse, error) {
	if len(req.Items) == 0 {
		return nil, apierror.Validation("Una orden directa requiere al menos un item")
	}

	clienteID, vehiculoID, err := s.resolverReferencias(ctx, usuarioID, req.ClienteID, req.VehiculoID)
	if err != nil {
		return nil, err
	}
	lineas, subtotal, err := resolverItems(ctx, s.repuestos, usuarioID, req.Items)
	if err != nil {
		return nil, err
	}
	total, err := validarTotales(subtotal, req.Descuento)
	if err != nil {
		return nil, err
	}

	o := &model.OrdenTrabajo{
		UsuarioID:  usuarioID,
		ClienteID:  clienteID,
		VehiculoID: vehiculoID,
		Estado:     model.EstadoOrdenPendiente,
		Subtotal:   subtotal,
		Descuento:  req.Descuento,
		Total:      total,
		Notas:      req.Notas,
		Version:    1,
		Items:      aOrdenItems(lineas),
	}

	err = runTx(ctx, s.ordenes.DB(), func(tx *gorm.DB) error {
		if err := s.ordenes.Create(ctx, tx, o); err != nil {
			return err
		}
		if err := s.reservas.Reservar(ctx, tx, usuarioID, o.ID, lineasReserva(lineas), "Creacion de orden directa"); err != nil {
			if derr := s.ordenes.Delete(ctx, tx, usuarioID, o.ID); derr != nil && !errors.Is(derr, gorm.ErrRecordNotFound) {
				log.Error().Str("orden_id", o.ID.String()).Err(derr).Msg("orden: fallo la eliminacion compensatoria")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ordenToResponse(o), nil
}

func (s *ordenService) Obtener(ctx context.Context, usuarioID, id uuid.UUID) (*dto.OrdenResponse, error) {
	o, err := s.buscar(ctx, usuarioID, id)
	if err != nil {
		return nil, err
	}
	return ordenToResponse(o), nil
}

func (s *ordenService) Listar(ctx context.Context, usuarioID uuid.UUID, filter dto.OrdenFilter) (*dto.OrdenListResponse, error) {
	repoFilter := repository.OrdenFilter{
		Estado: filter.Estado,
		Page:   filter.Page,
		Limit:  filter.Limit,
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

	ordenes, total, err := s.ordenes.List(ctx, usuarioID, repoFilter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.OrdenResponse, 0, len(ordenes))
	for i := range ordenes {
		data = append(data, *ordenToResponse(&ordenes[i]))
	}
	return &dto.OrdenListResponse{Data: data, Total: total, Page: repoFilter.Page, Limit: repoFilter.Limit}, nil
}

// Actualizar edita una orden no completada. El guard corre antes de toda
// escritura: completada rechaza cualquier cambio, y en una orden directa con
// repuestos vinculados la lista de ítems no puede cambiar de contenido.
func (s *ordenService) Actualizar(ctx context.Context, usuarioID, id uuid.UUID, req dto.ActualizarOrdenRequest) (*dto.OrdenResponse, error) {
	o, err := s.buscar(ctx, usuarioID, id)
	if err != nil {
		return nil, err
	}

	itemsProvistos := req.Items != nil
	var nuevosItems []model.OrdenItem
	if itemsProvistos {
		lineas, subtotal, err := resolverItems(ctx, s.repuestos, usuarioID, req.Items)
		if err != nil {
			return nil, err
		}
		nuevosItems = aOrdenItems(lineas)
		o.Subtotal = subtotal
	}

	if err := ValidarActualizacionOrden(o, nuevosItems, itemsProvistos); err != nil {
		return nil, err
	}

	if req.ClienteID != nil || req.VehiculoID != nil {
		cid, vid, err := s.resolverReferencias(ctx, usuarioID, req.ClienteID, req.VehiculoID)
		if err != nil {
			return nil, err
		}
		if req.ClienteID != nil {
			o.ClienteID = cid
		}
		if req.VehiculoID != nil {
			o.VehiculoID = vid
		}
	}
	if itemsProvistos {
		o.Items = nuevosItems
	}
	if req.Descuento != nil {
		o.Descuento = *req.Descuento
	}
	total, err := validarTotales(o.Subtotal, o.Descuento)
	if err != nil {
		return nil, err
	}
	o.Total = total
	if req.Notas != nil {
		o.Notas = req.Notas
	}

	ok, err := s.ordenes.UpdateVersioned(ctx, nil, o, req.Version, itemsProvistos)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apierror.Conflict("La orden fue modificada por otra operacion; recargue e intente de nuevo")
	}
	return ordenToResponse(o), nil
}

// CambiarEstado avanza el ciclo de vida. Repetir el estado actual es un no-op
// idempotente. Ningún cambio de estado mueve stock: la reserva ocurrió al
// aprobar el presupuesto o al crear la orden directa, y la cancelación no la
// revierte automáticamente (la reposición es un ajuste manual explícito).
func (s *ordenService) CambiarEstado(ctx context.Context, usuarioID, actorID, id uuid.UUID, req dto.CambiarEstadoOrdenRequest) (*dto.OrdenResponse, error) {
	o, err := s.buscar(ctx, usuarioID, id)
	if err != nil {
		return nil, err
	}

	if o.Estado == req.Estado {
		return ordenToResponse(o), nil
	}
	if err := ValidarTransicionOrden(o.Estado, req.Estado); err != nil {
		return nil, err
	}

	anterior := o.Estado
	o.Estado = req.Estado

	ok, err := s.ordenes.UpdateVersioned(ctx, nil, o, req.Version, false)
	if err != nil {
		o.Estado = anterior
		return nil, err
	}
	if !ok {
		o.Estado = anterior
		return nil, apierror.Conflict("La orden fue modificada por otra operacion; recargue e intente de nuevo")
	}

	s.historial.Registrar(ctx, usuarioID, o.ID, model.EntidadOrden, anterior, o.Estado, actorID, req.Notas)
	return ordenToResponse(o), nil
}

// Eliminar borra una orden no completada. Las completadas son inmutables,
// incluida su eliminación.
func (s *ordenService) Eliminar(ctx context.Context, usuarioID, id uuid.UUID) error {
	o, err := s.buscar(ctx, usuarioID, id)
	if err != nil {
		return err
	}
	if OrdenBloqueada(o) {
		return apierror.Validation("La orden esta completada y es inmutable")
	}
	if err := s.ordenes.Delete(ctx, nil, usuarioID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierror.NotFound("Orden no encontrada")
		}
		return err
	}
	return nil
}

func (s *ordenService) buscar(ctx context.Context, usuarioID, id uuid.UUID) (*model.OrdenTrabajo, error) {
	o, err := s.ordenes.FindByID(ctx, usuarioID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("Orden no encontrada")
		}
		return nil, err
	}
	return o, nil
}

func (s *ordenService) resolverReferencias(ctx context.Context, usuarioID uuid.UUID, clienteID, vehiculoID *string) (*uuid.UUID, *uuid.UUID, error) {
	var cid, vid *uuid.UUID
	if clienteID != nil {
		parsed, err := uuid.Parse(*clienteID)
		if err != nil {
			return nil, nil, apierror.Validation("cliente_id invalido")
		}
		if _, err := s.clientes.FindByID(ctx, usuarioID, parsed); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil, apierror.NotFound("Cliente no encontrado")
			}
			return nil, nil, err
		}
		cid = &parsed
	}
	if vehiculoID != nil {
		parsed, err := uuid.Parse(*vehiculoID)
		if err != nil {
			return nil, nil, apierror.Validation("vehiculo_id invalido")
		}
		if _, err := s.vehiculos.FindByID(ctx, usuarioID, parsed); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil, apierror.NotFound("Vehiculo no encontrado")
			}
			return nil, nil, err
		}
		vid = &parsed
	}
	return cid, vid, nil
}

func ordenToResponse(o *model.OrdenTrabajo) *dto.OrdenResponse {
	items := make([]dto.ItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, dto.ItemResponse{
			ID:             it.ID.String(),
			Tipo:           it.Tipo,
			RepuestoID:     uuidPtrToString(it.RepuestoID),
			Descripcion:    it.Descripcion,
			Cantidad:       it.Cantidad,
			PrecioUnitario: it.PrecioUnitario,
			Subtotal:       it.Subtotal,
		})
	}
	return &dto.OrdenResponse{
		ID:            o.ID.String(),
		ClienteID:     uuidPtrToString(o.ClienteID),
		VehiculoID:    uuidPtrToString(o.VehiculoID),
		PresupuestoID: uuidPtrToString(o.PresupuestoID),
		Estado:        o.Estado,
		Items:         items,
		Subtotal:      o.Subtotal,
		Descuento:     o.Descuento,
		Total:         o.Total,
		Notas:         o.Notas,
		Version:       o.Version,
		CreatedAt:     o.CreatedAt.Format(time.RFC3339),
	}
}
