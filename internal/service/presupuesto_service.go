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

// PresupuestoService maneja el ciclo de vida de presupuestos. La aprobación
// es el único punto donde un presupuesto toca el inventario: reserva el stock
// de todos sus ítems vinculados de forma atómica, exactamente una vez.
type PresupuestoService interface {
	Crear(ctx context.Context, usuarioID uuid.UUID, req dto.CrearPresupuestoRequest) (*dto.PresupuestoResponse, error)
	Obtener(ctx context.Context, usuarioID, id uuid.UUID) (*dto.PresupuestoResponse, error)
	Listar(ctx context.Context, usuarioID uuid.UUID, filter dto.PresupuestoFilter) (*dto.PresupuestoListResponse, error)
	Actualizar(ctx context.Context, usuarioID, id uuid.UUID, req dto.ActualizarPresupuestoRequest) (*dto.PresupuestoResponse, error)
	CambiarEstado(ctx context.Context, usuarioID, actorID, id uuid.UUID, req dto.CambiarEstadoPresupuestoRequest) (*dto.PresupuestoResponse, error)
	Eliminar(ctx context.Context, usuarioID, id uuid.UUID) error
}

type presupuestoService struct {
	presupuestos repository.PresupuestoRepository
	repuestos    repository.RepuestoRepository
	clientes     repository.ClienteRepository
	vehiculos    repository.VehiculoRepository
	reservas     *ReservaCoordinator
	historial    HistorialService
}

func NewPresupuestoService(
	presupuestos repository.PresupuestoRepository,
	repuestos repository.RepuestoRepository,
	clientes repository.ClienteRepository,
	vehiculos repository.VehiculoRepository,
	reservas *ReservaCoordinator,
	historial HistorialService,
) PresupuestoService {
	return &presupuestoService{
		presupuestos: presupuestos,
		repuestos:    repuestos,
		clientes:     clientes,
		vehiculos:    vehiculos,
		reservas:     reservas,
		historial:    historial,
	}
}

func (s *presupuestoService) Crear(ctx context.Context, usuarioID uuid.UUID, req dto.CrearPresupuestoRequest) (*dto.PresupuestoResponse, error) {
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

	p := &model.Presupuesto{
		UsuarioID:  usuarioID,
		ClienteID:  clienteID,
		VehiculoID: vehiculoID,
		Estado:     model.EstadoPresupuestoPendiente,
		Subtotal:   subtotal,
		Descuento:  req.Descuento,
		Total:      total,
		Notas:      req.Notas,
		Version:    1,
		Items:      aPresupuestoItems(lineas),
	}
	if err := s.presupuestos.Create(ctx, nil, p); err != nil {
		return nil, err
	}
	return presupuestoToResponse(p), nil
}

func (s *presupuestoService) Obtener(ctx context.Context, usuarioID, id uuid.UUID) (*dto.PresupuestoResponse, error) {
	p, err := s.buscar(ctx, usuarioID, id)
	if err != nil {
		return nil, err
	}
	return presupuestoToResponse(p), nil
}

func (s *presupuestoService) Listar(ctx context.Context, usuarioID uuid.UUID, filter dto.PresupuestoFilter) (*dto.PresupuestoListResponse, error) {
	repoFilter := repository.PresupuestoFilter{
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

	presupuestos, total, err := s.presupuestos.List(ctx, usuarioID, repoFilter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.PresupuestoResponse, 0, len(presupuestos))
	for i := range presupuestos {
		data = append(data, *presupuestoToResponse(&presupuestos[i]))
	}
	return &dto.PresupuestoListResponse{Data: data, Total: total, Page: repoFilter.Page, Limit: repoFilter.Limit}, nil
}

// Actualizar edita un presupuesto pendiente. Los aprobados y rechazados son
// terminales y se rechazan antes de cualquier escritura.
func (s *presupuestoService) Actualizar(ctx context.Context, usuarioID, id uuid.UUID, req dto.ActualizarPresupuestoRequest) (*dto.PresupuestoResponse, error) {
	p, err := s.buscar(ctx, usuarioID, id)
	if err != nil {
		return nil, err
	}
	if p.Estado != model.EstadoPresupuestoPendiente {
		return nil, apierror.Validation("Solo un presupuesto pendiente puede modificarse")
	}

	if req.ClienteID != nil || req.VehiculoID != nil {
		clienteID, vehiculoID, err := s.resolverReferencias(ctx, usuarioID, req.ClienteID, req.VehiculoID)
		if err != nil {
			return nil, err
		}
		if req.ClienteID != nil {
			p.ClienteID = clienteID
		}
		if req.VehiculoID != nil {
			p.VehiculoID = vehiculoID
		}
	}

	replaceItems := req.Items != nil
	if replaceItems {
		lineas, subtotal, err := resolverItems(ctx, s.repuestos, usuarioID, req.Items)
		if err != nil {
			return nil, err
		}
		p.Items = aPresupuestoItems(lineas)
		p.Subtotal = subtotal
	}
	if req.Descuento != nil {
		p.Descuento = *req.Descuento
	}
	total, err := validarTotales(p.Subtotal, p.Descuento)
	if err != nil {
		return nil, err
	}
	p.Total = total
	if req.Notas != nil {
		p.Notas = req.Notas
	}

	ok, err := s.presupuestos.UpdateVersioned(ctx, nil, p, req.Version, replaceItems)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apierror.Conflict("El presupuesto fue modificado por otra operacion; recargue e intente de nuevo")
	}
	return presupuestoToResponse(p), nil
}

// CambiarEstado aprueba o rechaza un presupuesto pendiente. Repetir el estado
// actual es un no-op idempotente: responde OK sin reservar stock de nuevo ni
// registrar historial. La aprobación reserva el stock de los ítems vinculados
// dentro de la misma transacción que persiste el cambio de estado; si la
// reserva falla, el estado vuelve a pendiente y nada queda descontado.
func (s *presupuestoService) CambiarEstado(ctx context.Context, usuarioID, actorID, id uuid.UUID, req dto.CambiarEstadoPresupuestoRequest) (*dto.PresupuestoResponse, error) {
	p, err := s.buscar(ctx, usuarioID, id)
	if err != nil {
		return nil, err
	}

	if p.Estado == req.Estado {
		return presupuestoToResponse(p), nil
	}
	if err := ValidarTransicionPresupuesto(p.Estado, req.Estado); err != nil {
		return nil, err
	}

	anterior := p.Estado
	p.Estado = req.Estado

	err = runTx(ctx, s.presupuestos.DB(), func(tx *gorm.DB) error {
		ok, err := s.presupuestos.UpdateVersioned(ctx, tx, p, req.Version, false)
		if err != nil {
			return err
		}
		if !ok {
			return apierror.Conflict("El presupuesto fue modificado por otra operacion; recargue e intente de nuevo")
		}

		if req.Estado != model.EstadoPresupuestoAprobado {
			return nil
		}

		lineas := lineasDePresupuesto(p.Items)
		if err := s.reservas.Reservar(ctx, tx, usuarioID, p.ID, lineas, "Aprobacion de presupuesto"); err != nil {
			// Real transactions roll this back anyway; the explicit restore
			// keeps stub-backed storage consistent.
			if _, rerr := s.presupuestos.UpdateVersioned(ctx, tx, &model.Presupuesto{
				ID:        p.ID,
				UsuarioID: p.UsuarioID,
				ClienteID: p.ClienteID, VehiculoID: p.VehiculoID,
				Estado:   anterior,
				Subtotal: p.Subtotal, Descuento: p.Descuento, Total: p.Total,
				Notas: p.Notas,
			}, p.Version, false); rerr != nil {
				return rerr
			}
			return err
		}
		return nil
	})
	if err != nil {
		p.Estado = anterior
		return nil, err
	}

	s.historial.Registrar(ctx, usuarioID, p.ID, model.EntidadPresupuesto, anterior, p.Estado, actorID, req.Notas)
	return presupuestoToResponse(p), nil
}

// Eliminar borra un presupuesto no aprobado. Uno aprobado ya comprometió
// stock y no se elimina; queda como registro del trabajo cotizado.
func (s *presupuestoService) Eliminar(ctx context.Context, usuarioID, id uuid.UUID) error {
	p, err := s.buscar(ctx, usuarioID, id)
	if err != nil {
		return err
	}
	if p.Estado == model.EstadoPresupuestoAprobado {
		return apierror.Validation("Un presupuesto aprobado no puede eliminarse")
	}
	if err := s.presupuestos.Delete(ctx, usuarioID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierror.NotFound("Presupuesto no encontrado")
		}
		return err
	}
	return nil
}

func (s *presupuestoService) buscar(ctx context.Context, usuarioID, id uuid.UUID) (*model.Presupuesto, error) {
	p, err := s.presupuestos.FindByID(ctx, usuarioID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("Presupuesto no encontrado")
		}
		return nil, err
	}
	return p, nil
}

// resolverReferencias parses and verifies optional cliente/vehiculo links.
// Ownership scoping makes a foreign owner's ID indistinguishable from a
// nonexistent one.
func (s *presupuestoService) resolverReferencias(ctx context.Context, usuarioID uuid.UUID, clienteID, vehiculoID *string) (*uuid.UUID, *uuid.UUID, error) {
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

// lineasDePresupuesto extracts the inventory commitments of stored items.
func lineasDePresupuesto(items []model.PresupuestoItem) []lineaReserva {
	out := make([]lineaReserva, 0, len(items))
	for _, it := range items {
		if it.RepuestoID != nil {
			out = append(out, lineaReserva{RepuestoID: *it.RepuestoID, Cantidad: it.Cantidad})
		}
	}
	return out
}

func presupuestoToResponse(p *model.Presupuesto) *dto.PresupuestoResponse {
	items := make([]dto.ItemResponse, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, itemPresupuestoToResponse(it))
	}
	return &dto.PresupuestoResponse{
		ID:         p.ID.String(),
		ClienteID:  uuidPtrToString(p.ClienteID),
		VehiculoID: uuidPtrToString(p.VehiculoID),
		Estado:     p.Estado,
		Items:      items,
		Subtotal:   p.Subtotal,
		Descuento:  p.Descuento,
		Total:      p.Total,
		Notas:      p.Notas,
		Version:    p.Version,
		CreatedAt:  p.CreatedAt.Format(time.RFC3339),
	}
}

func itemPresupuestoToResponse(it model.PresupuestoItem) dto.ItemResponse {
	return dto.ItemResponse{
		ID:             it.ID.String(),
		Tipo:           it.Tipo,
		RepuestoID:     uuidPtrToString(it.RepuestoID),
		Descripcion:    it.Descripcion,
		Cantidad:       it.Cantidad,
		PrecioUnitario: it.PrecioUnitario,
		Subtotal:       it.Subtotal,
	}
}

func uuidPtrToString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
