package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"tallerpro/internal/apierror"
	"tallerpro/internal/dto"
	"tallerpro/internal/model"
	"tallerpro/internal/repository"
	"tallerpro/internal/worker"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const precioCacheTTL = 60 * time.Second

// RepuestoService administra el inventario. Los ajustes de stock pasan por el
// mismo primitivo atómico que usan las reservas, así que un ajuste negativo
// jamás deja stock por debajo de cero.
type RepuestoService interface {
	Crear(ctx context.Context, usuarioID uuid.UUID, req dto.CrearRepuestoRequest) (*dto.RepuestoResponse, error)
	Obtener(ctx context.Context, usuarioID, id uuid.UUID) (*dto.RepuestoResponse, error)
	Listar(ctx context.Context, usuarioID uuid.UUID, filter dto.RepuestoFilter) (*dto.RepuestoListResponse, error)
	Actualizar(ctx context.Context, usuarioID, id uuid.UUID, req dto.ActualizarRepuestoRequest) (*dto.RepuestoResponse, error)
	Eliminar(ctx context.Context, usuarioID, id uuid.UUID) error

	// AjustarStock applies a signed manual delta. Negative deltas use the
	// conditional decrement and fail with insufficient_stock rather than
	// going below zero.
	AjustarStock(ctx context.Context, usuarioID, id uuid.UUID, req dto.AjustarStockRequest) (*dto.RepuestoResponse, error)

	// Alertas lists items whose stock fell below their threshold.
	Alertas(ctx context.Context, usuarioID uuid.UUID) ([]dto.AlertaStockResponse, error)

	// Movimientos pages the stock movement trail.
	Movimientos(ctx context.Context, usuarioID uuid.UUID, repuestoID *uuid.UUID, tipo string, page, limit int) (*dto.MovimientoStockListResponse, error)

	// ConsultarPrecio is the public price lookup by código, cached in Redis.
	ConsultarPrecio(ctx context.Context, usuarioID uuid.UUID, codigo string) (*dto.ConsultaPrecioResponse, error)
}

type repuestoService struct {
	repuestos   repository.RepuestoRepository
	movimientos repository.MovimientoStockRepository
	dispatcher  *worker.Dispatcher
	rdb         *redis.Client
}

func NewRepuestoService(
	repuestos repository.RepuestoRepository,
	movimientos repository.MovimientoStockRepository,
	dispatcher *worker.Dispatcher,
	rdb *redis.Client,
) RepuestoService {
	return &repuestoService{repuestos: repuestos, movimientos: movimientos, dispatcher: dispatcher, rdb: rdb}
}

func (s *repuestoService) Crear(ctx context.Context, usuarioID uuid.UUID, req dto.CrearRepuestoRequest) (*dto.RepuestoResponse, error) {
	if _, err := s.repuestos.FindByCodigo(ctx, usuarioID, req.Codigo); err == nil {
		return nil, apierror.Conflict("Ya existe un repuesto con ese codigo")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	rep := &model.Repuesto{
		UsuarioID:      usuarioID,
		Codigo:         req.Codigo,
		Nombre:         req.Nombre,
		Descripcion:    req.Descripcion,
		Stock:          req.Stock,
		StockMinimo:    req.StockMinimo,
		PrecioUnitario: req.PrecioUnitario,
	}
	if err := s.repuestos.Create(ctx, rep); err != nil {
		return nil, err
	}
	return repuestoToResponse(rep), nil
}

func (s *repuestoService) Obtener(ctx context.Context, usuarioID, id uuid.UUID) (*dto.RepuestoResponse, error) {
	rep, err := s.buscar(ctx, usuarioID, id)
	if err != nil {
		return nil, err
	}
	return repuestoToResponse(rep), nil
}

func (s *repuestoService) Listar(ctx context.Context, usuarioID uuid.UUID, filter dto.RepuestoFilter) (*dto.RepuestoListResponse, error) {
	repoFilter := repository.RepuestoFilter{
		Codigo: filter.Codigo,
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

	repuestos, total, err := s.repuestos.List(ctx, usuarioID, repoFilter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.RepuestoResponse, 0, len(repuestos))
	for i := range repuestos {
		data = append(data, *repuestoToResponse(&repuestos[i]))
	}
	return &dto.RepuestoListResponse{Data: data, Total: total, Page: repoFilter.Page, Limit: repoFilter.Limit}, nil
}

// Actualizar edita los campos descriptivos. Stock NO se toca acá — eso es de
// AjustarStock, para que toda mutación quede en el libro de movimientos.
func (s *repuestoService) Actualizar(ctx context.Context, usuarioID, id uuid.UUID, req dto.ActualizarRepuestoRequest) (*dto.RepuestoResponse, error) {
	rep, err := s.buscar(ctx, usuarioID, id)
	if err != nil {
		return nil, err
	}

	if req.Nombre != nil {
		rep.Nombre = *req.Nombre
	}
	if req.Descripcion != nil {
		rep.Descripcion = req.Descripcion
	}
	if req.StockMinimo != nil {
		rep.StockMinimo = *req.StockMinimo
	}
	if req.PrecioUnitario != nil {
		if req.PrecioUnitario.IsNegative() {
			return nil, apierror.Validation("El precio unitario no puede ser negativo")
		}
		rep.PrecioUnitario = *req.PrecioUnitario
	}

	if err := s.repuestos.Update(ctx, rep); err != nil {
		return nil, err
	}
	s.invalidarPrecio(ctx, usuarioID, rep.Codigo)
	return repuestoToResponse(rep), nil
}

func (s *repuestoService) Eliminar(ctx context.Context, usuarioID, id uuid.UUID) error {
	rep, err := s.buscar(ctx, usuarioID, id)
	if err != nil {
		return err
	}
	if err := s.repuestos.Delete(ctx, usuarioID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierror.NotFound("Repuesto no encontrado")
		}
		return err
	}
	s.invalidarPrecio(ctx, usuarioID, rep.Codigo)
	return nil
}

func (s *repuestoService) AjustarStock(ctx context.Context, usuarioID, id uuid.UUID, req dto.AjustarStockRequest) (*dto.RepuestoResponse, error) {
	if req.Delta == 0 {
		return nil, apierror.Validation("delta no puede ser cero")
	}

	rep, err := s.buscar(ctx, usuarioID, id)
	if err != nil {
		return nil, err
	}

	if req.Delta > 0 {
		if err := s.repuestos.ReponerStock(ctx, nil, usuarioID, id, req.Delta); err != nil {
			return nil, err
		}
	} else {
		ok, err := s.repuestos.TryDescontarStock(ctx, nil, usuarioID, id, -req.Delta)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apierror.StockInsuficiente(rep.ID.String(), rep.Codigo, rep.Stock, -req.Delta)
		}
	}

	mov := &model.MovimientoStock{
		UsuarioID:  usuarioID,
		RepuestoID: id,
		Tipo:       model.MovimientoAjusteManual,
		Cantidad:   req.Delta,
		Motivo:     req.Motivo,
	}
	if err := s.movimientos.Create(ctx, mov); err != nil {
		log.Error().Str("repuesto_id", id.String()).Err(err).Msg("repuesto: no se pudo registrar el ajuste manual")
	}

	rep, err = s.buscar(ctx, usuarioID, id)
	if err != nil {
		return nil, err
	}
	s.alertarSiBajoStock(ctx, rep)
	return repuestoToResponse(rep), nil
}

func (s *repuestoService) Alertas(ctx context.Context, usuarioID uuid.UUID) ([]dto.AlertaStockResponse, error) {
	repuestos, err := s.repuestos.ListBajoStock(ctx, usuarioID)
	if err != nil {
		return nil, err
	}
	alertas := make([]dto.AlertaStockResponse, 0, len(repuestos))
	for _, rep := range repuestos {
		alertas = append(alertas, dto.AlertaStockResponse{
			RepuestoID:  rep.ID.String(),
			Codigo:      rep.Codigo,
			Nombre:      rep.Nombre,
			Stock:       rep.Stock,
			StockMinimo: rep.StockMinimo,
		})
	}
	return alertas, nil
}

func (s *repuestoService) Movimientos(ctx context.Context, usuarioID uuid.UUID, repuestoID *uuid.UUID, tipo string, page, limit int) (*dto.MovimientoStockListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	movimientos, total, err := s.movimientos.List(ctx, usuarioID, repository.MovimientoStockFilter{
		RepuestoID: repuestoID,
		Tipo:       tipo,
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}
	data := make([]dto.MovimientoStockResponse, 0, len(movimientos))
	for _, m := range movimientos {
		row := dto.MovimientoStockResponse{
			ID:         m.ID.String(),
			RepuestoID: m.RepuestoID.String(),
			Tipo:       m.Tipo,
			Cantidad:   m.Cantidad,
			Motivo:     m.Motivo,
			CreatedAt:  m.CreatedAt.Format(time.RFC3339),
		}
		if m.Repuesto != nil {
			row.RepuestoNombre = m.Repuesto.Nombre
		}
		if m.ReferenciaID != nil {
			ref := m.ReferenciaID.String()
			row.ReferenciaID = &ref
		}
		data = append(data, row)
	}
	return &dto.MovimientoStockListResponse{Data: data, Total: total, Page: page, Limit: limit}, nil
}

// ConsultarPrecio serves the public price lookup. Cache-aside over Redis:
// misses read the database and populate the key with a short TTL.
func (s *repuestoService) ConsultarPrecio(ctx context.Context, usuarioID uuid.UUID, codigo string) (*dto.ConsultaPrecioResponse, error) {
	key := clavePrecio(usuarioID, codigo)
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, key).Result(); err == nil {
			var resp dto.ConsultaPrecioResponse
			if jerr := json.Unmarshal([]byte(cached), &resp); jerr == nil {
				return &resp, nil
			}
		}
	}

	rep, err := s.repuestos.FindByCodigo(ctx, usuarioID, codigo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("Repuesto no encontrado")
		}
		return nil, err
	}

	resp := &dto.ConsultaPrecioResponse{
		Nombre:          rep.Nombre,
		PrecioUnitario:  rep.PrecioUnitario,
		StockDisponible: rep.Stock,
	}
	if s.rdb != nil {
		if payload, jerr := json.Marshal(resp); jerr == nil {
			if err := s.rdb.Set(ctx, key, payload, precioCacheTTL).Err(); err != nil {
				log.Warn().Str("codigo", codigo).Err(err).Msg("repuesto: no se pudo cachear el precio")
			}
		}
	}
	return resp, nil
}

func (s *repuestoService) buscar(ctx context.Context, usuarioID, id uuid.UUID) (*model.Repuesto, error) {
	rep, err := s.repuestos.FindByID(ctx, usuarioID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("Repuesto no encontrado")
		}
		return nil, err
	}
	return rep, nil
}

func (s *repuestoService) alertarSiBajoStock(ctx context.Context, rep *model.Repuesto) {
	if s.dispatcher == nil || rep.Stock >= rep.StockMinimo {
		return
	}
	payload := worker.AlertaStockPayload{
		RepuestoID:  rep.ID.String(),
		Codigo:      rep.Codigo,
		Nombre:      rep.Nombre,
		Stock:       rep.Stock,
		StockMinimo: rep.StockMinimo,
	}
	if err := s.dispatcher.EnqueueAlertaStock(ctx, payload); err != nil {
		log.Warn().Str("codigo", rep.Codigo).Err(err).Msg("repuesto: no se pudo encolar alerta de stock")
	}
}

func (s *repuestoService) invalidarPrecio(ctx context.Context, usuarioID uuid.UUID, codigo string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, clavePrecio(usuarioID, codigo)).Err(); err != nil {
		log.Warn().Str("codigo", codigo).Err(err).Msg("repuesto: no se pudo invalidar el cache de precio")
	}
}

func clavePrecio(usuarioID uuid.UUID, codigo string) string {
	return "precio:" + usuarioID.String() + ":" + codigo
}

func repuestoToResponse(rep *model.Repuesto) *dto.RepuestoResponse {
	return &dto.RepuestoResponse{
		ID:             rep.ID.String(),
		Codigo:         rep.Codigo,
		Nombre:         rep.Nombre,
		Descripcion:    rep.Descripcion,
		Stock:          rep.Stock,
		StockMinimo:    rep.StockMinimo,
		PrecioUnitario: rep.PrecioUnitario,
	}
}
