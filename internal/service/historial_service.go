package service

import (
	"context"
	"time"

	"tallerpro/internal/dto"
	"tallerpro/internal/model"
	"tallerpro/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// HistorialService records and serves the status audit trail.
type HistorialService interface {
	// Registrar appends one entry for an observed transition. Callers must
	// invoke it only when anterior != nuevo. Best-effort by design: a failed
	// insert is logged and never unwinds the status change that already
	// happened — the audit trail is observability, not a transactional
	// partner of the primary write.
	Registrar(ctx context.Context, usuarioID, entidadID uuid.UUID, entidadTipo, anterior, nuevo string, actorID uuid.UUID, notas *string)

	// ListarPorEntidad returns the full trail of one entity, oldest first.
	ListarPorEntidad(ctx context.Context, usuarioID uuid.UUID, entidadTipo string, entidadID uuid.UUID, page, limit int) (*dto.HistorialListResponse, error)

	// Listar returns recent activity across entities, newest first.
	Listar(ctx context.Context, usuarioID uuid.UUID, filter dto.HistorialFilter) (*dto.HistorialListResponse, error)
}

type historialService struct {
	repo repository.HistorialRepository
}

func NewHistorialService(repo repository.HistorialRepository) HistorialService {
	return &historialService{repo: repo}
}

func (s *historialService) Registrar(ctx context.Context, usuarioID, entidadID uuid.UUID, entidadTipo, anterior, nuevo string, actorID uuid.UUID, notas *string) {
	if anterior == nuevo {
		return
	}
	entrada := &model.HistorialEstado{
		UsuarioID:      usuarioID,
		EntidadID:      entidadID,
		EntidadTipo:    entidadTipo,
		EstadoAnterior: anterior,
		EstadoNuevo:    nuevo,
		ActorID:        actorID,
		Notas:          notas,
	}
	if err := s.repo.Create(ctx, entrada); err != nil {
		log.Error().
			Str("entidad_id", entidadID.String()).
			Str("entidad_tipo", entidadTipo).
			Str("transicion", anterior+" → "+nuevo).
			Err(err).
			Msg("historial: no se pudo registrar la transicion")
	}
}

func (s *historialService) ListarPorEntidad(ctx context.Context, usuarioID uuid.UUID, entidadTipo string, entidadID uuid.UUID, page, limit int) (*dto.HistorialListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	entradas, total, err := s.repo.List(ctx, usuarioID, repository.HistorialFilter{
		EntidadID:   &entidadID,
		EntidadTipo: entidadTipo,
		Page:        page,
		Limit:       limit,
	})
	if err != nil {
		return nil, err
	}
	return historialToResponse(entradas, total, page, limit), nil
}

func (s *historialService) Listar(ctx context.Context, usuarioID uuid.UUID, filter dto.HistorialFilter) (*dto.HistorialListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	entradas, total, err := s.repo.List(ctx, usuarioID, repository.HistorialFilter{
		EntidadTipo: filter.EntidadTipo,
		Page:        filter.Page,
		Limit:       filter.Limit,
	})
	if err != nil {
		return nil, err
	}
	return historialToResponse(entradas, total, filter.Page, filter.Limit), nil
}

func historialToResponse(entradas []model.HistorialEstado, total int64, page, limit int) *dto.HistorialListResponse {
	items := make([]dto.HistorialEstadoItem, 0, len(entradas))
	for _, e := range entradas {
		items = append(items, dto.HistorialEstadoItem{
			ID:             e.ID.String(),
			EntidadID:      e.EntidadID.String(),
			EntidadTipo:    e.EntidadTipo,
			EstadoAnterior: e.EstadoAnterior,
			EstadoNuevo:    e.EstadoNuevo,
			ActorID:        e.ActorID.String(),
			Notas:          e.Notas,
			CreatedAt:      e.CreatedAt.Format(time.RFC3339),
		})
	}
	return &dto.HistorialListResponse{Data: items, Total: total, Page: page, Limit: limit}
}
