package repository

import (
	"context"

	"tallerpro/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HistorialFilter defines filters for the status history query side.
// When EntidadID is set the result is a full audit trail (ascending);
// otherwise it is a recent-activity feed (descending).
type HistorialFilter struct {
	EntidadID   *uuid.UUID
	EntidadTipo string
	Page        int
	Limit       int
}

// HistorialRepository is append-only: entries are never updated or deleted.
type HistorialRepository interface {
	Create(ctx context.Context, h *model.HistorialEstado) error
	List(ctx context.Context, usuarioID uuid.UUID, filter HistorialFilter) ([]model.HistorialEstado, int64, error)
}

type historialRepo struct{ db *gorm.DB }

func NewHistorialRepository(db *gorm.DB) HistorialRepository { return &historialRepo{db: db} }

func (r *historialRepo) Create(ctx context.Context, h *model.HistorialEstado) error {
	return r.db.WithContext(ctx).Create(h).Error
}

func (r *historialRepo) List(ctx context.Context, usuarioID uuid.UUID, filter HistorialFilter) ([]model.HistorialEstado, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.HistorialEstado{}).
		Where("usuario_id = ?", usuarioID)
	if filter.EntidadID != nil {
		q = q.Where("entidad_id = ?", *filter.EntidadID)
	}
	if filter.EntidadTipo != "" {
		q = q.Where("entidad_tipo = ?", filter.EntidadTipo)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	limit := filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 100
	}
	offset := (page - 1) * limit

	order := "created_at DESC"
	if filter.EntidadID != nil {
		order = "created_at ASC"
	}

	var entradas []model.HistorialEstado
	err := q.Order(order).Offset(offset).Limit(limit).Find(&entradas).Error
	return entradas, total, err
}
