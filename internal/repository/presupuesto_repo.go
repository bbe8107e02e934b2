package repository

import (
	"context"

	"tallerpro/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PresupuestoFilter defines filters for listing budgets.
type PresupuestoFilter struct {
	Estado    string
	ClienteID *uuid.UUID
	Page      int
	Limit     int
}

// PresupuestoRepository: all reads and writes are owner-scoped. Updates are
// versioned — the expected version is part of the WHERE clause and the stored
// version increments in the same UPDATE, so a concurrent edit surfaces as
// zero rows affected instead of a silent clobber.
type PresupuestoRepository interface {
	Create(ctx context.Context, tx *gorm.DB, p *model.Presupuesto) error
	FindByID(ctx context.Context, usuarioID, id uuid.UUID) (*model.Presupuesto, error)
	List(ctx context.Context, usuarioID uuid.UUID, filter PresupuestoFilter) ([]model.Presupuesto, int64, error)
	// UpdateVersioned persists p's scalar fields iff the stored version still
	// equals expectedVersion. Returns (false, nil) on version mismatch.
	// When replaceItems is true the item rows are replaced wholesale.
	UpdateVersioned(ctx context.Context, tx *gorm.DB, p *model.Presupuesto, expectedVersion int, replaceItems bool) (bool, error)
	Delete(ctx context.Context, usuarioID, id uuid.UUID) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type presupuestoRepo struct{ db *gorm.DB }

func NewPresupuestoRepository(db *gorm.DB) PresupuestoRepository {
	return &presupuestoRepo{db: db}
}

func (r *presupuestoRepo) Create(ctx context.Context, tx *gorm.DB, p *model.Presupuesto) error {
	db := tx
	if db == nil {
		db = r.db.WithContext(ctx)
	}
	return db.Create(p).Error
}

func (r *presupuestoRepo) FindByID(ctx context.Context, usuarioID, id uuid.UUID) (*model.Presupuesto, error) {
	var p model.Presupuesto
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND usuario_id = ?", id, usuarioID).
		First(&p).Error
	return &p, err
}

func (r *presupuestoRepo) List(ctx context.Context, usuarioID uuid.UUID, filter PresupuestoFilter) ([]model.Presupuesto, int64, error) {
	var presupuestos []model.Presupuesto
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Presupuesto{}).Where("usuario_id = ?", usuarioID)
	if filter.Estado != "" {
		q = q.Where("estado = ?", filter.Estado)
	}
	if filter.ClienteID != nil {
		q = q.Where("cliente_id = ?", *filter.ClienteID)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Items").
		Order("created_at DESC").
		Limit(filter.Limit).Offset(offset).
		Find(&presupuestos).Error
	return presupuestos, total, err
}

func (r *presupuestoRepo) UpdateVersioned(ctx context.Context, tx *gorm.DB, p *model.Presupuesto, expectedVersion int, replaceItems bool) (bool, error) {
	db := tx
	if db == nil {
		db = r.db.WithContext(ctx)
	}

	res := db.Model(&model.Presupuesto{}).
		Where("id = ? AND usuario_id = ? AND version = ?", p.ID, p.UsuarioID, expectedVersion).
		Updates(map[string]interface{}{
			"cliente_id":  p.ClienteID,
			"vehiculo_id": p.VehiculoID,
			"estado":      p.Estado,
			"subtotal":    p.Subtotal,
			"descuento":   p.Descuento,
			"total":       p.Total,
			"notas":       p.Notas,
			"version":     gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	if replaceItems {
		if err := db.Where("presupuesto_id = ?", p.ID).Delete(&model.PresupuestoItem{}).Error; err != nil {
			return false, err
		}
		for i := range p.Items {
			p.Items[i].PresupuestoID = p.ID
		}
		if len(p.Items) > 0 {
			if err := db.Create(&p.Items).Error; err != nil {
				return false, err
			}
		}
	}

	p.Version = expectedVersion + 1
	return true, nil
}

func (r *presupuestoRepo) Delete(ctx context.Context, usuarioID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND usuario_id = ?", id, usuarioID).Delete(&model.Presupuesto{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("presupuesto_id = ?", id).Delete(&model.PresupuestoItem{}).Error
	})
}

func (r *presupuestoRepo) DB() *gorm.DB { return r.db }
