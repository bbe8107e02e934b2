package repository

import (
	"context"

	"tallerpro/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrdenFilter defines filters for listing work orders.
type OrdenFilter struct {
	Estado    string
	ClienteID *uuid.UUID
	Page      int
	Limit     int
}

// OrdenRepository: owner-scoped, versioned updates (same scheme as
// PresupuestoRepository). Delete is tx-aware because the reservation
// coordinator uses it as a compensating delete when a direct-order
// reservation fails mid-batch.
type OrdenRepository interface {
	Create(ctx context.Context, tx *gorm.DB, o *model.OrdenTrabajo) error
	FindByID(ctx context.Context, usuarioID, id uuid.UUID) (*model.OrdenTrabajo, error)
	List(ctx context.Context, usuarioID uuid.UUID, filter OrdenFilter) ([]model.OrdenTrabajo, int64, error)
	UpdateVersioned(ctx context.Context, tx *gorm.DB, o *model.OrdenTrabajo, expectedVersion int, replaceItems bool) (bool, error)
	Delete(ctx context.Context, tx *gorm.DB, usuarioID, id uuid.UUID) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type ordenRepo struct{ db *gorm.DB }

func NewOrdenRepository(db *gorm.DB) OrdenRepository { return &ordenRepo{db: db} }

func (r *ordenRepo) Create(ctx context.Context, tx *gorm.DB, o *model.OrdenTrabajo) error {
	db := tx
	if db == nil {
		db = r.db.WithContext(ctx)
	}
	return db.Create(o).Error
}

func (r *ordenRepo) FindByID(ctx context.Context, usuarioID, id uuid.UUID) (*model.OrdenTrabajo, error) {
	var o model.OrdenTrabajo
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND usuario_id = ?", id, usuarioID).
		First(&o).Error
	return &o, err
}

func (r *ordenRepo) List(ctx context.Context, usuarioID uuid.UUID, filter OrdenFilter) ([]model.OrdenTrabajo, int64, error) {
	var ordenes []model.OrdenTrabajo
	var total int64

	q := r.db.WithContext(ctx).Model(&model.OrdenTrabajo{}).Where("usuario_id = ?", usuarioID)
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
		Find(&ordenes).Error
	return ordenes, total, err
}

func (r *ordenRepo) UpdateVersioned(ctx context.Context, tx *gorm.DB, o *model.OrdenTrabajo, expectedVersion int, replaceItems bool) (bool, error) {
	db := tx
	if db == nil {
		db = r.db.WithContext(ctx)
	}

	res := db.Model(&model.OrdenTrabajo{}).
		Where("id = ? AND usuario_id = ? AND version = ?", o.ID, o.UsuarioID, expectedVersion).
		Updates(map[string]interface{}{
			"cliente_id":  o.ClienteID,
			"vehiculo_id": o.VehiculoID,
			"estado":      o.Estado,
			"subtotal":    o.Subtotal,
			"descuento":   o.Descuento,
			"total":       o.Total,
			"notas":       o.Notas,
			"version":     gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	if replaceItems {
		if err := db.Where("orden_id = ?", o.ID).Delete(&model.OrdenItem{}).Error; err != nil {
			return false, err
		}
		for i := range o.Items {
			o.Items[i].OrdenID = o.ID
		}
		if len(o.Items) > 0 {
			if err := db.Create(&o.Items).Error; err != nil {
				return false, err
			}
		}
	}

	o.Version = expectedVersion + 1
	return true, nil
}

func (r *ordenRepo) Delete(ctx context.Context, tx *gorm.DB, usuarioID, id uuid.UUID) error {
	db := tx
	if db == nil {
		db = r.db.WithContext(ctx)
	}
	res := db.Where("id = ? AND usuario_id = ?", id, usuarioID).Delete(&model.OrdenTrabajo{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return db.Where("orden_id = ?", id).Delete(&model.OrdenItem{}).Error
}

func (r *ordenRepo) DB() *gorm.DB { return r.db }
