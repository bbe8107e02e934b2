package repository

import (
	"context"

	"tallerpro/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VehiculoFilter defines filters for listing vehicles.
type VehiculoFilter struct {
	ClienteID *uuid.UUID
	Patente   string
	Page      int
	Limit     int
}

type VehiculoRepository interface {
	Create(ctx context.Context, v *model.Vehiculo) error
	FindByID(ctx context.Context, usuarioID, id uuid.UUID) (*model.Vehiculo, error)
	List(ctx context.Context, usuarioID uuid.UUID, filter VehiculoFilter) ([]model.Vehiculo, int64, error)
	Update(ctx context.Context, v *model.Vehiculo) error
	Delete(ctx context.Context, usuarioID, id uuid.UUID) error
}

type vehiculoRepo struct{ db *gorm.DB }

func NewVehiculoRepository(db *gorm.DB) VehiculoRepository { return &vehiculoRepo{db: db} }

func (r *vehiculoRepo) Create(ctx context.Context, v *model.Vehiculo) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *vehiculoRepo) FindByID(ctx context.Context, usuarioID, id uuid.UUID) (*model.Vehiculo, error) {
	var v model.Vehiculo
	err := r.db.WithContext(ctx).
		Preload("Cliente").
		Where("id = ? AND usuario_id = ?", id, usuarioID).
		First(&v).Error
	return &v, err
}

func (r *vehiculoRepo) List(ctx context.Context, usuarioID uuid.UUID, filter VehiculoFilter) ([]model.Vehiculo, int64, error) {
	var vehiculos []model.Vehiculo
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Vehiculo{}).Where("usuario_id = ?", usuarioID)
	if filter.ClienteID != nil {
		q = q.Where("cliente_id = ?", *filter.ClienteID)
	}
	if filter.Patente != "" {
		q = q.Where("patente ILIKE ?", "%"+filter.Patente+"%")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("created_at DESC").Limit(filter.Limit).Offset(offset).Find(&vehiculos).Error
	return vehiculos, total, err
}

func (r *vehiculoRepo) Update(ctx context.Context, v *model.Vehiculo) error {
	return r.db.WithContext(ctx).Save(v).Error
}

func (r *vehiculoRepo) Delete(ctx context.Context, usuarioID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND usuario_id = ?", id, usuarioID).
		Delete(&model.Vehiculo{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
