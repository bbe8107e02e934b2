package repository

import (
	"context"

	"tallerpro/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RepuestoFilter defines filters for listing inventory items.
type RepuestoFilter struct {
	Codigo string
	Nombre string
	Page   int
	Limit  int
}

// RepuestoRepository is the data access contract for inventory items.
// TryDescontarStock / ReponerStock are the ONLY write paths for the stock
// column — services must never read-then-write it.
type RepuestoRepository interface {
	Create(ctx context.Context, r *model.Repuesto) error
	FindByID(ctx context.Context, usuarioID, id uuid.UUID) (*model.Repuesto, error)
	FindByCodigo(ctx context.Context, usuarioID uuid.UUID, codigo string) (*model.Repuesto, error)
	List(ctx context.Context, usuarioID uuid.UUID, filter RepuestoFilter) ([]model.Repuesto, int64, error)
	ListBajoStock(ctx context.Context, usuarioID uuid.UUID) ([]model.Repuesto, error)
	Update(ctx context.Context, r *model.Repuesto) error
	Delete(ctx context.Context, usuarioID, id uuid.UUID) error

	// TryDescontarStock atomically decrements stock by cantidad iff the item
	// exists for this owner AND stock >= cantidad. The precondition and the
	// decrement are one UPDATE statement, so concurrent callers racing for
	// the last units are linearized by the database. Returns (false, nil)
	// when no row matched — insufficient stock or not found/not owned.
	TryDescontarStock(ctx context.Context, tx *gorm.DB, usuarioID, id uuid.UUID, cantidad int) (bool, error)

	// ReponerStock increments stock unconditionally. Used for manual restock
	// and for compensating a previously successful decrement during rollback.
	ReponerStock(ctx context.Context, tx *gorm.DB, usuarioID, id uuid.UUID, cantidad int) error

	// FindByIDTx reads within a live transaction so callers observe their own
	// uncommitted decrements (error details, low-stock checks).
	FindByIDTx(tx *gorm.DB, usuarioID, id uuid.UUID) (*model.Repuesto, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type repuestoRepo struct{ db *gorm.DB }

func NewRepuestoRepository(db *gorm.DB) RepuestoRepository { return &repuestoRepo{db: db} }

func (r *repuestoRepo) Create(ctx context.Context, rep *model.Repuesto) error {
	return r.db.WithContext(ctx).Create(rep).Error
}

func (r *repuestoRepo) FindByID(ctx context.Context, usuarioID, id uuid.UUID) (*model.Repuesto, error) {
	var rep model.Repuesto
	err := r.db.WithContext(ctx).
		Where("id = ? AND usuario_id = ?", id, usuarioID).
		First(&rep).Error
	return &rep, err
}

func (r *repuestoRepo) FindByCodigo(ctx context.Context, usuarioID uuid.UUID, codigo string) (*model.Repuesto, error) {
	var rep model.Repuesto
	err := r.db.WithContext(ctx).
		Where("usuario_id = ? AND codigo = ?", usuarioID, codigo).
		First(&rep).Error
	return &rep, err
}

func (r *repuestoRepo) List(ctx context.Context, usuarioID uuid.UUID, filter RepuestoFilter) ([]model.Repuesto, int64, error) {
	var repuestos []model.Repuesto
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Repuesto{}).Where("usuario_id = ?", usuarioID)

	if filter.Codigo != "" {
		q = q.Where("codigo = ?", filter.Codigo)
	}
	if filter.Nombre != "" {
		q = q.Where("nombre ILIKE ?", "%"+filter.Nombre+"%")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("nombre ASC").Limit(filter.Limit).Offset(offset).Find(&repuestos).Error
	return repuestos, total, err
}

func (r *repuestoRepo) ListBajoStock(ctx context.Context, usuarioID uuid.UUID) ([]model.Repuesto, error) {
	var repuestos []model.Repuesto
	err := r.db.WithContext(ctx).
		Where("usuario_id = ? AND stock < stock_minimo", usuarioID).
		Order("stock ASC").
		Find(&repuestos).Error
	return repuestos, err
}

func (r *repuestoRepo) Update(ctx context.Context, rep *model.Repuesto) error {
	return r.db.WithContext(ctx).Save(rep).Error
}

func (r *repuestoRepo) Delete(ctx context.Context, usuarioID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND usuario_id = ?", id, usuarioID).
		Delete(&model.Repuesto{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repuestoRepo) TryDescontarStock(ctx context.Context, tx *gorm.DB, usuarioID, id uuid.UUID, cantidad int) (bool, error) {
	db := tx
	if db == nil {
		db = r.db.WithContext(ctx)
	}
	// Compound check-and-set: the stock >= cantidad precondition is evaluated
	// inside the same UPDATE, never as a separate read.
	res := db.Model(&model.Repuesto{}).
		Where("id = ? AND usuario_id = ? AND stock >= ?", id, usuarioID, cantidad).
		Update("stock", gorm.Expr("stock - ?", cantidad))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repuestoRepo) ReponerStock(ctx context.Context, tx *gorm.DB, usuarioID, id uuid.UUID, cantidad int) error {
	db := tx
	if db == nil {
		db = r.db.WithContext(ctx)
	}
	return db.Model(&model.Repuesto{}).
		Where("id = ? AND usuario_id = ?", id, usuarioID).
		Update("stock", gorm.Expr("stock + ?", cantidad)).Error
}

func (r *repuestoRepo) FindByIDTx(tx *gorm.DB, usuarioID, id uuid.UUID) (*model.Repuesto, error) {
	db := tx
	if db == nil {
		db = r.db
	}
	var rep model.Repuesto
	err := db.Where("id = ? AND usuario_id = ?", id, usuarioID).First(&rep).Error
	return &rep, err
}

func (r *repuestoRepo) DB() *gorm.DB { return r.db }
