package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Estados de orden de trabajo.
// pendiente → {en_proceso, cancelada}; en_proceso → {completada, cancelada}.
// completada es terminal y BLOQUEA la orden: ningún campo puede mutarse.
const (
	EstadoOrdenPendiente  = "pendiente"
	EstadoOrdenEnProceso  = "en_proceso"
	EstadoOrdenCompletada = "completada"
	EstadoOrdenCancelada  = "cancelada"
)

// OrdenTrabajo es una orden de servicio. Si PresupuestoID es nil la orden es
// directa: su creación reserva stock, y luego de creada su composición de
// repuestos vinculados al inventario es inmutable (cambiarla requeriría una
// reconciliación de inventario que este diseño no intenta — se crea una
// orden nueva).
type OrdenTrabajo struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UsuarioID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	ClienteID     *uuid.UUID `gorm:"type:uuid;index"`
	VehiculoID    *uuid.UUID `gorm:"type:uuid;index"`
	PresupuestoID *uuid.UUID `gorm:"type:uuid;index"`
	Estado        string     `gorm:"type:varchar(20);not null;default:'pendiente'"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Descuento     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Total         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Notas         *string
	Version       int `gorm:"not null;default:1"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Items []OrdenItem `gorm:"foreignKey:OrdenID"`
}

// TableName overrides GORM's default pluralization (orden_trabajos → ordenes_trabajo).
func (OrdenTrabajo) TableName() string { return "ordenes_trabajo" }

// OrdenItem es una línea de la orden, mismo shape que PresupuestoItem.
type OrdenItem struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrdenID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	Tipo           string          `gorm:"type:varchar(20);not null"` // mano_obra | repuesto
	RepuestoID     *uuid.UUID      `gorm:"type:uuid;index"`
	Descripcion    string          `gorm:"not null"`
	Cantidad       int             `gorm:"not null"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

// TableName keeps order items under a stable table name.
func (OrdenItem) TableName() string { return "orden_items" }
