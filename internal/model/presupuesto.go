package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Estados de presupuesto. pendiente → {aprobado, rechazado}; ambos terminales.
const (
	EstadoPresupuestoPendiente = "pendiente"
	EstadoPresupuestoAprobado  = "aprobado"
	EstadoPresupuestoRechazado = "rechazado"
)

// Tipos de ítem en presupuestos y órdenes.
const (
	ItemManoObra = "mano_obra"
	ItemRepuesto = "repuesto"
)

// Presupuesto es una cotización para un cliente. La aprobación dispara la
// reserva de stock de sus ítems de tipo repuesto — exactamente una vez.
type Presupuesto struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UsuarioID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	ClienteID  *uuid.UUID `gorm:"type:uuid;index"`
	VehiculoID *uuid.UUID `gorm:"type:uuid;index"`
	Estado     string     `gorm:"type:varchar(20);not null;default:'pendiente'"`
	Subtotal   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Descuento  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Total      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Notas      *string
	// Version implementa concurrencia optimista: cada UPDATE compara e
	// incrementa en el mismo statement. Mismatch = conflicto.
	Version   int `gorm:"not null;default:1"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Items []PresupuestoItem `gorm:"foreignKey:PresupuestoID"`
}

// PresupuestoItem es una línea del presupuesto. Subtotal siempre se recalcula
// como Cantidad × PrecioUnitario del lado del servidor.
type PresupuestoItem struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PresupuestoID uuid.UUID `gorm:"type:uuid;not null;index"`
	Tipo          string    `gorm:"type:varchar(20);not null"` // mano_obra | repuesto
	// RepuestoID vincula la línea al inventario; nil = repuesto externo o mano de obra.
	// Descripcion y PrecioUnitario son un snapshot del repuesto al momento de uso.
	RepuestoID     *uuid.UUID      `gorm:"type:uuid;index"`
	Descripcion    string          `gorm:"not null"`
	Cantidad       int             `gorm:"not null"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}
