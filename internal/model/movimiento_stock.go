package model

import (
	"time"

	"github.com/google/uuid"
)

// Tipos de movimiento de stock.
const (
	MovimientoReserva      = "reserva"
	MovimientoReposicion   = "reposicion"
	MovimientoAjusteManual = "ajuste_manual"
)

// MovimientoStock registra cada cambio de stock de un repuesto.
// Se crea al reservar (aprobación de presupuesto u orden directa), al
// compensar una reserva fallida y en ajustes manuales. Cantidad positiva =
// entrada, negativa = salida. Los registros nunca se modifican ni eliminan.
type MovimientoStock struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UsuarioID  uuid.UUID `gorm:"type:uuid;not null;index"`
	RepuestoID uuid.UUID `gorm:"type:uuid;not null;index"`
	Tipo       string    `gorm:"type:varchar(20);not null"`
	Cantidad   int       `gorm:"not null"`
	Motivo     string
	// ReferenciaID: orden o presupuesto que originó el movimiento
	ReferenciaID *uuid.UUID `gorm:"type:uuid"`
	CreatedAt    time.Time

	Repuesto *Repuesto `gorm:"foreignKey:RepuestoID"`
}

// TableName overrides GORM's default pluralization (movimiento_stocks → movimientos_stock).
func (MovimientoStock) TableName() string { return "movimientos_stock" }
