package model

import (
	"time"

	"github.com/google/uuid"
)

// Tipos de entidad auditada por el historial de estados.
const (
	EntidadPresupuesto = "presupuesto"
	EntidadOrden       = "orden"
)

// HistorialEstado registra cada transición de estado observada en una orden o
// presupuesto. Los registros son inmutables — nunca se modifican ni eliminan.
// Se crea exactamente un registro por transición real (estado_anterior ≠
// estado_nuevo); la escritura es best-effort: un fallo se loguea pero no
// revierte el cambio de estado ya persistido.
type HistorialEstado struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UsuarioID      uuid.UUID `gorm:"type:uuid;not null;index"`
	EntidadID      uuid.UUID `gorm:"type:uuid;not null;index"`
	EntidadTipo    string    `gorm:"type:varchar(20);not null"` // presupuesto | orden
	EstadoAnterior string    `gorm:"type:varchar(20);not null"`
	EstadoNuevo    string    `gorm:"type:varchar(20);not null"`
	// ActorID: usuario que ejecutó la transición
	ActorID   uuid.UUID `gorm:"type:uuid;not null"`
	Notas     *string
	CreatedAt time.Time
}

// TableName overrides GORM's default pluralization.
func (HistorialEstado) TableName() string { return "historial_estados" }
