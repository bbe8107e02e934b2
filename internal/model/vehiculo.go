package model

import (
	"time"

	"github.com/google/uuid"
)

// Vehiculo pertenece a un Cliente y hereda el scope del usuario dueño.
type Vehiculo struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UsuarioID   uuid.UUID `gorm:"type:uuid;not null;index"`
	ClienteID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Marca       string    `gorm:"not null"`
	Modelo      string    `gorm:"not null"`
	Anio        int       `gorm:"not null"`
	Patente     string    `gorm:"index;not null"`
	Kilometraje *int
	Color       *string
	Notas       *string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Cliente *Cliente `gorm:"foreignKey:ClienteID"`
}
