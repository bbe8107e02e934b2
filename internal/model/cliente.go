package model

import (
	"time"

	"github.com/google/uuid"
)

// Cliente es un cliente del taller. Cada cliente pertenece al usuario que lo
// creó — todas las consultas filtran por UsuarioID.
type Cliente struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UsuarioID uuid.UUID `gorm:"type:uuid;not null;index"`
	Nombre    string    `gorm:"not null;index"`
	Telefono  *string
	Email     *string
	Direccion *string
	// Documento: CUIT o DNI del cliente
	Documento *string
	CreatedAt time.Time
	UpdatedAt time.Time
}
