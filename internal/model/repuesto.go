package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Repuesto es un ítem del inventario del taller. Stock NUNCA se modifica
// directamente: toda mutación pasa por RepuestoRepository.TryDescontarStock /
// ReponerStock, que operan con un UPDATE condicional atómico. El invariante
// stock >= 0 depende de ese único camino de escritura.
type Repuesto struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UsuarioID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_repuestos_usuario_codigo"`
	// Codigo es el SKU del repuesto, único por usuario
	Codigo         string `gorm:"not null;uniqueIndex:idx_repuestos_usuario_codigo"`
	Nombre         string `gorm:"index;not null"`
	Descripcion    *string
	Stock          int `gorm:"not null;default:0"`
	// StockMinimo es el umbral de reposición — informativo, dispara alertas
	StockMinimo    int             `gorm:"not null;default:1"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
