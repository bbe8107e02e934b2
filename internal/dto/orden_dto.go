package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// CrearOrdenRequest creates a work order. Without presupuesto_id it is a
// DIRECT order: items are required and every inventory-linked item reserves
// stock at creation, all-or-nothing. With presupuesto_id the order snapshots
// the approved budget's items — stock was already reserved at approval.
type CrearOrdenRequest struct {
	ClienteID     *string         `json:"cliente_id"     validate:"omitempty,uuid"`
	VehiculoID    *string         `json:"vehiculo_id"    validate:"omitempty,uuid"`
	PresupuestoID *string         `json:"presupuesto_id" validate:"omitempty,uuid"`
	Items         []ItemRequest   `json:"items"          validate:"omitempty,min=1,dive"`
	Descuento     decimal.Decimal `json:"descuento"      validate:"min=0"`
	Notas         *string         `json:"notas"`
}

// ActualizarOrdenRequest edits an order. Completed orders reject any update.
// For direct orders with inventory-linked items, the items list may not
// change (reordering is tolerated, content changes are not).
type ActualizarOrdenRequest struct {
	ClienteID  *string          `json:"cliente_id"  validate:"omitempty,uuid"`
	VehiculoID *string          `json:"vehiculo_id" validate:"omitempty,uuid"`
	Items      []ItemRequest    `json:"items"       validate:"omitempty,min=1,dive"`
	Descuento  *decimal.Decimal `json:"descuento"   validate:"omitempty,min=0"`
	Notas      *string          `json:"notas"`
	Version    int              `json:"version"     validate:"required,min=1"`
}

// CambiarEstadoOrdenRequest advances the order lifecycle.
type CambiarEstadoOrdenRequest struct {
	Estado  string  `json:"estado"  validate:"required,oneof=en_proceso completada cancelada"`
	Notas   *string `json:"notas"`
	Version int     `json:"version" validate:"required,min=1"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type OrdenFilter struct {
	Estado    string `form:"estado"     validate:"omitempty,oneof=pendiente en_proceso completada cancelada"`
	ClienteID string `form:"cliente_id" validate:"omitempty,uuid"`
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type OrdenResponse struct {
	ID            string          `json:"id"`
	ClienteID     *string         `json:"cliente_id"`
	VehiculoID    *string         `json:"vehiculo_id"`
	PresupuestoID *string         `json:"presupuesto_id"`
	Estado        string          `json:"estado"`
	Items         []ItemResponse  `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Descuento     decimal.Decimal `json:"descuento"`
	Total         decimal.Decimal `json:"total"`
	Notas         *string         `json:"notas"`
	Version       int             `json:"version"`
	CreatedAt     string          `json:"created_at"`
}

type OrdenListResponse struct {
	Data  []OrdenResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}
