package dto

import "github.com/shopspring/decimal"

// ─── Shared line-item DTOs (presupuestos y órdenes) ──────────────────────────

// ItemRequest is one requested line. When RepuestoID is set, descripcion and
// precio_unitario are snapshotted from the inventory item server-side; the
// caller-provided values are ignored. Subtotals are always recomputed.
type ItemRequest struct {
	Tipo           string          `json:"tipo"            validate:"required,oneof=mano_obra repuesto"`
	RepuestoID     *string         `json:"repuesto_id"     validate:"omitempty,uuid"`
	Descripcion    string          `json:"descripcion"     validate:"omitempty,max=250"`
	Cantidad       int             `json:"cantidad"        validate:"required,gt=0"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario" validate:"min=0"`
}

type ItemResponse struct {
	ID             string          `json:"id"`
	Tipo           string          `json:"tipo"`
	RepuestoID     *string         `json:"repuesto_id,omitempty"`
	Descripcion    string          `json:"descripcion"`
	Cantidad       int             `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearPresupuestoRequest struct {
	ClienteID  *string         `json:"cliente_id"  validate:"omitempty,uuid"`
	VehiculoID *string         `json:"vehiculo_id" validate:"omitempty,uuid"`
	Items      []ItemRequest   `json:"items"       validate:"required,min=1,dive"`
	Descuento  decimal.Decimal `json:"descuento"   validate:"min=0"`
	Notas      *string         `json:"notas"`
}

// ActualizarPresupuestoRequest edits a pending budget. Version implements
// optimistic concurrency: it must match the stored version or the update is
// rejected with a conflict.
type ActualizarPresupuestoRequest struct {
	ClienteID  *string          `json:"cliente_id"  validate:"omitempty,uuid"`
	VehiculoID *string          `json:"vehiculo_id" validate:"omitempty,uuid"`
	Items      []ItemRequest    `json:"items"       validate:"omitempty,min=1,dive"`
	Descuento  *decimal.Decimal `json:"descuento"   validate:"omitempty,min=0"`
	Notas      *string          `json:"notas"`
	Version    int              `json:"version"     validate:"required,min=1"`
}

// CambiarEstadoPresupuestoRequest approves or rejects a pending budget.
type CambiarEstadoPresupuestoRequest struct {
	Estado  string  `json:"estado"  validate:"required,oneof=aprobado rechazado"`
	Notas   *string `json:"notas"`
	Version int     `json:"version" validate:"required,min=1"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type PresupuestoFilter struct {
	Estado    string `form:"estado"     validate:"omitempty,oneof=pendiente aprobado rechazado"`
	ClienteID string `form:"cliente_id" validate:"omitempty,uuid"`
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type PresupuestoResponse struct {
	ID         string          `json:"id"`
	ClienteID  *string         `json:"cliente_id"`
	VehiculoID *string         `json:"vehiculo_id"`
	Estado     string          `json:"estado"`
	Items      []ItemResponse  `json:"items"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Descuento  decimal.Decimal `json:"descuento"`
	Total      decimal.Decimal `json:"total"`
	Notas      *string         `json:"notas"`
	Version    int             `json:"version"`
	CreatedAt  string          `json:"created_at"`
}

type PresupuestoListResponse struct {
	Data  []PresupuestoResponse `json:"data"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}
