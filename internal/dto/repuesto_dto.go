package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearRepuestoRequest struct {
	Codigo         string          `json:"codigo"          validate:"required,min=2,max=40"`
	Nombre         string          `json:"nombre"          validate:"required,min=2,max=120"`
	Descripcion    *string         `json:"descripcion"`
	Stock          int             `json:"stock"           validate:"min=0"`
	StockMinimo    int             `json:"stock_minimo"    validate:"min=0"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario" validate:"required"`
}

type ActualizarRepuestoRequest struct {
	Nombre         *string          `json:"nombre"          validate:"omitempty,min=2,max=120"`
	Descripcion    *string          `json:"descripcion"`
	StockMinimo    *int             `json:"stock_minimo"    validate:"omitempty,min=0"`
	PrecioUnitario *decimal.Decimal `json:"precio_unitario"`
}

// AjustarStockRequest adjusts stock by a signed delta through the same atomic
// primitive the reservation path uses. Negative deltas fail when the stock
// would go below zero.
type AjustarStockRequest struct {
	Delta  int    `json:"delta"  validate:"required"`
	Motivo string `json:"motivo" validate:"required,min=3,max=250"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type RepuestoFilter struct {
	Codigo string `form:"codigo"`
	Nombre string `form:"nombre"`
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type RepuestoResponse struct {
	ID             string          `json:"id"`
	Codigo         string          `json:"codigo"`
	Nombre         string          `json:"nombre"`
	Descripcion    *string         `json:"descripcion"`
	Stock          int             `json:"stock"`
	StockMinimo    int             `json:"stock_minimo"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
}

type RepuestoListResponse struct {
	Data  []RepuestoResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

// AlertaStockResponse is one low-stock alert row (stock < stock_minimo).
type AlertaStockResponse struct {
	RepuestoID  string `json:"repuesto_id"`
	Codigo      string `json:"codigo"`
	Nombre      string `json:"nombre"`
	Stock       int    `json:"stock"`
	StockMinimo int    `json:"stock_minimo"`
}

// ConsultaPrecioResponse is returned by the public price check endpoint (no auth required).
type ConsultaPrecioResponse struct {
	Nombre          string          `json:"nombre"`
	PrecioUnitario  decimal.Decimal `json:"precio_unitario"`
	StockDisponible int             `json:"stock_disponible"`
}

// MovimientoStockResponse is one row of the stock movement trail.
type MovimientoStockResponse struct {
	ID             string  `json:"id"`
	RepuestoID     string  `json:"repuesto_id"`
	RepuestoNombre string  `json:"repuesto_nombre,omitempty"`
	Tipo           string  `json:"tipo"`
	Cantidad       int     `json:"cantidad"`
	Motivo         string  `json:"motivo"`
	ReferenciaID   *string `json:"referencia_id,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

type MovimientoStockListResponse struct {
	Data  []MovimientoStockResponse `json:"data"`
	Total int64                     `json:"total"`
	Page  int                       `json:"page"`
	Limit int                       `json:"limit"`
}
