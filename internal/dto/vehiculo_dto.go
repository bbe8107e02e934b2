package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearVehiculoRequest struct {
	ClienteID   string  `json:"cliente_id"  validate:"required,uuid"`
	Marca       string  `json:"marca"       validate:"required,min=1,max=60"`
	Modelo      string  `json:"modelo"      validate:"required,min=1,max=60"`
	Anio        int     `json:"anio"        validate:"required,min=1900,max=2100"`
	Patente     string  `json:"patente"     validate:"required,min=3,max=12"`
	Kilometraje *int    `json:"kilometraje" validate:"omitempty,min=0"`
	Color       *string `json:"color"`
	Notas       *string `json:"notas"`
}

type ActualizarVehiculoRequest struct {
	Marca       *string `json:"marca"       validate:"omitempty,min=1,max=60"`
	Modelo      *string `json:"modelo"      validate:"omitempty,min=1,max=60"`
	Anio        *int    `json:"anio"        validate:"omitempty,min=1900,max=2100"`
	Patente     *string `json:"patente"     validate:"omitempty,min=3,max=12"`
	Kilometraje *int    `json:"kilometraje" validate:"omitempty,min=0"`
	Color       *string `json:"color"`
	Notas       *string `json:"notas"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type VehiculoFilter struct {
	ClienteID string `form:"cliente_id" validate:"omitempty,uuid"`
	Patente   string `form:"patente"`
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type VehiculoResponse struct {
	ID            string  `json:"id"`
	ClienteID     string  `json:"cliente_id"`
	ClienteNombre string  `json:"cliente_nombre,omitempty"`
	Marca         string  `json:"marca"`
	Modelo        string  `json:"modelo"`
	Anio          int     `json:"anio"`
	Patente       string  `json:"patente"`
	Kilometraje   *int    `json:"kilometraje"`
	Color         *string `json:"color"`
	Notas         *string `json:"notas"`
	CreatedAt     string  `json:"created_at"`
}

type VehiculoListResponse struct {
	Data  []VehiculoResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}
