package dto

// HistorialEstadoItem is one audit-trail row for an orden or presupuesto.
type HistorialEstadoItem struct {
	ID             string  `json:"id"`
	EntidadID      string  `json:"entidad_id"`
	EntidadTipo    string  `json:"entidad_tipo"`
	EstadoAnterior string  `json:"estado_anterior"`
	EstadoNuevo    string  `json:"estado_nuevo"`
	ActorID        string  `json:"actor_id"`
	Notas          *string `json:"notas,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

// HistorialListResponse is returned by the status-history endpoints.
type HistorialListResponse struct {
	Data  []HistorialEstadoItem `json:"data"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}

// HistorialFilter pages the recent-activity feed.
type HistorialFilter struct {
	EntidadTipo string `form:"entidad_tipo" validate:"omitempty,oneof=presupuesto orden"`
	Page        int    `form:"page,default=1"   validate:"min=1"`
	Limit       int    `form:"limit,default=20" validate:"min=1,max=100"`
}
