package handler

import (
	"net/http"
	"strconv"

	"tallerpro/internal/apierror"
	"tallerpro/internal/dto"
	"tallerpro/internal/model"
	"tallerpro/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type HistorialHandler struct{ svc service.HistorialService }

func NewHistorialHandler(svc service.HistorialService) *HistorialHandler {
	return &HistorialHandler{svc: svc}
}

// PorEntidad returns the full status trail of one presupuesto or orden,
// oldest first.
func (h *HistorialHandler) PorEntidad(c *gin.Context) {
	uid, ok := usuarioID(c)
	if !ok {
		return
	}

	tipo := c.Param("tipo")
	if tipo != model.EntidadPresupuesto && tipo != model.EntidadOrden {
		c.JSON(http.StatusBadRequest, apierror.Validation("tipo debe ser presupuesto u orden"))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.Validation("ID invalido"))
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	resp, err := h.svc.ListarPorEntidad(c.Request.Context(), uid, tipo, id, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Listar returns recent status activity across entities, newest first.
func (h *HistorialHandler) Listar(c *gin.Context) {
	uid, ok := usuarioID(c)
	if !ok {
		return
	}
	var filter dto.HistorialFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.Listar(c.Request.Context(), uid, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
