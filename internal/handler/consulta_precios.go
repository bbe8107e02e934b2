package handler

import (
	"net/http"

	"tallerpro/internal/apierror"
	"tallerpro/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ConsultaPreciosHandler serves the public price check endpoint.
// No authentication required — no side effects whatsoever. The workshop is
// addressed by its owner user id in the path.
type ConsultaPreciosHandler struct {
	svc service.RepuestoService
}

func NewConsultaPreciosHandler(svc service.RepuestoService) *ConsultaPreciosHandler {
	return &ConsultaPreciosHandler{svc: svc}
}

// GetPrecioPorCodigo godoc
// @Summary Consulta de precio por codigo de repuesto (sin autenticacion)
// @Tags precio
// @Produce json
// @Param taller path string true "ID del taller (usuario)"
// @Param codigo path string true "Codigo del repuesto"
// @Success 200 {object} dto.ConsultaPrecioResponse
// @Failure 404 {object} apierror.Error
// @Router /v1/publico/{taller}/precios/{codigo} [get]
func (h *ConsultaPreciosHandler) GetPrecioPorCodigo(c *gin.Context) {
	tallerID, err := uuid.Parse(c.Param("taller"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.Validation("ID de taller invalido"))
		return
	}
	codigo := c.Param("codigo")
	if codigo == "" {
		c.JSON(http.StatusBadRequest, apierror.Validation("codigo requerido"))
		return
	}

	resp, err := h.svc.ConsultarPrecio(c.Request.Context(), tallerID, codigo)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
