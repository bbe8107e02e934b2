package handler

import (
	"net/http"
	"strconv"

	"tallerpro/internal/apierror"
	"tallerpro/internal/dto"
	"tallerpro/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RepuestosHandler struct{ svc service.RepuestoService }

func NewRepuestosHandler(svc service.RepuestoService) *RepuestosHandler {
	return &RepuestosHandler{svc: svc}
}

func (h *RepuestosHandler) Crear(c *gin.Context) {
	uid, ok := usuarioID(c)
	if !ok {
		return
	}
	var req dto.CrearRepuestoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), uid, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *RepuestosHandler) Listar(c *gin.Context) {
	uid, ok := usuarioID(c)
	if !ok {
		return
	}
	var filter dto.RepuestoFilter
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

func (h *RepuestosHandler) Obtener(c *gin.Context) {
	uid, ok := usuarioID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	resp, err := h.svc.Obtener(c.Request.Context(), uid, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RepuestosHandler) Actualizar(c *gin.Context) {
	uid, ok := usuarioID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.ActualizarRepuestoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Actualizar(c.Request.Context(), uid, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RepuestosHandler) Eliminar(c *gin.Context) {
	uid, ok := usuarioID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.Eliminar(c.Request.Context(), uid, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RepuestosHandler) AjustarStock(c *gin.Context) {
	uid, ok := usuarioID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.AjustarStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AjustarStock(c.Request.Context(), uid, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RepuestosHandler) Alertas(c *gin.Context) {
	uid, ok := usuarioID(c)
	if !ok {
		return
	}
	resp, err := h.svc.Alertas(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RepuestosHandler) Movimientos(c *gin.Context) {
	uid, ok := usuarioID(c)
	if !ok {
		return
	}

	var repuestoID *uuid.UUID
	if raw := c.Query("repuesto_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.Validation("repuesto_id invalido"))
			return
		}
		repuestoID = &parsed
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	resp, err := h.svc.Movimientos(c.Request.Context(), uid, repuestoID, c.Query("tipo"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
