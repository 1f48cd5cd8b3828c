package handler

import (
	"net/http"

	"restpos/internal/apierror"
	"restpos/internal/dto"
	"restpos/internal/service"

	"github.com/gin-gonic/gin"
)

type MesasHandler struct{ svc service.MesaService }

func NewMesasHandler(svc service.MesaService) *MesasHandler {
	return &MesasHandler{svc: svc}
}

func (h *MesasHandler) Crear(c *gin.Context) {
	var req dto.CrearMesaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Listar returns the floor map: every mesa with its open order, if any.
func (h *MesasHandler) Listar(c *gin.Context) {
	resp, err := h.svc.Listar(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar mesas"))
		return
	}
	c.JSON(http.StatusOK, resp)
}
