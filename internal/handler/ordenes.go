package handler

import (
	"errors"
	"net/http"

	"restpos/internal/apierror"
	"restpos/internal/dto"
	"restpos/internal/middleware"
	"restpos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type OrdenesHandler struct{ svc service.OrdenService }

func NewOrdenesHandler(svc service.OrdenService) *OrdenesHandler {
	return &OrdenesHandler{svc: svc}
}

func (h *OrdenesHandler) Abrir(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, apierror.New("No autenticado"))
		return
	}
	meseroID, err := uuid.Parse(claims.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, apierror.New("Token invalido"))
		return
	}
	var req dto.AbrirOrdenRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Abrir(c.Request.Context(), meseroID, req)
	if err != nil {
		if errors.Is(err, service.ErrMesaOcupada) {
			c.JSON(http.StatusConflict, apierror.New("La mesa ya tiene una orden abierta"))
			return
		}
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *OrdenesHandler) AgregarItems(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.AgregarItemsRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AgregarItems(c.Request.Context(), id, req)
	if err != nil {
		h.ordenError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrdenesHandler) EnviarComanda(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	resp, err := h.svc.EnviarComanda(c.Request.Context(), id)
	if err != nil {
		h.ordenError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrdenesHandler) Cerrar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.CerrarOrdenRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Cerrar(c.Request.Context(), id, req)
	if err != nil {
		h.ordenError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrdenesHandler) Anular(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.AnularOrdenRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.Anular(c.Request.Context(), id, req); err != nil {
		h.ordenError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *OrdenesHandler) Obtener(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	resp, err := h.svc.ObtenerPorID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("Orden no encontrada"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrdenesHandler) ListarAbiertas(c *gin.Context) {
	resp, err := h.svc.ListarAbiertas(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar ordenes"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrdenesHandler) ordenError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrOrdenNoAbierta):
		c.JSON(http.StatusConflict, apierror.New("La orden no esta abierta"))
	case errors.Is(err, service.ErrOrdenSinItems):
		c.JSON(http.StatusConflict, apierror.New("La orden no tiene items"))
	case errors.Is(err, service.ErrProductoInactivo):
		c.JSON(http.StatusConflict, apierror.New("Producto inactivo"))
	case errors.Is(err, service.ErrStockInsuficiente):
		c.JSON(http.StatusConflict, apierror.New("Stock insuficiente"))
	default:
		c.JSON(http.StatusNotFound, apierror.New("Orden no encontrada"))
	}
}
