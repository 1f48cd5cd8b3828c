package handler

import (
	"errors"
	"net/http"
	"strconv"

	"restpos/internal/apierror"
	"restpos/internal/dto"
	"restpos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ProductosHandler struct{ svc service.ProductoService }

func NewProductosHandler(svc service.ProductoService) *ProductosHandler {
	return &ProductosHandler{svc: svc}
}

func (h *ProductosHandler) Crear(c *gin.Context) {
	var req dto.CrearProductoRequest
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

func (h *ProductosHandler) Obtener(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	resp, err := h.svc.ObtenerPorID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("Producto no encontrado"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductosHandler) Listar(c *gin.Context) {
	incluirInactivos := c.Query("incluir_inactivos") == "true"
	resp, err := h.svc.Listar(c.Request.Context(), incluirInactivos)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar productos"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductosHandler) Actualizar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.ActualizarProductoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Actualizar(c.Request.Context(), id, req)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("Producto no encontrado"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductosHandler) Desactivar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	if err := h.svc.Desactivar(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusNotFound, apierror.New("Producto no encontrado"))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ProductosHandler) Reactivar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	if err := h.svc.Reactivar(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusNotFound, apierror.New("Producto no encontrado"))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ProductosHandler) AjustarStock(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.AjustarStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AjustarStock(c.Request.Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrStockInsuficiente):
			c.JSON(http.StatusConflict, apierror.New("Stock insuficiente"))
		case errors.Is(err, service.ErrProductoInactivo):
			c.JSON(http.StatusConflict, apierror.New("Producto inactivo"))
		default:
			c.JSON(http.StatusNotFound, apierror.New("Producto no encontrado"))
		}
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductosHandler) Movimientos(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	resp, err := h.svc.Movimientos(c.Request.Context(), &id, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar movimientos"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductosHandler) ListarMovimientos(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	resp, err := h.svc.Movimientos(c.Request.Context(), nil, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar movimientos"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductosHandler) Alertas(c *gin.Context) {
	resp, err := h.svc.Alertas(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al consultar alertas"))
		return
	}
	c.JSON(http.StatusOK, resp)
}
