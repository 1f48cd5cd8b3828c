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

type DispositivosHandler struct{ svc service.DispositivoService }

func NewDispositivosHandler(svc service.DispositivoService) *DispositivosHandler {
	return &DispositivosHandler{svc: svc}
}

// Registrar is public: a fresh tablet registers itself and waits for an
// admin to approve it.
func (h *DispositivosHandler) Registrar(c *gin.Context) {
	var req dto.RegistrarDispositivoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Registrar(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al registrar dispositivo"))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Estado is the login screen's pre-flight check, also public.
func (h *DispositivosHandler) Estado(c *gin.Context) {
	deviceID := c.GetHeader("X-Device-ID")
	if deviceID == "" {
		deviceID = c.Query("device_id")
	}
	if deviceID == "" {
		c.JSON(http.StatusBadRequest, apierror.New("Falta device_id"))
		return
	}
	resp, err := h.svc.CheckDevice(c.Request.Context(), deviceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al consultar dispositivo"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DispositivosHandler) Listar(c *gin.Context) {
	resp, err := h.svc.Listar(c.Request.Context(), c.Query("estado"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar dispositivos"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DispositivosHandler) Aprobar(c *gin.Context) {
	var aprobadoPor *uuid.UUID
	if claims := middleware.GetClaims(c); claims != nil {
		if uid, err := uuid.Parse(claims.UserID); err == nil {
			aprobadoPor = &uid
		}
	}
	if err := h.svc.Aprobar(c.Request.Context(), c.Param("id"), aprobadoPor); err != nil {
		h.estadoError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DispositivosHandler) Rechazar(c *gin.Context) {
	if err := h.svc.Rechazar(c.Request.Context(), c.Param("id")); err != nil {
		h.estadoError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DispositivosHandler) estadoError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrDispositivoNoRegistrado) {
		c.JSON(http.StatusNotFound, apierror.New("Dispositivo no registrado"))
		return
	}
	c.JSON(http.StatusInternalServerError, apierror.New("Error al actualizar dispositivo"))
}
