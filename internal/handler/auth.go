package handler

import (
	"errors"
	"net/http"

	"restpos/internal/apierror"
	"restpos/internal/dto"
	"restpos/internal/middleware"
	"restpos/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct{ svc service.AuthService }

func NewAuthHandler(svc service.AuthService) *AuthHandler { return &AuthHandler{svc: svc} }

// Login godoc
// @Summary Login por PIN desde un dispositivo aprobado
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.LoginRequest true "Dispositivo y PIN"
// @Success 200 {object} dto.LoginResponse
// @Failure 401 {object} apierror.APIError
// @Failure 403 {object} apierror.APIError
// @Failure 429 {object} apierror.APIError
// @Router /v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), c.ClientIP(), req)
	if err != nil {
		status := loginStatus(err)
		c.JSON(status, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// loginStatus maps the login error taxonomy to HTTP statuses. The error
// messages themselves are already user-safe (see internal/service/errors.go).
func loginStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrDispositivoNoRegistrado),
		errors.Is(err, service.ErrDispositivoNoAprobado):
		return http.StatusForbidden
	case errors.Is(err, service.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, service.ErrCredencialesInvalidas):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrLoginEnCurso):
		return http.StatusConflict
	case errors.Is(err, service.ErrEmisionToken):
		return http.StatusBadGateway
	case errors.Is(err, service.ErrUpstreamNoDisponible):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Logout clears the session for the device the token was issued to.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil || claims.DeviceID == "" {
		c.JSON(http.StatusBadRequest, apierror.New("Token sin device_id"))
		return
	}
	if err := h.svc.Logout(c.Request.Context(), claims.DeviceID); err != nil {
		c.JSON(http.StatusServiceUnavailable, apierror.New("No se pudo cerrar la sesion"))
		return
	}
	c.Status(http.StatusNoContent)
}

// Sesion returns the current session for a device, or 404 when none exists
// (expired sessions are evicted on read).
func (h *AuthHandler) Sesion(c *gin.Context) {
	deviceID := c.GetHeader("X-Device-ID")
	if deviceID == "" {
		c.JSON(http.StatusBadRequest, apierror.New("Falta el header X-Device-ID"))
		return
	}
	sess, err := h.svc.SesionActual(c.Request.Context(), deviceID)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, apierror.New(err.Error()))
		return
	}
	if sess == nil {
		c.JSON(http.StatusNotFound, apierror.New("Sin sesion activa"))
		return
	}
	c.JSON(http.StatusOK, sess)
}
