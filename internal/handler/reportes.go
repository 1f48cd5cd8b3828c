package handler

import (
	"net/http"
	"time"

	"restpos/internal/apierror"
	"restpos/internal/dto"
	"restpos/internal/service"

	"github.com/gin-gonic/gin"
)

type ReportesHandler struct{ svc service.ReporteService }

func NewReportesHandler(svc service.ReporteService) *ReportesHandler {
	return &ReportesHandler{svc: svc}
}

// VentasDiarias accepts ?fecha=YYYY-MM-DD, defaulting to today.
func (h *ReportesHandler) VentasDiarias(c *gin.Context) {
	fecha := time.Now()
	if raw := c.Query("fecha"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("Fecha invalida, formato esperado YYYY-MM-DD"))
			return
		}
		fecha = parsed
	}
	resp, err := h.svc.VentasDiarias(c.Request.Context(), fecha)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al generar reporte"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReportesHandler) EnviarPorEmail(c *gin.Context) {
	var req dto.EnviarReporteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.EnviarPorEmail(c.Request.Context(), req); err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al enviar reporte"))
		return
	}
	c.Status(http.StatusAccepted)
}
