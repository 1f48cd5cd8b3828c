package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReporteVentasResponse is the daily sales summary for admins/supervisors.
type ReporteVentasResponse struct {
	Fecha          string                     `json:"fecha"` // YYYY-MM-DD
	OrdenesTotal   int                        `json:"ordenes_total"`
	OrdenesAnulada int                        `json:"ordenes_anuladas"`
	TotalVendido   decimal.Decimal            `json:"total_vendido"`
	PorMetodoPago  map[string]decimal.Decimal `json:"por_metodo_pago"`
	PorMesero      []VentasPorMesero          `json:"por_mesero"`
	GeneradoAt     time.Time                  `json:"generado_at"`
}

type VentasPorMesero struct {
	MeseroID string          `json:"mesero_id"`
	Nombre   string          `json:"nombre"`
	Ordenes  int             `json:"ordenes"`
	Total    decimal.Decimal `json:"total"`
}

type EnviarReporteRequest struct {
	Fecha string `json:"fecha" validate:"required,datetime=2006-01-02"`
	// Email overrides the configured admin address when set
	Email string `json:"email" validate:"omitempty,email"`
}
