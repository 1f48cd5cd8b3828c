package service

import (
	"context"
	"fmt"
	"time"

	"restpos/internal/config"
	"restpos/internal/dto"
	"restpos/internal/infra"
	"restpos/internal/model"
	"restpos/internal/repository"
	"restpos/internal/worker"

	"github.com/shopspring/decimal"
)

type ReporteService interface {
	// VentasDiarias aggregates closed orders for one calendar day (server TZ).
	VentasDiarias(ctx context.Context, fecha time.Time) (*dto.ReporteVentasResponse, error)
	// EnviarPorEmail renders the report PDF and enqueues the email job.
	EnviarPorEmail(ctx context.Context, req dto.EnviarReporteRequest) error
}

type reporteService struct {
	ordenes    repository.OrdenRepository
	usuarios   repository.UsuarioRepository
	dispatcher *worker.Dispatcher
	cfg        *config.Config
}

func NewReporteService(
	ordenes repository.OrdenRepository,
	usuarios repository.UsuarioRepository,
	dispatcher *worker.Dispatcher,
	cfg *config.Config,
) ReporteService {
	return &reporteService{ordenes: ordenes, usuarios: usuarios, dispatcher: dispatcher, cfg: cfg}
}

func (s *reporteService) VentasDiarias(ctx context.Context, fecha time.Time) (*dto.ReporteVentasResponse, error) {
	desde := time.Date(fecha.Year(), fecha.Month(), fecha.Day(), 0, 0, 0, 0, fecha.Location())
	hasta := desde.Add(24 * time.Hour)

	ordenes, err := s.ordenes.ListPorFecha(ctx, desde, hasta)
	if err != nil {
		return nil, err
	}

	rep := &dto.ReporteVentasResponse{
		Fecha:         desde.Format("2006-01-02"),
		TotalVendido:  decimal.Zero,
		PorMetodoPago: make(map[string]decimal.Decimal),
		GeneradoAt:    time.Now().UTC(),
	}

	porMesero := make(map[string]*dto.VentasPorMesero)
	for i := range ordenes {
		o := &ordenes[i]
		switch o.Estado {
		case model.OrdenAnulada:
			rep.OrdenesAnulada++
			continue
		case model.OrdenCerrada:
			// counted below
		default:
			continue // still open
		}

		rep.OrdenesTotal++
		rep.TotalVendido = rep.TotalVendido.Add(o.Total)

		if o.MetodoPago != nil {
			rep.PorMetodoPago[*o.MetodoPago] = rep.PorMetodoPago[*o.MetodoPago].Add(o.Total)
		}

		mid := o.MeseroID.String()
		entry, ok := porMesero[mid]
		if !ok {
			entry = &dto.VentasPorMesero{MeseroID: mid, Total: decimal.Zero}
			if u, err := s.usuarios.FindByID(ctx, o.MeseroID); err == nil {
				entry.Nombre = u.Nombre
			}
			porMesero[mid] = entry
		}
		entry.Ordenes++
		entry.Total = entry.Total.Add(o.Total)
	}

	for _, entry := range porMesero {
		rep.PorMesero = append(rep.PorMesero, *entry)
	}
	return rep, nil
}

func (s *reporteService) EnviarPorEmail(ctx context.Context, req dto.EnviarReporteRequest) error {
	fecha, err := time.Parse("2006-01-02", req.Fecha)
	if err != nil {
		return fmt.Errorf("fecha invalida: %w", err)
	}

	rep, err := s.VentasDiarias(ctx, fecha)
	if err != nil {
		return err
	}

	pdfPath, err := infra.GenerateReportePDF(rep, s.cfg.PDFSpoolPath)
	if err != nil {
		return err
	}

	to := req.Email
	if to == "" {
		to = s.cfg.AdminEmail
	}
	return s.dispatcher.EnqueueEmail(ctx, worker.EmailJobPayload{
		ToEmail: to,
		Subject: "Reporte de ventas " + rep.Fecha,
		Body:    fmt.Sprintf("Ordenes: %d — Total: $%s", rep.OrdenesTotal, rep.TotalVendido.StringFixed(2)),
		PDFPath: pdfPath,
	})
}
