package infra

// pdf.go — thermal-format ticket rendering with go-pdf/fpdf.
// Comandas (kitchen/bar tickets) and daily sales reports are written to the
// spool directory; the print station watches that directory.

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"restpos/internal/dto"

	"github.com/go-pdf/fpdf"
)

// ComandaTicket is everything the station needs to prepare a send batch.
type ComandaTicket struct {
	OrdenID    string
	MesaNumero int
	Mesero     string
	Destino    string // "cocina" | "bar"
	Items      []ComandaItem
	SentAt     time.Time
}

type ComandaItem struct {
	Nombre   string
	Cantidad int
	Notas    string
}

// GenerateComandaPDF renders a ticket for one station and returns the file path.
func GenerateComandaPDF(ticket ComandaTicket, spoolPath string) (string, error) {
	if err := os.MkdirAll(spoolPath, 0o755); err != nil {
		return "", fmt.Errorf("pdf: create spool dir: %w", err)
	}

	fileName := fmt.Sprintf("comanda_%s_%s_%d.pdf", ticket.Destino, ticket.OrdenID, ticket.SentAt.Unix())
	filePath := filepath.Join(spoolPath, fileName)

	// 74mm wide — thermal receipt paper
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 74, Ht: 105},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8

	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(contentW, 7, fmt.Sprintf("COMANDA %s", ticket.Destino), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Mesa %d", ticket.MesaNumero), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, "Mesero: "+ticket.Mesero, "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 4, ticket.SentAt.Format("02/01/2006  15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 9)
	for _, item := range ticket.Items {
		pdf.CellFormat(contentW, 5, fmt.Sprintf("%dx %s", item.Cantidad, item.Nombre), "", 1, "L", false, 0, "")
		if item.Notas != "" {
			pdf.SetFont("Helvetica", "I", 7)
			pdf.CellFormat(contentW, 4, "  "+item.Notas, "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 9)
		}
	}

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write comanda: %w", err)
	}
	return filePath, nil
}

// GenerateReportePDF renders the daily sales report for emailing/archiving.
func GenerateReportePDF(rep *dto.ReporteVentasResponse, spoolPath string) (string, error) {
	if err := os.MkdirAll(spoolPath, 0o755); err != nil {
		return "", fmt.Errorf("pdf: create spool dir: %w", err)
	}

	filePath := filepath.Join(spoolPath, fmt.Sprintf("reporte_%s.pdf", rep.Fecha))

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Reporte de ventas", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Fecha: "+rep.Fecha, "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, fmt.Sprintf("Ordenes cerradas: %d   Anuladas: %d", rep.OrdenesTotal, rep.OrdenesAnulada), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, "Total vendido: $"+rep.TotalVendido.StringFixed(2), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(0, 6, "Por metodo de pago", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	for metodo, total := range rep.PorMetodoPago {
		pdf.CellFormat(0, 5, fmt.Sprintf("  %s: $%s", metodo, total.StringFixed(2)), "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(0, 6, "Por mesero", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	for _, m := range rep.PorMesero {
		pdf.CellFormat(0, 5, fmt.Sprintf("  %s — %d ordenes, $%s", m.Nombre, m.Ordenes, m.Total.StringFixed(2)), "", 1, "L", false, 0, "")
	}

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write reporte: %w", err)
	}
	return filePath, nil
}
