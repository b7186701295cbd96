package infra

// pdf.go: PDF rendering using go-pdf/fpdf.
//   - GenerateTicketPDF: 74mm thermal receipt for one POS sale
//   - GenerateReportePDF: A4 daily cash report, paginated
//
// Files are saved under storagePath.

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"smart/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// GenerateTicketPDF writes storagePath/ticket_{numero}.pdf and returns its path.
func GenerateTicketPDF(venta *model.VentaPOS, tienda, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("ticket_%d.pdf", venta.NumeroTicket)
	filePath := filepath.Join(storagePath, fileName)

	// 74mm wide like thermal receipt paper; height grows with the item count
	height := 90.0 + 5*float64(len(venta.Productos))
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 74, Ht: height},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.SetAutoPageBreak(false, 4)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(contentW, 7, tr(tienda), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, "Ticket de compra", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(contentW, 5, tr(fmt.Sprintf("Ticket N° %d", venta.NumeroTicket)), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, venta.CreatedAt.Format("02/01/2006  15:04"), "", 1, "L", false, 0, "")
	if venta.Cajero != nil {
		pdf.CellFormat(contentW, 4, tr("Cajero: "+venta.Cajero.Nombre), "", 1, "L", false, 0, "")
	}
	pdf.Ln(2)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	// ── Items ─────────────────────────────────────────────────────────────────
	col1 := contentW * 0.52
	col2 := contentW * 0.16
	col3 := contentW * 0.32

	pdf.SetFont("Helvetica", "B", 7)
	pdf.CellFormat(col1, 5, "Producto", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 5, "Cant", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 5, "Subtotal", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	for _, l := range venta.Productos {
		pdf.CellFormat(col1, 5, tr(truncate(l.Nombre, 22)), "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, fmt.Sprintf("x%d", l.Cantidad), "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 5, "$"+l.Subtotal().StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	// ── Totals ────────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(col1+col2, 5, "Subtotal:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 5, "$"+venta.Subtotal.StringFixed(2), "", 1, "R", false, 0, "")
	if !venta.Descuento.IsZero() {
		label := "Descuento:"
		if venta.CodigoCupon != nil {
			label = fmt.Sprintf("Descuento (%s):", *venta.CodigoCupon)
		}
		pdf.CellFormat(col1+col2, 5, tr(label), "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 5, "-$"+venta.Descuento.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1+col2, 6, "TOTAL:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 6, "$"+venta.Total.StringFixed(2), "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(col1+col2, 4, tr("Pago ("+venta.MetodoPago+")"), "", 1, "L", false, 0, "")

	pdf.Ln(3)
	pdf.SetFont("Helvetica", "I", 7)
	pdf.CellFormat(contentW, 4, tr("¡Gracias por su compra!"), "", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}

// ReporteCaja is everything the daily cash report prints.
type ReporteCaja struct {
	Tienda         string
	Cajero         string
	Fecha          time.Time
	Ventas         []model.VentaPOS
	TotalVentas    decimal.Decimal
	TotalDescuento decimal.Decimal
	PorMetodo      map[string]decimal.Decimal
	Cierre         bool
}

// GenerateReportePDF writes an A4 report and returns its path. A closing
// report gets a distinct file name so it never overwrites an interim one.
func GenerateReportePDF(r ReporteCaja, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	kind := "reporte"
	if r.Cierre {
		kind = "cierre"
	}
	fileName := fmt.Sprintf("%s_%s_%s.pdf", kind, r.Fecha.Format("20060102"), sanitize(r.Cajero))
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 5, fmt.Sprintf("Página %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	title := "Reporte de caja"
	if r.Cierre {
		title = "Cierre de caja"
	}
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 9, tr(r.Tienda+" - "+title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, tr("Cajero: "+r.Cajero), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Fecha: "+r.Fecha.Format("02/01/2006"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	// ── Sales table ──────────────────────────────────────────────────────────
	widths := []float64{22, 22, 40, 32, 32, 32}
	headers := []string{"Ticket", "Hora", "Pago", "Subtotal", "Descuento", "Total"}
	header := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for i, h := range headers {
			pdf.CellFormat(widths[i], 7, h, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
	}
	header()
	_, pageH := pdf.GetPageSize()
	for _, v := range r.Ventas {
		if pdf.GetY()+6 > pageH-20 {
			pdf.AddPage()
			header()
		}
		pdf.CellFormat(widths[0], 6, fmt.Sprintf("%d", v.NumeroTicket), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[1], 6, v.CreatedAt.Format("15:04"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[2], 6, tr(v.MetodoPago), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[3], 6, "$"+v.Subtotal.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 6, "$"+v.Descuento.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[5], 6, "$"+v.Total.StringFixed(2), "1", 1, "R", false, 0, "")
	}
	if len(r.Ventas) == 0 {
		pdf.CellFormat(0, 6, "Sin ventas registradas", "1", 1, "C", false, 0, "")
	}
	pdf.Ln(5)

	// ── Summary ──────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, "Resumen", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(80, 6, "Cantidad de ventas", "", 0, "L", false, 0, "")
	pdf.CellFormat(40, 6, fmt.Sprintf("%d", len(r.Ventas)), "", 1, "R", false, 0, "")

	metodos := make([]string, 0, len(r.PorMetodo))
	for m := range r.PorMetodo {
		metodos = append(metodos, m)
	}
	sort.Strings(metodos)
	for _, m := range metodos {
		pdf.CellFormat(80, 6, tr("Total "+m), "", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, "$"+r.PorMetodo[m].StringFixed(2), "", 1, "R", false, 0, "")
	}
	pdf.CellFormat(80, 6, "Descuentos otorgados", "", 0, "L", false, 0, "")
	pdf.CellFormat(40, 6, "$"+r.TotalDescuento.StringFixed(2), "", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(80, 7, "TOTAL VENDIDO", "", 0, "L", false, 0, "")
	pdf.CellFormat(40, 7, "$"+r.TotalVentas.StringFixed(2), "", 1, "R", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func sanitize(s string) string {
	out := make([]rune, 0, len(s))
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "cajero"
	}
	return string(out)
}
