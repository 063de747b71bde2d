package infra

// pdf.go: PDF receipt for a closed order (paid venta or returned alquiler)
// using go-pdf/fpdf. A6 portrait page with:
//   - Shop header and receipt kind
//   - Order id, cliente and closing date
//   - Line table (product, quantity, subtotal)
//   - Bold total
//
// The output file is saved to storagePath/{tipo}_{id}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineaComprobante is one printed row.
type LineaComprobante struct {
	Producto string
	Cantidad int
	Subtotal decimal.Decimal
}

// Comprobante is the printable view of an Alquiler or Venta.
type Comprobante struct {
	Tipo     string // "venta" | "alquiler"
	PedidoID uuid.UUID
	Cliente  string
	Fecha    time.Time
	Lineas   []LineaComprobante
	Total    decimal.Decimal
}

// GenerarComprobantePDF renders c into storagePath (created if needed) and
// returns the path of the written file.
func GenerarComprobantePDF(c Comprobante, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("%s_%s.pdf", c.Tipo, c.PedidoID)
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.New("P", "mm", "A6", "")
	pdf.SetMargins(6, 6, 6)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 12

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentW, 8, "Vestibox", "", 1, "C", false, 0, "")

	titulo := "Comprobante de venta"
	if c.Tipo == "alquiler" {
		titulo = "Comprobante de alquiler"
	}
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, titulo, "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, "Pedido "+c.PedidoID.String(), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 4, tr("Cliente: "+c.Cliente), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 4, c.Fecha.Format("02/01/2006  15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(2)
	pdf.Line(6, pdf.GetY(), pageW-6, pdf.GetY())
	pdf.Ln(2)

	col1 := contentW * 0.56
	col2 := contentW * 0.14
	col3 := contentW * 0.30

	pdf.SetFont("Helvetica", "B", 7)
	pdf.CellFormat(col1, 5, "Producto", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 5, "Cant", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 5, "Subtotal", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	for _, l := range c.Lineas {
		pdf.CellFormat(col1, 5, tr(truncar(l.Producto, 28)), "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, fmt.Sprintf("x%d", l.Cantidad), "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 5, "$"+l.Subtotal.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.Line(6, pdf.GetY(), pageW-6, pdf.GetY())
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1+col2, 6, "TOTAL:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 6, "$"+c.Total.StringFixed(2), "", 1, "R", false, 0, "")

	pdf.Ln(3)
	pdf.SetFont("Helvetica", "I", 7)
	pdf.CellFormat(contentW, 4, tr("¡Gracias por elegirnos!"), "", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}

	return filePath, nil
}

func truncar(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n-1])) + "..."
}
