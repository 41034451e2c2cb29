package infra

// pdf.go — sale receipt generation using go-pdf/fpdf.
// Generates A7-size receipt-style documents with:
//   - Business name header
//   - Sale date and customer name
//   - Item table (batch code, bottle type, kilograms, subtotal)
//   - Bold total with paid / due breakdown
//   - Payment list by method
//
// The output file is saved to storagePath/receipt_{id}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/walidyoshi/wals-honey-mgmt/internal/model"

	"github.com/go-pdf/fpdf"
)

// GenerateReceiptPDF renders a receipt for a sale whose Items (with Batch) and
// Payments were preloaded. storagePath is created if needed. Returns the
// absolute path of the written file.
func GenerateReceiptPDF(sale *model.Sale, businessName, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("receipt_%s.pdf", sale.ID)
	filePath := filepath.Join(storagePath, fileName)

	// A7 ≈ 74mm × 105mm — close to thermal receipt paper (custom size, "A7" is not in fpdf's named list)
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 74, Ht: 105},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8 // total margins = 8mm

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(contentW, 7, businessName, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, "Sales Receipt", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	// ── Sale info ─────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(contentW, 5, sale.CustomerName, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, sale.SaleDate.Format("02/01/2006"), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	// ── Separator ────────────────────────────────────────────────────────────
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	// ── Items header ──────────────────────────────────────────────────────────
	col1 := contentW * 0.40 // batch + bottle
	col2 := contentW * 0.24 // kilograms
	col3 := contentW * 0.36 // subtotal

	pdf.SetFont("Helvetica", "B", 7)
	pdf.CellFormat(col1, 5, "Batch", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 5, "Kg", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 5, "Subtotal", "B", 1, "R", false, 0, "")

	// ── Item rows ─────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "", 7)
	for _, item := range sale.Items {
		label := item.BottleType
		if item.Batch != nil {
			label = item.Batch.BatchCode + " " + item.BottleType
		}
		pdf.CellFormat(col1, 5, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, item.QuantityKg.StringFixed(2), "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 5, item.Subtotal.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	// ── Totals ────────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1+col2, 6, "TOTAL:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 6, sale.TotalAmount.StringFixed(2), "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(col1+col2, 4, "Paid:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 4, sale.AmountPaid().StringFixed(2), "", 1, "R", false, 0, "")
	pdf.CellFormat(col1+col2, 4, "Due:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 4, sale.AmountDue().StringFixed(2), "", 1, "R", false, 0, "")

	// ── Payments ──────────────────────────────────────────────────────────────
	pdf.Ln(2)
	for _, p := range sale.Payments {
		label := "Payment (" + p.Method + "):"
		pdf.CellFormat(col1+col2, 4, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 4, p.Amount.StringFixed(2), "", 1, "R", false, 0, "")
	}

	// ── Footer ────────────────────────────────────────────────────────────────
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "I", 7)
	pdf.CellFormat(contentW, 4, "Thank you for your purchase!", "", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}

	return filePath, nil
}
