package report

import (
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// WritePDF renders blocks to a simple A4 PDF at outPath: a title, then one
// paragraph per block preceded by a small grey tag label.
func WritePDF(outPath, title string, blocks []Block) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(title, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.MultiCell(0, 8, tr(title), "", "L", false)
	pdf.Ln(4)

	for _, b := range blocks {
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 4, fmt.Sprintf("%d. <%s> %s", b.Index, b.Tag, b.Selector), "", 1, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 5, tr(b.Text), "", "L", false)
		pdf.Ln(3)
	}
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return pdf.OutputFileAndClose(outPath)
}
