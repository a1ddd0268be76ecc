package report

import (
	"fmt"
	"strings"

	"github.com/mandolyte/mdtopdf"
)

// PDFPath is the PDF written next to a markdown report.
func PDFPath(markdownPath string) string {
	return strings.TrimSuffix(markdownPath, ".md") + ".pdf"
}

// WritePDF renders markdown into an A4 portrait PDF at pdfPath.
func WritePDF(markdown []byte, pdfPath string) error {
	renderer := mdtopdf.NewPdfRenderer("P", "A4", pdfPath, "", nil, mdtopdf.LIGHT)
	if err := renderer.Process(markdown); err != nil {
		return fmt.Errorf("renderer.Process() > %w", err)
	}
	return nil
}
