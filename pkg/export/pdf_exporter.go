package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// SheetItem is one checklist line on a printed observation sheet.
type SheetItem struct {
	Label   string
	Checked bool
}

// SheetSection groups checklist items with optional free-text trailers.
type SheetSection struct {
	Title          string
	Items          []SheetItem
	Comment        string
	Recommendation string
}

// Sheet describes a printable observation feedback sheet.
type Sheet struct {
	Title    string
	Header   []string
	Sections []SheetSection
}

// PDFExporter renders datasets and observation sheets into PDF documents.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with an optional title and table body.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	pdf.SetFont("Arial", "B", 10)
	colWidth := 190.0 / float64(len(data.Headers))
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range data.Rows {
		for _, header := range data.Headers {
			value := row[header]
			pdf.CellFormat(colWidth, 7, value, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderSheet creates a sectioned checklist PDF for a single feedback sheet.
func (e *PDFExporter) RenderSheet(sheet Sheet) ([]byte, error) {
	if len(sheet.Sections) == 0 {
		return nil, fmt.Errorf("sheet requires at least one section")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if sheet.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(sheet.Title), "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	pdf.SetFont("Arial", "", 10)
	for _, line := range sheet.Header {
		pdf.CellFormat(0, 6, line, "", 1, "", false, 0, "")
	}
	pdf.Ln(4)

	for _, section := range sheet.Sections {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(0, 8, section.Title, "", 1, "", false, 0, "")

		pdf.SetFont("Arial", "", 9)
		for _, item := range section.Items {
			mark := "no"
			if item.Checked {
				mark = "yes"
			}
			pdf.CellFormat(165, 6, item.Label, "1", 0, "", false, 0, "")
			pdf.CellFormat(25, 6, mark, "1", 1, "C", false, 0, "")
		}

		if section.Comment != "" {
			pdf.SetFont("Arial", "I", 9)
			pdf.MultiCell(190, 5, "Comment: "+section.Comment, "", "", false)
		}
		if section.Recommendation != "" {
			pdf.SetFont("Arial", "I", 9)
			pdf.MultiCell(190, 5, "Recommendation: "+section.Recommendation, "", "", false)
		}
		pdf.Ln(4)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render sheet pdf: %w", err)
	}
	return buf.Bytes(), nil
}
