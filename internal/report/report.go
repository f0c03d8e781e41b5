// Package report renders incident records as PDF documents for handoff
// to site management or law enforcement.
package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"

	"github.com/argussec/argusgo/internal/models"
)

// severityFill maps severity to the RGB band color on the report header
func severityFill(sev models.Severity) (int, int, int) {
	switch sev {
	case models.SeverityCritical:
		return 192, 57, 43
	case models.SeverityHigh:
		return 230, 126, 34
	case models.SeverityMedium:
		return 241, 196, 15
	default:
		return 149, 165, 166
	}
}

// IncidentPDF renders a one-page incident report. The QR in the corner
// deep-links back into the shell app: argus://incident/{id}
func IncidentPDF(inc models.Incident, agentID string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	// Header
	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(140, 10, "ARGUS INCIDENT REPORT", "", 0, "L", false, 0, "")

	// Deep-link QR, top right
	qrContent := "argus://incident/" + inc.ID
	qrPng, err := qrcode.Encode(qrContent, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("report: encode QR: %w", err)
	}
	imgOptions := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
	pdf.RegisterImageOptionsReader("deeplink", imgOptions, bytes.NewReader(qrPng))
	pdf.ImageOptions("deeplink", 165, 12, 30, 30, false, imgOptions, 0, "")

	pdf.Ln(12)
	pdf.SetFont("Arial", "", 9)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(140, 5, inc.ID, "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(6)

	// Severity band
	red, green, blue := severityFill(inc.Severity)
	pdf.SetFillColor(red, green, blue)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(40, 8, strings.ToUpper(string(inc.Severity)), "", 0, "C", true, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 8, "  Status: "+string(inc.Status), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	// Title
	pdf.SetFont("Arial", "B", 14)
	pdf.MultiCell(0, 7, inc.Title, "", "L", false)
	pdf.Ln(2)

	// Timestamps
	pdf.SetFont("Arial", "", 10)
	created := time.UnixMilli(inc.CreatedAt).UTC().Format("2006-01-02 15:04 UTC")
	updated := time.UnixMilli(inc.UpdatedAt).UTC().Format("2006-01-02 15:04 UTC")
	pdf.CellFormat(0, 6, "Captured: "+created, "", 1, "L", false, 0, "")
	if inc.UpdatedAt != inc.CreatedAt {
		pdf.CellFormat(0, 6, "Updated: "+updated, "", 1, "L", false, 0, "")
	}

	if inc.Location != nil {
		pdf.CellFormat(0, 6, fmt.Sprintf("Location: %.6f, %.6f", inc.Location.Lat, inc.Location.Lng), "", 1, "L", false, 0, "")
	}
	if len(inc.Tags) > 0 {
		pdf.CellFormat(0, 6, "Tags: "+strings.Join(inc.Tags, ", "), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	// Description
	if inc.Description != "" {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(0, 6, "Description", "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 5, inc.Description, "", "L", false)
	}

	// Footer
	pdf.SetY(-25)
	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	generated := time.Now().UTC().Format("2006-01-02 15:04 UTC")
	pdf.CellFormat(0, 5, fmt.Sprintf("Generated by Argus agent %s at %s", agentID, generated), "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("report: render PDF: %w", err)
	}

	return buf.Bytes(), nil
}
