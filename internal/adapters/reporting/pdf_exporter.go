package reporting

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/lcalzada-xor/honeytrap/internal/core/domain"
)

// ThreatReport aggregates the gateway state rendered into the operator PDF.
type ThreatReport struct {
	GeneratedAt time.Time
	Ports       []domain.ServicePort
	Suspects    []domain.Suspect
	Attackers   []domain.Attacker
	BannedIPs   []string
	ActiveUsers []domain.ActiveUser
}

// PDFExporter renders threat reports to PDF format
type PDFExporter struct{}

// NewPDFExporter creates a new PDF exporter instance
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Export generates the operator threat report PDF.
func (e *PDFExporter) Export(report *ThreatReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	e.addHeader(pdf, report)
	e.addSummary(pdf, report)
	e.addPortTable(pdf, report)
	e.addSuspectTable(pdf, report)
	e.addAttackerTable(pdf, report)
	e.addBanList(pdf, report)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *PDFExporter) addHeader(pdf *gofpdf.Fpdf, report *ThreatReport) {
	pdf.SetFont("Arial", "B", 24)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 15, "HoneyTrap Threat Report", "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(120, 120, 120)
	dateStr := fmt.Sprintf("Generated: %s", report.GeneratedAt.Format("2006-01-02 15:04"))
	pdf.CellFormat(0, 6, dateStr, "", 1, "L", false, 0, "")
	pdf.Ln(6)
}

func (e *PDFExporter) addSummary(pdf *gofpdf.Fpdf, report *ThreatReport) {
	decoys := 0
	for _, p := range report.Ports {
		if p.Honeypot {
			decoys++
		}
	}

	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 10, "Overview", "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 11)
	lines := []string{
		fmt.Sprintf("Active sessions: %d", len(report.ActiveUsers)),
		fmt.Sprintf("Fronted ports: %d (decoy mode on %d)", len(report.Ports), decoys),
		fmt.Sprintf("Potential attackers: %d", len(report.Suspects)),
		fmt.Sprintf("Confirmed attackers: %d", len(report.Attackers)),
		fmt.Sprintf("Banned addresses: %d", len(report.BannedIPs)),
	}
	for _, line := range lines {
		pdf.CellFormat(0, 6, line, "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)
}

func (e *PDFExporter) addPortTable(pdf *gofpdf.Fpdf, report *ThreatReport) {
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, "Port Policy", "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(30, 7, "Port", "1", 0, "L", true, 0, "")
	pdf.CellFormat(30, 7, "Status", "1", 0, "L", true, 0, "")
	pdf.CellFormat(30, 7, "Decoy", "1", 0, "L", true, 0, "")
	pdf.CellFormat(70, 7, "Last Triggered", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, p := range report.Ports {
		decoy := "off"
		if p.Honeypot {
			decoy = "on"
		}
		pdf.CellFormat(30, 7, fmt.Sprintf("%d", p.Number), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, p.Status, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, decoy, "1", 0, "L", false, 0, "")
		pdf.CellFormat(70, 7, p.LastTriggered, "1", 1, "L", false, 0, "")
	}
	pdf.Ln(6)
}

func (e *PDFExporter) addSuspectTable(pdf *gofpdf.Fpdf, report *ThreatReport) {
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, "Potential Attackers", "", 1, "L", false, 0, "")

	if len(report.Suspects) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.CellFormat(0, 6, "None recorded.", "", 1, "L", false, 0, "")
		pdf.Ln(6)
		return
	}

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(35, 7, "Username", "1", 0, "L", true, 0, "")
	pdf.CellFormat(35, 7, "IP", "1", 0, "L", true, 0, "")
	pdf.CellFormat(20, 7, "Port", "1", 0, "L", true, 0, "")
	pdf.CellFormat(60, 7, "Reason", "1", 0, "L", true, 0, "")
	pdf.CellFormat(40, 7, "When", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 9)
	for _, s := range report.Suspects {
		pdf.CellFormat(35, 7, s.Username, "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 7, s.IP, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 7, fmt.Sprintf("%d", s.AttemptedPort), "1", 0, "L", false, 0, "")
		pdf.CellFormat(60, 7, s.Reason, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 7, s.Timestamp, "1", 1, "L", false, 0, "")
	}
	pdf.Ln(6)
}

func (e *PDFExporter) addAttackerTable(pdf *gofpdf.Fpdf, report *ThreatReport) {
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, "Confirmed Attackers", "", 1, "L", false, 0, "")

	if len(report.Attackers) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.CellFormat(0, 6, "None recorded.", "", 1, "L", false, 0, "")
		pdf.Ln(6)
		return
	}

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(40, 7, "Username", "1", 0, "L", true, 0, "")
	pdf.CellFormat(40, 7, "IP", "1", 0, "L", true, 0, "")
	pdf.CellFormat(70, 7, "Reason", "1", 0, "L", true, 0, "")
	pdf.CellFormat(40, 7, "When", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 9)
	for _, a := range report.Attackers {
		pdf.CellFormat(40, 7, a.Username, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 7, a.IP, "1", 0, "L", false, 0, "")
		pdf.CellFormat(70, 7, a.Reason, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 7, a.Timestamp, "1", 1, "L", false, 0, "")
	}
	pdf.Ln(6)
}

func (e *PDFExporter) addBanList(pdf *gofpdf.Fpdf, report *ThreatReport) {
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, "Banned Addresses", "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	if len(report.BannedIPs) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.CellFormat(0, 6, "None.", "", 1, "L", false, 0, "")
		return
	}
	for _, ip := range report.BannedIPs {
		pdf.CellFormat(0, 6, ip, "", 1, "L", false, 0, "")
	}
}
