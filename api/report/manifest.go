// Package report renders case manifests and audit trails into downloadable documents.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/phpdave11/gofpdf"

	"github.com/linesmerrill/secure-evidence-api/models"
)

const timeLayout = "2006-01-02 15:04:05 MST"

// CaseManifestPDF writes a PDF listing the case and every evidence item with its recorded
// SHA-256, so a downloaded file can be checked against the digest taken at ingest.
func CaseManifestPDF(w io.Writer, c models.PopulatedCase, items []models.PopulatedEvidence, generatedAt time.Time) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(14, 14, 14)
	pdf.SetAutoPageBreak(true, 14)
	pdf.SetTitle("Evidence manifest - "+c.Title, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 9, tr("Evidence Manifest"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(90, 90, 90)
	pdf.CellFormat(0, 5, "Generated at: "+generatedAt.UTC().Format(timeLayout), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	sectionTitle(pdf, "Case")
	kv(pdf, tr, "Case ID", c.ID.Hex())
	kv(pdf, tr, "Title", c.Title)
	kv(pdf, tr, "Status", string(c.Status))
	kv(pdf, tr, "Priority", string(c.Priority))
	kv(pdf, tr, "Created By", summary(c.CreatedBy))
	kv(pdf, tr, "Assigned To", summary(c.AssignedTo))
	kv(pdf, tr, "Created At", formatTime(c.CreatedAt))
	if strings.TrimSpace(c.Description) != "" {
		kv(pdf, tr, "Description", c.Description)
	}
	pdf.Ln(3)

	sectionTitle(pdf, fmt.Sprintf("Evidence (%d)", len(items)))
	if len(items) == 0 {
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(90, 90, 90)
		pdf.MultiCell(0, 5, "(none)", "", "L", false)
	}
	for i, e := range items {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetTextColor(20, 20, 20)
		pdf.MultiCell(0, 5.5, tr(fmt.Sprintf("%d. %s", i+1, e.FileName)), "", "L", false)
		kv(pdf, tr, "Type", e.FileType)
		kv(pdf, tr, "Size", fmt.Sprintf("%s (%d bytes)", humanize.IBytes(uint64(e.FileSize)), e.FileSize))
		kv(pdf, tr, "SHA-256", e.Hash)
		kv(pdf, tr, "Uploaded By", summary(e.Uploader))
		kv(pdf, tr, "Uploaded At", formatTime(e.UploadedAt))
		if strings.TrimSpace(e.Description) != "" {
			kv(pdf, tr, "Description", e.Description)
		}
		pdf.Ln(2)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to build manifest: %w", err)
	}
	return pdf.Output(w)
}

func sectionTitle(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 7, title, "", 1, "L", false, 0, "")
	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(pdf.GetX(), pdf.GetY(), 196, pdf.GetY())
	pdf.Ln(2)
}

func kv(pdf *gofpdf.Fpdf, tr func(string) string, key, value string) {
	if strings.TrimSpace(value) == "" {
		value = "-"
	}
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(30, 30, 30)
	pdf.CellFormat(32, 5, key+":", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(20, 20, 20)
	pdf.MultiCell(0, 5, tr(flatten(value)), "", "L", false)
}

func summary(u *models.UserSummary) string {
	if u == nil {
		return ""
	}
	return fmt.Sprintf("%s <%s>", u.Name, u.Email)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func flatten(s string) string {
	return strings.TrimSpace(strings.NewReplacer("\r", " ", "\n", " ", "\t", " ").Replace(s))
}
