package document

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/andy/timeledger/internal/domain"
	"github.com/jung-kurt/gofpdf"
	"github.com/lucasb-eyer/go-colorful"
)

type rgb struct{ r, g, b int }

var (
	darkGray   = rgb{64, 64, 64}
	mediumGray = rgb{107, 114, 128}
	stripeFill = rgb{249, 250, 251}
	overdueRed = rgb{220, 38, 38}
	white      = rgb{255, 255, 255}
)

const (
	pdfMargin      = 18.0
	pdfLineHeight  = 4.0
	tableRowHeight = 7.0
)

// PDFRenderer draws invoices with gofpdf on US Letter paper
type PDFRenderer struct{}

// NewPDFRenderer creates a PDF renderer
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

func hexColor(hex string, fallback rgb) rgb {
	c, err := colorful.Hex(hex)
	if err != nil {
		return fallback
	}
	r, g, b := c.RGB255()
	return rgb{int(r), int(g), int(b)}
}

func textColor(pdf *gofpdf.Fpdf, c rgb) { pdf.SetTextColor(c.r, c.g, c.b) }

// Render lays out the header, bill-to block, line item table, totals,
// optional payment instructions and terms, and the footer.
func (r *PDFRenderer) Render(snap Snapshot) ([]byte, error) {
	inv, client, settings := snap.Invoice, snap.Client, snap.Settings
	if inv == nil || client == nil {
		return nil, fmt.Errorf("failed to render invoice: snapshot is incomplete")
	}
	if settings == nil {
		settings = domain.DefaultSettings()
	}
	defaults := domain.DefaultSettings()
	label := func(v, def string) string {
		if strings.TrimSpace(v) == "" {
			return def
		}
		return v
	}

	header := hexColor(settings.PdfHeaderColor, hexColor(defaults.PdfHeaderColor, darkGray))
	accent := hexColor(settings.PdfAccentColor, hexColor(defaults.PdfAccentColor, darkGray))

	pdf := gofpdf.New("P", "mm", "Letter", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin+6)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	footer := label(settings.PdfFooterText, defaults.PdfFooterText)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-pdfMargin)
		pdf.SetFont("Helvetica", "", 8)
		textColor(pdf, mediumGray)
		pdf.CellFormat(0, pdfLineHeight, tr(footer), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pageWidth, _ := pdf.GetPageSize()
	contentWidth := pageWidth - 2*pdfMargin
	halfWidth := contentWidth / 2

	// Company block, left column
	pdf.SetXY(pdfMargin, pdfMargin)
	textColor(pdf, header)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(halfWidth, 8, tr(settings.CompanyName), "", 2, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	textColor(pdf, darkGray)
	for _, line := range companyLines(settings) {
		pdf.CellFormat(halfWidth, pdfLineHeight, tr(line), "", 2, "L", false, 0, "")
	}
	leftY := pdf.GetY()

	// Title, number and dates, right column
	right := pdfMargin + halfWidth
	pdf.SetXY(right, pdfMargin)
	textColor(pdf, header)
	pdf.SetFont("Helvetica", "B", 24)
	pdf.CellFormat(halfWidth, 10, tr(label(settings.PdfInvoiceTitle, defaults.PdfInvoiceTitle)), "", 2, "R", false, 0, "")
	textColor(pdf, accent)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(halfWidth, 7, tr(inv.InvoiceNumber), "", 2, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	textColor(pdf, mediumGray)
	pdf.CellFormat(halfWidth, pdfLineHeight+1, tr(label(settings.PdfDateIssuedLabel, defaults.PdfDateIssuedLabel)), "", 2, "R", false, 0, "")
	textColor(pdf, darkGray)
	pdf.CellFormat(halfWidth, pdfLineHeight+1, inv.DateIssued.Format("Jan 02, 2006"), "", 2, "R", false, 0, "")
	textColor(pdf, mediumGray)
	pdf.CellFormat(halfWidth, pdfLineHeight+1, tr(label(settings.PdfDueDateLabel, defaults.PdfDueDateLabel)), "", 2, "R", false, 0, "")
	if inv.EffectiveStatus(snap.Today) == domain.InvoiceStatusOverdue {
		textColor(pdf, overdueRed)
	} else {
		textColor(pdf, darkGray)
	}
	pdf.CellFormat(halfWidth, pdfLineHeight+1, inv.DueDate.Format("Jan 02, 2006"), "", 2, "R", false, 0, "")

	// Divider
	y := max(leftY, pdf.GetY()) + 8
	pdf.SetDrawColor(accent.r, accent.g, accent.b)
	pdf.SetLineWidth(0.5)
	pdf.Line(pdfMargin, y, pageWidth-pdfMargin, y)

	// Bill to
	pdf.SetXY(pdfMargin, y+6)
	textColor(pdf, accent)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(contentWidth, 5, tr(label(settings.PdfBillToLabel, defaults.PdfBillToLabel)), "", 2, "L", false, 0, "")
	textColor(pdf, header)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(contentWidth, 5, tr(client.Name), "", 2, "L", false, 0, "")
	textColor(pdf, darkGray)
	pdf.SetFont("Helvetica", "", 9)
	if contact := strings.TrimSpace(client.BillingFirstName + " " + client.BillingLastName); contact != "" {
		pdf.CellFormat(contentWidth, pdfLineHeight, tr(contact), "", 2, "L", false, 0, "")
	}
	for _, line := range client.AddressLines() {
		pdf.CellFormat(contentWidth, pdfLineHeight, tr(line), "", 2, "L", false, 0, "")
	}
	textColor(pdf, mediumGray)
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentWidth, pdfLineHeight, tr(client.BillingEmail), "", 2, "L", false, 0, "")

	// Line items
	pdf.Ln(8)
	widths := []float64{24, contentWidth - 24 - 18 - 24 - 26, 18, 24, 26}
	aligns := []string{"L", "L", "R", "R", "R"}
	heads := []string{
		label(settings.PdfDateColumnLabel, defaults.PdfDateColumnLabel),
		label(settings.PdfDescriptionColumnLabel, defaults.PdfDescriptionColumnLabel),
		label(settings.PdfHoursColumnLabel, defaults.PdfHoursColumnLabel),
		label(settings.PdfRateColumnLabel, defaults.PdfRateColumnLabel),
		label(settings.PdfAmountColumnLabel, defaults.PdfAmountColumnLabel),
	}

	pdf.SetFillColor(header.r, header.g, header.b)
	textColor(pdf, white)
	pdf.SetFont("Helvetica", "B", 9)
	for i, h := range heads {
		pdf.CellFormat(widths[i], tableRowHeight+1, tr(h), "", 0, aligns[i], true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	textColor(pdf, darkGray)
	for n, item := range inv.LineItems {
		row := []string{
			item.Date.Format("01/02/2006"),
			item.Description,
			fmt.Sprintf("%.2f", item.Hours),
			domain.FormatMoney(item.Rate),
			domain.FormatMoney(item.Subtotal),
		}
		fill := n%2 == 1
		pdf.SetFillColor(stripeFill.r, stripeFill.g, stripeFill.b)
		for i, cell := range row {
			pdf.CellFormat(widths[i], tableRowHeight, tr(cell), "", 0, aligns[i], fill, 0, "")
		}
		pdf.Ln(-1)
	}

	// Totals
	pdf.Ln(6)
	totalsX := pageWidth - pdfMargin - 70
	total := domain.FormatMoney(inv.LineItemsTotal())
	pdf.SetX(totalsX)
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(40, 6, tr(label(settings.PdfSubtotalLabel, defaults.PdfSubtotalLabel)), "", 0, "L", false, 0, "")
	pdf.CellFormat(30, 6, total, "", 1, "R", false, 0, "")
	lineY := pdf.GetY() + 1
	pdf.SetDrawColor(header.r, header.g, header.b)
	pdf.Line(totalsX, lineY, pageWidth-pdfMargin, lineY)
	pdf.SetXY(totalsX, lineY+2)
	textColor(pdf, header)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(40, 7, tr(label(settings.PdfTotalLabel, defaults.PdfTotalLabel)), "", 0, "L", false, 0, "")
	pdf.CellFormat(30, 7, domain.FormatMoney(inv.Total), "", 1, "R", false, 0, "")

	if settings.PdfShowPaymentInstructions && strings.TrimSpace(settings.PdfPaymentInstructions) != "" {
		notesBlock(pdf, tr, header, "Payment Instructions", settings.PdfPaymentInstructions, contentWidth)
	}
	if settings.PdfShowTerms && strings.TrimSpace(settings.PdfTerms) != "" {
		notesBlock(pdf, tr, header, "Terms & Conditions", settings.PdfTerms, contentWidth)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render invoice %s: %w", inv.InvoiceNumber, err)
	}
	return buf.Bytes(), nil
}

func notesBlock(pdf *gofpdf.Fpdf, tr func(string) string, header rgb, title, text string, width float64) {
	pdf.Ln(8)
	pdf.SetX(pdfMargin)
	textColor(pdf, header)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(width, 5, tr(title), "", 1, "L", false, 0, "")
	textColor(pdf, darkGray)
	pdf.SetFont("Helvetica", "", 8)
	pdf.MultiCell(width, pdfLineHeight, tr(text), "", "L", false)
}

func companyLines(s *domain.UserSettings) []string {
	lines := make([]string, 0, 6)
	for _, l := range strings.Split(s.CompanyAddress, "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	for _, l := range []string{s.CompanyPhone, s.CompanyEmail, s.CompanyWebsite} {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
