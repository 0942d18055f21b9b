// Package render lays out pre-qualification certificates as PDF documents.
package render

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/go-pdf/fpdf"
)

type rgb struct{ r, g, b int }

var (
	limeGreen = rgb{50, 205, 50}
	darkGreen = rgb{34, 139, 34}
	white     = rgb{255, 255, 255}
	lightBg   = rgb{240, 255, 240}
	warning   = rgb{253, 126, 20}
)

const (
	pageWidth  = 612.0 // US Letter in points
	pageHeight = 792.0
	margin     = 50.0
	indent     = 70.0
)

// Branding is the presentation text printed in the header and footer.
type Branding struct {
	Title   string
	Website string
}

func DefaultBranding() Branding {
	return Branding{
		Title:   "Pre-Qualification App",
		Website: "www.prequalificationapp.com",
	}
}

// PDFRenderer renders certificate field maps to single-page PDF documents.
type PDFRenderer struct {
	brand Branding
}

func NewPDFRenderer(brand Branding) *PDFRenderer {
	return &PDFRenderer{brand: brand}
}

// Render lays out fields. certificate_id and calculation_type are required;
// every other field is printed when present.
func (r *PDFRenderer) Render(fields map[string]string) ([]byte, error) {
	if fields["certificate_id"] == "" {
		return nil, errors.New("render certificate: missing certificate_id")
	}
	if fields["calculation_type"] == "" {
		return nil, errors.New("render certificate: missing calculation_type")
	}

	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle("Pre-Qualification Certificate "+fields["certificate_id"], true)
	pdf.SetCreator(r.brand.Title, true)
	pdf.AddPage()

	p := &page{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}

	p.header(r.brand.Title)
	y := p.certificateInfo(fields, 150)
	y = p.applicantInfo(fields, y)
	y = p.results(fields, y)
	y = p.stressTest(fields, y)
	p.disclaimer(fields, y)
	p.footer(r.brand)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render certificate %s: %w", fields["certificate_id"], err)
	}
	return buf.Bytes(), nil
}

// page wraps the fpdf document with helpers that measure y from the top edge.
type page struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func (p *page) font(style string, size float64, c rgb) {
	p.pdf.SetFont("Helvetica", style, size)
	p.pdf.SetTextColor(c.r, c.g, c.b)
}

func (p *page) text(x, y float64, s string) {
	p.pdf.Text(x, y, p.tr(s))
}

func (p *page) centred(y float64, s string) {
	s = p.tr(s)
	p.pdf.Text((pageWidth-p.pdf.GetStringWidth(s))/2, y, s)
}

func (p *page) right(x, y float64, s string) {
	s = p.tr(s)
	p.pdf.Text(x-p.pdf.GetStringWidth(s), y, s)
}

func (p *page) header(title string) {
	p.pdf.SetFillColor(limeGreen.r, limeGreen.g, limeGreen.b)
	p.pdf.Rect(0, 0, pageWidth, 120, "F")

	p.font("B", 32, white)
	p.centred(60, title)
	p.font("B", 20, white)
	p.centred(90, "Pre-Qualification Certificate")
}

func (p *page) certificateInfo(fields map[string]string, y float64) float64 {
	p.font("", 10, darkGreen)
	p.text(margin, y, "Certificate ID: "+fields["certificate_id"])
	p.right(pageWidth-margin, y, "Issue Date: "+fields["issue_date"])
	p.right(pageWidth-margin, y+15, "Expiry Date: "+fields["expiry_date"])
	return y + 50
}

func (p *page) applicantInfo(fields map[string]string, y float64) float64 {
	p.font("B", 14, limeGreen)
	p.text(margin, y, "Applicant Information")

	p.font("", 11, darkGreen)
	y += 25
	p.text(indent, y, "Name: "+fields["applicant_name"])
	if email := fields["applicant_email"]; email != "" {
		y += 20
		p.text(indent, y, "Email: "+email)
	}
	return y + 40
}

func (p *page) results(fields map[string]string, y float64) float64 {
	p.font("B", 14, limeGreen)
	p.text(margin, y, "Assessment Results")

	y += 15
	p.pdf.SetFillColor(lightBg.r, lightBg.g, lightBg.b)
	p.pdf.SetDrawColor(limeGreen.r, limeGreen.g, limeGreen.b)
	p.pdf.SetLineWidth(2)
	p.pdf.Rect(margin, y, pageWidth-2*margin, 170, "FD")

	y += 25
	p.font("", 11, darkGreen)
	if fields["calculation_type"] == "AFFORDABILITY" {
		y = p.affordabilityLines(fields, y)
	} else {
		y = p.paymentLines(fields, y)
	}

	p.font("", 11, darkGreen)
	y += 25
	p.text(indent, y, "Annual Interest Rate: "+fields["interest_rate"]+"%")
	y += 20
	p.text(indent, y, "Loan Term: "+fields["term_years"]+" years")
	return y + 30
}

func (p *page) affordabilityLines(fields map[string]string, y float64) float64 {
	p.text(indent, y, "Gross Monthly Income: "+fields["gross_income"])
	y += 20
	p.text(indent, y, "DSR Ratio: "+fields["dsr_ratio"]+"%")
	y += 20
	p.text(indent, y, "Monthly Obligations: "+fields["monthly_obligations"])
	y += 20
	p.text(indent, y, "Affordable Monthly Payment: "+fields["affordable_payment"])
	y += 25
	p.font("B", 14, limeGreen)
	p.text(indent, y, "Maximum Loan Amount: "+fields["max_loan"])
	return y
}

func (p *page) paymentLines(fields map[string]string, y float64) float64 {
	p.text(indent, y, "Principal Loan Amount: "+fields["principal_amount"])
	y += 20
	p.text(indent, y, "Total of Payments: "+fields["total_payments"])
	y += 20
	p.text(indent, y, "Total Interest: "+fields["total_interest"])
	y += 25
	p.font("B", 14, limeGreen)
	p.text(indent, y, "Monthly Payment: "+fields["monthly_payment"])
	return y
}

func (p *page) stressTest(fields map[string]string, y float64) float64 {
	summary := fields["stress_summary"]
	if summary == "" {
		return y
	}

	y += 10
	p.font("B", 12, warning)
	p.text(indent, y, fmt.Sprintf("Stress Test Results (+ %s bps):", fields["stress_bps"]))
	y += 20
	p.font("", 11, warning)
	p.text(indent, y, summary)
	return y
}

func (p *page) disclaimer(fields map[string]string, y float64) {
	y += 50
	p.font("B", 12, limeGreen)
	p.text(margin, y, "Important Disclaimer")

	y += 20
	p.font("", 9, darkGreen)
	lines := []string{
		"This pre-qualification certificate is an estimate only and does not constitute a loan approval or commitment.",
		"Final loan approval is subject to credit verification, property appraisal, and other lending criteria.",
		fmt.Sprintf("This certificate is valid for %s days from the issue date.", fields["validity_days"]),
		"Interest rates and terms are subject to change. Please consult with a loan officer for details.",
	}
	for _, line := range lines {
		p.text(margin, y, line)
		y += 15
	}
}

func (p *page) footer(brand Branding) {
	p.font("B", 10, limeGreen)
	p.centred(pageHeight-40, brand.Title+" - Your Mortgage Calculator")
	p.font("", 8, darkGreen)
	p.centred(pageHeight-25, brand.Website)
}
