package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Shido75/Spectrasynth-CRM/internal/entity"
	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// amounts print with thousands grouping, e.g. 1,250,400.00
var amountPrinter = message.NewPrinter(language.English)

func formatAmount(v float64) string {
	return amountPrinter.Sprintf("%.2f", v)
}

// Renderer produces quotation PDFs under the upload root. Revised documents
// carry a -Rev-N suffix so every revision keeps its own artifact.
type Renderer struct {
	root   string
	logger *zap.Logger
}

func NewRenderer(root string, logger *zap.Logger) *Renderer {
	return &Renderer{root: root, logger: logger}
}

const minTableRows = 5

// RenderQuotation writes the quotation document and returns its path
// relative to the upload root. revision 0 is the base document.
func (r *Renderer) RenderQuotation(ctx context.Context, q *entity.Quotation, items []entity.SnapshotItem, inquiry *entity.Inquiry, revision int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := q.QuotationNumber + ".pdf"
	if revision > 0 {
		name = fmt.Sprintf("%s-Rev-%d.pdf", q.QuotationNumber, revision)
	}
	relPath := filepath.ToSlash(filepath.Join("quotations", name))
	fullPath := filepath.Join(r.root, "quotations", name)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetAutoPageBreak(true, 15)
	doc.AddPage()

	r.header(doc)
	r.meta(doc, q, inquiry, revision)
	subtotal := r.itemTable(doc, items)
	r.totals(doc, q, subtotal)
	r.footer(doc, q)

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := doc.OutputFileAndClose(fullPath); err != nil {
		return "", fmt.Errorf("write pdf: %w", err)
	}

	r.logger.Debug("quotation pdf rendered",
		zap.String("quotation_number", q.QuotationNumber),
		zap.Int("revision", revision),
		zap.String("path", relPath),
	)
	return relPath, nil
}

func (r *Renderer) header(doc *gofpdf.Fpdf) {
	doc.SetFont("Arial", "B", 18)
	doc.SetTextColor(20, 60, 120)
	doc.CellFormat(0, 10, "SPECTRASYNTH PHARMACHEM", "", 1, "C", false, 0, "")

	doc.SetFont("Arial", "", 9)
	doc.SetTextColor(90, 90, 90)
	doc.CellFormat(0, 5, "Manufacturers & Suppliers of Fine Chemicals and Pharmaceutical Intermediates", "", 1, "C", false, 0, "")
	doc.CellFormat(0, 5, "GSTIN: 24XXXXX1234X1ZX | Email: sales@spectrasynth.com", "", 1, "C", false, 0, "")

	doc.SetTextColor(0, 0, 0)
	doc.Ln(2)
	doc.SetLineWidth(0.5)
	doc.Line(10, doc.GetY(), 200, doc.GetY())
	doc.Ln(4)
}

func (r *Renderer) meta(doc *gofpdf.Fpdf, q *entity.Quotation, inquiry *entity.Inquiry, revision int) {
	title := "QUOTATION"
	if revision > 0 {
		title = fmt.Sprintf("QUOTATION (Revision %d)", revision)
	}
	doc.SetFont("Arial", "B", 13)
	doc.CellFormat(0, 8, title, "", 1, "C", false, 0, "")
	doc.Ln(2)

	doc.SetFont("Arial", "", 10)
	left := func(label, value string) string { return fmt.Sprintf("%s: %s", label, value) }

	customer := "Unknown"
	email := ""
	if inquiry != nil {
		if inquiry.CustomerName != "" {
			customer = inquiry.CustomerName
		}
		email = inquiry.Email
	}

	doc.CellFormat(95, 6, left("Quotation No", q.QuotationNumber), "", 0, "L", false, 0, "")
	doc.CellFormat(95, 6, left("Date", q.Date.Format("02-01-2006")), "", 1, "R", false, 0, "")
	doc.CellFormat(95, 6, left("Inquiry No", q.InquiryNumber), "", 0, "L", false, 0, "")
	doc.CellFormat(95, 6, left("Prepared By", q.QuotationBy), "", 1, "R", false, 0, "")
	doc.CellFormat(95, 6, left("Customer", customer), "", 0, "L", false, 0, "")
	doc.CellFormat(95, 6, left("Email", email), "", 1, "R", false, 0, "")
	doc.Ln(3)
}

var tableCols = []struct {
	title string
	width float64
	align string
}{
	{"Sr", 10, "C"},
	{"Product", 52, "L"},
	{"CAS No", 25, "C"},
	{"HSN", 20, "C"},
	{"Qty", 15, "C"},
	{"Rate (INR)", 25, "R"},
	{"Lead Time", 18, "C"},
	{"Amount (INR)", 25, "R"},
}

func (r *Renderer) itemTable(doc *gofpdf.Fpdf, items []entity.SnapshotItem) float64 {
	doc.SetFont("Arial", "B", 9)
	doc.SetFillColor(230, 236, 245)
	for _, col := range tableCols {
		doc.CellFormat(col.width, 7, col.title, "1", 0, "C", true, 0, "")
	}
	doc.Ln(-1)

	doc.SetFont("Arial", "", 9)
	subtotal := 0.0
	rows := 0
	for i, item := range items {
		amount := float64(item.Quantity) * item.Price
		subtotal += amount
		values := []string{
			fmt.Sprintf("%d", i+1),
			item.ProductName,
			item.CASNo,
			item.HSNNo,
			fmt.Sprintf("%d", item.Quantity),
			formatAmount(item.Price),
			item.LeadTime,
			formatAmount(amount),
		}
		for c, col := range tableCols {
			doc.CellFormat(col.width, 7, values[c], "1", 0, col.align, false, 0, "")
		}
		doc.Ln(-1)
		rows++
	}

	// Pad short tables so the document keeps its shape.
	for ; rows < minTableRows; rows++ {
		for _, col := range tableCols {
			doc.CellFormat(col.width, 7, "", "1", 0, "C", false, 0, "")
		}
		doc.Ln(-1)
	}
	return subtotal
}

func (r *Renderer) totals(doc *gofpdf.Fpdf, q *entity.Quotation, subtotal float64) {
	gstAmount := subtotal * q.GST / 100
	grand := subtotal + gstAmount

	labelW, valueW := 165.0, 25.0
	doc.SetFont("Arial", "", 10)
	doc.CellFormat(labelW, 7, "Subtotal", "1", 0, "R", false, 0, "")
	doc.CellFormat(valueW, 7, formatAmount(subtotal), "1", 1, "R", false, 0, "")
	doc.CellFormat(labelW, 7, fmt.Sprintf("GST @ %.1f%%", q.GST), "1", 0, "R", false, 0, "")
	doc.CellFormat(valueW, 7, formatAmount(gstAmount), "1", 1, "R", false, 0, "")

	doc.SetFont("Arial", "B", 10)
	doc.CellFormat(labelW, 7, "Grand Total", "1", 0, "R", false, 0, "")
	doc.CellFormat(valueW, 7, formatAmount(grand), "1", 1, "R", false, 0, "")

	doc.SetFont("Arial", "I", 9)
	doc.CellFormat(0, 7, fmt.Sprintf("Amount in words: %s", AmountInWords(grand)), "", 1, "L", false, 0, "")
	doc.Ln(2)
}

func (r *Renderer) footer(doc *gofpdf.Fpdf, q *entity.Quotation) {
	if q.Remark != "" {
		doc.SetFont("Arial", "B", 9)
		doc.CellFormat(0, 6, "Remarks", "", 1, "L", false, 0, "")
		doc.SetFont("Arial", "", 9)
		doc.MultiCell(0, 5, q.Remark, "", "L", false)
		doc.Ln(2)
	}

	doc.SetFont("Arial", "B", 9)
	doc.CellFormat(0, 6, "Terms & Conditions", "", 1, "L", false, 0, "")
	doc.SetFont("Arial", "", 8)
	terms := []string{
		"1. Prices are valid for 30 days from the quotation date.",
		"2. GST as applicable at the time of billing.",
		"3. Delivery schedule as per agreed lead time from receipt of purchase order.",
		"4. Payment within 30 days of invoice unless agreed otherwise.",
	}
	for _, t := range terms {
		doc.CellFormat(0, 4.5, t, "", 1, "L", false, 0, "")
	}

	doc.Ln(10)
	doc.SetFont("Arial", "", 9)
	doc.CellFormat(0, 5, "For SPECTRASYNTH PHARMACHEM", "", 1, "R", false, 0, "")
	doc.Ln(12)
	doc.CellFormat(0, 5, "Authorised Signatory", "", 1, "R", false, 0, "")

	doc.SetY(-12)
	doc.SetFont("Arial", "I", 7)
	doc.SetTextColor(130, 130, 130)
	doc.CellFormat(0, 4, fmt.Sprintf("Generated on %s", time.Now().Format("02-01-2006 15:04")), "", 0, "C", false, 0, "")
}
