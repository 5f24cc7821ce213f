package v1

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"

	"github.com/gosuda/fareledger/internal/domain"
)

const (
	pdfPageWidth  = 612 // US Letter, points
	pdfPageHeight = 792
	pdfMargin     = 56
	pdfLeading    = 14
	pdfMaxLines   = (pdfPageHeight - 2*pdfMargin) / pdfLeading
)

// RenderInvoicePDF lays an invoice out as a single-page PDF 1.4 document
// with Helvetica text. Line items that do not fit are summarized.
func RenderInvoicePDF(acct *domain.Account, inv *domain.Invoice) []byte {
	lines := invoiceLines(acct, inv)
	if len(lines) > pdfMaxLines {
		hidden := len(lines) - pdfMaxLines + 1
		lines = append(lines[:pdfMaxLines-1], fmt.Sprintf("... %d more lines", hidden))
	}

	var content bytes.Buffer
	fmt.Fprintf(&content, "BT\n/F1 11 Tf\n%d TL\n%d %d Td\n", pdfLeading, pdfMargin, pdfPageHeight-pdfMargin)
	for i, line := range lines {
		if i > 0 {
			content.WriteString("T*\n")
		}
		fmt.Fprintf(&content, "(%s) Tj\n", pdfEscape(line))
	}
	content.WriteString("ET\n")

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d %d] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>", pdfPageWidth, pdfPageHeight),
		fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", content.Len(), content.String()),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}

	var doc bytes.Buffer
	doc.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = doc.Len()
		fmt.Fprintf(&doc, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := doc.Len()
	fmt.Fprintf(&doc, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&doc, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&doc, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return doc.Bytes()
}

func invoiceLines(acct *domain.Account, inv *domain.Invoice) []string {
	amount := func(cents int64) string { return money.New(cents, money.USD).Display() }

	lines := []string{
		"Invoice " + inv.InvoiceNumber,
		"",
		"Account: " + acct.Name,
		fmt.Sprintf("Billing period: %s to %s", inv.BillingPeriodStart, inv.BillingPeriodEnd),
		fmt.Sprintf("Frequency: %s    Status: %s", inv.Frequency, inv.Status),
		"Due: " + inv.DueDate.String(),
	}
	if inv.IssuedAt != nil {
		lines = append(lines, "Issued: "+inv.IssuedAt.UTC().Format("2006-01-02"))
	}
	if inv.BillingContact != "" {
		lines = append(lines, "Billing contact: "+inv.BillingContact)
	}

	lines = append(lines, "", "Rides")
	for _, li := range inv.LineItems {
		lines = append(lines, fmt.Sprintf("  %s  %-40s %12s", li.RideDate, li.Description, amount(li.FareCents)))
	}

	lines = append(lines,
		"",
		fmt.Sprintf("Subtotal: %s", amount(inv.SubtotalCents)),
		fmt.Sprintf("Tax: %s", amount(inv.TaxCents)),
		fmt.Sprintf("Total: %s", amount(inv.TotalCents)),
	)
	if inv.Notes != "" {
		lines = append(lines, "", "Notes: "+inv.Notes)
	}
	return lines
}

// pdfEscape makes s safe inside a PDF literal string. Runes outside
// printable ASCII become '?'.
func pdfEscape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '\\' || r == '(' || r == ')':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r < 0x20 || r > 0x7e:
			b.WriteByte('?')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
