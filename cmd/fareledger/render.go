package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/charmbracelet/glamour"

	"github.com/gosuda/fareledger/internal/domain"
)

// printMarkdown renders md for the terminal, falling back to the raw text.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err == nil {
		var out string
		if out, err = r.Render(md); err == nil {
			fmt.Print(out)
			return
		}
	}
	fmt.Fprintf(os.Stderr, "Error rendering markdown: %v\n", err)
	fmt.Print(md)
}

// formatMoney displays cents in the given ISO currency.
func formatMoney(cents int64, currency string) string {
	return money.New(cents, currency).Display()
}

// cell makes s safe inside a markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	if s == "" {
		return "-"
	}
	return s
}

func dateOrDash(d *domain.Date) string {
	if d == nil || d.IsZero() {
		return "-"
	}
	return d.String()
}

func timeOrDash(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

// pageFooter summarizes the position of a page in its listing.
func pageFooter(page, totalPages, totalItems int, noun string) string {
	if totalItems == 0 {
		return fmt.Sprintf("_No %s found._\n", noun)
	}
	return fmt.Sprintf("_Page %d of %d, %d %s._\n", page, max(totalPages, 1), totalItems, noun)
}

func accountsMarkdown(p domain.Page[domain.Account], currency string) string {
	var b strings.Builder
	b.WriteString("# Accounts\n\n")
	if len(p.Items) > 0 {
		b.WriteString("| ID | Name | Type | Status | Balance | Last invoice |\n")
		b.WriteString("|---|---|---|---|---:|---|\n")
		for _, a := range p.Items {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
				cell(a.ID), cell(a.Name), a.Type, a.Status,
				formatMoney(a.CurrentBalance, currency), dateOrDash(a.LastInvoiceDate))
		}
		b.WriteString("\n")
	}
	b.WriteString(pageFooter(p.Page, p.TotalPages, p.TotalItems, "accounts"))
	return b.String()
}

func accountMarkdown(a domain.Account, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", a.Name)
	fmt.Fprintf(&b, "- **ID:** %s\n", a.ID)
	fmt.Fprintf(&b, "- **Type:** %s\n", a.Type)
	fmt.Fprintf(&b, "- **Status:** %s\n", a.Status)
	fmt.Fprintf(&b, "- **Current balance:** %s\n", formatMoney(a.CurrentBalance, currency))
	fmt.Fprintf(&b, "- **Last invoice:** %s\n", dateOrDash(a.LastInvoiceDate))
	fmt.Fprintf(&b, "- **Created:** %s\n", a.CreatedAt.UTC().Format(time.RFC3339))
	return b.String()
}

func invoicesMarkdown(p domain.Page[domain.Invoice], currency string) string {
	var b strings.Builder
	b.WriteString("# Invoices\n\n")
	if len(p.Items) > 0 {
		b.WriteString("| ID | Number | Period | Frequency | Status | Due | Total |\n")
		b.WriteString("|---|---|---|---|---|---|---:|\n")
		for _, inv := range p.Items {
			fmt.Fprintf(&b, "| %s | %s | %s to %s | %s | %s | %s | %s |\n",
				cell(inv.ID), cell(inv.InvoiceNumber),
				inv.BillingPeriodStart, inv.BillingPeriodEnd,
				inv.Frequency, inv.Status, inv.DueDate,
				formatMoney(inv.TotalCents, currency))
		}
		b.WriteString("\n")
	}
	b.WriteString(pageFooter(p.Page, p.TotalPages, p.TotalItems, "invoices"))
	return b.String()
}

func invoiceMarkdown(inv domain.Invoice, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Invoice %s\n\n", inv.InvoiceNumber)
	fmt.Fprintf(&b, "- **ID:** %s\n", inv.ID)
	fmt.Fprintf(&b, "- **Account:** %s\n", inv.AccountID)
	fmt.Fprintf(&b, "- **Status:** %s\n", inv.Status)
	fmt.Fprintf(&b, "- **Billing period:** %s to %s (%s)\n", inv.BillingPeriodStart, inv.BillingPeriodEnd, inv.Frequency)
	fmt.Fprintf(&b, "- **Due:** %s\n", inv.DueDate)
	fmt.Fprintf(&b, "- **Issued:** %s\n", timeOrDash(inv.IssuedAt))
	fmt.Fprintf(&b, "- **Paid:** %s\n", timeOrDash(inv.PaidAt))

	b.WriteString("\n## Line items\n\n")
	if len(inv.LineItems) == 0 {
		b.WriteString("_No line items._\n")
	} else {
		b.WriteString("| Date | Ride | Description | Fare |\n")
		b.WriteString("|---|---|---|---:|\n")
		for _, li := range inv.LineItems {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
				li.RideDate, cell(li.RideID), cell(li.Description), formatMoney(li.FareCents, currency))
		}
	}

	b.WriteString("\n## Totals\n\n")
	fmt.Fprintf(&b, "- **Subtotal:** %s\n", formatMoney(inv.SubtotalCents, currency))
	fmt.Fprintf(&b, "- **Tax:** %s\n", formatMoney(inv.TaxCents, currency))
	fmt.Fprintf(&b, "- **Total:** %s\n", formatMoney(inv.TotalCents, currency))

	b.WriteString("\n## Details\n\n")
	fmt.Fprintf(&b, "- **Notes:** %s\n", cell(inv.Notes))
	fmt.Fprintf(&b, "- **Internal reference:** %s\n", cell(inv.InternalReference))
	fmt.Fprintf(&b, "- **Billing contact:** %s\n", cell(inv.BillingContact))
	return b.String()
}

func ledgerMarkdown(accountID string, p domain.Page[domain.LedgerEntry], currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Statement of %s\n\n", accountID)
	if len(p.Items) > 0 {
		b.WriteString("| ID | Date | Source | Reference | Debit | Credit | Balance |\n")
		b.WriteString("|---|---|---|---|---:|---:|---:|\n")
		for _, e := range p.Items {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s |\n",
				cell(e.ID), e.PostingDate, e.SourceType, cell(e.SourceReferenceID),
				amountOrDash(e.DebitAmount, currency), amountOrDash(e.CreditAmount, currency),
				formatMoney(e.RunningBalance, currency))
		}
		b.WriteString("\n")
	}
	b.WriteString(pageFooter(p.Page, p.TotalPages, p.TotalItems, "entries"))
	return b.String()
}

func entryMarkdown(e domain.LedgerEntry, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Ledger entry %s\n\n", e.ID)
	fmt.Fprintf(&b, "- **Account:** %s\n", e.AccountID)
	fmt.Fprintf(&b, "- **Posted:** %s\n", e.PostingDate)
	fmt.Fprintf(&b, "- **Source:** %s %s\n", e.SourceType, e.SourceReferenceID)
	fmt.Fprintf(&b, "- **Debit:** %s\n", amountOrDash(e.DebitAmount, currency))
	fmt.Fprintf(&b, "- **Credit:** %s\n", amountOrDash(e.CreditAmount, currency))
	fmt.Fprintf(&b, "- **Running balance:** %s\n", formatMoney(e.RunningBalance, currency))
	if e.LinkedInvoiceID != nil {
		fmt.Fprintf(&b, "- **Invoice:** %s\n", *e.LinkedInvoiceID)
	}
	return b.String()
}

func amountOrDash(cents int64, currency string) string {
	if cents == 0 {
		return "-"
	}
	return formatMoney(cents, currency)
}
