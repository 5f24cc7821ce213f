package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/google/subcommands"

	"github.com/gosuda/fareledger/internal/detail"
	"github.com/gosuda/fareledger/internal/domain"
	"github.com/gosuda/fareledger/internal/download"
	"github.com/gosuda/fareledger/internal/listview"
	"github.com/gosuda/fareledger/internal/metaedit"
)

// invoicesCmd lists invoices, optionally of one account.
type invoicesCmd struct {
	account     string
	page        int
	status      string
	frequency   string
	sortBy      string
	desc        bool
	interactive bool
}

func (*invoicesCmd) Name() string     { return "invoices" }
func (*invoicesCmd) Synopsis() string { return "list invoices" }
func (*invoicesCmd) Usage() string {
	return `fareledger invoices [-account <id>] [-page <n>] [-status <status>] [-frequency <frequency>] [-sort <column> [-desc]] [-i]

  Lists invoices of the signed-in tenant. Line items are only shown by
  'fareledger invoice'.
`
}

func (c *invoicesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "account", "", "only invoices of this account")
	f.IntVar(&c.page, "page", 1, "page to show")
	f.StringVar(&c.status, "status", "", "Draft, Issued, Paid, Overdue or Cancelled")
	f.StringVar(&c.frequency, "frequency", "", "PerRide, Daily, Weekly or Monthly")
	f.StringVar(&c.sortBy, "sort", "", "sort column: invoiceNumber, billingPeriodStart, dueDate, totalCents, status or issuedAt")
	f.BoolVar(&c.desc, "desc", false, "sort descending")
	f.BoolVar(&c.interactive, "i", false, "browse interactively")
}

func (c *invoicesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, status := signIn(ctx)
	if s == nil {
		return status
	}

	order := domain.SortAsc
	if c.desc {
		order = domain.SortDesc
	}

	view := listview.NewInvoicesView(s.client, c.account, listview.ViewOptions{PageSize: s.cfg.View.PageSize})
	err := view.Apply(ctx, listview.Query{
		Page: c.page,
		Filters: map[string]string{
			listview.FilterStatus:    c.status,
			listview.FilterFrequency: c.frequency,
		},
		SortBy:    c.sortBy,
		SortOrder: order,
	})
	if err != nil {
		return listFailure("invoices", err)
	}

	render := func(p domain.Page[domain.Invoice]) string { return invoicesMarkdown(p, s.currency()) }
	if err := browse(ctx, view, "invoices", render, stdinIf(c.interactive), os.Stderr); err != nil {
		return report(os.Stderr, "load invoices", err)
	}
	return subcommands.ExitSuccess
}

// invoiceCmd shows one invoice with its line items.
type invoiceCmd struct{}

func (*invoiceCmd) Name() string     { return "invoice" }
func (*invoiceCmd) Synopsis() string { return "show one invoice with its line items" }
func (*invoiceCmd) Usage() string {
	return `fareledger invoice <invoice-id>

  Shows an invoice with its line items, totals and editable details.
`
}

func (*invoiceCmd) SetFlags(*flag.FlagSet) {}

func (*invoiceCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one invoice id is required")
		return subcommands.ExitUsageError
	}

	s, status := signIn(ctx)
	if s == nil {
		return status
	}

	res := detail.Invoice(s.client, f.Arg(0)).Load(ctx)
	if !res.OK() {
		return detailFailure(res.Message, res.Err)
	}
	printMarkdown(invoiceMarkdown(*res.Item, s.currency()))
	return subcommands.ExitSuccess
}

// editInvoiceCmd changes the notes, internal reference or billing contact of
// an invoice. Flags that are not given keep their current value.
type editInvoiceCmd struct {
	notes   string
	ref     string
	contact string
}

func (*editInvoiceCmd) Name() string     { return "edit-invoice" }
func (*editInvoiceCmd) Synopsis() string { return "edit the notes, reference or billing contact of an invoice" }
func (*editInvoiceCmd) Usage() string {
	return `fareledger edit-invoice [-notes <text>] [-ref <text>] [-contact <email>] <invoice-id>

  Updates invoice details. Amounts and line items cannot be edited. An empty
  value clears the field.
`
}

func (c *editInvoiceCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.notes, "notes", "", fmt.Sprintf("notes, at most %d characters", metaedit.MaxNotes))
	f.StringVar(&c.ref, "ref", "", fmt.Sprintf("internal reference, at most %d characters", metaedit.MaxInternalReference))
	f.StringVar(&c.contact, "contact", "", "billing contact email")
}

func (c *editInvoiceCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one invoice id is required")
		return subcommands.ExitUsageError
	}

	changes := map[metaedit.Field]string{}
	f.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "notes":
			changes[metaedit.FieldNotes] = c.notes
		case "ref":
			changes[metaedit.FieldInternalReference] = c.ref
		case "contact":
			changes[metaedit.FieldBillingContact] = c.contact
		}
	})
	if len(changes) == 0 {
		fmt.Fprintln(os.Stderr, "Error: nothing to change; pass -notes, -ref or -contact")
		return subcommands.ExitUsageError
	}

	s, status := signIn(ctx)
	if s == nil {
		return status
	}

	res := detail.Invoice(s.client, f.Arg(0)).Load(ctx)
	if !res.OK() {
		return detailFailure(res.Message, res.Err)
	}

	ed := metaedit.New(s.client, *res.Item, metaedit.Options{NoticeTTL: s.cfg.View.NoticeTTL})
	if err := ed.Begin(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	for field, value := range changes {
		if err := ed.SetField(field, value); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		ed.Blur(field)
	}

	if errs := ed.Errors(); len(errs) > 0 {
		fields := make([]string, 0, len(errs))
		for field := range errs {
			fields = append(fields, string(field))
		}
		sort.Strings(fields)
		for _, field := range fields {
			fmt.Fprintf(os.Stderr, "Error: %s: %s\n", field, errs[metaedit.Field(field)])
		}
		return subcommands.ExitUsageError
	}
	if !ed.Dirty() {
		fmt.Println("No changes.")
		return subcommands.ExitSuccess
	}

	if err := ed.Save(ctx); err != nil {
		if isUnauthorized(err) {
			return report(os.Stderr, "", err)
		}
		fmt.Fprintln(os.Stderr, ed.SaveError())
		return subcommands.ExitFailure
	}

	fmt.Println(ed.Notice())
	printMarkdown(invoiceMarkdown(ed.Invoice(), s.currency()))
	return subcommands.ExitSuccess
}

// pdfCmd saves the PDF of an invoice.
type pdfCmd struct {
	dir string
}

func (*pdfCmd) Name() string     { return "pdf" }
func (*pdfCmd) Synopsis() string { return "download the PDF of an invoice" }
func (*pdfCmd) Usage() string {
	return `fareledger pdf [-dir <directory>] <invoice-id>

  Saves the invoice PDF under the name the server suggests, or
  {invoice number}_{issue date}.pdf. Defaults to FARELEDGER_DOWNLOAD_DIR.
`
}

func (c *pdfCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dir, "dir", "", "directory to save into")
}

func (c *pdfCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one invoice id is required")
		return subcommands.ExitUsageError
	}

	s, status := signIn(ctx)
	if s == nil {
		return status
	}

	res := detail.Invoice(s.client, f.Arg(0)).Load(ctx)
	if !res.OK() {
		return detailFailure(res.Message, res.Err)
	}

	dir := c.dir
	if dir == "" {
		dir = s.cfg.View.DownloadDir
	}
	dl := download.New(s.client, download.FileSaver{Dir: dir}, download.Options{})
	saved, err := dl.Download(ctx, *res.Item)
	if err != nil {
		if isUnauthorized(err) {
			return report(os.Stderr, "", err)
		}
		fmt.Fprintln(os.Stderr, download.Message(err))
		return subcommands.ExitFailure
	}

	fmt.Printf("Saved %s (%d bytes)\n", saved.Path, saved.Size)
	return subcommands.ExitSuccess
}
