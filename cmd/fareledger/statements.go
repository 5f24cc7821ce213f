package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/gosuda/fareledger/internal/detail"
	"github.com/gosuda/fareledger/internal/domain"
	"github.com/gosuda/fareledger/internal/listview"
)

// statementCmd lists the ledger entries of one account.
type statementCmd struct {
	page        int
	from        string
	to          string
	source      string
	invoice     string
	interactive bool
}

func (*statementCmd) Name() string     { return "statement" }
func (*statementCmd) Synopsis() string { return "list the ledger entries of an account" }
func (*statementCmd) Usage() string {
	return `fareledger statement [-page <n>] [-from <date>] [-to <date>] [-source ride|payment] [-invoice <id>] [-i] <account-id>

  Lists the statement of an account with running balances. Date bounds are
  inclusive and take YYYY-MM-DD or RFC 3339 values.
`
}

func (c *statementCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.page, "page", 1, "page to show")
	f.StringVar(&c.from, "from", "", "first posting date")
	f.StringVar(&c.to, "to", "", "last posting date")
	f.StringVar(&c.source, "source", "", "only entries of this source type")
	f.StringVar(&c.invoice, "invoice", "", "only entries linked to this invoice")
	f.BoolVar(&c.interactive, "i", false, "browse interactively")
}

func (c *statementCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one account id is required")
		return subcommands.ExitUsageError
	}
	accountID := f.Arg(0)

	s, status := signIn(ctx)
	if s == nil {
		return status
	}

	view := listview.NewLedgerView(s.client, accountID, listview.ViewOptions{PageSize: s.cfg.View.PageSize})
	err := view.Apply(ctx, listview.Query{
		Page: c.page,
		Filters: map[string]string{
			listview.FilterStartDate:       c.from,
			listview.FilterEndDate:         c.to,
			listview.FilterSourceType:      c.source,
			listview.FilterLinkedInvoiceID: c.invoice,
		},
	})
	if err != nil {
		return listFailure("statement", err)
	}

	render := func(p domain.Page[domain.LedgerEntry]) string { return ledgerMarkdown(accountID, p, s.currency()) }
	if err := browse(ctx, view, "statement", render, stdinIf(c.interactive), os.Stderr); err != nil {
		return report(os.Stderr, "load the statement", err)
	}
	return subcommands.ExitSuccess
}

// entryCmd shows one ledger entry.
type entryCmd struct{}

func (*entryCmd) Name() string     { return "entry" }
func (*entryCmd) Synopsis() string { return "show one ledger entry" }
func (*entryCmd) Usage() string {
	return `fareledger entry <account-id> <entry-id>

  Shows one ledger entry of an account.
`
}

func (*entryCmd) SetFlags(*flag.FlagSet) {}

func (*entryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "Error: an account id and an entry id are required")
		return subcommands.ExitUsageError
	}

	s, status := signIn(ctx)
	if s == nil {
		return status
	}

	res := detail.LedgerEntry(s.client, f.Arg(0), f.Arg(1)).Load(ctx)
	if !res.OK() {
		return detailFailure(res.Message, res.Err)
	}
	printMarkdown(entryMarkdown(*res.Item, s.currency()))
	return subcommands.ExitSuccess
}
