package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"github.com/gosuda/fareledger/internal/detail"
	"github.com/gosuda/fareledger/internal/domain"
	"github.com/gosuda/fareledger/internal/listview"
)

// accountsCmd lists the tenant's accounts.
type accountsCmd struct {
	page        int
	status      string
	accountType string
	interactive bool
}

func (*accountsCmd) Name() string     { return "accounts" }
func (*accountsCmd) Synopsis() string { return "list accounts" }
func (*accountsCmd) Usage() string {
	return `fareledger accounts [-page <n>] [-status active|suspended|closed] [-type organization|individual] [-i]

  Lists the accounts of the signed-in tenant. With -i, reads paging commands
  from stdin.
`
}

func (c *accountsCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.page, "page", 1, "page to show")
	f.StringVar(&c.status, "status", "", "only accounts with this status")
	f.StringVar(&c.accountType, "type", "", "only accounts of this type")
	f.BoolVar(&c.interactive, "i", false, "browse interactively")
}

func (c *accountsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, status := signIn(ctx)
	if s == nil {
		return status
	}

	view := listview.NewAccountsView(s.client, listview.ViewOptions{PageSize: s.cfg.View.PageSize})
	err := view.Apply(ctx, listview.Query{
		Page: c.page,
		Filters: map[string]string{
			listview.FilterStatus: c.status,
			listview.FilterType:   c.accountType,
		},
	})
	if err != nil {
		return listFailure("accounts", err)
	}

	render := func(p domain.Page[domain.Account]) string { return accountsMarkdown(p, s.currency()) }
	if err := browse(ctx, view, "accounts", render, stdinIf(c.interactive), os.Stderr); err != nil {
		return report(os.Stderr, "load accounts", err)
	}
	return subcommands.ExitSuccess
}

// accountCmd shows one account.
type accountCmd struct{}

func (*accountCmd) Name() string     { return "account" }
func (*accountCmd) Synopsis() string { return "show one account" }
func (*accountCmd) Usage() string {
	return `fareledger account <account-id>

  Shows the details of one account.
`
}

func (*accountCmd) SetFlags(*flag.FlagSet) {}

func (*accountCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one account id is required")
		return subcommands.ExitUsageError
	}

	s, status := signIn(ctx)
	if s == nil {
		return status
	}

	res := detail.Account(s.client, f.Arg(0)).Load(ctx)
	if !res.OK() {
		return detailFailure(res.Message, res.Err)
	}
	printMarkdown(accountMarkdown(*res.Item, s.currency()))
	return subcommands.ExitSuccess
}

// stdinIf returns stdin for interactive commands and nil otherwise.
func stdinIf(interactive bool) io.Reader {
	if interactive {
		return os.Stdin
	}
	return nil
}

// listFailure reports a failed first load of a list view.
func listFailure(noun string, err error) subcommands.ExitStatus {
	if msg := browseMessage(noun, err); isUsage(err) {
		fmt.Fprintln(os.Stderr, "Error: "+msg)
		return subcommands.ExitUsageError
	}
	return report(os.Stderr, "load "+noun, err)
}

// detailFailure prints the detail view's message, or the session prompt when
// the failure was an expired session.
func detailFailure(message string, err error) subcommands.ExitStatus {
	if isUnauthorized(err) {
		return report(os.Stderr, "", err)
	}
	fmt.Fprintln(os.Stderr, message)
	return subcommands.ExitFailure
}
