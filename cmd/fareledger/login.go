package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"
)

// loginCmd checks the configured credentials and shows the session.
type loginCmd struct {
	refresh bool
}

func (*loginCmd) Name() string     { return "login" }
func (*loginCmd) Synopsis() string { return "sign in and show the current session" }
func (*loginCmd) Usage() string {
	return `fareledger login [-refresh]

  Signs in with FARELEDGER_TENANT, FARELEDGER_EMAIL and FARELEDGER_PASSWORD
  and prints the tenant, user and session expiry.
`
}

func (c *loginCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.refresh, "refresh", false, "extend the session once after signing in")
}

func (c *loginCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, status := signIn(ctx)
	if s == nil {
		return status
	}

	info, err := s.client.Session(ctx)
	if err != nil {
		return report(os.Stderr, "load the session", err)
	}
	if c.refresh {
		if info, err = s.client.Refresh(ctx); err != nil {
			return report(os.Stderr, "refresh the session", err)
		}
	}

	printMarkdown(fmt.Sprintf("# Signed in\n\n- **Tenant:** %s (%s)\n- **User:** %s\n- **Role:** %s\n- **Expires:** %s\n",
		info.Tenant.Name, info.Tenant.ID, info.User.Email, info.User.Role,
		info.ExpiresAt.UTC().Format(time.RFC3339)))
	return subcommands.ExitSuccess
}
