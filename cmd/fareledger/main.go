// Command fareledger is the terminal console for tenant accounts, invoices
// and statements.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/google/subcommands"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	setupLogging()

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	register(commander)

	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	status := commander.Execute(ctx)
	cancel()
	os.Exit(int(status))
}

// register adds the console subcommands, grouped like the views they stand for.
func register(c *subcommands.Commander) {
	c.Register(&loginCmd{}, "session")

	c.Register(&accountsCmd{}, "accounts")
	c.Register(&accountCmd{}, "accounts")

	c.Register(&invoicesCmd{}, "invoices")
	c.Register(&invoiceCmd{}, "invoices")
	c.Register(&editInvoiceCmd{}, "invoices")
	c.Register(&pdfCmd{}, "invoices")

	c.Register(&statementCmd{}, "statements")
	c.Register(&entryCmd{}, "statements")
}

// setupLogging configures the global logger from FARELEDGER_LOG_LEVEL and
// FARELEDGER_LOG_FORMAT. Logs go to stderr so they never mix with output.
func setupLogging() {
	level, err := zerolog.ParseLevel(os.Getenv("FARELEDGER_LOG_LEVEL"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(level)

	if os.Getenv("FARELEDGER_LOG_FORMAT") == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}
