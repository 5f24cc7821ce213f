package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/google/subcommands"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/fareledger/internal/apiclient"
	"github.com/gosuda/fareledger/internal/config"
	"github.com/gosuda/fareledger/internal/domain"
	"github.com/gosuda/fareledger/internal/tenant"
)

// errNoCredentials is returned when neither a session nor credentials exist.
var errNoCredentials = errors.New("FARELEDGER_TENANT, FARELEDGER_EMAIL and FARELEDGER_PASSWORD are required to sign in")

// session is a signed-in client for one command run.
type session struct {
	cfg    *config.Config
	client *apiclient.Client
	info   *apiclient.Session
}

// openSession loads the configuration and signs in with the configured
// credentials. FARELEDGER_TENANT_ID preselects the tenant before login; the
// login response replaces it.
func openSession(ctx context.Context) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	tenants := tenant.NewStore()
	tenants.Subscribe(func(t *domain.Tenant) {
		if t == nil {
			log.Debug().Msg("fareledger: tenant cleared")
			return
		}
		log.Debug().Str("tenant_id", t.ID).Msg("fareledger: tenant selected")
	})
	if cfg.Session.TenantID != "" {
		tenants.Set(domain.Tenant{ID: cfg.Session.TenantID, Status: domain.TenantStatusActive})
	}

	client, err := apiclient.New(apiclient.Options{
		BaseURL:    cfg.API.BaseURL,
		HTTPClient: &http.Client{Timeout: cfg.API.Timeout},
		Tenants:    tenants,
		Retry:      &apiclient.RetryPolicy{Attempts: cfg.API.RetryAttempts, Delay: cfg.API.RetryDelay},
	})
	if err != nil {
		return nil, err
	}

	if !cfg.Session.HasCredentials() {
		return nil, errNoCredentials
	}
	info, err := client.Login(ctx, apiclient.Credentials{
		Tenant:   cfg.Session.Tenant,
		Email:    cfg.Session.Email,
		Password: cfg.Session.Password,
	})
	if err != nil {
		return nil, err
	}

	return &session{cfg: cfg, client: client, info: info}, nil
}

// currency is the ISO code amounts are displayed in.
func (s *session) currency() string { return s.cfg.View.Currency }

// report prints the user-facing text for err and returns the exit status.
func report(w io.Writer, what string, err error) subcommands.ExitStatus {
	fmt.Fprintln(w, failureMessage(what, err))
	if errors.Is(err, errNoCredentials) {
		return subcommands.ExitUsageError
	}
	return subcommands.ExitFailure
}

// failureMessage maps an error to what the console shows. Unauthorized
// failures always ask for a new sign-in.
func failureMessage(what string, err error) string {
	var ce *apiclient.ClientError
	switch {
	case errors.Is(err, errNoCredentials):
		return "Error: " + err.Error()
	case !errors.As(err, &ce):
		return fmt.Sprintf("Error %s: %v", what, err)
	}

	switch ce.Kind {
	case apiclient.KindUnauthorized:
		return "Your session is missing or has expired. Check FARELEDGER_TENANT, FARELEDGER_EMAIL and FARELEDGER_PASSWORD, then run `fareledger login`."
	case apiclient.KindForbidden:
		return fmt.Sprintf("You are not allowed to %s.", what)
	case apiclient.KindNetwork:
		return fmt.Sprintf("Could not reach the server while trying to %s. Please try again.", what)
	default:
		if ce.Message != "" {
			return fmt.Sprintf("Failed to %s: %s", what, ce.Message)
		}
		return fmt.Sprintf("Failed to %s. Please try again.", what)
	}
}

// signIn is the common prologue of every command. It returns a nil session
// after printing why signing in failed.
func signIn(ctx context.Context) (*session, subcommands.ExitStatus) {
	s, err := openSession(ctx)
	switch {
	case err == nil:
		return s, subcommands.ExitSuccess
	case apiclient.KindOf(err) == apiclient.KindUnauthorized:
		fmt.Fprintln(os.Stderr, "Sign-in failed: the tenant, email or password was not accepted.")
		return nil, subcommands.ExitFailure
	case apiclient.KindOf(err) == apiclient.KindForbidden:
		fmt.Fprintln(os.Stderr, "Sign-in failed: the tenant is suspended.")
		return nil, subcommands.ExitFailure
	default:
		return nil, report(os.Stderr, "sign in", err)
	}
}
