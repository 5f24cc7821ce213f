package v1

import (
	"context"

	"github.com/gosuda/fareledger/internal/auth"
	"github.com/gosuda/fareledger/internal/domain"
)

// DataStore abstracts the repository accessor pattern for handler testing.
// *memory.Store satisfies this interface.
type DataStore interface {
	Accounts() domain.AccountRepository
	Invoices() domain.InvoiceRepository
	Ledger() domain.LedgerRepository
}

// AuthService abstracts authentication operations for handler testing.
// *auth.Service satisfies this interface.
type AuthService interface {
	Login(ctx context.Context, tenantRef, email, password string) (*auth.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.Session, error)
	Resume(ctx context.Context, accessToken string) (*auth.Session, error)
}
