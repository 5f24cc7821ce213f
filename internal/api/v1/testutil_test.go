package v1_test

import (
	"context"

	"github.com/gosuda/fareledger/internal/auth"
	"github.com/gosuda/fareledger/internal/domain"
	"github.com/gosuda/fareledger/internal/server/middleware"
)

const testTenant = "tenant-1"

// ---------------------------------------------------------------------------
// Context helpers: inject tenant and role into context for DoCtx
// ---------------------------------------------------------------------------

func tenantCtx(tenantID string) context.Context {
	ctx := context.Background()
	ctx = context.WithValue(ctx, middleware.ContextKeyTenantID, tenantID)
	return ctx
}

func roleCtx(tenantID, role string) context.Context {
	ctx := tenantCtx(tenantID)
	ctx = context.WithValue(ctx, middleware.ContextKeyUserRole, role)
	return ctx
}

// ---------------------------------------------------------------------------
// Mock DataStore
// ---------------------------------------------------------------------------

type mockDataStore struct {
	accounts domain.AccountRepository
	invoices domain.InvoiceRepository
	ledger   domain.LedgerRepository
}

func (m *mockDataStore) Accounts() domain.AccountRepository { return m.accounts }
func (m *mockDataStore) Invoices() domain.InvoiceRepository { return m.invoices }
func (m *mockDataStore) Ledger() domain.LedgerRepository    { return m.ledger }

// ---------------------------------------------------------------------------
// Mock AccountRepository
// ---------------------------------------------------------------------------

type mockAccountRepo struct {
	listFunc    func(ctx context.Context, tenantID string, f domain.AccountFilter, offset, limit int) ([]*domain.Account, int, error)
	getByIDFunc func(ctx context.Context, tenantID, id string) (*domain.Account, error)
}

func (m *mockAccountRepo) List(ctx context.Context, tenantID string, f domain.AccountFilter, offset, limit int) ([]*domain.Account, int, error) {
	return m.listFunc(ctx, tenantID, f, offset, limit)
}

func (m *mockAccountRepo) GetByID(ctx context.Context, tenantID, id string) (*domain.Account, error) {
	return m.getByIDFunc(ctx, tenantID, id)
}

// ---------------------------------------------------------------------------
// Mock InvoiceRepository
// ---------------------------------------------------------------------------

type mockInvoiceRepo struct {
	listFunc           func(ctx context.Context, tenantID string, f domain.InvoiceFilter, offset, limit int) ([]*domain.Invoice, int, error)
	getByIDFunc        func(ctx context.Context, tenantID, id string) (*domain.Invoice, error)
	updateMetadataFunc func(ctx context.Context, tenantID, accountID, id string, m domain.InvoiceMetadata) (*domain.Invoice, error)
}

func (m *mockInvoiceRepo) List(ctx context.Context, tenantID string, f domain.InvoiceFilter, offset, limit int) ([]*domain.Invoice, int, error) {
	return m.listFunc(ctx, tenantID, f, offset, limit)
}

func (m *mockInvoiceRepo) GetByID(ctx context.Context, tenantID, id string) (*domain.Invoice, error) {
	return m.getByIDFunc(ctx, tenantID, id)
}

func (m *mockInvoiceRepo) UpdateMetadata(ctx context.Context, tenantID, accountID, id string, md domain.InvoiceMetadata) (*domain.Invoice, error) {
	return m.updateMetadataFunc(ctx, tenantID, accountID, id, md)
}

// ---------------------------------------------------------------------------
// Mock LedgerRepository
// ---------------------------------------------------------------------------

type mockLedgerRepo struct {
	listFunc    func(ctx context.Context, tenantID, accountID string, f domain.LedgerFilter, offset, limit int) ([]*domain.LedgerEntry, int, error)
	getByIDFunc func(ctx context.Context, tenantID, accountID, id string) (*domain.LedgerEntry, error)
}

func (m *mockLedgerRepo) List(ctx context.Context, tenantID, accountID string, f domain.LedgerFilter, offset, limit int) ([]*domain.LedgerEntry, int, error) {
	return m.listFunc(ctx, tenantID, accountID, f, offset, limit)
}

func (m *mockLedgerRepo) GetByID(ctx context.Context, tenantID, accountID, id string) (*domain.LedgerEntry, error) {
	return m.getByIDFunc(ctx, tenantID, accountID, id)
}

// ---------------------------------------------------------------------------
// Mock AuthService
// ---------------------------------------------------------------------------

type mockAuthService struct {
	loginFunc   func(ctx context.Context, tenantRef, email, password string) (*auth.Session, error)
	refreshFunc func(ctx context.Context, refreshToken string) (*auth.Session, error)
	resumeFunc  func(ctx context.Context, accessToken string) (*auth.Session, error)
}

func (m *mockAuthService) Login(ctx context.Context, tenantRef, email, password string) (*auth.Session, error) {
	return m.loginFunc(ctx, tenantRef, email, password)
}

func (m *mockAuthService) Refresh(ctx context.Context, refreshToken string) (*auth.Session, error) {
	return m.refreshFunc(ctx, refreshToken)
}

func (m *mockAuthService) Resume(ctx context.Context, accessToken string) (*auth.Session, error) {
	return m.resumeFunc(ctx, accessToken)
}
