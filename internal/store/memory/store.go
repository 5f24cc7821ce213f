// Package memory is an in-process implementation of the domain repositories
// backing the stub API server.
package memory

import (
	"slices"
	"sync"

	"github.com/gosuda/fareledger/internal/domain"
)

type Store struct {
	mu sync.RWMutex

	tenants  map[string]*domain.Tenant
	users    map[string][]*domain.User        // by tenant
	accounts map[string][]*domain.Account     // by tenant
	invoices map[string][]*domain.Invoice     // by tenant
	ledger   map[string][]*domain.LedgerEntry // by account

	tenantRepo  *TenantRepo
	userRepo    *UserRepo
	accountRepo *AccountRepo
	invoiceRepo *InvoiceRepo
	ledgerRepo  *LedgerRepo
}

func New() *Store {
	s := &Store{
		tenants:  map[string]*domain.Tenant{},
		users:    map[string][]*domain.User{},
		accounts: map[string][]*domain.Account{},
		invoices: map[string][]*domain.Invoice{},
		ledger:   map[string][]*domain.LedgerEntry{},
	}
	s.tenantRepo = &TenantRepo{s: s}
	s.userRepo = &UserRepo{s: s}
	s.accountRepo = &AccountRepo{s: s}
	s.invoiceRepo = &InvoiceRepo{s: s}
	s.ledgerRepo = &LedgerRepo{s: s}
	return s
}

func (s *Store) Tenants() domain.TenantRepository   { return s.tenantRepo }
func (s *Store) Users() domain.UserRepository       { return s.userRepo }
func (s *Store) Accounts() domain.AccountRepository { return s.accountRepo }
func (s *Store) Invoices() domain.InvoiceRepository { return s.invoiceRepo }
func (s *Store) Ledger() domain.LedgerRepository    { return s.ledgerRepo }

// PutTenant inserts or replaces a tenant.
func (s *Store) PutTenant(t domain.Tenant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenants[t.ID] = &t
}

func (s *Store) PutUser(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.TenantID] = append(s.users[u.TenantID], &u)
}

func (s *Store) PutAccount(a domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[a.TenantID] = append(s.accounts[a.TenantID], &a)
}

func (s *Store) PutInvoice(tenantID string, inv domain.Invoice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invoices[tenantID] = append(s.invoices[tenantID], &inv)
}

// AppendEntry posts e to its account. Entries are kept in posting order and
// running balances are recomputed, so the account's current balance always
// equals the last running balance.
func (s *Store) AppendEntry(tenantID string, e domain.LedgerEntry) error {
	if err := e.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acct := s.findAccount(tenantID, e.AccountID)
	if acct == nil {
		return domain.ErrNotFound
	}
	entries := append(s.ledger[e.AccountID], &e)
	slices.SortStableFunc(entries, func(a, b *domain.LedgerEntry) int {
		return a.PostingDate.Time().Compare(b.PostingDate.Time())
	})

	var balance int64
	for _, entry := range entries {
		balance += entry.Amount()
		entry.RunningBalance = balance
	}
	s.ledger[e.AccountID] = entries
	acct.CurrentBalance = balance
	return nil
}

func (s *Store) findAccount(tenantID, id string) *domain.Account {
	for _, a := range s.accounts[tenantID] {
		if a.ID == id {
			return a
		}
	}
	return nil
}

func (s *Store) findInvoice(tenantID, id string) *domain.Invoice {
	for _, inv := range s.invoices[tenantID] {
		if inv.ID == id {
			return inv
		}
	}
	return nil
}

// window returns items[offset:offset+limit] clamped to the slice bounds.
func window[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
