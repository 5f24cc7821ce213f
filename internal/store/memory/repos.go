package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/gosuda/fareledger/internal/domain"
)

type TenantRepo struct{ s *Store }

func (r *TenantRepo) GetByID(_ context.Context, id string) (*domain.Tenant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.tenants[id]
	if !ok {
		return nil, fmt.Errorf("tenantRepo.GetByID: %w", domain.ErrNotFound)
	}
	out := *t
	return &out, nil
}

func (r *TenantRepo) GetBySlug(_ context.Context, slug string) (*domain.Tenant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, t := range r.s.tenants {
		if t.Slug == slug {
			out := *t
			return &out, nil
		}
	}
	return nil, fmt.Errorf("tenantRepo.GetBySlug: %w", domain.ErrNotFound)
}

type UserRepo struct{ s *Store }

func (r *UserRepo) GetByID(_ context.Context, tenantID, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users[tenantID] {
		if u.ID == id {
			out := *u
			return &out, nil
		}
	}
	return nil, fmt.Errorf("userRepo.GetByID: %w", domain.ErrNotFound)
}

func (r *UserRepo) GetByEmail(_ context.Context, tenantID, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users[tenantID] {
		if strings.EqualFold(u.Email, email) {
			out := *u
			return &out, nil
		}
	}
	return nil, fmt.Errorf("userRepo.GetByEmail: %w", domain.ErrNotFound)
}

type AccountRepo struct{ s *Store }

func (r *AccountRepo) List(_ context.Context, tenantID string, f domain.AccountFilter, offset, limit int) ([]*domain.Account, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []*domain.Account
	for _, a := range r.s.accounts[tenantID] {
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if f.Type != "" && a.Type != f.Type {
			continue
		}
		matched = append(matched, a)
	}
	slices.SortStableFunc(matched, func(a, b *domain.Account) int {
		return cmp.Compare(a.Name, b.Name)
	})

	return cloneAll(window(matched, offset, limit)), len(matched), nil
}

func (r *AccountRepo) GetByID(_ context.Context, tenantID, id string) (*domain.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a := r.s.findAccount(tenantID, id)
	if a == nil {
		return nil, fmt.Errorf("accountRepo.GetByID: %w", domain.ErrNotFound)
	}
	out := *a
	return &out, nil
}

type InvoiceRepo struct{ s *Store }

// List returns invoices without line items; GetByID includes them.
func (r *InvoiceRepo) List(_ context.Context, tenantID string, f domain.InvoiceFilter, offset, limit int) ([]*domain.Invoice, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []*domain.Invoice
	for _, inv := range r.s.invoices[tenantID] {
		if f.AccountID != "" && inv.AccountID != f.AccountID {
			continue
		}
		if f.Status != "" && inv.Status != f.Status {
			continue
		}
		if f.Frequency != "" && inv.Frequency != f.Frequency {
			continue
		}
		matched = append(matched, inv)
	}

	if f.SortBy != "" {
		less := invoiceComparator(f.SortBy)
		if less == nil {
			return nil, 0, fmt.Errorf("invoiceRepo.List: unknown sort field %q", f.SortBy)
		}
		slices.SortStableFunc(matched, func(a, b *domain.Invoice) int {
			if f.SortOrder == domain.SortDesc {
				return less(b, a)
			}
			return less(a, b)
		})
	}

	page := window(matched, offset, limit)
	out := make([]*domain.Invoice, len(page))
	for i, inv := range page {
		c := *inv
		c.LineItems = nil
		out[i] = &c
	}
	return out, len(matched), nil
}

func invoiceComparator(field string) func(a, b *domain.Invoice) int {
	switch field {
	case "invoiceNumber":
		return func(a, b *domain.Invoice) int { return cmp.Compare(a.InvoiceNumber, b.InvoiceNumber) }
	case "billingPeriodStart":
		return func(a, b *domain.Invoice) int { return a.BillingPeriodStart.Time().Compare(b.BillingPeriodStart.Time()) }
	case "dueDate":
		return func(a, b *domain.Invoice) int { return a.DueDate.Time().Compare(b.DueDate.Time()) }
	case "totalCents":
		return func(a, b *domain.Invoice) int { return cmp.Compare(a.TotalCents, b.TotalCents) }
	case "status":
		return func(a, b *domain.Invoice) int { return cmp.Compare(a.Status, b.Status) }
	case "issuedAt":
		return func(a, b *domain.Invoice) int { return compareTimes(a.IssuedAt, b.IssuedAt) }
	default:
		return nil
	}
}

// compareTimes orders unset times first.
func compareTimes(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return a.Compare(*b)
	}
}

func (r *InvoiceRepo) GetByID(_ context.Context, tenantID, id string) (*domain.Invoice, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	inv := r.s.findInvoice(tenantID, id)
	if inv == nil {
		return nil, fmt.Errorf("invoiceRepo.GetByID: %w", domain.ErrNotFound)
	}
	out := *inv
	out.LineItems = slices.Clone(inv.LineItems)
	return &out, nil
}

// UpdateMetadata changes only the editable metadata of an invoice.
func (r *InvoiceRepo) UpdateMetadata(_ context.Context, tenantID, accountID, id string, m domain.InvoiceMetadata) (*domain.Invoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	inv := r.s.findInvoice(tenantID, id)
	if inv == nil || inv.AccountID != accountID {
		return nil, fmt.Errorf("invoiceRepo.UpdateMetadata: %w", domain.ErrNotFound)
	}
	inv.Notes = m.Notes
	inv.InternalReference = m.InternalReference
	inv.BillingContact = m.BillingContact
	inv.UpdatedAt = time.Now().UTC()

	out := *inv
	out.LineItems = slices.Clone(inv.LineItems)
	return &out, nil
}

type LedgerRepo struct{ s *Store }

// List returns entries of an account in posting order.
func (r *LedgerRepo) List(_ context.Context, tenantID, accountID string, f domain.LedgerFilter, offset, limit int) ([]*domain.LedgerEntry, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if r.s.findAccount(tenantID, accountID) == nil {
		return nil, 0, fmt.Errorf("ledgerRepo.List: %w", domain.ErrNotFound)
	}

	var matched []*domain.LedgerEntry
	for _, e := range r.s.ledger[accountID] {
		if f.Match(e) {
			matched = append(matched, e)
		}
	}
	return cloneAll(window(matched, offset, limit)), len(matched), nil
}

func (r *LedgerRepo) GetByID(_ context.Context, tenantID, accountID, id string) (*domain.LedgerEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if r.s.findAccount(tenantID, accountID) == nil {
		return nil, fmt.Errorf("ledgerRepo.GetByID: %w", domain.ErrNotFound)
	}
	for _, e := range r.s.ledger[accountID] {
		if e.ID == id {
			out := *e
			return &out, nil
		}
	}
	return nil, fmt.Errorf("ledgerRepo.GetByID: %w", domain.ErrNotFound)
}

func cloneAll[T any](items []*T) []*T {
	out := make([]*T, len(items))
	for i, it := range items {
		c := *it
		out[i] = &c
	}
	return out
}
