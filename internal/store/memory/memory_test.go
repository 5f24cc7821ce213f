package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/fareledger/internal/domain"
	"github.com/gosuda/fareledger/internal/store/memory"
)

func seeded(t *testing.T) *memory.Store {
	t.Helper()
	s := memory.New()
	require.NoError(t, memory.Seed(s, "salt$hash"))
	return s
}

func TestSeed_Tenants(t *testing.T) {
	t.Parallel()

	s := seeded(t)
	ctx := context.Background()

	tnt, err := s.Tenants().GetBySlug(ctx, "metro-cabs")
	require.NoError(t, err)
	assert.Equal(t, memory.MetroTenantID, tnt.ID)
	assert.Equal(t, domain.TenantStatusActive, tnt.Status)

	_, err = s.Tenants().GetBySlug(ctx, "nope")
	require.ErrorIs(t, err, domain.ErrNotFound)

	u, err := s.Users().GetByEmail(ctx, memory.MetroTenantID, "OPS@metro.test")
	require.NoError(t, err)
	assert.Equal(t, "salt$hash", u.PasswordHash)

	_, err = s.Users().GetByEmail(ctx, memory.HarborTenantID, "ops@metro.test")
	require.ErrorIs(t, err, domain.ErrNotFound, "users are tenant scoped")
}

func TestAccountRepo_List(t *testing.T) {
	t.Parallel()

	s := seeded(t)
	ctx := context.Background()

	page, total, err := s.Accounts().List(ctx, memory.MetroTenantID, domain.AccountFilter{}, 50, 50)
	require.NoError(t, err)
	assert.Equal(t, memory.SeedAccounts, total)
	assert.Len(t, page, memory.SeedAccounts-50)

	beyond, total, err := s.Accounts().List(ctx, memory.MetroTenantID, domain.AccountFilter{}, 500, 50)
	require.NoError(t, err)
	assert.Equal(t, memory.SeedAccounts, total)
	assert.Empty(t, beyond)

	closed, _, err := s.Accounts().List(ctx, memory.MetroTenantID, domain.AccountFilter{Status: domain.AccountStatusClosed}, 0, 100)
	require.NoError(t, err)
	require.NotEmpty(t, closed)
	for _, a := range closed {
		assert.Equal(t, domain.AccountStatusClosed, a.Status)
	}

	harbor, total, err := s.Accounts().List(ctx, memory.HarborTenantID, domain.AccountFilter{}, 0, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, memory.HarborTenantID, harbor[0].TenantID)
}

func TestAccountRepo_GetByID_TenantScoped(t *testing.T) {
	t.Parallel()

	s := seeded(t)
	id := memory.SeedID("account", memory.MetroTenantID, 1)

	a, err := s.Accounts().GetByID(context.Background(), memory.MetroTenantID, id)
	require.NoError(t, err)
	assert.Equal(t, "Account 001", a.Name)
	require.NotNil(t, a.LastInvoiceDate)

	_, err = s.Accounts().GetByID(context.Background(), memory.HarborTenantID, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInvoiceRepo_ListSortsAndFilters(t *testing.T) {
	t.Parallel()

	s := seeded(t)
	ctx := context.Background()

	desc, total, err := s.Invoices().List(ctx, memory.MetroTenantID, domain.InvoiceFilter{SortBy: "totalCents", SortOrder: domain.SortDesc}, 0, 200)
	require.NoError(t, err)
	assert.Equal(t, memory.SeedInvoicedAccounts*(memory.SeedInvoicesPerAccount+1), total)
	for i := 1; i < len(desc); i++ {
		assert.GreaterOrEqual(t, desc[i-1].TotalCents, desc[i].TotalCents)
	}
	for _, inv := range desc {
		assert.Nil(t, inv.LineItems, "listings omit line items")
	}

	acct := memory.SeedID("account", memory.MetroTenantID, 2)
	overdue, total, err := s.Invoices().List(ctx, memory.MetroTenantID, domain.InvoiceFilter{AccountID: acct, Status: domain.InvoiceStatusOverdue}, 0, 50)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, acct, overdue[0].AccountID)

	_, _, err = s.Invoices().List(ctx, memory.MetroTenantID, domain.InvoiceFilter{SortBy: "lineItems"}, 0, 50)
	assert.Error(t, err)
}

func TestInvoiceRepo_UpdateMetadata(t *testing.T) {
	t.Parallel()

	s := seeded(t)
	ctx := context.Background()
	acct := memory.SeedID("account", memory.MetroTenantID, 1)
	id := memory.SeedID("invoice", memory.MetroTenantID, acct, 0)

	before, err := s.Invoices().GetByID(ctx, memory.MetroTenantID, id)
	require.NoError(t, err)
	require.Len(t, before.LineItems, 3)

	after, err := s.Invoices().UpdateMetadata(ctx, memory.MetroTenantID, acct, id, domain.InvoiceMetadata{
		Notes: "paid early", InternalReference: "PO-1", BillingContact: "ap@metro.test",
	})
	require.NoError(t, err)
	assert.Equal(t, "paid early", after.Notes)
	assert.Equal(t, before.TotalCents, after.TotalCents)
	assert.Equal(t, before.LineItems, after.LineItems)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))

	_, err = s.Invoices().UpdateMetadata(ctx, memory.MetroTenantID, "other-account", id, domain.InvoiceMetadata{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLedgerRepo_RunningBalances(t *testing.T) {
	t.Parallel()

	s := seeded(t)
	ctx := context.Background()
	acct := memory.SeedID("account", memory.MetroTenantID, 1)

	entries, total, err := s.Ledger().List(ctx, memory.MetroTenantID, acct, domain.LedgerFilter{}, 0, 1000)
	require.NoError(t, err)
	require.Equal(t, total, len(entries))

	var balance int64
	for i, e := range entries {
		require.NoError(t, e.Validate())
		balance += e.Amount()
		assert.Equal(t, balance, e.RunningBalance)
		if i > 0 {
			assert.False(t, e.PostingDate.Before(entries[i-1].PostingDate))
		}
	}

	a, err := s.Accounts().GetByID(ctx, memory.MetroTenantID, acct)
	require.NoError(t, err)
	assert.Equal(t, balance, a.CurrentBalance)
	assert.Positive(t, a.CurrentBalance, "two invoices remain unpaid")
}

func TestLedgerRepo_Filter(t *testing.T) {
	t.Parallel()

	s := seeded(t)
	ctx := context.Background()
	acct := memory.SeedID("account", memory.MetroTenantID, 1)
	f := domain.LedgerFilter{
		StartDate:  domain.NewDate(2025, time.March, 1),
		EndDate:    domain.NewDate(2025, time.March, 31),
		SourceType: domain.SourceTypeRide,
	}

	entries, total, err := s.Ledger().List(ctx, memory.MetroTenantID, acct, f, 0, 100)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	for _, e := range entries {
		assert.Equal(t, domain.SourceTypeRide, e.SourceType)
	}

	_, _, err = s.Ledger().List(ctx, memory.HarborTenantID, acct, domain.LedgerFilter{}, 0, 100)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_AppendEntryRejectsTwoSided(t *testing.T) {
	t.Parallel()

	s := seeded(t)
	err := s.AppendEntry(memory.MetroTenantID, domain.LedgerEntry{
		ID: "bad", AccountID: memory.SeedID("account", memory.MetroTenantID, 5), DebitAmount: 1, CreditAmount: 1,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidEntry)
}
