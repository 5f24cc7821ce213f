package memory

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/fareledger/internal/domain"
)

// Fixture tenants.
const (
	MetroTenantID  = "5f1c3a7e-0d0b-4b7c-9a51-6f3d2e1c0a01"
	HarborTenantID = "5f1c3a7e-0d0b-4b7c-9a51-6f3d2e1c0a02"
	ClosedTenantID = "5f1c3a7e-0d0b-4b7c-9a51-6f3d2e1c0a03"
)

// Fixture sizes for the metro tenant.
const (
	SeedAccounts           = 60
	SeedInvoicedAccounts   = 4
	SeedInvoicesPerAccount = 14
)

var seedNamespace = uuid.MustParse("0b6e3c1f-8a0a-4f5e-b7a2-2f9d7c2a6e10")

// SeedID derives a stable id for a fixture entity.
func SeedID(parts ...any) string {
	return uuid.NewSHA1(seedNamespace, []byte(fmt.Sprint(parts...))).String()
}

// Seed loads the demo data set. Every fixture user signs in with the
// password whose argon2id hash is passwordHash.
func Seed(s *Store, passwordHash string) error {
	epoch := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	s.PutTenant(domain.Tenant{ID: MetroTenantID, Name: "Metro Cabs", Slug: "metro-cabs", Status: domain.TenantStatusActive})
	s.PutTenant(domain.Tenant{ID: HarborTenantID, Name: "Harbor Taxi", Slug: "harbor-taxi", Status: domain.TenantStatusActive})
	s.PutTenant(domain.Tenant{ID: ClosedTenantID, Name: "Night Owl Rides", Slug: "night-owl", Status: domain.TenantStatusSuspended})

	for _, u := range []domain.User{
		{TenantID: MetroTenantID, Email: "ops@metro.test", Name: "Metro Ops", Role: "admin"},
		{TenantID: MetroTenantID, Email: "viewer@metro.test", Name: "Metro Viewer", Role: "viewer"},
		{TenantID: HarborTenantID, Email: "ops@harbor.test", Name: "Harbor Ops", Role: "admin"},
		{TenantID: ClosedTenantID, Email: "ops@nightowl.test", Name: "Night Owl Ops", Role: "admin"},
	} {
		u.ID = SeedID("user", u.TenantID, u.Email)
		u.PasswordHash = passwordHash
		u.CreatedAt = epoch
		s.PutUser(u)
	}

	for i := 1; i <= SeedAccounts; i++ {
		acct := seedAccount(MetroTenantID, i, epoch)
		s.PutAccount(acct)
		if i <= SeedInvoicedAccounts {
			if err := seedBilling(s, MetroTenantID, acct, i); err != nil {
				return err
			}
		}
	}

	harbor := seedAccount(HarborTenantID, 1, epoch)
	harbor.Name = "Harbor Logistics"
	s.PutAccount(harbor)
	return seedBilling(s, HarborTenantID, harbor, 1)
}

func seedAccount(tenantID string, i int, epoch time.Time) domain.Account {
	a := domain.Account{
		ID:        SeedID("account", tenantID, i),
		TenantID:  tenantID,
		Name:      fmt.Sprintf("Account %03d", i),
		Type:      domain.AccountTypeOrganization,
		Status:    domain.AccountStatusActive,
		CreatedAt: epoch.AddDate(0, 0, i),
		UpdatedAt: epoch.AddDate(0, 0, i),
	}
	if i%3 == 0 {
		a.Type = domain.AccountTypeIndividual
	}
	switch {
	case i%10 == 0:
		a.Status = domain.AccountStatusClosed
	case i%7 == 0:
		a.Status = domain.AccountStatusSuspended
	}
	return a
}

// seedBilling creates monthly invoices with ride ledger entries (fare plus
// tax) and pays all but the last two.
func seedBilling(s *Store, tenantID string, acct domain.Account, n int) error {
	var lastIssued domain.Date
	for m := range SeedInvoicesPerAccount {
		start := time.Date(2025, time.Month(m+1), 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 1, -1)
		issued := end.AddDate(0, 0, 1).Add(9 * time.Hour)
		number := fmt.Sprintf("INV-%s-%03d", start.Format("200601"), n)
		invID := SeedID("invoice", tenantID, acct.ID, m)

		var items []domain.InvoiceLineItem
		var subtotal, tax int64
		for r := range 3 {
			fare := int64(1500 + 250*r + 100*n + 10*m)
			ride := start.AddDate(0, 0, 3+r*9)
			rideID := SeedID("ride", tenantID, acct.ID, m, r)
			items = append(items, domain.InvoiceLineItem{
				ID:          SeedID("line", invID, r),
				RideID:      rideID,
				RideDate:    domain.DateOf(ride),
				FareCents:   fare,
				Description: fmt.Sprintf("Ride %d on %s", r+1, ride.Format("Jan 2")),
			})
			rideTax := fare * 8 / 100
			subtotal += fare
			tax += rideTax

			linked := invID
			if err := s.AppendEntry(tenantID, domain.LedgerEntry{
				ID:                SeedID("entry", rideID),
				AccountID:         acct.ID,
				PostingDate:       domain.DateOf(ride),
				SourceType:        domain.SourceTypeRide,
				SourceReferenceID: rideID,
				DebitAmount:       fare + rideTax,
				LinkedInvoiceID:   &linked,
				Metadata:          map[string]any{"driver": fmt.Sprintf("D-%02d", (r+m)%12+1), "taxCents": rideTax},
				CreatedAt:         ride,
			}); err != nil {
				return err
			}
		}

		inv := domain.Invoice{
			ID:                 invID,
			AccountID:          acct.ID,
			InvoiceNumber:      number,
			BillingPeriodStart: domain.DateOf(start),
			BillingPeriodEnd:   domain.DateOf(end),
			Frequency:          domain.InvoiceFrequencyMonthly,
			SubtotalCents:      subtotal,
			TaxCents:           tax,
			TotalCents:         subtotal + tax,
			Status:             domain.InvoiceStatusIssued,
			DueDate:            domain.DateOf(issued.AddDate(0, 0, 30)),
			IssuedAt:           &issued,
			LineItems:          items,
			CreatedAt:          issued,
			UpdatedAt:          issued,
		}
		lastIssued = domain.DateOf(issued)

		switch {
		case m < SeedInvoicesPerAccount-2:
			paid := issued.AddDate(0, 0, 12)
			inv.Status = domain.InvoiceStatusPaid
			inv.PaidAt = &paid
			linked := invID
			if err := s.AppendEntry(tenantID, domain.LedgerEntry{
				ID:                SeedID("payment", invID),
				AccountID:         acct.ID,
				PostingDate:       domain.DateOf(paid),
				SourceType:        domain.SourceTypePayment,
				SourceReferenceID: SeedID("payment-ref", invID),
				CreditAmount:      inv.TotalCents,
				LinkedInvoiceID:   &linked,
				Metadata:          map[string]any{"method": "ach"},
				CreatedAt:         paid,
			}); err != nil {
				return err
			}
		case m == SeedInvoicesPerAccount-2:
			inv.Status = domain.InvoiceStatusOverdue
		}
		s.PutInvoice(tenantID, inv)
	}

	draft := domain.Invoice{
		ID:                 SeedID("invoice", tenantID, acct.ID, "draft"),
		AccountID:          acct.ID,
		InvoiceNumber:      fmt.Sprintf("INV-DRAFT-%03d", n),
		BillingPeriodStart: domain.NewDate(2026, time.March, 1),
		BillingPeriodEnd:   domain.NewDate(2026, time.March, 31),
		Frequency:          domain.InvoiceFrequencyPerRide,
		Status:             domain.InvoiceStatusDraft,
		DueDate:            domain.NewDate(2026, time.April, 30),
		CreatedAt:          time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:          time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	s.PutInvoice(tenantID, draft)

	s.mu.Lock()
	if a := s.findAccount(tenantID, acct.ID); a != nil {
		a.LastInvoiceDate = &lastIssued
	}
	s.mu.Unlock()
	return nil
}
