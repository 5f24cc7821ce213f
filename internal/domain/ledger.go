package domain

import (
	"context"
	"errors"
	"time"
)

type SourceType string

const (
	SourceTypeRide    SourceType = "ride"
	SourceTypePayment SourceType = "payment"
)

func (s SourceType) Valid() bool { return s == SourceTypeRide || s == SourceTypePayment }

// LedgerEntry is an append-only debit or credit against an account.
type LedgerEntry struct {
	ID                string         `json:"id"`
	AccountID         string         `json:"accountId"`
	PostingDate       Date           `json:"postingDate"`
	SourceType        SourceType     `json:"sourceType"`
	SourceReferenceID string         `json:"sourceReferenceId"`
	DebitAmount       int64          `json:"debitAmount"`
	CreditAmount      int64          `json:"creditAmount"`
	RunningBalance    int64          `json:"runningBalance"`
	LinkedInvoiceID   *string        `json:"linkedInvoiceId"`
	Metadata          map[string]any `json:"metadata"`
	CreatedAt         time.Time      `json:"createdAt"`
}

var ErrInvalidEntry = errors.New("ledger: exactly one of debit or credit must be nonzero")

// Validate checks the one-sided posting invariant.
func (e *LedgerEntry) Validate() error {
	if (e.DebitAmount != 0) == (e.CreditAmount != 0) {
		return ErrInvalidEntry
	}
	return nil
}

// Amount returns the signed effect of the entry on the balance.
func (e *LedgerEntry) Amount() int64 {
	return e.DebitAmount - e.CreditAmount
}

// LedgerFilter narrows a statement listing. Zero fields match everything.
type LedgerFilter struct {
	StartDate       Date
	EndDate         Date
	SourceType      SourceType
	LinkedInvoiceID string
}

// Match reports whether e passes the filter. Date bounds are inclusive.
func (f LedgerFilter) Match(e *LedgerEntry) bool {
	if !f.StartDate.IsZero() && e.PostingDate.Before(f.StartDate) {
		return false
	}
	if !f.EndDate.IsZero() && e.PostingDate.After(f.EndDate) {
		return false
	}
	if f.SourceType != "" && e.SourceType != f.SourceType {
		return false
	}
	if f.LinkedInvoiceID != "" && (e.LinkedInvoiceID == nil || *e.LinkedInvoiceID != f.LinkedInvoiceID) {
		return false
	}
	return true
}

type LedgerRepository interface {
	List(ctx context.Context, tenantID, accountID string, f LedgerFilter, offset, limit int) ([]*LedgerEntry, int, error)
	GetByID(ctx context.Context, tenantID, accountID, id string) (*LedgerEntry, error)
}
