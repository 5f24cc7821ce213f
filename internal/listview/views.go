package listview

import (
	"context"
	"errors"

	"github.com/gosuda/fareledger/internal/apiclient"
	"github.com/gosuda/fareledger/internal/domain"
)

// Filter keys, by entity.
const (
	FilterStatus          = "status"
	FilterType            = "type"
	FilterFrequency       = "frequency"
	FilterStartDate       = "startDate"
	FilterEndDate         = "endDate"
	FilterSourceType      = "sourceType"
	FilterLinkedInvoiceID = "linkedInvoiceId"
)

var errNotEnumerated = errors.New("not an allowed value")

type AccountLister interface {
	ListAccounts(ctx context.Context, q apiclient.AccountQuery) (domain.Page[domain.Account], error)
}

type InvoiceLister interface {
	ListInvoices(ctx context.Context, q apiclient.InvoiceQuery) (domain.Page[domain.Invoice], error)
}

type LedgerLister interface {
	ListLedgerEntries(ctx context.Context, accountID string, q apiclient.LedgerQuery) (domain.Page[domain.LedgerEntry], error)
}

// ViewOptions are shared by the entity views.
type ViewOptions struct {
	PageSize int
	Config   Config // Logger is honored; shape fields are overwritten
}

// NewAccountsView lists the tenant's accounts, filterable by status and type.
func NewAccountsView(l AccountLister, opts ViewOptions) *View[domain.Account] {
	cfg := opts.Config
	cfg.PageSize = opts.PageSize
	cfg.FilterKeys = []string{FilterStatus, FilterType}
	cfg.SortKeys = nil
	cfg.ValidateFilter = func(key, value string) error {
		switch key {
		case FilterStatus:
			return check(domain.AccountStatus(value).Valid())
		case FilterType:
			return check(domain.AccountType(value).Valid())
		}
		return nil
	}

	return New(cfg, func(ctx context.Context, q Query) (domain.Page[domain.Account], error) {
		return l.ListAccounts(ctx, apiclient.AccountQuery{
			Page:     q.Page,
			PageSize: q.PageSize,
			Status:   domain.AccountStatus(q.Filters[FilterStatus]),
			Type:     domain.AccountType(q.Filters[FilterType]),
		})
	})
}

// NewInvoicesView lists invoices of one account (all accounts when
// accountID is empty), filterable by status and frequency and sortable.
func NewInvoicesView(l InvoiceLister, accountID string, opts ViewOptions) *View[domain.Invoice] {
	cfg := opts.Config
	cfg.PageSize = opts.PageSize
	cfg.FilterKeys = []string{FilterStatus, FilterFrequency}
	cfg.SortKeys = domain.InvoiceSortFields
	cfg.ValidateFilter = func(key, value string) error {
		switch key {
		case FilterStatus:
			return check(domain.InvoiceStatus(value).Valid())
		case FilterFrequency:
			return check(domain.InvoiceFrequency(value).Valid())
		}
		return nil
	}

	return New(cfg, func(ctx context.Context, q Query) (domain.Page[domain.Invoice], error) {
		return l.ListInvoices(ctx, apiclient.InvoiceQuery{
			AccountID: accountID,
			Page:      q.Page,
			PageSize:  q.PageSize,
			Status:    domain.InvoiceStatus(q.Filters[FilterStatus]),
			Frequency: domain.InvoiceFrequency(q.Filters[FilterFrequency]),
			SortBy:    q.SortBy,
			SortOrder: q.SortOrder,
		})
	})
}

// NewLedgerView lists the statement of one account, filterable by posting
// date range, source type and linked invoice.
func NewLedgerView(l LedgerLister, accountID string, opts ViewOptions) *View[domain.LedgerEntry] {
	cfg := opts.Config
	cfg.PageSize = opts.PageSize
	cfg.FilterKeys = []string{FilterStartDate, FilterEndDate, FilterSourceType, FilterLinkedInvoiceID}
	cfg.SortKeys = nil
	cfg.ValidateFilter = func(key, value string) error {
		switch key {
		case FilterStartDate, FilterEndDate:
			_, err := domain.ParseDate(value)
			return err
		case FilterSourceType:
			return check(domain.SourceType(value).Valid())
		}
		return nil
	}

	return New(cfg, func(ctx context.Context, q Query) (domain.Page[domain.LedgerEntry], error) {
		// Values were validated by SetFilter.
		start, _ := parseOptionalDate(q.Filters[FilterStartDate])
		end, _ := parseOptionalDate(q.Filters[FilterEndDate])
		return l.ListLedgerEntries(ctx, accountID, apiclient.LedgerQuery{
			Page:            q.Page,
			PageSize:        q.PageSize,
			StartDate:       start,
			EndDate:         end,
			SourceType:      domain.SourceType(q.Filters[FilterSourceType]),
			LinkedInvoiceID: q.Filters[FilterLinkedInvoiceID],
		})
	})
}

func check(ok bool) error {
	if !ok {
		return errNotEnumerated
	}
	return nil
}

func parseOptionalDate(s string) (domain.Date, error) {
	if s == "" {
		return domain.Date{}, nil
	}
	return domain.ParseDate(s)
}
