package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gosuda/fareledger/internal/domain"
)

// LedgerQuery selects one page of an account statement. Zero dates are unbounded.
type LedgerQuery struct {
	Page            int
	PageSize        int
	StartDate       domain.Date
	EndDate         domain.Date
	SourceType      domain.SourceType
	LinkedInvoiceID string
}

func (q LedgerQuery) values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("pageSize", strconv.Itoa(q.PageSize))
	if !q.StartDate.IsZero() {
		v.Set("startDate", q.StartDate.String())
	}
	if !q.EndDate.IsZero() {
		v.Set("endDate", q.EndDate.String())
	}
	if q.SourceType != "" {
		v.Set("sourceType", string(q.SourceType))
	}
	if q.LinkedInvoiceID != "" {
		v.Set("linkedInvoiceId", q.LinkedInvoiceID)
	}
	return v
}

// ListLedgerEntries fetches one page of an account's statement.
func (c *Client) ListLedgerEntries(ctx context.Context, accountID string, q LedgerQuery) (domain.Page[domain.LedgerEntry], error) {
	resp, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   []string{"accounts", accountID, "statements"},
		query:  q.values(),
		scoped: true,
	})
	if err != nil {
		return domain.Page[domain.LedgerEntry]{}, err
	}
	return decodePage[domain.LedgerEntry](resp, q.Page, q.PageSize)
}

// GetLedgerEntry fetches one ledger entry.
func (c *Client) GetLedgerEntry(ctx context.Context, accountID, id string) (*domain.LedgerEntry, error) {
	resp, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   []string{"accounts", accountID, "ledger", id},
		scoped: true,
	})
	if err != nil {
		return nil, err
	}
	return decodeItem[domain.LedgerEntry](resp)
}
