package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gosuda/fareledger/internal/domain"
)

// InvoiceQuery selects one page of invoices. The capitalized parameter names
// are what the invoices endpoint expects.
type InvoiceQuery struct {
	AccountID string
	Page      int
	PageSize  int
	Status    domain.InvoiceStatus
	Frequency domain.InvoiceFrequency
	SortBy    string
	SortOrder domain.SortOrder
}

func (q InvoiceQuery) values() url.Values {
	v := url.Values{}
	if q.AccountID != "" {
		v.Set("AccountId", q.AccountID)
	}
	v.Set("Page", strconv.Itoa(q.Page))
	v.Set("PageSize", strconv.Itoa(q.PageSize))
	if q.Status != "" {
		v.Set("status", string(q.Status))
	}
	if q.Frequency != "" {
		v.Set("frequency", string(q.Frequency))
	}
	if q.SortBy != "" {
		v.Set("sortBy", q.SortBy)
		order := q.SortOrder
		if order == "" {
			order = domain.SortAsc
		}
		v.Set("sortOrder", string(order))
	}
	return v
}

// MetadataUpdate is the body of a metadata update. It deliberately has no
// financial or line-item fields.
type MetadataUpdate struct {
	Notes             *string `json:"notes,omitempty"`
	InternalReference *string `json:"internalReference,omitempty"`
	BillingContact    *string `json:"billingContact,omitempty"`
}

// Artifact is a downloaded binary document.
type Artifact struct {
	Body               []byte
	ContentType        string
	ContentDisposition string
}

// ListInvoices fetches one page of invoices.
func (c *Client) ListInvoices(ctx context.Context, q InvoiceQuery) (domain.Page[domain.Invoice], error) {
	resp, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   []string{"invoices"},
		query:  q.values(),
		scoped: true,
	})
	if err != nil {
		return domain.Page[domain.Invoice]{}, err
	}
	return decodePage[domain.Invoice](resp, q.Page, q.PageSize)
}

// GetInvoice fetches one invoice with its line items.
func (c *Client) GetInvoice(ctx context.Context, id string) (*domain.Invoice, error) {
	resp, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   []string{"invoices", id},
		scoped: true,
	})
	if err != nil {
		return nil, err
	}
	return decodeItem[domain.Invoice](resp)
}

// UpdateInvoiceMetadata patches the editable metadata of an invoice and
// returns the server's copy. It is never retried.
func (c *Client) UpdateInvoiceMetadata(ctx context.Context, accountID, id string, u MetadataUpdate) (*domain.Invoice, error) {
	resp, err := c.do(ctx, request{
		method: http.MethodPatch,
		path:   []string{"accounts", accountID, "invoices", id, "metadata"},
		body:   u,
		scoped: true,
	})
	if err != nil {
		return nil, err
	}
	return decodeItem[domain.Invoice](resp)
}

// DownloadInvoicePDF fetches the rendered PDF of an invoice.
func (c *Client) DownloadInvoicePDF(ctx context.Context, accountID, id string) (*Artifact, error) {
	resp, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   []string{"accounts", accountID, "invoices", id, "pdf"},
		scoped: true,
		accept: "application/pdf",
	})
	if err != nil {
		return nil, err
	}
	return &Artifact{
		Body:               resp.body,
		ContentType:        resp.header.Get("Content-Type"),
		ContentDisposition: resp.header.Get("Content-Disposition"),
	}, nil
}
