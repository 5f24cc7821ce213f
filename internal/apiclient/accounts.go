package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gosuda/fareledger/internal/domain"
)

// AccountQuery selects one page of accounts.
type AccountQuery struct {
	Page     int
	PageSize int
	Status   domain.AccountStatus
	Type     domain.AccountType
}

func (q AccountQuery) values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("pageSize", strconv.Itoa(q.PageSize))
	if q.Status != "" {
		v.Set("status", string(q.Status))
	}
	if q.Type != "" {
		v.Set("type", string(q.Type))
	}
	return v
}

// ListAccounts fetches one page of the tenant's accounts.
func (c *Client) ListAccounts(ctx context.Context, q AccountQuery) (domain.Page[domain.Account], error) {
	resp, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   []string{"accounts"},
		query:  q.values(),
		scoped: true,
	})
	if err != nil {
		return domain.Page[domain.Account]{}, err
	}
	return decodePage[domain.Account](resp, q.Page, q.PageSize)
}

// GetAccount fetches one account.
func (c *Client) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	resp, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   []string{"accounts", id},
		scoped: true,
	})
	if err != nil {
		return nil, err
	}
	return decodeItem[domain.Account](resp)
}
