package apiclient

import (
	"context"
	"net/http"
	"time"

	"github.com/gosuda/fareledger/internal/domain"
)

// Credentials identify a user within a tenant.
type Credentials struct {
	Tenant   string `json:"tenant"` // slug or id
	Email    string `json:"email"`
	Password string `json:"password"` //nolint:gosec // login credential DTO
}

// Session is the authenticated identity the backend reports.
type Session struct {
	Tenant    domain.Tenant `json:"tenant"`
	User      domain.User   `json:"user"`
	ExpiresAt time.Time     `json:"expiresAt"`
}

// Login authenticates and makes the session's tenant the active one.
func (c *Client) Login(ctx context.Context, creds Credentials) (*Session, error) {
	resp, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   []string{"auth", "login"},
		body:   creds,
	})
	if err != nil {
		return nil, err
	}
	return c.adoptSession(resp)
}

// Logout ends the session and clears the active tenant, even when the
// backend call fails.
func (c *Client) Logout(ctx context.Context) error {
	defer c.tenants.Clear()
	_, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   []string{"auth", "logout"},
	})
	return err
}

// Session fetches the current session and refreshes the active tenant.
func (c *Client) Session(ctx context.Context) (*Session, error) {
	resp, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   []string{"auth", "session"},
	})
	if err != nil {
		return nil, err
	}
	return c.adoptSession(resp)
}

// Refresh extends the session.
func (c *Client) Refresh(ctx context.Context) (*Session, error) {
	resp, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   []string{"auth", "refresh"},
	})
	if err != nil {
		return nil, err
	}
	return c.adoptSession(resp)
}

func (c *Client) adoptSession(resp *response) (*Session, error) {
	s, err := decodeItem[Session](resp)
	if err != nil {
		return nil, err
	}
	c.tenants.Set(s.Tenant)
	return s, nil
}
