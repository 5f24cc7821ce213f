package apiclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/fareledger/internal/apiclient"
	"github.com/gosuda/fareledger/internal/domain"
	"github.com/gosuda/fareledger/internal/tenant"
)

const testTenantID = "5b6f2d1c-8c1e-4f7e-9a2b-0c3d4e5f6a7b"

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newTestClient(t *testing.T, h http.Handler, withTenant bool) (*apiclient.Client, *tenant.Store) {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	store := tenant.NewStore()
	if withTenant {
		store.Set(domain.Tenant{ID: testTenantID, Name: "Acme Rides", Status: domain.TenantStatusActive})
	}

	logger := zerolog.Nop()
	c, err := apiclient.New(apiclient.Options{
		BaseURL: srv.URL,
		Tenants: store,
		Retry:   &apiclient.RetryPolicy{Attempts: 2, Delay: time.Millisecond},
		Logger:  &logger,
	})
	require.NoError(t, err)
	return c, store
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ---------------------------------------------------------------------------
// 1. Options
// ---------------------------------------------------------------------------

func TestNew_RejectsBadOptions(t *testing.T) {
	t.Parallel()

	store := tenant.NewStore()

	tests := []struct {
		name string
		opts apiclient.Options
	}{
		{"no store", apiclient.Options{BaseURL: "http://localhost"}},
		{"relative url", apiclient.Options{BaseURL: "/api", Tenants: store}},
		{"ftp url", apiclient.Options{BaseURL: "ftp://host", Tenants: store}},
		{"negative retry", apiclient.Options{BaseURL: "http://localhost", Tenants: store, Retry: &apiclient.RetryPolicy{Attempts: -1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := apiclient.New(tt.opts)
			assert.Error(t, err)
		})
	}
}

// ---------------------------------------------------------------------------
// 2. Signing
// ---------------------------------------------------------------------------

func TestClient_NoTenantFailsBeforeNetwork(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}), false)

	_, err := c.ListAccounts(context.Background(), apiclient.AccountQuery{Page: 1, PageSize: 10})

	require.Error(t, err)
	assert.Equal(t, apiclient.KindUnauthorized, apiclient.KindOf(err))
	assert.ErrorIs(t, err, tenant.ErrTenantNotSet)
	assert.Equal(t, int32(0), calls.Load())
}

func TestClient_AttachesTenantAndCorrelationHeaders(t *testing.T) {
	t.Parallel()

	var (
		mu             sync.Mutex
		correlationIDs []string
		tenantHeaders  []string
		paths          []string
	)
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		correlationIDs = append(correlationIDs, r.Header.Get(apiclient.HeaderCorrelationID))
		tenantHeaders = append(tenantHeaders, r.Header.Get(apiclient.HeaderTenantID))
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"id": "acc-1"}})
	}), true)

	ctx := context.Background()
	_, err := c.GetAccount(ctx, "acc-1")
	require.NoError(t, err)
	_, err = c.GetAccount(ctx, "acc-1")
	require.NoError(t, err)

	require.Len(t, correlationIDs, 2)
	for _, id := range correlationIDs {
		parsed, err := uuid.Parse(id)
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(4), parsed.Version())
	}
	assert.NotEqual(t, correlationIDs[0], correlationIDs[1], "correlation ids are never reused")
	assert.Equal(t, []string{testTenantID, testTenantID}, tenantHeaders)
	assert.Equal(t, "/"+testTenantID+"/accounts/acc-1", paths[0])
}

func TestClient_XSRFHeaderOnMutatingCallsOnly(t *testing.T) {
	t.Parallel()

	var gotGet, gotPatch string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, _ *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: apiclient.CookieXSRFToken, Value: "tok-123", Path: "/"})
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{
			"tenant": map[string]any{"id": testTenantID, "name": "Acme Rides", "status": "active"},
		}})
	})
	mux.HandleFunc("GET /{tenant}/invoices/{id}", func(w http.ResponseWriter, r *http.Request) {
		gotGet = r.Header.Get(apiclient.HeaderXSRFToken)
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"id": "inv-1"}})
	})
	mux.HandleFunc("PATCH /{tenant}/accounts/{acc}/invoices/{id}/metadata", func(w http.ResponseWriter, r *http.Request) {
		gotPatch = r.Header.Get(apiclient.HeaderXSRFToken)
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"id": "inv-1"}})
	})
	c, store := newTestClient(t, mux, false)

	ctx := context.Background()
	sess, err := c.Login(ctx, apiclient.Credentials{Tenant: "acme", Email: "ops@acme.test", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, testTenantID, sess.Tenant.ID)
	assert.Equal(t, "Acme Rides", store.Get().Name, "login activates the tenant")

	_, err = c.GetInvoice(ctx, "inv-1")
	require.NoError(t, err)
	notes := "hello"
	_, err = c.UpdateInvoiceMetadata(ctx, "acc-1", "inv-1", apiclient.MetadataUpdate{Notes: &notes})
	require.NoError(t, err)

	assert.Empty(t, gotGet)
	assert.Equal(t, "tok-123", gotPatch)
}

func TestClient_SigningAcrossBaseURLShapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		prefix   string
		wantPath string
	}{
		{"host only", "", "/" + testTenantID + "/accounts/acc-1/invoices/inv-1/metadata"},
		{"trailing slash", "/", "/" + testTenantID + "/accounts/acc-1/invoices/inv-1/metadata"},
		{"path prefix", "/api/v1", "/api/v1/" + testTenantID + "/accounts/acc-1/invoices/inv-1/metadata"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var (
				mu        sync.Mutex
				gotPath   string
				gotHeader string
			)
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/auth/login") {
					http.SetCookie(w, &http.Cookie{Name: apiclient.CookieXSRFToken, Value: "tok-123", Path: "/"})
					writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{
						"tenant": map[string]any{"id": testTenantID, "name": "Acme Rides", "status": "active"},
					}})
					return
				}
				mu.Lock()
				gotPath = r.URL.Path
				gotHeader = r.Header.Get(apiclient.HeaderXSRFToken)
				mu.Unlock()
				writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"id": "inv-1"}})
			}))
			t.Cleanup(srv.Close)

			logger := zerolog.Nop()
			c, err := apiclient.New(apiclient.Options{
				BaseURL: srv.URL + tt.prefix,
				Tenants: tenant.NewStore(),
				Logger:  &logger,
			})
			require.NoError(t, err)

			ctx := context.Background()
			_, err = c.Login(ctx, apiclient.Credentials{Tenant: "acme", Email: "ops@acme.test", Password: "pw"})
			require.NoError(t, err)

			notes := "hello"
			_, err = c.UpdateInvoiceMetadata(ctx, "acc-1", "inv-1", apiclient.MetadataUpdate{Notes: &notes})
			require.NoError(t, err)

			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, tt.wantPath, gotPath)
			assert.Equal(t, "tok-123", gotHeader)
		})
	}
}

func TestClient_MissingXSRFCookieStillSends(t *testing.T) {
	t.Parallel()

	var called bool
	var header []string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		header = r.Header.Values(apiclient.HeaderXSRFToken)
		writeJSON(w, http.StatusForbidden, map[string]any{"detail": "missing anti-forgery token"})
	}), true)

	_, err := c.UpdateInvoiceMetadata(context.Background(), "acc-1", "inv-1", apiclient.MetadataUpdate{})

	assert.True(t, called)
	assert.Empty(t, header)
	assert.Equal(t, apiclient.KindForbidden, apiclient.KindOf(err))
}

func TestClient_AuthEndpointsAreNotSigned(t *testing.T) {
	t.Parallel()

	var tenantHeader, correlation string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantHeader = r.Header.Get(apiclient.HeaderTenantID)
		correlation = r.Header.Get(apiclient.HeaderCorrelationID)
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{
			"tenant": map[string]any{"id": testTenantID, "name": "Acme Rides", "status": "active"},
		}})
	}), true)

	_, err := c.Session(context.Background())
	require.NoError(t, err)

	assert.Empty(t, tenantHeader)
	assert.Empty(t, correlation)
}

func TestClient_LogoutClearsTenantEvenOnFailure(t *testing.T) {
	t.Parallel()

	c, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}), true)

	err := c.Logout(context.Background())

	assert.Equal(t, apiclient.KindServer, apiclient.KindOf(err))
	assert.Nil(t, store.Get())
}

// ---------------------------------------------------------------------------
// 3. Retry policy
// ---------------------------------------------------------------------------

func TestClient_GetRetriedTwiceOnServerError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"detail": "try later"})
	}), true)

	_, err := c.GetInvoice(context.Background(), "inv-1")

	var ce *apiclient.ClientError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, apiclient.KindServer, ce.Kind)
	assert.Equal(t, http.StatusServiceUnavailable, ce.StatusCode)
	assert.True(t, ce.Retryable)
	assert.Equal(t, "try later", ce.Message)
	assert.Equal(t, int32(3), calls.Load(), "one attempt plus two retries")
}

func TestClient_GetRecoversOnRetry(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"id": "inv-1", "invoiceNumber": "INV-1"}})
	}), true)

	inv, err := c.GetInvoice(context.Background(), "inv-1")

	require.NoError(t, err)
	assert.Equal(t, "INV-1", inv.InvoiceNumber)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_NonRetryableGetFailsOnce(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusNotFound, map[string]any{"title": "Not Found", "status": 404, "detail": "invoice not found"})
	}), true)

	_, err := c.GetInvoice(context.Background(), "missing")

	assert.True(t, apiclient.IsNotFound(err))
	assert.False(t, apiclient.IsRetryable(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_MutatingCallsNeverRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}), true)

	_, err := c.UpdateInvoiceMetadata(context.Background(), "acc-1", "inv-1", apiclient.MetadataUpdate{})

	assert.Equal(t, apiclient.KindServer, apiclient.KindOf(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_NetworkFailureIsRetryable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	store := tenant.NewStore()
	store.Set(domain.Tenant{ID: testTenantID})
	logger := zerolog.Nop()
	c, err := apiclient.New(apiclient.Options{
		BaseURL: url,
		Tenants: store,
		Retry:   &apiclient.RetryPolicy{Attempts: 2, Delay: time.Millisecond},
		Logger:  &logger,
	})
	require.NoError(t, err)

	_, err = c.GetAccount(context.Background(), "acc-1")

	var ce *apiclient.ClientError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, apiclient.KindNetwork, ce.Kind)
	assert.Equal(t, 0, ce.StatusCode)
	assert.True(t, ce.Retryable)
}

func TestClient_CancelledContextStopsRetrying(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	store := tenant.NewStore()
	store.Set(domain.Tenant{ID: testTenantID})
	logger := zerolog.Nop()
	c, err := apiclient.New(apiclient.Options{
		BaseURL: srv.URL,
		Tenants: store,
		Retry:   &apiclient.RetryPolicy{Attempts: 2, Delay: time.Hour},
		Logger:  &logger,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = c.GetAccount(ctx, "acc-1")

	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, int32(1), calls.Load())
}

// ---------------------------------------------------------------------------
// 4. Classification
// ---------------------------------------------------------------------------

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status    int
		kind      apiclient.Kind
		retryable bool
	}{
		{0, apiclient.KindNetwork, true},
		{400, apiclient.KindValidation, false},
		{401, apiclient.KindUnauthorized, false},
		{403, apiclient.KindForbidden, false},
		{404, apiclient.KindNotFound, false},
		{409, apiclient.KindUnknown, false},
		{422, apiclient.KindUnknown, false},
		{429, apiclient.KindUnknown, false},
		{500, apiclient.KindServer, true},
		{503, apiclient.KindServer, true},
		{599, apiclient.KindServer, true},
		{302, apiclient.KindUnknown, false},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			t.Parallel()

			ce := apiclient.Classify(tt.status, "", nil)
			assert.Equal(t, tt.kind, ce.Kind)
			assert.Equal(t, tt.retryable, ce.Retryable)
			assert.Equal(t, tt.status, ce.StatusCode)
		})
	}
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, apiclient.Kind(""), apiclient.KindOf(nil))
	assert.Equal(t, apiclient.KindUnknown, apiclient.KindOf(errors.New("plain")))

	wrapped := errors.Join(errors.New("context"), apiclient.Classify(404, "gone", nil))
	assert.Equal(t, apiclient.KindNotFound, apiclient.KindOf(wrapped))
}

func TestClientError_Message(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "apiclient: not_found (404): invoice not found", apiclient.Classify(404, "invoice not found", nil).Error())
	assert.Equal(t, "apiclient: server (502): Bad Gateway", apiclient.Classify(502, "", nil).Error())
	assert.Equal(t, "apiclient: network: boom", apiclient.Classify(0, "", errors.New("boom")).Error())
}

func TestClient_PlainTextErrorBody(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, "bad filter\n")
	}), true)

	_, err := c.ListAccounts(context.Background(), apiclient.AccountQuery{Page: 1, PageSize: 10, Status: "weird"})

	var ce *apiclient.ClientError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, apiclient.KindValidation, ce.Kind)
	assert.Equal(t, "bad filter", ce.Message)
}

func TestClient_UndecodableSuccessBody(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, "<html>maintenance</html>")
	}), true)

	_, err := c.GetAccount(context.Background(), "acc-1")

	var ce *apiclient.ClientError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, apiclient.KindUnknown, ce.Kind)
	assert.Equal(t, http.StatusOK, ce.StatusCode)
	assert.ErrorIs(t, err, apiclient.ErrMalformedResponse)
}
