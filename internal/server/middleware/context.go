package middleware

import (
	"context"
)

type contextKey string

const (
	ContextKeyTenantID      contextKey = "tenant_id"
	ContextKeyUserID        contextKey = "user_id"
	ContextKeyUserRole      contextKey = "role"
	ContextKeyCorrelationID contextKey = "correlation_id"
)

// Wire names shared with the client.
const (
	HeaderTenantID      = "X-Tenant-ID"
	HeaderCorrelationID = "X-Correlation-ID"
	HeaderXSRFToken     = "X-XSRF-TOKEN"

	CookieXSRFToken = "XSRF-TOKEN"
	CookieSession   = "fareledger_session"
	CookieRefresh   = "fareledger_refresh"
)

func TenantIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ContextKeyTenantID).(string)
	return v, ok && v != ""
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ContextKeyUserID).(string)
	return v, ok && v != ""
}

func RoleFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ContextKeyUserRole).(string)
	return v, ok
}

func CorrelationIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ContextKeyCorrelationID).(string)
	return v, ok
}
