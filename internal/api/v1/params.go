package v1

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/fareledger/internal/domain"
	"github.com/gosuda/fareledger/internal/server/middleware"
)

const (
	defaultPageSize = 25
	maxPageSize     = 200
)

// TenantPath is the {tenantId} prefix every tenant-scoped route carries.
// Middleware has already checked it against the session.
type TenantPath struct {
	TenantID string `path:"tenantId" doc:"Tenant ID"`
}

func tenantFrom(ctx context.Context) (string, error) {
	tenantID, ok := middleware.TenantIDFromContext(ctx)
	if !ok {
		return "", huma.Error403Forbidden("missing tenant context")
	}
	return tenantID, nil
}

// pageWindow clamps the requested page and size and returns the offset.
func pageWindow(page, pageSize int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case pageSize < 1:
		pageSize = defaultPageSize
	case pageSize > maxPageSize:
		pageSize = maxPageSize
	}
	return page, pageSize, domain.Offset(page, pageSize)
}
