package server

import (
	"github.com/danielgtaylor/huma/v2"

	v1 "github.com/gosuda/fareledger/internal/api/v1"
)

func registerAuthRoutes(api huma.API, authSvc v1.AuthService, opts v1.CookieOptions) {
	v1.RegisterAuthRoutes(api, authSvc, opts)
}

func registerAPIRoutes(api huma.API, store v1.DataStore) {
	v1.RegisterAccountRoutes(api, store)
	v1.RegisterInvoiceRoutes(api, store)
	v1.RegisterStatementRoutes(api, store)
}
