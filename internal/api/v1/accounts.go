package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/fareledger/internal/domain"
)

type ListAccountsInput struct {
	TenantPath
	Page     int    `query:"page" default:"1" doc:"1-based page number"`
	PageSize int    `query:"pageSize" default:"25" doc:"Items per page"`
	Status   string `query:"status" doc:"active, suspended or closed"`
	Type     string `query:"type" doc:"organization or individual"`
}

// accountPagination is the accounts listing's historical metadata shape.
type accountPagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalCount int `json:"totalCount"`
}

type ListAccountsOutput struct {
	Body struct {
		Data       []*domain.Account `json:"data"`
		Pagination accountPagination `json:"pagination"`
	}
}

type GetAccountInput struct {
	TenantPath
	AccountID string `path:"accountId" doc:"Account ID"`
}

type GetAccountOutput struct {
	Body struct {
		Data *domain.Account `json:"data"`
	}
}

func RegisterAccountRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "list-accounts",
		Method:      http.MethodGet,
		Path:        "/{tenantId}/accounts",
		Summary:     "List accounts of the tenant",
		Tags:        []string{"Accounts"},
	}, func(ctx context.Context, input *ListAccountsInput) (*ListAccountsOutput, error) {
		tenantID, err := tenantFrom(ctx)
		if err != nil {
			return nil, err
		}

		filter := domain.AccountFilter{
			Status: domain.AccountStatus(input.Status),
			Type:   domain.AccountType(input.Type),
		}
		if filter.Status != "" && !filter.Status.Valid() {
			return nil, huma.Error400BadRequest("unknown account status " + input.Status)
		}
		if filter.Type != "" && !filter.Type.Valid() {
			return nil, huma.Error400BadRequest("unknown account type " + input.Type)
		}

		page, pageSize, offset := pageWindow(input.Page, input.PageSize)
		accounts, total, err := store.Accounts().List(ctx, tenantID, filter, offset, pageSize)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list accounts", err)
		}

		out := &ListAccountsOutput{}
		out.Body.Data = nonNil(accounts)
		out.Body.Pagination = accountPagination{Page: page, PageSize: pageSize, TotalCount: total}
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-account",
		Method:      http.MethodGet,
		Path:        "/{tenantId}/accounts/{accountId}",
		Summary:     "Get an account by ID",
		Tags:        []string{"Accounts"},
	}, func(ctx context.Context, input *GetAccountInput) (*GetAccountOutput, error) {
		tenantID, err := tenantFrom(ctx)
		if err != nil {
			return nil, err
		}

		acct, err := store.Accounts().GetByID(ctx, tenantID, input.AccountID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("account not found")
			}
			return nil, huma.Error500InternalServerError("failed to get account", err)
		}

		out := &GetAccountOutput{}
		out.Body.Data = acct
		return out, nil
	})
}

func nonNil[T any](items []*T) []*T {
	if items == nil {
		return []*T{}
	}
	return items
}
