package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/fareledger/internal/domain"
)

type ListStatementInput struct {
	TenantPath
	AccountID       string `path:"accountId" doc:"Account ID"`
	Page            int    `query:"page" default:"1" doc:"1-based page number"`
	PageSize        int    `query:"pageSize" default:"25" doc:"Items per page"`
	StartDate       string `query:"startDate" doc:"Earliest posting date (inclusive)"`
	EndDate         string `query:"endDate" doc:"Latest posting date (inclusive)"`
	SourceType      string `query:"sourceType" doc:"ride or payment"`
	LinkedInvoiceID string `query:"linkedInvoiceId" doc:"Only entries billed on this invoice"`
}

// statementMeta is the statements listing's historical metadata shape.
type statementMeta struct {
	Page    int `json:"page"`
	PerPage int `json:"perPage"`
	Total   int `json:"total"`
}

type ListStatementOutput struct {
	Body struct {
		Items []*domain.LedgerEntry `json:"items"`
		Meta  statementMeta         `json:"meta"`
	}
}

type GetLedgerEntryInput struct {
	TenantPath
	AccountID string `path:"accountId" doc:"Account ID"`
	ID        string `path:"id" doc:"Ledger entry ID"`
}

type GetLedgerEntryOutput struct {
	Body struct {
		Data *domain.LedgerEntry `json:"data"`
	}
}

func RegisterStatementRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "list-statement",
		Method:      http.MethodGet,
		Path:        "/{tenantId}/accounts/{accountId}/statements",
		Summary:     "List ledger entries of an account in posting order",
		Tags:        []string{"Ledger"},
	}, func(ctx context.Context, input *ListStatementInput) (*ListStatementOutput, error) {
		tenantID, err := tenantFrom(ctx)
		if err != nil {
			return nil, err
		}

		filter, err := ledgerFilter(input)
		if err != nil {
			return nil, err
		}

		page, pageSize, offset := pageWindow(input.Page, input.PageSize)
		entries, total, err := store.Ledger().List(ctx, tenantID, input.AccountID, filter, offset, pageSize)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("account not found")
			}
			return nil, huma.Error500InternalServerError("failed to list ledger entries", err)
		}

		out := &ListStatementOutput{}
		out.Body.Items = nonNil(entries)
		out.Body.Meta = statementMeta{Page: page, PerPage: pageSize, Total: total}
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-ledger-entry",
		Method:      http.MethodGet,
		Path:        "/{tenantId}/accounts/{accountId}/ledger/{id}",
		Summary:     "Get a ledger entry",
		Tags:        []string{"Ledger"},
	}, func(ctx context.Context, input *GetLedgerEntryInput) (*GetLedgerEntryOutput, error) {
		tenantID, err := tenantFrom(ctx)
		if err != nil {
			return nil, err
		}

		entry, err := store.Ledger().GetByID(ctx, tenantID, input.AccountID, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("ledger entry not found")
			}
			return nil, huma.Error500InternalServerError("failed to get ledger entry", err)
		}

		out := &GetLedgerEntryOutput{}
		out.Body.Data = entry
		return out, nil
	})
}

func ledgerFilter(input *ListStatementInput) (domain.LedgerFilter, error) {
	f := domain.LedgerFilter{
		SourceType:      domain.SourceType(input.SourceType),
		LinkedInvoiceID: input.LinkedInvoiceID,
	}
	if f.SourceType != "" && !f.SourceType.Valid() {
		return f, huma.Error400BadRequest("unknown source type " + input.SourceType)
	}

	var err error
	if input.StartDate != "" {
		if f.StartDate, err = domain.ParseDate(input.StartDate); err != nil {
			return f, huma.Error400BadRequest("startDate must be a date (YYYY-MM-DD)")
		}
	}
	if input.EndDate != "" {
		if f.EndDate, err = domain.ParseDate(input.EndDate); err != nil {
			return f, huma.Error400BadRequest("endDate must be a date (YYYY-MM-DD)")
		}
	}
	if !f.StartDate.IsZero() && !f.EndDate.IsZero() && f.EndDate.Before(f.StartDate) {
		return f, huma.Error400BadRequest("endDate is before startDate")
	}
	return f, nil
}
