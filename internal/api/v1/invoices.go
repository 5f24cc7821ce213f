package v1

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"slices"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/fareledger/internal/domain"
	"github.com/gosuda/fareledger/internal/metaedit"
	"github.com/gosuda/fareledger/internal/server/middleware"
)

// The invoices listing takes capitalized paging parameters.
type ListInvoicesInput struct {
	TenantPath
	AccountID string `query:"AccountId" doc:"Only invoices of this account"`
	Page      int    `query:"Page" default:"1" doc:"1-based page number"`
	PageSize  int    `query:"PageSize" default:"25" doc:"Items per page"`
	Status    string `query:"status" doc:"Invoice status"`
	Frequency string `query:"frequency" doc:"Invoice frequency"`
	SortBy    string `query:"sortBy" doc:"Sort column"`
	SortOrder string `query:"sortOrder" doc:"asc or desc"`
}

// invoicePagination is the invoices listing's historical metadata shape.
type invoicePagination struct {
	CurrentPage int `json:"currentPage"`
	PageSize    int `json:"pageSize"`
	TotalItems  int `json:"totalItems"`
	TotalPages  int `json:"totalPages"`
}

type ListInvoicesOutput struct {
	Body struct {
		Data       []*domain.Invoice `json:"data"`
		Pagination invoicePagination `json:"pagination"`
	}
}

type GetInvoiceInput struct {
	TenantPath
	ID string `path:"id" doc:"Invoice ID"`
}

type InvoiceOutput struct {
	Body struct {
		Data *domain.Invoice `json:"data"`
	}
}

// UpdateInvoiceMetadataInput accepts only the editable metadata. Absent
// fields keep their current value; any other field is rejected.
type UpdateInvoiceMetadataInput struct {
	TenantPath
	AccountID string `path:"accountId" doc:"Account ID"`
	ID        string `path:"id" doc:"Invoice ID"`
	Body      struct {
		Notes             *string `json:"notes,omitempty" doc:"Free-form notes"`
		InternalReference *string `json:"internalReference,omitempty" doc:"Internal reference"`
		BillingContact    *string `json:"billingContact,omitempty" doc:"Billing contact email"`
	}
}

type InvoicePDFInput struct {
	TenantPath
	AccountID string `path:"accountId" doc:"Account ID"`
	ID        string `path:"id" doc:"Invoice ID"`
}

type InvoicePDFOutput struct {
	ContentType        string `header:"Content-Type"`
	ContentDisposition string `header:"Content-Disposition"`
	Body               []byte
}

func RegisterInvoiceRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "list-invoices",
		Method:      http.MethodGet,
		Path:        "/{tenantId}/invoices",
		Summary:     "List invoices of the tenant",
		Tags:        []string{"Invoices"},
	}, func(ctx context.Context, input *ListInvoicesInput) (*ListInvoicesOutput, error) {
		tenantID, err := tenantFrom(ctx)
		if err != nil {
			return nil, err
		}

		filter, err := invoiceFilter(input)
		if err != nil {
			return nil, err
		}

		page, pageSize, offset := pageWindow(input.Page, input.PageSize)
		invoices, total, err := store.Invoices().List(ctx, tenantID, filter, offset, pageSize)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list invoices", err)
		}

		out := &ListInvoicesOutput{}
		out.Body.Data = nonNil(invoices)
		out.Body.Pagination = invoicePagination{
			CurrentPage: page,
			PageSize:    pageSize,
			TotalItems:  total,
			TotalPages:  domain.TotalPages(total, pageSize),
		}
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-invoice",
		Method:      http.MethodGet,
		Path:        "/{tenantId}/invoices/{id}",
		Summary:     "Get an invoice with its line items",
		Tags:        []string{"Invoices"},
	}, func(ctx context.Context, input *GetInvoiceInput) (*InvoiceOutput, error) {
		tenantID, err := tenantFrom(ctx)
		if err != nil {
			return nil, err
		}

		inv, err := store.Invoices().GetByID(ctx, tenantID, input.ID)
		if err != nil {
			return nil, invoiceError(err, "failed to get invoice")
		}

		out := &InvoiceOutput{}
		out.Body.Data = inv
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-invoice-metadata",
		Method:      http.MethodPatch,
		Path:        "/{tenantId}/accounts/{accountId}/invoices/{id}/metadata",
		Summary:     "Update the editable metadata of an invoice",
		Tags:        []string{"Invoices"},
	}, func(ctx context.Context, input *UpdateInvoiceMetadataInput) (*InvoiceOutput, error) {
		tenantID, err := tenantFrom(ctx)
		if err != nil {
			return nil, err
		}
		if !middleware.HasRole(ctx, middleware.RoleAdmin, middleware.RoleMember) {
			return nil, huma.Error403Forbidden("your role may not edit invoices")
		}

		current, err := store.Invoices().GetByID(ctx, tenantID, input.ID)
		if err != nil {
			return nil, invoiceError(err, "failed to get invoice")
		}
		if current.AccountID != input.AccountID {
			return nil, huma.Error404NotFound("invoice not found")
		}

		meta := current.Metadata()
		if input.Body.Notes != nil {
			meta.Notes = *input.Body.Notes
		}
		if input.Body.InternalReference != nil {
			meta.InternalReference = *input.Body.InternalReference
		}
		if input.Body.BillingContact != nil {
			meta.BillingContact = strings.TrimSpace(*input.Body.BillingContact)
		}

		if errs := metaedit.Validate(meta); len(errs) > 0 {
			return nil, huma.Error400BadRequest(validationDetail(errs))
		}

		updated, err := store.Invoices().UpdateMetadata(ctx, tenantID, input.AccountID, input.ID, meta)
		if err != nil {
			return nil, invoiceError(err, "failed to update invoice")
		}

		out := &InvoiceOutput{}
		out.Body.Data = updated
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-invoice-pdf",
		Method:      http.MethodGet,
		Path:        "/{tenantId}/accounts/{accountId}/invoices/{id}/pdf",
		Summary:     "Render an invoice as PDF",
		Tags:        []string{"Invoices"},
	}, func(ctx context.Context, input *InvoicePDFInput) (*InvoicePDFOutput, error) {
		tenantID, err := tenantFrom(ctx)
		if err != nil {
			return nil, err
		}

		inv, err := store.Invoices().GetByID(ctx, tenantID, input.ID)
		if err != nil {
			return nil, invoiceError(err, "failed to get invoice")
		}
		if inv.AccountID != input.AccountID {
			return nil, huma.Error404NotFound("invoice not found")
		}
		// Drafts are not rendered until they are issued.
		if inv.Status == domain.InvoiceStatusDraft {
			return nil, huma.Error404NotFound("invoice PDF not found")
		}

		acct, err := store.Accounts().GetByID(ctx, tenantID, input.AccountID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("account not found")
			}
			return nil, huma.Error500InternalServerError("failed to get account", err)
		}

		return &InvoicePDFOutput{
			ContentType:        "application/pdf",
			ContentDisposition: mime.FormatMediaType("attachment", map[string]string{"filename": inv.InvoiceNumber + ".pdf"}),
			Body:               RenderInvoicePDF(acct, inv),
		}, nil
	})
}

func invoiceFilter(input *ListInvoicesInput) (domain.InvoiceFilter, error) {
	f := domain.InvoiceFilter{
		AccountID: input.AccountID,
		Status:    domain.InvoiceStatus(input.Status),
		Frequency: domain.InvoiceFrequency(input.Frequency),
		SortBy:    input.SortBy,
		SortOrder: domain.SortOrder(input.SortOrder),
	}
	if f.Status != "" && !f.Status.Valid() {
		return f, huma.Error400BadRequest("unknown invoice status " + input.Status)
	}
	if f.Frequency != "" && !f.Frequency.Valid() {
		return f, huma.Error400BadRequest("unknown invoice frequency " + input.Frequency)
	}
	if f.SortBy != "" && !slices.Contains(domain.InvoiceSortFields, f.SortBy) {
		return f, huma.Error400BadRequest("invoices cannot be sorted by " + input.SortBy)
	}
	if f.SortOrder == "" {
		f.SortOrder = domain.SortAsc
	}
	if !f.SortOrder.Valid() {
		return f, huma.Error400BadRequest("sortOrder must be asc or desc")
	}
	return f, nil
}

func invoiceError(err error, msg string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return huma.Error404NotFound("invoice not found")
	}
	return huma.Error500InternalServerError(msg, err)
}

// validationDetail joins field errors in a stable order.
func validationDetail(errs map[metaedit.Field]string) string {
	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, string(f))
	}
	slices.Sort(fields)

	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, errs[metaedit.Field(f)])
	}
	return strings.Join(msgs, " ")
}
