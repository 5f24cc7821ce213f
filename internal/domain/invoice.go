package domain

import (
	"context"
	"time"
)

type InvoiceFrequency string

const (
	InvoiceFrequencyPerRide InvoiceFrequency = "PerRide"
	InvoiceFrequencyDaily   InvoiceFrequency = "Daily"
	InvoiceFrequencyWeekly  InvoiceFrequency = "Weekly"
	InvoiceFrequencyMonthly InvoiceFrequency = "Monthly"
)

func (f InvoiceFrequency) Valid() bool {
	switch f {
	case InvoiceFrequencyPerRide, InvoiceFrequencyDaily, InvoiceFrequencyWeekly, InvoiceFrequencyMonthly:
		return true
	default:
		return false
	}
}

type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "Draft"
	InvoiceStatusIssued    InvoiceStatus = "Issued"
	InvoiceStatusPaid      InvoiceStatus = "Paid"
	InvoiceStatusOverdue   InvoiceStatus = "Overdue"
	InvoiceStatusCancelled InvoiceStatus = "Cancelled"
)

func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusIssued, InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled:
		return true
	default:
		return false
	}
}

// InvoiceLineItem is one billed ride. Created only by backend invoice generation.
type InvoiceLineItem struct {
	ID          string `json:"id"`
	RideID      string `json:"rideId"`
	RideDate    Date   `json:"rideDate"`
	FareCents   int64  `json:"fareCents"`
	Description string `json:"description"`
}

// InvoiceMetadata is the only client-writable subset of an invoice.
type InvoiceMetadata struct {
	Notes             string `json:"notes"`
	InternalReference string `json:"internalReference"`
	BillingContact    string `json:"billingContact"`
}

// Invoice mirrors backend state. Financial fields and LineItems are never sent
// back to the backend.
type Invoice struct {
	ID                 string            `json:"id"`
	AccountID          string            `json:"accountId"`
	InvoiceNumber      string            `json:"invoiceNumber"`
	BillingPeriodStart Date              `json:"billingPeriodStart"`
	BillingPeriodEnd   Date              `json:"billingPeriodEnd"`
	Frequency          InvoiceFrequency  `json:"frequency"`
	SubtotalCents      int64             `json:"subtotalCents"`
	TaxCents           int64             `json:"taxCents"`
	TotalCents         int64             `json:"totalCents"`
	Status             InvoiceStatus     `json:"status"`
	DueDate            Date              `json:"dueDate"`
	IssuedAt           *time.Time        `json:"issuedAt"`
	PaidAt             *time.Time        `json:"paidAt"`
	LineItems          []InvoiceLineItem `json:"lineItems"`
	Notes              string            `json:"notes"`
	InternalReference  string            `json:"internalReference"`
	BillingContact     string            `json:"billingContact"`
	CreatedAt          time.Time         `json:"createdAt"`
	UpdatedAt          time.Time         `json:"updatedAt"`
}

// Metadata returns the editable subset of the invoice.
func (i *Invoice) Metadata() InvoiceMetadata {
	return InvoiceMetadata{
		Notes:             i.Notes,
		InternalReference: i.InternalReference,
		BillingContact:    i.BillingContact,
	}
}

// InvoiceSortFields lists the columns an invoice listing may be sorted by.
var InvoiceSortFields = []string{"invoiceNumber", "billingPeriodStart", "dueDate", "totalCents", "status", "issuedAt"}

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

func (o SortOrder) Valid() bool { return o == SortAsc || o == SortDesc }

// Toggle flips the sort direction.
func (o SortOrder) Toggle() SortOrder {
	if o == SortAsc {
		return SortDesc
	}
	return SortAsc
}

// InvoiceFilter narrows an invoice listing. Zero fields match everything.
type InvoiceFilter struct {
	AccountID string
	Status    InvoiceStatus
	Frequency InvoiceFrequency
	SortBy    string
	SortOrder SortOrder
}

type InvoiceRepository interface {
	List(ctx context.Context, tenantID string, f InvoiceFilter, offset, limit int) ([]*Invoice, int, error)
	GetByID(ctx context.Context, tenantID, id string) (*Invoice, error)
	UpdateMetadata(ctx context.Context, tenantID, accountID, id string, m InvoiceMetadata) (*Invoice, error)
}
