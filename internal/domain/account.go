package domain

import (
	"context"
	"time"
)

type AccountType string

const (
	AccountTypeOrganization AccountType = "organization"
	AccountTypeIndividual   AccountType = "individual"
)

func (t AccountType) Valid() bool {
	return t == AccountTypeOrganization || t == AccountTypeIndividual
}

type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "active"
	AccountStatusSuspended AccountStatus = "suspended"
	AccountStatusClosed    AccountStatus = "closed"
)

func (s AccountStatus) Valid() bool {
	switch s {
	case AccountStatusActive, AccountStatusSuspended, AccountStatusClosed:
		return true
	default:
		return false
	}
}

// Account is a billable party. CurrentBalance is in cents and may be negative.
type Account struct {
	ID              string        `json:"id"`
	TenantID        string        `json:"tenantId"`
	Name            string        `json:"name"`
	Type            AccountType   `json:"type"`
	CurrentBalance  int64         `json:"currentBalance"`
	LastInvoiceDate *Date         `json:"lastInvoiceDate"`
	Status          AccountStatus `json:"status"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// AccountFilter narrows an account listing. Zero fields match everything.
type AccountFilter struct {
	Status AccountStatus
	Type   AccountType
}

type AccountRepository interface {
	List(ctx context.Context, tenantID string, f AccountFilter, offset, limit int) ([]*Account, int, error)
	GetByID(ctx context.Context, tenantID, id string) (*Account, error)
}
