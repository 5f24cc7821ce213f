package domain

import (
	"context"
)

type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "active"
	TenantStatusSuspended TenantStatus = "suspended"
)

func (s TenantStatus) Valid() bool {
	return s == TenantStatusActive || s == TenantStatusSuspended
}

// Tenant is the isolated customer boundary every data access is scoped to.
type Tenant struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Slug   string       `json:"slug,omitempty"`
	Status TenantStatus `json:"status"`
}

type TenantRepository interface {
	GetByID(ctx context.Context, id string) (*Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*Tenant, error)
}
