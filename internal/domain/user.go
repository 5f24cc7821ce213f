package domain

import (
	"context"
	"time"
)

type User struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenantId"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // argon2id
	Name         string    `json:"name"`
	Role         string    `json:"role"` // "admin", "member" or "viewer"
	CreatedAt    time.Time `json:"createdAt"`
}

type UserRepository interface {
	GetByID(ctx context.Context, tenantID, id string) (*User, error)
	GetByEmail(ctx context.Context, tenantID, email string) (*User, error)
}
