package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/argon2"

	"github.com/gosuda/fareledger/internal/domain"
)

// Sentinel errors for the auth package.
var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrTenantSuspended    = errors.New("auth: tenant suspended")
	ErrUserNotFound       = errors.New("auth: user not found")
)

// argon2id parameters following OWASP recommendations.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024 // 64 MiB
	argonThreads = 4
	argonKeyLen  = 32
	argonSaltLen = 16
)

// Session is an authenticated user within a tenant, with its tokens.
type Session struct {
	Tenant       domain.Tenant
	User         domain.User
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Service provides authentication operations.
type Service struct {
	tenants    domain.TenantRepository
	users      domain.UserRepository
	jwtSecret  string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewService creates a new auth service.
func NewService(tenants domain.TenantRepository, users domain.UserRepository, jwtSecret string, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{
		tenants:    tenants,
		users:      users,
		jwtSecret:  jwtSecret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Secret returns the token signing secret for middleware.
func (s *Service) Secret() string { return s.jwtSecret }

// Login validates email/password within the tenant named by slug or id and
// issues access and refresh tokens.
func (s *Service) Login(ctx context.Context, tenantRef, email, password string) (*Session, error) {
	tenant, err := s.resolveTenant(ctx, tenantRef)
	if err != nil {
		return nil, fmt.Errorf("auth.Login: %w", ErrInvalidCredentials)
	}
	if tenant.Status != domain.TenantStatusActive {
		return nil, fmt.Errorf("auth.Login: %w", ErrTenantSuspended)
	}

	user, err := s.users.GetByEmail(ctx, tenant.ID, strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("auth.Login: %w", ErrInvalidCredentials)
	}

	if !VerifyPassword(password, user.PasswordHash) {
		return nil, fmt.Errorf("auth.Login: %w", ErrInvalidCredentials)
	}

	sess, err := s.issue(tenant, user, "")
	if err != nil {
		return nil, fmt.Errorf("auth.Login: %w", err)
	}
	return sess, nil
}

// Refresh validates a refresh token and issues a new access token. The
// refresh token itself is returned unchanged.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := ParseKind(s.jwtSecret, refreshToken, TokenRefresh)
	if err != nil {
		return nil, fmt.Errorf("auth.Refresh: %w", err)
	}

	id := claims.Identity()
	tenant, user, err := s.Identify(ctx, id.TenantID, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("auth.Refresh: %w", err)
	}
	if tenant.Status != domain.TenantStatusActive {
		return nil, fmt.Errorf("auth.Refresh: %w", ErrTenantSuspended)
	}

	sess, err := s.issue(tenant, user, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("auth.Refresh: %w", err)
	}
	return sess, nil
}

// Resume rebuilds the session behind a still-valid access token. No new
// tokens are issued; ExpiresAt is the access token's own expiry.
func (s *Service) Resume(ctx context.Context, accessToken string) (*Session, error) {
	claims, err := ParseKind(s.jwtSecret, accessToken, TokenAccess)
	if err != nil {
		return nil, fmt.Errorf("auth.Resume: %w", err)
	}

	id := claims.Identity()
	tenant, user, err := s.Identify(ctx, id.TenantID, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("auth.Resume: %w", err)
	}
	if tenant.Status != domain.TenantStatusActive {
		return nil, fmt.Errorf("auth.Resume: %w", ErrTenantSuspended)
	}

	u := *user
	u.PasswordHash = ""
	sess := &Session{Tenant: *tenant, User: u, AccessToken: accessToken}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.UTC()
	}
	return sess, nil
}

// Identify loads the tenant and user named by token claims.
func (s *Service) Identify(ctx context.Context, tenantID, userID string) (*domain.Tenant, *domain.User, error) {
	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, nil, fmt.Errorf("auth.Identify: %w", err)
	}

	user, err := s.users.GetByID(ctx, tenantID, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("auth.Identify: %w", ErrUserNotFound)
	}

	return tenant, user, nil
}

func (s *Service) resolveTenant(ctx context.Context, ref string) (*domain.Tenant, error) {
	ref = strings.TrimSpace(ref)
	if t, err := s.tenants.GetBySlug(ctx, ref); err == nil {
		return t, nil
	}
	return s.tenants.GetByID(ctx, ref)
}

func (s *Service) issue(tenant *domain.Tenant, user *domain.User, refreshToken string) (*Session, error) {
	sub := Subject{TenantID: tenant.ID, UserID: user.ID, Role: user.Role}
	access, err := Sign(s.jwtSecret, sub, TokenAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}

	if refreshToken == "" {
		refreshToken, err = Sign(s.jwtSecret, sub, TokenRefresh, s.refreshTTL)
		if err != nil {
			return nil, err
		}
	}

	u := *user
	u.PasswordHash = ""
	return &Session{
		Tenant:       *tenant,
		User:         u,
		AccessToken:  access,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(s.accessTTL).UTC(),
	}, nil
}

// HashPassword generates an argon2id hash with a random salt.
// Format: hex(salt) + "$" + hex(hash)
func HashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return hex.EncodeToString(salt) + "$" + hex.EncodeToString(hash), nil
}

// VerifyPassword checks a password against an argon2id hash.
func VerifyPassword(password, encoded string) bool {
	saltHex, hashHex, ok := strings.Cut(encoded, "$")
	if !ok || saltHex == "" || hashHex == "" {
		return false
	}

	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false
	}

	expectedHash, err := hex.DecodeString(hashHex)
	if err != nil {
		return false
	}

	computed := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return subtle.ConstantTimeCompare(computed, expectedHash) == 1
}
