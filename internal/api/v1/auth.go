package v1

import (
	"context"
	"crypto/rand"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/fareledger/internal/auth"
	"github.com/gosuda/fareledger/internal/domain"
	"github.com/gosuda/fareledger/internal/server/middleware"
)

// CookieOptions controls the session cookies set by the auth routes.
type CookieOptions struct {
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// SessionView is the session as the client sees it. Tokens travel only in
// cookies.
type SessionView struct {
	Tenant    domain.Tenant `json:"tenant"`
	User      domain.User   `json:"user"`
	ExpiresAt time.Time     `json:"expiresAt"`
}

type LoginInput struct {
	Body struct {
		Tenant   string `json:"tenant" doc:"Tenant slug or ID"`
		Email    string `json:"email" doc:"User email"`
		Password string `json:"password" doc:"Password"` //nolint:gosec // G117: login credential DTO
	}
}

type SessionOutput struct {
	SetCookie []http.Cookie `header:"Set-Cookie"`
	Body      struct {
		Data SessionView `json:"data"`
	}
}

type LogoutOutput struct {
	SetCookie []http.Cookie `header:"Set-Cookie"`
}

type GetSessionInput struct {
	Authorization string `header:"Authorization" doc:"Bearer access token"`
	Session       string `cookie:"fareledger_session" doc:"Session cookie"`
}

type RefreshInput struct {
	Refresh string `cookie:"fareledger_refresh" doc:"Refresh cookie"`
}

func RegisterAuthRoutes(api huma.API, authSvc AuthService, opts CookieOptions) {
	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/auth/login",
		Summary:     "Login with tenant, email and password",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *LoginInput) (*SessionOutput, error) {
		if strings.TrimSpace(input.Body.Tenant) == "" || strings.TrimSpace(input.Body.Email) == "" || input.Body.Password == "" {
			return nil, huma.Error400BadRequest("tenant, email and password are required")
		}

		sess, err := authSvc.Login(ctx, input.Body.Tenant, input.Body.Email, input.Body.Password)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrInvalidCredentials):
				return nil, huma.Error401Unauthorized("invalid tenant, email or password")
			case errors.Is(err, auth.ErrTenantSuspended):
				return nil, huma.Error403Forbidden("tenant is suspended")
			default:
				return nil, huma.Error500InternalServerError("login failed", err)
			}
		}

		log.Ctx(ctx).Info().
			Str("tenant_id", sess.Tenant.ID).
			Str("user_id", sess.User.ID).
			Msg("login")

		return sessionOutput(sess, opts, true), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodPost,
		Path:        "/auth/logout",
		Summary:     "End the session",
		Tags:        []string{"Auth"},
	}, func(_ context.Context, _ *struct{}) (*LogoutOutput, error) {
		return &LogoutOutput{SetCookie: []http.Cookie{
			expiredCookie(middleware.CookieSession, true, opts),
			expiredCookie(middleware.CookieRefresh, true, opts),
			expiredCookie(middleware.CookieXSRFToken, false, opts),
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-session",
		Method:      http.MethodGet,
		Path:        "/auth/session",
		Summary:     "Describe the current session",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *GetSessionInput) (*SessionOutput, error) {
		for _, tok := range []string{bearerToken(input.Authorization), input.Session} {
			if tok == "" {
				continue
			}
			if sess, err := authSvc.Resume(ctx, tok); err == nil {
				out := &SessionOutput{}
				out.Body.Data = viewOf(sess)
				return out, nil
			}
		}
		return nil, huma.Error401Unauthorized("no active session")
	})

	huma.Register(api, huma.Operation{
		OperationID: "refresh-session",
		Method:      http.MethodPost,
		Path:        "/auth/refresh",
		Summary:     "Issue a new access token from the refresh cookie",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *RefreshInput) (*SessionOutput, error) {
		if input.Refresh == "" {
			return nil, huma.Error401Unauthorized("no refresh token")
		}

		sess, err := authSvc.Refresh(ctx, input.Refresh)
		if err != nil {
			if errors.Is(err, auth.ErrTenantSuspended) {
				return nil, huma.Error403Forbidden("tenant is suspended")
			}
			return nil, huma.Error401Unauthorized("invalid or expired refresh token")
		}

		return sessionOutput(sess, opts, false), nil
	})
}

// sessionOutput sets the access cookie, plus the refresh and anti-forgery
// cookies on a fresh login.
func sessionOutput(sess *auth.Session, opts CookieOptions, fresh bool) *SessionOutput {
	out := &SessionOutput{}
	out.SetCookie = append(out.SetCookie, http.Cookie{
		Name:     middleware.CookieSession,
		Value:    sess.AccessToken,
		Path:     "/",
		MaxAge:   int(opts.AccessTTL.Seconds()),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	if fresh {
		out.SetCookie = append(out.SetCookie,
			http.Cookie{
				Name:     middleware.CookieRefresh,
				Value:    sess.RefreshToken,
				Path:     "/auth",
				MaxAge:   int(opts.RefreshTTL.Seconds()),
				HttpOnly: true,
				Secure:   opts.Secure,
				SameSite: http.SameSiteStrictMode,
			},
			// Readable by the client so it can echo it in X-XSRF-TOKEN.
			http.Cookie{
				Name:     middleware.CookieXSRFToken,
				Value:    rand.Text(),
				Path:     "/",
				MaxAge:   int(opts.RefreshTTL.Seconds()),
				Secure:   opts.Secure,
				SameSite: http.SameSiteLaxMode,
			},
		)
	}
	out.Body.Data = viewOf(sess)
	return out
}

func expiredCookie(name string, httpOnly bool, opts CookieOptions) http.Cookie {
	path := "/"
	if name == middleware.CookieRefresh {
		path = "/auth"
	}
	return http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		MaxAge:   -1,
		HttpOnly: httpOnly,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func viewOf(sess *auth.Session) SessionView {
	return SessionView{Tenant: sess.Tenant, User: sess.User, ExpiresAt: sess.ExpiresAt}
}

func bearerToken(header string) string {
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return header[7:]
	}
	return ""
}
