package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/rs/zerolog/log"
)

// Config holds the client configuration loaded from environment variables.
type Config struct {
	API     APIConfig
	Session SessionConfig
	View    ViewConfig
}

// APIConfig holds backend connection settings.
type APIConfig struct {
	BaseURL       string
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

// SessionConfig holds the tenant and credentials used to sign in.
type SessionConfig struct {
	TenantID string
	Tenant   string
	Email    string
	Password string //nolint:gosec // G117: login credentials config
}

// ViewConfig holds presentation settings.
type ViewConfig struct {
	PageSize    int
	DownloadDir string
	NoticeTTL   time.Duration
	Currency    string
}

// StubConfig holds the stub backend configuration.
type StubConfig struct {
	JWT          JWTConfig
	Server       ServerConfig
	RateLimit    RateLimitConfig
	CookieSecure bool
	SeedPassword string //nolint:gosec // G117: fixture login password
}

// JWTConfig holds session token settings.
type JWTConfig struct {
	Secret     string //nolint:gosec // G117: JWT signing secret config
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
}

// RateLimitConfig bounds requests per tenant.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// MaxPageSize is the largest page a listing may request.
const MaxPageSize = 200

// Load reads the client configuration from environment variables.
func Load() (*Config, error) {
	timeout, err := getEnvDuration("FARELEDGER_HTTP_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	attempts, err := getEnvInt("FARELEDGER_RETRY_ATTEMPTS", 2)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	delay, err := getEnvDuration("FARELEDGER_RETRY_DELAY", time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	pageSize, err := getEnvInt("FARELEDGER_PAGE_SIZE", 50)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	noticeTTL, err := getEnvDuration("FARELEDGER_NOTICE_TTL", 3*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	cfg := &Config{
		API: APIConfig{
			BaseURL:       getEnv("FARELEDGER_API_BASE_URL", ""),
			Timeout:       timeout,
			RetryAttempts: attempts,
			RetryDelay:    delay,
		},
		Session: SessionConfig{
			TenantID: getEnv("FARELEDGER_TENANT_ID", ""),
			Tenant:   getEnv("FARELEDGER_TENANT", ""),
			Email:    getEnv("FARELEDGER_EMAIL", ""),
			Password: getEnv("FARELEDGER_PASSWORD", ""),
		},
		View: ViewConfig{
			PageSize:    pageSize,
			DownloadDir: getEnv("FARELEDGER_DOWNLOAD_DIR", "."),
			NoticeTTL:   noticeTTL,
			Currency:    strings.ToUpper(getEnv("FARELEDGER_CURRENCY", "USD")),
		},
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	if c.API.BaseURL == "" {
		return errors.New("FARELEDGER_API_BASE_URL is required")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("FARELEDGER_API_BASE_URL must be an absolute http(s) URL, got %q", c.API.BaseURL)
	}
	if u.Scheme == "http" && u.Hostname() != "localhost" && u.Hostname() != "127.0.0.1" {
		log.Warn().Str("base_url", c.API.BaseURL).Msg("FARELEDGER_API_BASE_URL is not https; session cookies travel in clear text")
	}

	if c.API.Timeout <= 0 {
		return fmt.Errorf("FARELEDGER_HTTP_TIMEOUT must be positive, got %s", c.API.Timeout)
	}
	if c.API.RetryAttempts < 0 {
		return fmt.Errorf("FARELEDGER_RETRY_ATTEMPTS must be >= 0, got %d", c.API.RetryAttempts)
	}
	if c.API.RetryDelay < 0 {
		return fmt.Errorf("FARELEDGER_RETRY_DELAY must not be negative, got %s", c.API.RetryDelay)
	}
	if c.View.PageSize < 1 || c.View.PageSize > MaxPageSize {
		return fmt.Errorf("FARELEDGER_PAGE_SIZE must be 1-%d, got %d", MaxPageSize, c.View.PageSize)
	}
	if c.View.NoticeTTL <= 0 {
		return fmt.Errorf("FARELEDGER_NOTICE_TTL must be positive, got %s", c.View.NoticeTTL)
	}
	if money.GetCurrency(c.View.Currency) == nil {
		return fmt.Errorf("FARELEDGER_CURRENCY %q is not an ISO 4217 code", c.View.Currency)
	}

	return nil
}

// HasCredentials reports whether a login can be attempted.
func (c *SessionConfig) HasCredentials() bool {
	return c.Tenant != "" && c.Email != "" && c.Password != ""
}

// LoadStub reads the stub backend configuration from environment variables.
// Defaults are safe for local development only.
func LoadStub() (*StubConfig, error) {
	accessTTL, err := getEnvDuration("FARELEDGER_JWT_ACCESS_TTL", 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("config.LoadStub: %w", err)
	}

	refreshTTL, err := getEnvDuration("FARELEDGER_JWT_REFRESH_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("config.LoadStub: %w", err)
	}

	readTimeout, err := getEnvDuration("FARELEDGER_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.LoadStub: %w", err)
	}

	writeTimeout, err := getEnvDuration("FARELEDGER_SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.LoadStub: %w", err)
	}

	rps, err := getEnvFloat("FARELEDGER_RATE_LIMIT_RPS", 20)
	if err != nil {
		return nil, fmt.Errorf("config.LoadStub: %w", err)
	}

	burst, err := getEnvInt("FARELEDGER_RATE_LIMIT_BURST", 40)
	if err != nil {
		return nil, fmt.Errorf("config.LoadStub: %w", err)
	}

	cookieSecure, err := getEnvBool("FARELEDGER_COOKIE_SECURE", false)
	if err != nil {
		return nil, fmt.Errorf("config.LoadStub: %w", err)
	}

	cfg := &StubConfig{
		JWT: JWTConfig{
			Secret:     getEnv("FARELEDGER_JWT_SECRET", ""),
			AccessTTL:  accessTTL,
			RefreshTTL: refreshTTL,
		},
		Server: ServerConfig{
			Addr:         getEnv("FARELEDGER_STUB_ADDR", ":8081"),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			CORSOrigins:  getEnvList("FARELEDGER_CORS_ORIGINS", []string{"http://localhost:5173"}),
		},
		RateLimit: RateLimitConfig{
			RPS:   rps,
			Burst: burst,
		},
		CookieSecure: cookieSecure,
		SeedPassword: getEnv("FARELEDGER_STUB_PASSWORD", "fareledger-demo"),
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.LoadStub: %w", err)
	}

	return cfg, nil
}

func (c *StubConfig) validate() error {
	// JWT secret is required (no insecure default).
	if c.JWT.Secret == "" {
		return errors.New("FARELEDGER_JWT_SECRET is required")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("FARELEDGER_JWT_SECRET must be at least 32 characters")
	}

	if !c.CookieSecure {
		log.Warn().Msg("FARELEDGER_COOKIE_SECURE=false is insecure outside local development")
	}

	if c.JWT.AccessTTL <= 0 {
		return fmt.Errorf("FARELEDGER_JWT_ACCESS_TTL must be positive, got %s", c.JWT.AccessTTL)
	}
	if c.JWT.RefreshTTL <= 0 {
		return fmt.Errorf("FARELEDGER_JWT_REFRESH_TTL must be positive, got %s", c.JWT.RefreshTTL)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("FARELEDGER_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("FARELEDGER_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}
	if c.RateLimit.RPS <= 0 {
		return fmt.Errorf("FARELEDGER_RATE_LIMIT_RPS must be positive, got %g", c.RateLimit.RPS)
	}
	if c.RateLimit.Burst < 1 {
		return fmt.Errorf("FARELEDGER_RATE_LIMIT_BURST must be >= 1, got %d", c.RateLimit.Burst)
	}
	if c.SeedPassword == "" {
		return errors.New("FARELEDGER_STUB_PASSWORD must not be empty")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as float: %w", key, v, err)
	}
	return f, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parsing %s=%q as bool: %w", key, v, err)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
