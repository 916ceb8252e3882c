package authflow

import (
	"errors"
	"net/url"
	"time"
)

// Config groups all tunables for a [Manager]. Zero values are filled in by
// [DefaultConfig]; instances are treated as immutable after [Builder.Build].
type Config struct {
	Provider ProviderConfig
	Refresh  RefreshConfig
	Exchange ExchangeConfig
	Storage  StorageConfig
	Routes   RouteConfig
	Metrics  MetricsConfig
}

/*
====================================
PROVIDER CONFIG
====================================
*/

// ProviderConfig identifies the OAuth2 identity provider and this client.
type ProviderConfig struct {
	// TokenURL is the provider's token endpoint. Required.
	TokenURL string
	// AuthorizeURL is the provider's authorization endpoint, used by
	// [Manager.AuthorizationURL]. Optional when the host never starts
	// redirect-based logins.
	AuthorizeURL string
	// LogoutURL is the provider's session-termination endpoint. Optional;
	// logout stays purely local when empty.
	LogoutURL string
	// ClientID is the public client identifier. Required.
	ClientID string
	// RedirectURI is the registered callback target for the code flow.
	RedirectURI string
	// Scopes requested on password-grant logins and authorization URLs.
	// Defaults to "openid profile email".
	Scopes []string
}

/*
====================================
REFRESH CONFIG
====================================
*/

// RefreshConfig controls pre-expiry token renewal.
type RefreshConfig struct {
	// AtFraction of the access token's remaining lifetime at which renewal
	// fires. Defaults to 0.8; valid range (0, 1).
	AtFraction float64
	// MinLead is the minimum gap between renewal and expiry. Defaults to 5s.
	MinLead time.Duration
	// Timeout bounds a single timer-driven renewal call. Defaults to 15s.
	Timeout time.Duration
}

/*
====================================
EXCHANGE CONFIG
====================================
*/

// ExchangeConfig controls authorization-code handling.
type ExchangeConfig struct {
	// SettleDelay is the UX floor between a failed exchange and the scheduled
	// navigation back to the login entry point, so the failure state is seen
	// before leaving the page. Defaults to 2s.
	SettleDelay time.Duration
	// MarkerTTL bounds how long a consumed-code marker persists. Defaults
	// to 5m.
	MarkerTTL time.Duration
}

/*
====================================
STORAGE CONFIG
====================================
*/

// StorageConfig controls persistence namespacing.
type StorageConfig struct {
	// Prefix namespaces every Redis key. Defaults to "af".
	Prefix string
}

/*
====================================
ROUTE CONFIG
====================================
*/

// RouteConfig fixes the safe entry points guards and failure paths navigate to.
type RouteConfig struct {
	// LoginPath defaults to [PathLogin].
	LoginPath string
	// ForbiddenPath defaults to [PathForbidden].
	ForbiddenPath string
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig toggles the atomic counter set.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the documented defaults. Provider identity fields
// stay empty and must be supplied by the host.
func DefaultConfig() Config {
	return Config{
		Provider: ProviderConfig{
			Scopes: []string{"openid", "profile", "email"},
		},
		Refresh: RefreshConfig{
			AtFraction: 0.8,
			MinLead:    5 * time.Second,
			Timeout:    15 * time.Second,
		},
		Exchange: ExchangeConfig{
			SettleDelay: 2 * time.Second,
			MarkerTTL:   5 * time.Minute,
		},
		Storage: StorageConfig{
			Prefix: "af",
		},
		Routes: RouteConfig{
			LoginPath:     PathLogin,
			ForbiddenPath: PathForbidden,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Provider.Scopes = append([]string(nil), cfg.Provider.Scopes...)
	return out
}

// Validate checks internal consistency. Called by [Builder.Build].
func (c *Config) Validate() error {
	if c.Provider.TokenURL == "" {
		return errors.New("provider token URL required")
	}
	if _, err := url.ParseRequestURI(c.Provider.TokenURL); err != nil {
		return errors.New("provider token URL invalid")
	}
	if c.Provider.ClientID == "" {
		return errors.New("provider client ID required")
	}
	if c.Refresh.AtFraction <= 0 || c.Refresh.AtFraction >= 1 {
		return errors.New("refresh fraction must be in (0, 1)")
	}
	if c.Refresh.MinLead < 0 {
		return errors.New("refresh min lead must not be negative")
	}
	if c.Refresh.Timeout <= 0 {
		return errors.New("refresh timeout must be positive")
	}
	if c.Exchange.SettleDelay < 0 {
		return errors.New("exchange settle delay must not be negative")
	}
	if c.Exchange.MarkerTTL <= 0 {
		return errors.New("exchange marker TTL must be positive")
	}
	if c.Routes.LoginPath == "" || c.Routes.ForbiddenPath == "" {
		return errors.New("route paths required")
	}
	return nil
}
