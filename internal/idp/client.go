// Package idp speaks the identity provider's token and logout endpoints. It
// owns the wire format (form-encoded grants, JSON token responses) and the
// failure taxonomy; it never touches storage or session state.
package idp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ohsuite/authflow/store"
)

var (
	// ErrServerRejected covers non-2xx answers from the provider: bad
	// credentials, expired or replayed codes, revoked refresh tokens.
	ErrServerRejected = errors.New("auth server rejected request")
	// ErrNetwork covers transport failures before a response was read.
	ErrNetwork = errors.New("auth server unreachable")
	// ErrInvalidResponse covers 2xx answers whose body is not a usable token
	// payload.
	ErrInvalidResponse = errors.New("invalid token response")
)

const maxResponseBytes = 1 << 20

// Config identifies this client to the provider.
type Config struct {
	TokenURL    string
	LogoutURL   string
	ClientID    string
	RedirectURI string
	Scopes      []string
}

// Client is a stateless token-endpoint client. Safe for concurrent use.
type Client struct {
	config Config
	http   *http.Client
	now    func() time.Time
}

// New creates a client. A nil httpClient falls back to a 15 s-timeout default.
func New(cfg Config, httpClient *http.Client, now func() time.Time) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if now == nil {
		now = time.Now
	}
	return &Client{config: cfg, http: httpClient, now: now}
}

// Exchange converts a one-time authorization code into a token set.
func (c *Client) Exchange(ctx context.Context, code string) (*store.TokenSet, error) {
	form := url.Values{
		"grant_type":   {"authorization_code"},
		"client_id":    {c.config.ClientID},
		"code":         {code},
		"redirect_uri": {c.config.RedirectURI},
	}
	return c.token(ctx, form)
}

// PasswordGrant performs the direct-grant login.
func (c *Client) PasswordGrant(ctx context.Context, username, password string) (*store.TokenSet, error) {
	scopes := c.config.Scopes
	if len(scopes) == 0 {
		scopes = []string{"openid", "profile", "email"}
	}
	form := url.Values{
		"grant_type": {"password"},
		"client_id":  {c.config.ClientID},
		"username":   {username},
		"password":   {password},
		"scope":      {strings.Join(scopes, " ")},
	}
	return c.token(ctx, form)
}

// Refresh renews the token set from a refresh token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*store.TokenSet, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {c.config.ClientID},
		"refresh_token": {refreshToken},
	}
	return c.token(ctx, form)
}

// Logout terminates the provider-side session. Best effort: the response body
// and status are ignored, only transport errors are reported so callers can
// log them.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	if c.config.LogoutURL == "" {
		return nil
	}
	form := url.Values{
		"client_id":     {c.config.ClientID},
		"refresh_token": {refreshToken},
	}
	resp, err := c.post(ctx, c.config.LogoutURL, form)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
	return nil
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type errorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

func (c *Client) token(ctx context.Context, form url.Values) (*store.TokenSet, error) {
	resp, err := c.post(ctx, c.config.TokenURL, form)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, rejectionError(resp.StatusCode, body)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if tr.AccessToken == "" || tr.RefreshToken == "" || tr.ExpiresIn <= 0 {
		return nil, fmt.Errorf("%w: missing token fields", ErrInvalidResponse)
	}

	return &store.TokenSet{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresAt:    c.now().Add(time.Duration(tr.ExpiresIn) * time.Second),
	}, nil
}

func (c *Client) post(ctx context.Context, endpoint string, form url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.http.Do(req)
}

// rejectionError extracts the provider's error description when the body is
// the documented JSON shape, falling back to a bounded plain-text snippet.
func rejectionError(status int, body []byte) error {
	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Error != "" {
		if er.Description != "" {
			return fmt.Errorf("%w: %s: %s", ErrServerRejected, er.Error, er.Description)
		}
		return fmt.Errorf("%w: %s", ErrServerRejected, er.Error)
	}
	snippet := strings.TrimSpace(string(body))
	if len(snippet) > 120 {
		snippet = snippet[:120]
	}
	if snippet == "" {
		return fmt.Errorf("%w: status %d", ErrServerRejected, status)
	}
	return fmt.Errorf("%w: status %d: %s", ErrServerRejected, status, snippet)
}
