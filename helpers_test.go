package authflow

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

var testSigningSecret = []byte("authflow-test-secret")

// fakeIdP is an in-process identity provider stub: it mints HS256 access
// tokens for every grant and counts calls per grant type.
type fakeIdP struct {
	srv *httptest.Server

	mu          sync.Mutex
	calls       map[string]int
	logoutCalls int
	rejectAll   bool
	roles       []string
	expiresIn   int64
	issued      int
	hold        chan struct{}
}

func newFakeIdP(t *testing.T) *fakeIdP {
	t.Helper()
	p := &fakeIdP{
		calls:     make(map[string]int),
		roles:     []string{"ADMIN"},
		expiresIn: 300,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", p.handleToken)
	mux.HandleFunc("/logout", func(w http.ResponseWriter, _ *http.Request) {
		p.mu.Lock()
		p.logoutCalls++
		p.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	p.srv = httptest.NewServer(mux)
	t.Cleanup(p.srv.Close)
	return p
}

func (p *fakeIdP) handleToken(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	grant := r.PostForm.Get("grant_type")

	p.mu.Lock()
	p.calls[grant]++
	reject := p.rejectAll
	roles := append([]string(nil), p.roles...)
	expiresIn := p.expiresIn
	p.issued++
	serial := p.issued
	hold := p.hold
	p.mu.Unlock()

	if hold != nil {
		<-hold
	}

	if reject {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":             "invalid_grant",
			"error_description": "rejected by test",
		})
		return
	}

	now := time.Now()
	token, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, jwtv5.MapClaims{
		"sub":                "user-1",
		"preferred_username": "alice",
		"email":              "alice@example.com",
		"realm_access":       map[string]any{"roles": roles},
		"iat":                now.Unix(),
		"exp":                now.Add(time.Duration(expiresIn) * time.Second).Unix(),
	}).SignedString(testSigningSecret)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"access_token":  token,
		"refresh_token": fmt.Sprintf("refresh-%d", serial),
		"expires_in":    expiresIn,
	})
}

func (p *fakeIdP) grantCalls(grant string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[grant]
}

func (p *fakeIdP) remoteLogouts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.logoutCalls
}

func (p *fakeIdP) setExpiresIn(v int64) {
	p.mu.Lock()
	p.expiresIn = v
	p.mu.Unlock()
}

func (p *fakeIdP) setRejectAll(v bool) {
	p.mu.Lock()
	p.rejectAll = v
	p.mu.Unlock()
}

// holdResponses makes the token endpoint block until the returned release
// func is called, so tests can pile up concurrent callers.
func (p *fakeIdP) holdResponses() (release func()) {
	ch := make(chan struct{})
	p.mu.Lock()
	p.hold = ch
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		p.hold = nil
		p.mu.Unlock()
		close(ch)
	}
}

func testConfig(p *fakeIdP) Config {
	cfg := DefaultConfig()
	cfg.Provider.TokenURL = p.srv.URL + "/token"
	cfg.Provider.AuthorizeURL = p.srv.URL + "/authorize"
	cfg.Provider.LogoutURL = p.srv.URL + "/logout"
	cfg.Provider.ClientID = "test-client"
	cfg.Provider.RedirectURI = "http://localhost/callback"
	cfg.Exchange.SettleDelay = 10 * time.Millisecond
	return cfg
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

type managerOption func(*Builder)

func newTestManager(t *testing.T, p *fakeIdP, rdb redis.UniversalClient, opts ...managerOption) *Manager {
	t.Helper()
	b := New().
		WithConfig(testConfig(p)).
		WithWarn(t.Logf)
	if rdb != nil {
		b = b.WithRedis(rdb)
	}
	for _, opt := range opts {
		opt(b)
	}
	m, err := b.Build(t.Context())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(m.Close)
	return m
}

// waitFor polls cond until it holds or the deadline lapses.
func waitFor(t *testing.T, d time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v: %s", d, msg)
}

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return u
}
