package authflow

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ohsuite/authflow/cooldown"
	"github.com/ohsuite/authflow/internal/idp"
	"github.com/ohsuite/authflow/jwt"
	"github.com/ohsuite/authflow/store"
)

// Manager is the session state machine. It owns the token store and the
// refresh scheduler, consumes authorization codes exactly once, and exposes
// the derived user to route guards.
//
// Construct through [Builder.Build]. All methods are safe for concurrent use.
type Manager struct {
	config    Config
	markers   *store.Markers
	provider  *idp.Client
	sched     *refreshScheduler
	metrics   *Metrics
	cooldowns *cooldown.Timer
	navigate  NavigateFunc
	onChange  func(Session)
	warn      func(string, ...any)
	now       func() time.Time

	mu              sync.Mutex
	tokens          TokenStore
	status          Status
	current         *store.TokenSet
	claims          *jwt.Claims
	loginInProgress bool
	degraded        bool
	closed          bool

	exMu      sync.Mutex
	exchanges map[string]*exchangeCall

	redirectMu sync.Mutex
	redirect   *time.Timer
}

// Snapshot returns an immutable copy of the session state for guards.
func (m *Manager) Snapshot() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() Session {
	s := Session{
		Status:          m.status,
		LoginInProgress: m.loginInProgress,
	}
	if m.current != nil {
		copied := *m.current
		s.Tokens = &copied
		s.Claims = m.claims
	}
	return s
}

// CurrentUser returns the decoded claims of the held access token, or nil
// outside authenticated states. The claims are a routing hint only: they are
// decoded without signature verification and must never gate a server-side
// privilege.
func (m *Manager) CurrentUser() *jwt.Claims {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.claims
}

// AccessToken returns the raw bearer token for backend API calls.
func (m *Manager) AccessToken() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return "", ErrNotAuthenticated
	}
	return m.current.AccessToken, nil
}

// SetLoginInProgress marks or clears the window between "authorization code
// observed" and "exchange resolved". Guards render it as a loading state so an
// in-flight exchange is never interrupted by an unauthenticated redirect.
// Exchange entry points set it themselves; this is the escape hatch for hosts
// that observe the code before handing it over.
func (m *Manager) SetLoginInProgress(v bool) {
	m.mu.Lock()
	if m.loginInProgress == v {
		m.mu.Unlock()
		return
	}
	m.loginInProgress = v
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.notify(snap)
}

// RefreshNow renews the token set immediately, sharing any in-flight renewal.
func (m *Manager) RefreshNow(ctx context.Context) (*store.TokenSet, error) {
	if m.isClosed() {
		return nil, ErrManagerClosed
	}
	return m.sched.refreshNow(ctx)
}

// Cooldowns returns the recovery-flow cooldown timer bound to the same
// storage backend, or nil when the manager was built without Redis.
func (m *Manager) Cooldowns() *cooldown.Timer {
	return m.cooldowns
}

// MetricsSnapshot copies the current counters.
func (m *Manager) MetricsSnapshot() MetricsSnapshot {
	if m == nil || m.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return m.metrics.Snapshot()
}

// Close disarms all timers and rejects further operations. Idempotent.
func (m *Manager) Close() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.sched.stop()
	m.cancelRedirect()
}

func (m *Manager) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *Manager) metricInc(id MetricID) {
	if m == nil || m.metrics == nil {
		return
	}
	m.metrics.Inc(id)
}

func (m *Manager) notify(snap Session) {
	if m.onChange != nil {
		m.onChange(snap)
	}
}

func (m *Manager) warnf(format string, args ...any) {
	if m.warn != nil {
		m.warn(format, args...)
	}
}

func (m *Manager) tokenStore() TokenStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens
}

func (m *Manager) markerStore() *store.Markers {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.degraded {
		return nil
	}
	return m.markers
}

// installTokens makes t the live session: decoded claims, Authenticated
// status, persisted set, armed renewal timer. Returns the snapshot to notify.
func (m *Manager) installTokens(ctx context.Context, t *store.TokenSet) Session {
	claims, err := jwt.DecodeUnverified(t.AccessToken)
	if err != nil {
		m.warnf("authflow: access token claims undecodable: %v", err)
		claims = nil
	}

	copied := *t
	m.mu.Lock()
	m.current = &copied
	m.claims = claims
	m.status = StatusAuthenticated
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.saveTokens(ctx, t)
	m.sched.schedule(t)
	return snap
}

// saveTokens persists the set, degrading to in-memory storage once if the
// backend is unreachable so the session survives for the process lifetime.
func (m *Manager) saveTokens(ctx context.Context, t *store.TokenSet) {
	err := m.tokenStore().Save(ctx, t)
	if err == nil {
		return
	}
	if !errors.Is(err, ErrStorageUnavailable) {
		m.warnf("authflow: token persist failed: %v", err)
		return
	}
	m.degradeStorage()
	if err := m.tokenStore().Save(ctx, t); err != nil {
		m.warnf("authflow: in-memory token persist failed: %v", err)
	}
}

func (m *Manager) degradeStorage() {
	m.mu.Lock()
	already := m.degraded
	if !already {
		m.degraded = true
		m.tokens = store.NewMemory()
	}
	m.mu.Unlock()
	if already {
		return
	}
	m.metricInc(MetricStorageDegraded)
	m.warnf("authflow: storage unavailable, session is in-memory for this process lifetime")
}

// markRefreshing is the scheduler's onStart hook.
func (m *Manager) markRefreshing() {
	m.mu.Lock()
	if m.status != StatusAuthenticated {
		m.mu.Unlock()
		return
	}
	m.status = StatusRefreshing
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.notify(snap)
}

// handleRefreshResult is the scheduler's onResult hook: install on success,
// tear the session down on failure. A logout that raced the renewal wins.
func (m *Manager) handleRefreshResult(t *store.TokenSet, err error) {
	if err != nil {
		m.metricInc(MetricRefreshFailure)
		m.expireSession()
		return
	}

	m.mu.Lock()
	stale := m.closed || !m.status.Authenticated()
	m.mu.Unlock()
	if stale {
		return
	}

	m.metricInc(MetricRefreshSuccess)
	ctx, cancel := context.WithTimeout(context.Background(), m.config.Refresh.Timeout)
	defer cancel()
	m.notify(m.installTokens(ctx, t))
}

// expireSession handles a terminal refresh failure: Expired is observable for
// one notification, then the local logout path runs and the session ends
// Anonymous.
func (m *Manager) expireSession() {
	m.mu.Lock()
	if !m.status.Authenticated() {
		m.mu.Unlock()
		return
	}
	m.current = nil
	m.claims = nil
	m.status = StatusExpired
	expired := m.snapshotLocked()
	m.mu.Unlock()

	m.metricInc(MetricSessionExpired)
	m.notify(expired)

	m.sched.cancel()
	m.cancelRedirect()

	ctx, cancel := context.WithTimeout(context.Background(), m.config.Refresh.Timeout)
	defer cancel()
	if err := m.tokenStore().Clear(ctx); err != nil {
		m.warnf("authflow: token clear failed: %v", err)
	}

	m.mu.Lock()
	if m.status != StatusExpired {
		m.mu.Unlock()
		return
	}
	m.status = StatusAnonymous
	anon := m.snapshotLocked()
	m.mu.Unlock()
	m.notify(anon)
}

// scheduleRedirect arms the bounded post-failure navigation after the settle
// delay, replacing any pending one.
func (m *Manager) scheduleRedirect(path string, delay time.Duration) {
	if m.navigate == nil {
		return
	}
	navigate := m.navigate
	m.redirectMu.Lock()
	if m.redirect != nil {
		m.redirect.Stop()
	}
	m.redirect = time.AfterFunc(delay, func() {
		navigate(path)
	})
	m.redirectMu.Unlock()
}

func (m *Manager) cancelRedirect() {
	m.redirectMu.Lock()
	if m.redirect != nil {
		m.redirect.Stop()
		m.redirect = nil
	}
	m.redirectMu.Unlock()
}

// restore rebuilds the session from persisted tokens at startup.
func (m *Manager) restore(ctx context.Context) {
	t, err := m.tokenStore().Load(ctx)
	if err != nil {
		if errors.Is(err, ErrStorageUnavailable) {
			m.degradeStorage()
		} else {
			m.warnf("authflow: token restore failed: %v", err)
		}
		return
	}
	if t == nil {
		return
	}

	if !t.Expired(m.now()) {
		m.notify(m.installTokens(ctx, t))
		return
	}

	// Access token already expired but a refresh token is on hand: come up
	// Refreshing and renew immediately.
	claims, _ := jwt.DecodeUnverified(t.AccessToken)
	m.mu.Lock()
	m.current = t
	m.claims = claims
	m.status = StatusRefreshing
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.notify(snap)
	m.sched.schedule(t)
}
