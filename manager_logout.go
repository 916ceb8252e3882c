package authflow

import (
	"context"
	"time"
)

// Logout ends the session locally and fires a best-effort provider-side
// termination. Idempotent: a second call on an already-cleared store is a
// no-op. The local transition to Anonymous never waits on, and never fails
// because of, the remote call.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	var refreshToken string
	if m.current != nil {
		refreshToken = m.current.RefreshToken
	}
	m.current = nil
	m.claims = nil
	m.status = StatusAnonymous
	m.loginInProgress = false
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.sched.cancel()
	m.cancelRedirect()

	if err := m.tokenStore().Clear(ctx); err != nil {
		m.warnf("authflow: token clear on logout failed: %v", err)
	}

	m.metricInc(MetricLogout)
	m.notify(snap)

	if refreshToken == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := m.provider.Logout(ctx, refreshToken); err != nil {
			m.warnf("authflow: remote logout failed: %v", err)
		}
	}()
}
