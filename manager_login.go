package authflow

import "context"

// Login performs the direct-grant (password) login. On success the session
// transitions to Authenticated and the renewal timer is armed. On failure the
// error carries the taxonomy kind ([ErrAuthServerRejected], [ErrNetwork],
// [ErrInvalidResponse]) and the session returns to its prior anonymous state.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	if m.isClosed() {
		return ErrManagerClosed
	}

	m.mu.Lock()
	entered := false
	if !m.status.Authenticated() {
		m.status = StatusAuthenticating
		entered = true
	}
	snap := m.snapshotLocked()
	m.mu.Unlock()
	if entered {
		m.notify(snap)
	}

	tokens, err := m.provider.PasswordGrant(ctx, username, password)
	if err != nil {
		m.metricInc(MetricLoginFailure)
		m.mu.Lock()
		reverted := false
		if m.status == StatusAuthenticating {
			m.status = StatusAnonymous
			reverted = true
		}
		snap := m.snapshotLocked()
		m.mu.Unlock()
		if reverted {
			m.notify(snap)
		}
		return err
	}

	m.metricInc(MetricLoginSuccess)
	m.notify(m.installTokens(ctx, tokens))
	return nil
}
