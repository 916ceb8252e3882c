package authflow

import (
	"context"
	"fmt"
)

type exchangeCall struct {
	done chan struct{}
	err  error
}

// BeginOAuthExchange consumes an authorization code exactly once.
//
// The per-code marker is taken before any network I/O: the first caller for a
// code performs the exchange, every concurrent duplicate (re-entrant
// initialization of the callback view) attaches to it and observes the same
// resolved outcome. A code already consumed in an earlier page lifetime is
// refused with [ErrCodeConsumed] without touching session state.
//
// On success the token set is persisted and the session becomes Authenticated.
// On failure the session becomes Error and a navigation back to the login
// entry point is scheduled after the settle delay; the login-in-progress flag
// is cleared regardless of outcome.
func (m *Manager) BeginOAuthExchange(ctx context.Context, code string) error {
	if m.isClosed() {
		return ErrManagerClosed
	}
	if code == "" {
		return fmt.Errorf("%w: empty authorization code", ErrInvalidCallback)
	}

	m.exMu.Lock()
	if call, ok := m.exchanges[code]; ok {
		m.exMu.Unlock()
		m.metricInc(MetricExchangeDuplicate)
		select {
		case <-call.done:
			return call.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	call := &exchangeCall{done: make(chan struct{})}
	m.exchanges[code] = call
	m.exMu.Unlock()

	call.err = m.runExchange(ctx, code)
	close(call.done)
	return call.err
}

func (m *Manager) runExchange(ctx context.Context, code string) error {
	m.SetLoginInProgress(true)
	defer m.SetLoginInProgress(false)

	// Durable marker: refuses codes replayed across process restarts
	// (back-navigation after a reload). Marker unavailability is not fatal;
	// the in-memory map still covers this lifetime.
	if markers := m.markerStore(); markers != nil {
		first, err := markers.Consume(ctx, code)
		switch {
		case err != nil:
			m.warnf("authflow: consumed-code marker unavailable: %v", err)
		case !first:
			m.metricInc(MetricExchangeDuplicate)
			return ErrCodeConsumed
		}
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

	tokens, err := m.provider.Exchange(ctx, code)
	if err != nil {
		m.metricInc(MetricExchangeFailure)
		m.failExchange()
		return err
	}

	m.metricInc(MetricExchangeSuccess)
	m.notify(m.installTokens(ctx, tokens))
	return nil
}

// failExchange moves the session to Error and schedules the bounded
// redirect to the login entry point after the settle delay, so the failure is
// visible before leaving the page.
func (m *Manager) failExchange() {
	m.mu.Lock()
	m.current = nil
	m.claims = nil
	m.status = StatusError
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.notify(snap)

	m.scheduleRedirect(m.config.Routes.LoginPath, m.config.Exchange.SettleDelay)
}
