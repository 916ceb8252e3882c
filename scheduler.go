package authflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ohsuite/authflow/store"
)

type refreshCall struct {
	done   chan struct{}
	tokens *store.TokenSet
	err    error
}

// refreshScheduler owns the single renewal timer and the single-flight
// guarantee: at most one refresh call is in flight at any time, and every
// concurrent caller observes that call's outcome.
type refreshScheduler struct {
	run      func(ctx context.Context, refreshToken string) (*store.TokenSet, error)
	onStart  func()
	onResult func(tokens *store.TokenSet, err error)
	onAttach func()

	fraction float64
	minLead  time.Duration
	timeout  time.Duration
	now      func() time.Time

	mu       sync.Mutex
	timer    *time.Timer
	inflight *refreshCall
	next     string
	stopped  bool
}

// schedule arms one timer to renew at the configured fraction of the access
// token's remaining lifetime, replacing any previously armed timer.
func (s *refreshScheduler) schedule(t *store.TokenSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.next = t.RefreshToken
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delayFor(t), s.fire)
}

func (s *refreshScheduler) delayFor(t *store.TokenSet) time.Duration {
	remaining := t.Remaining(s.now())
	delay := time.Duration(float64(remaining) * s.fraction)
	if remaining-delay < s.minLead {
		delay = remaining - s.minLead
	}
	if delay < 0 {
		delay = 0
	}
	return delay
}

func (s *refreshScheduler) fire() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	_, _ = s.refreshNow(ctx)
}

// refreshNow renews the token set. A caller arriving while a renewal is
// outstanding attaches to it instead of issuing a second network call; both
// observe the identical token set or the identical failure.
func (s *refreshScheduler) refreshNow(ctx context.Context) (*store.TokenSet, error) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil, ErrManagerClosed
	}
	if call := s.inflight; call != nil {
		s.mu.Unlock()
		if s.onAttach != nil {
			s.onAttach()
		}
		select {
		case <-call.done:
			return call.tokens, call.err
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrRefreshFailed, ctx.Err())
		}
	}
	refreshToken := s.next
	if refreshToken == "" {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: no refresh token held", ErrRefreshFailed)
	}
	call := &refreshCall{done: make(chan struct{})}
	s.inflight = call
	s.mu.Unlock()

	if s.onStart != nil {
		s.onStart()
	}

	tokens, err := s.run(ctx, refreshToken)
	if err != nil {
		// Terminal: a rejected refresh token will not become valid by
		// retrying. onResult escalates to the logout path.
		call.err = fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	} else {
		call.tokens = tokens
	}

	s.mu.Lock()
	s.inflight = nil
	if tokens != nil {
		s.next = tokens.RefreshToken
	}
	s.mu.Unlock()

	close(call.done)
	if s.onResult != nil {
		s.onResult(call.tokens, call.err)
	}
	return call.tokens, call.err
}

// cancel disarms the timer and forgets the held refresh token. Invoked on
// logout; a later login re-arms via schedule.
func (s *refreshScheduler) cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.next = ""
}

// stop cancels and rejects all future work. Invoked on teardown.
func (s *refreshScheduler) stop() {
	s.mu.Lock()
	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.next = ""
	s.mu.Unlock()
}
