package authflow

import (
	"context"
	"fmt"
	"net/url"
)

// CallbackReason classifies the authorization-flow parameters of a provider
// redirect.
type CallbackReason uint8

const (
	// CallbackNone: no authorization-flow parameters present.
	CallbackNone CallbackReason = iota
	// CallbackCode: an authorization code is present and exchangeable.
	CallbackCode
	// CallbackProviderError: the provider reported an error parameter
	// instead of a code.
	CallbackProviderError
	// CallbackExpiredSession: a session marker arrived without a code — an
	// expired or invalid authorization attempt. Handled like a provider
	// error today; kept distinct so hosts can message it separately.
	CallbackExpiredSession
)

// Callback is the parsed authorization response carried on the redirect.
type Callback struct {
	Reason                   CallbackReason
	Code                     string
	State                    string
	ProviderError            string
	ProviderErrorDescription string
}

// ParseCallback classifies the query parameters of a provider redirect.
func ParseCallback(q url.Values) Callback {
	cb := Callback{
		Code:                     q.Get("code"),
		State:                    q.Get("state"),
		ProviderError:            q.Get("error"),
		ProviderErrorDescription: q.Get("error_description"),
	}
	switch {
	case cb.ProviderError != "":
		cb.Reason = CallbackProviderError
	case cb.Code != "":
		cb.Reason = CallbackCode
	case q.Has("session_state") || q.Has("iss"):
		cb.Reason = CallbackExpiredSession
	default:
		cb.Reason = CallbackNone
	}
	return cb
}

var authFlowParams = [...]string{"code", "state", "session_state", "iss", "error", "error_description"}

// StripAuthParams removes the authorization-flow query parameters from u in
// place, without touching any other parameters, so the location cannot be
// re-processed on back-navigation or refresh. Idempotent; reports whether
// anything was removed.
func StripAuthParams(u *url.URL) bool {
	q := u.Query()
	changed := false
	for _, p := range authFlowParams {
		if q.Has(p) {
			q.Del(p)
			changed = true
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}
	return changed
}

// HandleCallback consumes a provider redirect end to end: classify, exchange
// the code exactly once, and on success strip the authorization parameters
// from u. Error-shaped callbacks (provider error, session marker without a
// code) share the failed-exchange path: Error state, then the bounded
// redirect to the login entry point after the settle delay.
func (m *Manager) HandleCallback(ctx context.Context, u *url.URL) error {
	cb := ParseCallback(u.Query())
	switch cb.Reason {
	case CallbackCode:
		if err := m.BeginOAuthExchange(ctx, cb.Code); err != nil {
			return err
		}
		StripAuthParams(u)
		return nil
	case CallbackProviderError:
		m.metricInc(MetricExchangeFailure)
		m.failExchange()
		if cb.ProviderErrorDescription != "" {
			return fmt.Errorf("%w: %s: %s", ErrInvalidCallback, cb.ProviderError, cb.ProviderErrorDescription)
		}
		return fmt.Errorf("%w: %s", ErrInvalidCallback, cb.ProviderError)
	case CallbackExpiredSession:
		m.metricInc(MetricExchangeFailure)
		m.failExchange()
		return fmt.Errorf("%w: session marker without authorization code", ErrInvalidCallback)
	default:
		return nil
	}
}
