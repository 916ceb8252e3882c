package authflow

import (
	"errors"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// AuthorizationURL builds the provider authorization-endpoint URL that starts
// a redirect-based login, with a fresh random state parameter. The host keeps
// the returned state and compares it against the callback's.
func (m *Manager) AuthorizationURL() (authURL string, state string, err error) {
	if m.config.Provider.AuthorizeURL == "" {
		return "", "", errors.New("provider authorize URL not configured")
	}
	u, err := url.Parse(m.config.Provider.AuthorizeURL)
	if err != nil {
		return "", "", err
	}

	state = uuid.NewString()

	q := u.Query()
	q.Set("response_type", "code")
	q.Set("client_id", m.config.Provider.ClientID)
	q.Set("redirect_uri", m.config.Provider.RedirectURI)
	q.Set("scope", strings.Join(m.config.Provider.Scopes, " "))
	q.Set("state", state)
	u.RawQuery = q.Encode()

	return u.String(), state, nil
}
