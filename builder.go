package authflow

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/ohsuite/authflow/cooldown"
	"github.com/ohsuite/authflow/internal/idp"
	"github.com/ohsuite/authflow/store"
	"github.com/redis/go-redis/v9"
)

// Builder assembles a [Manager]. Construction is allocation-only; the single
// storage read that restores a persisted session happens in [Builder.Build].
type Builder struct {
	config     Config
	redis      redis.UniversalClient
	httpClient *http.Client
	navigate   NavigateFunc
	onChange   func(Session)
	warn       func(string, ...any)
	clock      func() time.Time

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis supplies the persistence backend for tokens, consumed-code
// markers, and cooldowns. Without it the session is in-memory only and does
// not survive a restart.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithHTTPClient replaces the provider transport. Defaults to a
// 15 s-timeout client.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// WithNavigator wires the navigation sink for scheduled post-failure
// redirects. A nil navigator drops them.
func (b *Builder) WithNavigator(fn NavigateFunc) *Builder {
	b.navigate = fn
	return b
}

// WithOnChange registers an observer invoked with a snapshot after every
// session transition. The callback runs synchronously; keep it cheap.
func (b *Builder) WithOnChange(fn func(Session)) *Builder {
	b.onChange = fn
	return b
}

// WithWarn replaces the warning sink. Defaults to log.Printf.
func (b *Builder) WithWarn(fn func(string, ...any)) *Builder {
	b.warn = fn
	return b
}

// WithClock replaces the time source. Tests inject a fake clock here.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// WithMetricsEnabled toggles the counter set.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration, assembles the manager, and restores any
// persisted session: live tokens come up Authenticated with the renewal timer
// armed; an expired access token with a refresh token on hand comes up
// Refreshing and renews in the background. An unreachable backend degrades to
// in-memory storage instead of failing.
func (b *Builder) Build(ctx context.Context) (*Manager, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	b.built = true

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	warn := b.warn
	if warn == nil {
		warn = log.Printf
	}
	clock := b.clock
	if clock == nil {
		clock = time.Now
	}

	m := &Manager{
		config:    cfg,
		navigate:  b.navigate,
		onChange:  b.onChange,
		warn:      warn,
		now:       clock,
		status:    StatusAnonymous,
		exchanges: make(map[string]*exchangeCall),
	}

	m.provider = idp.New(idp.Config{
		TokenURL:    cfg.Provider.TokenURL,
		LogoutURL:   cfg.Provider.LogoutURL,
		ClientID:    cfg.Provider.ClientID,
		RedirectURI: cfg.Provider.RedirectURI,
		Scopes:      cfg.Provider.Scopes,
	}, b.httpClient, clock)

	if b.redis != nil {
		m.tokens = store.New(b.redis, cfg.Storage.Prefix)
		m.markers = store.NewMarkers(b.redis, cfg.Storage.Prefix, cfg.Exchange.MarkerTTL)
		m.cooldowns = cooldown.New(b.redis, cooldown.Config{
			Prefix: cfg.Storage.Prefix,
			Clock:  clock,
		})
	} else {
		m.tokens = store.NewMemory()
	}

	m.metrics = newMetrics(cfg.Metrics.Enabled)

	m.sched = &refreshScheduler{
		run: func(ctx context.Context, refreshToken string) (*store.TokenSet, error) {
			return m.provider.Refresh(ctx, refreshToken)
		},
		onStart:  m.markRefreshing,
		onResult: m.handleRefreshResult,
		onAttach: func() { m.metricInc(MetricRefreshCoalesced) },
		fraction: cfg.Refresh.AtFraction,
		minLead:  cfg.Refresh.MinLead,
		timeout:  cfg.Refresh.Timeout,
		now:      clock,
	}

	m.restore(ctx)
	return m, nil
}
