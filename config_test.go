package authflow

import (
	"testing"
	"time"
)

func validTestConfig() Config {
	cfg := DefaultConfig()
	cfg.Provider.TokenURL = "https://idp.local/token"
	cfg.Provider.ClientID = "client-1"
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Refresh.AtFraction != 0.8 {
		t.Errorf("AtFraction = %v, want 0.8", cfg.Refresh.AtFraction)
	}
	if cfg.Refresh.MinLead != 5*time.Second {
		t.Errorf("MinLead = %v, want 5s", cfg.Refresh.MinLead)
	}
	if cfg.Exchange.SettleDelay != 2*time.Second {
		t.Errorf("SettleDelay = %v, want 2s", cfg.Exchange.SettleDelay)
	}
	if cfg.Exchange.MarkerTTL != 5*time.Minute {
		t.Errorf("MarkerTTL = %v, want 5m", cfg.Exchange.MarkerTTL)
	}
	if cfg.Storage.Prefix != "af" {
		t.Errorf("Prefix = %q, want af", cfg.Storage.Prefix)
	}
	if cfg.Routes.LoginPath != PathLogin || cfg.Routes.ForbiddenPath != PathForbidden {
		t.Errorf("routes = %q / %q", cfg.Routes.LoginPath, cfg.Routes.ForbiddenPath)
	}
	if !cfg.Metrics.Enabled {
		t.Error("metrics disabled by default")
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"missing token URL", func(c *Config) { c.Provider.TokenURL = "" }, true},
		{"unparseable token URL", func(c *Config) { c.Provider.TokenURL = "not a url" }, true},
		{"missing client ID", func(c *Config) { c.Provider.ClientID = "" }, true},
		{"fraction zero", func(c *Config) { c.Refresh.AtFraction = 0 }, true},
		{"fraction one", func(c *Config) { c.Refresh.AtFraction = 1 }, true},
		{"negative min lead", func(c *Config) { c.Refresh.MinLead = -time.Second }, true},
		{"zero refresh timeout", func(c *Config) { c.Refresh.Timeout = 0 }, true},
		{"negative settle delay", func(c *Config) { c.Exchange.SettleDelay = -time.Second }, true},
		{"zero settle delay ok", func(c *Config) { c.Exchange.SettleDelay = 0 }, false},
		{"zero marker TTL", func(c *Config) { c.Exchange.MarkerTTL = 0 }, true},
		{"empty login path", func(c *Config) { c.Routes.LoginPath = "" }, true},
		{"empty forbidden path", func(c *Config) { c.Routes.ForbiddenPath = "" }, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validTestConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr && err == nil {
				t.Error("Validate passed, want error")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("Validate failed: %v", err)
			}
		})
	}
}

func TestCloneConfigIsolatesScopes(t *testing.T) {
	cfg := validTestConfig()
	clone := cloneConfig(cfg)
	clone.Provider.Scopes[0] = "mutated"
	if cfg.Provider.Scopes[0] == "mutated" {
		t.Error("clone shares the scopes slice with the original")
	}
}

func TestBuilderRejectsReuse(t *testing.T) {
	p := newFakeIdP(t)
	b := New().WithConfig(testConfig(p))
	m, err := b.Build(t.Context())
	if err != nil {
		t.Fatalf("first Build failed: %v", err)
	}
	t.Cleanup(m.Close)

	if _, err := b.Build(t.Context()); err == nil {
		t.Error("second Build on the same builder succeeded")
	}
}

func TestBuilderRejectsInvalidConfig(t *testing.T) {
	if _, err := New().Build(t.Context()); err == nil {
		t.Error("Build with no provider identity succeeded")
	}
}
