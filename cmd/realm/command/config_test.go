package command

import (
	"testing"

	"github.com/pixil98/go-realm/internal/game"
	"github.com/pixil98/go-testutil"
)

func validConfig(t *testing.T) *Config {
	t.Helper()
	return &Config{
		TickInterval: "1s",
		Storage: StorageConfig{
			BoltPath: "realm.db",
			Realms:   AssetConfig[*game.Realm]{Path: t.TempDir()},
		},
		Listener: ListenerConfig{Port: 8080},
		Session:  SessionConfig{DefaultRoom: "nordmark"},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := map[string]struct {
		mutate  func(c *Config)
		expErrs []string
	}{
		"valid config": {
			mutate: func(c *Config) {},
		},
		"bad tick interval": {
			mutate:  func(c *Config) { c.TickInterval = "soon" },
			expErrs: []string{"parsing tick_interval"},
		},
		"tick interval too short": {
			mutate:  func(c *Config) { c.TickInterval = "10ms" },
			expErrs: []string{"tick_interval must be at least 100ms"},
		},
		"bad render interval": {
			mutate:  func(c *Config) { c.RenderInterval = "-5ms" },
			expErrs: []string{"render_interval must be positive"},
		},
		"missing tuning file": {
			mutate:  func(c *Config) { c.TuningPath = "/does/not/exist.yaml" },
			expErrs: []string{"invalid tuning_path"},
		},
		"bad request timeout": {
			mutate:  func(c *Config) { c.Nats.RequestTimeout = "fast" },
			expErrs: []string{"parsing request_timeout"},
		},
		"every section reported": {
			mutate: func(c *Config) {
				c.Storage.BoltPath = ""
				c.Storage.Realms.Path = ""
				c.Listener = ListenerConfig{Path: "ws"}
				c.Session = SessionConfig{TaxRate: 2}
			},
			expErrs: []string{
				"bolt_path is required",
				"realms: path is required",
				"port must be set",
				"path must start with /",
				"default_room is required",
				"tax_rate must be between 0 and 1",
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			c := validConfig(t)
			tt.mutate(c)

			err := c.Validate()
			if len(tt.expErrs) == 0 {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			for _, exp := range tt.expErrs {
				testutil.AssertErrorContains(t, err, exp)
			}
		})
	}
}

func TestConfig_Intervals(t *testing.T) {
	c := validConfig(t)
	testutil.AssertEqual(t, "tick", c.tickInterval().String(), "1s")
	testutil.AssertEqual(t, "render default", c.renderInterval().String(), "16ms")

	c.RenderInterval = "33ms"
	testutil.AssertEqual(t, "render", c.renderInterval().String(), "33ms")
}

func TestConfig_LoadTuning(t *testing.T) {
	c := validConfig(t)
	tuning, err := c.loadTuning()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "default tuning", tuning.RestStamina, 20.0)
}
