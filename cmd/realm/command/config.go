package command

import (
	"fmt"
	"os"
	"time"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-realm/internal/economy"
)

type Config struct {
	TickInterval   string         `json:"tick_interval"`
	RenderInterval string         `json:"render_interval"`
	Nats           NatsConfig     `json:"nats"`
	Storage        StorageConfig  `json:"storage"`
	TuningPath     string         `json:"tuning_path,omitempty"`
	Listener       ListenerConfig `json:"listener"`
	Session        SessionConfig  `json:"session"`
}

func (c *Config) Validate() error {
	el := errors.NewErrorList()

	d, err := time.ParseDuration(c.TickInterval)
	if err != nil {
		el.Add(fmt.Errorf("parsing tick_interval: %w", err))
	} else if d < 100*time.Millisecond {
		el.Add(fmt.Errorf("tick_interval must be at least 100ms"))
	}

	if c.RenderInterval != "" {
		d, err := time.ParseDuration(c.RenderInterval)
		if err != nil {
			el.Add(fmt.Errorf("parsing render_interval: %w", err))
		} else if d <= 0 {
			el.Add(fmt.Errorf("render_interval must be positive"))
		}
	}

	if c.TuningPath != "" {
		if _, err := os.Stat(c.TuningPath); err != nil {
			el.Add(fmt.Errorf("invalid tuning_path %q: %w", c.TuningPath, err))
		}
	}

	el.Add(c.Nats.validate())
	el.Add(c.Storage.validate())
	el.Add(c.Listener.validate())
	el.Add(c.Session.validate())

	return el.Err()
}

func (c *Config) tickInterval() time.Duration {
	d, _ := time.ParseDuration(c.TickInterval)
	return d
}

// renderInterval defaults to roughly sixty frames a second.
func (c *Config) renderInterval() time.Duration {
	d, err := time.ParseDuration(c.RenderInterval)
	if err != nil || d <= 0 {
		return 16 * time.Millisecond
	}
	return d
}

func (c *Config) loadTuning() (*economy.Tuning, error) {
	if c.TuningPath == "" {
		return economy.Default(), nil
	}
	t, err := economy.Load(c.TuningPath)
	if err != nil {
		return nil, fmt.Errorf("loading tuning: %w", err)
	}
	return t, nil
}
