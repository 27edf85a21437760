package driver

import (
	"context"
	"log/slog"
	"time"
)

const (
	DefaultTickLength = time.Second * 2
)

type Manager interface {
	Tick(context.Context) error
}

// TickDriver calls Tick on each of its managers, in order, once per tick.
type TickDriver struct {
	name       string
	tickLength time.Duration
	managers   []Manager
}

func NewTickDriver(name string, managers []Manager, opts ...TickDriverOpt) *TickDriver {
	d := &TickDriver{
		name:       name,
		tickLength: DefaultTickLength,
		managers:   managers,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *TickDriver) Start(ctx context.Context) error {
	ticker := time.NewTicker(d.tickLength)
	defer ticker.Stop()

	slog.InfoContext(ctx, "driver started", "driver", d.name, "tick", d.tickLength, "managers", len(d.managers))
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			err := d.Tick(ctx)
			if err != nil {
				return err
			}
		}
	}
}

// Tick stops at the first manager that fails.
func (d *TickDriver) Tick(ctx context.Context) error {
	for _, m := range d.managers {
		if err := m.Tick(ctx); err != nil {
			slog.ErrorContext(ctx, "driver tick failed", "driver", d.name, "error", err)
			return err
		}
	}
	return nil
}
