package command

import (
	"fmt"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-realm/internal/economy"
	"github.com/pixil98/go-realm/internal/game"
	"github.com/pixil98/go-realm/internal/player"
	"github.com/pixil98/go-realm/internal/remote"
	"github.com/pixil98/go-realm/internal/storage"
)

type SessionConfig struct {
	DefaultRoom string  `json:"default_room"`
	TaxRate     float64 `json:"tax_rate,omitempty"`
}

func (c *SessionConfig) validate() error {
	el := errors.NewErrorList()

	if c.DefaultRoom == "" {
		el.Add(fmt.Errorf("session: default_room is required"))
	}
	if c.TaxRate < 0 || c.TaxRate > 1 {
		el.Add(fmt.Errorf("session: tax_rate must be between 0 and 1"))
	}

	return el.Err()
}

func (c *SessionConfig) BuildPlayerManager(
	dial player.Dialer,
	dec *remote.Decoder,
	tuning *economy.Tuning,
	realms storage.Storer[*game.Realm],
) (*player.PlayerManager, error) {
	if _, ok := realms.Get(c.DefaultRoom); !ok {
		return nil, fmt.Errorf("default room %q is not a known realm", c.DefaultRoom)
	}

	opts := []player.PlayerManagerOpt{player.WithDefaultRoom(c.DefaultRoom)}
	if c.TaxRate > 0 {
		opts = append(opts, player.WithTaxRate(c.TaxRate))
	}
	return player.NewPlayerManager(dial, dec, tuning, realms, opts...), nil
}
