package game

import (
	"fmt"
	"math"
	"slices"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-realm/internal/economy"
)

type InteractableKind string

const (
	KindResource InteractableKind = "resource"
	KindMarket   InteractableKind = "market"
	KindRest     InteractableKind = "rest"
)

// Interactable is a fixed point in a realm the local actor can act on when close enough.
type Interactable struct {
	ID       string           `json:"id"`
	Kind     InteractableKind `json:"kind"`
	Name     string           `json:"name"`
	Gather   economy.Good     `json:"gather,omitempty"`
	Position Position         `json:"position"`
	Radius   float64          `json:"radius"`
}

// Distance returns the euclidean distance from p to the interactable.
func (i Interactable) Distance(p Position) float64 {
	return math.Hypot(p.X-i.Position.X, p.Y-i.Position.Y)
}

// Realm is the static description of a room: where characters spawn, which regions
// exist and what can be interacted with.
type Realm struct {
	Name          string         `json:"name"`
	Spawn         Position       `json:"spawn"`
	Regions       []string       `json:"regions"`
	DefaultRegion string         `json:"default_region"`
	Interactables []Interactable `json:"interactables"`
}

func (r *Realm) Validate() error {
	el := errors.NewErrorList()

	if r.Name == "" {
		el.Add(fmt.Errorf("name is required"))
	}
	if len(r.Regions) == 0 {
		el.Add(fmt.Errorf("at least one region is required"))
	}
	if r.DefaultRegion != "" && !slices.Contains(r.Regions, r.DefaultRegion) {
		el.Add(fmt.Errorf("default region %q is not a region of the realm", r.DefaultRegion))
	}

	seen := map[string]bool{}
	for _, it := range r.Interactables {
		if it.ID == "" {
			el.Add(fmt.Errorf("interactable id is required"))
			continue
		}
		if seen[it.ID] {
			el.Add(fmt.Errorf("duplicate interactable %q", it.ID))
		}
		seen[it.ID] = true

		switch it.Kind {
		case KindResource:
			if !it.Gather.Valid() {
				el.Add(fmt.Errorf("interactable %q: unknown gather good %q", it.ID, it.Gather))
			}
		case KindMarket, KindRest:
		default:
			el.Add(fmt.Errorf("interactable %q: unknown kind %q", it.ID, it.Kind))
		}
		if it.Radius <= 0 {
			el.Add(fmt.Errorf("interactable %q: radius must be positive", it.ID))
		}
	}

	return el.Err()
}

// Region returns the region a new character should start in.
func (r *Realm) Region() string {
	if r.DefaultRegion != "" {
		return r.DefaultRegion
	}
	if len(r.Regions) > 0 {
		return r.Regions[0]
	}
	return economy.RegionCapital
}
