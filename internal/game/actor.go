package game

import (
	"fmt"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-realm/internal/economy"
)

// Position is a point on the room's map in world pixels.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Status is the volatile condition of an actor.
type Status struct {
	HP         float64 `json:"hp"`
	Stamina    float64 `json:"stamina"`
	Morale     float64 `json:"morale"`
	Legitimacy float64 `json:"legitimacy"`
	IsJailed   bool    `json:"isJailed"`
}

type Stats struct {
	Level      int     `json:"level"`
	XP         float64 `json:"xp"`
	Reputation float64 `json:"reputation"`
}

// Actor is a player-controlled character. Its id is scoped to a room and is distinct
// from the owning identity in UID.
type Actor struct {
	ID         string            `json:"id" jsonschema:"required,minLength=1"`
	UID        string            `json:"uid,omitempty"`
	Name       string            `json:"name"`
	Role       economy.Role      `json:"role"`
	RegionID   string            `json:"regionId"`
	Resources  economy.Resources `json:"resources"`
	Inventory  Inventory         `json:"inventory"`
	Equipment  Equipment         `json:"equipment"`
	Position   *Position         `json:"position,omitempty"`
	Status     Status            `json:"status"`
	Stats      Stats             `json:"stats"`
	LastActive int64             `json:"lastActive,omitempty"`
	IsOnline   bool              `json:"isOnline"`
}

// NewActor returns an actor of role with the role's initial resources and a fresh
// status.
func NewActor(id, uid, name string, role economy.Role, regionID string) *Actor {
	return &Actor{
		ID:        id,
		UID:       uid,
		Name:      name,
		Role:      role,
		RegionID:  regionID,
		Resources: economy.InitialResourcesFor(role),
		Inventory: Inventory{},
		Equipment: Equipment{},
		Status: Status{
			HP:         100,
			Stamina:    100,
			Morale:     100,
			Legitimacy: 100,
		},
		Stats: Stats{
			Level:      1,
			Reputation: economy.StartingReputation(role),
		},
	}
}

// Normalize fills in nil collections and the level floor left out by sparse documents.
func (a *Actor) Normalize() {
	if a.Resources == nil {
		a.Resources = economy.NewResources()
	} else {
		a.Resources = a.Resources.Clone()
	}
	if a.Inventory == nil {
		a.Inventory = Inventory{}
	}
	if a.Equipment == nil {
		a.Equipment = Equipment{}
	}
	if a.Stats.Level < 1 {
		a.Stats.Level = 1
	}
}

// Clone returns a deep copy of a.
func (a *Actor) Clone() *Actor {
	if a == nil {
		return nil
	}
	c := *a
	c.Resources = a.Resources.Clone()
	c.Inventory = a.Inventory.Clone()
	c.Equipment = a.Equipment.Clone()
	if a.Position != nil {
		p := *a.Position
		c.Position = &p
	}
	return &c
}

// OwnedBy reports whether uid is the owning identity of a. Actors without an owner
// are never owned.
func (a *Actor) OwnedBy(uid string) bool {
	return a.UID != "" && a.UID == uid
}

// Validate checks the actor invariants.
func (a *Actor) Validate() error {
	el := errors.NewErrorList()

	if a.ID == "" {
		el.Add(fmt.Errorf("id is required"))
	}
	if !a.Role.Valid() {
		el.Add(fmt.Errorf("invalid role %q", a.Role))
	}
	for g, v := range a.Resources {
		if v < 0 {
			el.Add(fmt.Errorf("resource %s is negative", g))
		}
	}
	if err := a.Inventory.Validate(); err != nil {
		el.Add(fmt.Errorf("inventory: %w", err))
	}
	if a.Status.Legitimacy < 0 || a.Status.Legitimacy > 100 {
		el.Add(fmt.Errorf("legitimacy %v out of range [0, 100]", a.Status.Legitimacy))
	}
	if a.Stats.Level < 1 {
		el.Add(fmt.Errorf("level must be at least 1"))
	}
	if a.Stats.XP < 0 {
		el.Add(fmt.Errorf("xp must not be negative"))
	}

	return el.Err()
}
