package game

import "github.com/pixil98/go-realm/internal/economy"

// Room is the replicated document of one realm: its world state, every actor that
// has ever entered and its market. HasWorld and HasMarket record whether a decoded
// snapshot actually carried those parts.
type Room struct {
	World   WorldState        `json:"world"`
	Players map[string]*Actor `json:"players"`
	Market  economy.Market    `json:"market"`

	HasWorld  bool `json:"-"`
	HasMarket bool `json:"-"`
}

// Normalize fills nil maps and normalizes every actor.
func (r *Room) Normalize() {
	if r.Players == nil {
		r.Players = map[string]*Actor{}
	}
	for id, a := range r.Players {
		if a == nil {
			delete(r.Players, id)
			continue
		}
		a.Normalize()
	}
	if r.Market == nil {
		r.Market = economy.Market{}
	}
}

// Account is the per-identity record that survives across rooms.
type Account struct {
	UID             string              `json:"uid"`
	DisplayName     string              `json:"displayName"`
	GlobalXP        float64             `json:"globalXp"`
	GlobalLevel     int                 `json:"globalLevel"`
	AccountAge      int64               `json:"accountAge"`
	CharacterRoster map[string][]string `json:"characterRoster,omitempty"`
	Achievements    []string            `json:"achievements,omitempty"`
}
