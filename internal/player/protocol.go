package player

import (
	"github.com/pixil98/go-realm/internal/economy"
	"github.com/pixil98/go-realm/internal/game"
)

// Client intents.
const (
	MsgHello    = "hello"
	MsgMove     = "move"
	MsgTrade    = "trade"
	MsgGather   = "gather"
	MsgEat      = "eat"
	MsgRest     = "rest"
	MsgInteract = "interact"
	MsgTax      = "tax"
)

// Server messages.
const (
	MsgWelcome          = "welcome"
	MsgSyncPlayers      = "sync-players"
	MsgFrame            = "frame"
	MsgNearInteractable = "near-interactable"
	MsgPrompt           = "interaction-prompt"
	MsgClear            = "interaction-clear"
	MsgGathered         = "gathered"
	MsgMarket           = "market"
	MsgError            = "error"
)

// Intent is one message from the client. Only the fields of its type are set.
type Intent struct {
	Type string `json:"type"`

	// hello
	Owner       string `json:"owner,omitempty"`
	Room        string `json:"room,omitempty"`
	CharacterID string `json:"characterId,omitempty"`
	CreateName  string `json:"createName,omitempty"`

	// move
	X  float64 `json:"x,omitempty"`
	Y  float64 `json:"y,omitempty"`
	VX float64 `json:"vx,omitempty"`
	VY float64 `json:"vy,omitempty"`

	// trade, gather, eat
	Good     economy.Good `json:"good,omitempty"`
	Quantity int          `json:"quantity,omitempty"`
	Buy      bool         `json:"buy,omitempty"`
	Quality  float64      `json:"quality,omitempty"`
	Food     economy.Good `json:"food,omitempty"`

	// tax
	Rate float64 `json:"rate,omitempty"`
}

// Message is one message to the client.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type WelcomeData struct {
	SessionID string          `json:"sessionId"`
	RoomID    string          `json:"roomId"`
	Actor     *game.Actor     `json:"actor"`
	World     game.WorldState `json:"world"`
}

type SyncPlayersData struct {
	Players map[string]*game.Actor `json:"players"`
	LocalID string                 `json:"localId"`
}

type FrameData struct {
	Local     *game.Position           `json:"local,omitempty"`
	Positions map[string]game.Position `json:"positions"`
}

type ErrorData struct {
	Intent  string `json:"intent,omitempty"`
	Message string `json:"message"`
}
