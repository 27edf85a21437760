package events

import "github.com/pixil98/go-realm/internal/game"

// SyncPlayers carries the full actor map after a room snapshot, and which of the
// actors is the local one.
type SyncPlayers struct {
	Players map[string]*game.Actor
	LocalID string
}

// Candidate is an interactable the local actor is close enough to use.
type Candidate struct {
	Interactable game.Interactable `json:"interactable"`
	Prompt       string           `json:"prompt"`
	Distance     float64          `json:"distance"`
}

// NearInteractable reports the closest usable interactable; Candidate is nil when
// there is none.
type NearInteractable struct {
	Candidate *Candidate
}

type InteractionClear struct{}

type SceneReady struct {
	RoomID string
}

// StateChanged tells readers of a session store to re-read it.
type StateChanged struct{}

// Bus groups the typed topics shared by a session's components and the presentation
// layer.
type Bus struct {
	SceneReady        *Topic[SceneReady]
	SyncPlayers       *Topic[SyncPlayers]
	LocalPlayerMoved  *Topic[game.Position]
	NearInteractable  *Topic[NearInteractable]
	InteractionPrompt *Topic[Candidate]
	InteractionClear  *Topic[InteractionClear]
	StateChanged      *Topic[StateChanged]
}

func NewBus() *Bus {
	return &Bus{
		SceneReady:        NewTopic[SceneReady]("current-scene-ready"),
		SyncPlayers:       NewTopic[SyncPlayers]("sync-players"),
		LocalPlayerMoved:  NewTopic[game.Position]("local-player-moved"),
		NearInteractable:  NewTopic[NearInteractable]("near-interactable"),
		InteractionPrompt: NewTopic[Candidate]("interaction-prompt"),
		InteractionClear:  NewTopic[InteractionClear]("interaction-clear"),
		StateChanged:      NewTopic[StateChanged]("state-changed"),
	}
}
