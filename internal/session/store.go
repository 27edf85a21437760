package session

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/pixil98/go-realm/internal/economy"
	"github.com/pixil98/go-realm/internal/events"
	"github.com/pixil98/go-realm/internal/game"
	"github.com/pixil98/go-realm/internal/remote"
)

// Store is one session's cache of the room it is in. Snapshots from the remote
// channel replace its contents; readers get copies and are told about changes on the
// bus.
type Store struct {
	ch  remote.Channel
	dec *remote.Decoder
	bus *events.Bus
	now func() time.Time

	mu          sync.RWMutex
	user        *game.Actor
	world       game.WorldState
	players     map[string]*game.Actor
	market      economy.Market
	roomID      string
	interaction *game.Interactable
}

type StoreOpt func(*Store)

// WithClock replaces the time source used for freshness timestamps.
func WithClock(now func() time.Time) StoreOpt {
	return func(s *Store) {
		s.now = now
	}
}

func NewStore(ch remote.Channel, dec *remote.Decoder, bus *events.Bus, opts ...StoreOpt) *Store {
	s := &Store{
		ch:      ch,
		dec:     dec,
		bus:     bus,
		now:     time.Now,
		world:   game.DefaultWorldState(),
		players: map[string]*game.Actor{},
		market:  economy.Market{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) User() *game.Actor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.Clone()
}

func (s *Store) World() game.WorldState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.world
}

func (s *Store) Players() map[string]*game.Actor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePlayers(s.players)
}

func (s *Store) Market() economy.Market {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.market.Clone()
}

func (s *Store) RoomID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roomID
}

func (s *Store) Interaction() *game.Interactable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.interaction == nil {
		return nil
	}
	i := *s.interaction
	return &i
}

// SetUser makes a the local actor; nil clears it.
func (s *Store) SetUser(a *game.Actor) {
	s.mu.Lock()
	s.user = a.Clone()
	s.mu.Unlock()
	s.changed()
}

// SetWorldState merges the fields set in p into the cached world.
func (s *Store) SetWorldState(p game.WorldPatch) {
	s.mu.Lock()
	s.world = s.world.Merge(p)
	s.mu.Unlock()
	s.changed()
}

// SetInteraction records the interactable the local actor targets; nil clears it.
func (s *Store) SetInteraction(i *game.Interactable) {
	s.mu.Lock()
	if i == nil {
		s.interaction = nil
	} else {
		c := *i
		s.interaction = &c
	}
	s.mu.Unlock()
	s.changed()
}

// SyncWithRoom marks the local actor online in roomID, arranges for it to be marked
// offline when this session's connection goes away and subscribes to the room. The
// returned function ends the subscription; it is safe to call more than once.
func (s *Store) SyncWithRoom(ctx context.Context, roomID string) (func(), error) {
	s.mu.Lock()
	s.roomID = roomID
	var userID string
	if s.user != nil {
		userID = s.user.ID
	}
	s.mu.Unlock()

	if userID != "" {
		s.markOnline(ctx, roomID, userID)
	}

	cancel, err := s.ch.Subscribe(remote.RoomPath(roomID), s.onSnapshot, func(err error) {
		slog.Warn("room subscription error, keeping cached state", "room", roomID, "error", err)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribing to room %s: %w", roomID, err)
	}

	slog.InfoContext(ctx, "synced with room", "room", roomID, "player", userID)
	return cancel, nil
}

func (s *Store) markOnline(ctx context.Context, roomID, userID string) {
	online := remote.NewUpdate().
		Set(remote.PlayerField(roomID, userID, "isOnline"), true).
		Set(remote.PlayerField(roomID, userID, "lastActive"), s.now().UnixMilli())
	if err := s.ch.AtomicUpdate(ctx, online); err != nil {
		slog.WarnContext(ctx, "marking player online", "room", roomID, "player", userID, "error", err)
	}
	if err := s.ch.OnDisconnectSetValue(ctx, remote.PlayerField(roomID, userID, "isOnline"), false); err != nil {
		slog.WarnContext(ctx, "registering offline fallback", "room", roomID, "player", userID, "error", err)
	}
}

func (s *Store) onSnapshot(snap remote.Snapshot) {
	if !snap.Exists || len(snap.Data) == 0 {
		slog.Warn("room snapshot has no data", "path", snap.Path)
		return
	}
	room, err := s.dec.DecodeRoom(snap.Data)
	if err != nil {
		slog.Warn("ignoring undecodable room snapshot", "path", snap.Path, "error", err)
		return
	}

	s.mu.Lock()
	// A snapshot without a usable world or market keeps what is cached.
	if room.HasWorld {
		s.world = s.world.Merge(room.World.Patch())
	}
	if room.HasMarket {
		s.market = room.Market
	}
	s.players = room.Players
	localID := ""
	if s.user != nil {
		localID = s.user.ID
		if fresh, ok := room.Players[localID]; ok {
			s.user = fresh.Clone()
		}
	}
	players := clonePlayers(s.players)
	s.mu.Unlock()

	s.bus.SyncPlayers.Publish(events.SyncPlayers{Players: players, LocalID: localID})
	s.changed()
}

// UpdateLocalPosition moves the local actor. The cache is updated first so the move
// shows without waiting for the store; only the position and freshness fields are
// written remotely.
func (s *Store) UpdateLocalPosition(ctx context.Context, x, y float64) error {
	s.mu.Lock()
	if s.user == nil || s.roomID == "" {
		s.mu.Unlock()
		return ErrNoLocalUser
	}
	roomID, userID := s.roomID, s.user.ID
	s.user.Position = &game.Position{X: x, Y: y}
	if p, ok := s.players[userID]; ok {
		p.Position = &game.Position{X: x, Y: y}
	}
	s.mu.Unlock()

	s.bus.LocalPlayerMoved.Publish(game.Position{X: x, Y: y})
	s.changed()

	u := remote.NewUpdate().
		Set(remote.PositionPath(roomID, userID, "x"), math.Round(x)).
		Set(remote.PositionPath(roomID, userID, "y"), math.Round(y)).
		Set(remote.PlayerField(roomID, userID, "lastActive"), s.now().UnixMilli())
	if err := s.ch.AtomicUpdate(ctx, u); err != nil {
		slog.WarnContext(ctx, "writing position", "player", userID, "error", err)
		return fmt.Errorf("writing position: %w", err)
	}
	return nil
}

// RestoreCharacter loads characterID from roomID and, if owner owns it, makes it the
// local actor. A missing or foreign character reports false without an error; only a
// transport failure is returned as one.
func (s *Store) RestoreCharacter(ctx context.Context, roomID, characterID, owner string) (bool, error) {
	snap, err := s.ch.Get(ctx, remote.PlayerPath(roomID, characterID))
	if err != nil {
		slog.WarnContext(ctx, "fetching character", "room", roomID, "player", characterID, "error", err)
		return false, fmt.Errorf("fetching character %s: %w", characterID, err)
	}
	if !snap.Exists {
		slog.InfoContext(ctx, "character not found", "room", roomID, "player", characterID)
		return false, nil
	}

	a, err := s.dec.DecodeActor(snap.Data)
	if err != nil {
		slog.WarnContext(ctx, "character document is malformed", "room", roomID, "player", characterID, "error", err)
		return false, nil
	}
	if !a.OwnedBy(owner) {
		slog.WarnContext(ctx, "character owned by another identity", "room", roomID, "player", characterID)
		return false, nil
	}

	s.mu.Lock()
	s.user = a
	s.roomID = roomID
	s.mu.Unlock()
	s.changed()

	return true, nil
}

func (s *Store) changed() {
	s.bus.StateChanged.Publish(events.StateChanged{})
}

func clonePlayers(in map[string]*game.Actor) map[string]*game.Actor {
	out := make(map[string]*game.Actor, len(in))
	for id, a := range in {
		out[id] = a.Clone()
	}
	return out
}
