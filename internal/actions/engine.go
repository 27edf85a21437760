package actions

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/pixil98/go-realm/internal/economy"
	"github.com/pixil98/go-realm/internal/game"
	"github.com/pixil98/go-realm/internal/remote"
	"github.com/pixil98/go-realm/internal/session"
)

// Engine turns player intents into atomic updates. The session store is read to
// reject obviously invalid actions early; the numbers written are always relative
// increments evaluated by the remote store, and the cache is never changed
// locally. The next room snapshot is what the player sees.
type Engine struct {
	ch     remote.Channel
	store  *session.Store
	tuning *economy.Tuning
	realm  *game.Realm
	newID  func() string

	mu     sync.RWMutex
	roomID string

	// gatherMu serializes gathers. placed holds stacks a gather created that the
	// cached inventory does not show yet.
	gatherMu sync.Mutex
	placed   map[int]game.InventoryItem
}

type EngineOpt func(*Engine)

// WithRealm sets the realm new characters are created in.
func WithRealm(r *game.Realm) EngineOpt {
	return func(e *Engine) {
		e.realm = r
	}
}

// WithIDGenerator replaces the generator used for character and item ids.
func WithIDGenerator(fn func() string) EngineOpt {
	return func(e *Engine) {
		e.newID = fn
	}
}

func NewEngine(ch remote.Channel, store *session.Store, tuning *economy.Tuning, opts ...EngineOpt) *Engine {
	e := &Engine{
		ch:     ch,
		store:  store,
		tuning: tuning,
		newID:  uuid.NewString,
		placed: map[int]game.InventoryItem{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetRoom changes the room later actions target.
func (e *Engine) SetRoom(roomID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.roomID = roomID
}

// Room returns the targeted room, falling back to the session's room.
func (e *Engine) Room() string {
	e.mu.RLock()
	roomID := e.roomID
	e.mu.RUnlock()
	if roomID == "" {
		roomID = e.store.RoomID()
	}
	return roomID
}

// InitializeCharacter writes a whole actor document. It is only used at creation,
// when nothing else writes to the actor. The room's market is seeded from tuning
// if it does not exist yet; an existing market is left alone.
func (e *Engine) InitializeCharacter(ctx context.Context, a *game.Actor) error {
	roomID := e.Room()
	if roomID == "" {
		return e.fail(ctx, "initialize", ErrNoRoom)
	}
	if err := a.Validate(); err != nil {
		return e.fail(ctx, "initialize", fmt.Errorf("invalid actor %s: %w", a.ID, err))
	}

	if err := e.ch.Set(ctx, remote.PlayerPath(roomID, a.ID), a); err != nil {
		return e.fail(ctx, "initialize", fmt.Errorf("writing actor %s: %w", a.ID, err))
	}

	snap, err := e.ch.Get(ctx, remote.MarketPath(roomID))
	if err != nil {
		return e.fail(ctx, "initialize", fmt.Errorf("reading market: %w", err))
	}
	if snap.Exists {
		return nil
	}

	slog.InfoContext(ctx, "seeding market", "room", roomID)
	if err := e.ch.Set(ctx, remote.MarketPath(roomID), e.tuning.MarketSeed()); err != nil {
		return e.fail(ctx, "initialize", fmt.Errorf("seeding market: %w", err))
	}
	return nil
}

// AdjustResources applies every delta in deltas to actorID in one atomic update.
func (e *Engine) AdjustResources(ctx context.Context, actorID string, deltas economy.Resources) error {
	roomID := e.Room()
	if roomID == "" {
		return e.fail(ctx, "adjust", ErrNoRoom)
	}
	if len(deltas) == 0 {
		return nil
	}

	u := remote.NewUpdate()
	for g, d := range deltas {
		if !g.Valid() {
			return e.fail(ctx, "adjust", fmt.Errorf("%w: %q", ErrUnknownGood, g))
		}
		u.Increment(remote.ResourcePath(roomID, actorID, g), d)
	}
	return e.submit(ctx, "adjust", u)
}

// local returns a copy of the local actor and the room it acts in.
func (e *Engine) local(ctx context.Context, action string) (*game.Actor, string, error) {
	user := e.store.User()
	if user == nil {
		return nil, "", e.fail(ctx, action, ErrNoLocalUser)
	}
	roomID := e.Room()
	if roomID == "" {
		return nil, "", e.fail(ctx, action, ErrNoRoom)
	}
	return user, roomID, nil
}

func (e *Engine) submit(ctx context.Context, action string, u remote.Update) error {
	if err := e.ch.AtomicUpdate(ctx, u); err != nil {
		return e.fail(ctx, action, fmt.Errorf("submitting %s: %w", action, err))
	}
	return nil
}

func (e *Engine) fail(ctx context.Context, action string, err error) error {
	slog.WarnContext(ctx, "action failed", "action", action, "error", err)
	return err
}
