package player

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/pixil98/go-realm/internal/actions"
	"github.com/pixil98/go-realm/internal/economy"
	"github.com/pixil98/go-realm/internal/events"
	"github.com/pixil98/go-realm/internal/game"
	"github.com/pixil98/go-realm/internal/interact"
	"github.com/pixil98/go-realm/internal/motion"
	"github.com/pixil98/go-realm/internal/remote"
	"github.com/pixil98/go-realm/internal/session"
	"github.com/pixil98/go-realm/internal/storage"
)

// Conn is a client connection carrying JSON messages.
type Conn interface {
	ReadJSON(v any) error
	WriteJSON(v any) error
	Close() error
}

// Channel is a remote channel owned by one session. Closing it is what lets the
// store run the session's disconnect writes.
type Channel interface {
	remote.Channel
	Close() error
}

// Dialer opens the remote channel for a new session.
type Dialer func(ctx context.Context, sessionID string) (Channel, error)

type PlayerManager struct {
	dial        Dialer
	decoder     *remote.Decoder
	tuning      *economy.Tuning
	realms      storage.Storer[*game.Realm]
	defaultRoom string
	taxRate     float64
	newID       func() string

	mu      sync.Mutex
	players map[string]*Player
}

type PlayerManagerOpt func(*PlayerManager)

func WithDefaultRoom(room string) PlayerManagerOpt {
	return func(m *PlayerManager) {
		m.defaultRoom = room
	}
}

func WithTaxRate(rate float64) PlayerManagerOpt {
	return func(m *PlayerManager) {
		m.taxRate = rate
	}
}

func WithSessionIDs(fn func() string) PlayerManagerOpt {
	return func(m *PlayerManager) {
		m.newID = fn
	}
}

func NewPlayerManager(dial Dialer, dec *remote.Decoder, tuning *economy.Tuning, realms storage.Storer[*game.Realm], opts ...PlayerManagerOpt) *PlayerManager {
	m := &PlayerManager{
		dial:    dial,
		decoder: dec,
		tuning:  tuning,
		realms:  realms,
		taxRate: tuning.Taxes.BaronRate,
		newID:   uuid.NewString,
		players: map[string]*Player{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *PlayerManager) Start(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

// Tick steps every session's interpolation and sends it a frame.
func (m *PlayerManager) Tick(ctx context.Context) error {
	m.mu.Lock()
	players := make([]*Player, 0, len(m.players))
	for _, p := range m.players {
		players = append(players, p)
	}
	m.mu.Unlock()

	for _, p := range players {
		p.frame()
	}
	return nil
}

// Sessions returns the number of connected sessions.
func (m *PlayerManager) Sessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.players)
}

// RunSession serves one connection until it closes or ctx ends. The first message
// must be a hello naming the owner, the room and either a character to restore or a
// name to create one with.
func (m *PlayerManager) RunSession(ctx context.Context, conn Conn) error {
	var hello Intent
	if err := conn.ReadJSON(&hello); err != nil {
		return fmt.Errorf("reading hello: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p, err := m.join(ctx, cancel, conn, hello)
	if err != nil {
		if writeErr := conn.WriteJSON(errorMessage(MsgHello, err)); writeErr != nil {
			slog.WarnContext(ctx, "failed to write join error", "error", writeErr)
		}
		return err
	}

	m.mu.Lock()
	m.players[p.id] = p
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		delete(m.players, p.id)
		m.mu.Unlock()
	}()

	return p.play(ctx)
}

func (m *PlayerManager) join(ctx context.Context, stop context.CancelFunc, conn Conn, hello Intent) (*Player, error) {
	if hello.Type != MsgHello {
		return nil, fmt.Errorf("%w, got %q", ErrExpectedHello, hello.Type)
	}
	if hello.Owner == "" {
		return nil, ErrNoOwner
	}
	room := hello.Room
	if room == "" {
		room = m.defaultRoom
	}
	realm, ok := m.realms.Get(room)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRoom, room)
	}

	id := "session-" + m.newID()
	ch, err := m.dial(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("dialing store: %w", err)
	}

	bus := events.NewBus()
	store := session.NewStore(ch, m.decoder, bus)
	detector, err := interact.NewDetector(realm, m.tuning, bus)
	if err != nil {
		_ = ch.Close()
		return nil, err
	}

	p := &Player{
		id:          id,
		roomID:      room,
		conn:        conn,
		ch:          ch,
		bus:         bus,
		store:       store,
		engine:      actions.NewEngine(ch, store, m.tuning, actions.WithRealm(realm)),
		broadcaster: motion.NewBroadcaster(store),
		interp: motion.NewInterpolator(motion.WithRelease(func(actorID string) {
			slog.Debug("released remote actor", "session", id, "player", actorID)
		})),
		detector: detector,
		taxRate:  m.taxRate,
		out:      make(chan Message, 64),
		stop:     stop,
	}
	p.engine.SetRoom(room)
	p.start(ctx)

	if err := p.enter(ctx, hello); err != nil {
		p.leave()
		return nil, err
	}

	slog.InfoContext(ctx, "session joined", "session", id, "room", room, "player", store.User().ID)
	return p, nil
}
