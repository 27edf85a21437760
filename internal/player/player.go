package player

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pixil98/go-realm/internal/actions"
	"github.com/pixil98/go-realm/internal/economy"
	"github.com/pixil98/go-realm/internal/events"
	"github.com/pixil98/go-realm/internal/game"
	"github.com/pixil98/go-realm/internal/interact"
	"github.com/pixil98/go-realm/internal/motion"
	"github.com/pixil98/go-realm/internal/session"
)

// Player is one connected session: its cached room, the components acting on it and
// the queue of messages to the client.
type Player struct {
	id     string
	roomID string
	conn   Conn
	ch     Channel

	bus         *events.Bus
	store       *session.Store
	engine      *actions.Engine
	broadcaster *motion.Broadcaster
	interp      *motion.Interpolator
	detector    *interact.Detector
	taxRate     float64

	out        chan Message
	stop       context.CancelFunc
	unsubs     []func()
	cancelSync func()
	wg         sync.WaitGroup

	mu    sync.Mutex
	local *game.Position
}

// start runs the writer and forwards bus events to the client.
func (p *Player) start(ctx context.Context) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.writeLoop(ctx)
	}()

	p.unsubs = append(p.unsubs,
		forward(p, p.bus.SyncPlayers, func(ev events.SyncPlayers) Message {
			p.interp.Sync(ev.Players, ev.LocalID)
			return Message{Type: MsgSyncPlayers, Data: SyncPlayersData{Players: ev.Players, LocalID: ev.LocalID}}
		}),
		forward(p, p.bus.NearInteractable, func(ev events.NearInteractable) Message {
			return Message{Type: MsgNearInteractable, Data: ev.Candidate}
		}),
		forward(p, p.bus.InteractionPrompt, func(c events.Candidate) Message {
			return Message{Type: MsgPrompt, Data: c}
		}),
		forward(p, p.bus.InteractionClear, func(events.InteractionClear) Message {
			return Message{Type: MsgClear}
		}),
	)
}

func forward[T any](p *Player, topic *events.Topic[T], toMessage func(T) Message) func() {
	ch, cancel := topic.Subscribe(16)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for ev := range ch {
			p.send(toMessage(ev))
		}
	}()
	return cancel
}

// enter restores or creates the character, syncs the room and greets the client.
func (p *Player) enter(ctx context.Context, hello Intent) error {
	if hello.CharacterID != "" {
		ok, err := p.store.RestoreCharacter(ctx, p.roomID, hello.CharacterID, hello.Owner)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrCharacterUnavailable, hello.CharacterID)
		}
	} else if _, err := p.engine.CreateCharacter(ctx, p.roomID, hello.Owner, hello.CreateName); err != nil {
		return fmt.Errorf("creating character: %w", err)
	}

	user := p.store.User()
	if user.Position != nil {
		pos := *user.Position
		p.mu.Lock()
		p.local = &pos
		p.mu.Unlock()
		p.detector.Update(pos)
	}

	cancel, err := p.store.SyncWithRoom(ctx, p.roomID)
	if err != nil {
		return err
	}
	p.cancelSync = cancel

	p.bus.SceneReady.Publish(events.SceneReady{RoomID: p.roomID})
	p.send(Message{Type: MsgWelcome, Data: WelcomeData{
		SessionID: p.id,
		RoomID:    p.roomID,
		Actor:     user,
		World:     p.store.World(),
	}})
	return nil
}

// play reads intents until the connection ends. Each intent is handled on its own
// goroutine.
func (p *Player) play(ctx context.Context) error {
	defer p.leave()

	// Closing the connection unblocks the reader once the session is stopped.
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		<-ctx.Done()
		_ = p.conn.Close()
	}()

	for {
		var in Intent
		if err := p.conn.ReadJSON(&in); err != nil {
			slog.DebugContext(ctx, "connection closed", "session", p.id, "error", err)
			return nil
		}

		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.handle(ctx, in)
		}()
	}
}

// leave tears the session down. Closing the channel last lets the store mark the
// actor offline.
func (p *Player) leave() {
	p.stop()
	if p.cancelSync != nil {
		p.cancelSync()
	}
	for _, unsub := range p.unsubs {
		unsub()
	}
	p.wg.Wait()

	if err := p.ch.Close(); err != nil {
		slog.Warn("closing store channel", "session", p.id, "error", err)
	}
	slog.Info("session left", "session", p.id, "room", p.roomID)
}

func (p *Player) writeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-p.out:
			if err := p.conn.WriteJSON(m); err != nil {
				slog.Warn("writing to client", "session", p.id, "error", err)
				p.stop()
				_ = p.conn.Close()
				return
			}
		}
	}
}

func (p *Player) send(m Message) {
	select {
	case p.out <- m:
	default:
		slog.Debug("client queue full, dropping message", "session", p.id, "type", m.Type)
	}
}

// frame steps the remote actors and sends where everyone is drawn.
func (p *Player) frame() {
	p.interp.Step()

	var local *game.Position
	p.mu.Lock()
	if p.local != nil {
		l := *p.local
		local = &l
	}
	p.mu.Unlock()

	p.send(Message{Type: MsgFrame, Data: FrameData{Local: local, Positions: p.interp.Positions()}})
}

func (p *Player) handle(ctx context.Context, in Intent) {
	if err := p.dispatch(ctx, in); err != nil {
		p.send(errorMessage(in.Type, err))
	}
}

func (p *Player) dispatch(ctx context.Context, in Intent) error {
	switch in.Type {
	case MsgMove:
		return p.move(ctx, in)
	case MsgTrade:
		return p.engine.Trade(ctx, in.Good, in.Quantity, in.Buy)
	case MsgGather:
		return p.gather(ctx, in.Good, in.Quality)
	case MsgEat:
		return p.engine.Eat(ctx, in.Food)
	case MsgRest:
		return p.engine.Rest(ctx)
	case MsgInteract:
		return p.interact(ctx, in)
	case MsgTax:
		return p.collectTaxes(ctx, in.Rate)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownIntent, in.Type)
	}
}

func (p *Player) move(ctx context.Context, in Intent) error {
	pos := game.Position{X: in.X, Y: in.Y}
	p.mu.Lock()
	p.local = &pos
	p.mu.Unlock()

	p.detector.Update(pos)
	_, err := p.broadcaster.Offer(ctx, pos, game.Position{X: in.VX, Y: in.VY})
	return err
}

// gather uses the good of the interactable in range when none is named.
func (p *Player) gather(ctx context.Context, good economy.Good, quality float64) error {
	if good == "" {
		if c := p.detector.Current(); c != nil && c.Interactable.Kind == game.KindResource {
			good = c.Interactable.Gather
		}
	}
	res, err := p.engine.Gather(ctx, good, quality)
	if err != nil {
		return err
	}
	p.send(Message{Type: MsgGathered, Data: res})
	return nil
}

func (p *Player) interact(ctx context.Context, in Intent) error {
	c := p.detector.Current()
	if c == nil {
		return ErrNothingToInteract
	}
	p.store.SetInteraction(&c.Interactable)

	switch c.Interactable.Kind {
	case game.KindResource:
		return p.gather(ctx, c.Interactable.Gather, in.Quality)
	case game.KindRest:
		return p.engine.Rest(ctx)
	case game.KindMarket:
		p.send(Message{Type: MsgMarket, Data: p.store.Market()})
		return nil
	}
	return fmt.Errorf("%w: %s", ErrNothingToInteract, c.Interactable.Kind)
}

// collectTaxes is reserved to barons and the king.
func (p *Player) collectTaxes(ctx context.Context, rate float64) error {
	user := p.store.User()
	if user == nil {
		return actions.ErrNoLocalUser
	}
	if user.Role != economy.RoleBaron && user.Role != economy.RoleKing {
		return fmt.Errorf("%w: %s", ErrNotPermitted, user.Role)
	}
	if rate <= 0 {
		rate = p.taxRate
	}
	_, err := p.engine.CollectTaxes(ctx, rate)
	return err
}

func errorMessage(intent string, err error) Message {
	return Message{Type: MsgError, Data: ErrorData{Intent: intent, Message: err.Error()}}
}
