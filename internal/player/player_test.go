package player

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/pixil98/go-realm/internal/actions"
	"github.com/pixil98/go-realm/internal/docstore"
	"github.com/pixil98/go-realm/internal/economy"
	"github.com/pixil98/go-realm/internal/game"
	"github.com/pixil98/go-realm/internal/remote"
	"github.com/pixil98/go-realm/internal/storage"
	"github.com/pixil98/go-testutil"
)

type fakeConn struct {
	in  chan Intent
	out chan Message

	once   sync.Once
	closed chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:     make(chan Intent, 8),
		out:    make(chan Message, 128),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) ReadJSON(v any) error {
	select {
	case <-c.closed:
		return io.EOF
	case in, ok := <-c.in:
		if !ok {
			return io.EOF
		}
		*v.(*Intent) = in
		return nil
	}
}

func (c *fakeConn) WriteJSON(v any) error {
	select {
	case <-c.closed:
		return io.ErrClosedPipe
	default:
	}
	c.out <- v.(Message)
	return nil
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

// expect reads messages until one of type typ arrives.
func expect(t *testing.T, out <-chan Message, typ string) Message {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case m := <-out:
			if m.Type == typ {
				return m
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s message", typ)
			return Message{}
		}
	}
}

type harness struct {
	docs    *docstore.Store
	manager *PlayerManager
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	docs := docstore.NewStore(docstore.NewMemoryPersister())
	hub := docstore.NewHub()
	docs.SetPublisher(hub.Publish)

	realms, err := storage.NewFileStore[*game.Realm](t.TempDir())
	if err != nil {
		t.Fatalf("creating realm store: %v", err)
	}
	err = realms.Save("nordmark", &game.Realm{
		Name:    "Nordmark",
		Spawn:   game.Position{X: 100, Y: 100},
		Regions: []string{economy.RegionEast},
		Interactables: []game.Interactable{
			{ID: "forest", Kind: game.KindResource, Name: "Old Forest", Gather: economy.Wood, Position: game.Position{X: 110, Y: 100}, Radius: 40},
			{ID: "inn", Kind: game.KindRest, Name: "Inn", Position: game.Position{X: 900, Y: 900}, Radius: 40},
		},
	})
	if err != nil {
		t.Fatalf("saving realm: %v", err)
	}

	dec, err := remote.NewDecoder()
	if err != nil {
		t.Fatalf("creating decoder: %v", err)
	}

	dial := func(_ context.Context, id string) (Channel, error) {
		return docstore.NewLocalChannel(docs, hub, id), nil
	}

	ids := 0
	m := NewPlayerManager(dial, dec, economy.Default(), realms,
		WithDefaultRoom("nordmark"),
		WithSessionIDs(func() string {
			ids++
			return string(rune('a' + ids - 1))
		}),
	)
	return &harness{docs: docs, manager: m}
}

func (h *harness) run(ctx context.Context, conn Conn) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- h.manager.RunSession(ctx, conn)
	}()
	return done
}

func TestPlayerManager_Session(t *testing.T) {
	h := newHarness(t)
	conn := newFakeConn()
	done := h.run(context.Background(), conn)

	conn.in <- Intent{Type: MsgHello, Owner: "u1", CreateName: "  sigrid the   bold "}

	welcome := expect(t, conn.out, MsgWelcome).Data.(WelcomeData)
	testutil.AssertEqual(t, "session", welcome.SessionID, "session-a")
	testutil.AssertEqual(t, "room", welcome.RoomID, "nordmark")
	testutil.AssertEqual(t, "name", welcome.Actor.Name, "Sigrid The Bold")
	testutil.AssertEqual(t, "region", welcome.Actor.RegionID, economy.RegionEast)
	testutil.AssertEqual(t, "sessions", h.manager.Sessions(), 1)

	conn.in <- Intent{Type: MsgInteract, Quality: 1}
	res := expect(t, conn.out, MsgGathered).Data.(actions.GatherResult)
	testutil.AssertEqual(t, "good", res.Good, economy.Wood)
	testutil.AssertEqual(t, "yield", res.Yield, 15.0)

	if err := h.manager.Tick(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	frame := expect(t, conn.out, MsgFrame).Data.(FrameData)
	if frame.Local == nil {
		t.Fatalf("expected local position in frame")
	}
	testutil.AssertEqual(t, "local x", frame.Local.X, 100.0)

	conn.in <- Intent{Type: "dance"}
	errData := expect(t, conn.out, MsgError).Data.(ErrorData)
	testutil.AssertEqual(t, "error intent", errData.Intent, "dance")

	conn.in <- Intent{Type: MsgTax}
	errData = expect(t, conn.out, MsgError).Data.(ErrorData)
	testutil.AssertEqual(t, "peasants cannot tax", errData.Message, "not permitted for this role: PEASANT")

	close(conn.in)
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("session did not end")
	}

	testutil.AssertEqual(t, "sessions", h.manager.Sessions(), 0)

	snap, err := h.docs.Get(remote.Join(remote.PlayerPath("nordmark", welcome.Actor.ID), "isOnline"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var online bool
	if err := snap.Decode(&online); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "online", online, false)

	snap, err = h.docs.Get(remote.Join(remote.PlayerPath("nordmark", welcome.Actor.ID), "resources", "wood"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var wood float64
	if err := snap.Decode(&wood); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "wood", wood, 25.0)
}

func TestPlayerManager_JoinErrors(t *testing.T) {
	tests := map[string]struct {
		hello  Intent
		expErr error
	}{
		"first message is not hello": {
			hello:  Intent{Type: MsgMove, X: 1},
			expErr: ErrExpectedHello,
		},
		"missing owner": {
			hello:  Intent{Type: MsgHello, CreateName: "Ola"},
			expErr: ErrNoOwner,
		},
		"unknown room": {
			hello:  Intent{Type: MsgHello, Owner: "u1", Room: "atlantis", CreateName: "Ola"},
			expErr: ErrUnknownRoom,
		},
		"character not found": {
			hello:  Intent{Type: MsgHello, Owner: "u1", CharacterID: "char-missing"},
			expErr: ErrCharacterUnavailable,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t)
			conn := newFakeConn()
			conn.in <- tt.hello

			err := h.manager.RunSession(context.Background(), conn)
			if !errors.Is(err, tt.expErr) {
				t.Fatalf("expected %v, got %v", tt.expErr, err)
			}

			m := expect(t, conn.out, MsgError)
			testutil.AssertEqual(t, "intent", m.Data.(ErrorData).Intent, MsgHello)
			testutil.AssertEqual(t, "sessions", h.manager.Sessions(), 0)
		})
	}
}

func TestPlayerManager_RestoreForeignCharacter(t *testing.T) {
	h := newHarness(t)

	owner := newFakeConn()
	done := h.run(context.Background(), owner)
	owner.in <- Intent{Type: MsgHello, Owner: "u1", CreateName: "Ola"}
	actor := expect(t, owner.out, MsgWelcome).Data.(WelcomeData).Actor
	close(owner.in)
	<-done

	thief := newFakeConn()
	thief.in <- Intent{Type: MsgHello, Owner: "u2", CharacterID: actor.ID}
	err := h.manager.RunSession(context.Background(), thief)
	if !errors.Is(err, ErrCharacterUnavailable) {
		t.Fatalf("expected %v, got %v", ErrCharacterUnavailable, err)
	}

	again := newFakeConn()
	done = h.run(context.Background(), again)
	again.in <- Intent{Type: MsgHello, Owner: "u1", CharacterID: actor.ID}
	restored := expect(t, again.out, MsgWelcome).Data.(WelcomeData).Actor
	testutil.AssertEqual(t, "restored", restored.ID, actor.ID)
	close(again.in)
	<-done
}
