package motion

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/pixil98/go-realm/internal/docstore"
	"github.com/pixil98/go-realm/internal/economy"
	"github.com/pixil98/go-realm/internal/events"
	"github.com/pixil98/go-realm/internal/game"
	"github.com/pixil98/go-realm/internal/remote"
	"github.com/pixil98/go-realm/internal/session"
	"github.com/pixil98/go-testutil"
)

type recordingWriter struct {
	writes []game.Position
}

func (w *recordingWriter) UpdateLocalPosition(ctx context.Context, x, y float64) error {
	w.writes = append(w.writes, game.Position{X: x, Y: y})
	return nil
}

func TestBroadcaster_Offer(t *testing.T) {
	w := &recordingWriter{}
	now := time.UnixMilli(0)
	b := NewBroadcaster(w, WithBroadcastClock(func() time.Time { return now }))
	moving := game.Position{X: 1}

	sent, err := b.Offer(context.Background(), game.Position{X: 10.4, Y: 20.6}, moving)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "first", sent, true)

	now = now.Add(30 * time.Millisecond)
	sent, _ = b.Offer(context.Background(), game.Position{X: 11, Y: 21}, moving)
	testutil.AssertEqual(t, "too soon", sent, false)

	now = now.Add(40 * time.Millisecond)
	sent, _ = b.Offer(context.Background(), game.Position{X: 12, Y: 22}, game.Position{})
	testutil.AssertEqual(t, "standing still", sent, false)

	sent, _ = b.Offer(context.Background(), game.Position{X: 12, Y: 22}, moving)
	testutil.AssertEqual(t, "after interval", sent, true)

	testutil.AssertEqual(t, "writes", len(w.writes), 2)
	testutil.AssertEqual(t, "unrounded", w.writes[0], game.Position{X: 10.4, Y: 20.6})
}

func TestBroadcaster_OfferKeepsLocalPrecision(t *testing.T) {
	docs := docstore.NewStore(docstore.NewMemoryPersister())
	hub := docstore.NewHub()
	docs.SetPublisher(hub.Publish)
	dec, err := remote.NewDecoder()
	if err != nil {
		t.Fatalf("building decoder: %v", err)
	}

	store := session.NewStore(docstore.NewLocalChannel(docs, hub, "s1"), dec, events.NewBus())
	store.SetUser(game.NewActor("p1", "u1", "Alda", economy.RolePeasant, economy.RegionEast))
	cancel, err := store.SyncWithRoom(context.Background(), "r1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer cancel()

	b := NewBroadcaster(store)
	sent, err := b.Offer(context.Background(), game.Position{X: 10.4, Y: 20.6}, game.Position{X: 1})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "sent", sent, true)
	testutil.AssertEqual(t, "cached", *store.User().Position, game.Position{X: 10.4, Y: 20.6})

	snap, err := docs.Get(remote.PositionPath("r1", "p1", "x"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var x float64
	if err := snap.Decode(&x); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	testutil.AssertEqual(t, "stored x", x, 10.0)
}

func actorAt(id string, x, y float64) *game.Actor {
	a := game.NewActor(id, "", id, economy.RolePeasant, economy.RegionEast)
	a.Position = &game.Position{X: x, Y: y}
	return a
}

func TestInterpolator_FirstAppearanceSnaps(t *testing.T) {
	i := NewInterpolator()
	i.Sync(map[string]*game.Actor{"p2": actorAt("p2", 10, 10)}, "p1")

	pos, ok := i.Position("p2")
	testutil.AssertEqual(t, "tracked", ok, true)
	testutil.AssertEqual(t, "position", pos, game.Position{X: 10, Y: 10})
}

func TestInterpolator_Step(t *testing.T) {
	i := NewInterpolator()
	i.Sync(map[string]*game.Actor{"p2": actorAt("p2", 0, 0)}, "p1")
	i.Sync(map[string]*game.Actor{"p2": actorAt("p2", 100, 50)}, "p1")

	if err := i.Tick(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	pos, _ := i.Position("p2")
	testutil.AssertEqual(t, "x", math.Round(pos.X*1000)/1000, 20.0)
	testutil.AssertEqual(t, "y", math.Round(pos.Y*1000)/1000, 10.0)

	i.Step()
	pos, _ = i.Position("p2")
	testutil.AssertEqual(t, "x", math.Round(pos.X*1000)/1000, 36.0)
}

func TestInterpolator_Release(t *testing.T) {
	var released []string
	i := NewInterpolator(WithRelease(func(id string) { released = append(released, id) }))

	noPosition := game.NewActor("p4", "", "p4", economy.RolePeasant, economy.RegionEast)
	i.Sync(map[string]*game.Actor{
		"p1": actorAt("p1", 5, 5),
		"p2": actorAt("p2", 1, 1),
		"p3": actorAt("p3", 2, 2),
		"p4": noPosition,
	}, "p1")

	testutil.AssertEqual(t, "tracked", len(i.Positions()), 2)
	_, local := i.Position("p1")
	testutil.AssertEqual(t, "local ignored", local, false)

	i.Sync(map[string]*game.Actor{"p1": actorAt("p1", 5, 5), "p2": actorAt("p2", 1, 1)}, "p1")

	testutil.AssertEqual(t, "tracked", len(i.Positions()), 1)
	testutil.AssertEqual(t, "released", len(released), 1)
	testutil.AssertEqual(t, "released id", released[0], "p3")
}
