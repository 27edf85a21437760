package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pixil98/go-realm/internal/economy"
	"github.com/pixil98/go-realm/internal/events"
	"github.com/pixil98/go-realm/internal/game"
	"github.com/pixil98/go-realm/internal/remote"
	"github.com/pixil98/go-testutil"
)

type recordingChannel struct {
	mu         sync.Mutex
	updates    []remote.Update
	hooks      map[string]any
	docs       map[string]json.RawMessage
	getErr     error
	onSnapshot func(remote.Snapshot)
	onError    func(error)
	cancels    int
}

func newRecordingChannel() *recordingChannel {
	return &recordingChannel{hooks: map[string]any{}, docs: map[string]json.RawMessage{}}
}

func (c *recordingChannel) Subscribe(path string, onSnapshot func(remote.Snapshot), onError func(error)) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onSnapshot = onSnapshot
	c.onError = onError
	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.cancels++
			c.onSnapshot = nil
		})
	}, nil
}

func (c *recordingChannel) AtomicUpdate(ctx context.Context, u remote.Update) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updates = append(c.updates, u)
	return nil
}

func (c *recordingChannel) OnDisconnectSetValue(ctx context.Context, path string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks[path] = value
	return nil
}

func (c *recordingChannel) Get(ctx context.Context, path string) (remote.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return remote.Snapshot{}, c.getErr
	}
	data, ok := c.docs[path]
	return remote.Snapshot{Path: path, Rev: 1, Exists: ok, Data: data}, nil
}

func (c *recordingChannel) Set(ctx context.Context, path string, value any) error {
	return c.AtomicUpdate(ctx, remote.NewUpdate().Set(path, value))
}

func (c *recordingChannel) deliver(t *testing.T, doc any) {
	t.Helper()
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshalling snapshot: %v", err)
	}
	c.mu.Lock()
	fn := c.onSnapshot
	c.mu.Unlock()
	if fn != nil {
		fn(remote.Snapshot{Path: "rooms/r1", Rev: 1, Exists: true, Data: data})
	}
}

func newTestStore(t *testing.T) (*Store, *recordingChannel, *events.Bus) {
	t.Helper()
	dec, err := remote.NewDecoder()
	if err != nil {
		t.Fatalf("building decoder: %v", err)
	}
	ch := newRecordingChannel()
	bus := events.NewBus()
	clock := func() time.Time { return time.UnixMilli(1700000000000) }
	return NewStore(ch, dec, bus, WithClock(clock)), ch, bus
}

func TestStore_SyncWithRoom(t *testing.T) {
	s, ch, bus := newTestStore(t)
	s.SetUser(game.NewActor("p1", "u1", "Alda", economy.RolePeasant, economy.RegionEast))

	synced, stop := bus.SyncPlayers.Subscribe(4)
	defer stop()

	cancel, err := s.SyncWithRoom(context.Background(), "r1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.AssertEqual(t, "room", s.RoomID(), "r1")
	testutil.AssertEqual(t, "updates", len(ch.updates), 1)
	testutil.AssertEqual(t, "online", ch.updates[0]["rooms/r1/players/p1/isOnline"].Value, any(true))
	testutil.AssertEqual(t, "hook", ch.hooks["rooms/r1/players/p1/isOnline"], any(false))

	remoteUser := game.NewActor("p1", "u1", "Alda", economy.RolePeasant, economy.RegionEast)
	remoteUser.Resources[economy.Gold] = 42
	other := game.NewActor("p2", "u2", "Bryn", economy.RoleBaron, economy.RegionEast)
	ch.deliver(t, map[string]any{
		"world":   map[string]any{"season": "Winter", "day": 12, "weather": "Storm"},
		"players": map[string]any{"p1": remoteUser, "p2": other},
		"market":  map[string]any{"grain": map[string]any{"price": 5, "stock": 200, "maxStock": 1000}},
	})

	testutil.AssertEqual(t, "season", s.World().Season, game.SeasonWinter)
	testutil.AssertEqual(t, "day", s.World().Day, 12)
	testutil.AssertEqual(t, "players", len(s.Players()), 2)
	testutil.AssertEqual(t, "market", s.Market()[economy.Grain].Stock, 200.0)
	testutil.AssertEqual(t, "user gold", s.User().Resources[economy.Gold], 42.0)

	select {
	case ev := <-synced:
		testutil.AssertEqual(t, "local id", ev.LocalID, "p1")
		testutil.AssertEqual(t, "synced players", len(ev.Players), 2)
	case <-time.After(time.Second):
		t.Fatal("no sync-players event")
	}

	cancel()
	cancel()
	testutil.AssertEqual(t, "cancels", ch.cancels, 1)
}

func TestStore_SyncWithRoomKeepsStateOnBadSnapshot(t *testing.T) {
	s, ch, _ := newTestStore(t)
	cancel, err := s.SyncWithRoom(context.Background(), "r1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer cancel()

	testutil.AssertEqual(t, "no presence without user", len(ch.updates), 0)

	ch.deliver(t, map[string]any{"world": map[string]any{"season": "Autumn", "day": 3, "weather": "Rain"}})
	ch.deliver(t, []int{1, 2, 3})
	ch.onSnapshot(remote.Snapshot{Path: "rooms/r1"})
	ch.onError(errors.New("boom"))

	testutil.AssertEqual(t, "season", s.World().Season, game.SeasonAutumn)
	testutil.AssertEqual(t, "weather", s.World().Weather, game.WeatherRain)
}

func TestStore_SnapshotWithoutWorldOrMarketKeepsCache(t *testing.T) {
	summer, day := game.SeasonSummer, 9
	market := map[string]any{"grain": map[string]any{"price": 5, "stock": 200, "maxStock": 1000}}

	tests := map[string]struct {
		doc       map[string]any
		expMarket float64
	}{
		"no world or market": {
			doc:       map[string]any{"players": map[string]any{}},
			expMarket: 200,
		},
		"malformed world": {
			doc:       map[string]any{"world": map[string]any{"season": "Monsoon", "day": 1, "weather": "Clear"}, "market": market},
			expMarket: 200,
		},
		"world of the wrong type": {
			doc:       map[string]any{"world": "summer"},
			expMarket: 200,
		},
		"null world and market": {
			doc:       map[string]any{"world": nil, "market": nil},
			expMarket: 200,
		},
		"market replaced when present": {
			doc:       map[string]any{"market": map[string]any{"grain": map[string]any{"price": 5, "stock": 7, "maxStock": 1000}}},
			expMarket: 7,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			s, ch, _ := newTestStore(t)
			cancel, err := s.SyncWithRoom(context.Background(), "r1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer cancel()

			ch.deliver(t, map[string]any{"market": market})
			s.SetWorldState(game.WorldPatch{Season: &summer, Day: &day})

			ch.deliver(t, tt.doc)

			testutil.AssertEqual(t, "season", s.World().Season, game.SeasonSummer)
			testutil.AssertEqual(t, "day", s.World().Day, 9)
			testutil.AssertEqual(t, "stock", s.Market()[economy.Grain].Stock, tt.expMarket)
		})
	}
}

func TestStore_UpdateLocalPosition(t *testing.T) {
	s, ch, bus := newTestStore(t)

	err := s.UpdateLocalPosition(context.Background(), 1, 2)
	testutil.AssertEqual(t, "no user", errors.Is(err, ErrNoLocalUser), true)

	s.SetUser(game.NewActor("p1", "u1", "Alda", economy.RolePeasant, economy.RegionEast))
	if _, err := s.SyncWithRoom(context.Background(), "r1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	moved, stop := bus.LocalPlayerMoved.Subscribe(1)
	defer stop()

	err = s.UpdateLocalPosition(context.Background(), 10.6, 20.2)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	u := ch.updates[len(ch.updates)-1]
	testutil.AssertEqual(t, "paths", len(u), 3)
	testutil.AssertEqual(t, "x", u["rooms/r1/players/p1/position/x"].Value, any(11.0))
	testutil.AssertEqual(t, "y", u["rooms/r1/players/p1/position/y"].Value, any(20.0))
	testutil.AssertEqual(t, "lastActive", u["rooms/r1/players/p1/lastActive"].Value, any(int64(1700000000000)))

	testutil.AssertEqual(t, "cached", *s.User().Position, game.Position{X: 10.6, Y: 20.2})
	testutil.AssertEqual(t, "event", <-moved, game.Position{X: 10.6, Y: 20.2})
}

func TestStore_RestoreCharacter(t *testing.T) {
	owned, err := json.Marshal(game.NewActor("p1", "u1", "Alda", economy.RolePeasant, economy.RegionEast))
	if err != nil {
		t.Fatalf("marshalling actor: %v", err)
	}

	tests := map[string]struct {
		docs    map[string]json.RawMessage
		getErr  error
		owner   string
		expOK   bool
		expErr  string
		expUser bool
	}{
		"owned character": {
			docs:    map[string]json.RawMessage{"rooms/r1/players/p1": owned},
			owner:   "u1",
			expOK:   true,
			expUser: true,
		},
		"other owner": {
			docs:  map[string]json.RawMessage{"rooms/r1/players/p1": owned},
			owner: "u2",
		},
		"missing": {
			owner: "u1",
		},
		"malformed": {
			docs:  map[string]json.RawMessage{"rooms/r1/players/p1": json.RawMessage(`{"id": 7}`)},
			owner: "u1",
		},
		"transport failure": {
			getErr: errors.New("connection refused"),
			owner:  "u1",
			expErr: "connection refused",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			s, ch, _ := newTestStore(t)
			if tt.docs != nil {
				ch.docs = tt.docs
			}
			ch.getErr = tt.getErr

			ok, err := s.RestoreCharacter(context.Background(), "r1", "p1", tt.owner)
			if tt.expErr != "" {
				testutil.AssertErrorContains(t, err, tt.expErr)
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			testutil.AssertEqual(t, "ok", ok, tt.expOK)
			testutil.AssertEqual(t, "user set", s.User() != nil, tt.expUser)
			if tt.expUser {
				testutil.AssertEqual(t, "room", s.RoomID(), "r1")
			}
		})
	}
}

func TestStore_AccessorsReturnCopies(t *testing.T) {
	s, _, _ := newTestStore(t)
	s.SetUser(game.NewActor("p1", "u1", "Alda", economy.RolePeasant, economy.RegionEast))

	u := s.User()
	u.Resources[economy.Gold] = 0
	testutil.AssertEqual(t, "gold", s.User().Resources[economy.Gold], 50.0)

	s.SetInteraction(&game.Interactable{ID: "well"})
	i := s.Interaction()
	i.ID = "changed"
	testutil.AssertEqual(t, "interaction", s.Interaction().ID, "well")

	s.SetInteraction(nil)
	testutil.AssertEqual(t, "cleared", s.Interaction() == nil, true)

	day := 9
	s.SetWorldState(game.WorldPatch{Day: &day})
	testutil.AssertEqual(t, "day", s.World().Day, 9)
	testutil.AssertEqual(t, "season kept", s.World().Season, game.SeasonSpring)
}
