package motion

import (
	"context"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pixil98/go-realm/internal/game"
)

// DefaultFactor is the share of the remaining distance covered per step.
const DefaultFactor = 0.2

type tracked struct {
	shown  mgl64.Vec2
	target mgl64.Vec2
}

// Interpolator smooths the positions of remote actors between snapshots. Each step
// moves the shown position a fixed share of the way to the last reported one.
type Interpolator struct {
	factor    float64
	onRelease func(id string)

	mu      sync.Mutex
	localID string
	actors  map[string]*tracked
}

type InterpolatorOpt func(*Interpolator)

func WithFactor(f float64) InterpolatorOpt {
	return func(i *Interpolator) {
		i.factor = f
	}
}

// WithRelease sets a function called with the id of every actor that stops being
// tracked.
func WithRelease(fn func(id string)) InterpolatorOpt {
	return func(i *Interpolator) {
		i.onRelease = fn
	}
}

func NewInterpolator(opts ...InterpolatorOpt) *Interpolator {
	i := &Interpolator{
		factor: DefaultFactor,
		actors: map[string]*tracked{},
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Sync sets new targets from a snapshot. Actors seen for the first time snap to their
// position. Actors missing from players, or without a position, are released. The
// local actor is never tracked.
func (i *Interpolator) Sync(players map[string]*game.Actor, localID string) {
	var released []string

	i.mu.Lock()
	i.localID = localID
	for id, a := range players {
		if id == localID || a == nil || a.Position == nil {
			continue
		}
		target := mgl64.Vec2{a.Position.X, a.Position.Y}
		if t, ok := i.actors[id]; ok {
			t.target = target
			continue
		}
		i.actors[id] = &tracked{shown: target, target: target}
	}
	for id := range i.actors {
		a, ok := players[id]
		if !ok || id == localID || a == nil || a.Position == nil {
			delete(i.actors, id)
			released = append(released, id)
		}
	}
	i.mu.Unlock()

	if i.onRelease != nil {
		for _, id := range released {
			i.onRelease(id)
		}
	}
}

// Step advances every shown position toward its target.
func (i *Interpolator) Step() {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, t := range i.actors {
		t.shown = t.shown.Add(t.target.Sub(t.shown).Mul(i.factor))
	}
}

func (i *Interpolator) Tick(ctx context.Context) error {
	i.Step()
	return nil
}

// Position returns the shown position of id.
func (i *Interpolator) Position(id string) (game.Position, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	t, ok := i.actors[id]
	if !ok {
		return game.Position{}, false
	}
	return game.Position{X: t.shown.X(), Y: t.shown.Y()}, true
}

// Positions returns the shown position of every tracked actor.
func (i *Interpolator) Positions() map[string]game.Position {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make(map[string]game.Position, len(i.actors))
	for id, t := range i.actors {
		out[id] = game.Position{X: t.shown.X(), Y: t.shown.Y()}
	}
	return out
}
