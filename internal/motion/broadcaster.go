package motion

import (
	"context"
	"time"

	"github.com/pixil98/go-realm/internal/game"
	"golang.org/x/time/rate"
)

// DefaultBroadcastInterval caps position writes at roughly 15 per second.
const DefaultBroadcastInterval = 66 * time.Millisecond

type PositionWriter interface {
	UpdateLocalPosition(ctx context.Context, x, y float64) error
}

// Broadcaster gates the local actor's position writes: a move is sent only while the
// actor is moving and no more often than the interval allows.
type Broadcaster struct {
	writer  PositionWriter
	limiter *rate.Limiter
	now     func() time.Time
}

type BroadcasterOpt func(*Broadcaster)

func WithInterval(d time.Duration) BroadcasterOpt {
	return func(b *Broadcaster) {
		b.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

func WithBroadcastClock(now func() time.Time) BroadcasterOpt {
	return func(b *Broadcaster) {
		b.now = now
	}
}

func NewBroadcaster(w PositionWriter, opts ...BroadcasterOpt) *Broadcaster {
	b := &Broadcaster{
		writer:  w,
		limiter: rate.NewLimiter(rate.Every(DefaultBroadcastInterval), 1),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Offer sends pos if velocity is non-zero and the interval since the last send has
// passed. It reports whether a write was made. pos is passed on unrounded; the writer
// decides what precision reaches the store.
func (b *Broadcaster) Offer(ctx context.Context, pos, velocity game.Position) (bool, error) {
	if velocity.X == 0 && velocity.Y == 0 {
		return false, nil
	}
	if !b.limiter.AllowN(b.now(), 1) {
		return false, nil
	}
	if err := b.writer.UpdateLocalPosition(ctx, pos.X, pos.Y); err != nil {
		return true, err
	}
	return true, nil
}
