package actions

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pixil98/go-realm/internal/economy"
	"github.com/pixil98/go-realm/internal/remote"
)

// Trade buys or sells quantity units of good at the cached market price. The gold,
// good and stock deltas go out as a single update.
func (e *Engine) Trade(ctx context.Context, good economy.Good, quantity int, buying bool) error {
	user, roomID, err := e.local(ctx, "trade")
	if err != nil {
		return err
	}
	if !good.Valid() || good == economy.Gold {
		return e.fail(ctx, "trade", fmt.Errorf("%w: %q", ErrUnknownGood, good))
	}
	item, ok := e.store.Market()[good]
	if !ok {
		return e.fail(ctx, "trade", fmt.Errorf("%w: %q is not traded here", ErrUnknownGood, good))
	}
	if quantity <= 0 {
		return e.fail(ctx, "trade", fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity))
	}

	qty := float64(quantity)
	price := item.CurrentPrice()
	u := remote.NewUpdate()

	if buying {
		cost := price * qty
		if user.Resources.Get(economy.Gold) < cost {
			return e.fail(ctx, "trade", fmt.Errorf("%w: %v gold needed", ErrInsufficient, cost))
		}
		if item.Stock < qty {
			return e.fail(ctx, "trade", fmt.Errorf("%w: market holds %v %s", ErrInsufficient, item.Stock, good))
		}
		u.Increment(remote.ResourcePath(roomID, user.ID, economy.Gold), -cost).
			Increment(remote.ResourcePath(roomID, user.ID, good), qty).
			Increment(remote.MarketStockPath(roomID, good), -qty)
	} else {
		if user.Resources.Get(good) < qty {
			return e.fail(ctx, "trade", fmt.Errorf("%w: holding %v %s", ErrInsufficient, user.Resources.Get(good), good))
		}
		u.Increment(remote.ResourcePath(roomID, user.ID, economy.Gold), economy.SellPrice(price)*qty).
			Increment(remote.ResourcePath(roomID, user.ID, good), -qty).
			Increment(remote.MarketStockPath(roomID, good), qty)
	}

	if err := e.submit(ctx, "trade", u); err != nil {
		return err
	}
	slog.InfoContext(ctx, "trade submitted", "player", user.ID, "good", good, "quantity", quantity, "buying", buying, "price", price)
	return nil
}

// CollectTaxes assesses every peasant of the room at rate and moves what they owe
// to their baron in one update. A rate of zero or less uses the tuned baron rate and
// a rate above one is rejected.
func (e *Engine) CollectTaxes(ctx context.Context, rate float64) ([]economy.TaxAssessment, error) {
	roomID := e.Room()
	if roomID == "" {
		return nil, e.fail(ctx, "tax", ErrNoRoom)
	}
	if rate <= 0 {
		rate = e.tuning.Taxes.BaronRate
	}
	if rate > 1 {
		return nil, e.fail(ctx, "tax", fmt.Errorf("%w: %g", ErrInvalidRate, rate))
	}

	players := e.store.Players()
	holders := make([]economy.Holder, 0, len(players))
	for _, p := range players {
		holders = append(holders, economy.Holder{
			ID:        p.ID,
			Role:      p.Role,
			RegionID:  p.RegionID,
			Resources: p.Resources,
		})
	}

	owed := economy.AssessTaxes(holders, rate)
	if len(owed) == 0 {
		return nil, nil
	}

	u := remote.NewUpdate()
	for _, t := range owed {
		u.Increment(remote.ResourcePath(roomID, t.PayerID, economy.Gold), -t.Gold).
			Increment(remote.ResourcePath(roomID, t.PayerID, economy.Grain), -t.Grain).
			Increment(remote.ResourcePath(roomID, t.CollectorID, economy.Gold), t.Gold).
			Increment(remote.ResourcePath(roomID, t.CollectorID, economy.Grain), t.Grain)
	}
	if err := e.submit(ctx, "tax", u); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "taxes collected", "room", roomID, "payers", len(owed), "rate", rate)
	return owed, nil
}
