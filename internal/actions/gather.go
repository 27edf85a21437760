package actions

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/pixil98/go-realm/internal/economy"
	"github.com/pixil98/go-realm/internal/game"
	"github.com/pixil98/go-realm/internal/remote"
)

// GatherResult describes what a Gather submitted.
type GatherResult struct {
	Good          economy.Good `json:"good"`
	Yield         float64      `json:"yield"`
	Slot          int          `json:"slot"`
	Stacked       bool         `json:"stacked"`
	InventoryFull bool         `json:"inventoryFull"`
}

// Gather collects good with a quality score in [0, 1]. Unknown goods fall back to
// the tuned default good; known goods without a gather entry use the default's cost
// and yield. The resource and stamina change are always submitted; the
// inventory stack is only placed when a slot is available.
func (e *Engine) Gather(ctx context.Context, good economy.Good, quality float64) (GatherResult, error) {
	e.gatherMu.Lock()
	defer e.gatherMu.Unlock()

	user, roomID, err := e.local(ctx, "gather")
	if err != nil {
		return GatherResult{}, err
	}
	inv := e.pendingInventory(user.Inventory)

	good, cfg := e.tuning.GatherFor(good)
	quality = math.Max(0, math.Min(1, quality))
	res := GatherResult{
		Good:  good,
		Yield: math.Ceil(cfg.BaseYield * (0.5 + quality)),
		Slot:  -1,
	}

	u := remote.NewUpdate().
		Increment(remote.ResourcePath(roomID, user.ID, good), res.Yield).
		Increment(remote.StatusPath(roomID, user.ID, "stamina"), -cfg.StaminaCost)

	var stack *game.InventoryItem
	if slot, ok := inv.FindTemplate(string(good)); ok {
		res.Slot, res.Stacked = slot, true
		u.Increment(remote.Join(remote.InventorySlotPath(roomID, user.ID, slot), "amount"), res.Yield)
	} else if slot, ok := inv.FirstFreeSlot(); ok {
		res.Slot = slot
		item := e.newStack(good, slot, int(res.Yield))
		stack = &item
		u.Set(remote.InventorySlotPath(roomID, user.ID, slot), item)
	} else {
		res.InventoryFull = true
		slog.WarnContext(ctx, "inventory full, resource credited only", "player", user.ID, "good", good)
	}

	if err := e.submit(ctx, "gather", u); err != nil {
		return GatherResult{}, err
	}
	if stack != nil {
		e.placed[stack.Slot] = *stack
	}
	e.store.SetInteraction(nil)

	slog.InfoContext(ctx, "gathered", "player", user.ID, "good", good, "yield", res.Yield, "slot", res.Slot)
	return res, nil
}

// pendingInventory overlays the stacks earlier gathers created on the cached
// inventory, so a gather issued before the next snapshot neither reuses their slots
// nor starts a second stack of the same good. A stack is forgotten once the cache
// shows its slot. Callers hold gatherMu.
func (e *Engine) pendingInventory(cached game.Inventory) game.Inventory {
	inv := cached.Clone()
	for slot, item := range e.placed {
		if _, ok := cached[slot]; ok {
			delete(e.placed, slot)
			continue
		}
		inv[slot] = item
	}
	return inv
}

func (e *Engine) newStack(good economy.Good, slot, amount int) game.InventoryItem {
	info := e.tuning.Info(good)
	return game.InventoryItem{
		ID:         "item-" + e.newID(),
		TemplateID: string(good),
		Name:       info.Label,
		Icon:       info.Icon,
		Amount:     amount,
		Slot:       slot,
		Type:       game.ItemResource,
		Rarity:     game.RarityCommon,
	}
}

// Rest restores the tuned amount of stamina. No cap is applied here.
func (e *Engine) Rest(ctx context.Context) error {
	user, roomID, err := e.local(ctx, "rest")
	if err != nil {
		return err
	}
	u := remote.NewUpdate().
		Increment(remote.StatusPath(roomID, user.ID, "stamina"), e.tuning.RestStamina)
	return e.submit(ctx, "rest", u)
}

// Eat consumes one unit of food for its tuned stamina value. An empty food uses the
// tuned default.
func (e *Engine) Eat(ctx context.Context, food economy.Good) error {
	user, roomID, err := e.local(ctx, "eat")
	if err != nil {
		return err
	}
	if food == "" {
		food = e.tuning.Food.Default
	}
	value, ok := e.tuning.FoodValue(food)
	if !ok {
		return e.fail(ctx, "eat", fmt.Errorf("%w: %q", ErrUnknownFood, food))
	}
	if user.Resources.Get(food) < 1 {
		return e.fail(ctx, "eat", fmt.Errorf("%w: no %s to eat", ErrInsufficient, food))
	}

	u := remote.NewUpdate().
		Increment(remote.ResourcePath(roomID, user.ID, food), -1).
		Increment(remote.StatusPath(roomID, user.ID, "stamina"), value)
	return e.submit(ctx, "eat", u)
}
