package game

import (
	"fmt"
	"slices"

	"github.com/pixil98/go-errors"
)

// InventorySlots is the number of grid slots in an actor's inventory (0..24).
const InventorySlots = 25

type ItemType string

const (
	ItemResource   ItemType = "RESOURCE"
	ItemEquipment  ItemType = "EQUIPMENT"
	ItemConsumable ItemType = "CONSUMABLE"
)

type Rarity string

const (
	RarityCommon    Rarity = "COMMON"
	RarityRare      Rarity = "RARE"
	RarityEpic      Rarity = "EPIC"
	RarityLegendary Rarity = "LEGENDARY"
)

// InventoryItem is one stack of items in an inventory slot or equipment slot.
type InventoryItem struct {
	ID         string             `json:"id" jsonschema:"required"`
	TemplateID string             `json:"templateId" jsonschema:"required"`
	Name       string             `json:"name"`
	Icon       string             `json:"icon"`
	Amount     int                `json:"amount" jsonschema:"minimum=1"`
	Slot       int                `json:"slot"`
	Type       ItemType           `json:"type"`
	Rarity     Rarity             `json:"rarity"`
	Stats      map[string]float64 `json:"stats,omitempty"`
}

// Inventory maps a grid slot to the item stack occupying it. Keying by slot makes
// slot uniqueness structural.
type Inventory map[int]InventoryItem

// Items returns the stacks ordered by slot.
func (inv Inventory) Items() []InventoryItem {
	out := make([]InventoryItem, 0, len(inv))
	for _, it := range inv {
		out = append(out, it)
	}
	slices.SortFunc(out, func(a, b InventoryItem) int { return a.Slot - b.Slot })
	return out
}

// FindTemplate returns the lowest slot holding a stack of templateID.
func (inv Inventory) FindTemplate(templateID string) (int, bool) {
	found := -1
	for slot, it := range inv {
		if it.TemplateID == templateID && (found < 0 || slot < found) {
			found = slot
		}
	}
	return found, found >= 0
}

// FirstFreeSlot returns the lowest slot index in [0, InventorySlots) not in use.
func (inv Inventory) FirstFreeSlot() (int, bool) {
	used := make(map[int]bool, len(inv))
	for slot, it := range inv {
		used[slot] = true
		used[it.Slot] = true
	}
	for i := 0; i < InventorySlots; i++ {
		if !used[i] {
			return i, true
		}
	}
	return -1, false
}

// Clone returns a copy of inv.
func (inv Inventory) Clone() Inventory {
	if inv == nil {
		return Inventory{}
	}
	out := make(Inventory, len(inv))
	for slot, it := range inv {
		it.Stats = cloneStats(it.Stats)
		out[slot] = it
	}
	return out
}

// Validate checks the inventory invariants: at most InventorySlots stacks, every
// slot within range, each stack stored under its own slot, positive amounts.
func (inv Inventory) Validate() error {
	el := errors.NewErrorList()

	if len(inv) > InventorySlots {
		el.Add(fmt.Errorf("inventory holds %d stacks, limit is %d", len(inv), InventorySlots))
	}
	for slot, it := range inv {
		if slot < 0 || slot >= InventorySlots {
			el.Add(fmt.Errorf("slot %d out of range", slot))
		}
		if it.Slot != slot {
			el.Add(fmt.Errorf("item %q stored under slot %d claims slot %d", it.ID, slot, it.Slot))
		}
		if it.Amount < 1 {
			el.Add(fmt.Errorf("item %q has non-positive amount %d", it.ID, it.Amount))
		}
	}

	return el.Err()
}

// Equipment maps an equipment slot name (e.g. "head", "main_hand") to the item worn there.
type Equipment map[string]InventoryItem

func (e Equipment) Clone() Equipment {
	if e == nil {
		return Equipment{}
	}
	out := make(Equipment, len(e))
	for k, it := range e {
		it.Stats = cloneStats(it.Stats)
		out[k] = it
	}
	return out
}

func cloneStats(s map[string]float64) map[string]float64 {
	if s == nil {
		return nil
	}
	out := make(map[string]float64, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
