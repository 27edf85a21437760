package economy

import "maps"

// Good is the key of a tradable or held quantity, e.g. "wood" or "gold".
type Good string

const (
	Gold Good = "gold"

	// Basic
	Grain   Good = "grain"
	Wood    Good = "wood"
	Stone   Good = "stone"
	Ore     Good = "ore"
	Wool    Good = "wool"
	Honey   Good = "honey"
	Meat    Good = "meat"
	Egg     Good = "egg"
	IronOre Good = "iron_ore"

	// Refined
	Flour     Good = "flour"
	Bread     Good = "bread"
	Plank     Good = "plank"
	IronIngot Good = "iron_ingot"
	Cloth     Good = "cloth"
	Glass     Good = "glass"
	Omelette  Good = "omelette"

	// Luxury and state
	Swords Good = "swords"
	Armor  Good = "armor"
	Favor  Good = "favor"
)

// Tier groups goods by how far along the production chain they are.
type Tier int

const (
	TierCurrency Tier = iota
	TierBasic
	TierRefined
	TierLuxury
)

func (t Tier) String() string {
	switch t {
	case TierCurrency:
		return "currency"
	case TierBasic:
		return "basic"
	case TierRefined:
		return "refined"
	case TierLuxury:
		return "luxury"
	default:
		return "unknown"
	}
}

// allGoods is the fixed resource schema in display order.
var allGoods = []Good{
	Gold,
	Grain, Wood, Stone, Ore, Wool, Honey, Meat, Egg, IronOre,
	Flour, Bread, Plank, IronIngot, Cloth, Glass, Omelette,
	Swords, Armor, Favor,
}

var goodTiers = map[Good]Tier{
	Gold:  TierCurrency,
	Grain: TierBasic, Wood: TierBasic, Stone: TierBasic, Ore: TierBasic, Wool: TierBasic,
	Honey: TierBasic, Meat: TierBasic, Egg: TierBasic, IronOre: TierBasic,
	Flour: TierRefined, Bread: TierRefined, Plank: TierRefined, IronIngot: TierRefined,
	Cloth: TierRefined, Glass: TierRefined, Omelette: TierRefined,
	Swords: TierLuxury, Armor: TierLuxury, Favor: TierLuxury,
}

// Goods returns every known good, gold first.
func Goods() []Good {
	out := make([]Good, len(allGoods))
	copy(out, allGoods)
	return out
}

// ParseGood returns the good named by s and whether it is part of the schema.
func ParseGood(s string) (Good, bool) {
	g := Good(s)
	_, ok := goodTiers[g]
	return g, ok
}

// Valid reports whether g is part of the fixed resource schema.
func (g Good) Valid() bool {
	_, ok := goodTiers[g]
	return ok
}

// Tier returns the production tier of g.
func (g Good) Tier() Tier {
	return goodTiers[g]
}

func (g Good) String() string {
	return string(g)
}

// Resources is the fixed-schema mapping of named quantities an actor holds.
type Resources map[Good]float64

// NewResources returns a Resources with every good present and zero.
func NewResources() Resources {
	r := make(Resources, len(allGoods))
	for _, g := range allGoods {
		r[g] = 0
	}
	return r
}

// Get returns the quantity of g, zero when absent.
func (r Resources) Get(g Good) float64 {
	return r[g]
}

// Clone returns a copy of r that always contains every good in the schema.
func (r Resources) Clone() Resources {
	out := NewResources()
	maps.Copy(out, r)
	return out
}
