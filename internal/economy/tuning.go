package economy

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"github.com/pixil98/go-errors"
	"gopkg.in/yaml.v3"
)

//go:embed tuning.yaml
var defaultTuningYAML []byte

// GoodInfo is display metadata for a good.
type GoodInfo struct {
	Label    string `yaml:"label"`
	Icon     string `yaml:"icon"`
	Category string `yaml:"category"`
}

// GatherConfig is the cost and base yield of gathering one good.
type GatherConfig struct {
	StaminaCost float64 `yaml:"stamina_cost"`
	BaseYield   float64 `yaml:"base_yield"`
}

type GatherTable struct {
	Default Good                  `yaml:"default"`
	Goods   map[Good]GatherConfig `yaml:"goods"`
}

type FoodTable struct {
	Default Good             `yaml:"default"`
	Values  map[Good]float64 `yaml:"values"`
}

// StarterKit is what a newly created character begins with.
type StarterKit struct {
	Role       Role      `yaml:"role"`
	Resources  Resources `yaml:"resources"`
	HP         float64   `yaml:"hp"`
	Stamina    float64   `yaml:"stamina"`
	Morale     float64   `yaml:"morale"`
	Legitimacy float64   `yaml:"legitimacy"`
}

type TaxTuning struct {
	BaronRate float64 `yaml:"baron_rate"`
	KingRate  float64 `yaml:"king_rate"`
}

// Tuning holds the static tables that drive the economy. It is loaded once at
// start and never mutated afterwards.
type Tuning struct {
	Goods       map[Good]GoodInfo  `yaml:"goods"`
	Roles       map[Role]Resources `yaml:"roles"`
	Market      Market             `yaml:"market"`
	Gather      GatherTable        `yaml:"gather"`
	Food        FoodTable          `yaml:"food"`
	RestStamina float64            `yaml:"rest_stamina"`
	Starter     StarterKit         `yaml:"starter"`
	Taxes       TaxTuning          `yaml:"taxes"`
	Prompts     map[string]string  `yaml:"prompts"`
}

// promptKinds are the interactable kinds a prompt can be keyed by.
var promptKinds = map[string]struct{}{"resource": {}, "market": {}, "rest": {}}

var defaultTuning = sync.OnceValue(func() *Tuning {
	t, err := Parse(defaultTuningYAML)
	if err != nil {
		panic(fmt.Sprintf("economy: embedded tuning: %v", err))
	}
	return t
})

// Default returns the tuning compiled into the binary.
func Default() *Tuning {
	return defaultTuning()
}

// Load reads and validates a tuning file.
func Load(path string) (*Tuning, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tuning %q: %w", path, err)
	}
	t, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("tuning %q: %w", path, err)
	}
	return t, nil
}

// Parse decodes and validates tuning yaml.
func Parse(raw []byte) (*Tuning, error) {
	var t Tuning
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("unmarshalling tuning: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate checks that every table only references known goods and roles and that
// market entries are internally consistent.
func (t *Tuning) Validate() error {
	el := errors.NewErrorList()

	for _, r := range Roles() {
		if _, ok := t.Roles[r]; !ok {
			el.Add(fmt.Errorf("roles: missing allocation for %s", r))
		}
	}
	for r, alloc := range t.Roles {
		if !r.Valid() {
			el.Add(fmt.Errorf("roles: unknown role %q", r))
		}
		el.Add(validateQuantities(fmt.Sprintf("roles.%s", r), alloc))
	}

	for g, m := range t.Market {
		if !g.Valid() {
			el.Add(fmt.Errorf("market: unknown good %q", g))
		}
		if m.Price <= 0 {
			el.Add(fmt.Errorf("market.%s: price must be positive", g))
		}
		if m.MaxStock <= 0 {
			el.Add(fmt.Errorf("market.%s: maxStock must be positive", g))
		}
		if m.Stock < 0 || m.Stock > m.MaxStock {
			el.Add(fmt.Errorf("market.%s: stock must be within [0, maxStock]", g))
		}
	}

	if _, ok := t.Gather.Goods[t.Gather.Default]; !ok {
		el.Add(fmt.Errorf("gather: default %q has no configuration", t.Gather.Default))
	}
	for g, c := range t.Gather.Goods {
		if !g.Valid() {
			el.Add(fmt.Errorf("gather: unknown good %q", g))
		}
		if c.BaseYield <= 0 {
			el.Add(fmt.Errorf("gather.%s: base_yield must be positive", g))
		}
		if c.StaminaCost < 0 {
			el.Add(fmt.Errorf("gather.%s: stamina_cost must not be negative", g))
		}
	}

	if _, ok := t.Food.Values[t.Food.Default]; !ok {
		el.Add(fmt.Errorf("food: default %q has no value", t.Food.Default))
	}
	for g := range t.Food.Values {
		if !g.Valid() {
			el.Add(fmt.Errorf("food: unknown good %q", g))
		}
	}

	if t.RestStamina <= 0 {
		el.Add(fmt.Errorf("rest_stamina must be positive"))
	}
	if !t.Starter.Role.Valid() {
		el.Add(fmt.Errorf("starter: unknown role %q", t.Starter.Role))
	}
	el.Add(validateQuantities("starter.resources", t.Starter.Resources))

	if t.Taxes.BaronRate < 0 || t.Taxes.BaronRate > 1 {
		el.Add(fmt.Errorf("taxes: baron_rate must be within [0, 1]"))
	}

	for kind := range t.Prompts {
		if _, ok := promptKinds[kind]; !ok {
			el.Add(fmt.Errorf("prompts: unknown interactable kind %q", kind))
		}
	}

	return el.Err()
}

func validateQuantities(section string, r Resources) error {
	el := errors.NewErrorList()
	for g, v := range r {
		if !g.Valid() {
			el.Add(fmt.Errorf("%s: unknown good %q", section, g))
		}
		if v < 0 {
			el.Add(fmt.Errorf("%s.%s: must not be negative", section, g))
		}
	}
	return el.Err()
}

// Info returns display metadata for g, falling back to the good's key.
func (t *Tuning) Info(g Good) GoodInfo {
	if info, ok := t.Goods[g]; ok {
		return info
	}
	return GoodInfo{Label: string(g)}
}

// GatherFor returns the good to credit and its gather configuration. A known good
// without its own configuration keeps its identity and borrows the default good's
// cost and yield; only unknown goods (and gold) are replaced by the default good.
func (t *Tuning) GatherFor(g Good) (Good, GatherConfig) {
	if c, ok := t.Gather.Goods[g]; ok {
		return g, c
	}
	def := t.Gather.Goods[t.Gather.Default]
	if g.Valid() && g != Gold {
		return g, def
	}
	return t.Gather.Default, def
}

// FoodValue returns the stamina restored by eating one unit of g.
func (t *Tuning) FoodValue(g Good) (float64, bool) {
	v, ok := t.Food.Values[g]
	return v, ok
}

// MarketSeed returns a fresh copy of the market a new room starts with.
func (t *Tuning) MarketSeed() Market {
	return t.Market.Clone()
}
