package game

import (
	"testing"

	"github.com/pixil98/go-realm/internal/economy"
	"github.com/pixil98/go-testutil"
)

func TestNewActor(t *testing.T) {
	a := NewActor("char-1", "uid-1", "Ola", economy.RoleBaron, economy.RegionEast)

	testutil.AssertEqual(t, "gold", a.Resources.Get(economy.Gold), 500.0)
	testutil.AssertEqual(t, "level", a.Stats.Level, 1)
	testutil.AssertEqual(t, "reputation", a.Stats.Reputation, 40.0)
	if err := a.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestActor_Validate(t *testing.T) {
	tests := map[string]struct {
		mutate func(*Actor)
		expErr string
	}{
		"missing id": {
			mutate: func(a *Actor) { a.ID = "" },
			expErr: "id is required",
		},
		"bad role": {
			mutate: func(a *Actor) { a.Role = "JESTER" },
			expErr: "invalid role",
		},
		"negative resource": {
			mutate: func(a *Actor) { a.Resources[economy.Wood] = -1 },
			expErr: "resource wood is negative",
		},
		"legitimacy out of range": {
			mutate: func(a *Actor) { a.Status.Legitimacy = 101 },
			expErr: "legitimacy",
		},
		"bad inventory": {
			mutate: func(a *Actor) { a.Inventory[30] = stack("wood", 30, 1) },
			expErr: "inventory",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			a := NewActor("char-1", "", "Ola", economy.RolePeasant, economy.RegionWest)
			tt.mutate(a)
			testutil.AssertErrorContains(t, a.Validate(), tt.expErr)
		})
	}
}

func TestActor_CloneIsDeep(t *testing.T) {
	a := NewActor("char-1", "uid-1", "Ola", economy.RolePeasant, economy.RegionWest)
	a.Position = &Position{X: 1, Y: 2}
	a.Inventory[0] = stack("wood", 0, 1)

	c := a.Clone()
	c.Position.X = 50
	c.Resources[economy.Gold] = 1
	c.Inventory[1] = stack("stone", 1, 1)

	testutil.AssertEqual(t, "position", a.Position.X, 1.0)
	testutil.AssertEqual(t, "gold", a.Resources.Get(economy.Gold), 50.0)
	testutil.AssertEqual(t, "inventory", len(a.Inventory), 1)
}

func TestActor_OwnedBy(t *testing.T) {
	a := &Actor{ID: "char-1", UID: "uid-1"}
	testutil.AssertEqual(t, "owner", a.OwnedBy("uid-1"), true)
	testutil.AssertEqual(t, "other", a.OwnedBy("uid-2"), false)

	orphan := &Actor{ID: "char-2"}
	testutil.AssertEqual(t, "orphan", orphan.OwnedBy(""), false)
}

func TestRealm_Validate(t *testing.T) {
	tests := map[string]struct {
		realm  Realm
		expErr string
	}{
		"valid": {
			realm: Realm{
				Name:    "Capital",
				Regions: []string{economy.RegionCapital},
				Interactables: []Interactable{
					{ID: "forest", Kind: KindResource, Gather: economy.Wood, Radius: 40},
					{ID: "market", Kind: KindMarket, Radius: 40},
				},
			},
		},
		"bad default region": {
			realm:  Realm{Name: "x", Regions: []string{"a"}, DefaultRegion: "b"},
			expErr: "default region",
		},
		"unknown gather good": {
			realm: Realm{Name: "x", Regions: []string{"a"}, Interactables: []Interactable{
				{ID: "mine", Kind: KindResource, Gather: "mithril", Radius: 10},
			}},
			expErr: "unknown gather good",
		},
		"duplicate interactable": {
			realm: Realm{Name: "x", Regions: []string{"a"}, Interactables: []Interactable{
				{ID: "well", Kind: KindRest, Radius: 10},
				{ID: "well", Kind: KindRest, Radius: 10},
			}},
			expErr: "duplicate interactable",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := tt.realm.Validate()
			if tt.expErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			testutil.AssertErrorContains(t, err, tt.expErr)
		})
	}
}
