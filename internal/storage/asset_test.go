package storage

import (
	"strings"
	"testing"

	"github.com/pixil98/go-realm/internal/economy"
	"github.com/pixil98/go-realm/internal/game"
)

func validRealm() *game.Realm {
	return &game.Realm{
		Name:    "Nordmark",
		Spawn:   game.Position{X: 400, Y: 300},
		Regions: []string{economy.RegionEast, economy.RegionWest},
		Interactables: []game.Interactable{
			{ID: "forest", Kind: game.KindResource, Name: "Old Forest", Gather: economy.Wood, Radius: 40},
		},
	}
}

func TestAsset_Validate(t *testing.T) {
	tests := map[string]struct {
		asset   Asset[*game.Realm]
		expErrs []string
	}{
		"valid asset": {
			asset: Asset[*game.Realm]{Version: 1, ID: "nordmark", Spec: validRealm()},
		},
		"version not set": {
			asset:   Asset[*game.Realm]{ID: "nordmark", Spec: validRealm()},
			expErrs: []string{"version must be set"},
		},
		"identifier with underscore": {
			asset:   Asset[*game.Realm]{Version: 1, ID: "nord_mark", Spec: validRealm()},
			expErrs: []string{"id must be alphanumeric"},
		},
		"identifier with slash": {
			asset:   Asset[*game.Realm]{Version: 1, ID: "rooms/nordmark", Spec: validRealm()},
			expErrs: []string{"id must be alphanumeric"},
		},
		"missing spec": {
			asset:   Asset[*game.Realm]{Version: 1, ID: "nordmark"},
			expErrs: []string{"spec must be set"},
		},
		"invalid spec": {
			asset:   Asset[*game.Realm]{Version: 1, ID: "nordmark", Spec: &game.Realm{Name: "Empty"}},
			expErrs: []string{"at least one region is required"},
		},
		"multiple errors": {
			asset: Asset[*game.Realm]{Spec: &game.Realm{Regions: []string{"a"}}},
			expErrs: []string{
				"version must be set",
				"id must be set",
				"name is required",
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := tt.asset.Validate()

			if len(tt.expErrs) == 0 {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}

			if err == nil {
				t.Errorf("expected errors %v, got nil", tt.expErrs)
				return
			}

			errStr := err.Error()
			for _, e := range tt.expErrs {
				if !strings.Contains(errStr, e) {
					t.Errorf("error %q does not contain %q", errStr, e)
				}
			}
		})
	}
}
