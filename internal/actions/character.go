package actions

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/pixil98/go-realm/internal/economy"
	"github.com/pixil98/go-realm/internal/game"
	"github.com/pixil98/go-realm/internal/remote"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CreateCharacter builds a new starter character for owner in roomID, writes it,
// records it on the owner's roster and makes it the session's local actor.
func (e *Engine) CreateCharacter(ctx context.Context, roomID, owner, name string) (*game.Actor, error) {
	name = cases.Title(language.Und).String(strings.ToLower(strings.Join(strings.Fields(name), " ")))
	if name == "" {
		return nil, e.fail(ctx, "create", ErrInvalidName)
	}
	if owner == "" {
		return nil, e.fail(ctx, "create", fmt.Errorf("owner is required"))
	}

	kit := e.tuning.Starter
	region := economy.RegionCapital
	var spawn *game.Position
	if e.realm != nil {
		region = e.realm.Region()
		p := e.realm.Spawn
		spawn = &p
	}

	a := game.NewActor("char-"+e.newID(), owner, name, kit.Role, region)
	a.Resources = economy.NewResources()
	for g, v := range kit.Resources {
		a.Resources[g] = v
	}
	a.Status = game.Status{
		HP:         kit.HP,
		Stamina:    kit.Stamina,
		Morale:     kit.Morale,
		Legitimacy: kit.Legitimacy,
	}
	a.Position = spawn

	e.SetRoom(roomID)
	if err := e.InitializeCharacter(ctx, a); err != nil {
		return nil, err
	}

	roster, err := e.Roster(ctx, owner, roomID)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(roster, a.ID) {
		roster = append(roster, a.ID)
	}
	if err := e.ch.Set(ctx, remote.RosterPath(owner, roomID), roster); err != nil {
		return nil, e.fail(ctx, "create", fmt.Errorf("updating roster: %w", err))
	}

	e.store.SetUser(a)
	slog.InfoContext(ctx, "character created", "room", roomID, "player", a.ID, "name", a.Name)
	return a, nil
}

// Roster lists the ids of owner's characters in roomID.
func (e *Engine) Roster(ctx context.Context, owner, roomID string) ([]string, error) {
	snap, err := e.ch.Get(ctx, remote.RosterPath(owner, roomID))
	if err != nil {
		return nil, e.fail(ctx, "roster", fmt.Errorf("reading roster: %w", err))
	}
	var ids []string
	if !snap.Exists {
		return ids, nil
	}
	if err := snap.Decode(&ids); err != nil {
		return nil, e.fail(ctx, "roster", fmt.Errorf("decoding roster: %w", err))
	}
	return ids, nil
}
