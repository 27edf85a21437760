package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/invopop/jsonschema"
	"github.com/pixil98/go-realm/internal/economy"
	"github.com/pixil98/go-realm/internal/game"
	validator "github.com/santhosh-tekuri/jsonschema/v5"
)

// Decoder turns raw documents into the data model, validating every piece against a
// JSON Schema reflected from the Go types before trusting its shape.
type Decoder struct {
	world  *validator.Schema
	actor  *validator.Schema
	market *validator.Schema
}

func NewDecoder() (*Decoder, error) {
	world, err := compileSchema("world.json", &game.WorldState{})
	if err != nil {
		return nil, err
	}
	actor, err := compileSchema("actor.json", &game.Actor{})
	if err != nil {
		return nil, err
	}
	market, err := compileSchema("market-item.json", &economy.MarketItem{})
	if err != nil {
		return nil, err
	}
	return &Decoder{world: world, actor: actor, market: market}, nil
}

func compileSchema(name string, v any) (*validator.Schema, error) {
	r := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
		AllowAdditionalProperties:  true,
	}
	raw, err := json.Marshal(r.Reflect(v))
	if err != nil {
		return nil, fmt.Errorf("marshalling %s schema: %w", name, err)
	}

	c := validator.NewCompiler()
	if err := c.AddResource(name, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("adding %s schema: %w", name, err)
	}
	s, err := c.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compiling %s schema: %w", name, err)
	}
	return s, nil
}

// roomDocument holds the undecoded pieces of a room so each can be checked on its own.
type roomDocument struct {
	World   json.RawMessage            `json:"world"`
	Players map[string]json.RawMessage `json:"players"`
	Market  map[string]json.RawMessage `json:"market"`
}

// DecodeRoom decodes a room snapshot. A missing or malformed world leaves HasWorld
// unset and World at the default, a missing market leaves HasMarket unset, and
// malformed players and market entries are dropped. Every rejection is logged. Only
// a document that is not a JSON object at all is an error.
func (d *Decoder) DecodeRoom(data []byte) (*game.Room, error) {
	var doc roomDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding room document: %w", err)
	}

	room := &game.Room{
		World:   game.DefaultWorldState(),
		Players: make(map[string]*game.Actor, len(doc.Players)),
		Market:  make(economy.Market, len(doc.Market)),
	}

	if len(doc.World) > 0 && !isNull(doc.World) {
		var w game.WorldState
		err := d.decode(d.world, doc.World, &w)
		if err == nil && (!w.Season.Valid() || !w.Weather.Valid() || w.Day < 0) {
			err = fmt.Errorf("world %+v out of range", w)
		}
		if err != nil {
			slog.Warn("ignoring malformed world state", "error", err)
		} else {
			room.World = w
			room.HasWorld = true
		}
	}

	for id, raw := range doc.Players {
		a, err := d.DecodeActor(raw)
		if err != nil {
			slog.Warn("skipping malformed player", "player", id, "error", err)
			continue
		}
		if a.ID != id {
			slog.Warn("skipping player stored under foreign key", "key", id, "player", a.ID)
			continue
		}
		room.Players[id] = a
	}

	room.HasMarket = doc.Market != nil
	for key, raw := range doc.Market {
		g, ok := economy.ParseGood(key)
		if !ok {
			slog.Warn("skipping market entry for unknown good", "good", key)
			continue
		}
		var item economy.MarketItem
		if err := d.decode(d.market, raw, &item); err != nil {
			slog.Warn("skipping malformed market entry", "good", key, "error", err)
			continue
		}
		room.Market[g] = item
	}

	return room, nil
}

// DecodeActor validates and decodes one actor document and fills in the collections
// a sparse document leaves out.
func (d *Decoder) DecodeActor(data []byte) (*game.Actor, error) {
	var a game.Actor
	if err := d.decode(d.actor, data, &a); err != nil {
		return nil, err
	}
	a.Normalize()
	if err := a.Inventory.Validate(); err != nil {
		return nil, fmt.Errorf("inventory: %w", err)
	}
	return &a, nil
}

func (d *Decoder) decode(s *validator.Schema, data []byte, v any) error {
	var doc any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("parsing: %w", err)
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("validating: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshalling: %w", err)
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}
