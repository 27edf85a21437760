package interact

import (
	"fmt"
	"log/slog"
	"sync"
	"text/template"

	"github.com/pixil98/go-realm/internal/economy"
	"github.com/pixil98/go-realm/internal/events"
	"github.com/pixil98/go-realm/internal/game"
)

// Detector tracks which interactable of a realm the local actor is standing at and
// announces changes on the bus.
type Detector struct {
	realm   *game.Realm
	tuning  *economy.Tuning
	bus     *events.Bus
	prompts map[game.InteractableKind]*template.Template

	mu      sync.Mutex
	current *events.Candidate
}

func NewDetector(realm *game.Realm, tuning *economy.Tuning, bus *events.Bus) (*Detector, error) {
	prompts, err := compilePrompts(tuning.Prompts)
	if err != nil {
		return nil, fmt.Errorf("compiling prompts: %w", err)
	}
	return &Detector{
		realm:   realm,
		tuning:  tuning,
		bus:     bus,
		prompts: prompts,
	}, nil
}

// Update finds the nearest interactable whose radius covers pos. When the target
// changes it publishes NearInteractable, followed by InteractionPrompt on entering
// or InteractionClear on leaving.
func (d *Detector) Update(pos game.Position) *events.Candidate {
	var best *events.Candidate
	for _, it := range d.realm.Interactables {
		dist := it.Distance(pos)
		if dist > it.Radius || (best != nil && dist >= best.Distance) {
			continue
		}
		best = &events.Candidate{Interactable: it, Distance: dist}
	}
	if best != nil {
		best.Prompt = d.prompt(best.Interactable)
	}

	d.mu.Lock()
	prev := d.current
	d.current = best
	d.mu.Unlock()

	if sameTarget(prev, best) {
		return copyCandidate(best)
	}

	d.bus.NearInteractable.Publish(events.NearInteractable{Candidate: copyCandidate(best)})
	if best != nil {
		d.bus.InteractionPrompt.Publish(*best)
	} else {
		d.bus.InteractionClear.Publish(events.InteractionClear{})
	}
	return copyCandidate(best)
}

// Current returns the candidate from the last Update, or nil.
func (d *Detector) Current() *events.Candidate {
	d.mu.Lock()
	defer d.mu.Unlock()
	return copyCandidate(d.current)
}

func (d *Detector) prompt(it game.Interactable) string {
	tmpl, ok := d.prompts[it.Kind]
	if !ok {
		return it.Name
	}
	data := PromptData{Verb: verbs[it.Kind], Name: it.Name}
	if it.Gather != "" {
		data.Good = string(it.Gather)
		data.Label = d.tuning.Info(it.Gather).Label
	}
	s, err := expandPrompt(tmpl, data)
	if err != nil {
		slog.Warn("rendering interaction prompt", "interactable", it.ID, "error", err)
		return it.Name
	}
	return s
}

func sameTarget(a, b *events.Candidate) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Interactable.ID == b.Interactable.ID
}

func copyCandidate(c *events.Candidate) *events.Candidate {
	if c == nil {
		return nil
	}
	out := *c
	return &out
}
