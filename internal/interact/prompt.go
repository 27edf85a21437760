package interact

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/pixil98/go-realm/internal/game"
)

// templateFuncs provides utility functions for prompt templates.
var templateFuncs = sprig.TxtFuncMap()

const defaultPrompt = "{{ .Name }}"

// PromptData is what a prompt template can reference.
type PromptData struct {
	Verb  string
	Name  string
	Good  string
	Label string
}

var verbs = map[game.InteractableKind]string{
	game.KindResource: "gather",
	game.KindMarket:   "trade",
	game.KindRest:     "rest",
}

// compilePrompts parses one template per interactable kind; kinds without an entry
// in raw use the bare name. Keys that are not interactable kinds are rejected.
func compilePrompts(raw map[string]string) (map[game.InteractableKind]*template.Template, error) {
	for key := range raw {
		if _, ok := verbs[game.InteractableKind(key)]; !ok {
			return nil, fmt.Errorf("unknown interactable kind %q", key)
		}
	}

	out := map[game.InteractableKind]*template.Template{}
	for kind := range verbs {
		src, ok := raw[string(kind)]
		if !ok {
			src = defaultPrompt
		}
		tmpl, err := template.New(string(kind)).Funcs(templateFuncs).Parse(src)
		if err != nil {
			return nil, fmt.Errorf("parsing %s prompt: %w", kind, err)
		}
		out[kind] = tmpl
	}
	return out, nil
}

func expandPrompt(tmpl *template.Template, data PromptData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}
	return buf.String(), nil
}
