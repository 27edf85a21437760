package remote

import (
	"fmt"
	"slices"
	"strings"
)

type OpKind uint8

const (
	OpSet OpKind = iota + 1
	OpIncrement
)

func (k OpKind) String() string {
	switch k {
	case OpSet:
		return "set"
	case OpIncrement:
		return "increment"
	}
	return fmt.Sprintf("OpKind(%d)", k)
}

// Op is one field mutation of an Update. A Set with a nil Value removes the path.
type Op struct {
	Kind  OpKind
	Value any
	Delta float64
}

// Update is a batch of field mutations keyed by absolute path, applied all-or-nothing.
type Update map[string]Op

func NewUpdate() Update {
	return Update{}
}

// Set records an absolute write of v at path, replacing any earlier op on path.
func (u Update) Set(path string, v any) Update {
	u[path] = Op{Kind: OpSet, Value: v}
	return u
}

// Increment records a relative change of the number at path. Increments of the same
// path within one batch are summed.
func (u Update) Increment(path string, delta float64) Update {
	if prev, ok := u[path]; ok && prev.Kind == OpIncrement {
		delta += prev.Delta
	}
	u[path] = Op{Kind: OpIncrement, Delta: delta}
	return u
}

// Paths returns the paths of u in lexical order.
func (u Update) Paths() []string {
	out := make([]string, 0, len(u))
	for p := range u {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// Validate checks every path of u and rejects batches where one path is nested under
// another, since their relative order would be ambiguous.
func (u Update) Validate() error {
	if len(u) == 0 {
		return fmt.Errorf("%w: empty update", ErrRejected)
	}
	for _, p := range u.Paths() {
		if _, _, err := Root(p); err != nil {
			return err
		}
		for i := strings.LastIndex(p, "/"); i > 0; i = strings.LastIndex(p[:i], "/") {
			if _, ok := u[p[:i]]; ok {
				return fmt.Errorf("%w: %q overlaps %q", ErrInvalidPath, p, p[:i])
			}
		}
		switch op := u[p]; op.Kind {
		case OpSet, OpIncrement:
		default:
			return fmt.Errorf("%w: %s has unknown op %v", ErrRejected, p, op.Kind)
		}
	}
	return nil
}
