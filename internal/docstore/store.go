package docstore

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"slices"
	"sync"
	"time"

	"github.com/pixil98/go-realm/internal/remote"
)

// guardedPaths are the leaves that may never go below zero.
var guardedPaths = []string{
	"rooms/*/players/*/resources/*",
	"rooms/*/market/*/stock",
}

type document struct {
	rev   uint64
	value map[string]any
}

// PublishFunc receives the new state of a document root after every commit.
type PublishFunc func(remote.Envelope)

// Store is the authoritative document store. Every update is applied under one lock,
// so a multi-path update is indivisible with respect to every other update.
type Store struct {
	persist Persister
	ledger  *Ledger
	publish PublishFunc

	mu    sync.Mutex
	docs  map[string]*document
	hooks map[string]remote.Update
}

type StoreOpt func(*Store)

func WithLedger(l *Ledger) StoreOpt {
	return func(s *Store) {
		s.ledger = l
	}
}

func WithPublisher(fn PublishFunc) StoreOpt {
	return func(s *Store) {
		s.publish = fn
	}
}

func NewStore(p Persister, opts ...StoreOpt) *Store {
	s := &Store{
		persist: p,
		docs:    map[string]*document{},
		hooks:   map[string]remote.Update{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetPublisher replaces the commit listener.
func (s *Store) SetPublisher(fn PublishFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publish = fn
}

// Get returns the value at path and the revision of its document root.
func (s *Store) Get(p string) (remote.Snapshot, error) {
	root, rel, err := remote.Root(p)
	if err != nil {
		return remote.Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(root)
	if err != nil {
		return remote.Snapshot{}, err
	}

	snap := remote.Snapshot{Path: p, Rev: doc.rev}
	if doc.value == nil {
		return snap, nil
	}
	v, ok := lookup(doc.value, rel)
	if !ok {
		return snap, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return remote.Snapshot{}, fmt.Errorf("encoding %s: %w", p, err)
	}
	snap.Exists = true
	snap.Data = b
	return snap, nil
}

// Set writes value at path; a nil value removes it.
func (s *Store) Set(session, p string, value any) error {
	return s.Apply(session, remote.NewUpdate().Set(p, value))
}

// Apply commits every op of u or none of them. Increments of absent paths start from
// zero. An update that would drive a guarded leaf below zero is rejected whole.
func (s *Store) Apply(session string, u remote.Update) error {
	if err := u.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.apply(session, u)
}

func (s *Store) apply(session string, u remote.Update) error {
	// Work on copies of every touched root so a failure part way leaves nothing behind.
	staged := map[string]map[string]any{}
	revs := map[string]uint64{}
	paths := u.Paths()

	for _, p := range paths {
		root, rel, err := remote.Root(p)
		if err != nil {
			return err
		}
		if _, ok := staged[root]; !ok {
			doc, err := s.load(root)
			if err != nil {
				return err
			}
			staged[root] = cloneDoc(doc.value)
			revs[root] = doc.rev
		}
		if err := applyOp(staged, root, rel, p, u[p]); err != nil {
			return err
		}
	}

	records := make(map[string]Record, len(staged))
	for root, value := range staged {
		records[root] = Record{Rev: revs[root] + 1, Doc: value}
	}
	if err := s.persist.SaveAll(records); err != nil {
		return fmt.Errorf("persisting update: %w", err)
	}

	roots := make([]string, 0, len(records))
	for root, rec := range records {
		s.docs[root] = &document{rev: rec.Rev, value: rec.Doc}
		roots = append(roots, root)
	}
	slices.Sort(roots)

	s.ledger.Record(Entry{Session: session, Roots: roots, Paths: paths, At: time.Now()})

	if s.publish != nil {
		for _, root := range roots {
			s.publish(envelope(root, s.docs[root]))
		}
	}
	return nil
}

func applyOp(staged map[string]map[string]any, root string, rel []string, p string, op remote.Op) error {
	doc := staged[root]

	switch op.Kind {
	case remote.OpSet:
		v, err := normalize(op.Value)
		if err != nil {
			return fmt.Errorf("%w: encoding %s: %w", ErrConflict, p, err)
		}
		if n, ok := v.(float64); ok && n < 0 && guarded(p) {
			return fmt.Errorf("%w: %s = %v", ErrNegative, p, n)
		}
		if len(rel) == 0 {
			m, ok := v.(map[string]any)
			if v != nil && !ok {
				return fmt.Errorf("%w: document %s must be an object", ErrConflict, root)
			}
			staged[root] = m
			return nil
		}
		if v == nil {
			if doc != nil {
				remove(doc, rel)
			}
			return nil
		}
		if doc == nil {
			doc = map[string]any{}
			staged[root] = doc
		}
		return assign(doc, rel, v)

	case remote.OpIncrement:
		if len(rel) == 0 {
			return fmt.Errorf("%w: cannot increment document %s", ErrConflict, root)
		}
		current := 0.0
		if doc != nil {
			if v, ok := lookup(doc, rel); ok {
				n, isNum := v.(float64)
				if !isNum {
					return fmt.Errorf("%w: %s is not a number", ErrConflict, p)
				}
				current = n
			}
		}
		next := current + op.Delta
		if next < 0 && guarded(p) {
			return fmt.Errorf("%w: %s would become %v", ErrNegative, p, next)
		}
		if doc == nil {
			doc = map[string]any{}
			staged[root] = doc
		}
		return assign(doc, rel, next)
	}

	return fmt.Errorf("%w: %s has unknown op %v", ErrConflict, p, op.Kind)
}

func guarded(p string) bool {
	for _, pattern := range guardedPaths {
		if ok, _ := path.Match(pattern, p); ok {
			return true
		}
	}
	return false
}

// OnDisconnect registers a write applied when session disconnects. Later writes to
// the same path replace earlier ones.
func (s *Store) OnDisconnect(session, p string, value any) error {
	if _, _, err := remote.Root(p); err != nil {
		return err
	}
	v, err := normalize(value)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", p, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	hooks, ok := s.hooks[session]
	if !ok {
		hooks = remote.NewUpdate()
		s.hooks[session] = hooks
	}
	hooks.Set(p, v)
	return nil
}

// Disconnect applies every write registered by session as one update and forgets
// them. Calling it for a session without hooks does nothing.
func (s *Store) Disconnect(session string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	hooks, ok := s.hooks[session]
	if !ok {
		return nil
	}
	delete(s.hooks, session)

	if err := hooks.Validate(); err != nil {
		return fmt.Errorf("disconnect writes of %s: %w", session, err)
	}
	if err := s.apply(session, hooks); err != nil {
		return fmt.Errorf("applying disconnect writes of %s: %w", session, err)
	}
	slog.Info("session disconnected", "session", session, "writes", len(hooks))
	return nil
}

// Sessions returns every session with pending disconnect writes.
func (s *Store) Sessions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.hooks))
	for session := range s.hooks {
		out = append(out, session)
	}
	slices.Sort(out)
	return out
}

// Sweep disconnects every session with pending hooks that is not in live.
func (s *Store) Sweep(live map[string]bool) {
	for _, session := range s.Sessions() {
		if live[session] {
			continue
		}
		if err := s.Disconnect(session); err != nil {
			slog.Warn("disconnecting session", "session", session, "error", err)
		}
	}
}

// load returns the cached document for root, reading it from the persister on first
// use. Callers hold s.mu.
func (s *Store) load(root string) (*document, error) {
	if doc, ok := s.docs[root]; ok {
		return doc, nil
	}
	rec, ok, err := s.persist.Load(root)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", root, err)
	}
	doc := &document{}
	if ok {
		doc.rev = rec.Rev
		doc.value = rec.Doc
	}
	s.docs[root] = doc
	return doc, nil
}

func envelope(root string, doc *document) remote.Envelope {
	env := remote.Envelope{Path: root, Rev: doc.rev}
	if doc.value == nil {
		return env
	}
	b, err := json.Marshal(doc.value)
	if err != nil {
		slog.Error("encoding snapshot", "root", root, "error", err)
		return env
	}
	env.Exists = true
	env.Data = b
	return env
}
