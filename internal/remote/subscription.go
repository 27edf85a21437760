package remote

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Subscription serialises deliveries for one subscriber of a document path. It is fed
// snapshots of the path's document root, drops revisions it has already passed and
// hands the subscriber the value at its own path.
type Subscription struct {
	path       string
	rel        []string
	onSnapshot func(Snapshot)
	onError    func(error)

	mu        sync.Mutex
	lastRev   uint64
	cancelled bool
	onCancel  func()
}

// NewSubscription returns a subscription for path, whose segments below the document
// root are rel.
func NewSubscription(path string, rel []string, onSnapshot func(Snapshot), onError func(error)) *Subscription {
	return &Subscription{path: path, rel: rel, onSnapshot: onSnapshot, onError: onError}
}

// OnCancel sets the function run by the first Cancel.
func (s *Subscription) OnCancel(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onCancel = fn
}

// Deliver passes a snapshot of the document root to the subscriber unless the
// subscription is cancelled or has already seen a later revision.
func (s *Subscription) Deliver(root Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelled || (s.lastRev > 0 && root.Rev <= s.lastRev) {
		return
	}
	s.lastRev = root.Rev

	snap, err := Extract(root, s.path, s.rel)
	if err != nil {
		if s.onError != nil {
			s.onError(err)
		}
		return
	}
	s.onSnapshot(snap)
}

func (s *Subscription) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelled || s.onError == nil {
		return
	}
	s.onError(err)
}

// Cancel stops delivery. It waits for an in-flight delivery to finish, so no callback
// runs after it returns. Later calls do nothing.
func (s *Subscription) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelled {
		return
	}
	s.cancelled = true
	if s.onCancel != nil {
		s.onCancel()
	}
}

// Extract narrows a snapshot of a document root down to the value at path, whose
// segments below the root are rel.
func Extract(root Snapshot, path string, rel []string) (Snapshot, error) {
	out := Snapshot{Path: path, Rev: root.Rev}
	if len(rel) == 0 {
		out.Exists = root.Exists
		out.Data = root.Data
		return out, nil
	}
	if !root.Exists {
		return out, nil
	}

	v, err := DecodeValue(root.Data)
	if err != nil {
		return Snapshot{}, fmt.Errorf("decoding %s: %w", root.Path, err)
	}
	for _, seg := range rel {
		m, ok := v.(map[string]any)
		if !ok {
			return out, nil
		}
		if v, ok = m[seg]; !ok {
			return out, nil
		}
	}
	if v == nil {
		return out, nil
	}

	b, err := json.Marshal(v)
	if err != nil {
		return Snapshot{}, fmt.Errorf("encoding %s: %w", path, err)
	}
	out.Exists = true
	out.Data = b
	return out, nil
}
