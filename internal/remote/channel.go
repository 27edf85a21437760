package remote

import (
	"context"
	"encoding/json"
	"fmt"
)

// Snapshot is the authoritative value at a path together with the revision of the
// document root it was read from. A snapshot of a path nobody has written has
// Exists set to false.
type Snapshot struct {
	Path   string
	Rev    uint64
	Exists bool
	Data   json.RawMessage
}

// Decode unmarshals the snapshot data into v.
func (s Snapshot) Decode(v any) error {
	if !s.Exists || len(s.Data) == 0 {
		return fmt.Errorf("%w: %s", ErrNoData, s.Path)
	}
	if err := json.Unmarshal(s.Data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", s.Path, err)
	}
	return nil
}

// Channel is the client side of the replicated document store.
//
// Subscribe delivers the current value of path and then every later change, in the
// order the store committed them. The returned cancel function stops delivery: once
// it returns no further callback fires, and calling it again is a no-op. It must not
// be called from inside onSnapshot or onError.
//
// AtomicUpdate applies every op of u or none of them. Increments are evaluated by the
// store, so concurrent increments of one field from different clients commute.
//
// OnDisconnectSetValue registers a write the store performs when this client's
// connection goes away.
type Channel interface {
	Subscribe(path string, onSnapshot func(Snapshot), onError func(error)) (func(), error)
	AtomicUpdate(ctx context.Context, u Update) error
	OnDisconnectSetValue(ctx context.Context, path string, value any) error
	Get(ctx context.Context, path string) (Snapshot, error)
	Set(ctx context.Context, path string, value any) error
}
