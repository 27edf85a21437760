package remote

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Broker subjects served by the document store.
const (
	SubjectGet          = "docstore.get"
	SubjectSet          = "docstore.set"
	SubjectUpdate       = "docstore.update"
	SubjectOnDisconnect = "docstore.ondisconnect"

	SnapshotPrefix = "snap."
)

// WireOp is the encoded form of one Op. Values travel as JSON so the receiving side
// sees the same shapes a JSON document would produce.
type WireOp struct {
	Path  string  `msgpack:"p"`
	Kind  OpKind  `msgpack:"k"`
	Value []byte  `msgpack:"v,omitempty"`
	Delta float64 `msgpack:"d,omitempty"`
}

// Request is sent by a client to one of the docstore subjects.
type Request struct {
	Session string   `msgpack:"s"`
	Path    string   `msgpack:"p,omitempty"`
	Value   []byte   `msgpack:"v,omitempty"`
	Ops     []WireOp `msgpack:"o,omitempty"`
}

// Reply answers a Request. Err is empty on success.
type Reply struct {
	Rev    uint64 `msgpack:"r"`
	Exists bool   `msgpack:"e"`
	Data   []byte `msgpack:"d,omitempty"`
	Err    string `msgpack:"x,omitempty"`
}

// Envelope carries one snapshot of a document root on its snapshot subject.
type Envelope struct {
	Path   string `msgpack:"p"`
	Rev    uint64 `msgpack:"r"`
	Exists bool   `msgpack:"e"`
	Data   []byte `msgpack:"d,omitempty"`
}

func (e Envelope) Snapshot() Snapshot {
	return Snapshot{Path: e.Path, Rev: e.Rev, Exists: e.Exists, Data: e.Data}
}

// Pack encodes v as msgpack.
func Pack(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("packing %T: %w", v, err)
	}
	return buf.Bytes(), nil
}

// Unpack decodes msgpack data into v.
func Unpack(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("unpacking %T: %w", v, err)
	}
	return nil
}

// EncodeOps converts u into wire form, sorted by path.
func EncodeOps(u Update) ([]WireOp, error) {
	ops := make([]WireOp, 0, len(u))
	for _, p := range u.Paths() {
		op := u[p]
		w := WireOp{Path: p, Kind: op.Kind, Delta: op.Delta}
		if op.Kind == OpSet && op.Value != nil {
			b, err := json.Marshal(op.Value)
			if err != nil {
				return nil, fmt.Errorf("encoding value for %s: %w", p, err)
			}
			w.Value = b
		}
		ops = append(ops, w)
	}
	return ops, nil
}

// DecodeOps converts wire ops back into an Update. Set values are decoded into plain
// JSON values (maps, slices, float64, string, bool, nil).
func DecodeOps(ops []WireOp) (Update, error) {
	u := NewUpdate()
	for _, w := range ops {
		switch w.Kind {
		case OpSet:
			v, err := DecodeValue(w.Value)
			if err != nil {
				return nil, fmt.Errorf("decoding value for %s: %w", w.Path, err)
			}
			u.Set(w.Path, v)
		case OpIncrement:
			u.Increment(w.Path, w.Delta)
		default:
			return nil, fmt.Errorf("%w: %s has unknown op %v", ErrRejected, w.Path, w.Kind)
		}
	}
	return u, nil
}

// DecodeValue parses JSON into a plain value. Empty input is nil.
func DecodeValue(data []byte) (any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}
