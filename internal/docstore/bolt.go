package docstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pixil98/go-realm/internal/remote"
	bolt "go.etcd.io/bbolt"
)

// Record is the persisted form of one document root.
type Record struct {
	Rev uint64         `json:"rev"`
	Doc map[string]any `json:"doc"`
}

// Persister stores document roots. SaveAll must write every record or none. A record
// with a nil Doc marks a removed root and keeps its revision.
type Persister interface {
	Load(root string) (Record, bool, error)
	SaveAll(records map[string]Record) error
	Close() error
}

// BoltPersister keeps each document root as a zstd-compressed JSON value in a bbolt
// bucket named after the root kind.
type BoltPersister struct {
	db  *bolt.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func OpenBolt(path string) (*BoltPersister, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}

	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("opening bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range []string{remote.RoomsRoot, remote.AccountsRoot} {
			if _, err := tx.CreateBucketIfNotExists([]byte(bucket)); err != nil {
				return fmt.Errorf("creating bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}

	return &BoltPersister{db: db, enc: enc, dec: dec}, nil
}

func (p *BoltPersister) Load(root string) (Record, bool, error) {
	bucket, key, err := splitRoot(root)
	if err != nil {
		return Record{}, false, err
	}

	var raw []byte
	err = p.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}
		// Values are only valid inside the transaction.
		if v := b.Get([]byte(key)); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return Record{}, false, fmt.Errorf("reading %s: %w", root, err)
	}
	if raw == nil {
		return Record{}, false, nil
	}

	plain, err := p.dec.DecodeAll(raw, nil)
	if err != nil {
		return Record{}, false, fmt.Errorf("decompressing %s: %w", root, err)
	}
	var rec Record
	if err := json.Unmarshal(plain, &rec); err != nil {
		return Record{}, false, fmt.Errorf("unmarshalling %s: %w", root, err)
	}
	return rec, true, nil
}

func (p *BoltPersister) SaveAll(records map[string]Record) error {
	type entry struct {
		bucket, key string
		value       []byte
	}
	entries := make([]entry, 0, len(records))
	for root, rec := range records {
		bucket, key, err := splitRoot(root)
		if err != nil {
			return err
		}
		plain, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshalling %s: %w", root, err)
		}
		entries = append(entries, entry{bucket: bucket, key: key, value: p.enc.EncodeAll(plain, nil)})
	}

	return p.db.Update(func(tx *bolt.Tx) error {
		for _, e := range entries {
			b, err := tx.CreateBucketIfNotExists([]byte(e.bucket))
			if err != nil {
				return err
			}
			if err := b.Put([]byte(e.key), e.value); err != nil {
				return fmt.Errorf("writing %s/%s: %w", e.bucket, e.key, err)
			}
		}
		return nil
	})
}

func (p *BoltPersister) Close() error {
	_ = p.enc.Close()
	p.dec.Close()
	return p.db.Close()
}

func splitRoot(root string) (string, string, error) {
	bucket, key, ok := strings.Cut(root, "/")
	if !ok || key == "" || strings.Contains(key, "/") {
		return "", "", fmt.Errorf("%w: %q is not a document root", remote.ErrInvalidPath, root)
	}
	return bucket, key, nil
}

// memoryPersister keeps records in memory; used when no bolt path is configured.
type memoryPersister struct {
	records map[string]Record
}

func NewMemoryPersister() Persister {
	return &memoryPersister{records: map[string]Record{}}
}

func (m *memoryPersister) Load(root string) (Record, bool, error) {
	rec, ok := m.records[root]
	if !ok {
		return Record{}, false, nil
	}
	rec.Doc = cloneDoc(rec.Doc)
	return rec, true, nil
}

func (m *memoryPersister) SaveAll(records map[string]Record) error {
	for root, rec := range records {
		rec.Doc = cloneDoc(rec.Doc)
		m.records[root] = rec
	}
	return nil
}

func (m *memoryPersister) Close() error {
	return nil
}
