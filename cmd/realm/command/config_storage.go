package command

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-realm/internal/docstore"
	"github.com/pixil98/go-realm/internal/game"
	"github.com/pixil98/go-realm/internal/storage"
)

type StorageConfig struct {
	BoltPath   string                   `json:"bolt_path"`
	LedgerPath string                   `json:"ledger_path,omitempty"`
	Realms     AssetConfig[*game.Realm] `json:"realms"`
}

func (c *StorageConfig) validate() error {
	el := errors.NewErrorList()

	if c.BoltPath == "" {
		el.Add(fmt.Errorf("storage: bolt_path is required"))
	}
	el.Add(c.Realms.validate("realms"))

	return el.Err()
}

// openStore opens the persisted document store and, when configured, its audit
// ledger. The returned function closes both.
func (c *StorageConfig) openStore() (*docstore.Store, func(), error) {
	bolt, err := docstore.OpenBolt(c.BoltPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening bolt store: %w", err)
	}

	var opts []docstore.StoreOpt
	var ledger *docstore.Ledger
	if c.LedgerPath != "" {
		ledger, err = docstore.OpenLedger(c.LedgerPath)
		if err != nil {
			_ = bolt.Close()
			return nil, nil, fmt.Errorf("opening ledger: %w", err)
		}
		opts = append(opts, docstore.WithLedger(ledger))
	}

	closeAll := func() {
		if ledger != nil {
			if err := ledger.Close(); err != nil {
				slog.Error("closing ledger", "error", err)
			}
		}
		if err := bolt.Close(); err != nil {
			slog.Error("closing bolt store", "error", err)
		}
	}

	return docstore.NewStore(bolt, opts...), closeAll, nil
}

type AssetConfig[T storage.ValidatingSpec] struct {
	Path string `json:"path"`
}

func (c *AssetConfig[T]) validate(name string) error {
	if c.Path == "" {
		return fmt.Errorf("%s: path is required", name)
	}
	_, err := os.Stat(c.Path)
	if err != nil {
		return fmt.Errorf("%s: invalid path %q: %w", name, c.Path, err)
	}

	return nil
}

func (c *AssetConfig[T]) BuildFileStore() (*storage.FileStore[T], error) {
	return storage.NewFileStore[T](c.Path)
}
