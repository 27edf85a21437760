package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/pixil98/go-realm/internal/game"
	"github.com/pixil98/go-testutil"
)

func writeAsset(t *testing.T, path string, asset Asset[*game.Realm]) {
	t.Helper()
	data, err := json.Marshal(asset)
	if err != nil {
		t.Fatalf("failed to marshal test asset: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
}

func TestNewFileStore(t *testing.T) {
	tests := map[string]struct {
		setup    func(t *testing.T, dir string)
		expCount int
		expErr   string
	}{
		"empty directory": {
			setup: func(t *testing.T, dir string) {},
		},
		"loads assets in subdirectories": {
			setup: func(t *testing.T, dir string) {
				writeAsset(t, filepath.Join(dir, "nordmark.json"), Asset[*game.Realm]{Version: 1, ID: "nordmark", Spec: validRealm()})
				if err := os.Mkdir(filepath.Join(dir, "south"), 0755); err != nil {
					t.Fatalf("failed to create subdir: %v", err)
				}
				writeAsset(t, filepath.Join(dir, "south", "sudland.json"), Asset[*game.Realm]{Version: 1, ID: "sudland", Spec: validRealm()})
			},
			expCount: 2,
		},
		"ignores non json files": {
			setup: func(t *testing.T, dir string) {
				writeAsset(t, filepath.Join(dir, "nordmark.json"), Asset[*game.Realm]{Version: 1, ID: "nordmark", Spec: validRealm()})
				if err := os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("ignore me"), 0644); err != nil {
					t.Fatalf("failed to write test file: %v", err)
				}
			},
			expCount: 1,
		},
		"invalid json": {
			setup: func(t *testing.T, dir string) {
				if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{invalid json`), 0644); err != nil {
					t.Fatalf("failed to write test file: %v", err)
				}
			},
			expErr: "bad.json: unmarshalling asset",
		},
		"validation error": {
			setup: func(t *testing.T, dir string) {
				writeAsset(t, filepath.Join(dir, "test.json"), Asset[*game.Realm]{ID: "test", Spec: validRealm()})
			},
			expErr: "version must be set",
		},
		"duplicate id": {
			setup: func(t *testing.T, dir string) {
				writeAsset(t, filepath.Join(dir, "a.json"), Asset[*game.Realm]{Version: 1, ID: "nordmark", Spec: validRealm()})
				writeAsset(t, filepath.Join(dir, "b.json"), Asset[*game.Realm]{Version: 1, ID: "nordmark", Spec: validRealm()})
			},
			expErr: `duplicate id "nordmark"`,
		},
		"reports every broken file": {
			setup: func(t *testing.T, dir string) {
				if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`[`), 0644); err != nil {
					t.Fatalf("failed to write test file: %v", err)
				}
				writeAsset(t, filepath.Join(dir, "worse.json"), Asset[*game.Realm]{Version: 1, ID: "worse"})
			},
			expErr: "spec must be set",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			tt.setup(t, dir)

			store, err := NewFileStore[*game.Realm](dir)
			if tt.expErr != "" {
				testutil.AssertErrorContains(t, err, tt.expErr)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			testutil.AssertEqual(t, "record count", len(store.IDs()), tt.expCount)
		})
	}
}

func TestNewFileStore_NonExistentDirectory(t *testing.T) {
	_, err := NewFileStore[*game.Realm]("/nonexistent/path/that/does/not/exist")
	if err == nil {
		t.Error("expected error for non-existent directory")
	}
}

func TestFileStore_Get(t *testing.T) {
	dir := t.TempDir()
	writeAsset(t, filepath.Join(dir, "nordmark.json"), Asset[*game.Realm]{Version: 1, ID: "nordmark", Spec: validRealm()})

	store, err := NewFileStore[*game.Realm](dir)
	if err != nil {
		t.Fatalf("unexpected error creating store: %v", err)
	}

	tests := map[string]struct {
		id      string
		expOK   bool
		expName string
	}{
		"existing record": {
			id:      "nordmark",
			expOK:   true,
			expName: "Nordmark",
		},
		"missing record": {
			id: "sudland",
		},
		"empty id": {
			id: "",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			realm, ok := store.Get(tt.id)
			testutil.AssertEqual(t, "ok", ok, tt.expOK)
			if tt.expOK {
				testutil.AssertEqual(t, "name", realm.Name, tt.expName)
			}
		})
	}
}

func TestFileStore_Save(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore[*game.Realm](dir)
	if err != nil {
		t.Fatalf("unexpected error creating store: %v", err)
	}

	if err := store.Save("nordmark", validRealm()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated := validRealm()
	updated.Name = "Nordmark Reborn"
	if err := store.Save("nordmark", updated); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cached, ok := store.Get("nordmark")
	testutil.AssertEqual(t, "cached", ok, true)
	testutil.AssertEqual(t, "cached name", cached.Name, "Nordmark Reborn")

	reloaded, err := NewFileStore[*game.Realm](dir)
	if err != nil {
		t.Fatalf("unexpected error reloading: %v", err)
	}
	realm, ok := reloaded.Get("nordmark")
	testutil.AssertEqual(t, "reloaded", ok, true)
	testutil.AssertEqual(t, "reloaded name", realm.Name, "Nordmark Reborn")
	testutil.AssertEqual(t, "spawn", realm.Spawn, game.Position{X: 400, Y: 300})

	_, err = os.Stat(filepath.Join(dir, "nordmark.json.tmp"))
	testutil.AssertEqual(t, "temp file removed", os.IsNotExist(err), true)
}

func TestFileStore_SaveRejectsInvalid(t *testing.T) {
	store, err := NewFileStore[*game.Realm](t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error creating store: %v", err)
	}

	err = store.Save("bad id", validRealm())
	testutil.AssertErrorContains(t, err, "id must be alphanumeric")

	_, ok := store.Get("bad id")
	testutil.AssertEqual(t, "stored", ok, false)
}
