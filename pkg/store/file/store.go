// Package file provides the filesystem store adapter. Records live at
// <base>/<collection>/<id>.json and are written atomically: data goes to a
// temp file in the same directory, is fsynced, and then renamed into place,
// so a crash never leaves a partial record behind.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/weavehq/loom/pkg/store"
)

// Store implements store.Store on the local filesystem.
type Store struct {
	base string
}

// New creates a store rooted at basePath. An empty basePath defaults to
// ".loom/store" relative to the working directory.
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".loom", "store")
	}
	return &Store{base: basePath}
}

func (s *Store) recordPath(collection, id string) string {
	return filepath.Join(s.base, collection, id+".json")
}

// Put stores value under (collection, id), replacing any existing record.
func (s *Store) Put(ctx context.Context, collection, id string, value []byte) error {
	if err := store.ValidateKey("collection", collection); err != nil {
		return err
	}
	if err := store.ValidateKey("id", id); err != nil {
		return err
	}

	dir := filepath.Join(s.base, collection)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating collection directory: %w", err)
	}

	// Same directory as the destination so the rename stays on one
	// filesystem.
	tmp, err := os.CreateTemp(dir, "tmp-"+id+"-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(value); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.recordPath(collection, id)); err != nil {
		return fmt.Errorf("replacing record: %w", err)
	}
	return nil
}

// Get returns the record stored under (collection, id).
func (s *Store) Get(ctx context.Context, collection, id string) ([]byte, error) {
	if err := store.ValidateKey("collection", collection); err != nil {
		return nil, err
	}
	if err := store.ValidateKey("id", id); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.recordPath(collection, id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s/%s: %w", collection, id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("reading record: %w", err)
	}
	return data, nil
}

// Delete removes (collection, id). Absent records are ignored.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := store.ValidateKey("collection", collection); err != nil {
		return err
	}
	if err := store.ValidateKey("id", id); err != nil {
		return err
	}

	if err := os.Remove(s.recordPath(collection, id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting record: %w", err)
	}
	return nil
}

// List returns the ids in a collection, ascending. Stray files that are not
// .json records are ignored, as are the temp files of in-flight writes.
func (s *Store) List(ctx context.Context, collection string) ([]string, error) {
	if err := store.ValidateKey("collection", collection); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(filepath.Join(s.base, collection))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing collection: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, "tmp-") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	return ids, nil
}

// Close is a no-op; the adapter holds no open resources between calls.
func (s *Store) Close() error {
	return nil
}
