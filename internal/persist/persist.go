// Package persist is the durable client-side storage boundary. Each key maps
// to one JSON file under a config directory, mirroring the fixed storage keys
// the browser front-end used.
package persist

import (
	"errors"
	"os"
	"path/filepath"
)

// Fixed storage keys shared by the session and demand stores.
const (
	SessionKey = "user-storage"
	DemandKey  = "demand-storage"
)

// ErrNotFound is returned when a key has never been saved.
var ErrNotFound = errors.New("persist: key not found")

// FileStore reads and writes keyed JSON blobs under a single directory.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

// DefaultDir resolves the per-user config directory.
func DefaultDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "iserve")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "iserve")
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *FileStore) Load(key string) ([]byte, error) {
	b, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (s *FileStore) Save(key string, data []byte) error {
	return os.WriteFile(s.path(key), data, 0o600)
}

// Delete removes a key. Deleting a missing key is a no-op.
func (s *FileStore) Delete(key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
