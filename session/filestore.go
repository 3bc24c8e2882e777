package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	walleterrors "github.com/nsid/wallet/internal/errors"
)

const storeFileName = "session.json"

// FileStore persists keys as a single flat JSON object on disk,
// standing in for the device keystore of the mobile app. Writes go
// through a temp file and rename so a crash mid-write never leaves a
// torn store behind.
type FileStore struct {
	path string

	mu     sync.RWMutex
	values map[string]string
}

var _ Store = (*FileStore)(nil)

// NewFileStore opens (or creates) the store under dir.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrap(err, "creating session store directory")
	}
	fs := &FileStore{path: filepath.Join(dir, storeFileName)}
	if err := fs.load(); err != nil {
		return nil, err
	}
	return fs, nil
}

func (fs *FileStore) load() error {
	data, err := os.ReadFile(fs.path)
	if os.IsNotExist(err) {
		fs.values = make(map[string]string)
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "reading session store")
	}
	values := make(map[string]string)
	if err := json.Unmarshal(data, &values); err != nil {
		return errors.Wrap(err, "decoding session store")
	}
	fs.values = values
	return nil
}

// Get implements Store.
func (fs *FileStore) Get(key string) (string, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	value, ok := fs.values[key]
	if !ok {
		return "", walleterrors.ErrKeyNotFound
	}
	return value, nil
}

// Put implements Store.
func (fs *FileStore) Put(key, value string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.values[key] = value
	return fs.flush()
}

// Delete implements Store.
func (fs *FileStore) Delete(key string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, ok := fs.values[key]; !ok {
		return nil
	}
	delete(fs.values, key)
	return fs.flush()
}

// Keys implements Store.
func (fs *FileStore) Keys() ([]string, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	keys := make([]string, 0, len(fs.values))
	for key := range fs.values {
		keys = append(keys, key)
	}
	return keys, nil
}

// Close implements Store.
func (fs *FileStore) Close() error {
	return nil
}

// flush writes the store to disk. Callers must hold the write lock.
func (fs *FileStore) flush() error {
	data, err := json.MarshalIndent(fs.values, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding session store")
	}
	tmp, err := os.CreateTemp(filepath.Dir(fs.path), storeFileName+".*")
	if err != nil {
		return errors.Wrap(err, "creating temp session store")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "writing session store")
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "setting session store permissions")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "closing temp session store")
	}
	if err := os.Rename(tmpName, fs.path); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "replacing session store")
	}
	return nil
}
