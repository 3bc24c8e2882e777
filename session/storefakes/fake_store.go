package storefakes

import (
	"sync"

	walleterrors "github.com/nsid/wallet/internal/errors"
	"github.com/nsid/wallet/session"
)

var _ session.Store = (*FakeStore)(nil)

// FakeStore is an in-memory session.Store for tests.
type FakeStore struct {
	lock   sync.RWMutex
	values map[string]string

	// PutErr, when set, is returned by every Put call.
	PutErr error
}

func NewFakeStore() *FakeStore {
	return &FakeStore{
		values: make(map[string]string),
	}
}

func (fs *FakeStore) Get(key string) (string, error) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	value, ok := fs.values[key]
	if !ok {
		return "", walleterrors.ErrKeyNotFound
	}
	return value, nil
}

func (fs *FakeStore) Put(key, value string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if fs.PutErr != nil {
		return fs.PutErr
	}
	fs.values[key] = value
	return nil
}

func (fs *FakeStore) Delete(key string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	delete(fs.values, key)
	return nil
}

func (fs *FakeStore) Keys() ([]string, error) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	keys := make([]string, 0, len(fs.values))
	for key := range fs.values {
		keys = append(keys, key)
	}
	return keys, nil
}

func (fs *FakeStore) Close() error {
	return nil
}

// Len reports the number of stored keys.
func (fs *FakeStore) Len() int {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	return len(fs.values)
}
