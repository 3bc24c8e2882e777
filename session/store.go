package session

// Store is the flat key-value store holding on-device session state.
// Values are independent strings; there is no relational structure and
// no transactional guarantee across keys.
type Store interface {
	// Get retrieves the value for a key. Returns errors.ErrKeyNotFound
	// when the key has never been written or has been deleted.
	Get(key string) (string, error)

	// Put creates or replaces the value for a key
	Put(key, value string) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(key string) error

	// Keys returns all keys currently present
	Keys() ([]string, error)

	// Close releases any resources held by the store
	Close() error
}
