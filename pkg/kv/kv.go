package kv

// Snapshot is the complete key-value mapping persisted at a point in time.
type Snapshot map[string]string

// Store defines the caller-facing surface of the key-value store.
// Implementations can be swapped out, allowing the file-backed store
// to be reached directly or through a remote client.
type Store interface {
	// Get retrieves the value associated with the given key.
	// A missing key is reported as found == false, not as an error.
	Get(key string) (value string, found bool, err error)

	// Put stores a key-value pair, overwriting any previous value.
	Put(key, value string) error

	// Path returns the location of the persisted file.
	Path() string
}
