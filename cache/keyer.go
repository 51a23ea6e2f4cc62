package cache

import (
	"fmt"

	"github.com/google/uuid"
)

// Keyer generates keys for newly stored values.
//
// Contract:
// - Uniqueness: every call must return a key not returned before; collisions
// overwrite earlier values.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	Key() (string, error)
}

// KeyerFunc adapts a function to the Keyer interface.
type KeyerFunc func() (string, error)

// Key calls f.
func (f KeyerFunc) Key() (string, error) {
	return f()
}

// UUIDKeyer generates random (version 4) UUID keys.
type UUIDKeyer struct{}

// NewUUIDKeyer creates a UUID keyer.
func NewUUIDKeyer() *UUIDKeyer {
	return &UUIDKeyer{}
}

// Key returns a new random UUID in canonical 36-character form.
func (k *UUIDKeyer) Key() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("cache: generate key: %w", err)
	}
	return id.String(), nil
}

var (
	_ Keyer = (*UUIDKeyer)(nil)
	_ Keyer = KeyerFunc(nil)
)
