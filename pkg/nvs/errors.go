package nvs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the key is not stored.
	ErrNotFound = errors.New("not found")
	// ErrUninitialized indicates the medium is not prepared for use.
	ErrUninitialized = errors.New("storage uninitialized")
	// ErrCorrupt indicates the medium content can not be decoded.
	ErrCorrupt = errors.New("storage corrupt")
	// ErrNoSpace indicates the write exceeds the medium capacity.
	ErrNoSpace = errors.New("no space left")
)

// StorageError reports a failed operation on the medium.
type StorageError struct {
	Op  string
	Key string
	Err error
}

// Error implements error.
func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("nvs %s %q: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("nvs %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsNotFound indicates err reports a missing key.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
