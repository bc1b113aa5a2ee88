package connectivity

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCredentials indicates no station credential is stored.
	ErrNoCredentials = errors.New("no stored credentials")
	// ErrWeakPassphrase indicates an access point passphrase below the
	// platform minimum.
	ErrWeakPassphrase = errors.New("access point passphrase shorter than 8 characters")
)

// NetworkError is a failed radio operation. Fatal is set when no fallback
// remains.
type NetworkError struct {
	Op    string
	Err   error
	Fatal bool
}

// Error implements error.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("network %s: %v", e.Op, e.Err)
}

// Unwrap returns the radio error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsFatal indicates err is a fatal NetworkError.
func IsFatal(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr) && netErr.Fatal
}
