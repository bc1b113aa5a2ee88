package mqtt

import "errors"

var (
	// ErrTimeout indicates the broker did not complete a request in time.
	ErrTimeout = errors.New("mqtt: timeout")
	// ErrUnknownFormat indicates an unsupported state frame format.
	ErrUnknownFormat = errors.New("mqtt: unknown frame format")
)
