package command

import (
	"errors"
	"fmt"
)

// Kind classifies a CommandError.
type Kind int

// Error kinds.
const (
	// KindDecode is an unrecognized or malformed payload.
	KindDecode Kind = iota
	// KindInvalid is a well formed command with unacceptable arguments.
	KindInvalid
	// KindDriver is a failure of the hardware driver.
	KindDriver
	// KindStorage is a failure of the credential store.
	KindStorage
)

var kindNames = map[Kind]string{
	KindDecode:  "decode",
	KindInvalid: "invalid",
	KindDriver:  "driver",
	KindStorage: "storage",
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	return kindNames[k]
}

var (
	// ErrDutyCycleRange indicates a duty cycle outside [0, 1].
	ErrDutyCycleRange = errors.New("duty cycle must be within [0, 1]")
	// ErrEmptySSID indicates SetWifi without ssid.
	ErrEmptySSID = errors.New("ssid required")
	// ErrShortPassword indicates a WPA2 password below 8 characters.
	ErrShortPassword = errors.New("password shorter than 8 characters")
	// ErrNoRestarter indicates Reset on a dispatcher unable to restart.
	ErrNoRestarter = errors.New("restart not supported")
)

// CommandError is a failed dispatch. It is always recoverable.
type CommandError struct {
	Kind    Kind
	ID      string
	Command string
	Err     error
}

// Error implements error.
func (e *CommandError) Error() string {
	if e.Command == "" {
		return fmt.Sprintf("command %s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("command %s %s error: %v", e.Command, e.Kind, e.Err)
}

// Unwrap returns the cause.
func (e *CommandError) Unwrap() error {
	return e.Err
}

// IsClientError indicates err was caused by the request rather than the
// device.
func IsClientError(err error) bool {
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		return false
	}
	return cmdErr.Kind == KindDecode || cmdErr.Kind == KindInvalid
}
