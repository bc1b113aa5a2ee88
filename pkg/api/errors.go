package api

import (
	"errors"
	"fmt"
)

// ErrMalformedCommand indicates the payload is not a valid command encoding.
var ErrMalformedCommand = errors.New("malformed command")

// ErrUnknownCommand indicates the command tag is not recognized.
type ErrUnknownCommand struct {
	Tag string
}

// Error implements error.
func (e *ErrUnknownCommand) Error() string {
	return fmt.Sprintf("unknown command: %q", e.Tag)
}
