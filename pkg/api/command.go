package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Command is a request to change the device. The set of commands is closed:
// only the types declared in this package implement it.
type Command interface {
	// Name is the wire tag of the command.
	Name() string

	command()
}

// Reset restarts the device.
type Reset struct{}

// SetWifi stores station credentials used on the next network bring-up.
type SetWifi struct {
	SSID     string `json:"ssid"`
	Password string `json:"password"`
}

// ResetNvs erases stored credentials.
type ResetNvs struct{}

// SetLedColor drives the indicator. Each channel is an independent intensity.
type SetLedColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// SetPwmDutyCycle sets the actuation duty cycle as a fraction of the period.
type SetPwmDutyCycle struct {
	DutyCycle float32 `json:"duty_cycle"`
}

// Name implements Command.
func (Reset) Name() string { return "Reset" }

// Name implements Command.
func (SetWifi) Name() string { return "SetWifi" }

// Name implements Command.
func (ResetNvs) Name() string { return "ResetNvs" }

// Name implements Command.
func (SetLedColor) Name() string { return "SetLedColor" }

// Name implements Command.
func (SetPwmDutyCycle) Name() string { return "SetPwmDutyCycle" }

func (Reset) command()           {}
func (SetWifi) command()         {}
func (ResetNvs) command()        {}
func (SetLedColor) command()     {}
func (SetPwmDutyCycle) command() {}

type commandType struct {
	unit bool
	// fields lists the exact json names of the payload, all required.
	fields []string
	new    func() Command
}

var commandTypes = map[string]commandType{
	"Reset":    {unit: true, new: func() Command { return Reset{} }},
	"ResetNvs": {unit: true, new: func() Command { return ResetNvs{} }},
	"SetWifi": {
		fields: []string{"ssid", "password"},
		new:    func() Command { return &SetWifi{} },
	},
	"SetLedColor": {
		fields: []string{"r", "g", "b"},
		new:    func() Command { return &SetLedColor{} },
	},
	"SetPwmDutyCycle": {
		fields: []string{"duty_cycle"},
		new:    func() Command { return &SetPwmDutyCycle{} },
	},
}

// CommandNames lists all command tags in sorted order.
func CommandNames() []string {
	names := make([]string, 0, len(commandTypes))
	for name := range commandTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EncodeCommand encodes a command in its externally tagged form: unit
// commands as a bare string, others as a single-key object.
func EncodeCommand(cmd Command) ([]byte, error) {
	typ, ok := commandTypes[cmd.Name()]
	if !ok {
		return nil, &ErrUnknownCommand{Tag: cmd.Name()}
	}
	if typ.unit {
		return json.Marshal(cmd.Name())
	}
	return json.Marshal(map[string]Command{cmd.Name(): cmd})
}

// DecodeCommand decodes a command. Unknown tags, unknown or missing fields
// and out-of-range values are rejected.
func DecodeCommand(data []byte) (Command, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrMalformedCommand)
	}
	if data[0] == '"' {
		var tag string
		if err := json.Unmarshal(data, &tag); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedCommand, err)
		}
		typ, ok := commandTypes[tag]
		if !ok {
			return nil, &ErrUnknownCommand{Tag: tag}
		}
		if !typ.unit {
			return nil, fmt.Errorf("%w: %s requires a payload", ErrMalformedCommand, tag)
		}
		return typ.new(), nil
	}

	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCommand, err)
	}
	if len(tagged) != 1 {
		return nil, fmt.Errorf("%w: expect exactly one tag, got %d", ErrMalformedCommand, len(tagged))
	}
	for tag, payload := range tagged {
		typ, ok := commandTypes[tag]
		if !ok {
			return nil, &ErrUnknownCommand{Tag: tag}
		}
		if typ.unit {
			if !bytes.Equal(bytes.TrimSpace(payload), []byte("null")) {
				return nil, fmt.Errorf("%w: %s takes no payload", ErrMalformedCommand, tag)
			}
			return typ.new(), nil
		}
		cmd := typ.new()
		if err := decodeFields(payload, cmd, typ.fields); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedCommand, tag, err)
		}
		return deref(cmd), nil
	}
	panic("unreachable")
}

// decodeFields decodes payload into v. encoding/json matches keys case
// insensitively, so keys are checked for exact names first.
func decodeFields(payload json.RawMessage, v interface{}, names []string) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return err
	}
	if fields == nil {
		return fmt.Errorf("payload must be an object")
	}
	known := make(map[string]bool, len(names))
	for _, name := range names {
		if _, ok := fields[name]; !ok {
			return fmt.Errorf("missing field %q", name)
		}
		known[name] = true
	}
	for key := range fields {
		if !known[key] {
			return fmt.Errorf("unknown field %q", key)
		}
	}
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// deref turns decoded pointers back into the value types callers switch on.
func deref(cmd Command) Command {
	switch c := cmd.(type) {
	case *SetWifi:
		return *c
	case *SetLedColor:
		return *c
	case *SetPwmDutyCycle:
		return *c
	}
	return cmd
}

// CommandResult reports the outcome of one dispatched command.
type CommandResult struct {
	ID      string `json:"id"`
	Command string `json:"command,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OK indicates the command succeeded.
func (r CommandResult) OK() bool {
	return r.Error == ""
}
