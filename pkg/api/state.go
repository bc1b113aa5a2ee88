package api

import (
	"encoding/json"
	"fmt"
)

// State is the snapshot of everything the device reports.
type State struct {
	Battery   BatteryState                `json:"battery"`
	Pyro      PyroState                   `json:"pyro"`
	WifiState WifiConnectionConfiguration `json:"wifi_state"`
}

// BatteryState is reported by the battery gauge.
// SOC is conventionally a fraction of 1.0.
type BatteryState struct {
	SOC        float32 `json:"soc"`
	Voltage    float32 `json:"voltage"`
	ChargeRate float32 `json:"charge_rate"`
	// Stale is set when the latest read failed; values are from the last
	// successful read.
	Stale bool   `json:"stale"`
	Error string `json:"error,omitempty"`
}

// PyroChannelState is the state of a single igniter channel.
type PyroChannelState struct {
	Fire        bool    `json:"fire"`
	TestVoltage float32 `json:"test_voltage"`
	Stale       bool    `json:"stale"`
	Error       string  `json:"error,omitempty"`
}

// PyroContinuityVoltage is the test voltage above which an igniter is
// considered connected.
const PyroContinuityVoltage float32 = 1.0

// Status describes the channel for display.
func (s PyroChannelState) Status() string {
	switch {
	case s.Fire:
		return "active!!!"
	case s.TestVoltage > PyroContinuityVoltage:
		return "connected"
	default:
		return "not connected"
	}
}

// PyroChannel identifies one of the pyro channels.
type PyroChannel int

// Pyro channels.
const (
	PyroChannel1 PyroChannel = iota + 1
	PyroChannel2
)

// PyroChannels lists all channels.
var PyroChannels = []PyroChannel{PyroChannel1, PyroChannel2}

// IsValid indicates the channel exists.
func (c PyroChannel) IsValid() bool {
	return c == PyroChannel1 || c == PyroChannel2
}

// String implements fmt.Stringer.
func (c PyroChannel) String() string {
	return fmt.Sprintf("pyro%d", int(c))
}

// PyroState holds both channels.
type PyroState struct {
	Channel1 PyroChannelState `json:"channel1"`
	Channel2 PyroChannelState `json:"channel2"`
}

// Channel returns the state of ch. It panics on an invalid channel.
func (s *PyroState) Channel(ch PyroChannel) *PyroChannelState {
	switch ch {
	case PyroChannel1:
		return &s.Channel1
	case PyroChannel2:
		return &s.Channel2
	}
	panic(fmt.Sprintf("invalid pyro channel %d", int(ch)))
}

// WifiCredentials is the station ssid/password pair.
type WifiCredentials struct {
	SSID     string `json:"ssid"`
	Password string `json:"password"`
}

// IsEmpty indicates no ssid is set.
func (c WifiCredentials) IsEmpty() bool {
	return c.SSID == ""
}

// WifiConnectionConfiguration describes how the device is on the network.
type WifiConnectionConfiguration struct {
	ConnectionType ConnectionType  `json:"connection_type"`
	Credentials    WifiCredentials `json:"credentials"`
}

// ConnectionType is the outcome of network bring-up.
type ConnectionType int

// Connection types. The zero value is AccessPointActive.
const (
	AccessPointActive ConnectionType = iota
	ClientConnected
)

var connectionTypeNames = map[ConnectionType]string{
	AccessPointActive: "AccessPointActive",
	ClientConnected:   "ClientConnected",
}

// String implements fmt.Stringer.
func (t ConnectionType) String() string {
	if name, ok := connectionTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ConnectionType(%d)", int(t))
}

// MarshalJSON implements json.Marshaler.
func (t ConnectionType) MarshalJSON() ([]byte, error) {
	name, ok := connectionTypeNames[t]
	if !ok {
		return nil, fmt.Errorf("invalid connection type %d", int(t))
	}
	return json.Marshal(name)
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *ConnectionType) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for typ, n := range connectionTypeNames {
		if n == name {
			*t = typ
			return nil
		}
	}
	return fmt.Errorf("unknown connection type %q", name)
}
