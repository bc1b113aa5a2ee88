package api

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCommand(t *testing.T) {
	testCases := []struct {
		name    string
		payload string
		cmd     Command
	}{
		{"unit as string", `"Reset"`, Reset{}},
		{"unit as object", `{"ResetNvs":null}`, ResetNvs{}},
		{"led", `{"SetLedColor":{"r":0,"g":20,"b":0}}`, SetLedColor{R: 0, G: 20, B: 0}},
		{"wifi", `{"SetWifi":{"ssid":"net2","password":"abcdefgh"}}`, SetWifi{SSID: "net2", Password: "abcdefgh"}},
		{"pwm", ` {"SetPwmDutyCycle":{"duty_cycle":0.25}} `, SetPwmDutyCycle{DutyCycle: 0.25}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cmd, err := DecodeCommand([]byte(tc.payload))
			require.NoError(t, err)
			assert.Equal(t, tc.cmd, cmd)
		})
	}
}

func TestDecodeCommandRejects(t *testing.T) {
	testCases := []struct {
		name    string
		payload string
		unknown bool
	}{
		{"empty", ``, false},
		{"not json", `SetLedColor`, false},
		{"unknown unit", `"Launch"`, true},
		{"unknown tagged", `{"Launch":{"t":3}}`, true},
		{"two tags", `{"Reset":null,"ResetNvs":null}`, false},
		{"no tags", `{}`, false},
		{"unit with payload", `{"Reset":{"now":true}}`, false},
		{"struct as string", `"SetWifi"`, false},
		{"struct with null", `{"SetWifi":null}`, false},
		{"missing field", `{"SetLedColor":{"r":1,"g":2}}`, false},
		{"unknown field", `{"SetLedColor":{"r":1,"g":2,"b":3,"w":4}}`, false},
		{"field case", `{"SetLedColor":{"r":1,"g":2,"b":3,"R":200}}`, false},
		{"field case only", `{"SetPwmDutyCycle":{"Duty_Cycle":0.5}}`, false},
		{"field case override", `{"SetWifi":{"ssid":"a","SSID":"evil","password":"abcdefgh"}}`, false},
		{"out of range", `{"SetLedColor":{"r":256,"g":2,"b":3}}`, false},
		{"negative", `{"SetLedColor":{"r":-1,"g":2,"b":3}}`, false},
		{"wrong type", `{"SetPwmDutyCycle":{"duty_cycle":"half"}}`, false},
		{"array", `["Reset"]`, false},
		{"trailing", `"Reset" "Reset"`, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cmd, err := DecodeCommand([]byte(tc.payload))
			require.Error(t, err)
			assert.Nil(t, cmd)
			var unknown *ErrUnknownCommand
			if tc.unknown {
				assert.True(t, errors.As(err, &unknown), "expect ErrUnknownCommand, got %v", err)
			} else {
				assert.True(t, errors.Is(err, ErrMalformedCommand), "expect ErrMalformedCommand, got %v", err)
			}
		})
	}
}

func TestEncodeCommand(t *testing.T) {
	out, err := EncodeCommand(Reset{})
	require.NoError(t, err)
	assert.Equal(t, `"Reset"`, string(out))

	out, err = EncodeCommand(SetLedColor{G: 20})
	require.NoError(t, err)
	assert.JSONEq(t, `{"SetLedColor":{"r":0,"g":20,"b":0}}`, string(out))

	for _, cmd := range []Command{ResetNvs{}, SetWifi{SSID: "a", Password: "b"}, SetPwmDutyCycle{DutyCycle: 1}} {
		out, err = EncodeCommand(cmd)
		require.NoError(t, err)
		decoded, err := DecodeCommand(out)
		require.NoError(t, err)
		assert.Equal(t, cmd, decoded)
	}
}

func TestCommandNames(t *testing.T) {
	assert.Equal(t, []string{"Reset", "ResetNvs", "SetLedColor", "SetPwmDutyCycle", "SetWifi"}, CommandNames())
}

func TestStateJSON(t *testing.T) {
	var s State
	out, err := json.Marshal(&s)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"battery": {"soc": 0, "voltage": 0, "charge_rate": 0, "stale": false},
		"pyro": {
			"channel1": {"fire": false, "test_voltage": 0, "stale": false},
			"channel2": {"fire": false, "test_voltage": 0, "stale": false}
		},
		"wifi_state": {
			"connection_type": "AccessPointActive",
			"credentials": {"ssid": "", "password": ""}
		}
	}`, string(out))

	s.WifiState.ConnectionType = ClientConnected
	out, err = json.Marshal(&s)
	require.NoError(t, err)
	var decoded State
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, ClientConnected, decoded.WifiState.ConnectionType)

	assert.Error(t, json.Unmarshal([]byte(`"Mesh"`), &decoded.WifiState.ConnectionType))
}

func TestPyroStatus(t *testing.T) {
	assert.Equal(t, "active!!!", PyroChannelState{Fire: true}.Status())
	assert.Equal(t, "connected", PyroChannelState{TestVoltage: 3.3}.Status())
	assert.Equal(t, "not connected", PyroChannelState{TestVoltage: 0.5}.Status())
}
