package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/rrr.go/pkg/api"
)

func TestParseColor(t *testing.T) {
	cmd, err := parseColor([]string{"255", "0x10", "0"})
	require.NoError(t, err)
	assert.Equal(t, api.SetLedColor{R: 255, G: 16}, cmd)

	for _, args := range [][]string{
		{"1", "2"},
		{"256", "0", "0"},
		{"a", "0", "0"},
		{"0", "0", "-1"},
	} {
		_, err := parseColor(args)
		assert.Error(t, err, "%v", args)
	}
}

func TestParseDutyCycle(t *testing.T) {
	cmd, err := parseDutyCycle([]string{"0.25"})
	require.NoError(t, err)
	assert.Equal(t, float32(0.25), cmd.DutyCycle)

	// range is checked by the device
	cmd, err = parseDutyCycle([]string{"2"})
	require.NoError(t, err)
	assert.Equal(t, float32(2), cmd.DutyCycle)

	_, err = parseDutyCycle(nil)
	assert.Error(t, err)
	_, err = parseDutyCycle([]string{"half"})
	assert.Error(t, err)
}

func TestParseWifi(t *testing.T) {
	cmd, err := parseWifi([]string{"net1", "pw123456"})
	require.NoError(t, err)
	assert.Equal(t, api.SetWifi{SSID: "net1", Password: "pw123456"}, cmd)

	cmd, err = parseWifi([]string{"open"})
	require.NoError(t, err)
	assert.Empty(t, cmd.Password)

	_, err = parseWifi(nil)
	assert.Error(t, err)
}
