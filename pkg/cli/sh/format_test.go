package sh

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/robotalks/rrr.go/pkg/api"
	"github.com/robotalks/rrr.go/pkg/discovery"
)

func TestFormatState(t *testing.T) {
	var st api.State
	st.Battery = api.BatteryState{SOC: 0.5, Voltage: 3.7, ChargeRate: -2, Stale: true, Error: "i2c"}
	st.Pyro.Channel1.TestVoltage = 2.5
	st.Pyro.Channel2.Fire = true
	st.WifiState.ConnectionType = api.ClientConnected
	st.WifiState.Credentials.SSID = "net1"
	assert.Equal(t,
		"battery: soc 0.50, 3.70V, rate -2.00%/h (stale: i2c)\n"+
			"pyro1: connected, 2.50\n"+
			"pyro2: active!!!, 0.00\n"+
			`wifi: ClientConnected "net1"`,
		FormatState(st))
}

func TestFormatDevice(t *testing.T) {
	dev := discovery.Device{
		Instance: "RRR web server",
		Addr:     net.IPv4(192, 168, 4, 1),
		Port:     80,
		TXT:      map[string]string{"id": "abc", "board": "sim"},
	}
	assert.Equal(t, "RRR web server: http://192.168.4.1:80 board=sim id=abc", FormatDevice(dev))
	assert.Equal(t, FormatDevice(dev)+"\n"+FormatDevice(dev), FormatDevices([]discovery.Device{dev, dev}))
}
