package sh

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/robotalks/rrr.go/pkg/api"
	"github.com/robotalks/rrr.go/pkg/discovery"
)

// FormatDevice prints a discovered device for display.
func FormatDevice(dev discovery.Device) string {
	var w bytes.Buffer
	fmt.Fprintf(&w, "%s: %s", dev.Instance, dev.URL())
	keys := make([]string, 0, len(dev.TXT))
	for k := range dev.TXT {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&w, " %s=%s", k, dev.TXT[k])
	}
	return w.String()
}

// FormatDevices prints one device per line.
func FormatDevices(devices []discovery.Device) string {
	var w bytes.Buffer
	for n, dev := range devices {
		if n > 0 {
			w.WriteByte('\n')
		}
		w.WriteString(FormatDevice(dev))
	}
	return w.String()
}

// FormatState prints State into friendly lines for display.
func FormatState(st api.State) string {
	var w bytes.Buffer
	b := st.Battery
	fmt.Fprintf(&w, "battery: soc %.2f, %.2fV, rate %.2f%%/h", b.SOC, b.Voltage, b.ChargeRate)
	if b.Stale {
		fmt.Fprintf(&w, " (stale: %s)", b.Error)
	}
	for _, ch := range api.PyroChannels {
		p := st.Pyro.Channel(ch)
		fmt.Fprintf(&w, "\n%s: %s, %.2f", ch, p.Status(), p.TestVoltage)
		if p.Stale {
			fmt.Fprintf(&w, " (stale: %s)", p.Error)
		}
	}
	wifi := st.WifiState
	fmt.Fprintf(&w, "\nwifi: %s", wifi.ConnectionType)
	if !wifi.Credentials.IsEmpty() {
		fmt.Fprintf(&w, " %q", wifi.Credentials.SSID)
	}
	return w.String()
}
