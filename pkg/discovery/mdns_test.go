package discovery

import (
	"net"
	"testing"

	"github.com/hashicorp/mdns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService(t *testing.T) {
	a := &Advertiser{
		Port: 80,
		IPs:  []net.IP{net.IPv4(192, 168, 71, 1)},
		TXT:  []string{"board=esp32"},
	}
	svc, err := a.service()
	require.NoError(t, err)
	assert.Equal(t, "RRR web server", svc.Instance)
	assert.Equal(t, "_http._tcp", svc.Service)
	assert.Equal(t, "rrr.local.", svc.HostName)
	assert.Equal(t, 80, svc.Port)
	assert.Equal(t, []string{"board=esp32"}, svc.TXT)
}

func TestDeviceFromEntry(t *testing.T) {
	entry := &mdns.ServiceEntry{
		Name:       `RRR\ web\ server._http._tcp.local.`,
		Host:       "rrr.local.",
		AddrV4:     net.IPv4(192, 168, 1, 50),
		Port:       80,
		InfoFields: []string{"board=esp32", "junk"},
	}
	dev, ok := deviceFromEntry("_http._tcp", entry)
	require.True(t, ok)
	assert.Equal(t, "RRR web server", dev.Instance)
	assert.Equal(t, "rrr.local", dev.Host)
	assert.Equal(t, "http://192.168.1.50:80", dev.URL())
	assert.Equal(t, map[string]string{"board": "esp32"}, dev.TXT)

	_, ok = deviceFromEntry("_http._tcp", &mdns.ServiceEntry{Name: "printer._ipp._tcp.local."})
	assert.False(t, ok)
}
