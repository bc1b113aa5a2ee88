// Package discovery advertises the device on the local network with mDNS
// and finds advertised devices.
package discovery

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/hashicorp/mdns"
)

// Defaults of the advertisement.
const (
	DefaultHostname = "rrr"
	DefaultInstance = "RRR web server"
	DefaultService  = "_http._tcp"
	Domain          = "local"
)

// Advertiser publishes the HTTP service of the device.
type Advertiser struct {
	Hostname string
	Instance string
	Service  string
	Port     int
	// IPs advertised for the host, all non-loopback interface addresses
	// when empty.
	IPs []net.IP
	TXT []string
}

// Name implements framework.Named.
func (a *Advertiser) Name() string {
	return "mdns"
}

func (a *Advertiser) service() (*mdns.MDNSService, error) {
	hostname, instance, service := a.Hostname, a.Instance, a.Service
	if hostname == "" {
		hostname = DefaultHostname
	}
	if instance == "" {
		instance = DefaultInstance
	}
	if service == "" {
		service = DefaultService
	}
	ips := a.IPs
	if len(ips) == 0 {
		var err error
		if ips, err = LocalIPs(); err != nil {
			return nil, err
		}
	}
	return mdns.NewMDNSService(instance, service, Domain+".", hostname+"."+Domain+".", a.Port, ips, a.TXT)
}

// Run implements framework.Runnable.
func (a *Advertiser) Run(ctx context.Context) error {
	svc, err := a.service()
	if err != nil {
		return fmt.Errorf("mdns service: %v", err)
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: svc})
	if err != nil {
		return fmt.Errorf("mdns server: %v", err)
	}
	glog.Infof("mDNS advertising %q %s on %s:%d", svc.Instance, svc.Service, svc.HostName, svc.Port)
	<-ctx.Done()
	server.Shutdown()
	return ctx.Err()
}

// LocalIPs lists the non-loopback unicast addresses of the host.
func LocalIPs() ([]net.IP, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, err
	}
	var ips []net.IP
	for _, addr := range addrs {
		if ipNet, ok := addr.(*net.IPNet); ok && ipNet.IP.IsGlobalUnicast() {
			ips = append(ips, ipNet.IP)
		}
	}
	return ips, nil
}

// Device is a discovered device.
type Device struct {
	Instance string
	Host     string
	Addr     net.IP
	Port     int
	TXT      map[string]string
}

// URL returns the HTTP base URL of the device.
func (d Device) URL() string {
	return "http://" + net.JoinHostPort(d.Addr.String(), fmt.Sprint(d.Port))
}

// Browse queries the network for devices advertising service until timeout.
func Browse(ctx context.Context, service string, timeout time.Duration) ([]Device, error) {
	if service == "" {
		service = DefaultService
	}
	entries := make(chan *mdns.ServiceEntry, 16)
	var devices []Device
	done := make(chan struct{})
	go func() {
		defer close(done)
		seen := make(map[string]bool)
		for entry := range entries {
			dev, ok := deviceFromEntry(service, entry)
			if key := dev.URL(); ok && !seen[key] {
				seen[key] = true
				devices = append(devices, dev)
			}
		}
	}()
	err := mdns.Query(&mdns.QueryParam{
		Service:     service,
		Domain:      Domain,
		Timeout:     timeout,
		Entries:     entries,
		DisableIPv6: true,
	})
	close(entries)
	<-done
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return devices, err
}

func deviceFromEntry(service string, entry *mdns.ServiceEntry) (Device, bool) {
	parts := strings.SplitN(entry.Name, "."+service, 2)
	if len(parts) < 2 || entry.AddrV4 == nil {
		return Device{}, false
	}
	dev := Device{
		Instance: unescape(parts[0]),
		Host:     strings.TrimSuffix(entry.Host, "."),
		Addr:     entry.AddrV4,
		Port:     entry.Port,
		TXT:      make(map[string]string),
	}
	for _, field := range entry.InfoFields {
		if pos := strings.Index(field, "="); pos > 0 {
			dev.TXT[field[:pos]] = field[pos+1:]
		}
	}
	return dev, true
}

func unescape(name string) string {
	name = strings.Replace(name, `\.`, ".", -1)
	return strings.Replace(name, `\ `, " ", -1)
}
