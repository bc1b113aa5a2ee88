package sysfs

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"sync"
	"time"

	"github.com/robotalks/rrr.go/pkg/hal"
)

// NetClass is where the kernel exposes network interfaces.
const NetClass = "/sys/class/net"

var (
	// ErrLinkDown indicates the interface has no carrier.
	ErrLinkDown = errors.New("link down")
	// ErrNoAccessPoint indicates the host does not host access points.
	ErrNoAccessPoint = errors.New("access point mode not supported on host network")
)

// Netdev uses a host interface already managed by the OS as the radio.
// Association is left to the OS; Connect only checks the link.
type Netdev struct {
	Interface    string
	PollInterval time.Duration

	linkDown chan struct{}
	lock     sync.Mutex
}

// NewNetdev creates a Netdev on the named interface.
func NewNetdev(iface string) *Netdev {
	return &Netdev{Interface: iface, PollInterval: time.Second}
}

func (n *Netdev) up() bool {
	state, err := readAttr(filepath.Join(NetClass, n.Interface), "operstate")
	return err == nil && state == "up"
}

// ConfigureClient implements hal.Radio. The host owns the interface, the
// credentials are not applied.
func (n *Netdev) ConfigureClient(ssid, password string) error {
	return nil
}

// ConfigureAccessPoint implements hal.Radio. It always fails: a host
// managed interface cannot be switched to access point mode.
func (n *Netdev) ConfigureAccessPoint(ssid, password string, channel int) error {
	return ErrNoAccessPoint
}

// Start implements hal.Radio.
func (n *Netdev) Start(ctx context.Context) error {
	_, err := net.InterfaceByName(n.Interface)
	return err
}

// Connect implements hal.Radio.
func (n *Netdev) Connect(ctx context.Context) error {
	if !n.up() {
		return ErrLinkDown
	}
	n.lock.Lock()
	n.linkDown = make(chan struct{})
	ch := n.linkDown
	n.lock.Unlock()
	go n.watch(ch)
	return nil
}

func (n *Netdev) watch(ch chan struct{}) {
	for n.up() {
		time.Sleep(n.PollInterval)
	}
	close(ch)
}

// LinkDown implements hal.LinkMonitor.
func (n *Netdev) LinkDown() <-chan struct{} {
	n.lock.Lock()
	defer n.lock.Unlock()
	return n.linkDown
}

// WaitForAddress implements hal.Radio.
func (n *Netdev) WaitForAddress(ctx context.Context) (hal.AddressInfo, error) {
	ticker := time.NewTicker(n.PollInterval)
	defer ticker.Stop()
	for {
		iface, err := net.InterfaceByName(n.Interface)
		if err != nil {
			return hal.AddressInfo{}, err
		}
		addrs, err := iface.Addrs()
		if err != nil {
			return hal.AddressInfo{}, err
		}
		for _, addr := range addrs {
			if ipNet, ok := addr.(*net.IPNet); ok && ipNet.IP.To4() != nil {
				return hal.AddressInfo{IP: ipNet.IP, Netmask: ipNet.Mask}, nil
			}
		}
		select {
		case <-ctx.Done():
			return hal.AddressInfo{}, ctx.Err()
		case <-ticker.C:
		}
	}
}
