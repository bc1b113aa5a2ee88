package sim

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/rrr.go/pkg/hal"
)

// Radio errors.
var (
	ErrNotStarted     = errors.New("radio not started")
	ErrNotConfigured  = errors.New("radio not configured")
	ErrNoNetwork      = errors.New("network not found")
	ErrAuthFailed     = errors.New("authentication failed")
	ErrWeakPassphrase = errors.New("passphrase shorter than 8 characters")
)

// MinPassphraseLen is the shortest WPA2 passphrase accepted.
const MinPassphraseLen = 8

// Default addresses handed out by the simulated radio.
var (
	DefaultAccessPointAddr = hal.AddressInfo{
		IP:      net.IPv4(192, 168, 71, 1),
		Netmask: net.CIDRMask(24, 32),
	}
	DefaultClientAddr = hal.AddressInfo{
		IP:      net.IPv4(192, 168, 1, 50),
		Netmask: net.CIDRMask(24, 32),
		Gateway: net.IPv4(192, 168, 1, 1),
	}
)

type radioMode int

const (
	modeNone radioMode = iota
	modeClient
	modeAccessPoint
)

// Radio simulates a radio with a table of reachable networks.
type Radio struct {
	// Networks maps reachable ssids to their passwords.
	Networks        map[string]string
	ConnectDelay    time.Duration
	AddressDelay    time.Duration
	ClientAddr      hal.AddressInfo
	AccessPointAddr hal.AddressInfo
	// AccessPointErr is returned by ConfigureAccessPoint when set.
	AccessPointErr error

	mode      radioMode
	ssid      string
	password  string
	started   bool
	connected bool
	linkDown  chan struct{}
	attempts  int
	lock      sync.Mutex
}

// NewRadio creates a Radio reaching networks.
func NewRadio(networks map[string]string) *Radio {
	if networks == nil {
		networks = make(map[string]string)
	}
	return &Radio{
		Networks:        networks,
		ClientAddr:      DefaultClientAddr,
		AccessPointAddr: DefaultAccessPointAddr,
	}
}

// ConfigureClient implements hal.Radio.
func (r *Radio) ConfigureClient(ssid, password string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.reset()
	r.mode, r.ssid, r.password = modeClient, ssid, password
	return nil
}

// ConfigureAccessPoint implements hal.Radio.
func (r *Radio) ConfigureAccessPoint(ssid, password string, channel int) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.AccessPointErr != nil {
		return r.AccessPointErr
	}
	if len(password) < MinPassphraseLen {
		return ErrWeakPassphrase
	}
	if channel < 1 || channel > 13 {
		return fmt.Errorf("invalid channel %d", channel)
	}
	r.reset()
	r.mode, r.ssid, r.password = modeAccessPoint, ssid, password
	return nil
}

func (r *Radio) reset() {
	r.started = false
	if r.connected {
		r.connected = false
		close(r.linkDown)
	}
}

// Start implements hal.Radio.
func (r *Radio) Start(ctx context.Context) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.mode == modeNone {
		return ErrNotConfigured
	}
	r.started = true
	glog.V(1).Infof("sim: radio started mode=%d ssid=%q", r.mode, r.ssid)
	return nil
}

// Connect implements hal.Radio.
func (r *Radio) Connect(ctx context.Context) error {
	r.lock.Lock()
	mode, started, ssid, password := r.mode, r.started, r.ssid, r.password
	expected, reachable := r.Networks[ssid]
	r.attempts++
	r.lock.Unlock()

	if !started {
		return ErrNotStarted
	}
	if mode != modeClient {
		return ErrNotConfigured
	}
	if err := sleep(ctx, r.ConnectDelay); err != nil {
		return err
	}
	if !reachable {
		return fmt.Errorf("%q: %w", ssid, ErrNoNetwork)
	}
	if expected != password {
		return fmt.Errorf("%q: %w", ssid, ErrAuthFailed)
	}

	r.lock.Lock()
	defer r.lock.Unlock()
	r.connected = true
	r.linkDown = make(chan struct{})
	return nil
}

// WaitForAddress implements hal.Radio.
func (r *Radio) WaitForAddress(ctx context.Context) (hal.AddressInfo, error) {
	r.lock.Lock()
	mode, started, connected := r.mode, r.started, r.connected
	r.lock.Unlock()
	if !started {
		return hal.AddressInfo{}, ErrNotStarted
	}
	if err := sleep(ctx, r.AddressDelay); err != nil {
		return hal.AddressInfo{}, err
	}
	switch {
	case mode == modeAccessPoint:
		return r.AccessPointAddr, nil
	case connected:
		return r.ClientAddr, nil
	}
	<-ctx.Done()
	return hal.AddressInfo{}, ctx.Err()
}

// LinkDown implements hal.LinkMonitor.
func (r *Radio) LinkDown() <-chan struct{} {
	r.lock.Lock()
	defer r.lock.Unlock()
	if !r.connected {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return r.linkDown
}

// Drop simulates a loss of the station link.
func (r *Radio) Drop() {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.connected {
		r.connected = false
		close(r.linkDown)
	}
}

// SetNetwork makes a network reachable, an empty password removes it.
func (r *Radio) SetNetwork(ssid, password string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if password == "" {
		delete(r.Networks, ssid)
	} else {
		r.Networks[ssid] = password
	}
}

// Attempts returns the number of Connect calls.
func (r *Radio) Attempts() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.attempts
}

// AccessPoint returns the access point ssid when in access point mode.
func (r *Radio) AccessPoint() (string, bool) {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.ssid, r.mode == modeAccessPoint && r.started
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
