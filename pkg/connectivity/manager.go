// Package connectivity brings the device onto a network.
//
// The Manager tries the stored station credential first and falls back to
// hosting its own access point. The Supervisor keeps the station link up
// afterwards.
package connectivity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/rrr.go/pkg/api"
	"github.com/robotalks/rrr.go/pkg/credentials"
	"github.com/robotalks/rrr.go/pkg/hal"
	"github.com/robotalks/rrr.go/pkg/state"
)

// State is the bring-up state.
type State int

// Bring-up states.
const (
	Idle State = iota
	AttemptingClient
	ClientConnected
	AttemptingAccessPoint
	AccessPointActive
)

var stateNames = []string{
	"Idle",
	"AttemptingClient",
	"ClientConnected",
	"AttemptingAccessPoint",
	"AccessPointActive",
}

// String implements fmt.Stringer.
func (s State) String() string {
	if int(s) >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MinPassphraseLen is the shortest access point passphrase the radio takes.
const MinPassphraseLen = 8

// AccessPoint configures the fallback access point.
type AccessPoint struct {
	SSID       string `yaml:"ssid"`
	Passphrase string `yaml:"passphrase"`
	Channel    int    `yaml:"channel"`
}

// DefaultAccessPoint is the fallback network hosted by the device.
var DefaultAccessPoint = AccessPoint{
	SSID:       "RRR-wifi",
	Passphrase: "rrr-setup",
	Channel:    1,
}

// Validate checks the platform constraints.
func (ap AccessPoint) Validate() error {
	if ap.SSID == "" {
		return fmt.Errorf("access point ssid required")
	}
	if len(ap.Passphrase) < MinPassphraseLen {
		return ErrWeakPassphrase
	}
	if ap.Channel < 1 || ap.Channel > 13 {
		return fmt.Errorf("invalid access point channel %d", ap.Channel)
	}
	return nil
}

// DefaultClientTimeout bounds the station connection attempt.
const DefaultClientTimeout = 15 * time.Second

// Result is the outcome of bring-up.
type Result struct {
	Type    api.ConnectionType
	Address hal.AddressInfo
}

// Manager is the ConnectivityManager.
type Manager struct {
	Radio         *hal.GuardedRadio
	Credentials   *credentials.Store
	Store         *state.Store
	ClientTimeout time.Duration
	AccessPoint   AccessPoint
	// OnStateChange is called on every transition, outside of any lock.
	OnStateChange func(State)

	state State
	lock  sync.Mutex
}

// NewManager creates a Manager with the default timeout and access point.
func NewManager(radio *hal.GuardedRadio, creds *credentials.Store, store *state.Store) *Manager {
	return &Manager{
		Radio:         radio,
		Credentials:   creds,
		Store:         store,
		ClientTimeout: DefaultClientTimeout,
		AccessPoint:   DefaultAccessPoint,
	}
}

// State returns the current state.
func (m *Manager) State() State {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.state
}

func (m *Manager) setState(s State) {
	m.lock.Lock()
	m.state = s
	m.lock.Unlock()
	glog.V(2).Infof("connectivity: %s", s)
	if m.OnStateChange != nil {
		m.OnStateChange(s)
	}
}

// Connect runs bring-up and blocks until the interface has an address.
// A returned error is fatal: the access point could not be started.
func (m *Manager) Connect(ctx context.Context) (Result, error) {
	m.setState(AttemptingClient)
	creds, err := m.storedCredentials()
	if err == nil {
		var addr hal.AddressInfo
		if addr, err = m.connectClient(ctx, creds); err == nil {
			return Result{Type: api.ClientConnected, Address: addr}, nil
		}
	}
	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}
	glog.Infof("WIFI Connect -- FAIL: %v", err)
	addr, err := m.startAccessPoint(ctx, creds)
	if err != nil {
		return Result{}, err
	}
	return Result{Type: api.AccessPointActive, Address: addr}, nil
}

func (m *Manager) storedCredentials() (api.WifiCredentials, error) {
	creds, ok, err := m.Credentials.Get()
	if err != nil {
		glog.Warningf("read credentials: %v", err)
		return api.WifiCredentials{}, err
	}
	if !ok {
		return api.WifiCredentials{}, ErrNoCredentials
	}
	return creds, nil
}

func (m *Manager) connectClient(ctx context.Context, creds api.WifiCredentials) (hal.AddressInfo, error) {
	timeout := m.ClientTimeout
	if timeout <= 0 {
		timeout = DefaultClientTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	glog.Infof("WIFI connecting to %q", creds.SSID)
	if err := m.Radio.ConfigureClient(creds.SSID, creds.Password); err != nil {
		return hal.AddressInfo{}, &NetworkError{Op: "configure client", Err: err}
	}
	if err := m.Radio.Start(ctx); err != nil {
		return hal.AddressInfo{}, &NetworkError{Op: "start", Err: err}
	}
	if err := m.Radio.Connect(ctx); err != nil {
		return hal.AddressInfo{}, &NetworkError{Op: "connect", Err: err}
	}
	addr, err := m.Radio.WaitForAddress(ctx)
	if err != nil {
		return hal.AddressInfo{}, &NetworkError{Op: "wait for address", Err: err}
	}
	glog.Infof("WIFI Connect -- OK, address %s", addr)
	m.setState(ClientConnected)
	m.Store.UpdateWifi(func(w *api.WifiConnectionConfiguration) {
		w.ConnectionType = api.ClientConnected
		w.Credentials = creds
	})
	return addr, nil
}

// startAccessPoint hosts the fallback network. creds is the stored
// credential, if any, kept visible in the state.
func (m *Manager) startAccessPoint(ctx context.Context, creds api.WifiCredentials) (hal.AddressInfo, error) {
	m.setState(AttemptingAccessPoint)
	ap := m.AccessPoint
	if err := ap.Validate(); err != nil {
		return hal.AddressInfo{}, &NetworkError{Op: "configure access point", Err: err, Fatal: true}
	}
	if err := m.Radio.ConfigureAccessPoint(ap.SSID, ap.Passphrase, ap.Channel); err != nil {
		return hal.AddressInfo{}, &NetworkError{Op: "configure access point", Err: err, Fatal: true}
	}
	if err := m.Radio.Start(ctx); err != nil {
		return hal.AddressInfo{}, &NetworkError{Op: "start access point", Err: err, Fatal: true}
	}
	glog.Info("WIFI AP Start -- OK")
	m.setState(AccessPointActive)
	m.Store.UpdateWifi(func(w *api.WifiConnectionConfiguration) {
		w.ConnectionType = api.AccessPointActive
		w.Credentials = creds
	})
	addr, err := m.Radio.WaitForAddress(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return hal.AddressInfo{}, ctx.Err()
		}
		return hal.AddressInfo{}, &NetworkError{Op: "wait for address", Err: err, Fatal: true}
	}
	glog.Infof("WIFI AP address %s", addr)
	return addr, nil
}
