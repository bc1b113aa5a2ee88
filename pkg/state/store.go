// Package state holds the shared device state.
//
// Each field group (battery, every pyro channel, wifi) has its own lock so
// a writer of one group never blocks writers of another, and a reader
// never observes a group half updated.
package state

import (
	"sync"

	"github.com/robotalks/rrr.go/pkg/api"
)

// Store is the DeviceStateStore shared by pollers, the connectivity manager,
// the command dispatcher and the server.
type Store struct {
	battery     api.BatteryState
	batteryLock sync.RWMutex

	pyro      api.PyroState
	pyroLocks [2]sync.RWMutex

	wifi     api.WifiConnectionConfiguration
	wifiLock sync.RWMutex

	watchers watchers
}

// New creates a Store holding the default state.
func New() *Store {
	return &Store{}
}

// Read returns a snapshot of the whole state.
// Groups are copied one at a time: every group is internally consistent,
// groups may come from different moments.
func (s *Store) Read() (st api.State) {
	st.Battery = s.Battery()
	for _, ch := range api.PyroChannels {
		*st.Pyro.Channel(ch) = s.Pyro(ch)
	}
	st.WifiState = s.Wifi()
	return
}

// Battery returns a copy of the battery group.
func (s *Store) Battery() api.BatteryState {
	s.batteryLock.RLock()
	defer s.batteryLock.RUnlock()
	return s.battery
}

// Pyro returns a copy of one pyro channel.
func (s *Store) Pyro(ch api.PyroChannel) api.PyroChannelState {
	lock := s.pyroLock(ch)
	lock.RLock()
	defer lock.RUnlock()
	return *s.pyro.Channel(ch)
}

// Wifi returns a copy of the wifi group.
func (s *Store) Wifi() api.WifiConnectionConfiguration {
	s.wifiLock.RLock()
	defer s.wifiLock.RUnlock()
	return s.wifi
}

// UpdateBattery mutates the battery group under its lock.
func (s *Store) UpdateBattery(fn func(*api.BatteryState)) {
	s.batteryLock.Lock()
	fn(&s.battery)
	s.batteryLock.Unlock()
	s.watchers.notify()
}

// UpdatePyro mutates one pyro channel under its lock.
func (s *Store) UpdatePyro(ch api.PyroChannel, fn func(*api.PyroChannelState)) {
	lock := s.pyroLock(ch)
	lock.Lock()
	fn(s.pyro.Channel(ch))
	lock.Unlock()
	s.watchers.notify()
}

// UpdateWifi mutates the wifi group under its lock.
func (s *Store) UpdateWifi(fn func(*api.WifiConnectionConfiguration)) {
	s.wifiLock.Lock()
	fn(&s.wifi)
	s.wifiLock.Unlock()
	s.watchers.notify()
}

// SetCredentials records the stored credentials in the wifi group.
func (s *Store) SetCredentials(creds api.WifiCredentials) {
	s.UpdateWifi(func(w *api.WifiConnectionConfiguration) {
		w.Credentials = creds
	})
}

func (s *Store) pyroLock(ch api.PyroChannel) *sync.RWMutex {
	if !ch.IsValid() {
		panic("invalid pyro channel " + ch.String())
	}
	return &s.pyroLocks[int(ch)-1]
}
