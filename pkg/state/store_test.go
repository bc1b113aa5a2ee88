package state

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/rrr.go/pkg/api"
)

func TestDefaultState(t *testing.T) {
	data, err := json.Marshal(New().Read())
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
	}`, string(data))
}

func TestUpdates(t *testing.T) {
	s := New()
	s.UpdateBattery(func(b *api.BatteryState) {
		b.SOC, b.Voltage, b.ChargeRate = 0.5, 3.7, -2
	})
	s.UpdatePyro(api.PyroChannel2, func(p *api.PyroChannelState) {
		p.TestVoltage = 2.5
	})
	s.UpdateWifi(func(w *api.WifiConnectionConfiguration) {
		w.ConnectionType = api.ClientConnected
	})
	s.SetCredentials(api.WifiCredentials{SSID: "home", Password: "secret123"})

	st := s.Read()
	assert.Equal(t, api.BatteryState{SOC: 0.5, Voltage: 3.7, ChargeRate: -2}, st.Battery)
	assert.Equal(t, float32(0), st.Pyro.Channel1.TestVoltage)
	assert.Equal(t, float32(2.5), st.Pyro.Channel2.TestVoltage)
	assert.Equal(t, api.ClientConnected, st.WifiState.ConnectionType)
	assert.Equal(t, "home", st.WifiState.Credentials.SSID)
}

func TestReadIsCopy(t *testing.T) {
	s := New()
	st := s.Read()
	st.Battery.SOC = 1
	st.Pyro.Channel1.Fire = true
	assert.Equal(t, api.State{}, s.Read())
}

func TestInvalidChannelPanics(t *testing.T) {
	s := New()
	assert.Panics(t, func() { s.Pyro(api.PyroChannel(3)) })
	assert.Panics(t, func() { s.UpdatePyro(0, func(*api.PyroChannelState) {}) })
}

// Writers always store groups whose fields are equal; any reader seeing
// unequal fields observed a torn update.
func TestConcurrentAtomicity(t *testing.T) {
	s := New()
	const writers, iterations = 8, 2000

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				v := float32(w*iterations + i)
				s.UpdateBattery(func(b *api.BatteryState) {
					b.SOC = v
					b.Voltage = v
					b.ChargeRate = v
				})
				ch := api.PyroChannels[i%2]
				s.UpdatePyro(ch, func(p *api.PyroChannelState) {
					p.TestVoltage = v
					p.Fire = int(v)%2 == 1
				})
				s.SetCredentials(api.WifiCredentials{SSID: string(rune('a' + w)), Password: string(rune('a' + w))})
			}
		}(w)
	}

	done := make(chan struct{})
	var readErr string
	go func() {
		defer close(done)
		for i := 0; i < writers*iterations; i++ {
			st := s.Read()
			b := st.Battery
			if b.SOC != b.Voltage || b.SOC != b.ChargeRate {
				readErr = "torn battery read"
				return
			}
			for _, ch := range api.PyroChannels {
				p := st.Pyro.Channel(ch)
				if p.Fire != (int(p.TestVoltage)%2 == 1) {
					readErr = "torn pyro read"
					return
				}
			}
			if c := st.WifiState.Credentials; c.SSID != c.Password {
				readErr = "torn wifi read"
				return
			}
		}
	}()

	wg.Wait()
	<-done
	assert.Empty(t, readErr)
}

func TestWatch(t *testing.T) {
	s := New()
	ch, stop := s.Watch()
	defer stop()

	s.UpdateBattery(func(b *api.BatteryState) { b.SOC = 1 })
	s.UpdateBattery(func(b *api.BatteryState) { b.SOC = 0.9 })
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no update signaled")
	}
	select {
	case <-ch:
		t.Fatal("signals not coalesced")
	default:
	}
}
