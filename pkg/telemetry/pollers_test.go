package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/rrr.go/pkg/api"
	"github.com/robotalks/rrr.go/pkg/framework"
	"github.com/robotalks/rrr.go/pkg/hal"
	"github.com/robotalks/rrr.go/pkg/hal/sim"
	"github.com/robotalks/rrr.go/pkg/state"
)

type fakeGauge struct {
	soc, voltage, rate float32
	err                error
	lock               sync.Mutex
}

func (g *fakeGauge) set(soc, voltage, rate float32, err error) {
	g.lock.Lock()
	g.soc, g.voltage, g.rate, g.err = soc, voltage, rate, err
	g.lock.Unlock()
}

func (g *fakeGauge) SOC() (float32, error) {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.soc, g.err
}

func (g *fakeGauge) Voltage() (float32, error) {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.voltage, g.err
}

func (g *fakeGauge) ChargeRate() (float32, error) {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.rate, g.err
}

var errI2C = errors.New("i2c: no ack")

func TestBatteryPollerStale(t *testing.T) {
	gauge := &fakeGauge{}
	store := state.New()
	p := NewBatteryPoller(hal.GuardBatteryGauge(gauge), store)

	gauge.set(0.8, 3.9, -2, nil)
	require.NoError(t, p.Poll())
	assert.Equal(t, api.BatteryState{SOC: 0.8, Voltage: 3.9, ChargeRate: -2}, store.Battery())

	gauge.set(0, 0, 0, errI2C)
	err := p.Poll()
	require.Error(t, err)
	var sensorErr *SensorError
	require.True(t, errors.As(err, &sensorErr))
	assert.Equal(t, "battery", sensorErr.Sensor)
	assert.True(t, errors.Is(err, errI2C))

	b := store.Battery()
	assert.True(t, b.Stale)
	assert.Contains(t, b.Error, "no ack")
	assert.Equal(t, float32(0.8), b.SOC)
	assert.Equal(t, float32(3.9), b.Voltage)
	assert.Equal(t, float32(-2), b.ChargeRate)

	gauge.set(0.7, 3.8, -2, nil)
	require.NoError(t, p.Poll())
	assert.Equal(t, api.BatteryState{SOC: 0.7, Voltage: 3.8, ChargeRate: -2}, store.Battery())
}

func TestPyroPollerStale(t *testing.T) {
	pyro := sim.NewPyro(2.4, 0.1)
	store := state.New()
	guarded := hal.GuardPyroSensor(pyro)
	p1 := NewPyroPoller(guarded, api.PyroChannel1, store)
	p2 := NewPyroPoller(guarded, api.PyroChannel2, store)

	require.NoError(t, p1.Poll())
	require.NoError(t, p2.Poll())
	assert.Equal(t, "connected", store.Pyro(api.PyroChannel1).Status())
	assert.Equal(t, "not connected", store.Pyro(api.PyroChannel2).Status())

	pyro.Fail(errors.New("adc timeout"))
	require.Error(t, p1.Poll())
	ch1 := store.Pyro(api.PyroChannel1)
	assert.True(t, ch1.Stale)
	assert.Equal(t, float32(2.4), ch1.TestVoltage)
	assert.Equal(t, "sensor pyro1: adc timeout", ch1.Error)
	assert.False(t, store.Pyro(api.PyroChannel2).Stale)

	pyro.Fail(nil)
	pyro.Set(1, 0.2)
	require.NoError(t, p1.Poll())
	assert.Equal(t, api.PyroChannelState{TestVoltage: 0.2}, store.Pyro(api.PyroChannel1))
}

func TestPollerKeepsRunningAfterFailure(t *testing.T) {
	gauge := &fakeGauge{err: errI2C}
	store := state.New()
	p := NewBatteryPoller(hal.GuardBatteryGauge(gauge), store)
	p.Interval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool { return store.Battery().Stale }, time.Second, time.Millisecond)
	gauge.set(0.5, 3.6, 1, nil)
	require.Eventually(t, func() bool {
		b := store.Battery()
		return !b.Stale && b.SOC == 0.5
	}, time.Second, time.Millisecond)

	cancel()
	assert.Equal(t, context.Canceled, <-done)
}

func TestPollers(t *testing.T) {
	store := state.New()
	runners := Pollers(
		hal.GuardBatteryGauge(&fakeGauge{soc: 1, voltage: 4.2}),
		hal.GuardPyroSensor(sim.NewPyro(1.5, 0.5)),
		store, 5*time.Millisecond)
	require.Len(t, runners, 3)

	var names []string
	for _, r := range runners {
		names = append(names, r.(framework.Named).Name())
	}
	assert.Equal(t, []string{"battery", "pyro1", "pyro2"}, names)

	runner := framework.NewRunner()
	runner.Go(runners...)
	require.Eventually(t, func() bool {
		st := store.Read()
		return st.Battery.SOC == 1 && st.Pyro.Channel1.TestVoltage == 1.5 && st.Pyro.Channel2.TestVoltage == 0.5
	}, time.Second, time.Millisecond)
	runner.Stop()
	assert.NoError(t, runner.Wait())
}
