// Package telemetry polls the sensors into the device state.
//
// A failed read never stops a poller: the affected group keeps the values of
// the last successful read and is marked stale with the error text until a
// read succeeds again.
package telemetry

import (
	"context"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/rrr.go/pkg/api"
	"github.com/robotalks/rrr.go/pkg/framework"
	"github.com/robotalks/rrr.go/pkg/hal"
	"github.com/robotalks/rrr.go/pkg/state"
)

// DefaultInterval is the nominal poll period.
const DefaultInterval = time.Second

// BatteryPoller polls the battery gauge.
type BatteryPoller struct {
	Gauge    *hal.GuardedBatteryGauge
	Store    *state.Store
	Interval time.Duration
}

// NewBatteryPoller creates a BatteryPoller with DefaultInterval.
func NewBatteryPoller(gauge *hal.GuardedBatteryGauge, store *state.Store) *BatteryPoller {
	return &BatteryPoller{Gauge: gauge, Store: store, Interval: DefaultInterval}
}

// Name implements framework.Named.
func (p *BatteryPoller) Name() string {
	return "battery"
}

// Run implements framework.Runnable.
func (p *BatteryPoller) Run(ctx context.Context) error {
	return framework.Every(ctx, interval(p.Interval), func(context.Context) {
		p.Poll()
	})
}

// Poll reads the gauge once and updates the store.
func (p *BatteryPoller) Poll() error {
	reading, err := p.Gauge.Read()
	if err != nil {
		err = &SensorError{Sensor: p.Name(), Err: err}
		glog.Warning(err)
		p.Store.UpdateBattery(func(b *api.BatteryState) {
			b.Stale, b.Error = true, err.Error()
		})
		return err
	}
	glog.V(4).Infof("battery soc=%.3f voltage=%.3f rate=%.2f", reading.SOC, reading.Voltage, reading.ChargeRate)
	p.Store.UpdateBattery(func(b *api.BatteryState) {
		*b = api.BatteryState{
			SOC:        reading.SOC,
			Voltage:    reading.Voltage,
			ChargeRate: reading.ChargeRate,
		}
	})
	return nil
}

// PyroPoller polls the test voltage of one pyro channel.
type PyroPoller struct {
	Sensor   *hal.GuardedPyroSensor
	Channel  api.PyroChannel
	Store    *state.Store
	Interval time.Duration
}

// NewPyroPoller creates a PyroPoller with DefaultInterval.
func NewPyroPoller(sensor *hal.GuardedPyroSensor, ch api.PyroChannel, store *state.Store) *PyroPoller {
	return &PyroPoller{Sensor: sensor, Channel: ch, Store: store, Interval: DefaultInterval}
}

// Name implements framework.Named.
func (p *PyroPoller) Name() string {
	return p.Channel.String()
}

// Run implements framework.Runnable.
func (p *PyroPoller) Run(ctx context.Context) error {
	return framework.Every(ctx, interval(p.Interval), func(context.Context) {
		p.Poll()
	})
}

// Poll samples the channel once and updates the store.
// The raw sample is stored without calibration.
func (p *PyroPoller) Poll() error {
	sample, err := p.Sensor.TestVoltage(int(p.Channel))
	if err != nil {
		err = &SensorError{Sensor: p.Name(), Err: err}
		glog.Warning(err)
		p.Store.UpdatePyro(p.Channel, func(s *api.PyroChannelState) {
			s.Stale, s.Error = true, err.Error()
		})
		return err
	}
	p.Store.UpdatePyro(p.Channel, func(s *api.PyroChannelState) {
		s.TestVoltage = sample
		s.Stale, s.Error = false, ""
	})
	return nil
}

// Pollers returns one runnable per telemetry source.
func Pollers(gauge *hal.GuardedBatteryGauge, pyro *hal.GuardedPyroSensor, store *state.Store, period time.Duration) []framework.Runnable {
	battery := NewBatteryPoller(gauge, store)
	battery.Interval = period
	runners := []framework.Runnable{battery}
	for _, ch := range api.PyroChannels {
		poller := NewPyroPoller(pyro, ch, store)
		poller.Interval = period
		runners = append(runners, poller)
	}
	return runners
}

func interval(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultInterval
	}
	return d
}
