// Package sim provides simulated hardware for running the controller on a
// host without the board attached.
package sim

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"
)

// ErrNoChannel indicates a channel out of range.
var ErrNoChannel = errors.New("no such channel")

// Gauge simulates a discharging battery.
type Gauge struct {
	// DischargeRate in percent per hour.
	DischargeRate float32

	started time.Time
	fail    error
	lock    sync.Mutex
	now     func() time.Time
}

// NewGauge creates a full battery discharging at rate percent per hour.
func NewGauge(rate float32) *Gauge {
	return &Gauge{DischargeRate: rate, started: time.Now(), now: time.Now}
}

// Fail makes subsequent reads return err, nil restores the gauge.
func (g *Gauge) Fail(err error) {
	g.lock.Lock()
	g.fail = err
	g.lock.Unlock()
}

func (g *Gauge) soc() (float32, error) {
	g.lock.Lock()
	defer g.lock.Unlock()
	if g.fail != nil {
		return 0, g.fail
	}
	hours := float32(g.now().Sub(g.started).Hours())
	soc := 1 - hours*g.DischargeRate/100
	if soc < 0 {
		soc = 0
	}
	return soc, nil
}

// SOC implements hal.BatteryGauge.
func (g *Gauge) SOC() (float32, error) {
	return g.soc()
}

// Voltage implements hal.BatteryGauge.
func (g *Gauge) Voltage() (float32, error) {
	soc, err := g.soc()
	if err != nil {
		return 0, err
	}
	return 3.0 + 1.2*soc, nil
}

// ChargeRate implements hal.BatteryGauge.
func (g *Gauge) ChargeRate() (float32, error) {
	if _, err := g.soc(); err != nil {
		return 0, err
	}
	return -g.DischargeRate, nil
}

// Pyro simulates the continuity ADC of two channels.
type Pyro struct {
	voltages [2]float32
	fail     error
	lock     sync.Mutex
}

// NewPyro creates the simulated ADC with initial raw samples.
func NewPyro(ch1, ch2 float32) *Pyro {
	return &Pyro{voltages: [2]float32{ch1, ch2}}
}

// Set changes the sample of a channel.
func (p *Pyro) Set(channel int, v float32) {
	p.lock.Lock()
	p.voltages[channel-1] = v
	p.lock.Unlock()
}

// Fail makes subsequent reads return err, nil restores the ADC.
func (p *Pyro) Fail(err error) {
	p.lock.Lock()
	p.fail = err
	p.lock.Unlock()
}

// TestVoltage implements hal.PyroSensor.
func (p *Pyro) TestVoltage(channel int) (float32, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.fail != nil {
		return 0, p.fail
	}
	if channel < 1 || channel > len(p.voltages) {
		return 0, fmt.Errorf("pyro channel %d: %w", channel, ErrNoChannel)
	}
	return p.voltages[channel-1], nil
}

// Color is an RGB triple.
type Color struct {
	R, G, B uint8
}

// Indicator records the colors it is set to.
type Indicator struct {
	history []Color
	lock    sync.Mutex
}

// SetColor implements hal.Indicator.
func (i *Indicator) SetColor(r, g, b uint8) error {
	glog.V(1).Infof("sim: LED rgb(%d, %d, %d)", r, g, b)
	i.lock.Lock()
	i.history = append(i.history, Color{r, g, b})
	i.lock.Unlock()
	return nil
}

// Off implements hal.Indicator.
func (i *Indicator) Off() error {
	return i.SetColor(0, 0, 0)
}

// Color returns the current color.
func (i *Indicator) Color() Color {
	i.lock.Lock()
	defer i.lock.Unlock()
	if len(i.history) == 0 {
		return Color{}
	}
	return i.history[len(i.history)-1]
}

// History returns all colors set so far.
func (i *Indicator) History() []Color {
	i.lock.Lock()
	defer i.lock.Unlock()
	return append([]Color(nil), i.history...)
}

// Actuator records the duty cycle.
type Actuator struct {
	duty float32
	lock sync.Mutex
}

// SetDutyCycle implements hal.Actuator.
func (a *Actuator) SetDutyCycle(fraction float32) error {
	glog.V(1).Infof("sim: PWM duty %.3f", fraction)
	a.lock.Lock()
	a.duty = fraction
	a.lock.Unlock()
	return nil
}

// DutyCycle returns the current duty cycle.
func (a *Actuator) DutyCycle() float32 {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.duty
}
