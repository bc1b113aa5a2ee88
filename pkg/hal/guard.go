package hal

import (
	"context"
	"sync"
)

// Every driver is wrapped by exactly one guard; all users of a resource
// share the same guard instance.

// GuardedIndicator serializes access to an Indicator.
type GuardedIndicator struct {
	dev  Indicator
	lock sync.Mutex
}

// GuardIndicator wraps an Indicator.
func GuardIndicator(dev Indicator) *GuardedIndicator {
	return &GuardedIndicator{dev: dev}
}

// SetColor implements Indicator.
func (g *GuardedIndicator) SetColor(r, gr, b uint8) error {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.dev.SetColor(r, gr, b)
}

// Off implements Indicator.
func (g *GuardedIndicator) Off() error {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.dev.Off()
}

// GuardedActuator serializes access to an Actuator.
type GuardedActuator struct {
	dev  Actuator
	lock sync.Mutex
}

// GuardActuator wraps an Actuator.
func GuardActuator(dev Actuator) *GuardedActuator {
	return &GuardedActuator{dev: dev}
}

// SetDutyCycle implements Actuator.
func (g *GuardedActuator) SetDutyCycle(fraction float32) error {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.dev.SetDutyCycle(fraction)
}

// BatteryReading is one consistent set of gauge values.
type BatteryReading struct {
	SOC        float32
	Voltage    float32
	ChargeRate float32
}

// GuardedBatteryGauge serializes access to a BatteryGauge.
type GuardedBatteryGauge struct {
	dev  BatteryGauge
	lock sync.Mutex
}

// GuardBatteryGauge wraps a BatteryGauge.
func GuardBatteryGauge(dev BatteryGauge) *GuardedBatteryGauge {
	return &GuardedBatteryGauge{dev: dev}
}

// Read reads all values under one acquisition of the bus.
func (g *GuardedBatteryGauge) Read() (r BatteryReading, err error) {
	g.lock.Lock()
	defer g.lock.Unlock()
	if r.SOC, err = g.dev.SOC(); err != nil {
		return
	}
	if r.Voltage, err = g.dev.Voltage(); err != nil {
		return
	}
	r.ChargeRate, err = g.dev.ChargeRate()
	return
}

// GuardedPyroSensor serializes access to the pyro ADC.
type GuardedPyroSensor struct {
	dev  PyroSensor
	lock sync.Mutex
}

// GuardPyroSensor wraps a PyroSensor.
func GuardPyroSensor(dev PyroSensor) *GuardedPyroSensor {
	return &GuardedPyroSensor{dev: dev}
}

// TestVoltage implements PyroSensor.
func (g *GuardedPyroSensor) TestVoltage(channel int) (float32, error) {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.dev.TestVoltage(channel)
}

// GuardedRadio serializes access to a Radio.
// WaitForAddress does not hold the guard while blocking.
type GuardedRadio struct {
	dev  Radio
	lock sync.Mutex
}

// GuardRadio wraps a Radio.
func GuardRadio(dev Radio) *GuardedRadio {
	return &GuardedRadio{dev: dev}
}

// ConfigureClient implements Radio.
func (g *GuardedRadio) ConfigureClient(ssid, password string) error {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.dev.ConfigureClient(ssid, password)
}

// ConfigureAccessPoint implements Radio.
func (g *GuardedRadio) ConfigureAccessPoint(ssid, password string, channel int) error {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.dev.ConfigureAccessPoint(ssid, password, channel)
}

// Start implements Radio.
func (g *GuardedRadio) Start(ctx context.Context) error {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.dev.Start(ctx)
}

// Connect implements Radio.
func (g *GuardedRadio) Connect(ctx context.Context) error {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.dev.Connect(ctx)
}

// WaitForAddress implements Radio.
func (g *GuardedRadio) WaitForAddress(ctx context.Context) (AddressInfo, error) {
	return g.dev.WaitForAddress(ctx)
}

// LinkDown implements LinkMonitor when the wrapped radio does.
// It returns nil otherwise, which blocks forever in a select.
func (g *GuardedRadio) LinkDown() <-chan struct{} {
	if mon, ok := g.dev.(LinkMonitor); ok {
		return mon.LinkDown()
	}
	return nil
}

// Monitored indicates the wrapped radio reports link loss.
func (g *GuardedRadio) Monitored() bool {
	_, ok := g.dev.(LinkMonitor)
	return ok
}
