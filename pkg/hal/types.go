// Package hal declares the hardware collaborators of the controller.
//
// Drivers live in sub-packages: sim for simulated hardware, sysfs for
// Linux class devices.
package hal

import (
	"context"
	"net"
)

// BatteryGauge reads the fuel gauge.
type BatteryGauge interface {
	// SOC returns the state of charge as a fraction of 1.0.
	SOC() (float32, error)
	// Voltage returns the cell voltage in volts.
	Voltage() (float32, error)
	// ChargeRate returns the charge rate in percent per hour.
	ChargeRate() (float32, error)
}

// PyroSensor samples the continuity test voltage of pyro channels.
// No calibration is applied by callers: the returned value is stored as is.
type PyroSensor interface {
	TestVoltage(channel int) (float32, error)
}

// Indicator is the status LED.
type Indicator interface {
	SetColor(r, g, b uint8) error
	Off() error
}

// Actuator is the PWM output.
type Actuator interface {
	// SetDutyCycle sets the fraction of the period the output is active.
	SetDutyCycle(fraction float32) error
}

// AddressInfo describes the address assigned to the network interface.
type AddressInfo struct {
	IP      net.IP
	Netmask net.IPMask
	Gateway net.IP
}

// String implements fmt.Stringer.
func (a AddressInfo) String() string {
	ipNet := net.IPNet{IP: a.IP, Mask: a.Netmask}
	if a.Gateway == nil {
		return ipNet.String()
	}
	return ipNet.String() + " via " + a.Gateway.String()
}

// Radio is the network subsystem.
type Radio interface {
	// ConfigureClient prepares station mode. The access point stays
	// available until the station connects.
	ConfigureClient(ssid, password string) error
	// ConfigureAccessPoint switches to access point only mode.
	ConfigureAccessPoint(ssid, password string, channel int) error
	Start(ctx context.Context) error
	Connect(ctx context.Context) error
	// WaitForAddress blocks until the interface has an address.
	WaitForAddress(ctx context.Context) (AddressInfo, error)
}

// LinkMonitor is implemented by radios able to report station link state.
type LinkMonitor interface {
	// LinkDown returns a chan closed once the current station link drops.
	LinkDown() <-chan struct{}
}
