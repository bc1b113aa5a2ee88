package sysfs

import (
	"errors"
	"path/filepath"
)

// PowerSupplyClass is where the kernel exposes batteries.
const PowerSupplyClass = "/sys/class/power_supply"

// ErrNoRate indicates the supply exposes neither current nor power.
var ErrNoRate = errors.New("charge rate not available")

// Battery reads a power_supply battery.
type Battery struct {
	Dir string
}

// NewBattery creates a Battery for the named supply, e.g. "BAT0".
func NewBattery(name string) *Battery {
	return &Battery{Dir: filepath.Join(PowerSupplyClass, name)}
}

// SOC implements hal.BatteryGauge. The kernel reports percent, the gauge
// contract is a fraction.
func (b *Battery) SOC() (float32, error) {
	capacity, err := readInt(b.Dir, "capacity")
	if err != nil {
		return 0, err
	}
	return float32(capacity) / 100, nil
}

// Voltage implements hal.BatteryGauge.
func (b *Battery) Voltage() (float32, error) {
	uv, err := readInt(b.Dir, "voltage_now")
	if err != nil {
		return 0, err
	}
	return float32(uv) / 1e6, nil
}

// ChargeRate implements hal.BatteryGauge, negative while discharging.
func (b *Battery) ChargeRate() (float32, error) {
	var rate float32
	if current, err := readInt(b.Dir, "current_now"); err == nil {
		full, err := readInt(b.Dir, "charge_full")
		if err != nil {
			return 0, err
		}
		if full == 0 {
			return 0, ErrNoRate
		}
		rate = float32(current) / float32(full) * 100
	} else if power, err := readInt(b.Dir, "power_now"); err == nil {
		full, err := readInt(b.Dir, "energy_full")
		if err != nil {
			return 0, err
		}
		if full == 0 {
			return 0, ErrNoRate
		}
		rate = float32(power) / float32(full) * 100
	} else {
		return 0, ErrNoRate
	}
	if rate < 0 {
		rate = -rate
	}
	status, err := readAttr(b.Dir, "status")
	if err != nil {
		return 0, err
	}
	if status == "Discharging" {
		rate = -rate
	}
	return rate, nil
}
