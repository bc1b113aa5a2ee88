package sysfs

import (
	"fmt"
	"path/filepath"
)

// IIODevices is where the kernel exposes industrial I/O devices.
const IIODevices = "/sys/bus/iio/devices"

// ADC samples voltage inputs of an IIO device as pyro test voltages.
// Samples are returned raw; no scale is applied.
type ADC struct {
	Dir string
	// Inputs maps pyro channels (1-based) to ADC inputs.
	Inputs map[int]int
}

// NewADC creates an ADC on the named device, e.g. "iio:device0".
func NewADC(device string, inputs map[int]int) *ADC {
	return &ADC{Dir: filepath.Join(IIODevices, device), Inputs: inputs}
}

// TestVoltage implements hal.PyroSensor.
func (a *ADC) TestVoltage(channel int) (float32, error) {
	input, ok := a.Inputs[channel]
	if !ok {
		return 0, fmt.Errorf("pyro channel %d not mapped to an ADC input", channel)
	}
	raw, err := readInt(a.Dir, fmt.Sprintf("in_voltage%d_raw", input))
	if err != nil {
		return 0, err
	}
	return float32(raw), nil
}
