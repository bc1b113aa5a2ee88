package telemetry

import "fmt"

// SensorError is a failed hardware read.
type SensorError struct {
	Sensor string
	Err    error
}

// Error implements error.
func (e *SensorError) Error() string {
	return fmt.Sprintf("sensor %s: %v", e.Sensor, e.Err)
}

// Unwrap returns the driver error.
func (e *SensorError) Unwrap() error {
	return e.Err
}
