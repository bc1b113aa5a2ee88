package sysfs

import (
	"path/filepath"
	"strconv"
	"sync"
)

// LEDClass is where the kernel exposes LEDs.
const LEDClass = "/sys/class/leds"

// RGBLED drives three single color LEDs as one indicator.
type RGBLED struct {
	Dirs [3]string

	maxBrightness [3]int64
	lock          sync.Mutex
}

// NewRGBLED creates an RGBLED from the names of the red, green and blue LEDs.
func NewRGBLED(red, green, blue string) *RGBLED {
	return &RGBLED{Dirs: [3]string{
		filepath.Join(LEDClass, red),
		filepath.Join(LEDClass, green),
		filepath.Join(LEDClass, blue),
	}}
}

// SetColor implements hal.Indicator. Intensities are scaled to the
// max_brightness of each LED.
func (l *RGBLED) SetColor(r, g, b uint8) error {
	l.lock.Lock()
	defer l.lock.Unlock()
	for i, v := range [3]uint8{r, g, b} {
		if l.maxBrightness[i] == 0 {
			max, err := readInt(l.Dirs[i], "max_brightness")
			if err != nil {
				return err
			}
			l.maxBrightness[i] = max
		}
		level := int64(v) * l.maxBrightness[i] / 255
		if err := writeAttr(l.Dirs[i], "brightness", strconv.FormatInt(level, 10)); err != nil {
			return err
		}
	}
	return nil
}

// Off implements hal.Indicator.
func (l *RGBLED) Off() error {
	return l.SetColor(0, 0, 0)
}
