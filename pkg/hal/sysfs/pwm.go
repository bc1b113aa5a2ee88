package sysfs

import (
	"fmt"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// PWMClass is where the kernel exposes PWM chips.
const PWMClass = "/sys/class/pwm"

// PWM drives one channel of a PWM chip.
type PWM struct {
	ChipDir string
	Channel int
	Period  time.Duration

	ready bool
	lock  sync.Mutex
}

// NewPWM creates a PWM on chip (e.g. "pwmchip0") channel with period.
func NewPWM(chip string, channel int, period time.Duration) *PWM {
	return &PWM{ChipDir: filepath.Join(PWMClass, chip), Channel: channel, Period: period}
}

func (p *PWM) channelDir() string {
	return filepath.Join(p.ChipDir, fmt.Sprintf("pwm%d", p.Channel))
}

func (p *PWM) setup() error {
	if p.ready {
		return nil
	}
	dir := p.channelDir()
	if !exists(dir) {
		if err := writeAttr(p.ChipDir, "export", strconv.Itoa(p.Channel)); err != nil {
			return fmt.Errorf("export pwm%d: %v", p.Channel, err)
		}
	}
	if err := writeAttr(dir, "period", strconv.FormatInt(p.Period.Nanoseconds(), 10)); err != nil {
		return err
	}
	if err := writeAttr(dir, "enable", "1"); err != nil {
		return err
	}
	p.ready = true
	return nil
}

// SetDutyCycle implements hal.Actuator.
func (p *PWM) SetDutyCycle(fraction float32) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if err := p.setup(); err != nil {
		return err
	}
	ns := int64(float64(fraction) * float64(p.Period.Nanoseconds()))
	return writeAttr(p.channelDir(), "duty_cycle", strconv.FormatInt(ns, 10))
}
