// Package device registers the device commands with the shell.
package device

import (
	"fmt"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/rrr.go/pkg/api"
	"github.com/robotalks/rrr.go/pkg/cli/sh"
)

func parseColor(args []string) (cmd api.SetLedColor, err error) {
	if len(args) < 3 {
		return cmd, fmt.Errorf("R G B required")
	}
	var vals [3]uint8
	for n, arg := range args[:3] {
		val, err := strconv.ParseUint(arg, 0, 8)
		if err != nil {
			return cmd, fmt.Errorf("Invalid %c: %v", "RGB"[n], err)
		}
		vals[n] = uint8(val)
	}
	cmd.R, cmd.G, cmd.B = vals[0], vals[1], vals[2]
	return cmd, nil
}

func parseDutyCycle(args []string) (cmd api.SetPwmDutyCycle, err error) {
	if len(args) < 1 {
		return cmd, fmt.Errorf("DUTY required")
	}
	val, err := strconv.ParseFloat(args[0], 32)
	if err != nil {
		return cmd, fmt.Errorf("Invalid DUTY: %v", err)
	}
	cmd.DutyCycle = float32(val)
	return cmd, nil
}

func parseWifi(args []string) (cmd api.SetWifi, err error) {
	if len(args) < 1 {
		return cmd, fmt.Errorf("SSID required")
	}
	cmd.SSID = args[0]
	if len(args) > 1 {
		cmd.Password = args[1]
	}
	return cmd, nil
}

func colorCmd(name string, r, g, b uint8) *ishell.Cmd {
	return &ishell.Cmd{
		Name: name,
		Help: fmt.Sprintf("same as led %d %d %d", r, g, b),
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCommand(c, api.SetLedColor{R: r, G: g, B: b})
		}),
	}
}

var (
	// LedCmd exposes SetLedColor command.
	LedCmd = ishell.Cmd{
		Name: "led",
		Help: "R G B (0-255)",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			cmd, err := parseColor(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, cmd)
		}),
	}

	// PwmCmd exposes SetPwmDutyCycle command.
	PwmCmd = ishell.Cmd{
		Name: "pwm",
		Help: "DUTY (0.0-1.0)",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			cmd, err := parseDutyCycle(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, cmd)
		}),
	}

	// WifiCmd exposes SetWifi command.
	WifiCmd = ishell.Cmd{
		Name: "wifi",
		Help: "SSID [PASSWORD]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			cmd, err := parseWifi(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, cmd)
		}),
	}

	// ResetNvsCmd exposes ResetNvs command.
	ResetNvsCmd = ishell.Cmd{
		Name: "reset-nvs",
		Help: "erase stored credentials",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCommand(c, api.ResetNvs{})
		}),
	}

	// ResetCmd exposes Reset command.
	ResetCmd = ishell.Cmd{
		Name: "reset",
		Help: "restart the device",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCommand(c, api.Reset{})
		}),
	}
)

func init() {
	sh.AddCmds(
		&LedCmd,
		colorCmd("red", 20, 0, 0),
		colorCmd("green", 0, 20, 0),
		colorCmd("blue", 0, 0, 20),
		colorCmd("off", 0, 0, 0),
		&PwmCmd,
		&WifiCmd,
		&ResetNvsCmd,
		&ResetCmd,
	)
}
