// Package command executes commands against the device.
package command

import (
	"context"
	"math"

	"github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/robotalks/rrr.go/pkg/api"
	"github.com/robotalks/rrr.go/pkg/credentials"
	"github.com/robotalks/rrr.go/pkg/hal"
	"github.com/robotalks/rrr.go/pkg/state"
)

// MinPasswordLen is the shortest non-empty station password accepted.
const MinPasswordLen = 8

// Restarter restarts the device.
type Restarter interface {
	Restart()
}

// Dispatcher is the single entry point for commands. It is safe for
// concurrent use: every resource is reached through its own guard.
type Dispatcher struct {
	Indicator   *hal.GuardedIndicator
	Actuator    *hal.GuardedActuator
	Credentials *credentials.Store
	Store       *state.Store
	Restarter   Restarter
}

// Dispatch executes cmd.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd api.Command) error {
	return d.dispatch(ctx, uuid.New().String(), cmd)
}

// DispatchJSON decodes and executes a command, returning the result to be
// sent back to the requester along with the error.
func (d *Dispatcher) DispatchJSON(ctx context.Context, data []byte) (api.CommandResult, error) {
	id := uuid.New().String()
	res := api.CommandResult{ID: id}
	cmd, err := api.DecodeCommand(data)
	if err != nil {
		err = &CommandError{Kind: KindDecode, ID: id, Err: err}
		glog.Warningf("[%s] %v", id, err)
		res.Error = err.Error()
		return res, err
	}
	res.Command = cmd.Name()
	if err = d.dispatch(ctx, id, cmd); err != nil {
		res.Error = err.Error()
	}
	return res, err
}

func (d *Dispatcher) dispatch(ctx context.Context, id string, cmd api.Command) error {
	glog.V(2).Infof("[%s] dispatch %s", id, cmd.Name())
	kind, err := d.execute(ctx, cmd)
	if err != nil {
		err = &CommandError{Kind: kind, ID: id, Command: cmd.Name(), Err: err}
		glog.Warningf("[%s] %v", id, err)
		return err
	}
	glog.Infof("[%s] %s -- OK", id, cmd.Name())
	return nil
}

func (d *Dispatcher) execute(ctx context.Context, cmd api.Command) (Kind, error) {
	switch c := cmd.(type) {
	case api.Reset:
		if d.Restarter == nil {
			return KindDriver, ErrNoRestarter
		}
		d.Restarter.Restart()
	case api.SetWifi:
		if c.SSID == "" {
			return KindInvalid, ErrEmptySSID
		}
		if c.Password != "" && len(c.Password) < MinPasswordLen {
			return KindInvalid, ErrShortPassword
		}
		// Takes effect on the next bring-up. The state mirror is updated
		// under the credential lock so it always matches the medium.
		creds := api.WifiCredentials{SSID: c.SSID, Password: c.Password}
		if err := d.Credentials.Update(creds, d.Store.SetCredentials); err != nil {
			return KindStorage, err
		}
	case api.ResetNvs:
		err := d.Credentials.EraseThen(func() {
			d.Store.SetCredentials(api.WifiCredentials{})
		})
		if err != nil {
			return KindStorage, err
		}
	case api.SetLedColor:
		if err := d.Indicator.SetColor(c.R, c.G, c.B); err != nil {
			return KindDriver, err
		}
	case api.SetPwmDutyCycle:
		f := float64(c.DutyCycle)
		if math.IsNaN(f) || f < 0 || f > 1 {
			return KindInvalid, ErrDutyCycleRange
		}
		if err := d.Actuator.SetDutyCycle(c.DutyCycle); err != nil {
			return KindDriver, err
		}
	default:
		return KindDecode, &api.ErrUnknownCommand{Tag: cmd.Name()}
	}
	return 0, nil
}
