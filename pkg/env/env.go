package env

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/rrr.go/pkg/api"
	"github.com/robotalks/rrr.go/pkg/command"
	"github.com/robotalks/rrr.go/pkg/comm/mqtt"
	"github.com/robotalks/rrr.go/pkg/connectivity"
	"github.com/robotalks/rrr.go/pkg/credentials"
	"github.com/robotalks/rrr.go/pkg/discovery"
	"github.com/robotalks/rrr.go/pkg/framework"
	"github.com/robotalks/rrr.go/pkg/hal"
	"github.com/robotalks/rrr.go/pkg/hal/sim"
	"github.com/robotalks/rrr.go/pkg/hal/sysfs"
	"github.com/robotalks/rrr.go/pkg/nvs"
	"github.com/robotalks/rrr.go/pkg/server"
	"github.com/robotalks/rrr.go/pkg/state"
	"github.com/robotalks/rrr.go/pkg/system"
	"github.com/robotalks/rrr.go/pkg/telemetry"
)

// Env is the runtime graph of the controller. Every hardware resource has
// exactly one guard, shared by all its users.
type Env struct {
	Config *Config
	Runner *framework.Runner

	Store       *state.Store
	Medium      nvs.Store
	Credentials *credentials.Store

	Indicator *hal.GuardedIndicator
	Actuator  *hal.GuardedActuator
	Gauge     *hal.GuardedBatteryGauge
	Pyro      *hal.GuardedPyroSensor
	Radio     *hal.GuardedRadio

	Connectivity *connectivity.Manager
	Supervisor   *connectivity.Supervisor
	Restarter    *system.Restarter
	Dispatcher   *command.Dispatcher
	Server       *server.Server
}

// NewEnv creates Env from config. The runner is bound to ctx.
func (c *Config) NewEnv(ctx context.Context) (*Env, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	env := &Env{
		Config: c,
		Runner: framework.NewRunnerWith(ctx),
		Store:  state.New(),
		Medium: c.openMedium(),
	}
	env.Credentials = credentials.NewStore(env.Medium)
	if err := c.Hardware.build(env); err != nil {
		return nil, err
	}

	env.Connectivity = connectivity.NewManager(env.Radio, env.Credentials, env.Store)
	env.Connectivity.ClientTimeout = c.Wifi.ClientTimeout
	env.Connectivity.AccessPoint = c.Wifi.AccessPoint
	env.Supervisor = &connectivity.Supervisor{
		Manager:     env.Connectivity,
		MinBackoff:  c.Wifi.Reconnect.MinBackoff,
		MaxBackoff:  c.Wifi.Reconnect.MaxBackoff,
		MaxAttempts: c.Wifi.Reconnect.MaxAttempts,
	}

	env.Restarter = system.NewRestarter(env.Runner.Stop)
	env.Dispatcher = &command.Dispatcher{
		Indicator:   env.Indicator,
		Actuator:    env.Actuator,
		Credentials: env.Credentials,
		Store:       env.Store,
		Restarter:   env.Restarter,
	}
	env.Server = &server.Server{
		Addr:           c.HTTPAddr,
		Store:          env.Store,
		Dispatcher:     env.Dispatcher,
		Indicator:      env.Indicator,
		StreamInterval: c.PollInterval,
	}
	return env, nil
}

// MustNewEnv creates Env and fails on error.
func (c *Config) MustNewEnv(ctx context.Context) *Env {
	env, err := c.NewEnv(ctx)
	if err != nil {
		glog.Exit(err)
	}
	return env
}

// openMedium opens the durable store. Storage failures are not fatal: a
// corrupt store stays in use until ResetNvs formats it, an unusable one is
// replaced by memory.
func (c *Config) openMedium() nvs.Store {
	if c.NVS.Path == "" {
		glog.Warning("nvs: no path configured, credentials are kept in memory")
		return nvs.NewMemStore()
	}
	store, err := nvs.OpenFileStore(c.NVS.Path, c.NVS.Capacity)
	if err != nil {
		glog.Warningf("nvs: %v", err)
	}
	if store == nil {
		glog.Warning("nvs: credentials are kept in memory")
		return nvs.NewMemStore()
	}
	return store
}

func (h *HardwareConfig) build(env *Env) error {
	var (
		gauge     hal.BatteryGauge
		pyro      hal.PyroSensor
		indicator hal.Indicator
		actuator  hal.Actuator
		radio     hal.Radio
	)
	switch h.Driver {
	case DriverSim:
		gauge = sim.NewGauge(h.SimDischargeRate)
		if len(h.SimPyro) == 2 {
			pyro = sim.NewPyro(h.SimPyro[0], h.SimPyro[1])
		} else {
			pyro = sim.NewPyro(0, 0)
		}
		indicator = &sim.Indicator{}
		actuator = &sim.Actuator{}
		radio = sim.NewRadio(h.SimNetworks)
	case DriverSysfs:
		gauge = sysfs.NewBattery(h.Battery)
		pyro = sysfs.NewADC(h.ADC, h.ADCInputs)
		indicator = sysfs.NewRGBLED(h.LEDs[0], h.LEDs[1], h.LEDs[2])
		actuator = sysfs.NewPWM(h.PWMChip, h.PWMChannel, h.PWMPeriod)
		radio = sysfs.NewNetdev(h.Interface)
	default:
		return fmt.Errorf("unknown hardware driver %q", h.Driver)
	}
	env.Gauge = hal.GuardBatteryGauge(gauge)
	env.Pyro = hal.GuardPyroSensor(pyro)
	env.Indicator = hal.GuardIndicator(indicator)
	env.Actuator = hal.GuardActuator(actuator)
	env.Radio = hal.GuardRadio(radio)
	return nil
}

// Pollers creates the telemetry pollers.
func (e *Env) Pollers() []framework.Runnable {
	return telemetry.Pollers(e.Gauge, e.Pyro, e.Store, e.Config.PollInterval)
}

// Advertiser creates the mDNS advertiser for the HTTP server bound at addr
// on the network interface with address ip. It returns nil when disabled.
func (e *Env) Advertiser(addr net.Addr, ip net.IP) *discovery.Advertiser {
	conf := e.Config.MDNS
	if conf.Disabled {
		return nil
	}
	a := &discovery.Advertiser{
		Hostname: conf.Hostname,
		Instance: conf.Instance,
		Service:  discovery.DefaultService,
		TXT:      []string{"board=" + conf.Board, "id=" + e.Config.DeviceID},
	}
	if tcp, ok := addr.(*net.TCPAddr); ok {
		a.Port = tcp.Port
	} else if _, port, err := net.SplitHostPort(addr.String()); err == nil {
		a.Port, _ = strconv.Atoi(port)
	}
	if ip != nil && e.Config.Hardware.Driver != DriverSim {
		a.IPs = []net.IP{ip}
	}
	return a
}

// Bridge creates the MQTT bridge. It returns nil when no broker is
// configured.
func (e *Env) Bridge(httpAddr string) (*mqtt.Bridge, error) {
	conf := e.Config
	if conf.MQTT.URL == "" {
		return nil, nil
	}
	queue, err := mqtt.Dial(conf.MQTT.URL, conf.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("mqtt: %v", err)
	}
	return &mqtt.Bridge{
		Transport: queue,
		Store:     e.Store,
		Commands:  e.Dispatcher,
		Meta: mqtt.Meta{
			DeviceID: conf.DeviceID,
			Board:    conf.MDNS.Board,
			HTTP:     httpAddr,
			Format:   conf.MQTT.Format,
		},
		Interval: conf.PollInterval,
	}, nil
}

// ShowStartup lights the indicator for a startup phase.
func (e *Env) ShowStartup(connected bool) {
	var err error
	if connected {
		err = e.Indicator.SetColor(0, 20, 0)
	} else {
		err = e.Indicator.SetColor(20, 0, 0)
	}
	if err != nil {
		glog.Warningf("indicator: %v", err)
	}
}

// ShowFailure blinks the indicator red. No network exists yet to report a
// failed bring-up otherwise.
func (e *Env) ShowFailure(times int, period time.Duration) {
	for n := 0; n < times; n++ {
		if err := e.Indicator.SetColor(20, 0, 0); err != nil {
			glog.Warningf("indicator: %v", err)
			return
		}
		time.Sleep(period / 2)
		e.Indicator.Off()
		time.Sleep(period / 2)
	}
	e.Indicator.SetColor(20, 0, 0)
}

// ConnectionLabel names the outcome of bring-up for logs.
func ConnectionLabel(res connectivity.Result) string {
	if res.Type == api.ClientConnected {
		return "client " + res.Address.String()
	}
	return "access point " + res.Address.String()
}
