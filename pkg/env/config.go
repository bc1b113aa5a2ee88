// Package env configures the controller and builds its runtime graph.
//
// Configuration precedence, lowest first: built-in defaults, RRR_*
// environment variables, the yaml config file, command line flags.
package env

import (
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/robotalks/rrr.go/pkg/comm/mqtt"
	"github.com/robotalks/rrr.go/pkg/connectivity"
	"github.com/robotalks/rrr.go/pkg/discovery"
	"github.com/robotalks/rrr.go/pkg/nvs"
	"github.com/robotalks/rrr.go/pkg/telemetry"
)

// Hardware drivers.
const (
	DriverSim   = "sim"
	DriverSysfs = "sysfs"
)

// Config is the controller configuration.
type Config struct {
	// DeviceID identifies the device on MQTT, the machine id by default.
	DeviceID     string        `yaml:"device_id"`
	HTTPAddr     string        `yaml:"http_addr"`
	PollInterval time.Duration `yaml:"poll_interval"`

	NVS      NVSConfig      `yaml:"nvs"`
	Wifi     WifiConfig     `yaml:"wifi"`
	MDNS     MDNSConfig     `yaml:"mdns"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Hardware HardwareConfig `yaml:"hardware"`
}

// NVSConfig locates the durable store. An empty path keeps it in memory.
type NVSConfig struct {
	Path     string `yaml:"path"`
	Capacity int    `yaml:"capacity"`
}

// WifiConfig configures network bring-up.
type WifiConfig struct {
	ClientTimeout time.Duration            `yaml:"client_timeout"`
	AccessPoint   connectivity.AccessPoint `yaml:"access_point"`
	Reconnect     ReconnectConfig          `yaml:"reconnect"`
}

// ReconnectConfig bounds the reconnection backoff.
type ReconnectConfig struct {
	MinBackoff  time.Duration `yaml:"min_backoff"`
	MaxBackoff  time.Duration `yaml:"max_backoff"`
	MaxAttempts int           `yaml:"max_attempts"`
}

// MDNSConfig configures the service advertisement.
type MDNSConfig struct {
	Disabled bool   `yaml:"disabled"`
	Hostname string `yaml:"hostname"`
	Instance string `yaml:"instance"`
	Board    string `yaml:"board"`
}

// MQTTConfig configures the broker bridge. An empty URL disables it.
type MQTTConfig struct {
	// URL of the broker, e.g. mqtt://host:1883/rrr/
	URL    string      `yaml:"url"`
	Format mqtt.Format `yaml:"format"`
}

// HardwareConfig selects the drivers.
type HardwareConfig struct {
	Driver string `yaml:"driver"`

	// sim driver.
	SimNetworks      map[string]string `yaml:"sim_networks"`
	SimDischargeRate float32           `yaml:"sim_discharge_rate"`
	SimPyro          []float32         `yaml:"sim_pyro"`

	// sysfs driver.
	Battery    string        `yaml:"battery"`
	LEDs       []string      `yaml:"leds"`
	ADC        string        `yaml:"adc"`
	ADCInputs  map[int]int   `yaml:"adc_inputs"`
	PWMChip    string        `yaml:"pwm_chip"`
	PWMChannel int           `yaml:"pwm_channel"`
	PWMPeriod  time.Duration `yaml:"pwm_period"`
	Interface  string        `yaml:"interface"`
}

var defaultConfig = Config{
	HTTPAddr:     ":80",
	PollInterval: telemetry.DefaultInterval,
	NVS: NVSConfig{
		Capacity: nvs.DefaultCapacity,
	},
	Wifi: WifiConfig{
		ClientTimeout: connectivity.DefaultClientTimeout,
		AccessPoint:   connectivity.DefaultAccessPoint,
		Reconnect: ReconnectConfig{
			MinBackoff:  connectivity.DefaultMinBackoff,
			MaxBackoff:  connectivity.DefaultMaxBackoff,
			MaxAttempts: connectivity.DefaultMaxAttempts,
		},
	},
	MDNS: MDNSConfig{
		Hostname: discovery.DefaultHostname,
		Instance: discovery.DefaultInstance,
		Board:    "esp32",
	},
	MQTT: MQTTConfig{
		Format: mqtt.FormatJSON,
	},
	Hardware: HardwareConfig{
		Driver:           DriverSim,
		SimDischargeRate: 10,
		Battery:          "BAT0",
		LEDs:             []string{"rgb:red", "rgb:green", "rgb:blue"},
		ADC:              "iio:device0",
		ADCInputs:        map[int]int{1: 0, 2: 1},
		PWMChip:          "pwmchip0",
		PWMPeriod:        20 * time.Millisecond,
		Interface:        "wlan0",
	},
}

var configFile string

func init() {
	if id, err := MachineID(); err == nil {
		defaultConfig.DeviceID = id
	}
	applyEnv(&defaultConfig, os.Getenv)
}

func applyEnv(c *Config, getenv func(string) string) {
	if val := getenv("RRR_DEVICE_ID"); val != "" {
		c.DeviceID = val
	}
	if val := getenv("RRR_HTTP_ADDR"); val != "" {
		c.HTTPAddr = val
	}
	if val := getenv("RRR_NVS_PATH"); val != "" {
		c.NVS.Path = val
	}
	if val := getenv("RRR_MQTT_URL"); val != "" {
		c.MQTT.URL = val
	}
	if val := getenv("RRR_MQTT_FORMAT"); val != "" {
		c.MQTT.Format = mqtt.Format(val)
	}
	if val := getenv("RRR_HARDWARE"); val != "" {
		c.Hardware.Driver = val
	}
	if val := getenv("RRR_POLL_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			c.PollInterval = d
		}
	}
	if val := getenv("RRR_MDNS_DISABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			c.MDNS.Disabled = b
		}
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&configFile, "config", configFile, "Config file (yaml)")
	flag.StringVar(&defaultConfig.DeviceID, "id", defaultConfig.DeviceID, "Device ID")
	flag.StringVar(&defaultConfig.HTTPAddr, "http", defaultConfig.HTTPAddr, "HTTP listen address")
	flag.DurationVar(&defaultConfig.PollInterval, "poll", defaultConfig.PollInterval, "Telemetry poll interval")
	flag.StringVar(&defaultConfig.NVS.Path, "nvs", defaultConfig.NVS.Path, "Durable store file, in memory if empty")
	flag.StringVar(&defaultConfig.MQTT.URL, "mqtt", defaultConfig.MQTT.URL, "MQTT broker URL, disabled if empty")
	flag.StringVar((*string)(&defaultConfig.MQTT.Format), "mqtt-format", string(defaultConfig.MQTT.Format), "MQTT state frame format: json, proto")
	flag.BoolVar(&defaultConfig.MDNS.Disabled, "no-mdns", defaultConfig.MDNS.Disabled, "Disable mDNS advertisement")
	flag.StringVar(&defaultConfig.Hardware.Driver, "hw", defaultConfig.Hardware.Driver, "Hardware driver: sim, sysfs")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	return defaultConfig.clone()
}

func (c *Config) clone() *Config {
	conf := *c
	hw := &conf.Hardware
	hw.SimNetworks = make(map[string]string, len(c.Hardware.SimNetworks))
	for ssid, password := range c.Hardware.SimNetworks {
		hw.SimNetworks[ssid] = password
	}
	hw.ADCInputs = make(map[int]int, len(c.Hardware.ADCInputs))
	for ch, input := range c.Hardware.ADCInputs {
		hw.ADCInputs[ch] = input
	}
	hw.SimPyro = append([]float32(nil), c.Hardware.SimPyro...)
	hw.LEDs = append([]string(nil), c.Hardware.LEDs...)
	return &conf
}

// Load builds the config from defaults, environment, the file given by
// -config and flags, and validates it.
func Load() (*Config, error) {
	if configFile != "" {
		data, err := ioutil.ReadFile(configFile)
		if err != nil {
			return nil, err
		}
		set := make(map[string]string)
		flag.Visit(func(f *flag.Flag) { set[f.Name] = f.Value.String() })
		if err = yaml.Unmarshal(data, &defaultConfig); err != nil {
			return nil, fmt.Errorf("%s: %v", configFile, err)
		}
		for name, val := range set {
			flag.Set(name, val)
		}
	}
	conf := NewConfig()
	return conf, conf.Validate()
}

// Open reads a config file over the defaults.
func Open(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return OpenReader(f)
}

// OpenReader reads a config over the defaults.
func OpenReader(r io.Reader) (*Config, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return OpenRaw(data)
}

// OpenRaw decodes a config over the defaults.
func OpenRaw(data []byte) (*Config, error) {
	conf := NewConfig()
	if err := yaml.Unmarshal(data, conf); err != nil {
		return nil, err
	}
	return conf, nil
}

// Validate checks the config.
func (c *Config) Validate() error {
	if c.DeviceID == "" {
		return fmt.Errorf("device id required")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	if err := c.Wifi.AccessPoint.Validate(); err != nil {
		return fmt.Errorf("wifi: %v", err)
	}
	if r := c.Wifi.Reconnect; r.MinBackoff <= 0 || r.MaxBackoff < r.MinBackoff || r.MaxAttempts <= 0 {
		return fmt.Errorf("wifi: invalid reconnect bounds")
	}
	if c.MQTT.URL != "" && !c.MQTT.Format.Valid() {
		return fmt.Errorf("mqtt: unknown format %q", c.MQTT.Format)
	}
	switch c.Hardware.Driver {
	case DriverSim:
		if n := len(c.Hardware.SimPyro); n != 0 && n != 2 {
			return fmt.Errorf("hardware: sim_pyro needs 2 values")
		}
	case DriverSysfs:
		if len(c.Hardware.LEDs) != 3 {
			return fmt.Errorf("hardware: leds needs red, green and blue")
		}
	default:
		return fmt.Errorf("unknown hardware driver %q", c.Hardware.Driver)
	}
	return nil
}
