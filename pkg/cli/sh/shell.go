package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/rrr.go/pkg/api"
	"github.com/robotalks/rrr.go/pkg/client"
	"github.com/robotalks/rrr.go/pkg/discovery"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	Timeout     time.Duration
	// URL is connected on Run when set.
	URL string

	Shell  *ishell.Shell
	Client *client.Client
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly      bool
	outputJSON    bool
	deviceURL     = os.Getenv("RRR_URL")
	browseTimeout = 2 * time.Second

	// commands
	commands = []*ishell.Cmd{
		&DiscoverCmd,
		&ConnectCmd,
		&DisconnectCmd,
		&StateCmd,
		&WatchCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.StringVar(&deviceURL, "url", deviceURL, "Device URL, e.g. http://rrr.local.")
	flag.DurationVar(&browseTimeout, "browse-timeout", browseTimeout, "mDNS discovery timeout.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New() *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Timeout:     browseTimeout,
		URL:         deviceURL,

		Shell: ishell.New(),
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Client == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// Print writes obj as JSON or as text from format.
func (s *Shell) Print(c *ishell.Context, obj interface{}, format func() string) {
	if !s.OutputJSON {
		c.Println(format())
		return
	}
	out, err := json.Marshal(obj)
	if err != nil {
		c.Err(err)
		return
	}
	c.Println(string(out))
}

// DoCommand sends a command and prints the result.
func DoCommand(c *ishell.Context, cmd api.Command) error {
	s := ShellFrom(c)
	if s.Client == nil {
		err := fmt.Errorf("not connected")
		c.Err(err)
		return err
	}
	res, err := s.Client.Do(context.Background(), cmd)
	if err != nil {
		c.Err(err)
		return err
	}
	s.Print(c, res, func() string { return "OK" })
	return nil
}

// Discover browses the network for devices.
func (s *Shell) Discover() ([]discovery.Device, error) {
	return discovery.Browse(context.Background(), discovery.DefaultService, s.Timeout)
}

// SelectDevice discovers devices and asks for a choice.
func (s *Shell) SelectDevice() (*discovery.Device, error) {
	devices, err := s.Discover()
	if err != nil || len(devices) == 0 {
		return nil, err
	}
	var index int
	if len(devices) > 1 {
		if !s.Interactive {
			return nil, fmt.Errorf("more than 1 devices discovered in non-interactive mode")
		}
		items := make([]string, len(devices))
		for n, dev := range devices {
			items[n] = FormatDevice(dev)
		}
		index = s.Shell.MultiChoice(items, "Which one to connect?")
	}
	return &devices[index], nil
}

// Connect connects the device at url.
func (s *Shell) Connect(url string) error {
	cli := client.New(url)
	if _, err := cli.State(context.Background()); err != nil {
		return err
	}
	s.Client = cli
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", cli.BaseURL))
	return nil
}

// Disconnect forgets the current device.
func (s *Shell) Disconnect() {
	s.Client = nil
	s.Shell.SetPrompt(unconnectedPrompt)
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.URL != "" {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.URL)
		}
		if err := s.Connect(s.URL); err != nil {
			log.Fatalf("connect %q failed: %v", s.URL, err)
		}
	}

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// DiscoverCmd discovers devices.
	DiscoverCmd = ishell.Cmd{
		Name:    "discover",
		Aliases: []string{"list", "l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			devices, err := s.Discover()
			if err != nil {
				c.Err(err)
				return
			}
			if len(devices) == 0 {
				// in case devices is nil, make it empty slice.
				devices = []discovery.Device{}
			}
			s.Print(c, devices, func() string {
				if len(devices) == 0 {
					return "No devices found"
				}
				return FormatDevices(devices)
			})
		},
	}

	// ConnectCmd connects a device.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[URL]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			var url string
			if len(c.Args) > 0 {
				url = c.Args[0]
			} else {
				dev, err := s.SelectDevice()
				if err != nil {
					c.Err(err)
					return
				}
				if dev == nil {
					c.Err(fmt.Errorf("no device discovered"))
					return
				}
				url = dev.URL()
			}
			if err := s.Connect(url); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd disconnects current device.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}

	// StateCmd prints the device state.
	StateCmd = ishell.Cmd{
		Name:    "state",
		Aliases: []string{"s"},
		Help:    "",
		Func: MustBeConnected(func(c *ishell.Context) {
			s := ShellFrom(c)
			st, err := s.Client.State(context.Background())
			if err != nil {
				c.Err(err)
				return
			}
			s.Print(c, st, func() string { return FormatState(st) })
		}),
	}

	// WatchCmd prints state snapshots as they are pushed.
	WatchCmd = ishell.Cmd{
		Name:    "watch",
		Aliases: []string{"w"},
		Help:    "[COUNT]",
		Func: MustBeConnected(func(c *ishell.Context) {
			s := ShellFrom(c)
			count := 10
			if len(c.Args) > 0 {
				n, err := strconv.Atoi(c.Args[0])
				if err != nil || n <= 0 {
					c.Err(fmt.Errorf("Invalid COUNT: %s", c.Args[0]))
					return
				}
				count = n
			}
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			err := s.Client.Watch(ctx, func(st api.State) {
				s.Print(c, st, func() string { return FormatState(st) + "\n" })
				if count--; count == 0 {
					cancel()
				}
			})
			if err != nil && ctx.Err() == nil {
				c.Err(err)
			}
		}),
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New().Run(flag.Args()...)
}
