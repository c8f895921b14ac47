package deskctl

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/deskbridge/pkg/desk"
	fx "github.com/robotalks/deskbridge/pkg/framework"
	env "github.com/robotalks/deskbridge/pkg/l1/env/controller"
	"github.com/robotalks/deskbridge/pkg/serial"
	simdesk "github.com/robotalks/deskbridge/pkg/sim/desk"
)

// Config defines the configurations for the controller.
type Config struct {
	// DeskPort is the serial device connected to the motor controller.
	DeskPort string
	// RemotePort is the serial device connected to the remote, optional.
	RemotePort string
	Port       serial.PortOptions

	Interval  time.Duration
	Tolerance float64
	Resync    bool

	// Simulate replaces the desk line with a simulated desk at SimHeight.
	Simulate  bool
	SimHeight float64
}

var defaultConfig = Config{
	Port:      serial.DefaultPortOptions,
	Interval:  fx.DefaultInterval,
	Tolerance: desk.DefaultTolerance,
	SimHeight: 30,
}

func init() {
	if val := os.Getenv("DESK_DESK_PORT"); val != "" {
		defaultConfig.DeskPort = val
	}
	if val := os.Getenv("DESK_REMOTE_PORT"); val != "" {
		defaultConfig.RemotePort = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.DeskPort, "desk-port", defaultConfig.DeskPort, "Serial device connected to the desk.")
	flag.StringVar(&defaultConfig.RemotePort, "remote-port", defaultConfig.RemotePort, "Serial device connected to the remote.")
	flag.IntVar(&defaultConfig.Port.BaudRate, "baud", defaultConfig.Port.BaudRate, "Baud rate of both lines.")
	flag.IntVar(&defaultConfig.Port.DataBits, "data-bits", defaultConfig.Port.DataBits, "Data bits of both lines.")
	flag.IntVar(&defaultConfig.Port.StopBits, "stop-bits", defaultConfig.Port.StopBits, "Stop bits of both lines.")
	flag.StringVar(&defaultConfig.Port.Parity, "parity", defaultConfig.Port.Parity, "Parity of both lines: N, E or O.")
	flag.DurationVar(&defaultConfig.Interval, "tick", defaultConfig.Interval, "Interval of the control loop.")
	flag.Float64Var(&defaultConfig.Tolerance, "tolerance", defaultConfig.Tolerance, "Distance in inches to the target considered reached.")
	flag.BoolVar(&defaultConfig.Resync, "resync", defaultConfig.Resync, "Realign status frames on the sync bytes after line noise.")
	flag.BoolVar(&defaultConfig.Simulate, "simulate", defaultConfig.Simulate, "Use a simulated desk instead of the desk port.")
	flag.Float64Var(&defaultConfig.SimHeight, "sim-height", defaultConfig.SimHeight, "Initial height of the simulated desk.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewController opens the lines and creates a controller using the config.
func (c *Config) NewController(e *env.Env) (*Controller, error) {
	var deskLink desk.Link
	var lines []*serial.Line
	if c.Simulate {
		glog.Infof("simulated desk at %.1f in", c.SimHeight)
		deskLink = simdesk.New(c.SimHeight)
	} else {
		if c.DeskPort == "" {
			return nil, fmt.Errorf("desk port must be specified")
		}
		line, err := c.openLine("desk", c.DeskPort)
		if err != nil {
			return nil, err
		}
		deskLink, lines = line, append(lines, line)
	}

	var remoteLink desk.Link
	if c.RemotePort != "" {
		line, err := c.openLine("remote", c.RemotePort)
		if err != nil {
			for _, l := range lines {
				l.Port.Close()
			}
			return nil, err
		}
		remoteLink, lines = line, append(lines, line)
	}

	ctl := NewController(e, deskLink, remoteLink)
	ctl.Bridge.Position.Tolerance = c.Tolerance
	ctl.Bridge.Decoder.Resync = c.Resync
	ctl.Lines = lines
	return ctl, nil
}

func (c *Config) openLine(name, path string) (*serial.Line, error) {
	port, err := serial.Open(path, c.Port)
	if err != nil {
		return nil, err
	}
	glog.Infof("%s line %s (%s)", name, path, c.Port)
	return serial.NewLine(name, port), nil
}
