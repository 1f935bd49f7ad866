// config.go

// Copyright (C) 2024  VaranTavers

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package ardrone

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	defaultDroneHost   = "192.168.1.1"
	defaultNavdataPort = 5554
	defaultCommandPort = 5556
	defaultControlPort = 5559
	defaultProbePort   = 21 // the drone's FTP server answers as soon as it's up
)

// Config holds everything needed to open a link to one drone.
type Config struct {
	DroneHost   string `yaml:"droneHost"`
	CommandPort int    `yaml:"commandPort"`
	NavdataPort int    `yaml:"navdataPort"`
	ControlPort int    `yaml:"controlPort"`
	ProbePort   int    `yaml:"probePort"`

	// local bind addresses, host:port, empty means any
	LocalCommandAddr string `yaml:"localCommandAddr"`
	LocalNavdataAddr string `yaml:"localNavdataAddr"`

	PollInterval   time.Duration `yaml:"pollInterval"`
	KeepaliveAfter int           `yaml:"keepaliveAfter"` // empty polls before a COMWDG is sent
	InitDelay      time.Duration `yaml:"initDelay"`
	QueueSize      int           `yaml:"queueSize"`

	ProbeTimeout time.Duration `yaml:"probeTimeout"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	RecvYield    time.Duration `yaml:"recvYield"`    // longest a worker waits on its socket per iteration
	QueryTimeout time.Duration `yaml:"queryTimeout"` // 0 means Query waits forever

	LogLevel string `yaml:"logLevel"`
}

// DefaultConfig returns the settings for a stock drone on its own access point.
func DefaultConfig() Config {
	return Config{
		DroneHost:        defaultDroneHost,
		CommandPort:      defaultCommandPort,
		NavdataPort:      defaultNavdataPort,
		ControlPort:      defaultControlPort,
		ProbePort:        defaultProbePort,
		LocalNavdataAddr: ":" + strconv.Itoa(defaultNavdataPort),
		PollInterval:     50 * time.Millisecond,
		KeepaliveAfter:   4,
		InitDelay:        10 * time.Millisecond,
		QueueSize:        1024,
		ProbeTimeout:     2 * time.Second,
		DialTimeout:      3 * time.Second,
		RecvYield:        5 * time.Millisecond,
		LogLevel:         "info",
	}
}

// LoadConfig reads a YAML file over the defaults and validates the result.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the ranges of every field.
func (c *Config) Validate() error {
	if c.DroneHost == "" {
		return fmt.Errorf("droneHost must be set")
	}
	ports := map[string]int{
		"commandPort": c.CommandPort,
		"navdataPort": c.NavdataPort,
		"controlPort": c.ControlPort,
		"probePort":   c.ProbePort,
	}
	for name, p := range ports {
		if p <= 0 || p > 65535 {
			return fmt.Errorf("%s %d out of range", name, p)
		}
	}
	for name, a := range map[string]string{"localCommandAddr": c.LocalCommandAddr, "localNavdataAddr": c.LocalNavdataAddr} {
		if a == "" {
			continue
		}
		if _, _, err := net.SplitHostPort(a); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("pollInterval must be positive")
	}
	if c.KeepaliveAfter < 1 {
		return fmt.Errorf("keepaliveAfter must be at least 1")
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("queueSize must be at least 1")
	}
	if c.RecvYield <= 0 {
		return fmt.Errorf("recvYield must be positive")
	}
	if c.InitDelay < 0 || c.ProbeTimeout < 0 || c.DialTimeout < 0 || c.QueryTimeout < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "trace", "debug", "info", "warn", "error", "off":
	default:
		return fmt.Errorf("invalid logLevel %q", c.LogLevel)
	}
	return nil
}

func (c *Config) addr(port int) string {
	return net.JoinHostPort(c.DroneHost, strconv.Itoa(port))
}

// String returns a formatted dump of the configuration
func (c *Config) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}
	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}
	orAny := func(a string) string {
		if a == "" {
			return "any"
		}
		return a
	}

	addSection("Drone")
	addField("Command", c.addr(c.CommandPort))
	addField("Navdata", c.addr(c.NavdataPort))
	addField("Control", c.addr(c.ControlPort))
	addField("Probe", c.addr(c.ProbePort))

	addSection("Local")
	addField("Command Bind", orAny(c.LocalCommandAddr))
	addField("Navdata Bind", orAny(c.LocalNavdataAddr))

	addSection("Timing")
	addField("Poll Interval", c.PollInterval.String())
	addField("Keepalive After", fmt.Sprintf("%d polls", c.KeepaliveAfter))
	addField("Init Delay", c.InitDelay.String())
	addField("Probe Timeout", c.ProbeTimeout.String())
	addField("Dial Timeout", c.DialTimeout.String())
	addField("Receive Yield", c.RecvYield.String())
	addField("Query Timeout", c.QueryTimeout.String())
	addField("Queue Size", strconv.Itoa(c.QueueSize))

	addSection("Logging")
	addField("Log Level", c.LogLevel)
	return sb.String()
}
