// config_test.go

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
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ardrone.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}
	if got := cfg.addr(cfg.CommandPort); got != "192.168.1.1:5556" {
		t.Errorf("command address %s", got)
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeConfigFile(t, `
droneHost: 10.0.0.7
navdataPort: 6554
pollInterval: 30ms
queryTimeout: 2s
logLevel: debug
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.DroneHost != "10.0.0.7" || cfg.NavdataPort != 6554 {
		t.Errorf("drone = %s:%d", cfg.DroneHost, cfg.NavdataPort)
	}
	if cfg.PollInterval != 30*time.Millisecond || cfg.QueryTimeout != 2*time.Second {
		t.Errorf("timings = %v, %v", cfg.PollInterval, cfg.QueryTimeout)
	}
	// untouched fields keep their defaults
	if cfg.CommandPort != defaultCommandPort || cfg.KeepaliveAfter != 4 {
		t.Errorf("defaults lost: %+v", cfg)
	}
	if !strings.Contains(cfg.String(), "10.0.0.7:6554") {
		t.Errorf("String() does not show the navdata address:\n%s", cfg.String())
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := map[string]string{
		"unknown field": "droneHost: x\nbogus: 1\n",
		"bad port":      "commandPort: 70000\n",
		"bad duration":  "pollInterval: soon\n",
		"zero poll":     "pollInterval: 0s\n",
		"bad bind":      "localNavdataAddr: nope\n",
		"bad level":     "logLevel: loud\n",
	}
	for name, body := range tests {
		if _, err := LoadConfig(writeConfigFile(t, body)); err == nil {
			t.Errorf("%s: LoadConfig succeeded", name)
		}
	}
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadConfig of a missing file succeeded")
	}
}

func TestValidate(t *testing.T) {
	mutate := map[string]func(*Config){
		"empty host":       func(c *Config) { c.DroneHost = "" },
		"zero keepalive":   func(c *Config) { c.KeepaliveAfter = 0 },
		"zero queue":       func(c *Config) { c.QueueSize = 0 },
		"zero yield":       func(c *Config) { c.RecvYield = 0 },
		"negative timeout": func(c *Config) { c.QueryTimeout = -time.Second },
	}
	for name, m := range mutate {
		cfg := DefaultConfig()
		m(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: Validate succeeded", name)
		}
	}
}
