// link.go

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
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/hashicorp/go-hclog"
)

// State is the lifecycle stage of a Link.
type State int

// Link states
const (
	Disconnected State = iota
	Connecting
	Connected
	ShuttingDown
	Closed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case ShuttingDown:
		return "shutting down"
	case Closed:
		return "closed"
	}
	return "unknown"
}

// Link composes the command, navdata and config workers of one drone.
// A Link is single use: once shut down it stays Closed.
type Link struct {
	env workerEnv
	log hclog.Logger

	mu    sync.Mutex // protects the fields below
	state State
	cmd   *Dispatcher
	nav   *Telemetry
	conf  *ConfigSync
}

// NewLink prepares a link, nothing touches the network until Connect.
func NewLink(cfg Config, opts ...Option) *Link {
	env := newWorkerEnv(opts)
	env.cfg = cfg
	return &Link{
		env: env,
		log: env.log.Named("link"),
	}
}

// Connect validates the config, probes the drone, then starts the
// command, config and navdata workers. If any of them fails the ones
// already running are stopped before the error is returned and the link
// goes back to Disconnected.
func (l *Link) Connect(ctx context.Context) error {
	l.mu.Lock()
	switch l.state {
	case Disconnected:
		if err := l.env.cfg.Validate(); err != nil {
			l.mu.Unlock()
			return fmt.Errorf("link config: %w", err)
		}
	case Closed:
		l.mu.Unlock()
		return ErrClosed
	default:
		l.mu.Unlock()
		return ErrAlreadyConnected
	}
	l.state = Connecting
	l.mu.Unlock()

	cmd, conf, nav, err := l.start(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		l.state = Disconnected
		l.log.Error("connect failed", "error", err)
		return err
	}
	l.cmd, l.conf, l.nav = cmd, conf, nav
	l.state = Connected
	l.log.Info("connected", "drone", l.env.cfg.DroneHost)
	return nil
}

func (l *Link) start(ctx context.Context) (*Dispatcher, *ConfigSync, *Telemetry, error) {
	cfg := l.env.cfg
	if err := probe(ctx, cfg.addr(cfg.ProbePort), cfg); err != nil {
		return nil, nil, nil, err
	}

	opts := []Option{WithConfig(cfg), WithLogger(l.env.log), WithMetrics(l.env.metrics)}
	cmd, err := DialCommand(ctx, cfg.addr(cfg.CommandPort), cfg.LocalCommandAddr, opts...)
	if err != nil {
		return nil, nil, nil, err
	}
	conf, err := DialConfigSync(ctx, cfg.addr(cfg.ControlPort), opts...)
	if err != nil {
		cmd.Shutdown()
		return nil, nil, nil, err
	}
	nav, err := DialTelemetry(ctx, cfg.addr(cfg.NavdataPort), cfg.LocalNavdataAddr, opts...)
	if err != nil {
		conf.Shutdown()
		cmd.Shutdown()
		return nil, nil, nil, err
	}
	return cmd, conf, nav, nil
}

// probe checks the drone answers on a TCP port before any worker starts.
func probe(ctx context.Context, addr string, cfg Config) error {
	d := net.Dialer{Timeout: cfg.ProbeTimeout}
	c, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return &ConnectivityError{Addr: addr, Err: err}
	}
	c.Close()
	return nil
}

// connected returns the workers, or ErrNotConnected.
func (l *Link) connected() (*Dispatcher, *ConfigSync, *Telemetry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch l.state {
	case Connected:
		return l.cmd, l.conf, l.nav, nil
	case ShuttingDown, Closed:
		return nil, nil, nil, ErrClosed
	}
	return nil, nil, nil, ErrNotConnected
}

// Enqueue queues an AT command for transmission.
func (l *Link) Enqueue(name string, params ...string) error {
	cmd, _, _, err := l.connected()
	if err != nil {
		return err
	}
	return cmd.Enqueue(name, params...)
}

// QueryTelemetry returns the latest navdata value for key.
func (l *Link) QueryTelemetry(key string) (Value, bool) {
	_, _, nav, err := l.connected()
	if err != nil {
		return nil, false
	}
	return nav.Query(key)
}

// QueryTelemetryContext is QueryTelemetry bounded by ctx.
func (l *Link) QueryTelemetryContext(ctx context.Context, key string) (Value, bool, error) {
	_, _, nav, err := l.connected()
	if err != nil {
		return nil, false, err
	}
	return nav.QueryContext(ctx, key)
}

// QueryConfig returns the latest configuration value for key.
func (l *Link) QueryConfig(key string) (string, bool) {
	_, conf, _, err := l.connected()
	if err != nil {
		return "", false
	}
	return conf.Query(key)
}

// QueryConfigContext is QueryConfig bounded by ctx.
func (l *Link) QueryConfigContext(ctx context.Context, key string) (string, bool, error) {
	_, conf, _, err := l.connected()
	if err != nil {
		return "", false, err
	}
	return conf.QueryContext(ctx, key)
}

// State returns the current lifecycle state.
func (l *Link) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Stats returns the link counters.
func (l *Link) Stats() Stats {
	return l.env.metrics.Stats()
}

// Metrics returns the metric set shared by the workers.
func (l *Link) Metrics() *Metrics {
	return l.env.metrics
}

// Shutdown stops navdata, then config, then command, so the keepalive
// stream is the last thing to go. The link is Closed afterwards, also
// when it was never connected.
func (l *Link) Shutdown() error {
	l.mu.Lock()
	switch l.state {
	case Closed, ShuttingDown:
		l.mu.Unlock()
		return nil
	case Connecting:
		l.mu.Unlock()
		return ErrNotConnected
	case Disconnected:
		l.state = Closed
		l.mu.Unlock()
		return nil
	}
	l.state = ShuttingDown
	cmd, conf, nav := l.cmd, l.conf, l.nav
	l.mu.Unlock()

	l.log.Info("shutting down")
	nav.Shutdown()
	conf.Shutdown()
	cmd.Shutdown()

	l.mu.Lock()
	l.state = Closed
	l.cmd, l.conf, l.nav = nil, nil, nil
	l.mu.Unlock()
	l.log.Info("closed")
	return nil
}
