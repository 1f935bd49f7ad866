// droneconfig.go

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
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
)

// a line longer than this without a newline is garbage
const maxConfigLine = 64 * 1024

// ConfigSync is the caller's handle on the config worker, which reads the
// key = value dump the drone writes to its control port.
type ConfigSync struct {
	rv *rendezvous[string]
}

type configWorker struct {
	conn    net.Conn
	rv      *rendezvous[string]
	yield   time.Duration
	values  map[string]string
	pending []byte
	skip    bool // rest of a discarded overlong line
	eof     bool
	log     hclog.Logger
	metrics *Metrics
}

// DialConfigSync connects to the drone's control port and starts the worker.
func DialConfigSync(ctx context.Context, remote string, opts ...Option) (*ConfigSync, error) {
	env := newWorkerEnv(opts)
	d := net.Dialer{Timeout: env.cfg.DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", remote)
	if err != nil {
		return nil, &SocketError{Worker: "config", Op: "dial", Addr: remote, Err: err}
	}
	return startConfigSync(conn, env), nil
}

// StartConfigSync takes ownership of a connected stream and starts the
// worker. The stream is closed when the worker exits.
func StartConfigSync(conn net.Conn, opts ...Option) *ConfigSync {
	return startConfigSync(conn, newWorkerEnv(opts))
}

func startConfigSync(conn net.Conn, env workerEnv) *ConfigSync {
	c := &ConfigSync{rv: newRendezvous[string](env.cfg.QueryTimeout)}
	w := &configWorker{
		conn:    conn,
		rv:      c.rv,
		yield:   env.cfg.RecvYield,
		values:  make(map[string]string),
		log:     env.log.Named("config"),
		metrics: env.metrics,
	}
	go w.run()
	w.log.Info("config worker started", "remote", conn.RemoteAddr())
	return c
}

// Query returns the last value the drone reported for key.
func (c *ConfigSync) Query(key string) (string, bool) {
	return c.rv.queryDefault(key)
}

// QueryContext is Query bounded by ctx.
func (c *ConfigSync) QueryContext(ctx context.Context, key string) (string, bool, error) {
	return c.rv.query(ctx, key)
}

// Done is closed once the worker has exited.
func (c *ConfigSync) Done() <-chan struct{} {
	return c.rv.done
}

// Shutdown stops the worker and waits for it to close the stream.
func (c *ConfigSync) Shutdown() {
	c.rv.shutdown()
}

// ParseConfigLine splits one "key = value" line. Whitespace around key and
// value and a trailing CR are dropped.
func ParseConfigLine(line string) (key, value string, err error) {
	line = strings.TrimRight(line, "\r")
	k, v, ok := strings.Cut(line, "=")
	if !ok {
		return "", "", decodeErrorf(0, "no '=' in config line %q", line)
	}
	key = strings.TrimSpace(k)
	if key == "" {
		return "", "", decodeErrorf(0, "empty key in config line %q", line)
	}
	return key, strings.TrimSpace(v), nil
}

func (w *configWorker) run() {
	defer close(w.rv.done)
	defer w.conn.Close()

	buff := make([]byte, 4096)
	lookup := func(k string) (string, bool) {
		v, ok := w.values[k]
		return v, ok
	}
	for {
		// nothing more will arrive once the stream has ended, so just serve
		if w.rv.serve(w.eof, lookup) {
			w.log.Info("config worker stopped", "keys", len(w.values))
			return
		}
		if w.eof {
			continue
		}
		w.conn.SetReadDeadline(time.Now().Add(w.yield))
		n, err := w.conn.Read(buff)
		if n > 0 {
			w.feed(buff[:n])
		}
		if err == nil || isTimeout(err) {
			continue
		}
		if errors.Is(err, io.EOF) {
			w.log.Info("config stream closed by drone")
		} else {
			w.log.Warn("config stream read failed", "error", err)
		}
		w.flush()
		w.eof = true
	}
}

// feed appends freshly read bytes and consumes every complete line.
func (w *configWorker) feed(data []byte) {
	w.pending = append(w.pending, data...)
	for {
		i := bytes.IndexByte(w.pending, '\n')
		if i < 0 {
			break
		}
		if w.skip {
			w.skip = false
		} else {
			w.line(string(w.pending[:i]))
		}
		w.pending = w.pending[i+1:]
	}
	if len(w.pending) > maxConfigLine {
		if !w.skip {
			w.metrics.cfgInvalid.Inc()
			w.log.Debug("discarding overlong config line", "bytes", len(w.pending))
		}
		w.pending = nil
		w.skip = true
	}
}

// flush handles a final line the peer did not terminate.
func (w *configWorker) flush() {
	if len(w.pending) > 0 && !w.skip {
		w.line(string(w.pending))
	}
	w.pending = nil
}

func (w *configWorker) line(l string) {
	if strings.TrimSpace(l) == "" {
		return
	}
	k, v, err := ParseConfigLine(l)
	if err != nil {
		w.metrics.cfgInvalid.Inc()
		w.log.Debug("skipping config line", "error", err)
		return
	}
	w.values[k] = v
	w.metrics.cfgLines.Inc()
}
