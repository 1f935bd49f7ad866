// dispatch.go

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
	"net"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
)

// dispatchMsg travels down the command queue, exit is the shutdown sentinel.
type dispatchMsg struct {
	cmd  Command
	exit bool
}

// Dispatcher is the caller's handle on the command worker. The worker owns
// the UDP command socket; callers only ever append to its queue.
type Dispatcher struct {
	queue chan dispatchMsg
	done  chan struct{}
	stop  sync.Once

	mu      sync.RWMutex // Enqueue holds it shared, so no command slips in behind the sentinel
	closing bool

	metrics *Metrics
}

type dispatchWorker struct {
	conn           net.Conn
	queue          <-chan dispatchMsg
	done           chan<- struct{}
	interval       time.Duration
	tick           <-chan time.Time // nil means a ticker at interval
	keepaliveAfter int
	seq            uint32
	log            hclog.Logger
	metrics        *Metrics
}

// DialCommand binds local (empty for any port), connects to the drone's AT
// command port at remote, sends the initialisation lines and starts the
// dispatch worker.
func DialCommand(ctx context.Context, remote, local string, opts ...Option) (*Dispatcher, error) {
	env := newWorkerEnv(opts)
	conn, err := dialUDP(ctx, local, remote, env.cfg.DialTimeout)
	if err != nil {
		return nil, &SocketError{Worker: "command", Op: "bind", Addr: remote, Err: err}
	}
	return startDispatcher(conn, env), nil
}

func startDispatcher(conn net.Conn, env workerEnv) *Dispatcher {
	log := env.log.Named("command")

	// the drone never acks these, so a failed write is only worth a warning
	if _, err := conn.Write([]byte(initLine1)); err != nil {
		log.Warn("failed to send init line", "error", err)
		env.metrics.sendErrors.Inc()
	}
	time.Sleep(env.cfg.InitDelay)
	if _, err := conn.Write([]byte(initLine2)); err != nil {
		log.Warn("failed to send PMODE/MISC init", "error", err)
		env.metrics.sendErrors.Inc()
	}

	d := &Dispatcher{
		queue:   make(chan dispatchMsg, env.cfg.QueueSize),
		done:    make(chan struct{}),
		metrics: env.metrics,
	}
	w := &dispatchWorker{
		conn:           conn,
		queue:          d.queue,
		done:           d.done,
		interval:       env.cfg.PollInterval,
		keepaliveAfter: env.cfg.KeepaliveAfter,
		log:            log,
		metrics:        env.metrics,
	}
	go w.run()
	log.Info("command worker started", "remote", conn.RemoteAddr(), "local", conn.LocalAddr())
	return d
}

// Enqueue appends a command to the queue. It only blocks when the queue is
// full, until the worker has drained a slot.
func (d *Dispatcher) Enqueue(name string, params ...string) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closing {
		return ErrClosed
	}
	msg := dispatchMsg{cmd: Command{Name: name, Params: append([]string(nil), params...)}}
	d.metrics.queueDepth.Inc()
	select {
	case d.queue <- msg:
		return nil
	case <-d.done:
		d.metrics.queueDepth.Dec()
		return ErrClosed
	}
}

// Pending returns the number of queued commands not yet transmitted.
func (d *Dispatcher) Pending() int64 {
	return d.metrics.queueDepth.Value()
}

// Done is closed once the worker has exited and its socket is closed.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

// Shutdown queues the exit sentinel behind any pending commands and waits
// for the worker to exit. Later calls return immediately.
func (d *Dispatcher) Shutdown() {
	d.stop.Do(func() {
		d.mu.Lock()
		d.closing = true
		d.mu.Unlock()
		select {
		case d.queue <- dispatchMsg{exit: true}:
		case <-d.done:
		}
		<-d.done
	})
}

func (w *dispatchWorker) run() {
	defer close(w.done)
	defer w.conn.Close()

	if w.tick == nil {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		w.tick = ticker.C
	}

	idle := 0
	for {
		select {
		case msg, ok := <-w.queue:
			if !ok {
				w.log.Debug("command queue closed")
				return
			}
			if msg.exit {
				w.log.Info("command worker stopped", "sent", w.seq)
				return
			}
			w.metrics.queueDepth.Dec()
			idle = 0
			if w.send(msg.cmd.Name, msg.cmd.Params) {
				w.metrics.commandsSent.Inc()
			}
		default:
			idle++
			if idle >= w.keepaliveAfter {
				idle = 0
				if w.send(cmdWatchdog, nil) {
					w.metrics.keepalivesSent.Inc()
				}
			}
		}
		<-w.tick
	}
}

// send numbers and writes one command. The sequence number is consumed even
// if the write fails.
func (w *dispatchWorker) send(name string, params []string) bool {
	w.seq++
	line := formatCommand(w.seq, name, params)
	if _, err := w.conn.Write([]byte(line)); err != nil {
		w.metrics.sendErrors.Inc()
		w.log.Warn("failed to send command", "command", name, "seq", w.seq, "error", err)
		return false
	}
	if name != cmdWatchdog {
		w.log.Trace("sent", "line", line[:len(line)-1])
	}
	return true
}
