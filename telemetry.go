// telemetry.go

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
	"errors"
	"net"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Telemetry is the caller's handle on the navdata worker. The option set
// lives inside the worker and is only reachable through Query.
type Telemetry struct {
	rv *rendezvous[Value]
}

type navWorker struct {
	conn    *net.UDPConn
	rv      *rendezvous[Value]
	yield   time.Duration
	options OptionSet
	seen    bool
	maxSeq  uint32
	log     hclog.Logger
	metrics *Metrics
}

// DialTelemetry binds local, connects to the drone's navdata port at remote
// and starts the worker.
func DialTelemetry(ctx context.Context, remote, local string, opts ...Option) (*Telemetry, error) {
	env := newWorkerEnv(opts)
	conn, err := dialUDP(ctx, local, remote, env.cfg.DialTimeout)
	if err != nil {
		return nil, &SocketError{Worker: "navdata", Op: "bind", Addr: remote, Err: err}
	}
	return startTelemetry(conn, env)
}

// StartTelemetry takes ownership of an already bound and connected UDP
// socket, requests the demo navdata stream and starts the worker. The socket
// is closed on failure and when the worker exits.
func StartTelemetry(conn *net.UDPConn, opts ...Option) (*Telemetry, error) {
	return startTelemetry(conn, newWorkerEnv(opts))
}

func startTelemetry(conn *net.UDPConn, env workerEnv) (*Telemetry, error) {
	log := env.log.Named("navdata")
	if _, err := conn.Write(navdataActivation); err != nil {
		conn.Close()
		return nil, &SocketError{Worker: "navdata", Op: "activate", Addr: addrString(conn.RemoteAddr()), Err: err}
	}
	t := &Telemetry{rv: newRendezvous[Value](env.cfg.QueryTimeout)}
	w := &navWorker{
		conn:    conn,
		rv:      t.rv,
		yield:   env.cfg.RecvYield,
		options: OptionSet{},
		log:     log,
		metrics: env.metrics,
	}
	go w.run()
	log.Info("navdata worker started", "remote", conn.RemoteAddr(), "local", conn.LocalAddr())
	return t, nil
}

// Query returns the latest merged value for key. It waits for the worker
// for at most the configured query timeout, if one is set.
func (t *Telemetry) Query(key string) (Value, bool) {
	return t.rv.queryDefault(key)
}

// QueryContext is Query bounded by ctx.
func (t *Telemetry) QueryContext(ctx context.Context, key string) (Value, bool, error) {
	return t.rv.query(ctx, key)
}

// Done is closed once the worker has exited.
func (t *Telemetry) Done() <-chan struct{} {
	return t.rv.done
}

// Shutdown stops the worker and waits for it to close its socket.
func (t *Telemetry) Shutdown() {
	t.rv.shutdown()
}

func (w *navWorker) run() {
	defer close(w.rv.done)
	defer w.conn.Close()

	buff := make([]byte, maxNavdataSize)
	lookup := func(k string) (Value, bool) {
		v, ok := w.options[k]
		return v, ok
	}
	for {
		if w.rv.serve(false, lookup) {
			w.log.Info("navdata worker stopped", "last_sequence", w.maxSeq)
			return
		}
		w.conn.SetReadDeadline(time.Now().Add(w.yield))
		n, err := w.conn.Read(buff)
		if err != nil {
			if isTimeout(err) {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				w.log.Error("navdata socket closed under the worker")
				// keep answering queries until told to stop
				for !w.rv.serve(true, lookup) {
				}
				return
			}
			// eg. ICMP port unreachable while the drone boots
			w.metrics.navRecvErrs.Inc()
			w.log.Debug("navdata receive failed", "error", err)
			time.Sleep(w.yield)
			continue
		}
		w.ingest(buff[:n])
	}
}

// ingest decodes one packet and merges it if it is fresher than anything
// accepted so far.
func (w *navWorker) ingest(pkt []byte) {
	nd, err := DecodeNavdata(pkt)
	if err != nil {
		w.metrics.navInvalid.Inc()
		w.log.Debug("dropping navdata packet", "bytes", len(pkt), "error", err)
		return
	}
	if w.seen && nd.Sequence <= w.maxSeq {
		w.metrics.navStale.Inc()
		w.log.Trace("dropping stale navdata", "sequence", nd.Sequence, "latest", w.maxSeq)
		return
	}
	w.seen = true
	w.maxSeq = nd.Sequence
	w.options.merge(nd.Options())
	w.metrics.navAccepted.Inc()
}

func addrString(a net.Addr) string {
	if a == nil {
		return ""
	}
	return a.String()
}
