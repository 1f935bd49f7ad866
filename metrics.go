// metrics.go

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
	"io"

	"github.com/VictoriaMetrics/metrics"
	"github.com/puzpuzpuz/xsync/v3"
)

// Metrics counts link activity. One Metrics is shared by the workers of a
// link; counters are safe for concurrent use.
type Metrics struct {
	set *metrics.Set

	commandsSent   *metrics.Counter
	keepalivesSent *metrics.Counter
	sendErrors     *metrics.Counter
	queueDepth     *xsync.Counter // producers Inc, dispatch worker Dec

	navAccepted *metrics.Counter
	navStale    *metrics.Counter
	navInvalid  *metrics.Counter
	navRecvErrs *metrics.Counter

	cfgLines   *metrics.Counter
	cfgInvalid *metrics.Counter
}

// Stats is a point-in-time copy of the link counters.
type Stats struct {
	CommandsSent    uint64
	KeepalivesSent  uint64
	SendErrors      uint64
	QueueDepth      int64
	NavdataAccepted uint64
	NavdataStale    uint64
	NavdataInvalid  uint64
	NavdataRecvErrs uint64
	ConfigLines     uint64
	ConfigInvalid   uint64
}

// NewMetrics creates an independent metric set so several links can
// coexist in one process.
func NewMetrics() *Metrics {
	s := metrics.NewSet()
	m := &Metrics{
		set:            s,
		commandsSent:   s.NewCounter("ardrone_commands_sent_total"),
		keepalivesSent: s.NewCounter("ardrone_keepalives_sent_total"),
		sendErrors:     s.NewCounter("ardrone_command_send_errors_total"),
		queueDepth:     xsync.NewCounter(),
		navAccepted:    s.NewCounter(`ardrone_navdata_packets_total{result="accepted"}`),
		navStale:       s.NewCounter(`ardrone_navdata_packets_total{result="stale"}`),
		navInvalid:     s.NewCounter(`ardrone_navdata_packets_total{result="invalid"}`),
		navRecvErrs:    s.NewCounter("ardrone_navdata_receive_errors_total"),
		cfgLines:       s.NewCounter(`ardrone_config_lines_total{result="ok"}`),
		cfgInvalid:     s.NewCounter(`ardrone_config_lines_total{result="invalid"}`),
	}
	s.NewGauge("ardrone_command_queue_depth", func() float64 {
		return float64(m.queueDepth.Value())
	})
	return m
}

// Stats snapshots the counters.
func (m *Metrics) Stats() Stats {
	return Stats{
		CommandsSent:    m.commandsSent.Get(),
		KeepalivesSent:  m.keepalivesSent.Get(),
		SendErrors:      m.sendErrors.Get(),
		QueueDepth:      m.queueDepth.Value(),
		NavdataAccepted: m.navAccepted.Get(),
		NavdataStale:    m.navStale.Get(),
		NavdataInvalid:  m.navInvalid.Get(),
		NavdataRecvErrs: m.navRecvErrs.Get(),
		ConfigLines:     m.cfgLines.Get(),
		ConfigInvalid:   m.cfgInvalid.Get(),
	}
}

// WritePrometheus writes the counters in Prometheus text format.
func (m *Metrics) WritePrometheus(w io.Writer) {
	m.set.WritePrometheus(w)
}
