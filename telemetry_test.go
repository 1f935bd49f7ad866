// telemetry_test.go

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
	"net"
	"testing"
	"time"
)

// fakeNavPort is the drone's navdata port. It learns the client's address
// from the activation datagram.
type fakeNavPort struct {
	t      *testing.T
	conn   *net.UDPConn
	client *net.UDPAddr
}

func (p *fakeNavPort) awaitActivation() {
	p.t.Helper()
	s, from := readDatagram(p.t, p.conn, time.Second)
	if !bytes.Equal([]byte(s), navdataActivation) {
		p.t.Fatalf("activation datagram %v, want %v", []byte(s), navdataActivation)
	}
	p.client = from
}

func (p *fakeNavPort) send(pkt []byte) {
	p.t.Helper()
	if _, err := p.conn.WriteToUDP(pkt, p.client); err != nil {
		p.t.Fatalf("send navdata: %v", err)
	}
}

func startTestTelemetry(t *testing.T, m *Metrics) (*Telemetry, *fakeNavPort) {
	t.Helper()
	drone := listenUDP(t)
	tel, err := DialTelemetry(context.Background(), drone.LocalAddr().String(), "127.0.0.1:0", testOptions(m)...)
	if err != nil {
		t.Fatalf("DialTelemetry: %v", err)
	}
	t.Cleanup(tel.Shutdown)
	p := &fakeNavPort{t: t, conn: drone}
	p.awaitActivation()
	return tel, p
}

func demoPacket(seq, battery uint32) []byte {
	d := sampleDemo()
	d.BatteryPercentage = battery
	return navPacket{seq: seq, options: [][]byte{demoOption(d)}}.bytes()
}

func queryUint(tel *Telemetry, key string) (uint64, bool) {
	v, ok := tel.Query(key)
	if !ok {
		return 0, false
	}
	u, ok := v.(Uint)
	return uint64(u), ok
}

func TestTelemetryDropsStalePackets(t *testing.T) {
	m := NewMetrics()
	tel, p := startTestTelemetry(t, m)

	if _, ok := tel.Query("battery_percentage"); ok {
		t.Error("battery_percentage present before any navdata")
	}

	p.send(demoPacket(5, 50))
	eventually(t, "first packet", func() bool {
		b, ok := queryUint(tel, "battery_percentage")
		return ok && b == 50
	})

	p.send(demoPacket(3, 10)) // older
	p.send(demoPacket(5, 20)) // duplicate
	p.send(navPacket{seq: 7}.bytes())
	eventually(t, "header-only packet", func() bool {
		s, ok := queryUint(tel, "sequence")
		return ok && s == 7
	})

	if b, _ := queryUint(tel, "battery_percentage"); b != 50 {
		t.Errorf("battery_percentage = %d, want 50 (stale packets must not merge)", b)
	}
	s := m.Stats()
	if s.NavdataAccepted != 2 || s.NavdataStale != 2 {
		t.Errorf("accepted %d stale %d, want 2 and 2", s.NavdataAccepted, s.NavdataStale)
	}
}

func TestTelemetryAcceptsFirstPacketWithAnySequence(t *testing.T) {
	tel, p := startTestTelemetry(t, NewMetrics())

	p.send(demoPacket(0, 33))
	eventually(t, "packet with sequence 0", func() bool {
		b, ok := queryUint(tel, "battery_percentage")
		return ok && b == 33
	})
}

func TestTelemetryIgnoresInvalidPackets(t *testing.T) {
	m := NewMetrics()
	tel, p := startTestTelemetry(t, m)

	p.send([]byte("definitely not navdata"))
	p.send(demoPacket(2, 61))
	eventually(t, "valid packet after garbage", func() bool {
		b, ok := queryUint(tel, "battery_percentage")
		return ok && b == 61
	})
	if s := m.Stats(); s.NavdataInvalid != 1 {
		t.Errorf("NavdataInvalid = %d, want 1", s.NavdataInvalid)
	}
	if _, ok := tel.Query("no_such_option"); ok {
		t.Error("unknown key reported present")
	}
}

func TestTelemetryShutdown(t *testing.T) {
	tel, _ := startTestTelemetry(t, NewMetrics())

	tel.Shutdown()
	select {
	case <-tel.Done():
	default:
		t.Fatal("Done not closed after Shutdown")
	}
	tel.Shutdown()

	if _, ok := tel.Query("sequence"); ok {
		t.Error("Query answered after Shutdown")
	}
	if _, _, err := tel.QueryContext(context.Background(), "sequence"); !errors.Is(err, ErrClosed) {
		t.Errorf("QueryContext after Shutdown = %v, want ErrClosed", err)
	}
}

func TestTelemetryQueryContextCancelled(t *testing.T) {
	tel, _ := startTestTelemetry(t, NewMetrics())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// a cancelled context may still win the race against a fast worker
	if _, _, err := tel.QueryContext(ctx, "sequence"); err != nil && !errors.Is(err, context.Canceled) {
		t.Errorf("QueryContext = %v, want nil or context.Canceled", err)
	}
}
