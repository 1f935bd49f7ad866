// helpers_test.go

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
	"encoding/binary"
	"math"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
)

// testConfig speeds everything up so tests don't wait on real drone timings.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.DroneHost = "127.0.0.1"
	cfg.LocalNavdataAddr = "127.0.0.1:0"
	cfg.PollInterval = 10 * time.Millisecond
	cfg.InitDelay = time.Millisecond
	cfg.ProbeTimeout = time.Second
	cfg.DialTimeout = time.Second
	cfg.RecvYield = 2 * time.Millisecond
	return cfg
}

func testOptions(m *Metrics) []Option {
	return []Option{WithConfig(testConfig()), WithLogger(hclog.NewNullLogger()), WithMetrics(m)}
}

// eventually polls cond until it holds or the timeout expires.
func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// listenUDP opens a loopback UDP socket playing the drone's side.
func listenUDP(t *testing.T) *net.UDPConn {
	t.Helper()
	c, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen udp: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

// readDatagram returns the next datagram, or "" after timeout.
func readDatagram(t *testing.T, c *net.UDPConn, timeout time.Duration) (string, *net.UDPAddr) {
	t.Helper()
	buff := make([]byte, 2048)
	c.SetReadDeadline(time.Now().Add(timeout))
	n, from, err := c.ReadFromUDP(buff)
	if err != nil {
		if isTimeout(err) {
			return "", nil
		}
		t.Fatalf("read udp: %v", err)
	}
	return string(buff[:n]), from
}

type atLine struct {
	name   string
	seq    uint32
	params []string
}

// parseATLines splits a datagram into its AT*NAME=seq,... lines.
func parseATLines(t *testing.T, datagram string) []atLine {
	t.Helper()
	var lines []atLine
	for _, raw := range strings.Split(datagram, "\r") {
		if raw == "" {
			continue
		}
		if !strings.HasPrefix(raw, "AT*") {
			t.Fatalf("not an AT line: %q", raw)
		}
		name, args, ok := strings.Cut(raw[3:], "=")
		if !ok {
			t.Fatalf("no '=' in %q", raw)
		}
		fields := strings.Split(args, ",")
		seq, err := strconv.ParseUint(fields[0], 10, 32)
		if err != nil {
			t.Fatalf("bad sequence in %q: %v", raw, err)
		}
		lines = append(lines, atLine{name: name, seq: uint32(seq), params: fields[1:]})
	}
	return lines
}

// navPacket builds navdata packets the way the drone lays them out.
type navPacket struct {
	state, seq, vision uint32
	options            [][]byte
}

func (p navPacket) bytes() []byte {
	b := make([]byte, navdataHeaderSize)
	binary.LittleEndian.PutUint32(b[0:], navdataMagic)
	binary.LittleEndian.PutUint32(b[4:], p.state)
	binary.LittleEndian.PutUint32(b[8:], p.seq)
	binary.LittleEndian.PutUint32(b[12:], p.vision)
	for _, o := range p.options {
		b = append(b, o...)
	}
	var cks uint32
	for _, c := range b {
		cks += uint32(c)
	}
	tail := make([]byte, 8)
	binary.LittleEndian.PutUint16(tail[0:], optionChecksum)
	binary.LittleEndian.PutUint16(tail[2:], 8)
	binary.LittleEndian.PutUint32(tail[4:], cks)
	return append(b, tail...)
}

// rawOption is an option header declaring size followed by filler bytes
// up to size (or nothing when size is below the header size).
func rawOption(id uint16, size int) []byte {
	n := size
	if n < optionHeaderSize {
		n = optionHeaderSize
	}
	b := make([]byte, n)
	binary.LittleEndian.PutUint16(b[0:], id)
	binary.LittleEndian.PutUint16(b[2:], uint16(size))
	for i := optionHeaderSize; i < n; i++ {
		b[i] = 0xa5
	}
	return b
}

func demoOption(d DemoData) []byte {
	b := make([]byte, 0, demoOptionSize)
	u16 := func(v uint16) { b = binary.LittleEndian.AppendUint16(b, v) }
	u32 := func(v uint32) { b = binary.LittleEndian.AppendUint32(b, v) }
	f32 := func(v float32) { u32(math.Float32bits(v)) }

	u16(optionDemo)
	u16(demoOptionSize)
	u32(d.CtrlState)
	u32(d.BatteryPercentage)
	f32(d.Theta)
	f32(d.Phi)
	f32(d.Psi)
	u32(uint32(d.Altitude))
	f32(d.Vx)
	f32(d.Vy)
	f32(d.Vz)
	u32(d.NumFrames)
	for _, v := range d.DetectionCameraRot {
		f32(v)
	}
	for _, v := range d.DetectionCameraTrans {
		f32(v)
	}
	u32(d.DetectionTagIndex)
	u32(d.DetectionCameraType)
	for _, v := range d.DroneCameraRot {
		f32(v)
	}
	for _, v := range d.DroneCameraTrans {
		f32(v)
	}
	return b
}
