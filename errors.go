// errors.go

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
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned by link operations issued before Connect succeeded.
	ErrNotConnected = errors.New("drone link not connected")
	// ErrAlreadyConnected is returned by a second Connect on the same link.
	ErrAlreadyConnected = errors.New("drone link already connected or connecting")
	// ErrClosed is returned once a worker or link has been shut down.
	ErrClosed = errors.New("drone link closed")
)

// ConnectivityError reports that the vehicle did not answer the reachability probe.
type ConnectivityError struct {
	Addr string
	Err  error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("drone not reachable at %s: %v", e.Addr, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// SocketError reports a failure to set up the socket owned by one worker.
type SocketError struct {
	Worker string // command, navdata or config
	Op     string // bind, dial, activate...
	Addr   string
	Err    error
}

func (e *SocketError) Error() string {
	return fmt.Sprintf("%s worker: %s %s: %v", e.Worker, e.Op, e.Addr, e.Err)
}

func (e *SocketError) Unwrap() error { return e.Err }

// DecodeError describes why a single navdata packet or config line was dropped.
// Workers absorb these, they are only returned by the pure decode functions.
type DecodeError struct {
	Offset int
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode error at offset %d: %s", e.Offset, e.Reason)
}

func decodeErrorf(offset int, format string, args ...interface{}) *DecodeError {
	return &DecodeError{Offset: offset, Reason: fmt.Sprintf(format, args...)}
}
