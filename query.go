// query.go

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
	"sync"
	"time"
)

type queryRequest[V any] struct {
	key   string
	reply chan queryReply[V]
	exit  bool
}

type queryReply[V any] struct {
	v  V
	ok bool
}

// rendezvous is the request/response pair shared by the navdata and config
// workers. Each request brings its own reply channel so concurrent callers
// never receive each other's answers.
type rendezvous[V any] struct {
	requests chan queryRequest[V]
	done     chan struct{}
	stop     sync.Once
	timeout  time.Duration
}

func newRendezvous[V any](timeout time.Duration) *rendezvous[V] {
	return &rendezvous[V]{
		requests: make(chan queryRequest[V]),
		done:     make(chan struct{}),
		timeout:  timeout,
	}
}

// query blocks until the worker answers, ctx ends or the worker is gone.
func (r *rendezvous[V]) query(ctx context.Context, key string) (V, bool, error) {
	var zero V
	reply := make(chan queryReply[V], 1)
	select {
	case r.requests <- queryRequest[V]{key: key, reply: reply}:
	case <-r.done:
		return zero, false, ErrClosed
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
	select {
	case rep := <-reply:
		return rep.v, rep.ok, nil
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
}

// queryDefault applies the configured timeout, if any, and folds every
// failure into "not present".
func (r *rendezvous[V]) queryDefault(key string) (V, bool) {
	ctx := context.Background()
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	v, ok, err := r.query(ctx, key)
	if err != nil {
		return v, false
	}
	return v, ok
}

// serve answers at most one request using lookup. With block false it
// returns straight away when nobody is asking. It reports true once the
// exit sentinel arrives or the request channel is closed.
func (r *rendezvous[V]) serve(block bool, lookup func(string) (V, bool)) bool {
	var (
		req queryRequest[V]
		ok  bool
	)
	if block {
		req, ok = <-r.requests
	} else {
		select {
		case req, ok = <-r.requests:
		default:
			return false
		}
	}
	if !ok || req.exit {
		return true
	}
	v, found := lookup(req.key)
	req.reply <- queryReply[V]{v: v, ok: found}
	return false
}

// shutdown sends the exit sentinel and waits for the worker to finish.
func (r *rendezvous[V]) shutdown() {
	r.stop.Do(func() {
		select {
		case r.requests <- queryRequest[V]{exit: true}:
		case <-r.done:
		}
		<-r.done
	})
}
