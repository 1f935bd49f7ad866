// query_test.go

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
	"testing"
	"time"
)

func TestQueryTimeoutWithoutWorker(t *testing.T) {
	rv := newRendezvous[string](30 * time.Millisecond)

	start := time.Now()
	v, ok := rv.queryDefault("anything")
	elapsed := time.Since(start)
	if ok || v != "" {
		t.Errorf("queryDefault = (%q, %v), want (\"\", false)", v, ok)
	}
	if elapsed < 30*time.Millisecond || elapsed > 2*time.Second {
		t.Errorf("queryDefault returned after %v, want about 30ms", elapsed)
	}
}

func TestQueryTimeoutWaitingForReply(t *testing.T) {
	rv := newRendezvous[string](30 * time.Millisecond)
	// take the request but never answer it
	go func() { <-rv.requests }()

	start := time.Now()
	if _, ok := rv.queryDefault("anything"); ok {
		t.Error("unanswered query reported present")
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond || elapsed > 2*time.Second {
		t.Errorf("queryDefault returned after %v, want about 30ms", elapsed)
	}
}

func TestQueryContextDeadline(t *testing.T) {
	rv := newRendezvous[Value](0)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, _, err := rv.query(ctx, "sequence"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("query = %v, want context.DeadlineExceeded", err)
	}
}

func TestRendezvousServe(t *testing.T) {
	rv := newRendezvous[string](time.Second)
	values := map[string]string{"a": "1"}
	lookup := func(k string) (string, bool) {
		v, ok := values[k]
		return v, ok
	}

	if rv.serve(false, lookup) {
		t.Fatal("serve without a request reported exit")
	}
	go func() {
		defer close(rv.done)
		for !rv.serve(true, lookup) {
		}
	}()

	if v, ok := rv.queryDefault("a"); !ok || v != "1" {
		t.Errorf("a = (%q, %v)", v, ok)
	}
	if _, ok := rv.queryDefault("b"); ok {
		t.Error("b reported present")
	}
	rv.shutdown()
	rv.shutdown()
	if _, _, err := rv.query(context.Background(), "a"); !errors.Is(err, ErrClosed) {
		t.Errorf("query after shutdown = %v, want ErrClosed", err)
	}
}
