// options.go

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
	"github.com/hashicorp/go-hclog"
)

// workerEnv is what every worker and the link get from their Options.
type workerEnv struct {
	cfg     Config
	log     hclog.Logger
	metrics *Metrics
}

// Option customises a link or a standalone worker.
type Option func(*workerEnv)

// WithLogger sets the logger, workers log through named children of it.
func WithLogger(l hclog.Logger) Option {
	return func(e *workerEnv) { e.log = l }
}

// WithMetrics shares a Metrics between several workers.
func WithMetrics(m *Metrics) Option {
	return func(e *workerEnv) { e.metrics = m }
}

// WithConfig overrides the timing and sizing settings of a standalone worker.
// Links take their Config directly.
func WithConfig(c Config) Option {
	return func(e *workerEnv) { e.cfg = c }
}

func newWorkerEnv(opts []Option) workerEnv {
	env := workerEnv{cfg: DefaultConfig()}
	for _, o := range opts {
		o(&env)
	}
	if env.log == nil {
		env.log = hclog.L().Named("ardrone")
	}
	if env.metrics == nil {
		env.metrics = NewMetrics()
	}
	return env
}
