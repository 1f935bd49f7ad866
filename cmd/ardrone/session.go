// session.go

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

package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/viper"

	ardrone "github.com/VaranTavers/parrot-ar-drone"
)

// session is one connected drone plus the optional metrics endpoint.
type session struct {
	drone   *ardrone.Drone
	log     hclog.Logger
	metrics *http.Server
}

// openSession connects to the drone. With startup set the full Drone
// startup sequence runs (demo navdata, config refresh), otherwise only the
// link is brought up.
func openSession(ctx context.Context, startup bool) (*session, error) {
	cfg, err := linkConfig()
	if err != nil {
		return nil, err
	}
	log := newLogger(cfg.LogLevel)
	m := ardrone.NewMetrics()
	d := ardrone.NewDrone(cfg, ardrone.WithLogger(log), ardrone.WithMetrics(m))

	if startup {
		err = d.Startup(ctx)
	} else {
		err = d.Link().Connect(ctx)
	}
	if err != nil {
		return nil, err
	}

	s := &session{drone: d, log: log}
	if addr := viper.GetString("metrics-addr"); addr != "" {
		s.metrics = serveMetrics(addr, m, log)
	}
	return s, nil
}

func (s *session) Close() {
	if s.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		s.metrics.Shutdown(ctx)
	}
	if err := s.drone.Shutdown(); err != nil {
		s.log.Warn("shutdown", "error", err)
	}
}

func serveMetrics(addr string, m *ardrone.Metrics, log hclog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		m.WritePrometheus(w)
	})
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()
	log.Info("serving metrics", "addr", addr)
	return srv
}

// awaitValues polls lookup until every key is present or the --wait
// period has passed, and returns what was found.
func awaitValues(ctx context.Context, keys []string, lookup func(string) (string, bool)) []entry {
	ctx, cancel := context.WithTimeout(ctx, viper.GetDuration("wait"))
	defer cancel()
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		entries, complete := collect(keys, lookup)
		if complete {
			return entries
		}
		select {
		case <-ctx.Done():
			return entries
		case <-ticker.C:
		}
	}
}

func collect(keys []string, lookup func(string) (string, bool)) ([]entry, bool) {
	entries := make([]entry, 0, len(keys))
	complete := true
	for _, k := range keys {
		v, ok := lookup(k)
		complete = complete && ok
		entries = append(entries, entry{key: k, value: v, ok: ok})
	}
	return entries, complete
}

func navdataLookup(d *ardrone.Drone) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := d.Navdata(k)
		if !ok {
			return "", false
		}
		return v.String(), true
	}
}
