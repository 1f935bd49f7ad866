// watch.go

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
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

var watchCmd = &cobra.Command{
	Use:   "watch [keys...]",
	Short: "Print navdata options periodically until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		keys := args
		if len(keys) == 0 {
			keys = defaultNavdataKeys
		}
		interval, _ := cmd.Flags().GetDuration("interval")
		if interval <= 0 {
			return fmt.Errorf("interval must be positive")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		s, err := openSession(ctx, true)
		if err != nil {
			return err
		}
		defer s.Close()

		out := cmd.OutOrStdout()
		redraw := isTerminal(out)
		lookup := navdataLookup(s.drone)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			entries, _ := collect(keys, lookup)
			if redraw {
				fmt.Fprint(out, "\033[H\033[2J")
				if err := render(out, viper.GetString("output"), entries); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(out, watchLine(time.Now(), entries))
			}
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	},
}

func init() {
	watchCmd.Flags().Duration("interval", 500*time.Millisecond, wrapString("time between samples"))
}

// watchLine renders one sample for a pipe or log file.
func watchLine(at time.Time, entries []entry) string {
	var sb strings.Builder
	sb.WriteString(at.Format(time.RFC3339Nano))
	for _, e := range entries {
		if !e.ok {
			continue
		}
		sb.WriteString(" ")
		sb.WriteString(e.key)
		sb.WriteString("=")
		sb.WriteString(e.value)
	}
	return sb.String()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
