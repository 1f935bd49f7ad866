// cli_test.go

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
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestRenderText(t *testing.T) {
	var buf bytes.Buffer
	err := render(&buf, "text", []entry{
		{key: "altitude", value: "1.5", ok: true},
		{key: "missing"},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := "altitude = 1.5\nmissing = <unset>\n"
	if buf.String() != want {
		t.Errorf("render text = %q, want %q", buf.String(), want)
	}
}

func TestRenderYAML(t *testing.T) {
	var buf bytes.Buffer
	err := render(&buf, "yaml", []entry{
		{key: "bitrate", value: "1000", ok: true},
		{key: "absent"},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := "bitrate: \"1000\"\nabsent: null\n"
	if buf.String() != want {
		t.Errorf("render yaml = %q, want %q", buf.String(), want)
	}
	if err := render(&buf, "json", nil); err == nil {
		t.Error("unknown format accepted")
	}
}

func TestCollect(t *testing.T) {
	lookup := func(k string) (string, bool) {
		if k == "a" {
			return "1", true
		}
		return "", false
	}
	entries, complete := collect([]string{"a", "b"}, lookup)
	if complete || len(entries) != 2 || !entries[0].ok || entries[1].ok {
		t.Errorf("collect = %+v, %v", entries, complete)
	}
	if _, complete := collect([]string{"a"}, lookup); !complete {
		t.Error("collect of present keys not complete")
	}
}

func TestWatchLine(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	got := watchLine(at, []entry{
		{key: "altitude", value: "2", ok: true},
		{key: "gone"},
		{key: "sequence", value: "9", ok: true},
	})
	if got != "2024-05-01T12:00:00Z altitude=2 sequence=9" {
		t.Errorf("watchLine = %q", got)
	}
}

func TestWrapString(t *testing.T) {
	got := wrapString(strings.Repeat("word ", 20))
	for _, line := range strings.Split(got, "\n") {
		if len(line) > wrap {
			t.Errorf("line longer than %d: %q", wrap, line)
		}
	}
}

func TestVersionAndArgs(t *testing.T) {
	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetErr(&out)
	defer RootCmd.SetArgs(nil)

	RootCmd.SetArgs([]string{"version"})
	if err := RootCmd.Execute(); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out.String(), "ardrone v"+Version) {
		t.Errorf("version output %q", out.String())
	}

	// argument checks fail before any connection is attempted
	for _, args := range [][]string{
		{"fly", "barrel-roll"},
		{"fly"},
		{"send"},
		{"config", "get"},
	} {
		RootCmd.SetArgs(args)
		if err := RootCmd.Execute(); err == nil {
			t.Errorf("%v accepted", args)
		}
	}
}
