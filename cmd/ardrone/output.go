// output.go

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

	"gopkg.in/yaml.v2"
)

type entry struct {
	key   string
	value string
	ok    bool
}

// render writes entries as "key = value" lines or as a YAML mapping,
// keeping the order they were asked for. Missing keys are shown as unset
// or null.
func render(w io.Writer, format string, entries []entry) error {
	switch format {
	case "text", "":
		for _, e := range entries {
			v := e.value
			if !e.ok {
				v = "<unset>"
			}
			fmt.Fprintf(w, "%s = %s\n", e.key, v)
		}
		return nil
	case "yaml":
		doc := make(yaml.MapSlice, 0, len(entries))
		for _, e := range entries {
			item := yaml.MapItem{Key: e.key}
			if e.ok {
				item.Value = e.value
			}
			doc = append(doc, item)
		}
		out, err := yaml.Marshal(doc)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	}
	return fmt.Errorf("unknown output format %q", format)
}
