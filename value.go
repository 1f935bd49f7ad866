// value.go

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
	"strconv"
)

// Value is one decoded option value. The set of implementations is closed:
// Int, Uint, Float and Bool. Use a type switch to get at the payload.
type Value interface {
	String() string
	isValue()
}

// Int is a signed integer option value.
type Int int64

// Uint is an unsigned integer option value.
type Uint uint64

// Float is a floating point option value.
type Float float64

// Bool is a boolean option value.
type Bool bool

func (Int) isValue()   {}
func (Uint) isValue()  {}
func (Float) isValue() {}
func (Bool) isValue()  {}

func (v Int) String() string   { return strconv.FormatInt(int64(v), 10) }
func (v Uint) String() string  { return strconv.FormatUint(uint64(v), 10) }
func (v Float) String() string { return strconv.FormatFloat(float64(v), 'g', -1, 64) }
func (v Bool) String() string  { return strconv.FormatBool(bool(v)) }

// OptionSet maps an option key to its latest value.
type OptionSet map[string]Value

// merge overwrites every key of o with the values held in fresh.
func (o OptionSet) merge(fresh OptionSet) {
	for k, v := range fresh {
		o[k] = v
	}
}
