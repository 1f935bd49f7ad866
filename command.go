// command.go

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
	"math"
	"strconv"
	"strings"
)

// AT command names used by the link itself and by the Drone facade
const (
	cmdWatchdog = "COMWDG"
	cmdConfig   = "CONFIG"
	cmdConfIDs  = "CONFIG_IDS"
	cmdCtrl     = "CTRL"
	cmdRef      = "REF"
	cmdPcmd     = "PCMD"
	cmdPcmdMag  = "PCMD_MAG"
	cmdFtrim    = "FTRIM"
	cmdMtrim    = "MTRIM"
	cmdCalib    = "CALIB"
	cmdLed      = "LED"
	cmdAnim     = "ANIM"
	cmdPwm      = "PWM"
	cmdAflight  = "AFLIGHT"
)

// the vehicle wants a bare CR, then the PMODE/MISC pair, before any numbered command
const (
	initLine1 = "\r"
	initLine2 = "AT*PMODE=1,2\rAT*MISC=2,2,20,2000,3000\r"
)

// Command is a queued AT command. Params are already formatted tokens, see
// FormatInt, FormatFloat and FormatString.
type Command struct {
	Name   string
	Params []string
}

// formatCommand renders one wire line: AT*<name>=<seq>[,<param>]*<CR>
func formatCommand(seq uint32, name string, params []string) string {
	var sb strings.Builder
	sb.WriteString("AT*")
	sb.WriteString(name)
	sb.WriteByte('=')
	sb.WriteString(strconv.FormatUint(uint64(seq), 10))
	for _, p := range params {
		sb.WriteByte(',')
		sb.WriteString(p)
	}
	sb.WriteByte('\r')
	return sb.String()
}

// FormatInt renders an integer command argument.
func FormatInt(i int32) string {
	return strconv.FormatInt(int64(i), 10)
}

// FormatFloat renders a float argument as the signed decimal value of its
// IEEE-754 bit pattern, eg. -0.8 is sent as -1085485875.
func FormatFloat(f float32) string {
	if f == 0 {
		return "0" // -0 would otherwise go out as math.MinInt32
	}
	return strconv.FormatInt(int64(int32(math.Float32bits(f))), 10)
}

// FormatString renders a string argument in double quotes.
func FormatString(s string) string {
	return `"` + s + `"`
}
