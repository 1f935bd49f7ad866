// navdata.go

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
	"encoding/binary"
	"math"
	"strconv"
)

const (
	navdataMagic      = 0x55667788
	navdataHeaderSize = 16
	optionHeaderSize  = 4 // u16 id + u16 size, size includes these 4 bytes
	optionDemo        = 0x0000
	optionChecksum    = 0xffff
	demoOptionSize    = 148
	maxNavdataSize    = 4096
)

// navdataActivation asks the drone to start streaming navdata to the sender.
var navdataActivation = []byte{1, 0, 0, 0}

// NavdataHeader is the fixed 16 byte start of every navdata packet.
type NavdataHeader struct {
	Header     uint32
	DroneState uint32
	Sequence   uint32
	VisionFlag uint32
}

// Matrix33 is a row-major 3x3 matrix.
type Matrix33 [9]float32

// Vector31 is a 3 element column vector.
type Vector31 [3]float32

// DemoData is the content of the "demo" option, the one most clients need.
type DemoData struct {
	CtrlState         uint32 // major control state in the upper 16 bits
	BatteryPercentage uint32
	Theta             float32 // pitch, millidegrees
	Phi               float32 // roll, millidegrees
	Psi               float32 // yaw, millidegrees
	Altitude          int32   // decimetres
	Vx, Vy, Vz        float32
	NumFrames         uint32

	DetectionCameraRot   Matrix33
	DetectionCameraTrans Vector31
	DetectionTagIndex    uint32
	DetectionCameraType  uint32

	DroneCameraRot   Matrix33
	DroneCameraTrans Vector31
}

// Navdata is one decoded telemetry packet.
type Navdata struct {
	NavdataHeader
	Demo    *DemoData // nil unless the packet carried a demo option
	Skipped []uint16  // ids of options we don't decode
}

// control states, indexed by CtrlState >> 16
var ctrlStateNames = [...]string{
	"default",
	"init",
	"landed",
	"flying",
	"hovering",
	"test",
	"trans_takeoff",
	"trans_gotofix",
	"trans_landing",
	"trans_looping",
	"trans_no_vision",
	"num_state",
}

// bits of the header's drone_state word
var droneStateBits = [32]string{
	"flying",
	"video",
	"vision",
	"angular_control",
	"altitude_control",
	"user_feedback",
	"command_ack",
	"camera_ready",
	"travelling",
	"usb_ready",
	"navdata_demo",
	"navdata_bootstrap",
	"motors_problem",
	"com_lost",
	"software_fault",
	"vbat_low",
	"user_emergency_landing",
	"timer_elapsed",
	"magneto_needs_calib",
	"angles_out_of_range",
	"wind",
	"ultrasound_problem",
	"cutout",
	"pic_version_ok",
	"atcodec_thread",
	"navdata_thread",
	"video_thread",
	"acq_thread",
	"ctrl_watchdog",
	"adc_watchdog",
	"com_watchdog",
	"emergency",
}

// DecodeNavdata parses a raw navdata packet. Any structural problem yields a
// *DecodeError and the whole packet should be dropped.
func DecodeNavdata(buff []byte) (*Navdata, error) {
	if len(buff) < navdataHeaderSize {
		return nil, decodeErrorf(0, "packet of %d bytes is shorter than the header", len(buff))
	}
	nd := &Navdata{}
	nd.Header = binary.LittleEndian.Uint32(buff[0:])
	nd.DroneState = binary.LittleEndian.Uint32(buff[4:])
	nd.Sequence = binary.LittleEndian.Uint32(buff[8:])
	nd.VisionFlag = binary.LittleEndian.Uint32(buff[12:])
	if nd.Header != navdataMagic {
		return nil, decodeErrorf(0, "bad header magic 0x%08x", nd.Header)
	}

	pos := navdataHeaderSize
	for pos < len(buff) {
		if len(buff)-pos < optionHeaderSize {
			return nil, decodeErrorf(pos, "%d trailing bytes cannot hold an option header", len(buff)-pos)
		}
		id := binary.LittleEndian.Uint16(buff[pos:])
		size := int(binary.LittleEndian.Uint16(buff[pos+2:]))
		if id == optionChecksum {
			break
		}
		if size < optionHeaderSize {
			return nil, decodeErrorf(pos, "option %d declares size %d, smaller than its header", id, size)
		}
		if pos+size > len(buff) {
			return nil, decodeErrorf(pos, "option %d declares size %d but only %d bytes remain", id, size, len(buff)-pos)
		}
		opt := buff[pos : pos+size]
		switch id {
		case optionDemo:
			if size < demoOptionSize {
				return nil, decodeErrorf(pos, "demo option of %d bytes, want %d", size, demoOptionSize)
			}
			nd.Demo = decodeDemo(opt[optionHeaderSize:])
		default:
			nd.Skipped = append(nd.Skipped, id)
		}
		pos += size
	}
	return nd, nil
}

// decodeDemo unpacks the fixed demo layout, pl starts after the option header.
func decodeDemo(pl []byte) *DemoData {
	d := &DemoData{}
	off := 0
	u32 := func() uint32 {
		v := binary.LittleEndian.Uint32(pl[off:])
		off += 4
		return v
	}
	f32 := func() float32 {
		return math.Float32frombits(u32())
	}

	d.CtrlState = u32()
	d.BatteryPercentage = u32()
	d.Theta = f32()
	d.Phi = f32()
	d.Psi = f32()
	d.Altitude = int32(u32())
	d.Vx = f32()
	d.Vy = f32()
	d.Vz = f32()
	d.NumFrames = u32()
	for i := range d.DetectionCameraRot {
		d.DetectionCameraRot[i] = f32()
	}
	for i := range d.DetectionCameraTrans {
		d.DetectionCameraTrans[i] = f32()
	}
	d.DetectionTagIndex = u32()
	d.DetectionCameraType = u32()
	for i := range d.DroneCameraRot {
		d.DroneCameraRot[i] = f32()
	}
	for i := range d.DroneCameraTrans {
		d.DroneCameraTrans[i] = f32()
	}
	return d
}

// ControlState returns the major control state, an index into the ctrl.* flags.
func (d *DemoData) ControlState() int {
	return int(d.CtrlState >> 16)
}

// AltitudeMetres scales the raw decimetre altitude.
func (d *DemoData) AltitudeMetres() float64 {
	return float64(d.Altitude) / 10
}

// Options flattens the packet into option keys as served by Telemetry.Query.
func (nd *Navdata) Options() OptionSet {
	opts := OptionSet{
		"drone_state": Uint(nd.DroneState),
		"sequence":    Uint(nd.Sequence),
		"vision_flag": Uint(nd.VisionFlag),
	}
	for bit, name := range droneStateBits {
		opts["state."+name] = Bool((nd.DroneState>>uint(bit))&1 == 1)
	}
	if nd.Demo != nil {
		nd.Demo.addOptions(opts)
	}
	return opts
}

func (d *DemoData) addOptions(opts OptionSet) {
	cs := d.ControlState()
	opts["ctrl_state"] = Uint(d.CtrlState)
	for i, name := range ctrlStateNames {
		opts["ctrl."+name] = Bool(cs == i)
	}
	opts["battery_percentage"] = Uint(d.BatteryPercentage)
	opts["theta"] = Float(d.Theta)
	opts["phi"] = Float(d.Phi)
	opts["psi"] = Float(d.Psi)
	opts["altitude"] = Float(d.AltitudeMetres())
	opts["vx"] = Float(d.Vx)
	opts["vy"] = Float(d.Vy)
	opts["vz"] = Float(d.Vz)
	opts["num_frames"] = Uint(d.NumFrames)
	addMatrix(opts, "detection_camera_rot", d.DetectionCameraRot)
	addVector(opts, "detection_camera_trans", d.DetectionCameraTrans)
	opts["detection_tag_index"] = Uint(d.DetectionTagIndex)
	opts["detection_camera_type"] = Uint(d.DetectionCameraType)
	addMatrix(opts, "drone_camera_rot", d.DroneCameraRot)
	addVector(opts, "drone_camera_trans", d.DroneCameraTrans)
}

// addMatrix stores m as prefix.m11 .. prefix.m33
func addMatrix(opts OptionSet, prefix string, m Matrix33) {
	for i, v := range m {
		opts[prefix+".m"+strconv.Itoa(i/3+1)+strconv.Itoa(i%3+1)] = Float(v)
	}
}

func addVector(opts OptionSet, prefix string, v Vector31) {
	for i, axis := range [3]string{"x", "y", "z"} {
		opts[prefix+"."+axis] = Float(v[i])
	}
}
