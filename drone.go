// drone.go

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
	"fmt"
	"math"
	"strconv"
	"sync"
)

// REF arguments, bit 9 is takeoff, bit 8 the emergency toggle
const (
	refTakeOff   = 290718208
	refLand      = 290717696
	refEmergency = 290717952
)

const (
	maxLedAnim  = 21
	maxFlyAnim  = 20
	maxPwm      = 1023
	defaultPace = 0.2
)

// default ids used by CONFIG_IDS
const (
	defaultSessionID = "03016321"
	defaultUserID    = "0a100407"
	defaultAppID     = "03016321"
)

// Drone is a thin convenience layer over a Link which turns flight
// requests into AT commands.
type Drone struct {
	link *Link

	mu    sync.Mutex // protects speed
	speed float32

	SessionID, UserID, ApplicationID string
}

// NewDrone returns a Drone that will talk to the drone described by cfg.
func NewDrone(cfg Config, opts ...Option) *Drone {
	return &Drone{
		link:          NewLink(cfg, opts...),
		speed:         defaultPace,
		SessionID:     defaultSessionID,
		UserID:        defaultUserID,
		ApplicationID: defaultAppID,
	}
}

// Link exposes the underlying link, eg. for Stats.
func (d *Drone) Link() *Link {
	return d.link
}

// Startup connects the link and puts the drone into demo navdata mode, then
// asks it to send its configuration.
func (d *Drone) Startup(ctx context.Context) error {
	if err := d.link.Connect(ctx); err != nil {
		return err
	}
	steps := []func() error{
		func() error { return d.UseDemoMode(true) },
		d.ackControl,
		func() error { return d.SetConfig("custom:session_id", "-all") },
		d.ackControl,
		d.UpdateConfig,
	}
	for _, s := range steps {
		if err := s(); err != nil {
			d.link.Shutdown()
			return fmt.Errorf("drone startup: %w", err)
		}
	}
	return nil
}

// Shutdown closes the link. The Drone cannot be used afterwards.
func (d *Drone) Shutdown() error {
	return d.link.Shutdown()
}

// TakeOff sends a normal takeoff request.
func (d *Drone) TakeOff() error {
	return d.link.Enqueue(cmdRef, FormatInt(refTakeOff))
}

// Land sends a normal land request.
func (d *Drone) Land() error {
	return d.link.Enqueue(cmdRef, FormatInt(refLand))
}

// Reset toggles the emergency state, eg. after a crash landing.
func (d *Drone) Reset() error {
	return d.link.Enqueue(cmdRef, FormatInt(refEmergency))
}

// Trim tells the drone it is level. Only do this on the ground!
func (d *Drone) Trim() error {
	return d.link.Enqueue(cmdFtrim)
}

// Calibrate starts the magnetometer calibration, the drone must be flying.
func (d *Drone) Calibrate() error {
	return d.link.Enqueue(cmdCalib, FormatInt(0))
}

// ManualTrim trims pitch (theta), roll (phi) and yaw by hand, in degrees.
func (d *Drone) ManualTrim(theta, phi, yaw float32) error {
	return d.link.Enqueue(cmdMtrim, FormatFloat(theta), FormatFloat(phi), FormatFloat(yaw))
}

// Move sets the four progressive control axes, each in [-1, 1]:
// left/right, back/front, down/up and turn left/right.
// Out of range values are clamped to the nearest bound.
func (d *Drone) Move(leftRight, backFront, downUp, turn float32) error {
	return d.link.Enqueue(cmdPcmd, moveParams(leftRight, backFront, downUp, turn)...)
}

// MoveRelative is Move in the controller's frame using its magnetometer
// heading psi and heading accuracy, both in [-1, 1].
func (d *Drone) MoveRelative(leftRight, backFront, downUp, turn, psi, psiAccuracy float32) error {
	return d.link.Enqueue(cmdPcmdMag,
		FormatInt(1),
		FormatFloat(clampUnit(leftRight)),
		FormatFloat(-clampUnit(backFront)),
		FormatFloat(clampUnit(downUp)),
		FormatFloat(clampUnit(turn)),
		FormatFloat(clampUnit(psi)),
		FormatFloat(clampUnit(psiAccuracy)))
}

// moveParams renders PCMD arguments, front is negative pitch on the wire.
func moveParams(leftRight, backFront, downUp, turn float32) []string {
	return []string{
		FormatInt(3),
		FormatFloat(clampUnit(leftRight)),
		FormatFloat(-clampUnit(backFront)),
		FormatFloat(clampUnit(downUp)),
		FormatFloat(clampUnit(turn)),
	}
}

func clampUnit(v float32) float32 {
	if math.IsNaN(float64(v)) {
		return 0
	}
	if a := float32(math.Abs(float64(v))); a > 1 {
		return v / a
	}
	return v
}

// Hover stops all movement - useful as a panic action!
func (d *Drone) Hover() error {
	return d.Move(0, 0, 0, 0)
}

// Stop is an alias for Hover()
func (d *Drone) Stop() error {
	return d.Hover()
}

// SetSpeed sets the default speed used by Forward(), Up() etc, in [0, 1].
func (d *Drone) SetSpeed(speed float32) {
	s := float32(math.Abs(float64(speed)))
	if s > 1 {
		s = 1
	}
	d.mu.Lock()
	d.speed = s
	d.mu.Unlock()
}

// Speed returns the default speed.
func (d *Drone) Speed() float32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.speed
}

// *** The following are 'macro' commands using the default speed, the
// *** MoveXxx variants take an explicit speed in [-1, 1].

// Forward starts moving forward at the default speed
func (d *Drone) Forward() error { return d.MoveForward(d.Speed()) }

// Backward starts moving backward at the default speed
func (d *Drone) Backward() error { return d.MoveBackward(d.Speed()) }

// Left starts moving left at the default speed
func (d *Drone) Left() error { return d.MoveLeft(d.Speed()) }

// Right starts moving right at the default speed
func (d *Drone) Right() error { return d.MoveRight(d.Speed()) }

// Up starts climbing at the default speed
func (d *Drone) Up() error { return d.MoveUp(d.Speed()) }

// Down starts descending at the default speed
func (d *Drone) Down() error { return d.MoveDown(d.Speed()) }

// MoveForward moves forward at speed
func (d *Drone) MoveForward(speed float32) error { return d.Move(0, speed, 0, 0) }

// MoveBackward moves backward at speed
func (d *Drone) MoveBackward(speed float32) error { return d.Move(0, -speed, 0, 0) }

// MoveLeft moves left at speed
func (d *Drone) MoveLeft(speed float32) error { return d.Move(-speed, 0, 0, 0) }

// MoveRight moves right at speed
func (d *Drone) MoveRight(speed float32) error { return d.Move(speed, 0, 0, 0) }

// MoveUp climbs at speed
func (d *Drone) MoveUp(speed float32) error { return d.Move(0, 0, speed, 0) }

// MoveDown descends at speed
func (d *Drone) MoveDown(speed float32) error { return d.Move(0, 0, -speed, 0) }

// TurnRight rotates clockwise at rate
func (d *Drone) TurnRight(rate float32) error { return d.Move(0, 0, 0, rate) }

// TurnLeft rotates anticlockwise at rate
func (d *Drone) TurnLeft(rate float32) error { return d.Move(0, 0, 0, -rate) }

// *** End of 'macro' commands ***

// LED plays a preset LED animation for duration seconds.
func (d *Drone) LED(anim int, frequency float32, duration int) error {
	if anim < 0 || anim >= maxLedAnim || frequency <= 0 || duration <= 0 {
		return fmt.Errorf("invalid LED animation %d (freq %g, %ds)", anim, frequency, duration)
	}
	return d.link.Enqueue(cmdLed, FormatInt(int32(anim)), FormatFloat(frequency), FormatInt(int32(duration)))
}

// Anim plays a preset flight animation for duration seconds.
func (d *Drone) Anim(anim int, duration int) error {
	if anim < 0 || anim >= maxFlyAnim || duration <= 0 {
		return fmt.Errorf("invalid flight animation %d (%ds)", anim, duration)
	}
	return d.link.Enqueue(cmdAnim, FormatInt(int32(anim)), FormatInt(int32(duration)))
}

// ManualEngine drives the four motors directly (front-left, front-right,
// rear-left, rear-right). Values above 1023 are capped. Use with care!
func (d *Drone) ManualEngine(fl, fr, rl, rr uint32) error {
	params := make([]string, 0, 4)
	for _, v := range []uint32{fl, fr, rl, rr} {
		if v > maxPwm {
			v = maxPwm
		}
		params = append(params, FormatInt(int32(v)))
	}
	return d.link.Enqueue(cmdPwm, params...)
}

// AutoFlight turns tag-following flight on or off.
func (d *Drone) AutoFlight(on bool) error {
	return d.link.Enqueue(cmdAflight, boolParam(on))
}

// SetConfig sends one configuration value. The drone does not acknowledge
// it, read it back with Config() after UpdateConfig().
func (d *Drone) SetConfig(name, value string) error {
	return d.link.Enqueue(cmdConfig, FormatString(name), FormatString(value))
}

// SendConfigIDs announces the session, user and application ids.
func (d *Drone) SendConfigIDs() error {
	return d.link.Enqueue(cmdConfIDs,
		FormatString(d.SessionID), FormatString(d.UserID), FormatString(d.ApplicationID))
}

// UseDemoMode switches between the reduced demo navdata and the full set.
func (d *Drone) UseDemoMode(on bool) error {
	v := "FALSE"
	if on {
		v = "TRUE"
	}
	return d.SetConfig("general:navdata_demo", v)
}

// VideoCodec is a video:video_codec setting. Stream refers to UDP 5555,
// recording to TCP 5553.
type VideoCodec int

// Codecs the drone accepts
const (
	CodecMP4360        VideoCodec = 128 // MP4 360p stream, no recording
	CodecH264360       VideoCodec = 129 // H264 360p stream, no recording
	CodecMP4360H264720 VideoCodec = 130 // MP4 360p stream, H264 720p recording
	CodecH264720       VideoCodec = 131 // H264 720p stream, no recording
	CodecMP4360H264360 VideoCodec = 136 // MP4 360p stream, H264 360p recording
)

const (
	maxVideoFPS     = 60
	minVideoBitrate = 250
	maxVideoBitrate = 20000
)

// SetVideoCodec chooses the streaming and recording codecs.
func (d *Drone) SetVideoCodec(c VideoCodec) error {
	switch c {
	case CodecMP4360, CodecH264360, CodecMP4360H264720, CodecH264720, CodecMP4360H264360:
	default:
		return fmt.Errorf("unknown video codec %d", int(c))
	}
	return d.SetConfig("video:video_codec", strconv.Itoa(int(c)))
}

// SetHDVideoStream streams H264 720p and records nothing
func (d *Drone) SetHDVideoStream() error { return d.SetVideoCodec(CodecH264720) }

// SetSDVideoStream streams H264 360p and records nothing
func (d *Drone) SetSDVideoStream() error { return d.SetVideoCodec(CodecH264360) }

// SetMP4VideoStream streams MP4 360p and records nothing
func (d *Drone) SetMP4VideoStream() error { return d.SetVideoCodec(CodecMP4360) }

// SetHDVideoCapture streams MP4 360p and records H264 720p
func (d *Drone) SetHDVideoCapture() error { return d.SetVideoCodec(CodecMP4360H264720) }

// SetSDVideoCapture streams MP4 360p and records H264 360p
func (d *Drone) SetSDVideoCapture() error { return d.SetVideoCodec(CodecMP4360H264360) }

// SetVideoFPS sets the stream frame rate. 0 or anything above 60 means 60.
func (d *Drone) SetVideoFPS(fps uint32) error {
	if fps == 0 || fps > maxVideoFPS {
		fps = maxVideoFPS
	}
	return d.SetConfig("video:codec_fps", strconv.FormatUint(uint64(fps), 10))
}

// SetVideoBitrate sets the stream bitrate in kbit/s, clamped to [250, 20000].
func (d *Drone) SetVideoBitrate(kbps uint32) error {
	switch {
	case kbps < minVideoBitrate:
		kbps = minVideoBitrate
	case kbps > maxVideoBitrate:
		kbps = maxVideoBitrate
	}
	return d.SetConfig("video:bitrate", strconv.FormatUint(uint64(kbps), 10))
}

// UseFrontCamera streams and records from the front camera.
func (d *Drone) UseFrontCamera() error {
	return d.SetConfig("video:video_channel", "0")
}

// UseGroundCamera streams and records from the downward camera.
func (d *Drone) UseGroundCamera() error {
	return d.SetConfig("video:video_channel", "1")
}

// UpdateConfig asks the drone to write its configuration to the control port.
func (d *Drone) UpdateConfig() error {
	if err := d.ackControl(); err != nil {
		return err
	}
	return d.link.Enqueue(cmdCtrl, FormatInt(4), FormatInt(0))
}

// ackControl acknowledges the control/config state (CTRL mode 5)
func (d *Drone) ackControl() error {
	return d.link.Enqueue(cmdCtrl, FormatInt(5), FormatInt(0))
}

// Navdata returns the latest value of a navdata option, eg. "altitude".
func (d *Drone) Navdata(key string) (Value, bool) {
	return d.link.QueryTelemetry(key)
}

// Config returns the drone's last reported value for a config key, eg.
// "general:num_version_soft". It may be stale until UpdateConfig has been
// processed by the drone.
func (d *Drone) Config(key string) (string, bool) {
	return d.link.QueryConfig(key)
}

func boolParam(b bool) string {
	if b {
		return strconv.Itoa(1)
	}
	return strconv.Itoa(0)
}
