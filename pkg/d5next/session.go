// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Aquastat Authors

package d5next

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"
)

// Transport is the feature-report channel to one device. The buffer passed
// to either call carries the report ID in its first byte, followed by the
// report payload, as HIDAPI does it. *hid.Device from
// github.com/sstallion/go-hid satisfies this interface directly.
type Transport interface {
	GetFeatureReport(p []byte) (int, error)
	SendFeatureReport(p []byte) (int, error)
}

// Session mirrors and controls the state of one connected device.
//
// Two independent paths run through a session. Telemetry ingestion
// (Ingest) is driven by whoever reads input reports from the transport; it
// only ever replaces the snapshot and must not block. Configuration
// transactions (every control read or write) run on the caller and hold
// the session's transaction lock across the whole
// download-patch-upload-acknowledge sequence, because the scratch buffer
// is reused between transactions and the device has no partial-write
// primitive. The two paths share no memory, so ingestion never takes the
// transaction lock.
type Session struct {
	dev      Transport
	interval time.Duration

	// mu serializes configuration transactions and guards buf.
	mu  sync.Mutex
	buf []byte

	// snapMu guards the snapshot and the ingest counters.
	snapMu sync.RWMutex
	snap   SensorReport
	stats  Statistics

	// updated is the zero time until the first report arrives.
	updated time.Time
}

// NewSession creates a session for a device reachable through dev. The
// snapshot starts out stale until the first sensor report is ingested.
func NewSession(dev Transport) *Session {
	return &Session{
		dev:      dev,
		interval: UpdateInterval,
		buf:      make([]byte, ControlReportSize),
		stats:    Statistics{StartTime: time.Now()},
	}
}

// Ingest processes one raw inbound report. Reports with a non-sensor ID
// are ignored without error; they belong to other report channels. A
// malformed sensor report is counted and reported, but the previous
// snapshot stays intact and the session stays usable. Returns true when
// the snapshot was replaced.
func (s *Session) Ingest(data []byte) (bool, error) {
	if len(data) == 0 || data[0] != SensorReportID {
		s.snapMu.Lock()
		s.stats.Ignored++
		s.snapMu.Unlock()
		return false, nil
	}

	rep, err := DecodeSensorReport(data)
	if err != nil {
		s.snapMu.Lock()
		s.stats.Malformed++
		s.snapMu.Unlock()
		return false, err
	}

	s.snapMu.Lock()
	s.snap = rep
	s.updated = time.Now()
	s.stats.Reports++
	s.snapMu.Unlock()
	return true, nil
}

// Stats returns a copy of the ingestion counters.
func (s *Session) Stats() Statistics {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()
	return s.stats
}

// Snapshot returns a copy of the current snapshot. It fails with
// ErrStaleData when the last report is older than the update interval.
func (s *Session) Snapshot() (Snapshot, error) {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()

	snap := Snapshot{SensorReport: s.snap, Updated: s.updated}
	if !snap.Fresh(time.Now(), s.interval) {
		return Snapshot{}, ErrStaleData
	}
	return snap, nil
}

// sensorRead runs read under the snapshot lock after the freshness gate.
func (s *Session) sensorRead(read func(*SensorReport)) error {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()

	snap := Snapshot{SensorReport: s.snap, Updated: s.updated}
	if !snap.Fresh(time.Now(), s.interval) {
		return ErrStaleData
	}
	read(&snap.SensorReport)
	return nil
}

// CoolantTemp returns the coolant temperature in milli-degrees Celsius.
func (s *Session) CoolantTemp() (int32, error) {
	var v int32
	err := s.sensorRead(func(r *SensorReport) { v = r.CoolantTemp })
	return v, err
}

// Speed returns a channel's measured speed in RPM.
func (s *Session) Speed(c Channel) (uint16, error) {
	ic, err := c.internal()
	if err != nil {
		return 0, err
	}
	var v uint16
	err = s.sensorRead(func(r *SensorReport) { v = r.Speed[ic] })
	return v, err
}

// Setpoint returns a channel's reported setpoint in 0-255 control units.
func (s *Session) Setpoint(c Channel) (uint8, error) {
	ic, err := c.internal()
	if err != nil {
		return 0, err
	}
	var v uint8
	err = s.sensorRead(func(r *SensorReport) { v = r.Setpoint[ic] })
	return v, err
}

// Voltage returns a channel's supply voltage in millivolts.
func (s *Session) Voltage(c Channel) (uint32, error) {
	ic, err := c.internal()
	if err != nil {
		return 0, err
	}
	var v uint32
	err = s.sensorRead(func(r *SensorReport) { v = r.Voltage[ic] })
	return v, err
}

// PlusFiveVoltage returns the +5V rail voltage in millivolts.
func (s *Session) PlusFiveVoltage() (uint32, error) {
	var v uint32
	err := s.sensorRead(func(r *SensorReport) { v = r.PlusFiveVolt })
	return v, err
}

// Current returns a channel's current draw in milliamps.
func (s *Session) Current(c Channel) (uint16, error) {
	ic, err := c.internal()
	if err != nil {
		return 0, err
	}
	var v uint16
	err = s.sensorRead(func(r *SensorReport) { v = r.Current[ic] })
	return v, err
}

// Power returns a channel's power draw in microwatts.
func (s *Session) Power(c Channel) (uint32, error) {
	ic, err := c.internal()
	if err != nil {
		return 0, err
	}
	var v uint32
	err = s.sensorRead(func(r *SensorReport) { v = r.Power[ic] })
	return v, err
}

// DeviceInfo returns the decoded serial number, firmware version and power
// cycle count from the most recent report. Informational; not gated by the
// freshness check.
func (s *Session) DeviceInfo() (serial string, firmware uint16, powerCycles uint32) {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()
	return s.snap.SerialString(), s.snap.FirmwareVersion, s.snap.PowerCycles
}

// download fills the scratch buffer with a fresh control report. The
// caller must hold mu. On failure the buffer contents are not usable.
func (s *Session) download() error {
	for i := range s.buf {
		s.buf[i] = 0
	}
	s.buf[0] = ControlReportID

	n, err := s.dev.GetFeatureReport(s.buf)
	if err != nil {
		return fmt.Errorf("%w: get control report: %v", ErrDeviceUnresponsive, err)
	}
	if n < ControlReportSize {
		return fmt.Errorf("%w: short control report (%d of %d bytes)", ErrDeviceUnresponsive, n, ControlReportSize)
	}
	return nil
}

// upload recomputes the checksum, sends the patched control report back
// and follows it with the constant acknowledgement report the official
// software always sends. The caller must hold mu.
func (s *Session) upload() error {
	binary.BigEndian.PutUint16(s.buf[offControlCRC:], blobChecksum(s.buf))

	if _, err := s.dev.SendFeatureReport(s.buf); err != nil {
		return fmt.Errorf("%w: send control report: %v", ErrDeviceWriteFailed, err)
	}

	ack := ackReport
	if _, err := s.dev.SendFeatureReport(ack[:]); err != nil {
		return fmt.Errorf("%w: send acknowledgement: %v", ErrDeviceWriteFailed, err)
	}
	return nil
}

// readField runs a read transaction: fresh download, then copy the field
// out of the blob. No cached blob is ever trusted as current, so even pure
// reads pay for a download.
func (s *Session) readField(off, size int) (uint32, error) {
	switch size {
	case 1, 2, 4:
	default:
		return 0, fmt.Errorf("%w: %d-byte read", ErrUnsupportedWidth, size)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.download(); err != nil {
		return 0, err
	}

	switch size {
	case 1:
		return uint32(s.buf[off]), nil
	case 2:
		return uint32(binary.BigEndian.Uint16(s.buf[off:])), nil
	default:
		return binary.BigEndian.Uint32(s.buf[off:]), nil
	}
}

// writeField runs a write transaction: fresh download, patch exactly the
// targeted field, recompute the checksum and upload the whole blob. Every
// unrelated byte (lighting and other settings live in the same blob)
// survives untouched. Width is checked before any device I/O.
func (s *Session) writeField(off, size int, val uint16) error {
	switch size {
	case 1, 2:
	default:
		return fmt.Errorf("%w: %d-byte write", ErrUnsupportedWidth, size)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.download(); err != nil {
		return err
	}

	switch size {
	case 1:
		s.buf[off] = uint8(val)
	case 2:
		binary.BigEndian.PutUint16(s.buf[off:], val)
	}

	return s.upload()
}

// Mode returns a channel's control mode.
func (s *Session) Mode(c Channel) (ControlMode, error) {
	ic, err := c.internal()
	if err != nil {
		return 0, err
	}
	v, err := s.readField(modeOffset(ic), 1)
	if err != nil {
		return 0, err
	}
	return ControlMode(v), nil
}

// SetMode switches a channel's control mode.
func (s *Session) SetMode(c Channel, mode ControlMode) error {
	ic, err := c.internal()
	if err != nil {
		return err
	}
	if !mode.Valid() {
		return fmt.Errorf("%w: 0x%02X", ErrInvalidMode, uint8(mode))
	}
	return s.writeField(modeOffset(ic), 1, uint16(mode))
}

// ManualSetpoint returns a channel's manual setpoint in control units.
func (s *Session) ManualSetpoint(c Channel) (uint8, error) {
	return s.pwmField(c, manualSetpointOffset)
}

// SetManualSetpoint sets a channel's manual setpoint from control units.
func (s *Session) SetManualSetpoint(c Channel, pwm uint8) error {
	return s.setPWMField(c, manualSetpointOffset, pwm)
}

// MinPWM returns a channel's lower output bound in control units.
func (s *Session) MinPWM(c Channel) (uint8, error) {
	return s.pwmField(c, minPWMOffset)
}

// SetMinPWM sets a channel's lower output bound from control units.
func (s *Session) SetMinPWM(c Channel, pwm uint8) error {
	return s.setPWMField(c, minPWMOffset, pwm)
}

// MaxPWM returns a channel's upper output bound in control units.
func (s *Session) MaxPWM(c Channel) (uint8, error) {
	return s.pwmField(c, maxPWMOffset)
}

// SetMaxPWM sets a channel's upper output bound from control units.
func (s *Session) SetMaxPWM(c Channel, pwm uint8) error {
	return s.setPWMField(c, maxPWMOffset, pwm)
}

// FallbackPWM returns a channel's fallback setpoint in control units.
func (s *Session) FallbackPWM(c Channel) (uint8, error) {
	return s.pwmField(c, fallbackPWMOffset)
}

// SetFallbackPWM sets a channel's fallback setpoint from control units.
func (s *Session) SetFallbackPWM(c Channel, pwm uint8) error {
	return s.setPWMField(c, fallbackPWMOffset, pwm)
}

// MaxSpeed returns a channel's configured maximum speed in RPM.
func (s *Session) MaxSpeed(c Channel) (uint16, error) {
	ic, err := c.internal()
	if err != nil {
		return 0, err
	}
	v, err := s.readField(maxSpeedOffset(ic), 2)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}

// StartTemp returns a channel's curve start temperature in milli-degrees.
func (s *Session) StartTemp(c Channel) (int32, error) {
	ic, err := c.internal()
	if err != nil {
		return 0, err
	}
	v, err := s.readField(startTempOffset(ic), 2)
	if err != nil {
		return 0, err
	}
	return CentiToMilli(uint16(v)), nil
}

// SetStartTemp sets a channel's curve start temperature in milli-degrees.
func (s *Session) SetStartTemp(c Channel, milli int32) error {
	ic, err := c.internal()
	if err != nil {
		return err
	}
	return s.writeField(startTempOffset(ic), 2, MilliToCenti(milli))
}

// CurveTemp returns one curve point temperature in milli-degrees.
func (s *Session) CurveTemp(c Channel, point int) (int32, error) {
	ic, err := c.internal()
	if err != nil {
		return 0, err
	}
	off, err := curveTempOffset(ic, point)
	if err != nil {
		return 0, err
	}
	v, err := s.readField(off, 2)
	if err != nil {
		return 0, err
	}
	return CentiToMilli(uint16(v)), nil
}

// SetCurveTemp sets one curve point temperature in milli-degrees.
func (s *Session) SetCurveTemp(c Channel, point int, milli int32) error {
	ic, err := c.internal()
	if err != nil {
		return err
	}
	off, err := curveTempOffset(ic, point)
	if err != nil {
		return err
	}
	return s.writeField(off, 2, MilliToCenti(milli))
}

// CurvePower returns one curve point power in control units.
func (s *Session) CurvePower(c Channel, point int) (uint8, error) {
	ic, err := c.internal()
	if err != nil {
		return 0, err
	}
	off, err := curvePowerOffset(ic, point)
	if err != nil {
		return 0, err
	}
	v, err := s.readField(off, 2)
	if err != nil {
		return 0, err
	}
	return RawPercentToPWM(uint16(v)), nil
}

// SetCurvePower sets one curve point power from control units.
func (s *Session) SetCurvePower(c Channel, point int, pwm uint8) error {
	ic, err := c.internal()
	if err != nil {
		return err
	}
	off, err := curvePowerOffset(ic, point)
	if err != nil {
		return err
	}
	return s.writeField(off, 2, PWMToRawPercent(pwm))
}

// FanControl downloads a fresh control report and returns a channel's
// decoded control record.
func (s *Session) FanControl(c Channel) (FanControl, error) {
	ic, err := c.internal()
	if err != nil {
		return FanControl{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.download(); err != nil {
		return FanControl{}, err
	}
	return decodeFanControl(s.buf, ic), nil
}

// FanProperties downloads a fresh control report and returns a channel's
// decoded properties record.
func (s *Session) FanProperties(c Channel) (FanProperties, error) {
	ic, err := c.internal()
	if err != nil {
		return FanProperties{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.download(); err != nil {
		return FanProperties{}, err
	}
	return decodeFanProperties(s.buf, ic), nil
}

// Blob downloads a fresh control report and returns a copy, for diagnostic
// inspection.
func (s *Session) Blob() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.download(); err != nil {
		return nil, err
	}
	blob := make([]byte, ControlReportSize)
	copy(blob, s.buf)
	return blob, nil
}

// pwmField reads a fixed-point percent field and converts it to control
// units.
func (s *Session) pwmField(c Channel, off func(internalChannel) int) (uint8, error) {
	ic, err := c.internal()
	if err != nil {
		return 0, err
	}
	v, err := s.readField(off(ic), 2)
	if err != nil {
		return 0, err
	}
	return RawPercentToPWM(uint16(v)), nil
}

// setPWMField converts control units to the fixed-point percent encoding
// and writes the field.
func (s *Session) setPWMField(c Channel, off func(internalChannel) int, pwm uint8) error {
	ic, err := c.internal()
	if err != nil {
		return err
	}
	return s.writeField(off(ic), 2, PWMToRawPercent(pwm))
}
