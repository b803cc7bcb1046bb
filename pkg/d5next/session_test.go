// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Aquastat Authors

package d5next

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

// fakeDevice simulates the feature-report side of a D5 Next. It keeps a
// resident control blob, validates uploads the way the device would
// (length and trailing checksum), and records every operation so tests
// can assert on transaction sequencing.
type fakeDevice struct {
	mu   sync.Mutex
	blob [ControlReportSize]byte

	ops       []string
	failGet   bool
	shortGet  int // when > 0, GetFeatureReport returns this many bytes
	failSend  bool
	failAck   bool
	ackSeen   int
	lastBlob  []byte // last accepted upload
	getDelay  time.Duration
	sendDelay time.Duration
}

func newFakeDevice() *fakeDevice {
	d := &fakeDevice{}
	d.blob[0] = ControlReportID
	// Plausible resident configuration
	for c := chanFan; c <= chanPump; c++ {
		d.blob[modeOffset(c)] = byte(ModeManual)
		binary.BigEndian.PutUint16(d.blob[manualSetpointOffset(c):], 5020)
		binary.BigEndian.PutUint16(d.blob[minPWMOffset(c):], 2000)
		binary.BigEndian.PutUint16(d.blob[maxPWMOffset(c):], 10000)
		binary.BigEndian.PutUint16(d.blob[maxSpeedOffset(c):], 4800)
	}
	// Unrelated settings (lighting etc.) that must survive writes
	for i := 300; i < 800; i++ {
		d.blob[i] = byte(i % 251)
	}
	binary.BigEndian.PutUint16(d.blob[offControlCRC:], blobChecksum(d.blob[:]))
	return d
}

func (d *fakeDevice) GetFeatureReport(p []byte) (int, error) {
	time.Sleep(d.getDelay)
	d.mu.Lock()
	defer d.mu.Unlock()

	d.ops = append(d.ops, fmt.Sprintf("get %02x", p[0]))
	if d.failGet {
		return 0, errors.New("no data")
	}
	if p[0] != ControlReportID {
		return 0, fmt.Errorf("unknown feature report 0x%02x", p[0])
	}
	if d.shortGet > 0 {
		return copy(p, d.blob[:d.shortGet]), nil
	}
	return copy(p, d.blob[:]), nil
}

func (d *fakeDevice) SendFeatureReport(p []byte) (int, error) {
	time.Sleep(d.sendDelay)
	d.mu.Lock()
	defer d.mu.Unlock()

	d.ops = append(d.ops, fmt.Sprintf("send %02x", p[0]))

	switch p[0] {
	case ControlReportID:
		if d.failSend {
			return 0, errors.New("write failed")
		}
		if len(p) != ControlReportSize {
			return 0, fmt.Errorf("bad control report size %d", len(p))
		}
		if binary.BigEndian.Uint16(p[offControlCRC:]) != blobChecksum(p) {
			return 0, errors.New("checksum rejected")
		}
		copy(d.blob[:], p)
		d.lastBlob = append([]byte(nil), p...)
		return len(p), nil

	case AckReportID:
		if d.failAck {
			return 0, errors.New("write failed")
		}
		if !bytes.Equal(p, ackReport[:]) {
			return 0, fmt.Errorf("unexpected acknowledgement payload % x", p)
		}
		d.ackSeen++
		return len(p), nil

	default:
		return 0, fmt.Errorf("unknown feature report 0x%02x", p[0])
	}
}

func (d *fakeDevice) snapshotBlob() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.blob[:]...)
}

func (d *fakeDevice) opLog() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.ops...)
}

// ingestReport pushes a synthetic sensor report into the session.
func ingestReport(t *testing.T, s *Session, fields map[int]uint16) {
	t.Helper()
	updated, err := s.Ingest(buildSensorReport(fields))
	if err != nil || !updated {
		t.Fatalf("Ingest failed: updated=%v err=%v", updated, err)
	}
}

func TestSessionIngestAndRead(t *testing.T) {
	s := NewSession(newFakeDevice())

	// Spec scenario: a push with pump speed 2500 reads back as 2500 RPM.
	ingestReport(t, s, map[int]uint16{
		offPumpSpeed:   2500,
		offCoolantTemp: 2585,
	})

	speed, err := s.Speed(ChannelPump)
	if err != nil || speed != 2500 {
		t.Errorf("Speed(pump) = %d, %v; want 2500, nil", speed, err)
	}
	temp, err := s.CoolantTemp()
	if err != nil || temp != 25850 {
		t.Errorf("CoolantTemp = %d, %v; want 25850, nil", temp, err)
	}

	stats := s.Stats()
	if stats.Reports != 1 || stats.Malformed != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestSessionStaleData(t *testing.T) {
	s := NewSession(newFakeDevice())

	// No report yet: everything is stale.
	if _, err := s.CoolantTemp(); !errors.Is(err, ErrStaleData) {
		t.Errorf("read before first report: err = %v, want ErrStaleData", err)
	}

	ingestReport(t, s, map[int]uint16{offPumpSpeed: 2500})
	if _, err := s.Speed(ChannelPump); err != nil {
		t.Errorf("read right after a push failed: %v", err)
	}

	// Age the snapshot past the interval.
	s.snapMu.Lock()
	s.updated = time.Now().Add(-s.interval)
	s.snapMu.Unlock()

	if _, err := s.Speed(ChannelPump); !errors.Is(err, ErrStaleData) {
		t.Errorf("read of aged snapshot: err = %v, want ErrStaleData", err)
	}
	if _, err := s.Snapshot(); !errors.Is(err, ErrStaleData) {
		t.Errorf("Snapshot of aged data: err = %v, want ErrStaleData", err)
	}
}

func TestSessionIngestMalformed(t *testing.T) {
	s := NewSession(newFakeDevice())
	ingestReport(t, s, map[int]uint16{offPumpSpeed: 1111})

	// Short sensor report: reported, dropped, snapshot intact.
	updated, err := s.Ingest([]byte{SensorReportID, 0x00})
	if updated || !errors.Is(err, ErrMalformedTelemetry) {
		t.Errorf("short report: updated=%v err=%v", updated, err)
	}
	if speed, err := s.Speed(ChannelPump); err != nil || speed != 1111 {
		t.Errorf("snapshot changed by malformed report: %d, %v", speed, err)
	}

	// Foreign report ID: silently ignored.
	updated, err = s.Ingest([]byte{AckReportID, 0x01, 0x02})
	if updated || err != nil {
		t.Errorf("foreign report: updated=%v err=%v", updated, err)
	}

	stats := s.Stats()
	if stats.Reports != 1 || stats.Malformed != 1 || stats.Ignored != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestSessionWritePreservesBlob(t *testing.T) {
	dev := newFakeDevice()
	s := NewSession(dev)
	before := dev.snapshotBlob()

	// Spec scenario: external fan channel, control unit 128 -> internal
	// channel 0 manual setpoint becomes 5020 big-endian.
	if err := s.SetManualSetpoint(ChannelFan, 128); err != nil {
		t.Fatalf("SetManualSetpoint failed: %v", err)
	}

	after := dev.snapshotBlob()
	fieldOff := manualSetpointOffset(chanFan)
	if got := binary.BigEndian.Uint16(after[fieldOff:]); got != 5020 {
		t.Errorf("manual setpoint = %d, want 5020", got)
	}

	// Every byte outside the patched field and the CRC must be identical.
	for i := range after {
		if i == fieldOff || i == fieldOff+1 || i == offControlCRC || i == offControlCRC+1 {
			continue
		}
		if after[i] != before[i] {
			t.Fatalf("byte %d changed: 0x%02x -> 0x%02x", i, before[i], after[i])
		}
	}

	// The checksum was recomputed, is valid, and differs from the old one.
	if !VerifyChecksum(after) {
		t.Error("uploaded blob has an invalid checksum")
	}
	oldCRC := binary.BigEndian.Uint16(before[offControlCRC:])
	newCRC := binary.BigEndian.Uint16(after[offControlCRC:])
	if oldCRC == newCRC {
		t.Error("checksum did not change with the field")
	}

	if dev.ackSeen != 1 {
		t.Errorf("acknowledgement sent %d times, want 1", dev.ackSeen)
	}
}

func TestSessionWriteRandomFields(t *testing.T) {
	rng := newTestRng(t)
	rounds := getTestRounds(50)

	type fieldWrite struct {
		name string
		do   func(s *Session) error
		off  int
		size int
	}

	dev := newFakeDevice()
	s := NewSession(dev)

	for round := 0; round < rounds; round++ {
		ch := Channel(rng.Intn(2))
		ic, _ := ch.internal()
		pwm := uint8(rng.Intn(256))
		point := rng.Intn(NumCurvePoints)
		tempOff, _ := curveTempOffset(ic, point)

		writes := []fieldWrite{
			{"mode", func(s *Session) error { return s.SetMode(ch, ControlMode(rng.Intn(3))) }, modeOffset(ic), 1},
			{"manual", func(s *Session) error { return s.SetManualSetpoint(ch, pwm) }, manualSetpointOffset(ic), 2},
			{"min", func(s *Session) error { return s.SetMinPWM(ch, pwm) }, minPWMOffset(ic), 2},
			{"max", func(s *Session) error { return s.SetMaxPWM(ch, pwm) }, maxPWMOffset(ic), 2},
			{"fallback", func(s *Session) error { return s.SetFallbackPWM(ch, pwm) }, fallbackPWMOffset(ic), 2},
			{"curve temp", func(s *Session) error { return s.SetCurveTemp(ch, point, int32(rng.Intn(60000))) }, tempOff, 2},
		}
		w := writes[rng.Intn(len(writes))]

		before := dev.snapshotBlob()
		if err := w.do(s); err != nil {
			t.Fatalf("round %d: %s write failed: %v", round, w.name, err)
		}
		after := dev.snapshotBlob()

		for i := range after {
			if i >= w.off && i < w.off+w.size {
				continue
			}
			if i == offControlCRC || i == offControlCRC+1 {
				continue
			}
			if after[i] != before[i] {
				t.Fatalf("round %d: %s write touched byte %d", round, w.name, i)
			}
		}
		if !VerifyChecksum(after) {
			t.Fatalf("round %d: invalid checksum after %s write", round, w.name)
		}
	}
}

func TestSessionReadDownloadsFresh(t *testing.T) {
	dev := newFakeDevice()
	s := NewSession(dev)

	// Change the resident blob behind the session's back; a read must see
	// the new value because every transaction downloads first.
	binary.BigEndian.PutUint16(dev.blob[manualSetpointOffset(chanPump):], 10000)

	pwm, err := s.ManualSetpoint(ChannelPump)
	if err != nil || pwm != 255 {
		t.Errorf("ManualSetpoint(pump) = %d, %v; want 255, nil", pwm, err)
	}

	ops := dev.opLog()
	if len(ops) != 1 || ops[0] != "get 03" {
		t.Errorf("ops = %v, want one control download", ops)
	}
}

func TestSessionModeValidation(t *testing.T) {
	dev := newFakeDevice()
	s := NewSession(dev)

	if err := s.SetMode(ChannelPump, ControlMode(7)); !errors.Is(err, ErrInvalidMode) {
		t.Errorf("SetMode(7) err = %v, want ErrInvalidMode", err)
	}
	if len(dev.opLog()) != 0 {
		t.Error("invalid mode reached the device")
	}

	if err := s.SetMode(ChannelPump, ModeCurve); err != nil {
		t.Fatalf("SetMode(curve) failed: %v", err)
	}
	mode, err := s.Mode(ChannelPump)
	if err != nil || mode != ModeCurve {
		t.Errorf("Mode(pump) = %v, %v; want curve", mode, err)
	}
}

func TestSessionWidthValidation(t *testing.T) {
	dev := newFakeDevice()
	s := NewSession(dev)

	if _, err := s.readField(offFanControl, 3); !errors.Is(err, ErrUnsupportedWidth) {
		t.Errorf("3-byte read err = %v, want ErrUnsupportedWidth", err)
	}
	if err := s.writeField(offFanControl, 4, 0); !errors.Is(err, ErrUnsupportedWidth) {
		t.Errorf("4-byte write err = %v, want ErrUnsupportedWidth", err)
	}
	if len(dev.opLog()) != 0 {
		t.Error("width error after device I/O; must be checked before")
	}
}

func TestSessionDownloadFailure(t *testing.T) {
	dev := newFakeDevice()
	dev.failGet = true
	s := NewSession(dev)

	if _, err := s.ManualSetpoint(ChannelPump); !errors.Is(err, ErrDeviceUnresponsive) {
		t.Errorf("read err = %v, want ErrDeviceUnresponsive", err)
	}
	if err := s.SetManualSetpoint(ChannelPump, 100); !errors.Is(err, ErrDeviceUnresponsive) {
		t.Errorf("write err = %v, want ErrDeviceUnresponsive", err)
	}
	if dev.ackSeen != 0 {
		t.Error("acknowledgement sent despite failed download")
	}

	// The session must stay usable after a failed transaction.
	dev.mu.Lock()
	dev.failGet = false
	dev.mu.Unlock()
	if _, err := s.ManualSetpoint(ChannelPump); err != nil {
		t.Errorf("session unusable after failure: %v", err)
	}
}

func TestSessionShortDownload(t *testing.T) {
	dev := newFakeDevice()
	dev.shortGet = 100
	s := NewSession(dev)

	if _, err := s.Blob(); !errors.Is(err, ErrDeviceUnresponsive) {
		t.Errorf("short download err = %v, want ErrDeviceUnresponsive", err)
	}
}

func TestSessionUploadFailure(t *testing.T) {
	dev := newFakeDevice()
	dev.failSend = true
	s := NewSession(dev)

	if err := s.SetMinPWM(ChannelFan, 60); !errors.Is(err, ErrDeviceWriteFailed) {
		t.Errorf("upload err = %v, want ErrDeviceWriteFailed", err)
	}

	dev.mu.Lock()
	dev.failSend = false
	dev.failAck = true
	dev.mu.Unlock()
	if err := s.SetMinPWM(ChannelFan, 60); !errors.Is(err, ErrDeviceWriteFailed) {
		t.Errorf("ack err = %v, want ErrDeviceWriteFailed", err)
	}
}

func TestSessionInvalidChannel(t *testing.T) {
	dev := newFakeDevice()
	s := NewSession(dev)

	if _, err := s.ManualSetpoint(Channel(5)); !errors.Is(err, ErrInvalidChannel) {
		t.Errorf("err = %v, want ErrInvalidChannel", err)
	}
	if len(dev.opLog()) != 0 {
		t.Error("invalid channel reached the device")
	}
}

func TestSessionTransactionsDoNotInterleave(t *testing.T) {
	dev := newFakeDevice()
	dev.getDelay = 2 * time.Millisecond
	dev.sendDelay = 2 * time.Millisecond
	s := NewSession(dev)

	// Two concurrent writes to different channels. The second transaction's
	// download must only start after the first one's upload (and ack) is
	// done.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := s.SetManualSetpoint(ChannelPump, 200); err != nil {
			t.Errorf("pump write failed: %v", err)
		}
	}()
	go func() {
		defer wg.Done()
		if err := s.SetManualSetpoint(ChannelFan, 50); err != nil {
			t.Errorf("fan write failed: %v", err)
		}
	}()
	wg.Wait()

	ops := dev.opLog()
	want := []string{"get 03", "send 03", "send 02", "get 03", "send 03", "send 02"}
	if len(ops) != len(want) {
		t.Fatalf("ops = %v", ops)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Fatalf("transaction interleaving: ops = %v", ops)
		}
	}

	// Both fields ended up written.
	blob := dev.snapshotBlob()
	pump := binary.BigEndian.Uint16(blob[manualSetpointOffset(chanPump):])
	fan := binary.BigEndian.Uint16(blob[manualSetpointOffset(chanFan):])
	if pump != PWMToRawPercent(200) || fan != PWMToRawPercent(50) {
		t.Errorf("setpoints = %d, %d", pump, fan)
	}
}

func TestSessionFanControlDecode(t *testing.T) {
	dev := newFakeDevice()
	s := NewSession(dev)

	fc, err := s.FanControl(ChannelPump)
	if err != nil {
		t.Fatalf("FanControl failed: %v", err)
	}
	if fc.Mode != ModeManual || fc.ManualSetpoint != 128 {
		t.Errorf("control = %+v", fc)
	}

	fp, err := s.FanProperties(ChannelFan)
	if err != nil {
		t.Fatalf("FanProperties failed: %v", err)
	}
	if fp.MinPWM != 51 || fp.MaxPWM != 255 || fp.MaxSpeed != 4800 {
		t.Errorf("properties = %+v", fp)
	}
}

func TestSessionBlobCopy(t *testing.T) {
	dev := newFakeDevice()
	s := NewSession(dev)

	blob, err := s.Blob()
	if err != nil {
		t.Fatalf("Blob failed: %v", err)
	}
	if !bytes.Equal(blob, dev.snapshotBlob()) {
		t.Error("blob does not match the resident configuration")
	}

	// Mutating the returned copy must not reach the scratch buffer.
	blob[500] ^= 0xFF
	again, err := s.Blob()
	if err != nil {
		t.Fatalf("second Blob failed: %v", err)
	}
	if again[500] == blob[500] {
		t.Error("returned blob aliases the transaction buffer")
	}
}

func TestSessionDeviceInfo(t *testing.T) {
	s := NewSession(newFakeDevice())
	ingestReport(t, s, map[int]uint16{
		offSerialFirst:  123,
		offSerialSecond: 456,
		offFirmware:     1023,
	})

	serial, fw, cycles := s.DeviceInfo()
	if serial != "00123-00456" || fw != 1023 || cycles != 0 {
		t.Errorf("DeviceInfo = %s, %d, %d", serial, fw, cycles)
	}
}
