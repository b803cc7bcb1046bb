// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Aquastat Authors

// Package d5next implements the HID protocol of the Aquacomputer D5 Next
// watercooling pump.
//
// The device pushes a sensor report (ID 0x01) roughly once per second and
// exposes its full resident configuration as a single checksummed feature
// report (ID 0x03) that has to be downloaded whole, patched and re-uploaded
// whole. This package provides the report decoder, the checksummed
// read-modify-write transaction engine, the unit conversions between the
// device's fixed-point encodings and human-facing units, and the typed
// fan control model.
package d5next

import "time"

// HID report identifiers
const (
	SensorReportID  = 0x01
	ControlReportID = 0x03
	AckReportID     = 0x02
)

// Report sizes. Both sizes include the leading report ID byte, matching
// what goes over the wire in a feature-report exchange.
const (
	ControlReportSize = 809
	AckReportSize     = 11

	// Lowest usable sensor report length: the pump setpoint field ends at
	// 0x7B. Real devices send 0x9E bytes but only the decoded range matters.
	SensorReportMinSize = 0x7B
)

// The checksum covers a fixed sub-range of the control report: everything
// between the report ID byte and the trailing CRC field.
const (
	checksumStart  = 0x01
	checksumLength = 0x326
)

// UpdateInterval is how old a snapshot may get before reads report stale
// data. The device pushes at ~1 Hz; this allows one missed report.
const UpdateInterval = 2 * time.Second

// Sensor report byte offsets (big-endian fields)
const (
	offSerialFirst  = 0x03
	offSerialSecond = 0x05
	offFirmware     = 0x0D
	offPowerCycles  = 0x18
	offPlusFiveVolt = 0x39
	offCoolantTemp  = 0x57

	offFanVoltage = 0x61
	offFanCurrent = 0x63
	offFanPower   = 0x65
	offFanSpeed   = 0x67

	offPumpVoltage = 0x6E
	offPumpCurrent = 0x70
	offPumpPower   = 0x72
	offPumpSpeed   = 0x74

	offFanSetpoint  = 0x77
	offPumpSetpoint = 0x79
)

// Control report layout. The report is a packed image of the device's
// resident configuration: report ID byte, reserved padding, two fan
// properties records, two fan control records, more padding (lighting and
// other settings that must survive every write), trailing CRC.
const (
	offFanProperties  = 0x2F // 47
	sizeFanProperties = 9

	offFanControl  = 0x41 // 65
	sizeFanControl = 85

	offControlCRC = ControlReportSize - 2 // 807
)

// Field offsets within a fan properties record
const (
	propFlags       = 0
	propMinPWM      = 1
	propMaxPWM      = 3
	propFallbackPWM = 5
	propMaxSpeed    = 7
)

// Field offsets within a fan control record
const (
	ctrlMode           = 0
	ctrlManualSetpoint = 1
	ctrlSource         = 3

	ctrlPIDSetpoint     = 5
	ctrlPIDProportional = 7
	ctrlPIDIntegral     = 9
	ctrlPIDDerivative   = 11
	ctrlPIDTn           = 13
	ctrlPIDHysteresis   = 15
	ctrlPIDInvertFlags  = 17

	ctrlCurveStartTemp = 19
	ctrlCurveTemps     = 21
	ctrlCurvePowers    = 53
)

// NumCurvePoints is the number of temperature/power pairs in a fan curve.
const NumCurvePoints = 16

// ackReport is the constant payload the official software sends on report
// ID 0x02 after every configuration upload. The device treats it as the
// commit of the change.
var ackReport = [AckReportSize]byte{
	0x02, 0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00, 0x00, 0x34, 0xC6,
}

// Labels for provided values, matching the device's channel naming
const (
	LabelCoolantTemp  = "Coolant temp"
	LabelPlusFiveVolt = "+5V voltage"
)

var (
	labelSpeed   = [NumChannels]string{"Pump speed", "Fan speed"}
	labelPower   = [NumChannels]string{"Pump power", "Fan power"}
	labelVoltage = [NumChannels]string{"Pump voltage", "Fan voltage"}
	labelCurrent = [NumChannels]string{"Pump current", "Fan current"}
)

// SpeedLabel returns the display label for a channel's speed reading.
func SpeedLabel(c Channel) string { return labelSpeed[c] }

// PowerLabel returns the display label for a channel's power reading.
func PowerLabel(c Channel) string { return labelPower[c] }

// VoltageLabel returns the display label for a channel's voltage reading.
func VoltageLabel(c Channel) string { return labelVoltage[c] }

// CurrentLabel returns the display label for a channel's current reading.
func CurrentLabel(c Channel) string { return labelCurrent[c] }
