// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Aquastat Authors

package d5next

import (
	"encoding/binary"
	"fmt"
)

// SensorReport holds the decoded fields of one periodic sensor push.
// Values are already converted to exposed units: milli-degrees for
// temperatures, millivolts, milliamps, microwatts, RPM, and 0-255 control
// units for the setpoints. Per-channel arrays are indexed by the device's
// internal channel order (fan 0, pump 1).
type SensorReport struct {
	SerialNumber    [2]uint16 `cbor:"1,keyasint"`
	FirmwareVersion uint16    `cbor:"2,keyasint"`
	PowerCycles     uint32    `cbor:"3,keyasint"`

	CoolantTemp int32 `cbor:"4,keyasint"`

	Speed    [NumChannels]uint16 `cbor:"5,keyasint"`
	Setpoint [NumChannels]uint8  `cbor:"6,keyasint"`
	Voltage  [NumChannels]uint32 `cbor:"7,keyasint"`
	Current  [NumChannels]uint16 `cbor:"8,keyasint"`
	Power    [NumChannels]uint32 `cbor:"9,keyasint"`

	PlusFiveVolt uint32 `cbor:"10,keyasint"`
}

// SerialString formats the two-part serial number the way the device
// labels it.
func (r *SensorReport) SerialString() string {
	return fmt.Sprintf("%05d-%05d", r.SerialNumber[0], r.SerialNumber[1])
}

// Per-channel accessors in the external channel numbering. An out-of-range
// channel reads as zero; callers validating channels go through a session.

// ChannelSpeed returns a channel's measured speed in RPM.
func (r *SensorReport) ChannelSpeed(c Channel) uint16 {
	ic, err := c.internal()
	if err != nil {
		return 0
	}
	return r.Speed[ic]
}

// ChannelSetpoint returns a channel's reported setpoint in control units.
func (r *SensorReport) ChannelSetpoint(c Channel) uint8 {
	ic, err := c.internal()
	if err != nil {
		return 0
	}
	return r.Setpoint[ic]
}

// ChannelVoltage returns a channel's supply voltage in millivolts.
func (r *SensorReport) ChannelVoltage(c Channel) uint32 {
	ic, err := c.internal()
	if err != nil {
		return 0
	}
	return r.Voltage[ic]
}

// ChannelCurrent returns a channel's current draw in milliamps.
func (r *SensorReport) ChannelCurrent(c Channel) uint16 {
	ic, err := c.internal()
	if err != nil {
		return 0
	}
	return r.Current[ic]
}

// ChannelPower returns a channel's power draw in microwatts.
func (r *SensorReport) ChannelPower(c Channel) uint32 {
	ic, err := c.internal()
	if err != nil {
		return 0
	}
	return r.Power[ic]
}

// DecodeSensorReport decodes a raw sensor report, including the leading
// report ID byte. Reports with the wrong ID or too short to cover the
// decoded field range fail with ErrMalformedTelemetry.
func DecodeSensorReport(data []byte) (SensorReport, error) {
	var r SensorReport

	if len(data) == 0 || data[0] != SensorReportID {
		return r, fmt.Errorf("%w: not a sensor report", ErrMalformedTelemetry)
	}
	if len(data) < SensorReportMinSize {
		return r, fmt.Errorf("%w: %d bytes (need %d)", ErrMalformedTelemetry, len(data), SensorReportMinSize)
	}

	be16 := func(off int) uint16 { return binary.BigEndian.Uint16(data[off:]) }

	r.SerialNumber[0] = be16(offSerialFirst)
	r.SerialNumber[1] = be16(offSerialSecond)
	r.FirmwareVersion = be16(offFirmware)
	r.PowerCycles = binary.BigEndian.Uint32(data[offPowerCycles:])

	r.CoolantTemp = CentiToMilli(be16(offCoolantTemp))

	r.Speed[chanFan] = be16(offFanSpeed)
	r.Speed[chanPump] = be16(offPumpSpeed)

	r.Setpoint[chanFan] = RawPercentToPWM(be16(offFanSetpoint))
	r.Setpoint[chanPump] = RawPercentToPWM(be16(offPumpSetpoint))

	r.Voltage[chanFan] = uint32(CentiToMilli(be16(offFanVoltage)))
	r.Voltage[chanPump] = uint32(CentiToMilli(be16(offPumpVoltage)))
	r.PlusFiveVolt = uint32(CentiToMilli(be16(offPlusFiveVolt)))

	r.Current[chanFan] = RawCurrentToMilliamps(be16(offFanCurrent))
	r.Current[chanPump] = RawCurrentToMilliamps(be16(offPumpCurrent))

	r.Power[chanFan] = RawPowerToMicrowatts(be16(offFanPower))
	r.Power[chanPump] = RawPowerToMicrowatts(be16(offPumpPower))

	return r, nil
}
