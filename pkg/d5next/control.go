// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Aquastat Authors

package d5next

import (
	"encoding/binary"
	"fmt"
)

// ControlMode selects how a channel drives its output.
type ControlMode uint8

// Control mode values, as stored in the control report
const (
	ModeManual ControlMode = 0
	ModePID    ControlMode = 1
	ModeCurve  ControlMode = 2
)

func (m ControlMode) String() string {
	switch m {
	case ModeManual:
		return "manual"
	case ModePID:
		return "pid"
	case ModeCurve:
		return "curve"
	default:
		return fmt.Sprintf("mode(0x%02X)", uint8(m))
	}
}

// Valid reports whether m is one of the three defined modes.
func (m ControlMode) Valid() bool {
	return m <= ModeCurve
}

// ParseControlMode parses a mode name as used on the command line.
func ParseControlMode(s string) (ControlMode, error) {
	switch s {
	case "manual":
		return ModeManual, nil
	case "pid":
		return ModePID, nil
	case "curve":
		return ModeCurve, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// FanProperties is the decoded per-channel properties record. PWM bounds
// are in 0-255 control units, max speed in RPM.
type FanProperties struct {
	Flags       uint8
	MinPWM      uint8
	MaxPWM      uint8
	FallbackPWM uint8
	MaxSpeed    uint16
}

// PIDParams is the parameter block of the PID control mode. The gains are
// kept in the device's raw encoding; their units are not documented.
type PIDParams struct {
	Setpoint     uint16
	Proportional uint16
	Integral     uint16
	Derivative   uint16
	Tn           uint16
	Hysteresis   uint16
	InvertFlags  uint16
}

// FanCurve is the 16-point temperature-to-power table of the curve control
// mode. Temperatures are milli-degrees, powers 0-255 control units. Point i
// of Temps pairs with point i of Powers; the device, not this package, is
// responsible for monotonicity.
type FanCurve struct {
	StartTemp int32
	Temps     [NumCurvePoints]int32
	Powers    [NumCurvePoints]uint8
}

// FanControl is the decoded per-channel control record. Exactly one mode is
// active; the other parameter blocks keep their configured values.
type FanControl struct {
	Mode           ControlMode
	ManualSetpoint uint8
	Source         uint16
	PID            PIDParams
	Curve          FanCurve
}

// decodeFanProperties decodes a channel's properties record out of a full
// control report.
func decodeFanProperties(blob []byte, c internalChannel) FanProperties {
	rec := blob[fanPropertiesOffset(c):]
	be16 := func(off int) uint16 { return binary.BigEndian.Uint16(rec[off:]) }

	return FanProperties{
		Flags:       rec[propFlags],
		MinPWM:      RawPercentToPWM(be16(propMinPWM)),
		MaxPWM:      RawPercentToPWM(be16(propMaxPWM)),
		FallbackPWM: RawPercentToPWM(be16(propFallbackPWM)),
		MaxSpeed:    be16(propMaxSpeed),
	}
}

// decodeFanControl decodes a channel's control record out of a full
// control report.
func decodeFanControl(blob []byte, c internalChannel) FanControl {
	rec := blob[fanControlOffset(c):]
	be16 := func(off int) uint16 { return binary.BigEndian.Uint16(rec[off:]) }

	fc := FanControl{
		Mode:           ControlMode(rec[ctrlMode]),
		ManualSetpoint: RawPercentToPWM(be16(ctrlManualSetpoint)),
		Source:         be16(ctrlSource),
		PID: PIDParams{
			Setpoint:     be16(ctrlPIDSetpoint),
			Proportional: be16(ctrlPIDProportional),
			Integral:     be16(ctrlPIDIntegral),
			Derivative:   be16(ctrlPIDDerivative),
			Tn:           be16(ctrlPIDTn),
			Hysteresis:   be16(ctrlPIDHysteresis),
			InvertFlags:  be16(ctrlPIDInvertFlags),
		},
	}

	fc.Curve.StartTemp = CentiToMilli(be16(ctrlCurveStartTemp))
	for i := 0; i < NumCurvePoints; i++ {
		fc.Curve.Temps[i] = CentiToMilli(be16(ctrlCurveTemps + i*2))
		fc.Curve.Powers[i] = RawPercentToPWM(be16(ctrlCurvePowers + i*2))
	}

	return fc
}
