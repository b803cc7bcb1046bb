// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Aquastat Authors

package d5next

import "fmt"

// The control report is handled as a flat byte buffer with an explicit
// offset table rather than an overlaid struct: the wire layout is packed
// and big-endian, and nothing about in-memory struct layout is assumed.
// All offset helpers take internal channel values.

func fanPropertiesOffset(c internalChannel) int {
	return offFanProperties + int(c)*sizeFanProperties
}

func fanControlOffset(c internalChannel) int {
	return offFanControl + int(c)*sizeFanControl
}

func modeOffset(c internalChannel) int {
	return fanControlOffset(c) + ctrlMode
}

func manualSetpointOffset(c internalChannel) int {
	return fanControlOffset(c) + ctrlManualSetpoint
}

func minPWMOffset(c internalChannel) int {
	return fanPropertiesOffset(c) + propMinPWM
}

func maxPWMOffset(c internalChannel) int {
	return fanPropertiesOffset(c) + propMaxPWM
}

func fallbackPWMOffset(c internalChannel) int {
	return fanPropertiesOffset(c) + propFallbackPWM
}

func maxSpeedOffset(c internalChannel) int {
	return fanPropertiesOffset(c) + propMaxSpeed
}

func startTempOffset(c internalChannel) int {
	return fanControlOffset(c) + ctrlCurveStartTemp
}

func curveTempOffset(c internalChannel, point int) (int, error) {
	if point < 0 || point >= NumCurvePoints {
		return 0, fmt.Errorf("curve point %d out of range [0,%d)", point, NumCurvePoints)
	}
	return fanControlOffset(c) + ctrlCurveTemps + point*2, nil
}

func curvePowerOffset(c internalChannel, point int) (int, error) {
	if point < 0 || point >= NumCurvePoints {
		return 0, fmt.Errorf("curve point %d out of range [0,%d)", point, NumCurvePoints)
	}
	return fanControlOffset(c) + ctrlCurvePowers + point*2, nil
}
