// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Aquastat Authors

package d5next

// The device expresses percentages as big-endian fixed-point values where
// 10000 means 100.00%. The external control surface uses the 0-255 range.
// Conversions round half away from zero so that both directions are
// deterministic; the 8-bit side is lossy by nature.

// RawPercentToPWM converts a fixed-point percent value (host byte order)
// to the 0-255 control range.
func RawPercentToPWM(raw uint16) uint8 {
	return uint8((uint32(raw)*255 + 5000) / 10000)
}

// PWMToRawPercent converts a 0-255 control value to the device's
// fixed-point percent encoding (host byte order).
func PWMToRawPercent(pwm uint8) uint16 {
	return uint16((uint32(pwm)*10000 + 127) / 255)
}

// CentiToMilli converts a centi-unit reading (temperature in centi-degrees,
// voltage in centivolts) to milli-units. Exact, no rounding.
func CentiToMilli(raw uint16) int32 {
	return int32(raw) * 10
}

// MilliToCenti converts a milli-unit value back to the device's centi-unit
// encoding, rounding half up.
func MilliToCenti(milli int32) uint16 {
	if milli < 0 {
		return 0
	}
	return uint16((milli + 5) / 10)
}

// RawPowerToMicrowatts converts the device's power reading to microwatts.
func RawPowerToMicrowatts(raw uint16) uint32 {
	return uint32(raw) * 10000
}

// RawCurrentToMilliamps converts the device's current reading to
// milliamps. The device already reports milliamps; this exists to keep the
// wire-to-exposed mapping explicit in one place.
func RawCurrentToMilliamps(raw uint16) uint16 {
	return raw
}
