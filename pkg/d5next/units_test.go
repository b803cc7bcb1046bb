// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Aquastat Authors

package d5next

import "testing"

func TestRawPercentToPWM(t *testing.T) {
	tests := []struct {
		name string
		raw  uint16
		want uint8
	}{
		{"zero", 0x0000, 0},
		{"full scale", 0x2710, 255}, // 100.00%
		{"quarter-ish", 0x0A1A, 66}, // 25.86%
		{"half", 5000, 128},         // 50.00% -> 127.5 rounds up
		{"rounds down", 19, 0},      // 0.19% -> 0.48
		{"rounds up", 20, 1},        // 0.20% -> 0.51
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RawPercentToPWM(tt.raw); got != tt.want {
				t.Errorf("RawPercentToPWM(%d) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}

func TestPWMToRawPercent(t *testing.T) {
	tests := []struct {
		name string
		pwm  uint8
		want uint16
	}{
		{"zero", 0, 0},
		{"full scale", 255, 10000},
		{"mid", 128, 5020}, // 128*10000/255 = 5019.6
		{"one", 1, 39},     // 39.2
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PWMToRawPercent(tt.pwm); got != tt.want {
				t.Errorf("PWMToRawPercent(%d) = %d, want %d", tt.pwm, got, tt.want)
			}
		})
	}
}

func TestPWMRoundTrip(t *testing.T) {
	// The percent encoding has finer resolution than the 0-255 range, so
	// a round trip may drift by at most one control unit.
	for u := 0; u <= 255; u++ {
		got := int(RawPercentToPWM(PWMToRawPercent(uint8(u))))
		diff := got - u
		if diff < -1 || diff > 1 {
			t.Errorf("round trip of %d gave %d (drift %d)", u, got, diff)
		}
	}
}

func TestCentiToMilli(t *testing.T) {
	if got := CentiToMilli(2585); got != 25850 {
		t.Errorf("CentiToMilli(2585) = %d, want 25850", got)
	}
	if got := CentiToMilli(0); got != 0 {
		t.Errorf("CentiToMilli(0) = %d, want 0", got)
	}
}

func TestMilliToCenti(t *testing.T) {
	tests := []struct {
		milli int32
		want  uint16
	}{
		{25850, 2585},
		{25854, 2585}, // rounds down
		{25855, 2586}, // half rounds up
		{0, 0},
		{-100, 0}, // clamped
	}

	for _, tt := range tests {
		if got := MilliToCenti(tt.milli); got != tt.want {
			t.Errorf("MilliToCenti(%d) = %d, want %d", tt.milli, got, tt.want)
		}
	}
}

func TestPowerAndCurrentScaling(t *testing.T) {
	if got := RawPowerToMicrowatts(1234); got != 12340000 {
		t.Errorf("RawPowerToMicrowatts(1234) = %d, want 12340000", got)
	}
	if got := RawCurrentToMilliamps(567); got != 567 {
		t.Errorf("RawCurrentToMilliamps(567) = %d, want 567", got)
	}
}
