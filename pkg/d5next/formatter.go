// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Aquastat Authors

package d5next

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// FormatSnapshot formats a snapshot into a human-readable block, one
// labeled reading per line.
func FormatSnapshot(snap *Snapshot) string {
	var b strings.Builder

	fmt.Fprintf(&b, "[%s]\n", snap.Updated.Format("15:04:05.000"))
	fmt.Fprintf(&b, "  %-14s %6.2f °C\n", LabelCoolantTemp+":", float64(snap.CoolantTemp)/1000)

	for _, c := range []Channel{ChannelPump, ChannelFan} {
		ic, _ := c.internal()
		fmt.Fprintf(&b, "  %-14s %6d RPM (setpoint %d/255)\n", SpeedLabel(c)+":", snap.Speed[ic], snap.Setpoint[ic])
		fmt.Fprintf(&b, "  %-14s %6.2f V\n", VoltageLabel(c)+":", float64(snap.Voltage[ic])/1000)
		fmt.Fprintf(&b, "  %-14s %6d mA\n", CurrentLabel(c)+":", snap.Current[ic])
		fmt.Fprintf(&b, "  %-14s %6.2f W\n", PowerLabel(c)+":", float64(snap.Power[ic])/1e6)
	}

	fmt.Fprintf(&b, "  %-14s %6.2f V\n", LabelPlusFiveVolt+":", float64(snap.PlusFiveVolt)/1000)

	return b.String()
}

// FormatFanControl formats a decoded control record.
func FormatFanControl(c Channel, fc *FanControl) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s control:\n", c)
	fmt.Fprintf(&b, "  Mode:            %s\n", fc.Mode)
	fmt.Fprintf(&b, "  Manual setpoint: %d/255\n", fc.ManualSetpoint)
	fmt.Fprintf(&b, "  Source:          %d\n", fc.Source)
	fmt.Fprintf(&b, "  PID: setpoint=%d P=%d I=%d D=%d Tn=%d hyst=%d flags=0x%04X\n",
		fc.PID.Setpoint, fc.PID.Proportional, fc.PID.Integral, fc.PID.Derivative,
		fc.PID.Tn, fc.PID.Hysteresis, fc.PID.InvertFlags)
	fmt.Fprintf(&b, "  Curve (start %.2f °C):\n", float64(fc.Curve.StartTemp)/1000)
	for i := 0; i < NumCurvePoints; i++ {
		fmt.Fprintf(&b, "    point %2d: %6.2f °C -> %3d/255\n",
			i, float64(fc.Curve.Temps[i])/1000, fc.Curve.Powers[i])
	}

	return b.String()
}

// FormatFanProperties formats a decoded properties record.
func FormatFanProperties(c Channel, fp *FanProperties) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s properties:\n", c)
	fmt.Fprintf(&b, "  Flags:        0x%02X\n", fp.Flags)
	fmt.Fprintf(&b, "  Min PWM:      %d/255\n", fp.MinPWM)
	fmt.Fprintf(&b, "  Max PWM:      %d/255\n", fp.MaxPWM)
	fmt.Fprintf(&b, "  Fallback PWM: %d/255\n", fp.FallbackPWM)
	fmt.Fprintf(&b, "  Max speed:    %d RPM\n", fp.MaxSpeed)

	return b.String()
}

// FormatBlob formats a full control report as a hex dump followed by a
// decoded summary, including the stored versus computed checksum.
func FormatBlob(blob []byte) string {
	var b strings.Builder

	for i, by := range blob {
		fmt.Fprintf(&b, "%02x ", by)
		if (i+1)%16 == 0 {
			b.WriteByte('\n')
		}
	}
	b.WriteByte('\n')

	if len(blob) < ControlReportSize {
		fmt.Fprintf(&b, "\nshort report: %d of %d bytes\n", len(blob), ControlReportSize)
		return b.String()
	}

	for _, c := range []Channel{ChannelPump, ChannelFan} {
		ic, _ := c.internal()
		fc := decodeFanControl(blob, ic)
		fmt.Fprintf(&b, "\n%s mode: %s  manual setpoint: %d/255\n", c, fc.Mode, fc.ManualSetpoint)
		for i := 0; i < NumCurvePoints; i++ {
			fmt.Fprintf(&b, "%s curve: temp %6.2f °C power %3d/255\n",
				c, float64(fc.Curve.Temps[i])/1000, fc.Curve.Powers[i])
		}
	}

	stored := binary.BigEndian.Uint16(blob[offControlCRC:])
	computed := blobChecksum(blob)
	status := "OK"
	if stored != computed {
		status = "MISMATCH"
	}
	fmt.Fprintf(&b, "\ncrc: stored 0x%04X computed 0x%04X (%s)\n", stored, computed, status)

	return b.String()
}
