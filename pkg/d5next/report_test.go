// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Aquastat Authors

package d5next

import (
	"encoding/binary"
	"errors"
	"testing"
)

// buildSensorReport builds a synthetic sensor report with the given
// big-endian fields placed at their wire offsets.
func buildSensorReport(fields map[int]uint16) []byte {
	data := make([]byte, 0x9E)
	data[0] = SensorReportID
	for off, val := range fields {
		binary.BigEndian.PutUint16(data[off:], val)
	}
	return data
}

func TestDecodeSensorReport(t *testing.T) {
	data := buildSensorReport(map[int]uint16{
		offSerialFirst:  12345,
		offSerialSecond: 54321,
		offFirmware:     1023,
		offCoolantTemp:  2585, // 25.85 °C
		offPumpSpeed:    2500,
		offFanSpeed:     1200,
		offPumpSetpoint: 5020, // 50.20% -> 128
		offFanSetpoint:  10000,
		offPumpVoltage:  1210, // 12.10 V
		offFanVoltage:   1195,
		offPlusFiveVolt: 502,
		offPumpCurrent:  380,
		offFanCurrent:   150,
		offPumpPower:    460, // 4.60 W
		offFanPower:     180,
	})
	binary.BigEndian.PutUint32(data[offPowerCycles:], 77)

	r, err := DecodeSensorReport(data)
	if err != nil {
		t.Fatalf("DecodeSensorReport failed: %v", err)
	}

	if r.SerialNumber != [2]uint16{12345, 54321} {
		t.Errorf("serial = %v", r.SerialNumber)
	}
	if r.SerialString() != "12345-54321" {
		t.Errorf("serial string = %s", r.SerialString())
	}
	if r.FirmwareVersion != 1023 {
		t.Errorf("firmware = %d", r.FirmwareVersion)
	}
	if r.PowerCycles != 77 {
		t.Errorf("power cycles = %d", r.PowerCycles)
	}
	if r.CoolantTemp != 25850 {
		t.Errorf("coolant temp = %d m°C, want 25850", r.CoolantTemp)
	}
	if r.Speed[chanPump] != 2500 || r.Speed[chanFan] != 1200 {
		t.Errorf("speeds = %v", r.Speed)
	}
	if r.Setpoint[chanPump] != 128 || r.Setpoint[chanFan] != 255 {
		t.Errorf("setpoints = %v", r.Setpoint)
	}
	if r.Voltage[chanPump] != 12100 || r.Voltage[chanFan] != 11950 {
		t.Errorf("voltages = %v", r.Voltage)
	}
	if r.PlusFiveVolt != 5020 {
		t.Errorf("+5V = %d mV", r.PlusFiveVolt)
	}
	if r.Current[chanPump] != 380 || r.Current[chanFan] != 150 {
		t.Errorf("currents = %v", r.Current)
	}
	if r.Power[chanPump] != 4600000 || r.Power[chanFan] != 1800000 {
		t.Errorf("powers = %v", r.Power)
	}
}

func TestDecodeSensorReport_WrongID(t *testing.T) {
	data := make([]byte, 0x9E)
	data[0] = ControlReportID

	if _, err := DecodeSensorReport(data); !errors.Is(err, ErrMalformedTelemetry) {
		t.Errorf("error = %v, want ErrMalformedTelemetry", err)
	}
}

func TestDecodeSensorReport_Short(t *testing.T) {
	for _, n := range []int{0, 1, 0x57, SensorReportMinSize - 1} {
		data := make([]byte, n)
		if n > 0 {
			data[0] = SensorReportID
		}
		if _, err := DecodeSensorReport(data); !errors.Is(err, ErrMalformedTelemetry) {
			t.Errorf("len %d: error = %v, want ErrMalformedTelemetry", n, err)
		}
	}
}

func TestDecodeSensorReport_MinimumLength(t *testing.T) {
	data := buildSensorReport(nil)[:SensorReportMinSize]
	if _, err := DecodeSensorReport(data); err != nil {
		t.Errorf("minimum-length report rejected: %v", err)
	}
}
