// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Aquastat Authors
//
// Aquastat - Aquacomputer D5 Next monitoring and control tool
//
// A CLI tool for reading sensor telemetry from a D5 Next watercooling
// pump and configuring its pump/fan control channels over HID.

package main

import (
	"os"

	"github.com/openaqua/aquastat/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
