// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Aquastat Authors

package cmd

import (
	"github.com/spf13/cobra"
)

var (
	// HID connection flags
	devicePath string
	deviceVID  uint16
	devicePID  uint16

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool
)

// Default USB identity of the D5 Next pump
const (
	defaultVID = 0x0C70
	defaultPID = 0xF00E
)

var rootCmd = &cobra.Command{
	Use:   "aquastat",
	Short: "Aquacomputer D5 Next monitor and control",
	Long: `Aquastat - a CLI tool for monitoring and controlling the Aquacomputer
D5 Next watercooling pump over USB HID.

Provides live telemetry (coolant temperature, pump and fan speed, voltage,
current, power), fan control configuration (manual, PID and curve modes)
and low-level diagnostics for the device's checksummed configuration blob.

Connection modes:
  HID:       default; picks the first matching device, or --device <path>
  WebSocket: --url ws://host/path [--username user] to consume a telemetry
             stream published by 'aquastat serve'

Configuration commands (get, set, info, dump) always need a direct HID
connection. For WebSocket authentication, the password is read from the
AQUASTAT_PASSWORD environment variable, or prompted interactively if not
set. There is intentionally no --password flag, to keep credentials out of
shell history.`,
	Version: "1.0.0",
}

func init() {
	// HID connection flags
	rootCmd.PersistentFlags().StringVarP(&devicePath, "device", "d", "", "HID device path (default: first matching device)")
	rootCmd.PersistentFlags().Uint16Var(&deviceVID, "vid", defaultVID, "USB vendor ID")
	rootCmd.PersistentFlags().Uint16Var(&devicePID, "pid", defaultPID, "USB product ID")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
