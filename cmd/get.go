// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Aquastat Authors

package cmd

import (
	"fmt"

	"github.com/openaqua/aquastat/pkg/d5next"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <pump|fan>",
	Short: "Display a channel's control configuration",
	Long: `Download the configuration report and display one channel's decoded
control record (mode, manual setpoint, PID parameters, fan curve) and
properties record (PWM bounds, fallback, max speed).

Requires a direct HID connection.

Examples:
  aquastat get pump
  aquastat get fan`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	channel, err := d5next.ParseChannel(args[0])
	if err != nil {
		return err
	}

	dev, _, err := OpenDevice()
	if err != nil {
		return err
	}
	defer dev.Close()

	session := d5next.NewSession(dev)

	fc, err := session.FanControl(channel)
	if err != nil {
		return err
	}
	fp, err := session.FanProperties(channel)
	if err != nil {
		return err
	}

	fmt.Print(d5next.FormatFanControl(channel, &fc))
	fmt.Println()
	fmt.Print(d5next.FormatFanProperties(channel, &fp))
	return nil
}
