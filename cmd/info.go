// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Aquastat Authors

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var infoTimeout int

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Display device identity",
	Long: `Display the device serial number, firmware version and power cycle
count, decoded from the next sensor report.

Requires a direct HID connection.`,
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
	infoCmd.Flags().IntVar(&infoTimeout, "timeout", 5, "Seconds to wait for a sensor report")
}

func runInfo(cmd *cobra.Command, args []string) error {
	dev, connInfo, err := OpenDevice()
	if err != nil {
		return err
	}
	src := newHIDFrameSource(dev)
	defer src.Close()

	done := make(chan error, 1)
	go func() {
		_, err := src.Next()
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return err
		}
	case <-time.After(time.Duration(infoTimeout) * time.Second):
		fmt.Fprintf(os.Stderr, "Timeout: no sensor report within %d seconds\n", infoTimeout)
		os.Exit(1)
	}

	serial, firmware, powerCycles := src.Session().DeviceInfo()

	fmt.Printf("Connection:   %s\n", connInfo)
	fmt.Printf("Serial:       %s\n", serial)
	fmt.Printf("Firmware:     %d\n", firmware)
	fmt.Printf("Power cycles: %d\n", powerCycles)
	return nil
}
