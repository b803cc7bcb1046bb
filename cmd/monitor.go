// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Aquastat Authors

package cmd

import (
	"fmt"
	"log"

	"github.com/openaqua/aquastat/pkg/d5next"
	"github.com/spf13/cobra"
)

var monitorShowStats bool

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Continuously display telemetry in human-readable format",
	Long: `Continuously decode and display sensor reports as they arrive.

The device pushes a sensor report roughly once per second. Each report is
shown with its timestamp, coolant temperature, and per-channel speed,
voltage, current and power readings.

Supports both direct HID and WebSocket connections.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().BoolVar(&monitorShowStats, "stats", false, "Also display periodic ingestion statistics")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	src, connInfo, err := OpenFrameSource()
	if err != nil {
		return err
	}
	defer src.Close()

	fmt.Printf("Aquastat - Telemetry Monitor\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	for {
		frame, err := src.Next()
		if err != nil {
			if err == ErrConnectionClosed {
				log.Printf("Connection closed")
				return nil
			}
			return err
		}

		switch frame.Kind {
		case d5next.FrameSnapshot:
			if frame.Snapshot != nil {
				fmt.Print(d5next.FormatSnapshot(frame.Snapshot))
				fmt.Println()
			}
		case d5next.FrameStats:
			if monitorShowStats && frame.Stats != nil {
				fmt.Printf("--- Ingestion statistics ---\n%s\n", frame.Stats)
			}
		}
	}
}
