// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Aquastat Authors

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/openaqua/aquastat/pkg/d5next"
	"github.com/spf13/cobra"
)

var sensorsTimeout int

var sensorsCmd = &cobra.Command{
	Use:   "sensors",
	Short: "Display one telemetry snapshot and exit",
	Long: `Wait for the next sensor report, display it and exit.

The device pushes roughly once per second, so this normally returns within
a second or two. Useful for scripting and for a quick health check.

Exit codes:
  0 - Snapshot received before timeout
  1 - Timeout reached without a valid sensor report
  2 - Connection error`,
	RunE: runSensors,
}

func init() {
	rootCmd.AddCommand(sensorsCmd)
	sensorsCmd.Flags().IntVar(&sensorsTimeout, "timeout", 5, "Seconds to wait for a sensor report")
}

func runSensors(cmd *cobra.Command, args []string) error {
	src, _, err := OpenFrameSource()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	defer src.Close()

	type result struct {
		frame *d5next.Frame
		err   error
	}
	frames := make(chan result, 1)
	go func() {
		for {
			frame, err := src.Next()
			if err != nil {
				frames <- result{nil, err}
				return
			}
			if frame.Kind == d5next.FrameSnapshot && frame.Snapshot != nil {
				frames <- result{frame, nil}
				return
			}
		}
	}()

	select {
	case r := <-frames:
		if r.err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", r.err)
			os.Exit(2)
		}
		fmt.Print(d5next.FormatSnapshot(r.frame.Snapshot))
		return nil
	case <-time.After(time.Duration(sensorsTimeout) * time.Second):
		fmt.Fprintf(os.Stderr, "Timeout: no sensor report within %d seconds\n", sensorsTimeout)
		os.Exit(1)
	}
	return nil
}
