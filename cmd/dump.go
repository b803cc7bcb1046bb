// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Aquastat Authors

package cmd

import (
	"fmt"

	"github.com/openaqua/aquastat/pkg/d5next"
	"github.com/spf13/cobra"
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Hex dump the device configuration blob",
	Long: `Download the full configuration report and display it as a hex dump
followed by a decoded summary: per-channel mode, manual setpoint, curve
table, and the stored versus computed checksum.

The device does not reject a blob with a bad stored checksum on download,
so a MISMATCH line here points at an interrupted earlier write or a
foreign tool. Requires a direct HID connection.`,
	RunE: runDump,
}

func init() {
	rootCmd.AddCommand(dumpCmd)
}

func runDump(cmd *cobra.Command, args []string) error {
	dev, _, err := OpenDevice()
	if err != nil {
		return err
	}
	defer dev.Close()

	session := d5next.NewSession(dev)
	blob, err := session.Blob()
	if err != nil {
		return err
	}

	fmt.Print(d5next.FormatBlob(blob))
	return nil
}
