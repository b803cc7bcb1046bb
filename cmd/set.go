// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Aquastat Authors

package cmd

import (
	"fmt"
	"strconv"

	"github.com/openaqua/aquastat/pkg/d5next"
	hid "github.com/sstallion/go-hid"
	"github.com/spf13/cobra"
)

var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Change the device configuration",
	Long: `Change one field of the device configuration.

Every write downloads the full configuration report, patches exactly the
targeted field, recomputes the checksum and uploads the whole report back.
All unrelated settings (lighting, the other channel, alarm thresholds)
survive untouched.

Requires a direct HID connection.

Examples:
  aquastat set mode pump curve
  aquastat set pwm fan 128
  aquastat set min-pwm fan 64
  aquastat set start-temp pump 30.0
  aquastat set curve fan 3 42.5 180`,
}

func init() {
	rootCmd.AddCommand(setCmd)
	setCmd.AddCommand(setModeCmd)
	setCmd.AddCommand(setPWMCmd)
	setCmd.AddCommand(setMinPWMCmd)
	setCmd.AddCommand(setMaxPWMCmd)
	setCmd.AddCommand(setFallbackPWMCmd)
	setCmd.AddCommand(setStartTempCmd)
	setCmd.AddCommand(setCurveCmd)
}

// withSession opens the selected HID device and runs fn against a session
// on it.
func withSession(fn func(*d5next.Session) error) error {
	dev, _, err := OpenDevice()
	if err != nil {
		return err
	}
	defer func(d *hid.Device) { _ = d.Close() }(dev)

	return fn(d5next.NewSession(dev))
}

// parsePWM parses a 0-255 control unit argument.
func parsePWM(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid PWM value %q (want 0-255)", s)
	}
	return uint8(v), nil
}

// parseTemp parses a temperature argument in degrees Celsius and returns
// milli-degrees.
func parseTemp(s string) (int32, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid temperature %q (want degrees Celsius)", s)
	}
	return int32(v * 1000), nil
}

var setModeCmd = &cobra.Command{
	Use:   "mode <pump|fan> <manual|pid|curve>",
	Short: "Set a channel's control mode",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		channel, err := d5next.ParseChannel(args[0])
		if err != nil {
			return err
		}
		mode, err := d5next.ParseControlMode(args[1])
		if err != nil {
			return err
		}
		return withSession(func(s *d5next.Session) error {
			if err := s.SetMode(channel, mode); err != nil {
				return err
			}
			fmt.Printf("%s mode set to %s\n", channel, mode)
			return nil
		})
	},
}

var setPWMCmd = &cobra.Command{
	Use:   "pwm <pump|fan> <0-255>",
	Short: "Set a channel's manual setpoint",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		channel, err := d5next.ParseChannel(args[0])
		if err != nil {
			return err
		}
		pwm, err := parsePWM(args[1])
		if err != nil {
			return err
		}
		return withSession(func(s *d5next.Session) error {
			if err := s.SetManualSetpoint(channel, pwm); err != nil {
				return err
			}
			fmt.Printf("%s manual setpoint set to %d/255\n", channel, pwm)
			return nil
		})
	},
}

var setMinPWMCmd = &cobra.Command{
	Use:   "min-pwm <pump|fan> <0-255>",
	Short: "Set a channel's lower output bound",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		channel, err := d5next.ParseChannel(args[0])
		if err != nil {
			return err
		}
		pwm, err := parsePWM(args[1])
		if err != nil {
			return err
		}
		return withSession(func(s *d5next.Session) error {
			if err := s.SetMinPWM(channel, pwm); err != nil {
				return err
			}
			fmt.Printf("%s minimum PWM set to %d/255\n", channel, pwm)
			return nil
		})
	},
}

var setMaxPWMCmd = &cobra.Command{
	Use:   "max-pwm <pump|fan> <0-255>",
	Short: "Set a channel's upper output bound",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		channel, err := d5next.ParseChannel(args[0])
		if err != nil {
			return err
		}
		pwm, err := parsePWM(args[1])
		if err != nil {
			return err
		}
		return withSession(func(s *d5next.Session) error {
			if err := s.SetMaxPWM(channel, pwm); err != nil {
				return err
			}
			fmt.Printf("%s maximum PWM set to %d/255\n", channel, pwm)
			return nil
		})
	},
}

var setFallbackPWMCmd = &cobra.Command{
	Use:   "fallback-pwm <pump|fan> <0-255>",
	Short: "Set a channel's fallback setpoint",
	Long: `Set the output a channel falls back to when its temperature source
goes away.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		channel, err := d5next.ParseChannel(args[0])
		if err != nil {
			return err
		}
		pwm, err := parsePWM(args[1])
		if err != nil {
			return err
		}
		return withSession(func(s *d5next.Session) error {
			if err := s.SetFallbackPWM(channel, pwm); err != nil {
				return err
			}
			fmt.Printf("%s fallback PWM set to %d/255\n", channel, pwm)
			return nil
		})
	},
}

var setStartTempCmd = &cobra.Command{
	Use:   "start-temp <pump|fan> <degrees>",
	Short: "Set a channel's curve start temperature",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		channel, err := d5next.ParseChannel(args[0])
		if err != nil {
			return err
		}
		milli, err := parseTemp(args[1])
		if err != nil {
			return err
		}
		return withSession(func(s *d5next.Session) error {
			if err := s.SetStartTemp(channel, milli); err != nil {
				return err
			}
			fmt.Printf("%s curve start temperature set to %.2f °C\n", channel, float64(milli)/1000)
			return nil
		})
	},
}

var setCurveCmd = &cobra.Command{
	Use:   "curve <pump|fan> <point> <degrees> <0-255>",
	Short: "Set one fan curve point",
	Long: `Set one point of a channel's 16-point fan curve: its temperature in
degrees Celsius and its power in 0-255 control units.

The device interpolates between points; it is up to the operator to keep
the table monotonic.`,
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		channel, err := d5next.ParseChannel(args[0])
		if err != nil {
			return err
		}
		point, err := strconv.Atoi(args[1])
		if err != nil || point < 0 || point >= d5next.NumCurvePoints {
			return fmt.Errorf("invalid curve point %q (want 0-%d)", args[1], d5next.NumCurvePoints-1)
		}
		milli, err := parseTemp(args[2])
		if err != nil {
			return err
		}
		pwm, err := parsePWM(args[3])
		if err != nil {
			return err
		}
		return withSession(func(s *d5next.Session) error {
			if err := s.SetCurveTemp(channel, point, milli); err != nil {
				return err
			}
			if err := s.SetCurvePower(channel, point, pwm); err != nil {
				return err
			}
			fmt.Printf("%s curve point %d set to %.2f °C -> %d/255\n",
				channel, point, float64(milli)/1000, pwm)
			return nil
		})
	},
}
