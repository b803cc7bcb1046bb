// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Aquastat Authors

package d5next

import "fmt"

// Two channel numbering conventions coexist. Externally the pump is channel
// 0 and the fan is channel 1. Inside the control report and the sensor
// arrays the device orders them the other way around: fan 0, pump 1.
// Channel is the external numbering; internalChannel is the device's. The
// type split keeps the translation at the session boundary: everything
// below it only ever sees internalChannel values.

// Channel identifies a control channel in the external numbering.
type Channel int

// External channel values
const (
	ChannelPump Channel = 0
	ChannelFan  Channel = 1

	NumChannels = 2
)

func (c Channel) String() string {
	switch c {
	case ChannelPump:
		return "pump"
	case ChannelFan:
		return "fan"
	default:
		return fmt.Sprintf("channel(%d)", int(c))
	}
}

// ParseChannel parses an external channel name.
func ParseChannel(s string) (Channel, error) {
	switch s {
	case "pump":
		return ChannelPump, nil
	case "fan":
		return ChannelFan, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidChannel, s)
	}
}

// internalChannel identifies a control channel in the device's numbering.
type internalChannel int

const (
	chanFan  internalChannel = 0
	chanPump internalChannel = 1
)

// internal translates an external channel to the device's numbering.
func (c Channel) internal() (internalChannel, error) {
	switch c {
	case ChannelPump:
		return chanPump, nil
	case ChannelFan:
		return chanFan, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrInvalidChannel, int(c))
	}
}
