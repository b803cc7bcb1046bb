// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Aquastat Authors

package d5next

import (
	"errors"
	"testing"
)

func TestChannelTranslation(t *testing.T) {
	// External pump is internal 1, external fan is internal 0.
	ic, err := ChannelPump.internal()
	if err != nil || ic != chanPump || int(ic) != 1 {
		t.Errorf("ChannelPump.internal() = %d, %v; want 1, nil", ic, err)
	}

	ic, err = ChannelFan.internal()
	if err != nil || ic != chanFan || int(ic) != 0 {
		t.Errorf("ChannelFan.internal() = %d, %v; want 0, nil", ic, err)
	}
}

func TestChannelTranslation_Invalid(t *testing.T) {
	for _, c := range []Channel{-1, 2, 99} {
		if _, err := c.internal(); !errors.Is(err, ErrInvalidChannel) {
			t.Errorf("Channel(%d).internal() error = %v, want ErrInvalidChannel", int(c), err)
		}
	}
}

func TestParseChannel(t *testing.T) {
	if c, err := ParseChannel("pump"); err != nil || c != ChannelPump {
		t.Errorf("ParseChannel(pump) = %v, %v", c, err)
	}
	if c, err := ParseChannel("fan"); err != nil || c != ChannelFan {
		t.Errorf("ParseChannel(fan) = %v, %v", c, err)
	}
	if _, err := ParseChannel("blower"); !errors.Is(err, ErrInvalidChannel) {
		t.Errorf("ParseChannel(blower) error = %v, want ErrInvalidChannel", err)
	}
}

func TestChannelString(t *testing.T) {
	if ChannelPump.String() != "pump" || ChannelFan.String() != "fan" {
		t.Errorf("unexpected channel names: %s, %s", ChannelPump, ChannelFan)
	}
}
