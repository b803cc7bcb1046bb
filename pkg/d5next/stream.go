// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Aquastat Authors

package d5next

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Telemetry stream frames. A serve daemon encodes snapshots and ingest
// statistics as CBOR frames and broadcasts them to websocket clients; the
// monitor and TUI commands decode them on the other end.

// FrameKind tags a stream frame.
type FrameKind uint8

// Frame kinds
const (
	FrameSnapshot FrameKind = 1
	FrameStats    FrameKind = 2
)

// Frame is one telemetry stream message. Exactly one payload field is set,
// selected by Kind.
type Frame struct {
	Kind     FrameKind   `cbor:"1,keyasint"`
	Snapshot *Snapshot   `cbor:"2,keyasint,omitempty"`
	Stats    *Statistics `cbor:"3,keyasint,omitempty"`
}

// EncodeFrame encodes a frame to its CBOR wire form.
func EncodeFrame(f *Frame) ([]byte, error) {
	data, err := cbor.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode stream frame: %w", err)
	}
	return data, nil
}

// DecodeFrame decodes a CBOR stream frame.
func DecodeFrame(data []byte) (*Frame, error) {
	var f Frame
	if err := cbor.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode stream frame: %w", err)
	}
	return &f, nil
}
