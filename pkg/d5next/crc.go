// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Aquastat Authors

package d5next

import "encoding/binary"

// CRC-16/USB configuration: reflected 0x8005 polynomial, init 0xFFFF,
// xorout 0xFFFF.
const (
	crcPolynomial = 0xA001
	crcInitial    = 0xFFFF
	crcXorOut     = 0xFFFF
)

// Checksum computes the CRC-16/USB checksum of data.
func Checksum(data []byte) uint16 {
	crc := uint16(crcInitial)
	for _, b := range data {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ crcPolynomial
			} else {
				crc >>= 1
			}
		}
	}
	return crc ^ crcXorOut
}

// blobChecksum computes the checksum of a control report over the fixed
// checksummed sub-range (everything between the report ID byte and the
// trailing CRC field).
func blobChecksum(blob []byte) uint16 {
	return Checksum(blob[checksumStart : checksumStart+checksumLength])
}

// VerifyChecksum reports whether the trailing CRC of a full control report
// matches the checksum of its checksummed sub-range. The device validates
// uploads this way; downloads are accepted without validation, so this is
// offered for diagnostics.
func VerifyChecksum(blob []byte) bool {
	if len(blob) < ControlReportSize {
		return false
	}
	return binary.BigEndian.Uint16(blob[offControlCRC:]) == blobChecksum(blob)
}
