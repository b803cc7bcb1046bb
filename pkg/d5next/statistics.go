// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Aquastat Authors

package d5next

import (
	"fmt"
	"time"
)

// Statistics tracks ingestion counters for one session.
type Statistics struct {
	StartTime time.Time `cbor:"1,keyasint"`

	// Reports counts successfully decoded sensor reports.
	Reports uint64 `cbor:"2,keyasint"`
	// Ignored counts inbound reports with a non-sensor report ID.
	Ignored uint64 `cbor:"3,keyasint"`
	// Malformed counts sensor reports dropped as undecodable.
	Malformed uint64 `cbor:"4,keyasint"`
}

// ReportRate returns the average rate of decoded reports per second.
func (s *Statistics) ReportRate() float64 {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(s.Reports) / elapsed
}

// String returns a formatted summary.
func (s *Statistics) String() string {
	result := fmt.Sprintf("Reports:   %8d (%.2f/s)\n", s.Reports, s.ReportRate())
	result += fmt.Sprintf("Ignored:   %8d\n", s.Ignored)
	result += fmt.Sprintf("Malformed: %8d\n", s.Malformed)
	return result
}
