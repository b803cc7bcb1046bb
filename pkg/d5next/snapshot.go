// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Aquastat Authors

package d5next

import "time"

// Snapshot is a point-in-time copy of the most recent sensor report plus
// its arrival timestamp. It carries no logic and no memory beyond the
// current state; readers get copies, never a live reference.
type Snapshot struct {
	SensorReport
	Updated time.Time `cbor:"20,keyasint"`
}

// Fresh reports whether the snapshot is younger than the update interval
// at the given instant. A zero Updated time (no report seen yet) is never
// fresh.
func (s *Snapshot) Fresh(now time.Time, interval time.Duration) bool {
	if s.Updated.IsZero() {
		return false
	}
	return now.Sub(s.Updated) < interval
}
