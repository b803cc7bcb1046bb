// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Aquastat Authors

package d5next

import "errors"

// Protocol error kinds. Configuration-path errors abort the current
// transaction; none are retried here. None are fatal to the session.
var (
	// ErrDeviceUnresponsive means a configuration download returned no
	// data or a short read.
	ErrDeviceUnresponsive = errors.New("device unresponsive")

	// ErrDeviceWriteFailed means the configuration upload or the
	// follow-up acknowledgement report could not be sent.
	ErrDeviceWriteFailed = errors.New("device write failed")

	// ErrStaleData means the cached snapshot is older than the telemetry
	// update interval.
	ErrStaleData = errors.New("stale sensor data")

	// ErrInvalidChannel means a channel value outside {Pump, Fan}.
	ErrInvalidChannel = errors.New("invalid channel")

	// ErrInvalidMode means a control mode outside {Manual, PID, Curve}.
	ErrInvalidMode = errors.New("invalid control mode")

	// ErrUnsupportedWidth means a field access of a width the transaction
	// engine does not support. It is reported before any device I/O.
	ErrUnsupportedWidth = errors.New("unsupported field width")

	// ErrMalformedTelemetry means a sensor report too short to decode.
	// Ingestion drops such reports without touching the snapshot.
	ErrMalformedTelemetry = errors.New("malformed sensor report")
)
