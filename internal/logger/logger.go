// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Aquastat Authors

// Package logger provides the shared structured logger for the daemon
// side of the tool. One-shot commands print to stdout directly and do
// not use it.
package logger

import "sync"

// Log levels accepted in the daemon configuration.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

var (
	globalLogger *Logger
	once         sync.Once
)

// Get returns a singleton logger configured with the provided level. The
// first call initializes the logger; subsequent calls ignore the level and
// return the already initialized instance.
func Get(level string) *Logger {
	once.Do(func() {
		globalLogger = newZapLogger(level)
	})
	return globalLogger
}
