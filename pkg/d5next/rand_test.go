// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Aquastat Authors

package d5next

import (
	"math/rand"
	"os"
	"strconv"
	"testing"
	"time"
)

// getTestSeed returns the seed from the FUZZ_SEED env var, or generates
// one from the current time.
func getTestSeed() int64 {
	if envSeed := os.Getenv("FUZZ_SEED"); envSeed != "" {
		if seed, err := strconv.ParseInt(envSeed, 10, 64); err == nil {
			return seed
		}
	}
	return time.Now().UnixNano()
}

// getTestRounds returns the number of randomized rounds from the
// FUZZ_ROUNDS env var, default fallback.
func getTestRounds(fallback int) int {
	if envRounds := os.Getenv("FUZZ_ROUNDS"); envRounds != "" {
		if rounds, err := strconv.Atoi(envRounds); err == nil && rounds > 0 {
			return rounds
		}
	}
	return fallback
}

// newTestRng creates a seeded random number generator and logs the seed
// for reproducibility.
func newTestRng(t *testing.T) *rand.Rand {
	seed := getTestSeed()
	t.Logf("Seed: %d (reproduce with FUZZ_SEED=%d)", seed, seed)
	return rand.New(rand.NewSource(seed))
}
